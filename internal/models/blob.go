package models

import "gorm.io/gorm"

// Blob is one entry of the key-value store when it is backed by the database.
// The whole calculator registry lives in a single row.
type Blob struct {
	gorm.Model
	Name  string `gorm:"uniqueIndex;not null"`
	Value []byte
}
