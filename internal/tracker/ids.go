package tracker

import "github.com/google/uuid"

// IDGenerator produces calculator ids unique within the process.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator yields ids of the form calc-<uuid>.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string { return "calc-" + uuid.NewString() }
