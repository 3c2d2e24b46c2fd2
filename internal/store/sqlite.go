package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"trade-profit-calculator-go/internal/models"
)

// SQLStore keeps documents in the blobs table.
type SQLStore struct {
	db *gorm.DB
}

// NewSQLStore wraps a migrated database handle (see database.NewDatabase).
func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var blob models.Blob
	err := s.db.WithContext(ctx).Where("name = ?", key).First(&blob).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %q: %w", key, err)
	}
	if blob.Value == nil {
		return []byte{}, true, nil
	}
	return blob.Value, true, nil
}

func (s *SQLStore) Put(ctx context.Context, key string, value []byte) error {
	blob := models.Blob{Name: key, Value: value}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&blob).Error
	if err != nil {
		return fmt.Errorf("failed to write %q: %w", key, err)
	}
	return nil
}
