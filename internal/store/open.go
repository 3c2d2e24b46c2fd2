package store

import (
	"context"
	"fmt"
	"io"

	"github.com/redis/go-redis/v9"

	"trade-profit-calculator-go/internal/config"
	"trade-profit-calculator-go/internal/database"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open builds the store selected by cfg.Storage.Driver. The returned closer
// releases the underlying connection.
func Open(ctx context.Context, cfg config.Config) (BlobStore, io.Closer, error) {
	switch cfg.Storage.Driver {
	case "memory":
		return NewMemoryStore(), nopCloser{}, nil
	case "", "sqlite":
		db, err := database.NewDatabase(&cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get sql handle: %w", err)
		}
		return NewSQLStore(db), sqlDB, nil
	case "redis":
		s := NewRedisStore(redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}), "")
		if err := s.Ping(ctx); err != nil {
			_ = s.Close()
			return nil, nil, err
		}
		return s, s, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Storage.Driver)
	}
}
