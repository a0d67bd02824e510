// Package store provides the key-value document backends behind the record
// store. Each key holds one JSON document (a whole collection or a
// singleton); callers replace documents wholesale and never patch them.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/tbourn/go-suggestion-box/internal/config"
)

// Document keys.
const (
	KeySuggestions   = "suggestions_db"
	KeyUsers         = "users_db"
	KeyCurrentUser   = "current_user"
	KeySettings      = "user_settings"
	KeyVotes         = "user_votes"
	KeyComments      = "comments_db"
	KeyNotifications = "notifications_db"
	KeyIdempotency   = "idempotency_db"
)

// ResetKeys are removed by a full reset.
var ResetKeys = []string{
	KeySuggestions,
	KeyUsers,
	KeyCurrentUser,
	KeySettings,
	KeyVotes,
	KeyComments,
	KeyNotifications,
}

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store: closed")

// KV is a document store. Get reports found=false for absent keys.
// Delete ignores keys that do not exist.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// Open builds the backend selected by cfg.Backend.
func Open(ctx context.Context, cfg config.StoreConfig) (KV, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return NewMemory(), nil
	case config.BackendSQLite:
		db, err := OpenSQLite(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return NewSQL(db)
	case config.BackendPostgres:
		db, err := OpenPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return NewSQL(db)
	case config.BackendRedis:
		return OpenRedis(ctx, cfg.Redis)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
