package session

import (
	"context"
	"fmt"
	"time"

	"github.com/scoutdig/scout/config"
	"github.com/scoutdig/scout/internal/session/inmemory"
	"github.com/scoutdig/scout/internal/session/redisstore"
	"github.com/scoutdig/scout/models"
)

// Store keeps conversation history per session so chat mode can carry
// context across queries.
type Store interface {
	// Ensure creates the session if needed and refreshes its TTL. An
	// empty id asks the store to mint a new one.
	Ensure(ctx context.Context, id string) (string, error)
	// History returns the recorded turns in order. A missing session
	// yields an empty history, not an error.
	History(ctx context.Context, id string) ([]models.Turn, error)
	// Append adds turns to the session history.
	Append(ctx context.Context, id string, turns ...models.Turn) error
	// Clear drops the session.
	Clear(ctx context.Context, id string) error
}

const (
	InMemoryBackend = "inmemory"
	RedisBackend    = "redis"
)

// NewStore builds the backend selected by configuration.
func NewStore(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	ttl := cfg.Session.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	switch cfg.Session.Backend {
	case "", InMemoryBackend:
		return inmemory.NewStore(ttl), nil
	case RedisBackend:
		return redisstore.NewStore(ctx, cfg.Redis, ttl)
	default:
		return nil, fmt.Errorf("unsupported session backend: %s", cfg.Session.Backend)
	}
}
