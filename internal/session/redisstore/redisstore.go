package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/scoutdig/scout/config"
	"github.com/scoutdig/scout/models"
)

const keyPrefix = "scout:session:"

// Store keeps session history in a Redis list, one JSON-encoded turn
// per element, with a TTL refreshed on every write.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(ctx context.Context, cfg config.RedisConfig, ttl time.Duration) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("redis connect: %w", err)
	}

	return &Store{client: client, ttl: ttl}, nil
}

// NewStoreWithClient wires an existing client, used by tests.
func NewStoreWithClient(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func key(id string) string { return keyPrefix + id }

func (s *Store) Ensure(ctx context.Context, id string) (string, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if err := s.client.Expire(ctx, key(id), s.ttl).Err(); err != nil {
		return "", fmt.Errorf("redis expire: %w", err)
	}
	return id, nil
}

func (s *Store) History(ctx context.Context, id string) ([]models.Turn, error) {
	raw, err := s.client.LRange(ctx, key(id), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange: %w", err)
	}
	turns := make([]models.Turn, 0, len(raw))
	for _, item := range raw {
		var turn models.Turn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			return nil, fmt.Errorf("redis decode turn: %w", err)
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

func (s *Store) Append(ctx context.Context, id string, turns ...models.Turn) error {
	if len(turns) == 0 {
		return nil
	}
	items := make([]interface{}, 0, len(turns))
	for _, turn := range turns {
		encoded, err := json.Marshal(turn)
		if err != nil {
			return fmt.Errorf("redis encode turn: %w", err)
		}
		items = append(items, encoded)
	}

	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key(id), items...)
	pipe.Expire(ctx, key(id), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis append: %w", err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, key(id)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error { return s.client.Close() }
