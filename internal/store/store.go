package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/scoutdig/scout/config"
	"github.com/scoutdig/scout/models"
)

// ErrRunNotFound is returned when no archived run matches the given id.
var ErrRunNotFound = errors.New("run not found")

// Store archives completed runs in Postgres. The JSONL log stays the
// source of truth for replay, the archive serves the HTTP API.
type Store struct {
	DB *sql.DB
}

func New(ctx context.Context, cfg config.PostgresConfig) (*Store, error) {
	db, err := sql.Open("postgres", cfg.PostgresDSN())
	if err != nil {
		return nil, fmt.Errorf("postgres open: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres connect: %w", err)
	}

	return &Store{DB: db}, nil
}

func (s *Store) Close() error { return s.DB.Close() }

// SaveRun archives one completed run.
func (s *Store) SaveRun(ctx context.Context, run models.RunLog) error {
	turns, err := json.Marshal(run.Turns)
	if err != nil {
		return fmt.Errorf("encode turns: %w", err)
	}
	toolCalls, err := json.Marshal(run.ToolCalls)
	if err != nil {
		return fmt.Errorf("encode tool calls: %w", err)
	}

	_, err = s.DB.ExecContext(ctx, `
        INSERT INTO runs (id, created_at, query, answer, turns, tool_calls, tokens_used, latency_seconds, success, error)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        ON CONFLICT (id) DO NOTHING`,
		run.ID, run.Timestamp, run.Query, run.Answer, turns, toolCalls,
		run.TokensUsed, run.LatencySeconds, run.Success, run.Error,
	)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}

// GetRun fetches one archived run by id.
func (s *Store) GetRun(ctx context.Context, id string) (models.RunLog, error) {
	row := s.DB.QueryRowContext(ctx, `
        SELECT id, created_at, query, answer, turns, tool_calls, tokens_used, latency_seconds, success, error
        FROM runs WHERE id = $1`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.RunLog{}, ErrRunNotFound
	}
	return run, err
}

// ListRuns returns archived runs newest first.
func (s *Store) ListRuns(ctx context.Context, limit, offset int) ([]models.RunLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.QueryContext(ctx, `
        SELECT id, created_at, query, answer, turns, tool_calls, tokens_used, latency_seconds, success, error
        FROM runs ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []models.RunLog
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (models.RunLog, error) {
	var (
		run       models.RunLog
		turns     []byte
		toolCalls []byte
	)
	err := row.Scan(&run.ID, &run.Timestamp, &run.Query, &run.Answer, &turns, &toolCalls,
		&run.TokensUsed, &run.LatencySeconds, &run.Success, &run.Error)
	if err != nil {
		return models.RunLog{}, err
	}
	if len(turns) > 0 {
		if err := json.Unmarshal(turns, &run.Turns); err != nil {
			return models.RunLog{}, fmt.Errorf("decode turns: %w", err)
		}
	}
	if len(toolCalls) > 0 {
		if err := json.Unmarshal(toolCalls, &run.ToolCalls); err != nil {
			return models.RunLog{}, fmt.Errorf("decode tool calls: %w", err)
		}
	}
	return run, nil
}
