package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/FACorreiaa/go-roteiro-planner/internal/types"
)

// DBTX is the subset of pgxpool.Pool the store needs.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ KV = (*PostgresKV)(nil)

// PostgresKV stores JSON payloads in the client_state table.
type PostgresKV struct {
	logger *slog.Logger
	pgpool DBTX
}

func NewPostgresKV(pgpool DBTX, logger *slog.Logger) *PostgresKV {
	return &PostgresKV{logger: logger, pgpool: pgpool}
}

func (r *PostgresKV) Get(ctx context.Context, key string) ([]byte, error) {
	query := `SELECT payload FROM client_state WHERE state_key = $1`

	var payload []byte
	err := r.pgpool.QueryRow(ctx, query, key).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("key %q: %w", key, types.ErrNotFound)
		}
		r.logger.ErrorContext(ctx, "Failed to read client state", slog.String("key", key), slog.Any("error", err))
		return nil, fmt.Errorf("failed to read client state: %w", err)
	}
	return payload, nil
}

func (r *PostgresKV) Set(ctx context.Context, key string, value []byte) error {
	query := `
        INSERT INTO client_state (state_key, payload, updated_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT (state_key) DO UPDATE
        SET payload = EXCLUDED.payload, updated_at = NOW()
    `
	if _, err := r.pgpool.Exec(ctx, query, key, value); err != nil {
		r.logger.ErrorContext(ctx, "Failed to write client state", slog.String("key", key), slog.Any("error", err))
		return fmt.Errorf("failed to write client state: %w", err)
	}
	return nil
}

func (r *PostgresKV) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM client_state WHERE state_key = $1`
	if _, err := r.pgpool.Exec(ctx, query, key); err != nil {
		r.logger.ErrorContext(ctx, "Failed to delete client state", slog.String("key", key), slog.Any("error", err))
		return fmt.Errorf("failed to delete client state: %w", err)
	}
	return nil
}
