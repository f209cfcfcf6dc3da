package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createSnapshotTable = `
CREATE TABLE IF NOT EXISTS floor_snapshots (
	slot       TEXT PRIMARY KEY,
	data       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// SnapshotRepo keeps encoded floor snapshots in a single Postgres table.
type SnapshotRepo struct {
	url    string
	pool   *pgxpool.Pool
	logger apt.Logger
}

func NewSnapshotRepo(url string, logger apt.Logger) *SnapshotRepo {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &SnapshotRepo{url: url, logger: logger}
}

func (r *SnapshotRepo) Start(ctx context.Context) error {
	pool, err := pgxpool.New(ctx, r.url)
	if err != nil {
		return fmt.Errorf("cannot connect to Postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("cannot ping Postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, createSnapshotTable); err != nil {
		pool.Close()
		return fmt.Errorf("cannot create snapshot table: %w", err)
	}
	r.pool = pool
	r.logger.Info("Connected to Postgres")
	return nil
}

func (r *SnapshotRepo) Stop(ctx context.Context) error {
	if r.pool != nil {
		r.pool.Close()
		r.logger.Info("Disconnected from Postgres")
	}
	return nil
}

func (r *SnapshotRepo) Load(ctx context.Context, key string) ([]byte, error) {
	var data string
	err := r.pool.QueryRow(ctx, `SELECT data::text FROM floor_snapshots WHERE slot = $1`, key).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot load snapshot %s: %w", key, err)
	}
	return []byte(data), nil
}

func (r *SnapshotRepo) Save(ctx context.Context, key string, data []byte) error {
	const upsert = `
INSERT INTO floor_snapshots (slot, data, updated_at)
VALUES ($1, $2::jsonb, now())
ON CONFLICT (slot) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`

	if _, err := r.pool.Exec(ctx, upsert, key, string(data)); err != nil {
		return fmt.Errorf("cannot save snapshot %s: %w", key, err)
	}
	return nil
}
