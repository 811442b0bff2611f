package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("not_found")

// Store is the permanent, append-only record of tables. The gameplay core
// writes it at creation and at terminal transitions only; it is never read
// mid-game, so it plays no part in concurrency control.
type Store struct {
	Pool *pgxpool.Pool
}

func New(dsn string) (*Store, error) {
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	if s.Pool != nil {
		s.Pool.Close()
	}
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.Pool.Ping(ctx)
}

const schema = `
CREATE TABLE IF NOT EXISTS table_records (
    id            TEXT PRIMARY KEY,
    table_type_id TEXT NOT NULL,
    variant       TEXT NOT NULL,
    join_fee      BIGINT NOT NULL DEFAULT 0,
    tournament_id TEXT NOT NULL DEFAULT '',
    round_no      INT NOT NULL DEFAULT 0,
    status        TEXT NOT NULL,
    players       JSONB NOT NULL,
    winners       JSONB,
    scores        JSONB,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
    ended_at      TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS table_records_tournament_idx
    ON table_records (tournament_id, round_no);
`

func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.Pool.Exec(ctx, schema)
	return err
}
