package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `CREATE TABLE IF NOT EXISTS schedule_runs (
    run_id TEXT PRIMARY KEY,
    ts TIMESTAMPTZ NOT NULL,
    activity_ids TEXT[] NOT NULL DEFAULT '{}',
    record JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS schedule_runs_ts_idx ON schedule_runs (ts);`

// PostgresStore persists run records to Postgres as JSONB.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to dsn and ensures the schema exists.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresStoreWithPool wraps an existing pool. The schema must exist.
func NewPostgresStoreWithPool(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Append inserts the record.
func (s *PostgresStore) Append(ctx context.Context, rec Record) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	ids := activityIDs(rec)
	if ids == nil {
		ids = []string{}
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO schedule_runs (run_id, ts, activity_ids, record) VALUES ($1, $2, $3, $4)`,
		rec.RunID, rec.Timestamp, ids, b)
	return err
}

// Query returns records matching q in ascending timestamp order.
func (s *PostgresStore) Query(ctx context.Context, q Query) ([]Record, error) {
	var args []any
	query := `SELECT record FROM schedule_runs WHERE TRUE`
	if !q.Start.IsZero() {
		args = append(args, q.Start)
		query += fmt.Sprintf(` AND ts >= $%d`, len(args))
	}
	if !q.End.IsZero() {
		args = append(args, q.End)
		query += fmt.Sprintf(` AND ts <= $%d`, len(args))
	}
	if q.RunID != "" {
		args = append(args, q.RunID)
		query += fmt.Sprintf(` AND run_id = $%d`, len(args))
	}
	if q.ActivityID != "" {
		args = append(args, q.ActivityID)
		query += fmt.Sprintf(` AND $%d = ANY(activity_ids)`, len(args))
	}
	query += ` ORDER BY ts`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	res, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Record, error) {
		var data []byte
		if err := row.Scan(&data); err != nil {
			return Record{}, err
		}
		var r Record
		if err := json.Unmarshal(data, &r); err != nil {
			return Record{}, fmt.Errorf("unmarshal record: %w", err)
		}
		return r, nil
	})
	if err != nil {
		return nil, err
	}
	return q.limit(res), nil
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
