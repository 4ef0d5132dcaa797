package votes

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rickgao/reqvest/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS members (
	namespace   TEXT NOT NULL,
	member_id   TEXT NOT NULL,
	member_name TEXT NOT NULL,
	PRIMARY KEY (namespace, member_id)
);

CREATE TABLE IF NOT EXISTS requests (
	namespace TEXT NOT NULL,
	ticker    TEXT NOT NULL,
	PRIMARY KEY (namespace, ticker)
);

CREATE TABLE IF NOT EXISTS member_requests (
	namespace  TEXT NOT NULL,
	member_id  TEXT NOT NULL,
	ticker     TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (namespace, member_id, ticker),
	FOREIGN KEY (namespace, member_id) REFERENCES members (namespace, member_id) ON DELETE CASCADE,
	FOREIGN KEY (namespace, ticker) REFERENCES requests (namespace, ticker) ON DELETE CASCADE
);
`

// PostgresStore is a Recorder backed by PostgreSQL.
type PostgresStore struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgresStore creates a PostgresStore on db.
func NewPostgresStore(db *pgxpool.Pool, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{db: db, logger: logger}
}

// Migrate creates the vote tables if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create vote tables: %w", err)
	}
	return nil
}

// Ping verifies the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// RecordVote upserts the member and inserts one vote per ticker in a single
// transaction. Votes the member already cast are ignored.
func (s *PostgresStore) RecordVote(ctx context.Context, namespace, userID, displayName string, tickers []string) error {
	tickers = normalizeTickers(tickers)
	if len(tickers) == 0 {
		return nil
	}

	start := time.Now()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	batch.Queue(`
		INSERT INTO members (namespace, member_id, member_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (namespace, member_id) DO UPDATE SET member_name = EXCLUDED.member_name
	`, namespace, userID, displayName)
	for _, t := range tickers {
		batch.Queue(`
			INSERT INTO requests (namespace, ticker)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, namespace, t)
		batch.Queue(`
			INSERT INTO member_requests (namespace, member_id, ticker)
			VALUES ($1, $2, $3)
			ON CONFLICT DO NOTHING
		`, namespace, userID, t)
	}

	conflicts, err := execBatch(ctx, tx, batch)
	if err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit votes: %w", err)
	}

	s.logger.Debug("recorded votes",
		"namespace", namespace,
		"member", userID,
		"count", len(tickers),
		"repeats", conflicts,
		"duration", time.Since(start),
	)
	return nil
}

// execBatch sends batch and counts member_requests inserts that hit a conflict.
func execBatch(ctx context.Context, tx pgx.Tx, batch *pgx.Batch) (conflicts int, err error) {
	results := tx.SendBatch(ctx, batch)

	for i := 0; i < batch.Len(); i++ {
		ct, err := results.Exec()
		if err != nil {
			results.Close()
			return 0, fmt.Errorf("exec vote batch: %w", err)
		}
		// Queue order is member, then (request, member_request) per ticker.
		if i > 0 && i%2 == 0 && ct.RowsAffected() == 0 {
			conflicts++
		}
	}

	if err := results.Close(); err != nil {
		return 0, fmt.Errorf("close vote batch: %w", err)
	}
	return conflicts, nil
}

// CountVotes tallies votes per ticker.
func (s *PostgresStore) CountVotes(ctx context.Context, namespace string) ([]model.Tally, error) {
	rows, err := s.db.Query(ctx, `
		SELECT ticker, COUNT(*) AS votes
		FROM member_requests
		WHERE namespace = $1
		GROUP BY ticker
		ORDER BY votes DESC, ticker ASC
	`, namespace)
	if err != nil {
		return nil, fmt.Errorf("query vote counts: %w", err)
	}

	tally, err := pgx.CollectRows(rows, pgx.RowToStructByPos[model.Tally])
	if err != nil {
		return nil, fmt.Errorf("scan vote counts: %w", err)
	}
	return tally, nil
}

// ResetVotes deletes the namespace's members and requests; votes cascade.
func (s *PostgresStore) ResetVotes(ctx context.Context, namespace string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM members WHERE namespace = $1`, namespace); err != nil {
		return fmt.Errorf("delete members: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM requests WHERE namespace = $1`, namespace); err != nil {
		return fmt.Errorf("delete requests: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit reset: %w", err)
	}
	s.logger.Info("votes reset", "namespace", namespace)
	return nil
}
