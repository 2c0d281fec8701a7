package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// DB wraps a PostgreSQL connection pool for execution history and
// user entitlement records.
type DB struct {
	pool *pgxpool.Pool
}

// New creates a new database connection pool.
func New(ctx context.Context, dsn string) (*DB, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing database DSN: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 2
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	log.Info().Msg("connected to PostgreSQL")
	return &DB{pool: pool}, nil
}

// Close shuts down the connection pool.
func (db *DB) Close() {
	db.pool.Close()
}

// Healthy checks database connectivity.
func (db *DB) Healthy(ctx context.Context) bool {
	return db.pool.Ping(ctx) == nil
}

// InsertExecution appends one execution record. Single atomic insert;
// duplicate calls append duplicate rows.
func (db *DB) InsertExecution(ctx context.Context, rec *ExecutionRecord) error {
	query := `
		INSERT INTO code_executions (id, user_id, language, source_text, output_text, error_text, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := db.pool.Exec(ctx, query,
		rec.ID, rec.UserID, rec.Language,
		truncateForDB(rec.SourceText, 65535),
		truncateForDB(rec.OutputText, 65535),
		truncateForDB(rec.ErrorText, 65535),
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting execution record: %w", err)
	}
	return nil
}

// FindUserByIdentity returns the user record for an identity subject,
// or nil when no record exists.
func (db *DB) FindUserByIdentity(ctx context.Context, subject string) (*User, error) {
	query := `
		SELECT user_id, email, name, is_pro, pro_since, created_at
		FROM users WHERE user_id = $1`

	var user User
	err := db.pool.QueryRow(ctx, query, subject).Scan(
		&user.UserID, &user.Email, &user.Name,
		&user.IsPro, &user.ProSince, &user.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying user %s: %w", subject, err)
	}
	return &user, nil
}

// SetUserPro upserts the user's paid entitlement flag.
func (db *DB) SetUserPro(ctx context.Context, subject string, isPro bool) error {
	query := `
		INSERT INTO users (user_id, is_pro, pro_since, created_at)
		VALUES ($1, $2, CASE WHEN $2 THEN now() END, now())
		ON CONFLICT (user_id) DO UPDATE
		SET is_pro = $2,
		    pro_since = CASE WHEN $2 AND users.pro_since IS NULL THEN now() ELSE users.pro_since END`

	if _, err := db.pool.Exec(ctx, query, subject, isPro); err != nil {
		return fmt.Errorf("updating entitlement for %s: %w", subject, err)
	}
	return nil
}

// GetExecution retrieves a single execution record owned by userID.
func (db *DB) GetExecution(ctx context.Context, id, userID string) (*ExecutionRecord, error) {
	query := `
		SELECT id, user_id, language, source_text, output_text, error_text, created_at
		FROM code_executions WHERE id = $1 AND user_id = $2`

	var rec ExecutionRecord
	err := db.pool.QueryRow(ctx, query, id, userID).Scan(
		&rec.ID, &rec.UserID, &rec.Language,
		&rec.SourceText, &rec.OutputText, &rec.ErrorText,
		&rec.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("querying execution %s: %w", id, err)
	}
	return &rec, nil
}

// ListExecutions queries a user's execution history, newest first.
func (db *DB) ListExecutions(ctx context.Context, filter HistoryFilter) ([]ExecutionRecord, error) {
	query := `
		SELECT id, user_id, language, source_text, output_text, error_text, created_at
		FROM code_executions
		WHERE user_id = $1
		  AND ($2 = '' OR language = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`

	limit := filter.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	rows, err := db.pool.Query(ctx, query,
		filter.UserID, filter.Language, limit, filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("querying execution history: %w", err)
	}
	defer rows.Close()

	var results []ExecutionRecord
	for rows.Next() {
		var rec ExecutionRecord
		if err := rows.Scan(
			&rec.ID, &rec.UserID, &rec.Language,
			&rec.SourceText, &rec.OutputText, &rec.ErrorText,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning execution row: %w", err)
		}
		results = append(results, rec)
	}

	return results, rows.Err()
}

func truncateForDB(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
