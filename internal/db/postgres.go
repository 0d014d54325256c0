package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func Connect(databaseURL string) (*sql.DB, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL not configured")
	}

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS products (
	barcode           TEXT PRIMARY KEY,
	name              TEXT NOT NULL DEFAULT '',
	brand             TEXT NOT NULL DEFAULT '',
	category          TEXT NOT NULL DEFAULT '',
	ingredients_raw   TEXT NOT NULL DEFAULT '',
	ingredients       JSONB NOT NULL DEFAULT '[]',
	nutrition         JSONB NOT NULL DEFAULT '{}',
	flagged_additives JSONB NOT NULL DEFAULT '[]',
	image_url         TEXT NOT NULL DEFAULT '',
	source            TEXT NOT NULL DEFAULT '',
	status            TEXT NOT NULL DEFAULT 'active',
	is_verified       BOOLEAN NOT NULL DEFAULT FALSE,
	user_contributed  BOOLEAN NOT NULL DEFAULT FALSE,
	search_attempts   INTEGER NOT NULL DEFAULT 0,
	last_searched     TIMESTAMPTZ,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// EnsureSchema creates the products table when it does not exist yet.
func EnsureSchema(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}
