package sqlite

import (
	"context"
	"fmt"
)

// schema holds the full relational shape of the service. Statements are
// idempotent so Migrate can run on every startup.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		name TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('admin', 'user')),
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS authorized_users (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS history (
		id TEXT PRIMARY KEY,
		user_id TEXT REFERENCES users(id),
		event_type TEXT NOT NULL,
		result TEXT NOT NULL,
		details TEXT,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_history_created_at ON history(created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS entry_requests (
		id TEXT PRIMARY KEY,
		visitor_name TEXT NOT NULL,
		visitor_phone TEXT,
		status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'accepted', 'refused')),
		responded_by TEXT REFERENCES users(id),
		responded_at TEXT,
		created_at TEXT NOT NULL
	)`,
}

// Migrate applies the embedded schema to the connected database.
func (cp *ConnectionPool) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := cp.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}
