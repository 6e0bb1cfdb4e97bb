package store

import (
	"context"
	"database/sql"
	"strings"
)

// schema contains the DDL for all chorewheel tables.
// Each statement uses IF NOT EXISTS for idempotency.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id         TEXT PRIMARY KEY,
		email      TEXT NOT NULL UNIQUE,
		name       TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS spaces (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		full_name  TEXT NOT NULL,
		parent_id  TEXT REFERENCES spaces(id) ON DELETE CASCADE,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_spaces_parent_id ON spaces(parent_id)`,

	`CREATE TABLE IF NOT EXISTS space_members (
		space_id  TEXT NOT NULL REFERENCES spaces(id) ON DELETE CASCADE,
		user_id   TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		available INTEGER NOT NULL DEFAULT 1,
		joined_at TEXT NOT NULL,
		PRIMARY KEY (space_id, user_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_space_members_user_id ON space_members(user_id)`,

	`CREATE TABLE IF NOT EXISTS chores (
		id            TEXT PRIMARY KEY,
		space_id      TEXT NOT NULL REFERENCES spaces(id) ON DELETE CASCADE,
		name          TEXT NOT NULL,
		interval_days INTEGER NOT NULL DEFAULT 7,
		next_user_id  TEXT NOT NULL DEFAULT '',
		last_user_id  TEXT NOT NULL DEFAULT '',
		next_date     TEXT,
		last_date     TEXT,
		start_date    TEXT NOT NULL,
		min_vwork     REAL NOT NULL DEFAULT 0,
		created_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_chores_space_id ON chores(space_id)`,
	`CREATE INDEX IF NOT EXISTS idx_chores_next_date ON chores(next_date)`,

	`CREATE TABLE IF NOT EXISTS participants (
		chore_id  TEXT NOT NULL REFERENCES chores(id) ON DELETE CASCADE,
		user_id   TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		vwork     REAL NOT NULL DEFAULT 0,
		work      INTEGER NOT NULL DEFAULT 0,
		weight    REAL NOT NULL DEFAULT 1,
		available INTEGER NOT NULL DEFAULT 1,
		PRIMARY KEY (chore_id, user_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_participants_user_id ON participants(user_id)`,

	`CREATE TABLE IF NOT EXISTS completions (
		id           TEXT PRIMARY KEY,
		chore_id     TEXT NOT NULL REFERENCES chores(id) ON DELETE CASCADE,
		user_id      TEXT NOT NULL,
		completed_on TEXT NOT NULL,
		vwork        REAL NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_completions_chore_id ON completions(chore_id)`,

	`CREATE TABLE IF NOT EXISTS sessions (
		token_hash TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TEXT NOT NULL,
		expires_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at)`,

	`CREATE TABLE IF NOT EXISTS membership_requests (
		id           TEXT PRIMARY KEY,
		space_id     TEXT NOT NULL REFERENCES spaces(id) ON DELETE CASCADE,
		from_user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		to_user_id   TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		status       TEXT NOT NULL DEFAULT 'pending',
		created_at   TEXT NOT NULL,
		responded_at TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_membership_requests_to_user ON membership_requests(to_user_id, status)`,
}

// alterStatements are column additions that need special handling since
// SQLite doesn't support IF NOT EXISTS for ALTER TABLE ADD COLUMN.
var alterStatements = []struct {
	table    string
	column   string
	alterSQL string
	indexSQL string // Optional index to create after column is added
}{
	{
		table:    "completions",
		column:   "recorded_at",
		alterSQL: "ALTER TABLE completions ADD COLUMN recorded_at TEXT NOT NULL DEFAULT ''",
	},
	{
		table:    "users",
		column:   "password_hash",
		alterSQL: "ALTER TABLE users ADD COLUMN password_hash TEXT NOT NULL DEFAULT ''",
	},
}

// migrate executes all schema DDL statements and alter migrations.
func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	for _, alter := range alterStatements {
		if err := addColumnIfNotExists(ctx, db, alter.table, alter.column, alter.alterSQL); err != nil {
			return err
		}
		if alter.indexSQL != "" {
			if _, err := db.ExecContext(ctx, alter.indexSQL); err != nil {
				return err
			}
		}
	}

	return nil
}

// addColumnIfNotExists adds a column to a table if it doesn't already exist.
func addColumnIfNotExists(ctx context.Context, db *sql.DB, table, column, alterSQL string) error {
	rows, err := db.QueryContext(ctx, "PRAGMA table_info("+table+")")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dfltValue *string
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			return err
		}
		if strings.EqualFold(name, column) {
			return nil // Column already exists
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	_, err = db.ExecContext(ctx, alterSQL)
	return err
}
