package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT UNIQUE NOT NULL,
    is_admin INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS items (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    item_key TEXT UNIQUE NOT NULL,
    title TEXT,
    description TEXT,
    view_count INTEGER,
    like_count INTEGER,
    thumbnail_url TEXT,
    local_thumbnail_path TEXT,
    duration_seconds INTEGER,
    upload_date TEXT,
    channel_id TEXT,
    channel_name TEXT,
    video_url TEXT,
    ready INTEGER NOT NULL DEFAULT 0,
    lease_holder INTEGER REFERENCES users(id),
    lease_time TEXT,
    created_at TEXT NOT NULL,
    CHECK ((lease_holder IS NULL) = (lease_time IS NULL))
);

CREATE TABLE IF NOT EXISTS labels (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    item_id INTEGER NOT NULL REFERENCES items(id),
    user_id INTEGER NOT NULL REFERENCES users(id),
    is_positive INTEGER NOT NULL,
    confidence INTEGER NOT NULL CHECK (confidence BETWEEN 1 AND 4),
    labeled_at TEXT NOT NULL,
    UNIQUE (item_id, user_id)
);

CREATE TABLE IF NOT EXISTS skips (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    item_id INTEGER NOT NULL REFERENCES items(id),
    user_id INTEGER NOT NULL REFERENCES users(id),
    skipped_at TEXT NOT NULL,
    UNIQUE (item_id, user_id)
);

CREATE TABLE IF NOT EXISTS daily_contributions (
    user_id INTEGER NOT NULL REFERENCES users(id),
    day TEXT NOT NULL,
    count INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (user_id, day)
);

CREATE TABLE IF NOT EXISTS instructions (
    version INTEGER PRIMARY KEY,
    body TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_items_ready ON items(ready);
CREATE INDEX IF NOT EXISTS idx_items_lease_holder ON items(lease_holder);
CREATE INDEX IF NOT EXISTS idx_labels_user ON labels(user_id);
CREATE INDEX IF NOT EXISTS idx_labels_labeled_at ON labels(labeled_at);
CREATE INDEX IF NOT EXISTS idx_skips_user ON skips(user_id);
`)
			return err
		},
	},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
