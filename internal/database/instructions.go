package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// LatestInstructions returns the newest stored instructions, or nil if none
// have been saved.
func (db *DB) LatestInstructions(ctx context.Context) (*InstructionsRecord, error) {
	var rec InstructionsRecord
	var updatedAt string
	err := db.conn.QueryRowContext(ctx,
		"SELECT version, body, updated_at FROM instructions ORDER BY version DESC LIMIT 1",
	).Scan(&rec.Version, &rec.Body, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, classify("reading instructions", err)
	}
	if rec.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return nil, err
	}
	return &rec, nil
}

// SaveInstructions appends a new version of the instructions. When
// expectedVersion is non-negative it must equal the current version (0 when
// nothing is stored) or ErrVersionMismatch is returned.
func (db *DB) SaveInstructions(ctx context.Context, body string, expectedVersion int, now time.Time) (*InstructionsRecord, error) {
	rec := InstructionsRecord{Body: body, UpdatedAt: now.UTC().Truncate(time.Microsecond)}

	err := db.withTx(ctx, func(tx *sql.Tx) error {
		var current int
		err := tx.QueryRowContext(ctx,
			"SELECT COALESCE(MAX(version), 0) FROM instructions",
		).Scan(&current)
		if err != nil {
			return err
		}
		if expectedVersion >= 0 && expectedVersion != current {
			return fmt.Errorf("expected version %d, current %d: %w", expectedVersion, current, ErrVersionMismatch)
		}

		rec.Version = current + 1
		_, err = tx.ExecContext(ctx,
			"INSERT INTO instructions (version, body, updated_at) VALUES (?, ?, ?)",
			rec.Version, body, formatTimestamp(now),
		)
		return err
	})
	if err != nil {
		return nil, classify("saving instructions", err)
	}
	return &rec, nil
}
