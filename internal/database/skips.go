package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// errAlreadySkipped aborts the skip transaction without side effects.
var errAlreadySkipped = errors.New("already skipped")

// SkipItem removes the item identified by key from the user's candidate pool
// and releases its lease. It returns false, with nothing changed, if the user
// had already skipped the item.
func (db *DB) SkipItem(ctx context.Context, key string, userID int64, now time.Time) (bool, error) {
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		var itemID int64
		err := tx.QueryRowContext(ctx, "SELECT id FROM items WHERE item_key = ?", key).Scan(&itemID)
		if err == sql.ErrNoRows {
			return fmt.Errorf("item %q: %w", key, ErrNotFound)
		}
		if err != nil {
			return err
		}
		ok, err := userExists(ctx, tx, userID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("user %d: %w", userID, ErrNotFound)
		}

		result, err := tx.ExecContext(ctx,
			`INSERT INTO skips (item_id, user_id, skipped_at) VALUES (?, ?, ?)
			ON CONFLICT(item_id, user_id) DO NOTHING`,
			itemID, userID, formatTimestamp(now),
		)
		if err != nil {
			return err
		}
		n, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return errAlreadySkipped
		}

		return clearLease(ctx, tx, itemID)
	})
	if errors.Is(err, errAlreadySkipped) {
		return false, nil
	}
	if err != nil {
		return false, classify("skipping item", err)
	}
	return true, nil
}

// CountSkips returns how many items the user has skipped.
func (db *DB) CountSkips(ctx context.Context, userID int64) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM skips WHERE user_id = ?", userID,
	).Scan(&n)
	if err != nil {
		return 0, classify("counting skips", err)
	}
	return n, nil
}
