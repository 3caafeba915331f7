package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// RecordLabel stores a user's judgment for an item, bumps the user's counter
// for the day of now, and releases the item's lease, all in one transaction.
// The lease is released even when the caller no longer holds it. A second
// label from the same user is reported as a duplicate and counts nothing.
func (db *DB) RecordLabel(ctx context.Context, itemID, userID int64, isPositive bool, confidence int, now time.Time) (*LabelResult, error) {
	var res LabelResult

	err := db.withTx(ctx, func(tx *sql.Tx) error {
		var one int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM items WHERE id = ?", itemID).Scan(&one)
		if err == sql.ErrNoRows {
			return fmt.Errorf("item %d: %w", itemID, ErrNotFound)
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
			`INSERT INTO labels (item_id, user_id, is_positive, confidence, labeled_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(item_id, user_id) DO NOTHING`,
			itemID, userID, boolToInt(isPositive), confidence, formatTimestamp(now),
		)
		if err != nil {
			return err
		}
		n, err := result.RowsAffected()
		if err != nil {
			return err
		}

		if n == 0 {
			res.Duplicate = true
		} else {
			if res.LabelID, err = result.LastInsertId(); err != nil {
				return err
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO daily_contributions (user_id, day, count) VALUES (?, ?, 1)
				ON CONFLICT(user_id, day) DO UPDATE SET count = count + 1`,
				userID, Day(now),
			)
			if err != nil {
				return err
			}
		}

		return clearLease(ctx, tx, itemID)
	})
	if err != nil {
		return nil, classify("recording label", err)
	}

	db.log.Debug("label stored", "item_id", itemID, "user_id", userID, "duplicate", res.Duplicate)
	return &res, nil
}
