package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// heldItem reads back the user's current hold, provided they have neither
// labeled nor skipped that item since. The lease time is left as granted.
const heldItem = `SELECT ` + itemColumns + ` FROM items
	WHERE lease_holder = ? AND ready = 1
	  AND NOT EXISTS (SELECT 1 FROM labels l WHERE l.item_id = items.id AND l.user_id = ?)
	  AND NOT EXISTS (SELECT 1 FROM skips s WHERE s.item_id = items.id AND s.user_id = ?)
	ORDER BY id LIMIT 1`

// grantFresh picks the first ready item with no label from anyone, no skip
// from the user, and no live lease, and hands it to the user in one statement.
const grantFresh = `UPDATE items SET lease_holder = ?, lease_time = ?
	WHERE id = (
		SELECT i.id FROM items i
		WHERE i.ready = 1
		  AND (i.lease_holder IS NULL OR i.lease_time < ?)
		  AND NOT EXISTS (SELECT 1 FROM labels l WHERE l.item_id = i.id)
		  AND NOT EXISTS (SELECT 1 FROM skips s WHERE s.item_id = i.id AND s.user_id = ?)
		ORDER BY i.id LIMIT 1
	)
	RETURNING ` + itemColumns

// AcquireLease grants userID an exclusive hold on one item as of now. A hold
// older than ttl is expired and may be taken over. resumed is true when the
// user's existing hold was returned; its lease time is not moved. No eligible
// item yields (nil, false, nil).
func (db *DB) AcquireLease(ctx context.Context, userID int64, now time.Time, ttl time.Duration) (*Item, bool, error) {
	var item *Item
	var resumed bool
	leasedAt := formatTimestamp(now)
	cutoff := formatTimestamp(now.Add(-ttl))

	err := db.withTx(ctx, func(tx *sql.Tx) error {
		ok, err := userExists(ctx, tx, userID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("user %d: %w", userID, ErrNotFound)
		}

		item, err = scanItem(tx.QueryRowContext(ctx, heldItem, userID, userID, userID))
		if err == nil {
			resumed = true
			return nil
		}
		if err != sql.ErrNoRows {
			return err
		}

		item, err = scanItem(tx.QueryRowContext(ctx, grantFresh, userID, leasedAt, cutoff, userID))
		if err == sql.ErrNoRows {
			item = nil
			return nil
		}
		return err
	})
	if err != nil {
		return nil, false, classify("acquiring lease", err)
	}
	return item, resumed, nil
}

// clearLease releases whatever hold is present on the item.
func clearLease(ctx context.Context, tx *sql.Tx, itemID int64) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE items SET lease_holder = NULL, lease_time = NULL WHERE id = ?", itemID,
	)
	return err
}
