package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const itemColumns = `id, item_key, title, description, view_count, like_count,
	thumbnail_url, local_thumbnail_path, duration_seconds, upload_date,
	channel_id, channel_name, video_url, ready, lease_holder, lease_time, created_at`

// UpsertItem inserts an item or refreshes the payload of an existing one with
// the same key. Readiness, lease state, labels and skips are left untouched.
func (db *DB) UpsertItem(ctx context.Context, key string, p Payload) (int64, error) {
	var id int64
	err := db.conn.QueryRowContext(ctx,
		`INSERT INTO items (item_key, title, description, view_count, like_count,
			thumbnail_url, local_thumbnail_path, duration_seconds, upload_date,
			channel_id, channel_name, video_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(item_key) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			view_count = excluded.view_count,
			like_count = excluded.like_count,
			thumbnail_url = excluded.thumbnail_url,
			local_thumbnail_path = excluded.local_thumbnail_path,
			duration_seconds = excluded.duration_seconds,
			upload_date = excluded.upload_date,
			channel_id = excluded.channel_id,
			channel_name = excluded.channel_name,
			video_url = excluded.video_url
		RETURNING id`,
		key, p.Title, p.Description, p.ViewCount, p.LikeCount,
		p.ThumbnailURL, p.LocalThumbnailPath, p.DurationSeconds, p.UploadDate,
		p.ChannelID, p.ChannelName, p.VideoURL, formatTimestamp(time.Now()),
	).Scan(&id)
	if err != nil {
		return 0, classify("upserting item", err)
	}
	return id, nil
}

// MarkReady flags an item as eligible for assignment.
func (db *DB) MarkReady(ctx context.Context, key string) error {
	result, err := db.conn.ExecContext(ctx,
		"UPDATE items SET ready = 1 WHERE item_key = ?", key,
	)
	if err != nil {
		return classify("marking item ready", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("item %q: %w", key, ErrNotFound)
	}
	return nil
}

// GetItem returns an item by ID, or nil if none exists.
func (db *DB) GetItem(ctx context.Context, id int64) (*Item, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT "+itemColumns+" FROM items WHERE id = ?", id,
	)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, classify("getting item", err)
	}
	return item, nil
}

// GetItemByKey returns an item by its external key, or nil if none exists.
func (db *DB) GetItemByKey(ctx context.Context, key string) (*Item, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT "+itemColumns+" FROM items WHERE item_key = ?", key,
	)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, classify("getting item", err)
	}
	return item, nil
}

// ListPending returns items still awaiting preparation (not yet ready), oldest
// first. A non-positive limit returns every such item.
func (db *DB) ListPending(ctx context.Context, limit int) ([]Item, error) {
	query := "SELECT " + itemColumns + ` FROM items
		WHERE ready = 0
		ORDER BY id`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify("listing pending items", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var item Item
	var ready int
	var holder sql.NullInt64
	var leaseTime sql.NullString
	var createdAt string
	err := scanner.Scan(
		&item.ID, &item.Key, &item.Title, &item.Description, &item.ViewCount, &item.LikeCount,
		&item.ThumbnailURL, &item.LocalThumbnailPath, &item.DurationSeconds, &item.UploadDate,
		&item.ChannelID, &item.ChannelName, &item.VideoURL, &ready, &holder, &leaseTime, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	item.Ready = ready != 0
	if holder.Valid {
		h := holder.Int64
		item.LeaseHolder = &h
	}
	if item.LeaseTime, err = parseNullTimestamp(leaseTime); err != nil {
		return nil, err
	}
	if item.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, err
	}
	return &item, nil
}
