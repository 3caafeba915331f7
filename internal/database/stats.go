package database

import (
	"context"
	"strings"
	"time"
)

// DashboardCounts returns the global counters. Leases taken at or after
// activeSince count as active.
func (db *DB) DashboardCounts(ctx context.Context, activeSince time.Time) (*DashboardCounts, error) {
	var c DashboardCounts
	err := db.conn.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM items),
			(SELECT COUNT(*) FROM items WHERE ready = 1),
			(SELECT COUNT(DISTINCT item_id) FROM labels),
			(SELECT COUNT(*) FROM users WHERE is_admin = 0),
			(SELECT COUNT(*) FROM items WHERE lease_holder IS NOT NULL AND lease_time >= ?),
			(SELECT COUNT(*) FROM skips)`,
		formatTimestamp(activeSince),
	).Scan(&c.TotalItems, &c.ReadyItems, &c.LabeledItems, &c.Labelers, &c.ActiveLeases, &c.Skips)
	if err != nil {
		return nil, classify("counting dashboard", err)
	}
	return &c, nil
}

// TopContributors returns up to limit users ordered by label count, highest
// first, ties broken by user ID. Users without labels are not listed.
func (db *DB) TopContributors(ctx context.Context, limit int) ([]Contributor, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT u.id, u.username, COUNT(l.id) AS n
		FROM labels l
		JOIN users u ON u.id = l.user_id
		GROUP BY u.id
		ORDER BY n DESC, u.id ASC
		LIMIT ?`, limit,
	)
	if err != nil {
		return nil, classify("ranking contributors", err)
	}
	defer rows.Close()

	var out []Contributor
	for rows.Next() {
		var c Contributor
		if err := rows.Scan(&c.UserID, &c.Username, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CountUserLabels returns the number of labels the user has recorded.
func (db *DB) CountUserLabels(ctx context.Context, userID int64) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM labels WHERE user_id = ?", userID,
	).Scan(&n)
	if err != nil {
		return 0, classify("counting labels", err)
	}
	return n, nil
}

// DailyCounts returns the user's contribution count per day for the given
// days. Days without contributions are absent from the map.
func (db *DB) DailyCounts(ctx context.Context, userID int64, days []string) (map[string]int, error) {
	counts := make(map[string]int, len(days))
	if len(days) == 0 {
		return counts, nil
	}

	query := "SELECT day, count FROM daily_contributions WHERE user_id = ? AND day IN (?" +
		strings.Repeat(", ?", len(days)-1) + ")"
	args := make([]any, 0, len(days)+1)
	args = append(args, userID)
	for _, d := range days {
		args = append(args, d)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify("reading daily counts", err)
	}
	defer rows.Close()

	for rows.Next() {
		var day string
		var n int
		if err := rows.Scan(&day, &n); err != nil {
			return nil, err
		}
		counts[day] = n
	}
	return counts, rows.Err()
}

// ExportLabels returns every label joined with its item and labeler, most
// recent first.
func (db *DB) ExportLabels(ctx context.Context) ([]ExportRow, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT l.id, i.item_key, i.title, i.description, i.view_count, i.like_count,
			i.thumbnail_url, i.local_thumbnail_path, i.duration_seconds, i.upload_date,
			i.channel_id, i.channel_name, i.video_url,
			l.is_positive, l.confidence, u.username, l.labeled_at
		FROM labels l
		JOIN items i ON i.id = l.item_id
		JOIN users u ON u.id = l.user_id
		ORDER BY l.labeled_at DESC, l.id DESC`,
	)
	if err != nil {
		return nil, classify("exporting labels", err)
	}
	defer rows.Close()

	var out []ExportRow
	for rows.Next() {
		var r ExportRow
		var positive int
		var labeledAt string
		err := rows.Scan(
			&r.LabelID, &r.ItemKey, &r.Title, &r.Description, &r.ViewCount, &r.LikeCount,
			&r.ThumbnailURL, &r.LocalThumbnailPath, &r.DurationSeconds, &r.UploadDate,
			&r.ChannelID, &r.ChannelName, &r.VideoURL,
			&positive, &r.Confidence, &r.LabeledBy, &labeledAt,
		)
		if err != nil {
			return nil, err
		}
		r.IsPositive = positive != 0
		if r.LabeledAt, err = parseTimestamp(labeledAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
