package database

import "time"

// User is a labeler (or an administrator) known to the identity collaborator.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

// Payload holds the descriptive fields of a video. The engine never reads
// them; they are carried through to the labeler and the export.
type Payload struct {
	Title              *string `json:"title,omitempty"`
	Description        *string `json:"description,omitempty"`
	ViewCount          *int64  `json:"view_count,omitempty"`
	LikeCount          *int64  `json:"like_count,omitempty"`
	ThumbnailURL       *string `json:"thumbnail_url,omitempty"`
	LocalThumbnailPath *string `json:"local_thumbnail_path,omitempty"`
	DurationSeconds    *int64  `json:"duration_seconds,omitempty"`
	UploadDate         *string `json:"upload_date,omitempty"`
	ChannelID          *string `json:"channel_id,omitempty"`
	ChannelName        *string `json:"channel_name,omitempty"`
	VideoURL           *string `json:"video_url,omitempty"`
}

// Item is a unit of work: one video awaiting a clickbait judgment.
type Item struct {
	ID  int64  `json:"id"`
	Key string `json:"item_key"`
	Payload
	Ready       bool       `json:"ready"`
	LeaseHolder *int64     `json:"lease_holder,omitempty"`
	LeaseTime   *time.Time `json:"lease_time,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// LabelResult reports the outcome of recording a label.
type LabelResult struct {
	LabelID   int64 `json:"label_id,omitempty"`
	Duplicate bool  `json:"duplicate"`
}

// DashboardCounts contains the global counters shown to administrators.
type DashboardCounts struct {
	TotalItems   int `json:"total_items"`
	ReadyItems   int `json:"ready_items"`
	LabeledItems int `json:"labeled_items"`
	Labelers     int `json:"labelers"`
	ActiveLeases int `json:"active_leases"`
	Skips        int `json:"skips"`
}

// Contributor is one leaderboard row.
type Contributor struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Count    int    `json:"count"`
}

// ExportRow is one label joined with its item and labeler.
type ExportRow struct {
	LabelID int64  `json:"label_id"`
	ItemKey string `json:"item_key"`
	Payload
	IsPositive bool      `json:"is_clickbait"`
	Confidence int       `json:"confidence"`
	LabeledBy  string    `json:"labeled_by"`
	LabeledAt  time.Time `json:"labeled_at"`
}

// InstructionsRecord is one stored version of the labeling instructions.
type InstructionsRecord struct {
	Version   int       `json:"version"`
	Body      string    `json:"body"`
	UpdatedAt time.Time `json:"updated_at"`
}
