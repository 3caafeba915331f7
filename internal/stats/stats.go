// Package stats rolls up labeling activity for dashboards and labelers. It
// only reads.
package stats

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/TobiSchelling/clicklabel/internal/database"
)

const (
	// DefaultLeaderboardSize is used when no size is configured.
	DefaultLeaderboardSize = 5
	// HistoryDays is the length of a user's daily series.
	HistoryDays = 7
)

// Source is the read-side query surface. *database.DB implements it.
type Source interface {
	GetUser(ctx context.Context, userID int64) (*database.User, error)
	DashboardCounts(ctx context.Context, activeSince time.Time) (*database.DashboardCounts, error)
	TopContributors(ctx context.Context, limit int) ([]database.Contributor, error)
	CountUserLabels(ctx context.Context, userID int64) (int, error)
	CountSkips(ctx context.Context, userID int64) (int, error)
	DailyCounts(ctx context.Context, userID int64, days []string) (map[string]int, error)
	ExportLabels(ctx context.Context) ([]database.ExportRow, error)
}

// DailyCount is one point of a user's series.
type DailyCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// UserStats summarizes a single labeler's contributions.
type UserStats struct {
	UserID   int64        `json:"user_id"`
	Username string       `json:"username"`
	Total    int          `json:"total"`
	Skipped  int          `json:"skipped"`
	Daily    []DailyCount `json:"daily"`
}

// Overview is the administrator panel: global counters plus the leaderboard.
type Overview struct {
	Dashboard   database.DashboardCounts `json:"dashboard"`
	Leaderboard []database.Contributor   `json:"leaderboard"`
}

// Aggregator computes rollups from a Source.
type Aggregator struct {
	src      Source
	leaseTTL time.Duration
	size     int
	now      func() time.Time
}

// New creates an aggregator. leaseTTL decides which leases count as active;
// size is the default leaderboard length.
func New(src Source, leaseTTL time.Duration, size int) *Aggregator {
	if size <= 0 {
		size = DefaultLeaderboardSize
	}
	return &Aggregator{src: src, leaseTTL: leaseTTL, size: size, now: time.Now}
}

// SetClock replaces time.Now.
func (a *Aggregator) SetClock(now func() time.Time) {
	a.now = now
}

// Dashboard returns the global counters.
func (a *Aggregator) Dashboard(ctx context.Context) (*database.DashboardCounts, error) {
	return a.src.DashboardCounts(ctx, a.now().Add(-a.leaseTTL))
}

// Leaderboard returns the top n contributors. n <= 0 uses the configured size.
func (a *Aggregator) Leaderboard(ctx context.Context, n int) ([]database.Contributor, error) {
	if n <= 0 {
		n = a.size
	}
	top, err := a.src.TopContributors(ctx, n)
	if err != nil {
		return nil, err
	}
	if top == nil {
		top = []database.Contributor{}
	}
	return top, nil
}

// UserStats returns the user's total and their last HistoryDays days of
// activity, today first. Days without labels are reported as zero.
func (a *Aggregator) UserStats(ctx context.Context, userID int64) (*UserStats, error) {
	u, err := a.src.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("user %d: %w", userID, database.ErrNotFound)
	}

	total, err := a.src.CountUserLabels(ctx, userID)
	if err != nil {
		return nil, err
	}
	skipped, err := a.src.CountSkips(ctx, userID)
	if err != nil {
		return nil, err
	}

	days := database.LastDays(a.now(), HistoryDays)
	counts, err := a.src.DailyCounts(ctx, userID, days)
	if err != nil {
		return nil, err
	}

	s := &UserStats{UserID: u.ID, Username: u.Username, Total: total, Skipped: skipped}
	for _, d := range days {
		s.Daily = append(s.Daily, DailyCount{Day: d, Count: counts[d]})
	}
	return s, nil
}

// Export returns every label with its item payload, most recent first.
func (a *Aggregator) Export(ctx context.Context) ([]database.ExportRow, error) {
	return a.src.ExportLabels(ctx)
}

// Overview fetches the dashboard and leaderboard concurrently.
func (a *Aggregator) Overview(ctx context.Context, n int) (*Overview, error) {
	var (
		counts *database.DashboardCounts
		top    []database.Contributor
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		counts, err = a.Dashboard(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		top, err = a.Leaderboard(gctx, n)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Overview{Dashboard: *counts, Leaderboard: top}, nil
}
