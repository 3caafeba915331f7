package database

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func ptr(s string) *string { return &s }

var t0 = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func mustUser(t *testing.T, db *DB, name string) int64 {
	t.Helper()
	id, err := db.CreateUser(context.Background(), name, false)
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", name, err)
	}
	return id
}

func mustReadyItem(t *testing.T, db *DB, key string) int64 {
	t.Helper()
	ctx := context.Background()
	id, err := db.UpsertItem(ctx, key, Payload{Title: ptr("Video " + key)})
	if err != nil {
		t.Fatalf("UpsertItem(%s): %v", key, err)
	}
	if err := db.MarkReady(ctx, key); err != nil {
		t.Fatalf("MarkReady(%s): %v", key, err)
	}
	return id
}

func TestCreateUserDuplicate(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	id := mustUser(t, db, "alice")
	if id == 0 {
		t.Error("expected non-zero user ID")
	}
	_, err := db.CreateUser(ctx, "alice", true)
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	users, err := db.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 1 || users[0].IsAdmin {
		t.Errorf("expected one non-admin user, got %+v", users)
	}
}

func TestGetUserMissing(t *testing.T) {
	db := openTestDB(t)
	u, err := db.GetUser(context.Background(), 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u != nil {
		t.Errorf("expected nil user, got %+v", u)
	}
}

func TestUpsertItemKeepsState(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	uid := mustUser(t, db, "alice")

	id := mustReadyItem(t, db, "vid1")
	if _, _, err := db.AcquireLease(ctx, uid, t0, 15*time.Minute); err != nil {
		t.Fatalf("AcquireLease: %v", err)
	}

	again, err := db.UpsertItem(ctx, "vid1", Payload{Title: ptr("Renamed")})
	if err != nil {
		t.Fatalf("UpsertItem: %v", err)
	}
	if again != id {
		t.Errorf("expected same id %d, got %d", id, again)
	}

	item, err := db.GetItemByKey(ctx, "vid1")
	if err != nil {
		t.Fatalf("GetItemByKey: %v", err)
	}
	if item.Title == nil || *item.Title != "Renamed" {
		t.Errorf("expected payload update, got %v", item.Title)
	}
	if !item.Ready {
		t.Error("expected item to stay ready")
	}
	if item.LeaseHolder == nil || *item.LeaseHolder != uid {
		t.Errorf("expected lease to survive upsert, got %v", item.LeaseHolder)
	}
}

func TestMarkReadyUnknown(t *testing.T) {
	db := openTestDB(t)
	err := db.MarkReady(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListPending(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	mustReadyItem(t, db, "ready")
	for _, k := range []string{"p1", "p2", "p3"} {
		if _, err := db.UpsertItem(ctx, k, Payload{}); err != nil {
			t.Fatalf("UpsertItem: %v", err)
		}
	}

	pending, err := db.ListPending(ctx, 2)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 2 || pending[0].Key != "p1" || pending[1].Key != "p2" {
		t.Errorf("unexpected pending items: %+v", pending)
	}

	all, _ := db.ListPending(ctx, 0)
	if len(all) != 3 {
		t.Errorf("expected 3 pending items, got %d", len(all))
	}
}

func TestAcquireLeaseOrderAndExclusion(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	ttl := 15 * time.Minute
	a := mustUser(t, db, "a")
	b := mustUser(t, db, "b")

	if _, err := db.UpsertItem(ctx, "not-ready", Payload{}); err != nil {
		t.Fatalf("UpsertItem: %v", err)
	}
	first := mustReadyItem(t, db, "v1")
	second := mustReadyItem(t, db, "v2")

	itemA, resumed, err := db.AcquireLease(ctx, a, t0, ttl)
	if err != nil {
		t.Fatalf("AcquireLease(a): %v", err)
	}
	if itemA == nil || itemA.ID != first || resumed {
		t.Fatalf("expected fresh grant of %d, got %+v resumed=%v", first, itemA, resumed)
	}

	itemB, _, err := db.AcquireLease(ctx, b, t0, ttl)
	if err != nil {
		t.Fatalf("AcquireLease(b): %v", err)
	}
	if itemB == nil || itemB.ID != second {
		t.Fatalf("expected %d for b, got %+v", second, itemB)
	}

	c := mustUser(t, db, "c")
	itemC, _, err := db.AcquireLease(ctx, c, t0, ttl)
	if err != nil {
		t.Fatalf("AcquireLease(c): %v", err)
	}
	if itemC != nil {
		t.Errorf("expected no work for c, got %+v", itemC)
	}
}

func TestAcquireLeaseSticky(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	a := mustUser(t, db, "a")
	mustReadyItem(t, db, "v1")
	mustReadyItem(t, db, "v2")

	first, _, err := db.AcquireLease(ctx, a, t0, 15*time.Minute)
	if err != nil {
		t.Fatalf("AcquireLease: %v", err)
	}
	later := t0.Add(time.Minute)
	again, resumed, err := db.AcquireLease(ctx, a, later, 15*time.Minute)
	if err != nil {
		t.Fatalf("AcquireLease: %v", err)
	}
	if !resumed || again.ID != first.ID {
		t.Fatalf("expected resumed %d, got %d resumed=%v", first.ID, again.ID, resumed)
	}
	if again.LeaseTime == nil || !again.LeaseTime.Equal(t0) {
		t.Errorf("expected original lease time %v, got %v", t0, again.LeaseTime)
	}
}

func TestAcquireLeaseExpiry(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	ttl := 15 * time.Minute
	a := mustUser(t, db, "a")
	b := mustUser(t, db, "b")
	id := mustReadyItem(t, db, "v1")

	if _, _, err := db.AcquireLease(ctx, a, t0, ttl); err != nil {
		t.Fatalf("AcquireLease(a): %v", err)
	}

	for _, tc := range []struct {
		after time.Duration
		want  bool
	}{
		{14 * time.Minute, false},
		{15 * time.Minute, false},
		{16 * time.Minute, true},
	} {
		t.Run(fmt.Sprint(tc.after), func(t *testing.T) {
			item, _, err := db.AcquireLease(ctx, b, t0.Add(tc.after), ttl)
			if err != nil {
				t.Fatalf("AcquireLease(b): %v", err)
			}
			if got := item != nil && item.ID == id; got != tc.want {
				t.Errorf("granted=%v, want %v", got, tc.want)
			}
		})
	}
}

func TestAcquireLeaseUnknownUser(t *testing.T) {
	db := openTestDB(t)
	mustReadyItem(t, db, "v1")
	_, _, err := db.AcquireLease(context.Background(), 99, t0, time.Minute)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecordLabel(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	a := mustUser(t, db, "a")
	b := mustUser(t, db, "b")
	id := mustReadyItem(t, db, "v1")

	if _, _, err := db.AcquireLease(ctx, a, t0, 15*time.Minute); err != nil {
		t.Fatalf("AcquireLease: %v", err)
	}
	res, err := db.RecordLabel(ctx, id, a, true, 3, t0.Add(time.Minute))
	if err != nil {
		t.Fatalf("RecordLabel: %v", err)
	}
	if res.Duplicate || res.LabelID == 0 {
		t.Errorf("unexpected result %+v", res)
	}

	item, _ := db.GetItem(ctx, id)
	if item.LeaseHolder != nil || item.LeaseTime != nil {
		t.Errorf("expected lease cleared, got %v %v", item.LeaseHolder, item.LeaseTime)
	}

	// Retired for everyone.
	next, _, err := db.AcquireLease(ctx, b, t0.Add(time.Hour), 15*time.Minute)
	if err != nil {
		t.Fatalf("AcquireLease: %v", err)
	}
	if next != nil {
		t.Errorf("expected labeled item to be retired, got %+v", next)
	}

	dup, err := db.RecordLabel(ctx, id, a, false, 1, t0.Add(2*time.Minute))
	if err != nil {
		t.Fatalf("duplicate RecordLabel: %v", err)
	}
	if !dup.Duplicate {
		t.Error("expected duplicate")
	}

	counts, err := db.DailyCounts(ctx, a, []string{Day(t0)})
	if err != nil {
		t.Fatalf("DailyCounts: %v", err)
	}
	if counts[Day(t0)] != 1 {
		t.Errorf("expected daily count 1, got %d", counts[Day(t0)])
	}
}

func TestRecordLabelClearsForeignLease(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	a := mustUser(t, db, "a")
	b := mustUser(t, db, "b")
	id := mustReadyItem(t, db, "v1")

	if _, _, err := db.AcquireLease(ctx, a, t0, 15*time.Minute); err != nil {
		t.Fatalf("AcquireLease(a): %v", err)
	}
	if _, _, err := db.AcquireLease(ctx, b, t0.Add(16*time.Minute), 15*time.Minute); err != nil {
		t.Fatalf("AcquireLease(b): %v", err)
	}

	// a answers late; the answer stands and b's hold goes away.
	if _, err := db.RecordLabel(ctx, id, a, false, 2, t0.Add(17*time.Minute)); err != nil {
		t.Fatalf("RecordLabel: %v", err)
	}
	item, _ := db.GetItem(ctx, id)
	if item.LeaseHolder != nil {
		t.Errorf("expected lease cleared, held by %d", *item.LeaseHolder)
	}
}

func TestRecordLabelNotFound(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	a := mustUser(t, db, "a")
	id := mustReadyItem(t, db, "v1")

	if _, err := db.RecordLabel(ctx, 999, a, true, 1, t0); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown item: expected ErrNotFound, got %v", err)
	}
	if _, err := db.RecordLabel(ctx, id, 999, true, 1, t0); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown user: expected ErrNotFound, got %v", err)
	}
}

func TestSkipItem(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	a := mustUser(t, db, "a")
	b := mustUser(t, db, "b")
	id := mustReadyItem(t, db, "v1")

	if _, _, err := db.AcquireLease(ctx, a, t0, 15*time.Minute); err != nil {
		t.Fatalf("AcquireLease: %v", err)
	}
	ok, err := db.SkipItem(ctx, "v1", a, t0)
	if err != nil || !ok {
		t.Fatalf("SkipItem: %v, %v", ok, err)
	}

	item, _, err := db.AcquireLease(ctx, a, t0.Add(time.Second), 15*time.Minute)
	if err != nil {
		t.Fatalf("AcquireLease(a): %v", err)
	}
	if item != nil {
		t.Errorf("expected skipped item withheld from a, got %+v", item)
	}

	item, _, err = db.AcquireLease(ctx, b, t0.Add(time.Second), 15*time.Minute)
	if err != nil {
		t.Fatalf("AcquireLease(b): %v", err)
	}
	if item == nil || item.ID != id {
		t.Errorf("expected b to receive %d, got %+v", id, item)
	}

	ok, err = db.SkipItem(ctx, "v1", a, t0.Add(time.Minute))
	if err != nil || ok {
		t.Fatalf("second SkipItem: expected false, nil; got %v, %v", ok, err)
	}
	// The repeated skip must not release b's hold.
	held, _ := db.GetItem(ctx, id)
	if held.LeaseHolder == nil || *held.LeaseHolder != b {
		t.Errorf("expected b to keep the lease, got %v", held.LeaseHolder)
	}

	n, err := db.CountSkips(ctx, a)
	if err != nil || n != 1 {
		t.Errorf("CountSkips: got %d, %v", n, err)
	}
}

func TestSkipItemUnknown(t *testing.T) {
	db := openTestDB(t)
	a := mustUser(t, db, "a")
	ok, err := db.SkipItem(context.Background(), "missing", a, t0)
	if ok || !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected false, ErrNotFound; got %v, %v", ok, err)
	}
}

func TestStatsQueries(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	a := mustUser(t, db, "a")
	b := mustUser(t, db, "b")
	if _, err := db.CreateUser(ctx, "root", true); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	v1 := mustReadyItem(t, db, "v1")
	v2 := mustReadyItem(t, db, "v2")
	mustReadyItem(t, db, "v3")
	if _, err := db.UpsertItem(ctx, "v4", Payload{}); err != nil {
		t.Fatalf("UpsertItem: %v", err)
	}

	db.RecordLabel(ctx, v1, a, true, 4, t0)
	db.RecordLabel(ctx, v2, a, false, 2, t0.Add(time.Minute))
	db.RecordLabel(ctx, v1, b, true, 3, t0.Add(2*time.Minute))
	db.SkipItem(ctx, "v3", b, t0)
	db.AcquireLease(ctx, b, t0.Add(3*time.Minute), 15*time.Minute)

	counts, err := db.DashboardCounts(ctx, t0)
	if err != nil {
		t.Fatalf("DashboardCounts: %v", err)
	}
	want := DashboardCounts{TotalItems: 4, ReadyItems: 3, LabeledItems: 2, Labelers: 2, ActiveLeases: 0, Skips: 1}
	if *counts != want {
		t.Errorf("DashboardCounts = %+v, want %+v", *counts, want)
	}

	top, err := db.TopContributors(ctx, 5)
	if err != nil {
		t.Fatalf("TopContributors: %v", err)
	}
	if len(top) != 2 || top[0].UserID != a || top[0].Count != 2 || top[1].UserID != b {
		t.Errorf("unexpected leaderboard %+v", top)
	}

	rows, err := db.ExportLabels(ctx)
	if err != nil {
		t.Fatalf("ExportLabels: %v", err)
	}
	if len(rows) != 3 || rows[0].LabeledBy != "b" || rows[0].ItemKey != "v1" {
		t.Errorf("unexpected export %+v", rows)
	}

	n, err := db.CountUserLabels(ctx, a)
	if err != nil || n != 2 {
		t.Errorf("CountUserLabels: got %d, %v", n, err)
	}
}

func TestDashboardActiveLeases(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	a := mustUser(t, db, "a")
	mustReadyItem(t, db, "v1")
	db.AcquireLease(ctx, a, t0, 15*time.Minute)

	live, _ := db.DashboardCounts(ctx, t0.Add(-15*time.Minute))
	if live.ActiveLeases != 1 {
		t.Errorf("expected 1 active lease, got %d", live.ActiveLeases)
	}
	stale, _ := db.DashboardCounts(ctx, t0.Add(time.Second))
	if stale.ActiveLeases != 0 {
		t.Errorf("expected 0 active leases, got %d", stale.ActiveLeases)
	}
}

func TestSaveInstructions(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	rec, err := db.LatestInstructions(ctx)
	if err != nil || rec != nil {
		t.Fatalf("expected nothing stored, got %+v, %v", rec, err)
	}

	saved, err := db.SaveInstructions(ctx, "be careful", 0, t0)
	if err != nil {
		t.Fatalf("SaveInstructions: %v", err)
	}
	if saved.Version != 1 {
		t.Errorf("expected version 1, got %d", saved.Version)
	}

	if _, err := db.SaveInstructions(ctx, "stale edit", 0, t0); !errors.Is(err, ErrVersionMismatch) {
		t.Errorf("expected ErrVersionMismatch, got %v", err)
	}
	if _, err := db.SaveInstructions(ctx, "forced", -1, t0); err != nil {
		t.Errorf("unconditional save: %v", err)
	}

	latest, err := db.LatestInstructions(ctx)
	if err != nil {
		t.Fatalf("LatestInstructions: %v", err)
	}
	if latest.Version != 2 || latest.Body != "forced" || !latest.UpdatedAt.Equal(t0) {
		t.Errorf("unexpected latest %+v", latest)
	}
}

func TestLastDays(t *testing.T) {
	days := LastDays(time.Date(2026, 3, 2, 23, 0, 0, 0, time.UTC), 3)
	want := []string{"2026-03-02", "2026-03-01", "2026-02-28"}
	for i := range want {
		if days[i] != want[i] {
			t.Errorf("day %d = %s, want %s", i, days[i], want[i])
		}
	}
}

func TestIsTransient(t *testing.T) {
	if !IsTransient(fmt.Errorf("x: %w", ErrStoreUnavailable)) {
		t.Error("expected busy to be transient")
	}
	if !IsTransient(fmt.Errorf("x: %w", ErrConflict)) {
		t.Error("expected locked to be transient")
	}
	if IsTransient(ErrNotFound) {
		t.Error("expected not found to be permanent")
	}
}
