package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

func TestMigrateNewDB(t *testing.T) {
	db := openTestDB(t)

	version, err := getSchemaVersion(db.conn)
	if err != nil {
		t.Fatalf("getSchemaVersion: %v", err)
	}
	if version != latestVersion() {
		t.Errorf("expected version %d, got %d", latestVersion(), version)
	}
}

func TestMigrateRefusesForeignDB(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "foreign.db")

	raw, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	_, err = raw.Exec(`CREATE TABLE videos (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		video_id TEXT UNIQUE NOT NULL
	)`)
	if err != nil {
		t.Fatalf("create foreign table: %v", err)
	}
	raw.Close()

	db, err := Open(dbPath, nil)
	if err == nil {
		db.Close()
		t.Fatal("expected Open to refuse a foreign database")
	}
	if !errors.Is(err, ErrForeignSchema) {
		t.Errorf("expected ErrForeignSchema, got %v", err)
	}
}

func TestMigrateExistingItemsTableKeepsUsers(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "partial.db")

	// Unversioned file with a table sharing one of our names. Open must
	// either fail or leave a usable schema behind.
	raw, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	if _, err := raw.Exec(`CREATE TABLE items (id INTEGER PRIMARY KEY, item_key TEXT)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	raw.Close()

	db, err := Open(dbPath, nil)
	if err != nil {
		return
	}
	defer db.Close()
	if _, err := db.CreateUser(context.Background(), "alice", false); err != nil {
		t.Fatalf("CreateUser after Open: %v", err)
	}
}

func TestMigrateIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "idem.db")

	db1, err := Open(dbPath, nil)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	if _, err := db1.CreateUser(context.Background(), "alice", false); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	db1.Close()

	db2, err := Open(dbPath, nil)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	defer db2.Close()

	version, err := getSchemaVersion(db2.conn)
	if err != nil {
		t.Fatalf("getSchemaVersion: %v", err)
	}
	if version != latestVersion() {
		t.Errorf("expected version %d, got %d", latestVersion(), version)
	}
	u, err := db2.GetUserByName(context.Background(), "alice")
	if err != nil || u == nil {
		t.Fatalf("expected user to survive reopen, got %v, %v", u, err)
	}
}

func TestGetSchemaVersionNewDB(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "empty.db")
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer conn.Close()

	version, err := getSchemaVersion(conn)
	if err != nil {
		t.Fatalf("getSchemaVersion: %v", err)
	}
	if version != 0 {
		t.Errorf("expected version 0 on new db, got %d", version)
	}
}

func TestHasForeignTablesFalseOnNew(t *testing.T) {
	db := openTestDB(t)

	foreign, err := hasForeignTables(db.conn)
	if err != nil {
		t.Fatalf("hasForeignTables: %v", err)
	}
	if foreign {
		t.Error("expected hasForeignTables=false on our own schema")
	}
}
