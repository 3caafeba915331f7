package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// CreateUser registers a user. A taken username returns ErrAlreadyExists.
func (db *DB) CreateUser(ctx context.Context, username string, isAdmin bool) (int64, error) {
	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (username, is_admin, created_at) VALUES (?, ?, ?)
		ON CONFLICT(username) DO NOTHING`,
		username, boolToInt(isAdmin), formatTimestamp(time.Now()),
	)
	if err != nil {
		return 0, classify("creating user", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, fmt.Errorf("user %q: %w", username, ErrAlreadyExists)
	}
	return result.LastInsertId()
}

// GetUser returns a user by ID, or nil if none exists.
func (db *DB) GetUser(ctx context.Context, userID int64) (*User, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT id, username, is_admin, created_at FROM users WHERE id = ?", userID,
	)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, classify("getting user", err)
	}
	return u, nil
}

// GetUserByName returns a user by username, or nil if none exists.
func (db *DB) GetUserByName(ctx context.Context, username string) (*User, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT id, username, is_admin, created_at FROM users WHERE username = ?", username,
	)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, classify("getting user", err)
	}
	return u, nil
}

// ListUsers returns all users in registration order.
func (db *DB) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT id, username, is_admin, created_at FROM users ORDER BY id",
	)
	if err != nil {
		return nil, classify("listing users", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func scanUser(scanner interface{ Scan(dest ...any) error }) (*User, error) {
	var u User
	var admin int
	var createdAt string
	if err := scanner.Scan(&u.ID, &u.Username, &admin, &createdAt); err != nil {
		return nil, err
	}
	u.IsAdmin = admin != 0
	t, err := parseTimestamp(createdAt)
	if err != nil {
		return nil, err
	}
	u.CreatedAt = t
	return &u, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
