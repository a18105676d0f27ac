package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUserExists      = errors.New("user already exists")
	ErrSessionNotFound = errors.New("session not found or expired")
)

type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// CreateUser stores a new user with an already hashed password.
func (r *SQLiteRepository) CreateUser(ctx context.Context, username, passwordHash string) (User, error) {
	now := r.now()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?)`,
		username, passwordHash, formatTimestamp(now))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return User{}, ErrUserExists
		}
		return User{}, storageErr("insert user", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return User{}, storageErr("insert user", err)
	}
	return User{ID: id, Username: username, PasswordHash: passwordHash, CreatedAt: now.UTC()}, nil
}

func (r *SQLiteRepository) GetUserByUsername(ctx context.Context, username string) (User, error) {
	return r.getUser(ctx, `SELECT user_id, username, password_hash, created_at FROM users WHERE username = ?`, username)
}

func (r *SQLiteRepository) GetUserByID(ctx context.Context, id int64) (User, error) {
	return r.getUser(ctx, `SELECT user_id, username, password_hash, created_at FROM users WHERE user_id = ?`, id)
}

func (r *SQLiteRepository) getUser(ctx context.Context, query string, arg any) (User, error) {
	var (
		u         User
		createdAt string
	)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Username, &u.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, storageErr("get user", err)
	}
	if u.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return User{}, storageErr("get user", err)
	}
	return u, nil
}

// CreateSession stores a session token valid until expiresAt.
func (r *SQLiteRepository) CreateSession(ctx context.Context, token string, userID int64, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (token, user_id, expires_at) VALUES (?, ?, ?)`,
		token, userID, formatTimestamp(expiresAt))
	if err != nil {
		return storageErr("insert session", err)
	}
	return nil
}

// SessionUser resolves a live session token to its user. Expired and
// unknown tokens both yield ErrSessionNotFound.
func (r *SQLiteRepository) SessionUser(ctx context.Context, token string) (User, time.Time, error) {
	var (
		u                    User
		createdAt, expiresAt string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT u.user_id, u.username, u.password_hash, u.created_at, s.expires_at
		 FROM sessions s JOIN users u ON u.user_id = s.user_id
		 WHERE s.token = ? AND s.expires_at > ?`,
		token, formatTimestamp(r.now())).Scan(&u.ID, &u.Username, &u.PasswordHash, &createdAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, time.Time{}, ErrSessionNotFound
	}
	if err != nil {
		return User{}, time.Time{}, storageErr("get session", err)
	}
	if u.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return User{}, time.Time{}, storageErr("get session", err)
	}
	exp, err := parseTimestamp(expiresAt)
	if err != nil {
		return User{}, time.Time{}, storageErr("get session", err)
	}
	return u, exp, nil
}

// ExtendSession moves the expiry of a session.
func (r *SQLiteRepository) ExtendSession(ctx context.Context, token string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET expires_at = ? WHERE token = ?`, formatTimestamp(expiresAt), token)
	if err != nil {
		return storageErr("extend session", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteSession(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token); err != nil {
		return storageErr("delete session", err)
	}
	return nil
}

// DeleteExpiredSessions removes sessions past their expiry and returns how
// many were removed.
func (r *SQLiteRepository) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at <= ?`, formatTimestamp(r.now()))
	if err != nil {
		return 0, storageErr("delete expired sessions", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
