package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/azharanas17/MyMoney-Notes/internal/models"

	// Import sqlite driver
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection to the local store. One handle is constructed
// at startup and passed into every component that needs it.
type DB struct {
	conn *sql.DB
}

// Open opens the database at path and applies the schema. A schema from a
// different app version is reset destructively, no row migration is attempted.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// Single connection: keeps :memory: databases coherent and lets sqlite
	// serialize access on its own.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// SaveUser inserts or replaces the local record for a provider-issued identity.
func (db *DB) SaveUser(u *models.User) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO users (id, username, email) VALUES (?, ?, ?)",
		u.ID, u.Username, u.Email,
	)
	return err
}

// GetUserByID retrieves a user by their provider-issued id.
func (db *DB) GetUserByID(id string) (*models.User, error) {
	row := db.conn.QueryRow("SELECT id, username, email FROM users WHERE id = ?", id)

	var u models.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByUsername retrieves a user by their local username alias.
func (db *DB) GetUserByUsername(username string) (*models.User, error) {
	row := db.conn.QueryRow("SELECT id, username, email FROM users WHERE username = ?", username)

	var u models.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email); err != nil {
		return nil, err
	}
	return &u, nil
}

// UserCount returns the number of registered users.
func (db *DB) UserCount() (int, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}

// Credential is a provider-side email/password record.
type Credential struct {
	Email        string
	UserID       string
	PasswordHash string
}

// CreateCredential stores provider credentials for an email address.
func (db *DB) CreateCredential(email, userID, passwordHash string) error {
	_, err := db.conn.Exec(
		"INSERT INTO credentials (email, user_id, password_hash) VALUES (?, ?, ?)",
		email, userID, passwordHash,
	)
	return err
}

// GetCredential retrieves provider credentials by email.
func (db *DB) GetCredential(email string) (*Credential, error) {
	row := db.conn.QueryRow(
		"SELECT email, user_id, password_hash FROM credentials WHERE email = ?", email,
	)

	var c Credential
	if err := row.Scan(&c.Email, &c.UserID, &c.PasswordHash); err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateSession creates a new session for a user.
func (db *DB) CreateSession(token, userID string, expiresAt time.Time) error {
	_, err := db.conn.Exec(
		"INSERT INTO sessions (token, user_id, expires_at, last_activity) VALUES (?, ?, ?, ?)",
		token, userID, expiresAt, time.Now(),
	)
	return err
}

// SessionInfo holds session validation data.
type SessionInfo struct {
	User         *models.User
	LastActivity time.Time
	ExpiresAt    time.Time
}

// ValidateSession checks if a session token is valid and returns the associated user.
func (db *DB) ValidateSession(token string) (*models.User, error) {
	info, err := db.ValidateSessionWithInfo(token)
	if err != nil {
		return nil, err
	}
	return info.User, nil
}

// ValidateSessionWithInfo checks if a session token is valid and returns session details.
func (db *DB) ValidateSessionWithInfo(token string) (*SessionInfo, error) {
	row := db.conn.QueryRow(`
		SELECT u.id, u.username, u.email, s.last_activity, s.expires_at
		FROM sessions s
		JOIN users u ON s.user_id = u.id
		WHERE s.token = ? AND s.expires_at > CURRENT_TIMESTAMP
	`, token)

	var u models.User
	var lastActivity, expiresAt time.Time
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &lastActivity, &expiresAt); err != nil {
		return nil, err
	}
	return &SessionInfo{
		User:         &u,
		LastActivity: lastActivity,
		ExpiresAt:    expiresAt,
	}, nil
}

// RenewSession updates the last_activity and expires_at for a session.
func (db *DB) RenewSession(token string, newExpiresAt time.Time) error {
	_, err := db.conn.Exec(
		"UPDATE sessions SET last_activity = ?, expires_at = ? WHERE token = ?",
		time.Now(), newExpiresAt, token,
	)
	return err
}

// DeleteSession removes a session by token.
func (db *DB) DeleteSession(token string) error {
	_, err := db.conn.Exec("DELETE FROM sessions WHERE token = ?", token)
	return err
}

// DeleteExpiredSessions removes sessions past their expiry. Run at startup.
func (db *DB) DeleteExpiredSessions() error {
	_, err := db.conn.Exec("DELETE FROM sessions WHERE expires_at <= CURRENT_TIMESTAMP")
	return err
}
