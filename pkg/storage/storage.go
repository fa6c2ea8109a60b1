// Package storage persists user accounts and password-reset consumption
// records through squealx, with schema variants for sqlite, postgres and
// mysql.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oarkflow/squealx"

	"github.com/chemworks/diffusio/pkg/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// DatabaseType represents the type of database
type DatabaseType string

const (
	MySQL      DatabaseType = "mysql"
	PostgreSQL DatabaseType = "postgres"
	SQLite     DatabaseType = "sqlite"
)

// UserStore persists accounts with database type awareness.
type UserStore struct {
	db     *squealx.DB
	dbType DatabaseType
}

// NewUserStore creates the store and ensures the schema exists.
func NewUserStore(db *squealx.DB) (*UserStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	store := &UserStore{
		db:     db,
		dbType: DatabaseType(db.DriverName()),
	}

	if err := store.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create database schema: %w", err)
	}

	return store, nil
}

func (s *UserStore) createTables() error {
	var queries []string

	switch s.dbType {
	case MySQL:
		queries = s.getMySQLSchema()
	case PostgreSQL:
		queries = s.getPostgreSQLSchema()
	case SQLite:
		queries = s.getSQLiteSchema()
	default:
		return fmt.Errorf("unsupported database type: %s", s.dbType)
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute schema query: %w", err)
		}
	}

	return nil
}

func (s *UserStore) getMySQLSchema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id BIGINT PRIMARY KEY,
			email VARCHAR(255) UNIQUE NOT NULL,
			username VARCHAR(255) UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			failed_attempts INT DEFAULT 0,
			lockout_until BIGINT NULL,
			mfa_enabled TINYINT(1) DEFAULT 0,
			mfa_secret TEXT,
			mfa_backup_codes TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			INDEX idx_users_email (email),
			INDEX idx_users_username (username)
		) ENGINE=InnoDB`,

		`CREATE TABLE IF NOT EXISTS password_resets (
			token_id VARCHAR(64) PRIMARY KEY,
			user_id BIGINT NOT NULL,
			expires_at BIGINT NOT NULL,
			used TINYINT(1) DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_password_resets_user_id (user_id)
		) ENGINE=InnoDB`,
	}
}

func (s *UserStore) getPostgreSQLSchema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id BIGINT PRIMARY KEY,
			email VARCHAR(255) UNIQUE NOT NULL,
			username VARCHAR(255) UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			failed_attempts INTEGER DEFAULT 0,
			lockout_until BIGINT,
			mfa_enabled BOOLEAN DEFAULT FALSE,
			mfa_secret TEXT,
			mfa_backup_codes TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_users_email ON users (email)`,
		`CREATE INDEX IF NOT EXISTS idx_users_username ON users (username)`,

		`CREATE TABLE IF NOT EXISTS password_resets (
			token_id VARCHAR(64) PRIMARY KEY,
			user_id BIGINT NOT NULL,
			expires_at BIGINT NOT NULL,
			used BOOLEAN DEFAULT FALSE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_password_resets_user_id ON password_resets (user_id)`,
	}
}

func (s *UserStore) getSQLiteSchema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id INTEGER PRIMARY KEY,
			email TEXT UNIQUE NOT NULL,
			username TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			failed_attempts INTEGER DEFAULT 0,
			lockout_until INTEGER,
			mfa_enabled INTEGER DEFAULT 0,
			mfa_secret TEXT,
			mfa_backup_codes TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_users_email ON users (email)`,
		`CREATE INDEX IF NOT EXISTS idx_users_username ON users (username)`,

		`CREATE TABLE IF NOT EXISTS password_resets (
			token_id TEXT PRIMARY KEY,
			user_id INTEGER NOT NULL,
			expires_at INTEGER NOT NULL,
			used INTEGER DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_password_resets_user_id ON password_resets (user_id)`,
	}
}

func (s *UserStore) convertBoolForDB(value bool) any {
	switch s.dbType {
	case PostgreSQL:
		return value
	default:
		if value {
			return 1
		}
		return 0
	}
}

func (s *UserStore) convertBoolFromDB(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case int64:
		return v != 0
	case int32:
		return v != 0
	case int:
		return v != 0
	case string:
		return v == "1" || strings.ToLower(v) == "true"
	case []byte:
		str := string(v)
		return str == "1" || strings.ToLower(str) == "true"
	default:
		return false
	}
}

// userRow is the raw row shape; lockout_until and mfa_enabled need
// per-database conversion.
type userRow struct {
	UserID         int64   `db:"user_id"`
	Email          string  `db:"email"`
	Username       string  `db:"username"`
	PasswordHash   string  `db:"password_hash"`
	FailedAttempts int     `db:"failed_attempts"`
	LockoutUntil   *int64  `db:"lockout_until"`
	MFAEnabled     any     `db:"mfa_enabled"`
	MFASecret      *string `db:"mfa_secret"`
}

func (s *UserStore) rowToUser(row userRow) models.User {
	user := models.User{
		ID:             row.UserID,
		Email:          row.Email,
		Username:       row.Username,
		PasswordHash:   row.PasswordHash,
		FailedAttempts: row.FailedAttempts,
		MFAEnabled:     s.convertBoolFromDB(row.MFAEnabled),
	}
	if row.LockoutUntil != nil {
		until := time.Unix(*row.LockoutUntil, 0)
		user.LockoutUntil = &until
	}
	if row.MFASecret != nil {
		user.MFASecret = *row.MFASecret
	}
	return user
}

const selectUserColumns = `SELECT user_id, email, username, password_hash, failed_attempts, lockout_until, mfa_enabled, mfa_secret FROM users`

// Create inserts a new account. Uniqueness of email and username is enforced
// by the schema; a violation surfaces as the driver's error.
func (s *UserStore) Create(user *models.User) error {
	query := `INSERT INTO users (user_id, email, username, password_hash, failed_attempts, mfa_enabled)
		VALUES (:user_id, :email, :username, :password_hash, 0, :mfa_enabled)`
	params := map[string]any{
		"user_id":       user.ID,
		"email":         user.Email,
		"username":      user.Username,
		"password_hash": user.PasswordHash,
		"mfa_enabled":   s.convertBoolForDB(false),
	}
	_, err := s.db.NamedExec(query, params)
	return err
}

// FindByEmail looks an account up by its email, case-sensitively.
func (s *UserStore) FindByEmail(email string) (models.User, error) {
	var row userRow
	err := s.db.NamedGet(&row, selectUserColumns+` WHERE email = :email`, map[string]any{"email": email})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return s.rowToUser(row), nil
}

// FindByUsername looks an account up by its username.
func (s *UserStore) FindByUsername(username string) (models.User, error) {
	var row userRow
	err := s.db.NamedGet(&row, selectUserColumns+` WHERE username = :username`, map[string]any{"username": username})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return s.rowToUser(row), nil
}

// FindByID looks an account up by its identifier.
func (s *UserStore) FindByID(userID int64) (models.User, error) {
	var row userRow
	err := s.db.NamedGet(&row, selectUserColumns+` WHERE user_id = :user_id`, map[string]any{"user_id": userID})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return s.rowToUser(row), nil
}

// ClearLockout resets the failure counter and removes any lockout.
func (s *UserStore) ClearLockout(userID int64) error {
	query := `UPDATE users SET failed_attempts = 0, lockout_until = NULL, updated_at = CURRENT_TIMESTAMP WHERE user_id = :user_id`
	_, err := s.db.NamedExec(query, map[string]any{"user_id": userID})
	return err
}

// RecordFailure writes a new failure count (and optional lockout deadline)
// conditioned on the previously read count, so two racing attempts cannot
// both land on the same counter value. It returns false when the row was not
// updated because another attempt got there first; the caller should re-read
// and retry.
func (s *UserStore) RecordFailure(userID int64, prevAttempts, newAttempts int, lockoutUntil *time.Time) (bool, error) {
	params := map[string]any{
		"user_id":       userID,
		"prev_attempts": prevAttempts,
		"new_attempts":  newAttempts,
	}
	var until any
	if lockoutUntil != nil {
		until = lockoutUntil.Unix()
	}
	params["lockout_until"] = until

	query := `UPDATE users SET failed_attempts = :new_attempts, lockout_until = :lockout_until, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = :user_id AND failed_attempts = :prev_attempts`
	result, err := s.db.NamedExec(query, params)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// SetPasswordHash replaces the stored credential.
func (s *UserStore) SetPasswordHash(userID int64, hash string) error {
	query := `UPDATE users SET password_hash = :password_hash, updated_at = CURRENT_TIMESTAMP WHERE user_id = :user_id`
	_, err := s.db.NamedExec(query, map[string]any{"user_id": userID, "password_hash": hash})
	return err
}

// --- Password reset consumption records ---

// CreateResetToken records an issued reset token for later single-use
// consumption.
func (s *UserStore) CreateResetToken(tokenID string, userID int64, expiresAt int64) error {
	query := `INSERT INTO password_resets (token_id, user_id, expires_at, used) VALUES (:token_id, :user_id, :expires_at, :used)`
	params := map[string]any{
		"token_id":   tokenID,
		"user_id":    userID,
		"expires_at": expiresAt,
		"used":       s.convertBoolForDB(false),
	}
	_, err := s.db.NamedExec(query, params)
	return err
}

// ConsumeResetToken atomically marks a token used. It returns false when the
// token is unknown, already consumed, or past its recorded expiry.
func (s *UserStore) ConsumeResetToken(tokenID string, now time.Time) (bool, error) {
	query := `UPDATE password_resets SET used = :used WHERE token_id = :token_id AND used = :unused AND expires_at >= :now`
	params := map[string]any{
		"token_id": tokenID,
		"used":     s.convertBoolForDB(true),
		"unused":   s.convertBoolForDB(false),
		"now":      now.Unix(),
	}
	result, err := s.db.NamedExec(query, params)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// --- MFA ---

// SetMFA stores the TOTP secret and hashed backup codes and turns MFA on.
func (s *UserStore) SetMFA(userID int64, secret string, backupCodes []string) error {
	codesJSON, err := json.Marshal(backupCodes)
	if err != nil {
		return err
	}
	query := `UPDATE users SET mfa_enabled = :mfa_enabled, mfa_secret = :mfa_secret, mfa_backup_codes = :mfa_backup_codes, updated_at = CURRENT_TIMESTAMP WHERE user_id = :user_id`
	params := map[string]any{
		"user_id":          userID,
		"mfa_enabled":      s.convertBoolForDB(true),
		"mfa_secret":       secret,
		"mfa_backup_codes": string(codesJSON),
	}
	_, err = s.db.NamedExec(query, params)
	return err
}

// DisableMFA turns MFA off and discards the secret and backup codes.
func (s *UserStore) DisableMFA(userID int64) error {
	query := `UPDATE users SET mfa_enabled = :mfa_enabled, mfa_secret = NULL, mfa_backup_codes = NULL, updated_at = CURRENT_TIMESTAMP WHERE user_id = :user_id`
	params := map[string]any{
		"user_id":     userID,
		"mfa_enabled": s.convertBoolForDB(false),
	}
	_, err := s.db.NamedExec(query, params)
	return err
}

// GetBackupCodes returns the stored (hashed) backup codes.
func (s *UserStore) GetBackupCodes(userID int64) ([]string, error) {
	var raw *string
	err := s.db.NamedGet(&raw, `SELECT mfa_backup_codes FROM users WHERE user_id = :user_id`, map[string]any{"user_id": userID})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if raw == nil || *raw == "" {
		return nil, nil
	}
	var codes []string
	if err := json.Unmarshal([]byte(*raw), &codes); err != nil {
		return nil, err
	}
	return codes, nil
}

// ReplaceBackupCodes overwrites the stored backup codes, e.g. after one has
// been consumed.
func (s *UserStore) ReplaceBackupCodes(userID int64, codes []string) error {
	codesJSON, err := json.Marshal(codes)
	if err != nil {
		return err
	}
	query := `UPDATE users SET mfa_backup_codes = :mfa_backup_codes, updated_at = CURRENT_TIMESTAMP WHERE user_id = :user_id`
	_, err = s.db.NamedExec(query, map[string]any{"user_id": userID, "mfa_backup_codes": string(codesJSON)})
	return err
}
