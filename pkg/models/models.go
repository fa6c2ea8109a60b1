package models

import "time"

// User is one registered account. Email and Username are each unique across
// all users. FailedAttempts and LockoutUntil carry the login-lockout state:
// a nil LockoutUntil means the account is not locked.
type User struct {
	ID             int64      `db:"user_id"`
	Email          string     `db:"email"`
	Username       string     `db:"username"`
	PasswordHash   string     `db:"password_hash"`
	FailedAttempts int        `db:"failed_attempts"`
	LockoutUntil   *time.Time `db:"lockout_until"`
	MFAEnabled     bool       `db:"mfa_enabled"`
	MFASecret      string     `db:"mfa_secret"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

// Locked reports whether the account is under an active lockout at now.
func (u *User) Locked(now time.Time) bool {
	return u.LockoutUntil != nil && now.Before(*u.LockoutUntil)
}

// PasswordReset is the persisted consumption record of one issued reset
// token. The token itself is self-describing (signed, carries its expiry);
// this row only exists so a token can be invalidated after first use.
type PasswordReset struct {
	TokenID   string `db:"token_id"`
	UserID    int64  `db:"user_id"`
	ExpiresAt int64  `db:"expires_at"`
	Used      bool   `db:"used"`
}

// ErrorPageData drives the shared error template.
type ErrorPageData struct {
	Title       string
	StatusCode  int
	Message     string
	Description string
	Technical   string
	RetryURL    string
	ErrorID     string
}
