package auth

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrValidation is returned when a required field is empty or malformed.
	ErrValidation = errors.New("validation failed")
	// ErrNoSuchAccount is returned when no account matches the given email.
	ErrNoSuchAccount = errors.New("no account with that email")
	// ErrAccountLocked is returned while an account is under lockout. Use
	// errors.As with *LockedError for the remaining duration.
	ErrAccountLocked = errors.New("account locked")
	// ErrInvalidCredentials is returned for a wrong password below the
	// lockout threshold.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrPasswordMismatch is returned when a password and its confirmation
	// differ.
	ErrPasswordMismatch = errors.New("passwords do not match")
	// ErrDuplicateEmail is returned when the email is already registered.
	ErrDuplicateEmail = errors.New("email already exists")
	// ErrDuplicateUsername is returned when the username is already taken.
	ErrDuplicateUsername = errors.New("username already exists")
	// ErrRegistrationFailed is returned when persisting a new account fails;
	// no partial record is left behind.
	ErrRegistrationFailed = errors.New("registration failed")
	// ErrInvalidOrExpiredToken is returned for reset tokens that fail
	// verification, have expired, or were already consumed.
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	// ErrMFACodeRequired is returned when the password is correct but the
	// account requires a TOTP code that was not supplied.
	ErrMFACodeRequired = errors.New("mfa code required")
	// ErrMFACodeInvalid is returned when the supplied TOTP or backup code is
	// wrong.
	ErrMFACodeInvalid = errors.New("mfa code invalid")
)

// LockedError carries the lockout deadline for display. Fresh is true when
// the failing attempt itself triggered the lockout, so the page can word the
// message differently from a hit on an already-locked account.
type LockedError struct {
	Until time.Time
	// RemainingMinutes is the time left, rounded up to the next whole minute.
	RemainingMinutes int
	Fresh            bool
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("account locked for %d minute(s)", e.RemainingMinutes)
}

func (e *LockedError) Unwrap() error { return ErrAccountLocked }

func newLockedError(until, now time.Time, fresh bool) *LockedError {
	remaining := int(until.Sub(now).Seconds())/60 + 1
	return &LockedError{Until: until, RemainingMinutes: remaining, Fresh: fresh}
}
