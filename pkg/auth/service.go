// Package auth implements credential verification with failed-attempt
// lockout, account registration, and the password-reset flow. All
// collaborators are injected at construction; the package keeps no global
// state.
package auth

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/oarkflow/hash"
	"github.com/oarkflow/xid/wuid"

	"github.com/chemworks/diffusio/pkg/mailer"
	"github.com/chemworks/diffusio/pkg/models"
	"github.com/chemworks/diffusio/pkg/storage"
	"github.com/chemworks/diffusio/pkg/token"
)

// UserStore is the persistence contract the service depends on. Lookups
// return storage.ErrNotFound for missing rows; RecordFailure must be
// conditional on the previously read counter so racing attempts serialize.
type UserStore interface {
	FindByEmail(email string) (models.User, error)
	FindByUsername(username string) (models.User, error)
	FindByID(userID int64) (models.User, error)
	Create(user *models.User) error
	ClearLockout(userID int64) error
	RecordFailure(userID int64, prevAttempts, newAttempts int, lockoutUntil *time.Time) (bool, error)
	SetPasswordHash(userID int64, hash string) error
	CreateResetToken(tokenID string, userID int64, expiresAt int64) error
	ConsumeResetToken(tokenID string, now time.Time) (bool, error)
	SetMFA(userID int64, secret string, backupCodes []string) error
	DisableMFA(userID int64) error
	GetBackupCodes(userID int64) ([]string, error)
	ReplaceBackupCodes(userID int64, codes []string) error
}

// TokenSigner issues and verifies the signed reset tokens.
type TokenSigner interface {
	Issue(userID int64, purpose string, ttl time.Duration) (string, token.Claims, error)
	Verify(tokenStr, purpose string) (token.Claims, error)
}

// Config carries the tunables of the authentication flows.
type Config struct {
	// LockoutThreshold is the number of consecutive failures that locks the
	// account.
	LockoutThreshold int
	// LockoutWindow is how long a freshly triggered lockout lasts.
	LockoutWindow time.Duration
	// ResetTokenTTL bounds the lifetime of an emailed reset token.
	ResetTokenTTL time.Duration
	// PasswordAlgo selects the one-way hash, "bcrypt" by default.
	PasswordAlgo string
	// BaseURL prefixes the reset link put into outgoing mail.
	BaseURL string
	// Issuer names the TOTP issuer shown in authenticator apps.
	Issuer string
}

// Service is the authentication state machine.
type Service struct {
	store  UserStore
	signer TokenSigner
	mail   mailer.Dispatcher
	cfg    Config
}

// NewService wires the service with its collaborators.
func NewService(store UserStore, signer TokenSigner, mail mailer.Dispatcher, cfg Config) *Service {
	if cfg.LockoutThreshold <= 0 {
		cfg.LockoutThreshold = 3
	}
	if cfg.LockoutWindow <= 0 {
		cfg.LockoutWindow = 5 * time.Minute
	}
	if cfg.ResetTokenTTL <= 0 {
		cfg.ResetTokenTTL = 30 * time.Minute
	}
	if cfg.PasswordAlgo == "" {
		cfg.PasswordAlgo = "bcrypt"
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "Diffusio"
	}
	return &Service{store: store, signer: signer, mail: mail, cfg: cfg}
}

// Login verifies credentials at the given instant. The supplied password is
// never evaluated while the account is locked. A correct password resets the
// failure counter and clears any expired lockout; a wrong one increments the
// counter and, at the threshold, starts a fresh lockout window. mfaCode is
// ignored for accounts without MFA.
func (s *Service) Login(email, password, mfaCode string, now time.Time) (models.User, error) {
	if email == "" || password == "" {
		return models.User{}, fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	user, err := s.store.FindByEmail(email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.User{}, ErrNoSuchAccount
		}
		return models.User{}, fmt.Errorf("lookup user: %w", err)
	}

	if user.Locked(now) {
		return models.User{}, newLockedError(*user.LockoutUntil, now, false)
	}

	ok, err := hash.Match(password, user.PasswordHash, s.cfg.PasswordAlgo)
	if err != nil || !ok {
		return models.User{}, s.recordFailure(user, now)
	}

	if user.MFAEnabled {
		if mfaCode == "" {
			return models.User{}, ErrMFACodeRequired
		}
		if !s.verifyMFACode(&user, mfaCode) {
			return models.User{}, ErrMFACodeInvalid
		}
	}

	if err := s.store.ClearLockout(user.ID); err != nil {
		return models.User{}, fmt.Errorf("clear lockout: %w", err)
	}
	user.FailedAttempts = 0
	user.LockoutUntil = nil
	return user, nil
}

// recordFailure persists the incremented counter with a conditional update
// keyed on the counter value read. When another attempt raced us, it re-reads
// and tries again, so the threshold cannot be overshot.
func (s *Service) recordFailure(user models.User, now time.Time) error {
	for attempt := 0; attempt < 3; attempt++ {
		if user.Locked(now) {
			return newLockedError(*user.LockoutUntil, now, false)
		}

		attempts := user.FailedAttempts + 1
		var until *time.Time
		if attempts >= s.cfg.LockoutThreshold {
			deadline := now.Add(s.cfg.LockoutWindow)
			until = &deadline
		}

		applied, err := s.store.RecordFailure(user.ID, user.FailedAttempts, attempts, until)
		if err != nil {
			return fmt.Errorf("record failed attempt: %w", err)
		}
		if applied {
			if until != nil {
				return newLockedError(*until, now, true)
			}
			return ErrInvalidCredentials
		}

		user, err = s.store.FindByID(user.ID)
		if err != nil {
			return fmt.Errorf("reload user: %w", err)
		}
	}
	// Contention persisted across retries; the account state is at least as
	// restrictive as a single failure would have made it.
	return ErrInvalidCredentials
}

// Register creates a new account and returns it. The email uniqueness check
// runs before the username check, so when both collide the email error
// surfaces. A storage failure leaves no partial record: the account is a
// single insert.
func (s *Service) Register(email, username, password, confirm string) (models.User, error) {
	if email == "" || username == "" || password == "" {
		return models.User{}, fmt.Errorf("%w: email, username and password are required", ErrValidation)
	}
	if password != confirm {
		return models.User{}, ErrPasswordMismatch
	}

	if _, err := s.store.FindByEmail(email); err == nil {
		return models.User{}, ErrDuplicateEmail
	} else if !errors.Is(err, storage.ErrNotFound) {
		return models.User{}, fmt.Errorf("lookup email: %w", err)
	}
	if _, err := s.store.FindByUsername(username); err == nil {
		return models.User{}, ErrDuplicateUsername
	} else if !errors.Is(err, storage.ErrNotFound) {
		return models.User{}, fmt.Errorf("lookup username: %w", err)
	}

	passwordHash, err := hash.Make(password, s.cfg.PasswordAlgo)
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %v", ErrRegistrationFailed, err)
	}

	user := models.User{
		ID:           wuid.New().Int64(),
		Email:        email,
		Username:     username,
		PasswordHash: string(passwordHash),
	}
	if err := s.store.Create(&user); err != nil {
		// Covers races on the unique columns between the checks above and the
		// insert.
		return models.User{}, fmt.Errorf("%w: %v", ErrRegistrationFailed, err)
	}
	return user, nil
}

// RequestPasswordReset issues a signed, time-limited reset token for the
// account and mails a link carrying it. The outcome is uniform whether or
// not the email is registered, so the endpoint cannot be used to enumerate
// accounts. Mail delivery runs on its own goroutine; failures are logged and
// never surface to the requester.
func (s *Service) RequestPasswordReset(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}

	user, err := s.store.FindByEmail(email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	tokenStr, claims, err := s.signer.Issue(user.ID, token.PurposeReset, s.cfg.ResetTokenTTL)
	if err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}
	if err := s.store.CreateResetToken(claims.TokenID, user.ID, claims.ExpiresAt); err != nil {
		return fmt.Errorf("record reset token: %w", err)
	}

	resetURL := s.cfg.BaseURL + "/reset-password/" + tokenStr
	body := "To reset your password, visit the following link:\n\n" +
		resetURL + "\n\nIf you did not make this request, simply ignore this email.\n"

	go func() {
		if err := s.mail.Send(user.Email, "Password Reset Request", body); err != nil {
			log.Printf("failed to send reset email to %s: %v", user.Email, err)
		}
	}()
	return nil
}

// CompletePasswordReset verifies the token and replaces the credential. The
// token must decrypt, be unexpired, and not have been consumed before; on
// success it is marked used so it cannot authorize a second reset.
func (s *Service) CompletePasswordReset(tokenStr, newPassword, confirm string) error {
	if tokenStr == "" || newPassword == "" {
		return fmt.Errorf("%w: token and new password are required", ErrValidation)
	}

	claims, err := s.signer.Verify(tokenStr, token.PurposeReset)
	if err != nil {
		return ErrInvalidOrExpiredToken
	}
	if newPassword != confirm {
		return ErrPasswordMismatch
	}

	consumed, err := s.store.ConsumeResetToken(claims.TokenID, time.Now())
	if err != nil {
		return fmt.Errorf("consume reset token: %w", err)
	}
	if !consumed {
		return ErrInvalidOrExpiredToken
	}

	passwordHash, err := hash.Make(newPassword, s.cfg.PasswordAlgo)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.store.SetPasswordHash(claims.UserID, string(passwordHash)); err != nil {
		return fmt.Errorf("store new credential: %w", err)
	}
	return nil
}

// VerifyResetToken reports whether a reset token is currently acceptable,
// without consuming it. The completion page uses it to decide whether to
// show the form at all.
func (s *Service) VerifyResetToken(tokenStr string) (int64, error) {
	claims, err := s.signer.Verify(tokenStr, token.PurposeReset)
	if err != nil {
		return 0, ErrInvalidOrExpiredToken
	}
	return claims.UserID, nil
}
