package auth

import (
	"crypto/rand"
	"encoding/base32"
	"encoding/base64"
	"fmt"

	"github.com/pquerna/otp/totp"
	"github.com/skip2/go-qrcode"
	"golang.org/x/crypto/bcrypt"

	"github.com/chemworks/diffusio/pkg/models"
)

const backupCodeCount = 10

// MFASetup holds the provisioning material shown to the user once during
// setup. Nothing here is persisted until ConfirmMFASetup succeeds.
type MFASetup struct {
	Secret      string
	QRCodePNG   string // base64 data URL for HTML embedding
	BackupCodes []string
}

// BeginMFASetup generates a fresh TOTP secret, its provisioning QR code and
// a set of single-use backup codes.
func (s *Service) BeginMFASetup(user models.User) (MFASetup, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.cfg.Issuer,
		AccountName: user.Email,
	})
	if err != nil {
		return MFASetup{}, fmt.Errorf("generate TOTP key: %w", err)
	}

	qrPNG, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		return MFASetup{}, fmt.Errorf("generate QR code: %w", err)
	}

	codes, err := generateBackupCodes(backupCodeCount)
	if err != nil {
		return MFASetup{}, err
	}

	return MFASetup{
		Secret:      key.Secret(),
		QRCodePNG:   "data:image/png;base64," + base64.StdEncoding.EncodeToString(qrPNG),
		BackupCodes: codes,
	}, nil
}

// ConfirmMFASetup validates the first code from the authenticator app and,
// on success, enables MFA with the backup codes stored as one-way hashes.
func (s *Service) ConfirmMFASetup(userID int64, secret, code string, backupCodes []string) error {
	if !totp.Validate(code, secret) {
		return ErrMFACodeInvalid
	}

	hashed := make([]string, 0, len(backupCodes))
	for _, c := range backupCodes {
		h, err := bcrypt.GenerateFromPassword([]byte(c), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash backup code: %w", err)
		}
		hashed = append(hashed, string(h))
	}

	if err := s.store.SetMFA(userID, secret, hashed); err != nil {
		return fmt.Errorf("store MFA settings: %w", err)
	}
	return nil
}

// DisableMFA turns the second factor off for the account.
func (s *Service) DisableMFA(userID int64) error {
	return s.store.DisableMFA(userID)
}

// verifyMFACode accepts either a current TOTP code or one unused backup
// code. A matched backup code is removed so it cannot be replayed.
func (s *Service) verifyMFACode(user *models.User, code string) bool {
	if totp.Validate(code, user.MFASecret) {
		return true
	}

	codes, err := s.store.GetBackupCodes(user.ID)
	if err != nil {
		return false
	}
	for i, h := range codes {
		if bcrypt.CompareHashAndPassword([]byte(h), []byte(code)) == nil {
			remaining := append(append([]string{}, codes[:i]...), codes[i+1:]...)
			if err := s.store.ReplaceBackupCodes(user.ID, remaining); err != nil {
				return false
			}
			return true
		}
	}
	return false
}

func generateBackupCodes(count int) ([]string, error) {
	codes := make([]string, count)
	for i := range codes {
		raw := make([]byte, 8)
		if _, err := rand.Read(raw); err != nil {
			return nil, fmt.Errorf("generate backup code: %w", err)
		}
		code := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(raw)
		codes[i] = fmt.Sprintf("%s-%s", code[:4], code[4:8])
	}
	return codes, nil
}
