// Package token issues and verifies the application's PASETO tokens: the
// session token set after login and the emailed password-reset token. Both
// are encrypted with the shared application secret, so any altered byte makes
// the token undecryptable.
package token

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"github.com/oarkflow/paseto/token"
)

const (
	// PurposeSession marks tokens that authenticate a browser session.
	PurposeSession = "session"
	// PurposeReset marks tokens that authorize one password reset.
	PurposeReset = "password_reset"
)

var (
	// ErrInvalid is returned for tokens that fail decryption, carry the wrong
	// purpose, or are otherwise malformed.
	ErrInvalid = errors.New("invalid token")
	// ErrExpired is returned for structurally valid tokens past their expiry.
	ErrExpired = errors.New("token expired")
)

// Claims is the verified content of a token.
type Claims struct {
	UserID    int64
	TokenID   string
	Purpose   string
	IssuedAt  int64
	ExpiresAt int64
}

// Signer issues and verifies tokens with a shared secret.
type Signer struct {
	secret []byte
}

// NewSigner creates a signer from the application secret.
func NewSigner(secret []byte) *Signer {
	return &Signer{secret: secret}
}

// Issue creates a token for userID with the given purpose and lifetime. The
// returned token id ("jti") is unique per issuance; reset tokens are recorded
// under it so they can be invalidated after first use.
func (s *Signer) Issue(userID int64, purpose string, ttl time.Duration) (string, Claims, error) {
	idBytes := make([]byte, 16)
	if _, err := rand.Read(idBytes); err != nil {
		return "", Claims{}, err
	}

	now := time.Now()
	claims := Claims{
		UserID:    userID,
		TokenID:   hex.EncodeToString(idBytes),
		Purpose:   purpose,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
	}

	t := token.CreateToken(ttl, token.AlgEncrypt)
	if err := token.RegisterClaims(t, map[string]any{
		"sub":     strconv.FormatInt(userID, 10),
		"jti":     claims.TokenID,
		"purpose": purpose,
		"iat":     claims.IssuedAt,
		"exp":     claims.ExpiresAt,
	}); err != nil {
		return "", Claims{}, err
	}

	tokenStr, err := token.EncryptToken(t, s.secret)
	if err != nil {
		return "", Claims{}, err
	}
	return tokenStr, claims, nil
}

// Verify decrypts a token, checks its purpose and expiry, and returns its
// claims.
func (s *Signer) Verify(tokenStr, purpose string) (Claims, error) {
	decTok, err := token.DecryptToken(tokenStr, s.secret)
	if err != nil {
		return Claims{}, ErrInvalid
	}

	if p, _ := decTok.Claims["purpose"].(string); p != purpose {
		return Claims{}, ErrInvalid
	}

	exp := claimInt64(decTok.Claims["exp"])
	if exp == 0 {
		return Claims{}, ErrInvalid
	}
	if time.Now().Unix() > exp {
		return Claims{}, ErrExpired
	}

	sub, _ := decTok.Claims["sub"].(string)
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || userID == 0 {
		return Claims{}, ErrInvalid
	}

	jti, _ := decTok.Claims["jti"].(string)

	return Claims{
		UserID:    userID,
		TokenID:   jti,
		Purpose:   purpose,
		IssuedAt:  claimInt64(decTok.Claims["iat"]),
		ExpiresAt: exp,
	}, nil
}

// claimInt64 tolerates the numeric types claims come back as after
// serialization.
func claimInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	case int:
		return int64(n)
	default:
		return 0
	}
}
