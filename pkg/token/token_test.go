package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("OdR4DlWhZk6osDd0qXLdVT88lHOvj14L")

func TestIssueVerify_RoundTrip(t *testing.T) {
	s := NewSigner(testSecret)

	tokenStr, issued, err := s.Issue(42, PurposeReset, 30*time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, tokenStr)
	require.NotEmpty(t, issued.TokenID)

	claims, err := s.Verify(tokenStr, PurposeReset)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, issued.TokenID, claims.TokenID)
	assert.Equal(t, PurposeReset, claims.Purpose)
}

func TestVerify_Expired(t *testing.T) {
	s := NewSigner(testSecret)

	tokenStr, _, err := s.Issue(42, PurposeReset, -time.Minute)
	require.NoError(t, err)

	_, err = s.Verify(tokenStr, PurposeReset)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestVerify_TamperedToken(t *testing.T) {
	s := NewSigner(testSecret)

	tokenStr, _, err := s.Issue(42, PurposeReset, 30*time.Minute)
	require.NoError(t, err)

	// Flipping any single byte must invalidate the token.
	for _, i := range []int{0, len(tokenStr) / 2, len(tokenStr) - 1} {
		raw := []byte(tokenStr)
		if raw[i] == 'a' {
			raw[i] = 'b'
		} else {
			raw[i] = 'a'
		}
		_, err = s.Verify(string(raw), PurposeReset)
		assert.Error(t, err, "byte %d flipped", i)
	}
}

func TestVerify_WrongPurpose(t *testing.T) {
	s := NewSigner(testSecret)

	tokenStr, _, err := s.Issue(42, PurposeSession, time.Hour)
	require.NoError(t, err)

	_, err = s.Verify(tokenStr, PurposeReset)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestVerify_WrongSecret(t *testing.T) {
	s := NewSigner(testSecret)
	other := NewSigner([]byte("12345678901234567890123456789012"))

	tokenStr, _, err := s.Issue(7, PurposeSession, time.Hour)
	require.NoError(t, err)

	_, err = other.Verify(tokenStr, PurposeSession)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestIssue_UniqueTokenIDs(t *testing.T) {
	s := NewSigner(testSecret)

	seen := map[string]bool{}
	for i := 0; i < 32; i++ {
		_, claims, err := s.Issue(1, PurposeReset, time.Minute)
		require.NoError(t, err)
		assert.False(t, seen[claims.TokenID])
		seen[claims.TokenID] = true
	}
}
