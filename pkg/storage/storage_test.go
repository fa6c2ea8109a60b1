package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/oarkflow/squealx/drivers/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chemworks/diffusio/pkg/models"
)

func newTestStore(t *testing.T) *UserStore {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), "sqlite")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := NewUserStore(db)
	require.NoError(t, err)
	return store
}

func seedUser(t *testing.T, store *UserStore, id int64, email, username string) models.User {
	t.Helper()
	user := models.User{ID: id, Email: email, Username: username, PasswordHash: "x"}
	require.NoError(t, store.Create(&user))
	return user
}

func TestCreateAndFind(t *testing.T) {
	store := newTestStore(t)
	seedUser(t, store, 1, "a@example.com", "alice")

	byEmail, err := store.FindByEmail("a@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(1), byEmail.ID)
	assert.Equal(t, "alice", byEmail.Username)
	assert.Equal(t, 0, byEmail.FailedAttempts)
	assert.Nil(t, byEmail.LockoutUntil)

	byUsername, err := store.FindByUsername("alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1), byUsername.ID)

	byID, err := store.FindByID(1)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", byID.Email)
}

func TestFind_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.FindByEmail("missing@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.FindByUsername("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.FindByID(99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreate_UniquenessEnforced(t *testing.T) {
	store := newTestStore(t)
	seedUser(t, store, 1, "a@example.com", "alice")

	dupEmail := models.User{ID: 2, Email: "a@example.com", Username: "other", PasswordHash: "x"}
	assert.Error(t, store.Create(&dupEmail))

	dupUsername := models.User{ID: 3, Email: "other@example.com", Username: "alice", PasswordHash: "x"}
	assert.Error(t, store.Create(&dupUsername))

	// Cardinality for the colliding columns stays at one.
	u, err := store.FindByEmail("a@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)
}

func TestRecordFailure_ConditionalOnCounter(t *testing.T) {
	store := newTestStore(t)
	seedUser(t, store, 1, "a@example.com", "alice")

	applied, err := store.RecordFailure(1, 0, 1, nil)
	require.NoError(t, err)
	assert.True(t, applied)

	// A racer that read the stale counter must not win.
	applied, err = store.RecordFailure(1, 0, 1, nil)
	require.NoError(t, err)
	assert.False(t, applied)

	until := time.Now().Add(5 * time.Minute).Truncate(time.Second)
	applied, err = store.RecordFailure(1, 1, 2, &until)
	require.NoError(t, err)
	assert.True(t, applied)

	u, err := store.FindByID(1)
	require.NoError(t, err)
	assert.Equal(t, 2, u.FailedAttempts)
	require.NotNil(t, u.LockoutUntil)
	assert.Equal(t, until.Unix(), u.LockoutUntil.Unix())
}

func TestClearLockout(t *testing.T) {
	store := newTestStore(t)
	seedUser(t, store, 1, "a@example.com", "alice")

	until := time.Now().Add(5 * time.Minute)
	_, err := store.RecordFailure(1, 0, 3, &until)
	require.NoError(t, err)

	require.NoError(t, store.ClearLockout(1))

	u, err := store.FindByID(1)
	require.NoError(t, err)
	assert.Equal(t, 0, u.FailedAttempts)
	assert.Nil(t, u.LockoutUntil)
}

func TestSetPasswordHash(t *testing.T) {
	store := newTestStore(t)
	seedUser(t, store, 1, "a@example.com", "alice")

	require.NoError(t, store.SetPasswordHash(1, "new-hash"))

	u, err := store.FindByID(1)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", u.PasswordHash)
}

func TestResetToken_ConsumeOnce(t *testing.T) {
	store := newTestStore(t)
	seedUser(t, store, 1, "a@example.com", "alice")

	now := time.Now()
	require.NoError(t, store.CreateResetToken("tok-1", 1, now.Add(30*time.Minute).Unix()))

	ok, err := store.ConsumeResetToken("tok-1", now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.ConsumeResetToken("tok-1", now)
	require.NoError(t, err)
	assert.False(t, ok, "token must not be consumable twice")
}

func TestResetToken_ExpiredOrUnknown(t *testing.T) {
	store := newTestStore(t)
	seedUser(t, store, 1, "a@example.com", "alice")

	now := time.Now()
	require.NoError(t, store.CreateResetToken("tok-old", 1, now.Add(-time.Minute).Unix()))

	ok, err := store.ConsumeResetToken("tok-old", now)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = store.ConsumeResetToken("tok-missing", now)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMFARoundTrip(t *testing.T) {
	store := newTestStore(t)
	seedUser(t, store, 1, "a@example.com", "alice")

	require.NoError(t, store.SetMFA(1, "JBSWY3DPEHPK3PXP", []string{"h1", "h2"}))

	u, err := store.FindByID(1)
	require.NoError(t, err)
	assert.True(t, u.MFAEnabled)
	assert.Equal(t, "JBSWY3DPEHPK3PXP", u.MFASecret)

	codes, err := store.GetBackupCodes(1)
	require.NoError(t, err)
	assert.Equal(t, []string{"h1", "h2"}, codes)

	require.NoError(t, store.ReplaceBackupCodes(1, []string{"h2"}))
	codes, err = store.GetBackupCodes(1)
	require.NoError(t, err)
	assert.Equal(t, []string{"h2"}, codes)

	require.NoError(t, store.DisableMFA(1))
	u, err = store.FindByID(1)
	require.NoError(t, err)
	assert.False(t, u.MFAEnabled)
	assert.Empty(t, u.MFASecret)
}
