package handlers_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chemworks/diffusio/pkg/auth"
	"github.com/chemworks/diffusio/pkg/config"
	"github.com/chemworks/diffusio/pkg/http/handlers"
	"github.com/chemworks/diffusio/pkg/http/middlewares"
	"github.com/chemworks/diffusio/pkg/http/routes"
	"github.com/chemworks/diffusio/pkg/mailer"
	"github.com/chemworks/diffusio/pkg/models"
	"github.com/chemworks/diffusio/pkg/storage"
	"github.com/chemworks/diffusio/pkg/token"
)

// stubStore satisfies auth.UserStore with a single fixed user, enough for
// routing and session tests.
type stubStore struct {
	user models.User
}

func (s *stubStore) FindByEmail(email string) (models.User, error) {
	if email == s.user.Email {
		return s.user, nil
	}
	return models.User{}, storage.ErrNotFound
}

func (s *stubStore) FindByUsername(username string) (models.User, error) {
	if username == s.user.Username {
		return s.user, nil
	}
	return models.User{}, storage.ErrNotFound
}

func (s *stubStore) FindByID(userID int64) (models.User, error) {
	if userID == s.user.ID {
		return s.user, nil
	}
	return models.User{}, storage.ErrNotFound
}

func (s *stubStore) Create(user *models.User) error { return nil }
func (s *stubStore) ClearLockout(userID int64) error { return nil }
func (s *stubStore) SetPasswordHash(int64, string) error { return nil }
func (s *stubStore) CreateResetToken(string, int64, int64) error { return nil }
func (s *stubStore) ConsumeResetToken(string, time.Time) (bool, error) { return true, nil }
func (s *stubStore) RecordFailure(int64, int, int, *time.Time) (bool, error) { return true, nil }
func (s *stubStore) SetMFA(int64, string, []string) error { return nil }
func (s *stubStore) DisableMFA(int64) error { return nil }
func (s *stubStore) GetBackupCodes(int64) ([]string, error) { return nil, nil }
func (s *stubStore) ReplaceBackupCodes(int64, []string) error { return nil }

func newTestApp(t *testing.T) (*fiber.App, *token.Signer, *config.Config) {
	t.Helper()
	cfg := &config.Config{
		Environment:    "test",
		SessionName:    "session_token",
		SessionTimeout: time.Hour,
	}
	signer := token.NewSigner([]byte("0123456789abcdef0123456789abcdef"))
	store := &stubStore{user: models.User{ID: 1, Email: "a@b.com", Username: "alice"}}
	svc := auth.NewService(store, signer, mailer.LogOnly{}, auth.Config{})

	engine := html.New("../../../views", ".html")
	app := fiber.New(fiber.Config{
		Views:       engine,
		ViewsLayout: "layouts/main",
	})
	h := handlers.New(svc, signer, cfg)
	session := middlewares.NewSession(signer, store, cfg)
	routes.Setup(app, h, session)
	return app, signer, cfg
}

func sessionCookie(t *testing.T, signer *token.Signer, cfg *config.Config, userID int64) *http.Cookie {
	t.Helper()
	tokenStr, _, err := signer.Issue(userID, token.PurposeSession, cfg.SessionTimeout)
	require.NoError(t, err)
	return &http.Cookie{Name: cfg.SessionName, Value: tokenStr}
}

func TestHealthCheck(t *testing.T) {
	app, _, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestProtectedRoutesRedirectWithoutSession(t *testing.T) {
	app, _, _ := newTestApp(t)

	for _, path := range []string{"/", "/calcul", "/result", "/mfa/setup"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, http.StatusSeeOther, resp.StatusCode, path)
		assert.Equal(t, "/login", resp.Header.Get("Location"), path)
	}
}

func TestProtectedRouteWithValidSession(t *testing.T) {
	app, signer, cfg := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/calcul", nil)
	req.AddCookie(sessionCookie(t, signer, cfg, 1))
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Diffusion Coefficient Calculator")
}

func TestProtectedRouteRejectsUnknownUser(t *testing.T) {
	app, signer, cfg := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/calcul", nil)
	req.AddCookie(sessionCookie(t, signer, cfg, 42))
	resp, err := app.Test(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestResultPageComputesCoefficient(t *testing.T) {
	app, signer, cfg := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/result?Xa=0.5&T=298.15", nil)
	req.AddCookie(sessionCookie(t, signer, cfg, 1))
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "1.40e-05")
	assert.Contains(t, string(body), "-1.12e+01")
}

func TestResultPageRejectsOutOfRangeFraction(t *testing.T) {
	app, signer, cfg := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/result?Xa=1.5&T=298.15", nil)
	req.AddCookie(sessionCookie(t, signer, cfg, 1))
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "must be between 0 and 1")
}

func TestPostCalculRedirectsToResult(t *testing.T) {
	app, signer, cfg := newTestApp(t)

	form := "Xa=0.5&T=298.15"
	req := httptest.NewRequest(http.MethodPost, "/calcul", strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(sessionCookie(t, signer, cfg, 1))

	resp, err := app.Test(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/result?T=298.15&Xa=0.5", resp.Header.Get("Location"))
}

func TestUnknownPathRenders404(t *testing.T) {
	app, _, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/does-not-exist", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "404")
}
