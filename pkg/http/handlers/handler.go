package handlers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/chemworks/diffusio/pkg/auth"
	"github.com/chemworks/diffusio/pkg/config"
	"github.com/chemworks/diffusio/pkg/models"
	"github.com/chemworks/diffusio/pkg/token"
	"github.com/chemworks/diffusio/pkg/utils"
)

// Handler carries the collaborators every page handler needs. All state is
// injected at construction so handlers stay testable.
type Handler struct {
	auth   *auth.Service
	signer *token.Signer
	cfg    *config.Config
}

func New(svc *auth.Service, signer *token.Signer, cfg *config.Config) *Handler {
	return &Handler{auth: svc, signer: signer, cfg: cfg}
}

// render merges one-shot flash data and the authenticated user into the
// template data before rendering.
func (h *Handler) render(c *fiber.Ctx, template string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	for k, v := range flash.Get(c) {
		if _, exists := data[k]; !exists {
			data[k] = v
		}
	}
	if user, ok := c.Locals("user").(models.User); ok {
		if _, exists := data["User"]; !exists {
			data["User"] = user
		}
	}
	c.Set("Content-Type", "text/html; charset=utf-8")
	return c.Render(template, data)
}

func (h *Handler) renderErrorPage(c *fiber.Ctx, statusCode int, title, message, description, technical, retryURL string) error {
	errorID := fmt.Sprintf("ERR-%d-%d", time.Now().Unix(), statusCode)
	data := models.ErrorPageData{
		Title:       title,
		StatusCode:  statusCode,
		Message:     message,
		Description: description,
		Technical:   technical,
		RetryURL:    retryURL,
		ErrorID:     errorID,
	}
	c.Set("Content-Type", "text/html; charset=utf-8")
	return c.Status(statusCode).Render(utils.ErrorTemplate, fiber.Map{
		"Title": title,
		"Data":  data,
	})
}

// issueSession creates a fresh session token for the user and sets it as the
// session cookie.
func (h *Handler) issueSession(c *fiber.Ctx, userID int64) error {
	tokenStr, _, err := h.signer.Issue(userID, token.PurposeSession, h.cfg.SessionTimeout)
	if err != nil {
		return err
	}
	c.Cookie(utils.GetCookie(h.cfg.EnableHTTPS, h.cfg.Environment, h.cfg.SessionName, tokenStr, int(h.cfg.SessionTimeout.Seconds())))
	return nil
}

func (h *Handler) clearSession(c *fiber.Ctx) {
	c.Cookie(utils.GetCookie(h.cfg.EnableHTTPS, h.cfg.Environment, h.cfg.SessionName, "", -1))
}

// setSessionData stores temporary data in a short-lived cookie (for MFA setup).
func (h *Handler) setSessionData(c *fiber.Ctx, key, value string) {
	c.Cookie(utils.GetCookie(h.cfg.EnableHTTPS, h.cfg.Environment, "temp_"+key, value, 600))
}

func (h *Handler) getSessionData(c *fiber.Ctx, key string) (string, bool) {
	cookie := c.Cookies("temp_" + key)
	if cookie == "" {
		return "", false
	}
	return cookie, true
}

func (h *Handler) clearSessionData(c *fiber.Ctx, key string) {
	c.Cookie(utils.GetCookie(h.cfg.EnableHTTPS, h.cfg.Environment, "temp_"+key, "", -1))
}
