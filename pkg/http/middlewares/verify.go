package middlewares

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/chemworks/diffusio/pkg/config"
	"github.com/chemworks/diffusio/pkg/models"
	"github.com/chemworks/diffusio/pkg/token"
	"github.com/chemworks/diffusio/pkg/utils"
)

// UserFinder is the user lookup the session check needs.
type UserFinder interface {
	FindByID(userID int64) (models.User, error)
}

// Session authenticates requests from the session cookie and exposes the
// resolved user via c.Locals("user").
type Session struct {
	Signer *token.Signer
	Store  UserFinder
	Cfg    *config.Config
}

func NewSession(signer *token.Signer, store UserFinder, cfg *config.Config) *Session {
	return &Session{Signer: signer, Store: store, Cfg: cfg}
}

func (m *Session) Verify(c *fiber.Ctx) error {
	tokenStr := c.Cookies(m.Cfg.SessionName)
	if tokenStr == "" {
		auth := c.Get("Authorization")
		if len(auth) > 7 && auth[:7] == "Bearer " {
			tokenStr = auth[7:]
		} else {
			tokenStr = auth
		}
	}
	if tokenStr == "" {
		return m.sendError(c, "Please log in to access this page.")
	}

	claims, err := m.Signer.Verify(tokenStr, token.PurposeSession)
	if err != nil {
		return m.sendError(c, "Your session has expired. Please log in again.")
	}
	user, err := m.Store.FindByID(claims.UserID)
	if err != nil {
		return m.sendError(c, "Your session is no longer valid. Please log in again.")
	}

	c.Locals("user", user)
	c.Set("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Set("Pragma", "no-cache")
	c.Set("Expires", "0")
	return c.Next()
}

func (m *Session) sendError(c *fiber.Ctx, message string) error {
	contentType := c.Get("Content-Type")
	if contentType == fiber.MIMEApplicationJSON || contentType == fiber.MIMEApplicationJSONCharsetUTF8 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"error":   message,
			"status":  fiber.StatusUnauthorized,
		})
	}
	return flash.WithError(c, fiber.Map{
		"error": message,
	}).Redirect(utils.LoginURI, fiber.StatusSeeOther)
}
