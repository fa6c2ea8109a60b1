package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/chemworks/diffusio/pkg/auth"
	"github.com/chemworks/diffusio/pkg/http/requests"
	"github.com/chemworks/diffusio/pkg/utils"
)

func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
	})
}

func (h *Handler) HomePage(c *fiber.Ctx) error {
	return h.render(c, utils.HomeTemplate, fiber.Map{
		"Title": "Home",
	})
}

func (h *Handler) LoginPage(c *fiber.Ctx) error {
	return h.render(c, utils.LoginTemplate, fiber.Map{
		"Title": "Login",
	})
}

func (h *Handler) PostLogin(c *fiber.Ctx) error {
	var req requests.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return h.renderErrorPage(c, http.StatusBadRequest, "Invalid Form Data",
			"The login form data could not be processed.",
			"Please check your input and try again.",
			fmt.Sprintf("ParseForm error: %v", err), utils.LoginURI)
	}
	email := utils.SanitizeInput(strings.TrimSpace(req.Email))
	mfaCode := strings.TrimSpace(req.MFACode)

	user, err := h.auth.Login(email, req.Password, mfaCode, time.Now())
	if err != nil {
		var locked *auth.LockedError
		switch {
		case errors.Is(err, auth.ErrValidation):
			return flash.WithError(c, fiber.Map{
				"error": "Please enter both email and password.",
			}).Redirect(utils.LoginURI, fiber.StatusSeeOther)
		case errors.Is(err, auth.ErrNoSuchAccount):
			return flash.WithError(c, fiber.Map{
				"error": "No account found with that email.",
			}).Redirect(utils.LoginURI, fiber.StatusSeeOther)
		case errors.As(err, &locked):
			if locked.Fresh {
				return flash.WithError(c, fiber.Map{
					"error": "Too many failed attempts. Your account is locked for 5 minutes.",
				}).Redirect(utils.LoginURI, fiber.StatusSeeOther)
			}
			return flash.WithWarn(c, fiber.Map{
				"warning": fmt.Sprintf("Too many failed attempts. Try again in %d minute(s).", locked.RemainingMinutes),
			}).Redirect(utils.LoginURI, fiber.StatusSeeOther)
		case errors.Is(err, auth.ErrMFACodeRequired):
			return h.render(c, utils.LoginTemplate, fiber.Map{
				"Title":       "Login",
				"Email":       email,
				"MFARequired": true,
			})
		case errors.Is(err, auth.ErrMFACodeInvalid):
			return h.render(c, utils.LoginTemplate, fiber.Map{
				"Title":       "Login",
				"Email":       email,
				"MFARequired": true,
				"error":       "Invalid authentication code. Please try again.",
			})
		case errors.Is(err, auth.ErrInvalidCredentials):
			return flash.WithError(c, fiber.Map{
				"error": "Incorrect password. Please try again.",
			}).Redirect(utils.LoginURI, fiber.StatusSeeOther)
		default:
			return h.renderErrorPage(c, http.StatusInternalServerError, "Login Error",
				"An internal error occurred during login.",
				"Please try again later.",
				fmt.Sprintf("Login error: %v", err), utils.LoginURI)
		}
	}

	if err := h.issueSession(c, user.ID); err != nil {
		return h.renderErrorPage(c, http.StatusInternalServerError, "Login Token Error",
			"Failed to create authentication token.",
			"There was an internal error during login. Please try again.",
			fmt.Sprintf("Token encryption failed: %v", err), utils.LoginURI)
	}
	return flash.WithSuccess(c, fiber.Map{
		"success": "Logged in successfully!",
	}).Redirect(utils.LandingURI, fiber.StatusSeeOther)
}

func (h *Handler) SignUpPage(c *fiber.Ctx) error {
	return h.render(c, utils.SignUpTemplate, fiber.Map{
		"Title": "Sign Up",
	})
}

func (h *Handler) PostSignUp(c *fiber.Ctx) error {
	var req requests.SignUpRequest
	if err := c.BodyParser(&req); err != nil {
		return h.renderErrorPage(c, http.StatusBadRequest, "Invalid Form Data",
			"The form data you submitted could not be processed.",
			"Please check that all required fields are filled correctly and try again.",
			fmt.Sprintf("ParseForm error: %v", err), utils.SignUpURI)
	}
	email := utils.SanitizeInput(strings.TrimSpace(req.Email))
	username := utils.SanitizeInput(strings.TrimSpace(req.Username))

	user, err := h.auth.Register(email, username, req.Password, req.ConfirmPassword)
	if err != nil {
		msg := ""
		switch {
		case errors.Is(err, auth.ErrValidation):
			msg = "Please fill in all required fields with valid values."
		case errors.Is(err, auth.ErrPasswordMismatch):
			msg = "Passwords do not match."
		case errors.Is(err, auth.ErrDuplicateEmail):
			msg = "Email already exists."
		case errors.Is(err, auth.ErrDuplicateUsername):
			msg = "Username already exists."
		default:
			msg = "An error occurred while creating the account."
		}
		return flash.WithError(c, fiber.Map{
			"error": msg,
		}).Redirect(utils.SignUpURI, fiber.StatusSeeOther)
	}

	if err := h.issueSession(c, user.ID); err != nil {
		return h.renderErrorPage(c, http.StatusInternalServerError, "Login Token Error",
			"Failed to create authentication token.",
			"Your account was created but automatic login failed. Please log in manually.",
			fmt.Sprintf("Token encryption failed: %v", err), utils.LoginURI)
	}
	return flash.WithSuccess(c, fiber.Map{
		"success": "Account created successfully!",
	}).Redirect(utils.LandingURI, fiber.StatusSeeOther)
}

func (h *Handler) Logout(c *fiber.Ctx) error {
	h.clearSession(c)
	c.Set("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Set("Pragma", "no-cache")
	c.Set("Expires", "0")
	return flash.WithInfo(c, fiber.Map{
		"info": "You have been logged out.",
	}).Redirect(utils.LoginURI, fiber.StatusSeeOther)
}

func (h *Handler) NotFoundPage(c *fiber.Ctx) error {
	c.Set("Content-Type", "text/html; charset=utf-8")
	return c.Status(fiber.StatusNotFound).Render(utils.NotFoundTemplate, fiber.Map{
		"Title": "Page Not Found",
		"Path":  c.Path(),
	})
}
