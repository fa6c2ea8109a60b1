package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/chemworks/diffusio/pkg/auth"
	"github.com/chemworks/diffusio/pkg/http/requests"
	"github.com/chemworks/diffusio/pkg/utils"
)

func (h *Handler) ResetRequestPage(c *fiber.Ctx) error {
	return h.render(c, utils.ResetRequestTemplate, fiber.Map{
		"Title": "Reset Password",
	})
}

// PostResetRequest accepts an email and always reports the same outcome so
// the page cannot be used to probe which addresses hold accounts.
func (h *Handler) PostResetRequest(c *fiber.Ctx) error {
	var req requests.ResetRequest
	if err := c.BodyParser(&req); err != nil {
		return h.renderErrorPage(c, http.StatusBadRequest, "Invalid Form Data",
			"The form data could not be processed.",
			"Please check your input and try again.",
			fmt.Sprintf("ParseForm error: %v", err), utils.ResetRequestURI)
	}
	email := utils.SanitizeInput(strings.TrimSpace(req.Email))
	if email == "" || !utils.IsEmail(email) {
		return flash.WithError(c, fiber.Map{
			"error": "Please enter a valid email address.",
		}).Redirect(utils.ResetRequestURI, fiber.StatusSeeOther)
	}

	if err := h.auth.RequestPasswordReset(email); err != nil {
		return h.renderErrorPage(c, http.StatusInternalServerError, "Reset Request Error",
			"An internal error occurred while processing your request.",
			"Please try again later.",
			fmt.Sprintf("Reset request error: %v", err), utils.ResetRequestURI)
	}
	return flash.WithInfo(c, fiber.Map{
		"info": "An email has been sent with instructions to reset your password.",
	}).Redirect(utils.LoginURI, fiber.StatusSeeOther)
}

func (h *Handler) ResetTokenPage(c *fiber.Ctx) error {
	tokenStr := c.Params("token")
	if _, err := h.auth.VerifyResetToken(tokenStr); err != nil {
		return flash.WithError(c, fiber.Map{
			"error": "That is an invalid or expired token.",
		}).Redirect(utils.ResetRequestURI, fiber.StatusSeeOther)
	}
	return h.render(c, utils.ResetTokenTemplate, fiber.Map{
		"Title": "Reset Password",
		"Token": tokenStr,
	})
}

func (h *Handler) PostResetToken(c *fiber.Ctx) error {
	tokenStr := c.Params("token")
	var req requests.ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return h.renderErrorPage(c, http.StatusBadRequest, "Invalid Form Data",
			"The form data could not be processed.",
			"Please check your input and try again.",
			fmt.Sprintf("ParseForm error: %v", err), utils.ResetRequestURI)
	}

	err := h.auth.CompletePasswordReset(tokenStr, req.Password, req.ConfirmPassword)
	switch {
	case err == nil:
		return flash.WithSuccess(c, fiber.Map{
			"success": "Your password has been updated! You can now log in.",
		}).Redirect(utils.LoginURI, fiber.StatusSeeOther)
	case errors.Is(err, auth.ErrPasswordMismatch):
		return flash.WithError(c, fiber.Map{
			"error": "Passwords do not match.",
		}).Redirect("/reset-password/"+tokenStr, fiber.StatusSeeOther)
	case errors.Is(err, auth.ErrValidation):
		return flash.WithError(c, fiber.Map{
			"error": "Please fill in both password fields.",
		}).Redirect("/reset-password/"+tokenStr, fiber.StatusSeeOther)
	case errors.Is(err, auth.ErrInvalidOrExpiredToken):
		return flash.WithError(c, fiber.Map{
			"error": "That is an invalid or expired token.",
		}).Redirect(utils.ResetRequestURI, fiber.StatusSeeOther)
	default:
		return h.renderErrorPage(c, http.StatusInternalServerError, "Password Reset Error",
			"An internal error occurred while updating your password.",
			"Please try again later.",
			fmt.Sprintf("Password reset error: %v", err), utils.ResetRequestURI)
	}
}
