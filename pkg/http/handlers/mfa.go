package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"
	"golang.org/x/crypto/bcrypt"

	"github.com/chemworks/diffusio/pkg/auth"
	"github.com/chemworks/diffusio/pkg/http/requests"
	"github.com/chemworks/diffusio/pkg/models"
	"github.com/chemworks/diffusio/pkg/utils"
)

func (h *Handler) MFASetupPage(c *fiber.Ctx) error {
	user, _ := c.Locals("user").(models.User)
	if user.MFAEnabled {
		return h.renderErrorPage(c, http.StatusBadRequest, "MFA Already Enabled",
			"Multi-Factor Authentication is already enabled for your account.",
			"You can disable MFA first if you want to set it up again.", "", utils.LandingURI)
	}

	setup, err := h.auth.BeginMFASetup(user)
	if err != nil {
		return h.renderErrorPage(c, http.StatusInternalServerError, "MFA Setup Error",
			"Failed to generate MFA credentials.",
			"Please try again later.", fmt.Sprintf("MFA generation error: %v", err), utils.LandingURI)
	}

	// Held in short-lived cookies until the first code confirms the setup.
	h.setSessionData(c, "mfa_temp_secret", setup.Secret)
	h.setSessionData(c, "mfa_temp_backup_codes", strings.Join(setup.BackupCodes, ","))
	return h.render(c, utils.MFASetupTemplate, fiber.Map{
		"Title":       "MFA Setup",
		"Secret":      setup.Secret,
		"QRCode":      setup.QRCodePNG,
		"BackupCodes": setup.BackupCodes,
	})
}

func (h *Handler) PostMFASetup(c *fiber.Ctx) error {
	user, _ := c.Locals("user").(models.User)
	var req requests.MFASetupRequest
	if err := c.BodyParser(&req); err != nil || req.Code == "" {
		return h.renderErrorPage(c, http.StatusBadRequest, "Verification Code Required",
			"Please enter the verification code from your authenticator app.",
			"", "", utils.MFASetupURI)
	}

	tempSecret, exists := h.getSessionData(c, "mfa_temp_secret")
	if !exists || tempSecret == "" {
		return h.renderErrorPage(c, http.StatusBadRequest, "Setup Session Expired",
			"MFA setup session has expired.",
			"Please start the setup process again.", "", utils.MFASetupURI)
	}
	tempBackupCodesStr, _ := h.getSessionData(c, "mfa_temp_backup_codes")
	backupCodes := strings.Split(tempBackupCodesStr, ",")

	err := h.auth.ConfirmMFASetup(user.ID, tempSecret, strings.TrimSpace(req.Code), backupCodes)
	if errors.Is(err, auth.ErrMFACodeInvalid) {
		return h.renderErrorPage(c, http.StatusBadRequest, "Invalid Verification Code",
			"The verification code is incorrect.",
			"Please check your authenticator app and try again.", "", utils.MFASetupURI)
	}
	if err != nil {
		return h.renderErrorPage(c, http.StatusInternalServerError, "Database Error",
			"Failed to save MFA settings.",
			"Please try again later.", fmt.Sprintf("MFA save error: %v", err), utils.LandingURI)
	}

	h.clearSessionData(c, "mfa_temp_secret")
	h.clearSessionData(c, "mfa_temp_backup_codes")
	return flash.WithSuccess(c, fiber.Map{
		"success": "Multi-Factor Authentication is now enabled for your account.",
	}).Redirect(utils.LandingURI, fiber.StatusSeeOther)
}

func (h *Handler) PostMFADisable(c *fiber.Ctx) error {
	user, _ := c.Locals("user").(models.User)
	var req requests.MFADisableRequest
	if err := c.BodyParser(&req); err != nil || req.Password == "" {
		return h.renderErrorPage(c, http.StatusBadRequest, "Password Required",
			"Please enter your current password to disable MFA.",
			"", "", utils.LandingURI)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return h.renderErrorPage(c, http.StatusUnauthorized, "Invalid Password",
			"The password you entered is incorrect.",
			"Please try again.", "", utils.LandingURI)
	}

	if err := h.auth.DisableMFA(user.ID); err != nil {
		return h.renderErrorPage(c, http.StatusInternalServerError, "MFA Disable Error",
			"Failed to disable MFA for your account.",
			"Please try again later.", fmt.Sprintf("MFA disable error: %v", err), utils.LandingURI)
	}
	return flash.WithInfo(c, fiber.Map{
		"info": "Multi-Factor Authentication has been disabled.",
	}).Redirect(utils.LandingURI, fiber.StatusSeeOther)
}
