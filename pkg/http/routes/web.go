package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/chemworks/diffusio/pkg/http/handlers"
	"github.com/chemworks/diffusio/pkg/http/middlewares"
	"github.com/chemworks/diffusio/pkg/utils"
)

// Setup registers every route of the application. Routes behind the session
// middleware require a valid session cookie.
func Setup(app *fiber.App, h *handlers.Handler, session *middlewares.Session) {
	app.Get(utils.HealthURI, h.HealthCheck)
	app.Get(utils.LoginURI, h.LoginPage)
	app.Post(utils.LoginURI, h.PostLogin)
	app.Get(utils.SignUpURI, h.SignUpPage)
	app.Post(utils.SignUpURI, h.PostSignUp)
	app.Get(utils.ResetRequestURI, h.ResetRequestPage)
	app.Post(utils.ResetRequestURI, h.PostResetRequest)
	app.Get(utils.ResetTokenURI, h.ResetTokenPage)
	app.Post(utils.ResetTokenURI, h.PostResetToken)

	app.Get(utils.LandingURI, session.Verify, h.HomePage)
	app.Get(utils.LogoutURI, session.Verify, h.Logout)
	app.Get(utils.CalculURI, session.Verify, h.CalculPage)
	app.Post(utils.CalculURI, session.Verify, h.PostCalcul)
	app.Get(utils.ResultURI, session.Verify, h.ResultPage)
	app.Get(utils.MFASetupURI, session.Verify, h.MFASetupPage)
	app.Post(utils.MFASetupURI, session.Verify, h.PostMFASetup)
	app.Post(utils.MFADisableURI, session.Verify, h.PostMFADisable)

	app.Use(h.NotFoundPage)
}
