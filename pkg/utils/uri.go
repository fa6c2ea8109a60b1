package utils

var (
	LandingURI      = "/"
	HealthURI       = "/health"
	LoginURI        = "/login"
	SignUpURI       = "/sign-up"
	LogoutURI       = "/logout"
	ResetRequestURI = "/reset-password"
	ResetTokenURI   = "/reset-password/:token"
	CalculURI       = "/calcul"
	ResultURI       = "/result"
	MFASetupURI     = "/mfa/setup"
	MFADisableURI   = "/mfa/disable"
)

var (
	HomeTemplate         = "home"
	LoginTemplate        = "login"
	SignUpTemplate       = "sign_up"
	ResetRequestTemplate = "reset_request"
	ResetTokenTemplate   = "reset_token"
	CalculTemplate       = "calcul"
	ResultTemplate       = "result"
	MFASetupTemplate     = "mfa_setup"
	ErrorTemplate        = "error"
	NotFoundTemplate     = "404"
)
