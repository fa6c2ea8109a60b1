package requests

type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
	MFACode  string `json:"mfa_code" form:"mfa_code"`
}

type SignUpRequest struct {
	Email           string `json:"email" form:"email"`
	Username        string `json:"username" form:"username"`
	Password        string `json:"password1" form:"password1"`
	ConfirmPassword string `json:"password2" form:"password2"`
}

type ResetRequest struct {
	Email string `json:"email" form:"email"`
}

type ResetPasswordRequest struct {
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirmPassword" form:"confirmPassword"`
}

type MFASetupRequest struct {
	Code string `json:"code" form:"code"`
}

type MFADisableRequest struct {
	Password string `json:"password" form:"password"`
}
