package templates

// VerifyEmailData holds variables for the account.verify_email scenario.
type VerifyEmailData struct {
	Code         string
	SupportEmail string
}

// VerifyEmail is the typed handle for the account.verify_email template.
var VerifyEmail = Expect[VerifyEmailData]("account.verify_email")

// PasswordResetData holds variables for the account.password_reset scenario.
type PasswordResetData struct {
	Username string
	ResetURL string
}

// PasswordReset is the typed handle for the account.password_reset template.
var PasswordReset = Expect[PasswordResetData]("account.password_reset")
