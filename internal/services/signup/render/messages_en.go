package render

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.English

	message.SetString(lang, "signup.success", defaultSuccess)
	message.SetString(lang, "signup.field.companyName", "Company name")
	message.SetString(lang, "signup.field.fullName", "Full name")
	message.SetString(lang, "signup.field.email", "Email")
	message.SetString(lang, "signup.field.password", "Password")
	message.SetString(lang, "signup.field.confirmPassword", "Confirm password")
	message.SetString(lang, "signup.field.planName", "Plan")
	message.SetString(lang, "signup.error.required", "%s is required.")
	message.SetString(lang, "signup.error.plan_required", "Please choose a plan.")
	message.SetString(lang, "signup.error.password_mismatch", "Passwords do not match.")
	message.SetString(lang, "signup.error.invalid_email", "Enter a valid email address.")
	message.SetString(lang, "signup.error.server", "Signup failed: %s")
	message.SetString(lang, "signup.error.transport", defaultTransport)
}
