// Package domain validates the business signup form before it is submitted
// to the hosted backend function.
package domain

import (
	"fmt"
	"net/mail"
	"strings"
)

// Field names reported by validation failures.
const (
	FieldCompanyName     = "companyName"
	FieldFullName        = "fullName"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirmPassword"
	FieldPlanName        = "planName"
)

// Validation codes.
const (
	CodeRequired         = "required"
	CodePlanRequired     = "plan_required"
	CodePasswordMismatch = "password_mismatch"
	CodeInvalidEmail     = "invalid_email"
)

// Form is one signup attempt as entered by the user.
type Form struct {
	CompanyName     string
	FullName        string
	Email           string
	Password        string
	ConfirmPassword string
	PlanName        string
}

// ValidationError describes the first field that blocks submission.
type ValidationError struct {
	Field string
	Code  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("signup %s: %s", e.Field, e.Code)
}

// Payload is the JSON body the backend function expects.
type Payload struct {
	CompanyName string `json:"companyName"`
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	PlanName    string `json:"planName"`
}

// Normalized trims whitespace from every field except the passwords.
func (f Form) Normalized() Form {
	f.CompanyName = strings.TrimSpace(f.CompanyName)
	f.FullName = strings.TrimSpace(f.FullName)
	f.Email = strings.TrimSpace(f.Email)
	f.PlanName = strings.TrimSpace(f.PlanName)
	return f
}

// Validate returns a *ValidationError for the first problem found, or nil.
// A plan must be chosen before anything else is checked.
func (f Form) Validate() error {
	f = f.Normalized()
	if f.PlanName == "" {
		return &ValidationError{Field: FieldPlanName, Code: CodePlanRequired}
	}
	required := []struct {
		field string
		value string
	}{
		{FieldCompanyName, f.CompanyName},
		{FieldFullName, f.FullName},
		{FieldEmail, f.Email},
		{FieldPassword, f.Password},
	}
	for _, r := range required {
		if r.value == "" {
			return &ValidationError{Field: r.field, Code: CodeRequired}
		}
	}
	if addr, err := mail.ParseAddress(f.Email); err != nil || addr.Address != f.Email {
		return &ValidationError{Field: FieldEmail, Code: CodeInvalidEmail}
	}
	if f.Password != f.ConfirmPassword {
		return &ValidationError{Field: FieldConfirmPassword, Code: CodePasswordMismatch}
	}
	return nil
}

// Payload returns the normalized request body. The confirmation field is
// never sent.
func (f Form) Payload() Payload {
	f = f.Normalized()
	return Payload{
		CompanyName: f.CompanyName,
		FullName:    f.FullName,
		Email:       f.Email,
		Password:    f.Password,
		PlanName:    f.PlanName,
	}
}
