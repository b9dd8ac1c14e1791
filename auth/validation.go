package auth

import (
	"fmt"
	"net/mail"
	"strings"
)

const (
	maxEmailLength   = 254
	maxNameLength    = 100
	maxStoreIDLength = 64
)

// LoginForm is the identity a seller asserts on the login page
type LoginForm struct {
	Email    string
	Name     string
	StoreID  string
	Remember bool
}

// Validator provides centralized validation of client-asserted identities.
// No credentials are checked: the session is recorded as asserted.
type Validator struct{}

// NewValidator creates a new Validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// Normalize trims whitespace and lower-cases the email
func (v *Validator) Normalize(form LoginForm) LoginForm {
	form.Email = strings.ToLower(strings.TrimSpace(form.Email))
	form.Name = strings.TrimSpace(form.Name)
	form.StoreID = strings.TrimSpace(form.StoreID)
	return form
}

// ValidateLogin checks a normalized login form
func (v *Validator) ValidateLogin(form LoginForm) error {
	if err := v.ValidateEmail(form.Email); err != nil {
		return err
	}
	if len(form.Name) > maxNameLength {
		return fmt.Errorf("name must be at most %d characters", maxNameLength)
	}
	if len(form.StoreID) > maxStoreIDLength {
		return fmt.Errorf("store id must be at most %d characters", maxStoreIDLength)
	}
	if strings.ContainsAny(form.StoreID, " \t\r\n:") {
		return fmt.Errorf("store id must not contain whitespace or ':'")
	}
	return nil
}

// ValidateEmail requires a bare address such as "seller@shop.com"
func (v *Validator) ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if len(email) > maxEmailLength {
		return fmt.Errorf("email must be at most %d characters", maxEmailLength)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("invalid email address: %q", email)
	}
	return nil
}
