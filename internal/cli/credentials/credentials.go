// Package credentials validates login and signup input before anything is sent to the API.
package credentials

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// MinPasswordLength is the shortest password accepted at signup
const MinPasswordLength = 8

// User-facing validation messages
const (
	MsgMissingFields    = "Please fill in all fields"
	MsgInvalidEmail     = "Please enter a valid email address"
	MsgPasswordsDiffer  = "Passwords do not match"
	MsgPasswordTooShort = "Password must be at least 8 characters long"
)

// ValidationError is a client-side rejection of the submitted credentials
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidationError reports whether err is a *ValidationError
func IsValidationError(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}

// Login is the input of the login form
type Login struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// Signup is the input of the signup form
type Signup struct {
	Email           string `validate:"required,email"`
	Password        string `validate:"required,min=8"`
	ConfirmPassword string `validate:"required,eqfield=Password"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks a login form
func (l Login) Validate() error {
	l.Email = strings.TrimSpace(l.Email)
	return translate(validate.Struct(l))
}

// Validate checks a signup form
func (s Signup) Validate() error {
	s.Email = strings.TrimSpace(s.Email)
	return translate(validate.Struct(s))
}

// tagMessages lists failing rules in the order they are reported
var tagMessages = []struct {
	tag     string
	message string
}{
	{"required", MsgMissingFields},
	{"email", MsgInvalidEmail},
	{"eqfield", MsgPasswordsDiffer},
	{"min", MsgPasswordTooShort},
}

// translate maps the highest-priority failing rule to its user-facing message
func translate(err error) error {
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	for _, tm := range tagMessages {
		for _, fe := range fieldErrs {
			if fe.Tag() == tm.tag {
				return &ValidationError{Message: tm.message}
			}
		}
	}
	return &ValidationError{Message: fieldErrs[0].Error()}
}

// PasswordStrength scores a password from 0 to 4: one point each for
// length >= 8, an uppercase letter, a digit and a symbol.
func PasswordStrength(password string) int {
	var hasUpper, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case r > unicode.MaxASCII:
			hasSymbol = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case !unicode.IsLetter(r):
			hasSymbol = true
		}
	}

	strength := 0
	if utf8.RuneCountInString(password) >= MinPasswordLength {
		strength++
	}
	for _, ok := range []bool{hasUpper, hasDigit, hasSymbol} {
		if ok {
			strength++
		}
	}
	return strength
}

// StrengthLabel names a PasswordStrength score
func StrengthLabel(strength int) string {
	switch {
	case strength <= 1:
		return "Weak"
	case strength == 2:
		return "Fair"
	case strength == 3:
		return "Good"
	default:
		return "Strong"
	}
}
