// Package validator adds the password policy tag used on user admin requests.
package validator

import (
	"unicode"

	"wrapcrm_backend/platform/validator"

	playground "github.com/go-playground/validator/v10"
)

// PasswordPolicy describes the password requirements for API error messages.
const PasswordPolicy = "Password must be at least 8 characters and include an uppercase letter, a lowercase letter and a number"

// RegisterValidation adds the "strongpassword" tag.
func RegisterValidation(v *validator.Validator) error {
	return v.RegisterValidation("strongpassword", func(fl playground.FieldLevel) bool {
		return IsStrongPassword(fl.Field().String())
	})
}

// IsStrongPassword requires at least 8 characters with upper case, lower
// case and a digit.
func IsStrongPassword(password string) bool {
	if len(password) < 8 {
		return false
	}

	var hasUpper, hasLower, hasDigit bool
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasDigit = true
		}
	}
	return hasUpper && hasLower && hasDigit
}
