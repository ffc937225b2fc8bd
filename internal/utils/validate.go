package utils

import (
	"regexp"
	"strings"
	"unicode"
)

// Validation patterns shared across registration, profile updates and
// password reset.
var (
	emailPattern  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	mobilePattern = regexp.MustCompile(`^[0-9]{10,15}$`)
)

// FieldError names one violated input field.  Validation reports every
// violation, not just the first.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool { return emailPattern.MatchString(s) }

// ValidMobile reports whether s is a 10-15 digit mobile number.
func ValidMobile(s string) bool { return mobilePattern.MatchString(s) }

// ValidGender reports whether s is one of the accepted gender values.
func ValidGender(s string) bool {
	switch s {
	case "male", "female", "other":
		return true
	}
	return false
}

// ValidatePassword checks the password policy: at least 8 characters
// with one uppercase, one lowercase, one digit and one symbol.  It
// returns an empty string when the password passes.
func ValidatePassword(pw string) string {
	if len(pw) < 8 {
		return "Password must be at least 8 characters"
	}
	var upper, lower, digit, symbol bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}
	if !upper || !lower || !digit || !symbol {
		return "Password must contain at least one uppercase letter, one lowercase letter, one number, and one special character"
	}
	return ""
}

// RegistrationInput is the field set checked by ValidateRegistration.
type RegistrationInput struct {
	Name     string
	Email    string
	Mobile   string
	Password string
	Gender   string
	Street   string
	City     string
	State    string
	Country  string
}

// ValidateRegistration returns one FieldError per violated field, or
// nil when the input is acceptable.
func ValidateRegistration(in RegistrationInput) []FieldError {
	var errs []FieldError
	if strings.TrimSpace(in.Name) == "" {
		errs = append(errs, FieldError{"name", "Name is required"})
	}
	if !ValidEmail(in.Email) {
		errs = append(errs, FieldError{"email", "Please provide a valid email"})
	}
	if strings.TrimSpace(in.Mobile) == "" {
		errs = append(errs, FieldError{"mobile", "Mobile number is required"})
	} else if !ValidMobile(in.Mobile) {
		errs = append(errs, FieldError{"mobile", "Mobile number must be 10-15 digits"})
	}
	if msg := ValidatePassword(in.Password); msg != "" {
		errs = append(errs, FieldError{"password", msg})
	}
	if !ValidGender(in.Gender) {
		errs = append(errs, FieldError{"gender", "Please select a valid gender"})
	}
	if strings.TrimSpace(in.Street) == "" {
		errs = append(errs, FieldError{"address.street", "Street address is required"})
	}
	if strings.TrimSpace(in.City) == "" {
		errs = append(errs, FieldError{"address.city", "City is required"})
	}
	if strings.TrimSpace(in.State) == "" {
		errs = append(errs, FieldError{"address.state", "State is required"})
	}
	if strings.TrimSpace(in.Country) == "" {
		errs = append(errs, FieldError{"address.country", "Country is required"})
	}
	return errs
}
