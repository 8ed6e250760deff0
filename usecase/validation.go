// Package usecase holds helpers shared by the feature use cases.
package usecase

import (
	"strings"

	"github.com/scholarhub/client/domain"
)

// OTPLength is the number of digits in a verification code.
const OTPLength = 6

const specialChars = `!@#$%^&*(),.?":{}|<>`

// SanitizeOTP strips non-digits and truncates to the code length, matching
// the constrained input field behavior.
func SanitizeOTP(input string) string {
	var b strings.Builder
	for _, r := range input {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			if b.Len() == OTPLength {
				break
			}
		}
	}
	return b.String()
}

// ValidateOTP requires a full six-digit code.
func ValidateOTP(code string) error {
	if len(SanitizeOTP(code)) != OTPLength || len(code) != OTPLength {
		return domain.NewError(domain.ErrCodeInvalid, "Please enter a valid 6-digit verification code")
	}
	return nil
}

// ValidatePassword checks length, and with strong also requires letters plus
// at least one digit or special character.
func ValidatePassword(password string, strong bool) error {
	if len(password) < 8 {
		return domain.NewError(domain.ErrCodeInvalid, "Password must be at least 8 characters long")
	}
	if !strong {
		return nil
	}
	var hasLetter, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			hasLetter = true
		case r >= '0' && r <= '9':
			hasDigit = true
		case strings.ContainsRune(specialChars, r):
			hasSpecial = true
		}
	}
	if !hasLetter || !(hasDigit || hasSpecial) {
		return domain.NewError(domain.ErrCodeInvalid, "Password must include letters and at least numbers or special characters")
	}
	return nil
}

// ValidatePasswordPair enforces the confirmation match before any network
// call is made.
func ValidatePasswordPair(password, confirm string, strong bool) error {
	if password == "" || confirm == "" {
		return domain.NewError(domain.ErrCodeInvalid, "Please fill in all password fields")
	}
	if password != confirm {
		return domain.NewError(domain.ErrCodeInvalid, "Passwords do not match")
	}
	return ValidatePassword(password, strong)
}

// ValidateEmail performs the same shallow shape check the forms do: no
// spaces, a single @, and a dot in the domain part.
func ValidateEmail(email string) error {
	if email == "" {
		return domain.NewError(domain.ErrCodeInvalid, "Please enter your email address")
	}
	at := strings.Index(email, "@")
	if strings.ContainsAny(email, " \t") ||
		at <= 0 ||
		strings.Count(email, "@") != 1 ||
		!strings.Contains(email[at+1:], ".") ||
		strings.HasSuffix(email, ".") {
		return domain.NewError(domain.ErrCodeInvalid, "Please enter a valid email address")
	}
	return nil
}

// SplitFullName splits a display name into first and last parts at the first
// space. A missing last name becomes the empty string.
func SplitFullName(fullName string) (first, last string) {
	trimmed := strings.TrimSpace(fullName)
	if trimmed == "" {
		return "", ""
	}
	parts := strings.SplitN(trimmed, " ", 2)
	first = parts[0]
	if len(parts) > 1 {
		last = strings.TrimSpace(parts[1])
	}
	return first, last
}
