package auth

import (
	"strings"
	"unicode"
)

const MinPasswordLength = 8

const (
	PasswordTooShort     = "must be at least 8 characters"
	PasswordNoUpper      = "must include an uppercase letter"
	PasswordNoLower      = "must include a lowercase letter"
	PasswordNoDigit      = "must include a number"
	PasswordNoSymbol     = "must include a symbol"
	passwordIssuesJoiner = "; "
)

// PasswordPolicyError lists every complexity rule a candidate password broke.
type PasswordPolicyError struct {
	Issues []string
}

func (e *PasswordPolicyError) Error() string {
	return "password " + strings.Join(e.Issues, passwordIssuesJoiner)
}

// ValidatePassword checks length, letter case, digit and symbol rules.
func ValidatePassword(password string) error {
	var upper, lower, digit, symbol bool
	length := 0
	for _, r := range password {
		length++
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}

	var issues []string
	if length < MinPasswordLength {
		issues = append(issues, PasswordTooShort)
	}
	if !upper {
		issues = append(issues, PasswordNoUpper)
	}
	if !lower {
		issues = append(issues, PasswordNoLower)
	}
	if !digit {
		issues = append(issues, PasswordNoDigit)
	}
	if !symbol {
		issues = append(issues, PasswordNoSymbol)
	}
	if len(issues) == 0 {
		return nil
	}
	return &PasswordPolicyError{Issues: issues}
}
