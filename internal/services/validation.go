package services

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	minPasswordLength = 8
	maxNameLength     = 120
	maxEmailLength    = 254
	maxLocalPart      = 64
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var commonPasswords = map[string]struct{}{
	"password": {}, "123456": {}, "12345678": {}, "qwerty": {}, "abc123": {},
	"monkey": {}, "letmein": {}, "trustno1": {}, "dragon": {}, "baseball": {},
	"iloveyou": {}, "master": {}, "sunshine": {}, "ashley": {}, "bailey": {},
	"passw0rd": {}, "shadow": {}, "superman": {}, "qazwsx": {}, "michael": {},
	"football": {},
}

// normalizeEmail trims and lowercases an email address.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validateName returns the problems with a trimmed display name.
func validateName(name string) []string {
	n := utf8.RuneCountInString(name)
	switch {
	case n == 0:
		return []string{"Name is required"}
	case n > maxNameLength:
		return []string{"Name is too long (max 120 characters)"}
	}
	return nil
}

// validateEmail returns the problems with a normalized email address.
func validateEmail(email string) []string {
	if email == "" {
		return []string{"Email is required"}
	}

	var problems []string
	if !emailPattern.MatchString(email) {
		problems = append(problems, "Invalid email format")
	}
	if len(email) > maxEmailLength {
		problems = append(problems, "Email address is too long")
	}
	if local, _, _ := strings.Cut(email, "@"); len(local) > maxLocalPart {
		problems = append(problems, "Email local part is too long")
	}
	if strings.Count(email, "@") != 1 {
		problems = append(problems, "Email must contain exactly one @ symbol")
	}
	if strings.IndexFunc(email, unicode.IsSpace) >= 0 {
		problems = append(problems, "Email cannot contain spaces")
	}
	return problems
}

// validatePassword checks a password against the strength policy.
func validatePassword(password string) []string {
	var problems []string

	if utf8.RuneCountInString(password) < minPasswordLength {
		problems = append(problems, "Password must be at least 8 characters")
	}

	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			symbol = true
		}
	}
	if !upper {
		problems = append(problems, "Password must contain at least one uppercase letter")
	}
	if !lower {
		problems = append(problems, "Password must contain at least one lowercase letter")
	}
	if !digit {
		problems = append(problems, "Password must contain at least one number")
	}
	if !symbol {
		problems = append(problems, "Password must contain at least one special character (!@#$%^&*)")
	}
	if _, common := commonPasswords[strings.ToLower(password)]; common {
		problems = append(problems, "This password is too common. Please choose a stronger password")
	}
	if hasSequentialRun(password) {
		problems = append(problems, "Password should not contain sequential characters")
	}
	if hasRepeatedRun(password) {
		problems = append(problems, "Password should not contain repeated characters")
	}
	return problems
}

// hasSequentialRun reports an ascending run of three digits or three letters,
// such as "123" or "aBc".
func hasSequentialRun(s string) bool {
	runes := []rune(strings.ToLower(s))
	for i := 0; i+2 < len(runes); i++ {
		a, b, c := runes[i], runes[i+1], runes[i+2]
		if b != a+1 || c != b+1 {
			continue
		}
		if (a >= '0' && c <= '9') || (a >= 'a' && c <= 'z') {
			return true
		}
	}
	return false
}

// hasRepeatedRun reports three identical characters in a row.
func hasRepeatedRun(s string) bool {
	runes := []rune(s)
	for i := 0; i+2 < len(runes); i++ {
		if runes[i] == runes[i+1] && runes[i+1] == runes[i+2] {
			return true
		}
	}
	return false
}

// isAbsoluteURL reports whether raw has a scheme and a host.
func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}
