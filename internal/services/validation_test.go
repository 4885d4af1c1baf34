package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		problem  string
	}{
		{"strong", "Str0ng!Pass", ""},
		{"too short", "S0!a", "at least 8 characters"},
		{"no upper", "str0ng!pass", "uppercase"},
		{"no lower", "STR0NG!PASS", "lowercase"},
		{"no digit", "Strong!Pass", "number"},
		{"no symbol", "Str0ngPass", "special character"},
		{"common", "Passw0rd", "too common"},
		{"sequential digits", "Xy!z9123q", "sequential"},
		{"sequential letters mixed case", "aBc!9Zq7", "sequential"},
		{"repeated", "Saaa!9Zq", "repeated"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problems := validatePassword(tt.password)
			if tt.problem == "" {
				assert.Empty(t, problems)
				return
			}
			assert.Contains(t, strings.Join(problems, "|"), tt.problem)
		})
	}
}

func TestValidateEmail(t *testing.T) {
	assert.Empty(t, validateEmail("ann@x.com"))
	assert.NotEmpty(t, validateEmail(""))
	assert.NotEmpty(t, validateEmail("ann@x"))
	assert.NotEmpty(t, validateEmail("ann@@x.com"))
	assert.NotEmpty(t, validateEmail("an n@x.com"))
	assert.NotEmpty(t, validateEmail(strings.Repeat("a", 65)+"@x.com"))
	assert.NotEmpty(t, validateEmail("a@"+strings.Repeat("b", 250)+".com"))
}

func TestValidateName(t *testing.T) {
	assert.Empty(t, validateName("Ann"))
	assert.NotEmpty(t, validateName(""))
	assert.Empty(t, validateName(strings.Repeat("n", 120)))
	assert.NotEmpty(t, validateName(strings.Repeat("n", 121)))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ann@x.com", normalizeEmail("  Ann@X.com "))
}

func TestIsAbsoluteURL(t *testing.T) {
	assert.True(t, isAbsoluteURL("https://example.com/a?b=c"))
	assert.False(t, isAbsoluteURL("/relative/path"))
	assert.False(t, isAbsoluteURL("example.com"))
	assert.False(t, isAbsoluteURL("::"))
}
