package utils

import (
	"regexp"
	"strings"

	apperrors "github.com/Kosench/shortlink/internal/errors"
)

var customCodePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,30}$`)

// NormalizeURL trims the input and prefixes http:// when no http(s)
// scheme is present. Empty input is a validation error.
func NormalizeURL(rawURL string) (string, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return "", apperrors.NewValidationError("longUrl", "longUrl is required")
	}

	lower := strings.ToLower(trimmed)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return trimmed, nil
	}

	return "http://" + trimmed, nil
}

func ValidateCustomCode(code string) error {
	if !customCodePattern.MatchString(code) {
		return apperrors.NewValidationError("custom", "Invalid custom code: use 3-30 letters, digits, '_' or '-'")
	}
	return nil
}
