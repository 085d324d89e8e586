package middleware

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Input validation and sanitization utilities

var orderIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{6,64}$`)

// ValidateSessionID checks that a session id is a UUID.
func ValidateSessionID(id string) error {
	if id == "" {
		return fmt.Errorf("session ID cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid session ID format")
	}
	return nil
}

// ValidateOrderID applies the payment vendor's order id alphabet: 6 to 64
// characters of letters, digits, dash and underscore.
func ValidateOrderID(orderID string) error {
	if !orderIDPattern.MatchString(orderID) {
		return fmt.Errorf("invalid order ID format")
	}
	return nil
}

// ValidatePaymentKey rejects empty, oversized or control-character keys.
func ValidatePaymentKey(key string) error {
	if key == "" {
		return fmt.Errorf("payment key cannot be empty")
	}
	if len(key) > 200 {
		return fmt.Errorf("payment key too long")
	}
	if SanitizeString(key) != key {
		return fmt.Errorf("invalid characters in payment key")
	}
	return nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// LimitBody caps request bodies at n bytes.
func LimitBody(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, n)
			}
			next.ServeHTTP(w, r)
		})
	}
}
