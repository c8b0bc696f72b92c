package pkg

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxMessageLength bounds a customer message in characters
const MaxMessageLength = 10000

// ValidateMessage checks a customer message before any LLM call
func ValidateMessage(message string) error {
	if strings.TrimSpace(message) == "" {
		return ErrNoMessage
	}
	if !utf8.ValidString(message) {
		return fmt.Errorf("%w: message contains invalid UTF-8 characters", ErrInvalidEncoding)
	}
	if n := utf8.RuneCountInString(message); n > MaxMessageLength {
		return fmt.Errorf("%w: %d characters (max: %d)", ErrMessageTooLong, n, MaxMessageLength)
	}
	return nil
}
