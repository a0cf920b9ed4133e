// Package security classifies errors into operator-safe and debug text and
// redacts secrets from anything shown on the console.
package security

import (
	"errors"
	"os"
	"strings"
)

// ClassifiedError separates a user-safe message from verbose debug details.
type ClassifiedError struct {
	UserSafe    string
	DebugDetail string
	Err         error
}

func (e *ClassifiedError) Error() string {
	if e == nil {
		return ""
	}
	if strings.TrimSpace(e.UserSafe) == "" {
		return "operation failed"
	}
	return e.UserSafe
}

func (e *ClassifiedError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewClassifiedError creates a new error with separated user-safe and debug details.
func NewClassifiedError(userSafe, debugDetail string) error {
	return &ClassifiedError{UserSafe: userSafe, DebugDetail: debugDetail}
}

// Classify wraps err with a user-safe message, keeping err for errors.Is/As
// and its text as debug detail.
func Classify(userSafe string, err error) error {
	if err == nil {
		return nil
	}
	return &ClassifiedError{UserSafe: userSafe, DebugDetail: err.Error(), Err: err}
}

// UserMessage returns a message safe to show in CLI/TUI contexts. When redact
// is set, the home directory and every non-empty secret are masked.
func UserMessage(err error, redact bool, secrets ...string) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		msg = ce.UserSafe
		if msg == "" {
			msg = "operation failed"
		}
	}
	if redact {
		return RedactMessage(msg, secrets...)
	}
	return msg
}

// DebugMessage returns detailed error text for logs.
func DebugMessage(err error) string {
	if err == nil {
		return ""
	}
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		if strings.TrimSpace(ce.DebugDetail) != "" {
			return ce.DebugDetail
		}
	}
	return err.Error()
}

// RedactMessage strips the home directory and the given secrets from
// user-visible text.
func RedactMessage(msg string, secrets ...string) string {
	if msg == "" {
		return msg
	}
	out := msg
	for _, s := range secrets {
		if strings.TrimSpace(s) == "" {
			continue
		}
		out = strings.ReplaceAll(out, s, "[redacted]")
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		out = strings.ReplaceAll(out, home, "~")
	}
	return out
}
