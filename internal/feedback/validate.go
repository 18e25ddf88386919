package feedback

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxTextLength limits a single submission.
const MaxTextLength = 500

// Policy rejections. User-visible, never logged as errors.
var (
	ErrBlocked        = errors.New("user is blocked")
	ErrTicketOpen     = errors.New("open ticket exists")
	ErrSessionExpired = errors.New("pending category expired")
	ErrNoPrompt       = errors.New("no submission expected")
)

// ValidationError carries the exact text shown to the user. Distinguished
// from policy rejections by type, from store failures by not wrapping one.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// CheckLength validates the submission length in runes. Returns nil when the
// text fits, a *ValidationError otherwise.
func CheckLength(text string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(text))
	if n > MaxTextLength {
		return &ValidationError{Message: fmt.Sprintf(
			"❗️ Текст обращения слишком длинный (максимум %d символов, сейчас %d).",
			MaxTextLength, n)}
	}
	return nil
}
