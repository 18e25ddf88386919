package feedback_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/YanKarpov/HelpyHub/internal/feedback"
)

func TestCheckLength(t *testing.T) {
	if err := feedback.CheckLength("Принтер не работает"); err != nil {
		t.Errorf("short text rejected: %v", err)
	}

	// Length counts runes, not bytes: 500 Cyrillic letters are 1000 bytes.
	exact := strings.Repeat("я", feedback.MaxTextLength)
	if err := feedback.CheckLength(exact); err != nil {
		t.Errorf("text at the limit rejected: %v", err)
	}

	// Surrounding whitespace does not count against the limit.
	if err := feedback.CheckLength("  " + exact + "  "); err != nil {
		t.Errorf("padded text at the limit rejected: %v", err)
	}

	err := feedback.CheckLength(exact + "я")
	var verr *feedback.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Message == "" {
		t.Error("validation error has no user-visible message")
	}
}
