package feedback_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/YanKarpov/HelpyHub/internal/feedback"
)

func TestProfanityFilterMatchesObfuscation(t *testing.T) {
	filter := feedback.NewProfanityFilter([]string{"дурак"})

	cases := []struct {
		text string
		want bool
	}{
		{"ты дурак", true},
		{"ты ДУРАК!!!", true},
		{"ты д у р а к", true},
		{"ты д.у.р.а.к", true},
		{"ты дуrаk", true},
		{"ты дуракккк", true},
		{"ты дуракаааа", true},
		{"принтер не работает", false},
		{"", false},
		{"   ", false},
	}
	for _, c := range cases {
		if got := filter.Contains(c.text); got != c.want {
			t.Errorf("Contains(%q) = %v, want %v", c.text, got, c.want)
		}
	}
}

func TestProfanityFilterCheck(t *testing.T) {
	filter := feedback.NewProfanityFilter([]string{"дурак"})

	err := filter.Check("какой же ты дурак")
	var verr *feedback.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Message != feedback.MsgProfanity {
		t.Errorf("message = %q", verr.Message)
	}

	if err := filter.Check("всё хорошо"); err != nil {
		t.Errorf("clean text rejected: %v", err)
	}
}

func TestEmptyFilterIsPermissive(t *testing.T) {
	filter := feedback.NewProfanityFilter(nil)
	if filter.Contains("дурак") {
		t.Error("empty filter matched")
	}
}

func TestLoadProfanityFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "badwords.txt")
	if err := os.WriteFile(path, []byte("дурак\n\n  болван  \n"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	filter, err := feedback.LoadProfanityFilter(path)
	if err != nil {
		t.Fatalf("LoadProfanityFilter failed: %v", err)
	}
	if !filter.Contains("болван") {
		t.Error("word with surrounding spaces not loaded")
	}
	if !filter.Contains("дурак") {
		t.Error("word not loaded")
	}
}

func TestLoadProfanityFilterMissingFile(t *testing.T) {
	filter, err := feedback.LoadProfanityFilter(filepath.Join(t.TempDir(), "absent.txt"))
	if err != nil {
		t.Fatalf("missing file must be tolerated: %v", err)
	}
	if filter.Contains("дурак") {
		t.Error("missing file produced a matching filter")
	}
}
