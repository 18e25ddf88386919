package telegram

import (
	"testing"

	"github.com/YanKarpov/HelpyHub/internal/feedback"
)

func TestMainMenuKeyboardMarksCurrentCategory(t *testing.T) {
	kb := mainMenuKeyboard("Другое")

	if len(kb.InlineKeyboard) != len(feedback.CategoriesList) {
		t.Fatalf("rows = %d, want %d", len(kb.InlineKeyboard), len(feedback.CategoriesList))
	}
	for i, cat := range feedback.CategoriesList {
		row := kb.InlineKeyboard[i]
		if len(row) != 1 {
			t.Fatalf("row %d has %d buttons", i, len(row))
		}
		btn := row[0]
		if cat == "Другое" {
			if btn.Text != "• Другое" {
				t.Errorf("current category text = %q", btn.Text)
			}
			if btn.CallbackData == nil || *btn.CallbackData != CallbackIgnore {
				t.Errorf("current category is not inert: %v", btn.CallbackData)
			}
			continue
		}
		if btn.Text != cat {
			t.Errorf("row %d text = %q, want %q", i, btn.Text, cat)
		}
		if btn.CallbackData == nil || *btn.CallbackData != cat {
			t.Errorf("row %d callback = %v, want %q", i, btn.CallbackData, cat)
		}
	}
}

func TestMainMenuKeyboardWithoutCurrentCategory(t *testing.T) {
	kb := mainMenuKeyboard("")

	for i, row := range kb.InlineKeyboard {
		btn := row[0]
		if btn.CallbackData == nil || *btn.CallbackData == CallbackIgnore {
			t.Errorf("row %d rendered inert without a current category", i)
		}
	}
}
