package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/YanKarpov/HelpyHub/internal/feedback"
)

// Callback button data values. Category buttons carry the category name
// itself; the reply control carries the target user id after a colon.
const (
	CallbackBack          = "back"
	CallbackIgnore        = "ignore"
	CallbackSendAnonymous = "send_anonymous"
	CallbackSendNamed     = "send_named"
	CallbackReplyPrefix   = "reply_to_user:"
)

func backButton() tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад", CallbackBack)
}

// mainMenuKeyboard lists the top-level categories, one per row. A category
// may be rendered inert (marked with a bullet) to show where the user is.
func mainMenuKeyboard(disabledCategory string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, cat := range feedback.CategoriesList {
		if cat == disabledCategory {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("• "+cat, CallbackIgnore),
			))
			continue
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(cat, cat),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// otherSubmenuKeyboard lists the subcategories of "Другое" two per row,
// with a back button.
func otherSubmenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	var buttons []tgbotapi.InlineKeyboardButton
	for _, sub := range feedback.SubcategoriesList {
		buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(sub, sub))
	}
	buttons = append(buttons, backButton())

	var rows [][]tgbotapi.InlineKeyboardButton
	for i := 0; i < len(buttons); i += 2 {
		end := i + 2
		if end > len(buttons) {
			end = len(buttons)
		}
		rows = append(rows, buttons[i:end])
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func identityChoiceKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Отправить анонимно", CallbackSendAnonymous),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Я не против назвать себя", CallbackSendNamed),
		),
		tgbotapi.NewInlineKeyboardRow(backButton()),
	)
}

func backKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(backButton()))
}

// replyToUserKeyboard is attached to relayed tickets in the staff group.
func replyToUserKeyboard(userID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Ответить", fmt.Sprintf("%s%d", CallbackReplyPrefix, userID)),
		),
	)
}
