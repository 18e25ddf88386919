package telegram

import (
	"context"
	"encoding/json"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/YanKarpov/HelpyHub/internal/state"
)

// Screen is one render instruction: an image message above a text message
// with an inline keyboard.
type Screen struct {
	Image    string
	Text     string
	Keyboard tgbotapi.InlineKeyboardMarkup
}

// Renderer owns the edit-or-send fallback: it first tries to edit the
// user's existing screen pair in place, and falls back to deleting and
// sending fresh messages when the edit fails. The coordinator never sees
// transport errors; the only thing fed back into the session record is the
// new pair of message references.
type Renderer struct {
	api      *tgbotapi.BotAPI
	sessions *state.SessionStore
	log      *zap.SugaredLogger
}

func NewRenderer(api *tgbotapi.BotAPI, sessions *state.SessionStore, log *zap.SugaredLogger) *Renderer {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Renderer{api: api, sessions: sessions, log: log}
}

// Show renders the screen for the user and returns the text message id the
// keyboard is attached to. Errors are store failures only.
func (r *Renderer) Show(ctx context.Context, userID int64, s Screen) (int, error) {
	sess, err := r.sessions.Get(ctx, userID)
	if err != nil {
		return 0, err
	}

	imageID := messageRef(sess, state.FieldImageMessageID)
	menuID := messageRef(sess, state.FieldMenuMessageID)
	signature := screenSignature(s)

	// Skip redundant edits when the exact same screen is already shown.
	// An idempotence optimization, not correctness-critical.
	if menuID != 0 && lastSignature(sess) == signature {
		return menuID, nil
	}

	if imageID != 0 && menuID != 0 {
		if r.edit(userID, imageID, menuID, s) {
			return menuID, r.remember(ctx, userID, imageID, menuID, s)
		}
		r.deletePair(userID, imageID, menuID)
	}

	imageID, menuID = r.sendNew(userID, s)
	if menuID == 0 {
		return 0, nil // transport down; nothing to remember
	}
	return menuID, r.remember(ctx, userID, imageID, menuID, s)
}

func (r *Renderer) edit(userID int64, imageID, menuID int, s Screen) bool {
	if s.Image != "" {
		media := tgbotapi.EditMessageMediaConfig{
			BaseEdit: tgbotapi.BaseEdit{ChatID: userID, MessageID: imageID},
			Media:    tgbotapi.NewInputMediaPhoto(tgbotapi.FilePath(s.Image)),
		}
		if _, err := r.api.Request(media); err != nil {
			r.log.Warnw("edit screen image failed", "user_id", userID, "err", err)
			return false
		}
	}
	edit := tgbotapi.NewEditMessageTextAndMarkup(userID, menuID, s.Text, s.Keyboard)
	if _, err := r.api.Send(edit); err != nil {
		r.log.Warnw("edit screen text failed", "user_id", userID, "err", err)
		return false
	}
	return true
}

func (r *Renderer) sendNew(userID int64, s Screen) (imageID, menuID int) {
	if s.Image != "" {
		photo := tgbotapi.NewPhoto(userID, tgbotapi.FilePath(s.Image))
		if sent, err := r.api.Send(photo); err != nil {
			r.log.Warnw("send screen image failed", "user_id", userID, "err", err)
		} else {
			imageID = sent.MessageID
		}
	}
	msg := tgbotapi.NewMessage(userID, s.Text)
	msg.ReplyMarkup = s.Keyboard
	sent, err := r.api.Send(msg)
	if err != nil {
		r.log.Warnw("send screen text failed", "user_id", userID, "err", err)
		return imageID, 0
	}
	return imageID, sent.MessageID
}

func (r *Renderer) deletePair(userID int64, imageID, menuID int) {
	for _, id := range []int{imageID, menuID} {
		if id == 0 {
			continue
		}
		if _, err := r.api.Request(tgbotapi.NewDeleteMessage(userID, id)); err != nil {
			r.log.Debugw("delete stale screen message failed", "user_id", userID, "message_id", id, "err", err)
		}
	}
}

func (r *Renderer) remember(ctx context.Context, userID int64, imageID, menuID int, s Screen) error {
	return r.sessions.Save(ctx, userID, map[string]any{
		state.FieldImageMessageID: imageID,
		state.FieldMenuMessageID:  menuID,
		state.FieldLastText:       s.Text,
		state.FieldLastImage:      s.Image,
		state.FieldLastKeyboard:   keyboardSignature(s.Keyboard),
	})
}

func messageRef(sess map[string]any, field string) int {
	v, ok := sess[field].(string)
	if !ok {
		return 0
	}
	id, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return id
}

func lastSignature(sess map[string]any) string {
	text, _ := sess[state.FieldLastText].(string)
	image, _ := sess[state.FieldLastImage].(string)
	kb, _ := sess[state.FieldLastKeyboard].(string)
	return text + "\x00" + image + "\x00" + kb
}

func screenSignature(s Screen) string {
	return s.Text + "\x00" + s.Image + "\x00" + keyboardSignature(s.Keyboard)
}

func keyboardSignature(kb tgbotapi.InlineKeyboardMarkup) string {
	data, err := json.Marshal(kb)
	if err != nil {
		return ""
	}
	return string(data)
}
