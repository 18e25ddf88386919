package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/YanKarpov/HelpyHub/internal/feedback"
	"github.com/YanKarpov/HelpyHub/internal/state"
)

// Screen assets and texts outside the category set.
const (
	startImage = "assets/images/start.jpg"
	ackImage   = "assets/images/ack.jpg"

	startTextFmt = "Привет, %s!\nЯ знаю, что у тебя вопрос и я постараюсь его решить ❤️"
)

// Staff-side messages.
const (
	msgGroupOnly         = "❌ Команда доступна только в группе админов."
	msgUsageBlockUser    = "Использование: /block_user <user_id> [время_блокировки_в_минутах]"
	msgUsageUnblockUser  = "Использование: /unblock_user <user_id>"
	msgBlockUserDoneFmt  = "Пользователь %d заблокирован на %d минут."
	msgUnblockedUserFmt  = "Пользователь %d разблокирован."
	msgReplyPrompt       = "Напишите ответ для пользователя, и я его отправлю."
	msgReplyBadID        = "Некорректный ID"
	msgReplySent         = "Сообщение успешно отправлено пользователю."
	msgReplySendErrorFmt = "Ошибка отправки: %v"
	msgTryLater          = "⚠️ Что-то пошло не так. Попробуйте позже."
)

// Bot routes Telegram updates into the feedback coordinator and renders its
// outcomes. It is deliberately thin: every decision about admission, ordering
// and validation lives in the coordinator; the bot only translates events and
// messages.
//
// Bot also implements feedback.Relay: tickets go to the staff group (into the
// support thread when configured), replies go back to the end user.
type Bot struct {
	api      *tgbotapi.BotAPI
	svc      *feedback.Service
	renderer *Renderer
	log      *zap.SugaredLogger

	groupChatID     int64
	supportThreadID int
}

// New creates the bot and authorizes against the Telegram API.
func New(token string, groupChatID int64, supportThreadID int, logger *zap.SugaredLogger) (*Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram token is required")
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	bot := &Bot{
		api:             api,
		log:             logger,
		groupChatID:     groupChatID,
		supportThreadID: supportThreadID,
	}
	bot.log.Infow("telegram bot authorized", "username", api.Self.UserName)
	return bot, nil
}

// AttachService wires the coordinator in after construction; the coordinator
// needs the bot as its relay, so the two are built in sequence.
func (b *Bot) AttachService(svc *feedback.Service) {
	b.svc = svc
	b.renderer = NewRenderer(b.api, svc.Sessions(), b.log)
}

// Run starts the bot's update loop. It blocks until context is cancelled.
// Each update is handled on its own goroutine; per-user correctness comes
// from the persisted state, not from serialization of handlers.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	b.log.Info("telegram bot started, waiting for updates")

	for {
		select {
		case <-ctx.Done():
			b.log.Info("telegram bot: context cancelled, stopping")
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			if update.CallbackQuery != nil {
				go b.handleCallbackQuery(ctx, update.CallbackQuery)
			} else if update.Message != nil {
				go b.handleMessage(ctx, update.Message)
			}
		}
	}
}

// --- feedback.Relay ---

// RelayTicket delivers a submitted ticket to the staff group with the
// "Ответить" control attached.
func (b *Bot) RelayTicket(ctx context.Context, t feedback.Ticket) error {
	return b.sendToGroup(t.RelayText(), replyToUserKeyboard(t.UserID))
}

// RelayReply delivers a staff answer back to the end user.
func (b *Bot) RelayReply(ctx context.Context, userID int64, text string) error {
	msg := tgbotapi.NewMessage(userID, text)
	_, err := b.api.Send(msg)
	return err
}

// sendToGroup targets the support thread when one is configured. The v5
// bindings predate forum topics, so the thread variant goes through
// MakeRequest directly.
func (b *Bot) sendToGroup(text string, keyboard tgbotapi.InlineKeyboardMarkup) error {
	if b.supportThreadID == 0 {
		msg := tgbotapi.NewMessage(b.groupChatID, text)
		msg.ReplyMarkup = keyboard
		_, err := b.api.Send(msg)
		return err
	}

	markup, err := json.Marshal(keyboard)
	if err != nil {
		return err
	}
	params := tgbotapi.Params{
		"chat_id":           strconv.FormatInt(b.groupChatID, 10),
		"message_thread_id": strconv.Itoa(b.supportThreadID),
		"text":              text,
		"reply_markup":      string(markup),
	}
	_, err = b.api.MakeRequest("sendMessage", params)
	return err
}

// --- callback routing ---

func (b *Bot) handleCallbackQuery(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if query.From == nil || query.From.IsBot || query.Message == nil {
		return
	}
	data := query.Data
	b.log.Debugw("callback query", "user_id", query.From.ID, "data", data)

	switch {
	case data == CallbackIgnore:
		b.answer(query)
	case data == CallbackBack:
		b.handleBack(ctx, query)
	case data == CallbackSendAnonymous:
		b.handleIdentityChoice(ctx, query, false)
	case data == CallbackSendNamed:
		b.handleIdentityChoice(ctx, query, true)
	case strings.HasPrefix(data, CallbackReplyPrefix):
		b.handleReplyButton(ctx, query, data)
	case data == "Другое":
		b.showOtherSubmenu(ctx, query)
	case feedback.KnownCategory(data):
		b.handleCategoryChoice(ctx, query, data)
	default:
		b.alert(query, "❓ Неизвестная команда")
	}
}

func (b *Bot) handleCategoryChoice(ctx context.Context, query *tgbotapi.CallbackQuery, category string) {
	userID := query.From.ID

	info, err := b.svc.ChooseCategory(ctx, userID, category)
	switch {
	case errors.Is(err, feedback.ErrBlocked):
		b.alert(query, feedback.MsgBlocked)
		return
	case errors.Is(err, feedback.ErrTicketOpen):
		b.alert(query, feedback.MsgTicketOpen)
		return
	case err != nil:
		b.log.Errorw("category choice failed", "user_id", userID, "err", err)
		b.alert(query, msgTryLater)
		return
	}

	if _, err := b.renderer.Show(ctx, userID, Screen{
		Image:    info.Image,
		Text:     feedback.MsgIdentityChoice,
		Keyboard: identityChoiceKeyboard(),
	}); err != nil {
		b.log.Errorw("show identity choice failed", "user_id", userID, "err", err)
	}
	b.answer(query)
}

func (b *Bot) handleIdentityChoice(ctx context.Context, query *tgbotapi.CallbackQuery, named bool) {
	userID := query.From.ID

	category, err := b.svc.ChooseIdentity(ctx, userID, named)
	switch {
	case errors.Is(err, feedback.ErrSessionExpired):
		b.alert(query, feedback.MsgSessionExpired)
		return
	case err != nil:
		b.log.Errorw("identity choice failed", "user_id", userID, "err", err)
		b.alert(query, msgTryLater)
		return
	}

	b.showFeedbackPrompt(ctx, userID, category)
	b.answer(query)
}

// showFeedbackPrompt renders the free-text prompt for the category and
// remembers its message id so the coordinator can clear it on submit.
func (b *Bot) showFeedbackPrompt(ctx context.Context, userID int64, category string) {
	info := feedback.Info(category)
	text := info.Text
	if _, top := feedback.Categories[category]; top && category != "Другое" {
		text = fmt.Sprintf("Опиши проблему по теме '%s':\n\n%s", category, info.Text)
	}

	menuID, err := b.renderer.Show(ctx, userID, Screen{
		Image:    info.Image,
		Text:     text,
		Keyboard: backKeyboard(),
	})
	if err != nil {
		b.log.Errorw("show feedback prompt failed", "user_id", userID, "err", err)
		return
	}
	if menuID != 0 {
		err := b.svc.Sessions().Save(ctx, userID, map[string]any{
			state.FieldPromptMessageID: menuID,
		})
		if err != nil {
			b.log.Errorw("save prompt message id failed", "user_id", userID, "err", err)
		}
	}
}

func (b *Bot) showOtherSubmenu(ctx context.Context, query *tgbotapi.CallbackQuery) {
	userID := query.From.ID
	info := feedback.Categories["Другое"]
	if _, err := b.renderer.Show(ctx, userID, Screen{
		Image:    info.Image,
		Text:     "Выбери, что лучше описывает твой вопрос:",
		Keyboard: otherSubmenuKeyboard(),
	}); err != nil {
		b.log.Errorw("show submenu failed", "user_id", userID, "err", err)
	}
	b.answer(query)
}

func (b *Bot) handleBack(ctx context.Context, query *tgbotapi.CallbackQuery) {
	userID := query.From.ID

	screen, params, err := b.svc.Nav().GoBack(ctx, userID)
	if err != nil {
		b.log.Errorw("go back failed", "user_id", userID, "err", err)
		b.alert(query, msgTryLater)
		return
	}
	b.log.Debugw("navigating back", "user_id", userID, "screen", screen)

	switch screen {
	case state.ScreenMain:
		b.showMainMenu(ctx, userID, fullName(query.From))
	case state.ScreenIdentityChoice:
		// Re-render only; the frame is already on the stack.
		info := feedback.Info(params["category"])
		if _, err := b.renderer.Show(ctx, userID, Screen{
			Image:    info.Image,
			Text:     feedback.MsgIdentityChoice,
			Keyboard: identityChoiceKeyboard(),
		}); err != nil {
			b.log.Errorw("show identity choice failed", "user_id", userID, "err", err)
		}
	case state.ScreenFeedbackPrompt:
		b.showFeedbackPrompt(ctx, userID, params["feedback_type"])
	default:
		if err := b.svc.Nav().Reset(ctx, userID); err != nil {
			b.log.Errorw("nav reset failed", "user_id", userID, "err", err)
		}
		b.showMainMenu(ctx, userID, fullName(query.From))
	}
	b.answer(query)
}

func (b *Bot) handleReplyButton(ctx context.Context, query *tgbotapi.CallbackQuery, data string) {
	adminID := query.From.ID
	chatID := query.Message.Chat.ID

	targetID, err := strconv.ParseInt(strings.TrimPrefix(data, CallbackReplyPrefix), 10, 64)
	if err != nil {
		b.alert(query, msgReplyBadID)
		return
	}

	if err := b.svc.StartAdminReply(ctx, adminID, targetID, chatID); err != nil {
		b.log.Errorw("start admin reply failed", "admin_id", adminID, "err", err)
		b.alert(query, msgTryLater)
		return
	}

	// Append the prompt to the relayed ticket and drop its keyboard so the
	// control cannot be pressed again.
	switch {
	case query.Message.Text != "":
		edit := tgbotapi.NewEditMessageText(chatID, query.Message.MessageID, query.Message.Text+"\n\n"+msgReplyPrompt)
		if _, err := b.api.Send(edit); err != nil {
			b.log.Warnw("edit ticket message failed", "chat_id", chatID, "err", err)
		}
	case query.Message.Caption != "":
		edit := tgbotapi.NewEditMessageCaption(chatID, query.Message.MessageID, query.Message.Caption+"\n\n"+msgReplyPrompt)
		if _, err := b.api.Send(edit); err != nil {
			b.log.Warnw("edit ticket caption failed", "chat_id", chatID, "err", err)
		}
	}
	b.answer(query)
}

// --- message routing ---

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.From.IsBot {
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	if msg.Chat.ID == b.groupChatID {
		b.handleAdminText(ctx, msg)
		return
	}
	if msg.Chat.IsPrivate() {
		b.handleSubmission(ctx, msg)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start", "help":
		if err := b.svc.ResetSession(ctx, msg.From.ID); err != nil {
			b.log.Errorw("session reset failed", "user_id", msg.From.ID, "err", err)
		}
		b.showMainMenu(ctx, msg.From.ID, fullName(msg.From))
	case "block_user":
		b.handleBlockCommand(ctx, msg)
	case "unblock_user":
		b.handleUnblockCommand(ctx, msg)
	}
}

func (b *Bot) handleBlockCommand(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Chat.ID != b.groupChatID {
		b.send(msg.Chat.ID, msgGroupOnly)
		return
	}
	args := strings.Fields(msg.CommandArguments())
	if len(args) < 1 {
		b.send(msg.Chat.ID, msgUsageBlockUser)
		return
	}
	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		b.send(msg.Chat.ID, msgUsageBlockUser)
		return
	}
	minutes := 60
	if len(args) >= 2 {
		if m, err := strconv.Atoi(args[1]); err == nil && m > 0 {
			minutes = m
		}
	}

	if err := b.svc.Gate().Block(ctx, userID, time.Duration(minutes)*time.Minute); err != nil {
		b.log.Errorw("block failed", "user_id", userID, "err", err)
		b.send(msg.Chat.ID, msgTryLater)
		return
	}
	b.log.Infow("user blocked", "user_id", userID, "minutes", minutes, "admin_id", msg.From.ID)
	b.send(msg.Chat.ID, fmt.Sprintf(msgBlockUserDoneFmt, userID, minutes))
}

func (b *Bot) handleUnblockCommand(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Chat.ID != b.groupChatID {
		b.send(msg.Chat.ID, msgGroupOnly)
		return
	}
	args := strings.Fields(msg.CommandArguments())
	if len(args) != 1 {
		b.send(msg.Chat.ID, msgUsageUnblockUser)
		return
	}
	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		b.send(msg.Chat.ID, msgUsageUnblockUser)
		return
	}

	if err := b.svc.Gate().Unblock(ctx, userID); err != nil {
		b.log.Errorw("unblock failed", "user_id", userID, "err", err)
		b.send(msg.Chat.ID, msgTryLater)
		return
	}
	b.log.Infow("user unblocked", "user_id", userID, "admin_id", msg.From.ID)
	b.send(msg.Chat.ID, fmt.Sprintf(msgUnblockedUserFmt, userID))
}

// handleSubmission feeds a private free-text (or captioned media) message
// into the coordinator.
func (b *Bot) handleSubmission(ctx context.Context, msg *tgbotapi.Message) {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		text = strings.TrimSpace(msg.Caption)
	}
	if text == "" {
		return
	}
	userID := msg.From.ID

	ticket, err := b.svc.SubmitText(ctx, feedback.Submission{
		UserID:   userID,
		Username: msg.From.UserName,
		FullName: fullName(msg.From),
		Text:     text,
	})

	var vErr *feedback.ValidationError
	switch {
	case errors.Is(err, feedback.ErrNoPrompt):
		return // no submission expected, inert
	case errors.Is(err, feedback.ErrBlocked):
		b.send(userID, feedback.MsgBlocked)
		return
	case errors.Is(err, feedback.ErrTicketOpen):
		b.send(userID, feedback.MsgTicketOpen)
		return
	case errors.As(err, &vErr):
		b.send(userID, vErr.Message)
		return
	case err != nil:
		b.log.Errorw("submission failed", "user_id", userID, "err", err)
		b.send(userID, msgTryLater)
		return
	}

	// Drop the raw submission from the chat; the ack screen replaces it.
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(msg.Chat.ID, msg.MessageID)); err != nil {
		b.log.Debugw("delete user message failed", "user_id", userID, "err", err)
	}

	if _, err := b.renderer.Show(ctx, userID, Screen{
		Image:    ackImage,
		Text:     feedback.MsgAcknowledged,
		Keyboard: backKeyboard(),
	}); err != nil {
		b.log.Errorw("show ack failed", "user_id", userID, "err", err)
	}
	b.log.Infow("submission acknowledged", "user_id", userID, "ticket_id", ticket.ID)
}

// handleAdminText feeds a staff-group message into the reply path.
func (b *Bot) handleAdminText(ctx context.Context, msg *tgbotapi.Message) {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		text = strings.TrimSpace(msg.Caption)
	}
	if text == "" {
		return
	}

	userID, err := b.svc.HandleAdminReply(ctx, feedback.AdminReply{
		AdminID:  msg.From.ID,
		ChatID:   msg.Chat.ID,
		Username: msg.From.UserName,
		Text:     text,
	})
	switch {
	case errors.Is(err, feedback.ErrDuplicateSend), errors.Is(err, feedback.ErrNotReplying):
		return // inert, not a reply
	case err != nil:
		b.log.Errorw("admin reply failed", "admin_id", msg.From.ID, "err", err)
		b.reply(msg, fmt.Sprintf(msgReplySendErrorFmt, err))
		return
	}

	b.reply(msg, msgReplySent)
	b.log.Infow("admin reply delivered", "admin_id", msg.From.ID, "user_id", userID)
}

// showMainMenu marks the pending category, if any, as an inert bullet so the
// user sees their in-progress choice. /start clears it first, so a fresh menu
// carries no marker.
func (b *Bot) showMainMenu(ctx context.Context, userID int64, name string) {
	if name == "" {
		name = "друг"
	}
	current, _, err := b.svc.Sessions().FeedbackType(ctx, userID)
	if err != nil {
		b.log.Warnw("read pending category failed", "user_id", userID, "err", err)
	}
	if _, err := b.renderer.Show(ctx, userID, Screen{
		Image:    startImage,
		Text:     fmt.Sprintf(startTextFmt, name),
		Keyboard: mainMenuKeyboard(current),
	}); err != nil {
		b.log.Errorw("show main menu failed", "user_id", userID, "err", err)
	}
}

// --- small helpers ---

func (b *Bot) send(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.log.Warnw("send failed", "chat_id", chatID, "err", err)
	}
}

func (b *Bot) reply(to *tgbotapi.Message, text string) {
	msg := tgbotapi.NewMessage(to.Chat.ID, text)
	msg.ReplyToMessageID = to.MessageID
	if _, err := b.api.Send(msg); err != nil {
		b.log.Warnw("reply failed", "chat_id", to.Chat.ID, "err", err)
	}
}

func (b *Bot) answer(query *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		b.log.Debugw("answer callback failed", "err", err)
	}
}

func (b *Bot) alert(query *tgbotapi.CallbackQuery, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallbackWithAlert(query.ID, text)); err != nil {
		b.log.Debugw("alert callback failed", "err", err)
	}
}

func fullName(u *tgbotapi.User) string {
	if u == nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
}
