package feedback

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/YanKarpov/HelpyHub/internal/state"
	"github.com/YanKarpov/HelpyHub/pkg/metrics"
)

// FeedbackTypeTTL bounds a half-completed flow: category chosen but identity
// never picked self-heals when this lapses.
const FeedbackTypeTTL = 5 * time.Minute

// Inert outcomes of the admin reply path. Not errors in the user-visible
// sense: the triggering message is simply not treated as a reply.
var (
	ErrDuplicateSend = errors.New("duplicate send suppressed")
	ErrNotReplying   = errors.New("no reply binding for this chat")
)

// Ticket is one accepted submission on its way to the staff group and logs.
type Ticket struct {
	ID          string
	UserID      int64
	DisplayName string
	Category    string
	Text        string
	Named       bool
	CreatedAt   time.Time
}

// RelayText renders the staff-group notification for the ticket.
func (t Ticket) RelayText() string {
	switch t.Category {
	case "Срочная помощь":
		return fmt.Sprintf(urgentTicketTemplate, t.DisplayName, t.Text)
	case "Запрос на печать":
		return fmt.Sprintf(printTicketTemplate, t.DisplayName, t.Text)
	default:
		return fmt.Sprintf(ticketTemplate, t.DisplayName, t.Category, t.Text)
	}
}

// Relay delivers messages over the chat transport. Both directions are
// best-effort from the coordinator's point of view for tickets; reply
// delivery failure aborts resolution so the binding survives for a retry.
type Relay interface {
	RelayTicket(ctx context.Context, t Ticket) error
	RelayReply(ctx context.Context, userID int64, text string) error
}

// TicketLog is an at-least-once, fire-and-forget sink for the ticket ledger.
type TicketLog interface {
	AppendTicket(ctx context.Context, t Ticket) error
	UpdateTicket(ctx context.Context, userID int64, answer string, adminID int64, adminName, status string) error
}

// OpenCounter is implemented by logs that can report currently open tickets,
// feeding the metrics sweep.
type OpenCounter interface {
	OpenTickets(ctx context.Context) (int, error)
}

// Statuses written to the ticket logs.
const (
	StatusOpen   = "Ожидает ответа"
	StatusClosed = "Вопрос закрыт"
)

// Service sequences the feedback lifecycle:
//
//	Idle → CategoryChosen → IdentityChosen → AwaitingText → Submitted → Resolved
//
// Every transition validates its preconditions against persisted state read
// immediately before acting, so concurrent handler instances and restarts
// observe the same ordering. The service holds no in-process session state
// and no locks across store or transport calls.
type Service struct {
	sessions *state.SessionStore
	gate     *state.AdmissionGate
	nav      *state.NavStack
	replies  *state.ReplyRouter
	relay    Relay
	logs     []TicketLog
	filter   *ProfanityFilter
	log      *zap.SugaredLogger
	now      func() time.Time
}

// New wires the coordinator over the shared key-value store. A nil logger or
// filter falls back to no-op behavior.
func New(kv state.KeyValue, relay Relay, logs []TicketLog, filter *ProfanityFilter, logger *zap.SugaredLogger) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if filter == nil {
		filter = NewProfanityFilter(nil)
	}
	return &Service{
		sessions: state.NewSessionStore(kv),
		gate:     state.NewAdmissionGate(kv),
		nav:      state.NewNavStack(kv),
		replies:  state.NewReplyRouter(kv),
		relay:    relay,
		logs:     logs,
		filter:   filter,
		log:      logger,
		now:      time.Now,
	}
}

// Sessions exposes the session record store to the transport layer for
// message-reference bookkeeping.
func (s *Service) Sessions() *state.SessionStore { return s.sessions }

// Nav exposes the navigation stack for back-control rendering.
func (s *Service) Nav() *state.NavStack { return s.nav }

// Gate exposes the admission gate for moderation commands.
func (s *Service) Gate() *state.AdmissionGate { return s.gate }

// ChooseCategory handles Idle → CategoryChosen. The block flag is checked
// before admission so a blocked user never sees the open-ticket message.
func (s *Service) ChooseCategory(ctx context.Context, userID int64, category string) (CategoryInfo, error) {
	blocked, err := s.gate.IsBlocked(ctx, userID)
	if err != nil {
		return CategoryInfo{}, err
	}
	if blocked {
		metrics.IncRejectedTicket("blocked")
		return CategoryInfo{}, ErrBlocked
	}
	canOpen, err := s.gate.CanOpenNewTicket(ctx, userID)
	if err != nil {
		return CategoryInfo{}, err
	}
	if !canOpen {
		metrics.IncRejectedTicket("open_ticket")
		return CategoryInfo{}, ErrTicketOpen
	}

	if err := s.sessions.SetFeedbackType(ctx, userID, category, FeedbackTypeTTL); err != nil {
		return CategoryInfo{}, err
	}
	// Re-picking a category lands on the existing identity frame with the new
	// category instead of stacking another one.
	if err := s.nav.GotoTruncate(ctx, userID, state.ScreenIdentityChoice, map[string]string{"category": category}); err != nil {
		return CategoryInfo{}, err
	}
	s.log.Infow("category chosen", "user_id", userID, "category", category)
	return Info(category), nil
}

// ChooseIdentity handles CategoryChosen → IdentityChosen. If the pending
// category already expired, the flow returns to Idle with ErrSessionExpired.
func (s *Service) ChooseIdentity(ctx context.Context, userID int64, named bool) (string, error) {
	feedbackType, ok, err := s.sessions.FeedbackType(ctx, userID)
	if err != nil {
		return "", err
	}
	if !ok {
		metrics.IncRejectedTicket("expired")
		return "", ErrSessionExpired
	}
	err = s.sessions.Save(ctx, userID, map[string]any{
		state.FieldType:    feedbackType,
		state.FieldIsNamed: named,
	})
	if err != nil {
		return "", err
	}
	// Re-picking an identity lands on the existing prompt frame, so a
	// double-tap never stacks duplicates.
	if err := s.nav.GotoTruncate(ctx, userID, state.ScreenFeedbackPrompt, map[string]string{"feedback_type": feedbackType}); err != nil {
		return "", err
	}
	s.log.Infow("identity chosen", "user_id", userID, "named", named)
	return feedbackType, nil
}

// Submission is one inbound free-text (or captioned-media) issue description.
type Submission struct {
	UserID   int64
	Username string
	FullName string
	Text     string
}

// SubmitText handles AwaitingText → Submitted. The blocked and admission
// checks are repeated here: a race window exists between the prompt and the
// submission, and the earlier check cannot be trusted. Once local admission
// succeeds the user-facing acknowledgment is unconditional; relay and log
// failures are caught, logged and never surfaced.
func (s *Service) SubmitText(ctx context.Context, sub Submission) (*Ticket, error) {
	feedbackType, ok, err := s.sessions.FeedbackType(ctx, sub.UserID)
	if err != nil {
		return nil, err
	}
	if !ok {
		// No submission expected: inbound free text is inert.
		return nil, ErrNoPrompt
	}

	blocked, err := s.gate.IsBlocked(ctx, sub.UserID)
	if err != nil {
		return nil, err
	}
	if blocked {
		metrics.IncRejectedTicket("blocked")
		return nil, ErrBlocked
	}
	canOpen, err := s.gate.CanOpenNewTicket(ctx, sub.UserID)
	if err != nil {
		return nil, err
	}
	if !canOpen {
		metrics.IncRejectedTicket("open_ticket")
		return nil, ErrTicketOpen
	}

	if err := CheckLength(sub.Text); err != nil {
		metrics.IncRejectedTicket("too_long")
		return nil, err
	}
	if err := s.filter.Check(sub.Text); err != nil {
		metrics.IncRejectedTicket("profanity")
		return nil, err
	}

	if err := s.gate.Lock(ctx, sub.UserID, state.LockTTL); err != nil {
		return nil, err
	}

	named := false
	if v, ok, err := s.sessions.GetField(ctx, sub.UserID, state.FieldIsNamed); err != nil {
		// Degrade to anonymous, but leave a trace.
		s.log.Errorw("read identity choice failed", "user_id", sub.UserID, "err", err)
	} else if ok {
		named = v == "true"
	}

	ticket := &Ticket{
		ID:          uuid.NewString(),
		UserID:      sub.UserID,
		DisplayName: displayName(named, sub.Username, sub.FullName),
		Category:    feedbackType,
		Text:        sub.Text,
		Named:       named,
		CreatedAt:   s.now(),
	}

	// Best-effort fan-out: neither failure blocks the other, and neither
	// prevents the submitted acknowledgment.
	if err := s.relay.RelayTicket(ctx, *ticket); err != nil {
		metrics.IncSinkError("relay")
		s.log.Errorw("relay to staff group failed", "user_id", sub.UserID, "err", err)
	}
	for _, l := range s.logs {
		if err := l.AppendTicket(ctx, *ticket); err != nil {
			metrics.IncSinkError("log")
			s.log.Errorw("ticket log append failed", "ticket_id", ticket.ID, "err", err)
		}
	}

	if err := s.sessions.DeleteFeedbackType(ctx, sub.UserID); err != nil {
		return nil, err
	}
	if err := s.sessions.DeleteField(ctx, sub.UserID, state.FieldPromptMessageID); err != nil {
		return nil, err
	}
	if err := s.nav.Reset(ctx, sub.UserID); err != nil {
		return nil, err
	}

	metrics.IncSubmittedTicket(ticket.Category)
	s.log.Infow("ticket submitted", "ticket_id", ticket.ID, "user_id", sub.UserID, "category", ticket.Category)
	return ticket, nil
}

// StartAdminReply records that the admin is composing a reply to the user,
// bound to the chat the "reply" control was pressed in.
func (s *Service) StartAdminReply(ctx context.Context, adminID, targetUserID, originChatID int64) error {
	if err := s.replies.StartReply(ctx, adminID, targetUserID, originChatID, state.ReplyTTL); err != nil {
		return err
	}
	s.log.Infow("admin reply started", "admin_id", adminID, "target_user_id", targetUserID, "origin_chat_id", originChatID)
	return nil
}

// AdminReply is one inbound admin text considered for relay to an end user.
type AdminReply struct {
	AdminID  int64
	ChatID   int64
	Username string
	Text     string
}

// HandleAdminReply handles Submitted → Resolved. The message is eligible iff
// a binding exists and it arrives from the bound origin chat; otherwise it is
// inert. A short-TTL guard suppresses double-processing of duplicate sends.
// On success the target user's admission lock is released, the binding is
// cleared and the logs are updated best-effort.
func (s *Service) HandleAdminReply(ctx context.Context, reply AdminReply) (int64, error) {
	acquired, err := s.replies.AcquireSendGuard(ctx, reply.AdminID)
	if err != nil {
		return 0, err
	}
	if !acquired {
		s.log.Infow("duplicate admin send suppressed", "admin_id", reply.AdminID)
		return 0, ErrDuplicateSend
	}
	defer func() {
		if err := s.replies.ReleaseSendGuard(ctx, reply.AdminID); err != nil {
			s.log.Warnw("send guard release failed", "admin_id", reply.AdminID, "err", err)
		}
	}()

	binding, ok, err := s.replies.Binding(ctx, reply.AdminID)
	if err != nil {
		return 0, err
	}
	if !ok || binding.OriginChatID != reply.ChatID {
		return 0, ErrNotReplying
	}

	if err := s.relay.RelayReply(ctx, binding.TargetUserID, fmt.Sprintf(MsgSupportReply, reply.Text)); err != nil {
		metrics.IncSinkError("relay")
		return 0, fmt.Errorf("relay reply to %d: %w", binding.TargetUserID, err)
	}

	if err := s.gate.Unlock(ctx, binding.TargetUserID); err != nil {
		return 0, err
	}
	if err := s.replies.EndReply(ctx, reply.AdminID); err != nil {
		return 0, err
	}
	for _, l := range s.logs {
		if err := l.UpdateTicket(ctx, binding.TargetUserID, reply.Text, reply.AdminID, reply.Username, StatusClosed); err != nil {
			metrics.IncSinkError("log")
			s.log.Errorw("ticket log update failed", "user_id", binding.TargetUserID, "err", err)
		}
	}

	metrics.IncRelayedReply()
	s.log.Infow("admin reply relayed", "admin_id", reply.AdminID, "user_id", binding.TargetUserID)
	return binding.TargetUserID, nil
}

// ResetSession collapses the user's flow back to Idle: nav to the single
// main frame, pending category dropped. Used by /start.
func (s *Service) ResetSession(ctx context.Context, userID int64) error {
	if err := s.sessions.DeleteFeedbackType(ctx, userID); err != nil {
		return err
	}
	return s.nav.Reset(ctx, userID)
}

// SweepMetrics refreshes gauges derived from the ticket logs. Driven by the
// scheduler; failures are logged and skipped.
func (s *Service) SweepMetrics(ctx context.Context) {
	for _, l := range s.logs {
		counter, ok := l.(OpenCounter)
		if !ok {
			continue
		}
		n, err := counter.OpenTickets(ctx)
		if err != nil {
			s.log.Warnw("open tickets sweep failed", "err", err)
			continue
		}
		metrics.SetOpenTickets(n)
		return
	}
}

func displayName(named bool, username, fullName string) string {
	switch {
	case named && username != "":
		return "@" + username
	case named:
		return fullName
	default:
		return AnonymousLabel
	}
}
