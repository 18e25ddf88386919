package state

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Defaults for the reply binding lifetime and the duplicate-send guard.
const (
	ReplyTTL     = 30 * time.Minute
	SendGuardTTL = 10 * time.Second
)

// ReplyBinding names which end-user and originating chat an admin's
// in-progress reply applies to. A text from the admin is eligible for relay
// only when it arrives from OriginChatID.
type ReplyBinding struct {
	TargetUserID int64 `json:"target_user_id"`
	OriginChatID int64 `json:"origin_chat_id"`
}

// ReplyRouter maps an admin identity to its current reply binding.
type ReplyRouter struct {
	kv KeyValue
}

func NewReplyRouter(kv KeyValue) *ReplyRouter {
	return &ReplyRouter{kv: kv}
}

// StartReply records the binding. Overwriting an existing binding is
// deliberate last-write-wins: an admin engaging "reply" twice in quick
// succession means "I changed my mind".
func (r *ReplyRouter) StartReply(ctx context.Context, adminID, targetUserID, originChatID int64, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = ReplyTTL
	}
	data, err := json.Marshal(ReplyBinding{TargetUserID: targetUserID, OriginChatID: originChatID})
	if err != nil {
		return fmt.Errorf("reply binding encode: %w", err)
	}
	if err := r.kv.Set(ctx, adminReplyingKey(adminID), string(data), ttl); err != nil {
		return fmt.Errorf("start reply %d: %w", adminID, err)
	}
	return nil
}

// Binding returns the admin's current binding, if any.
func (r *ReplyRouter) Binding(ctx context.Context, adminID int64) (ReplyBinding, bool, error) {
	raw, ok, err := r.kv.Get(ctx, adminReplyingKey(adminID))
	if err != nil {
		return ReplyBinding{}, false, fmt.Errorf("get reply binding %d: %w", adminID, err)
	}
	if !ok {
		return ReplyBinding{}, false, nil
	}
	var b ReplyBinding
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		return ReplyBinding{}, false, fmt.Errorf("decode reply binding %d: %w", adminID, err)
	}
	return b, true, nil
}

// ReplyTarget returns the bound end-user, if any.
func (r *ReplyRouter) ReplyTarget(ctx context.Context, adminID int64) (int64, bool, error) {
	b, ok, err := r.Binding(ctx, adminID)
	if err != nil || !ok {
		return 0, false, err
	}
	return b.TargetUserID, true, nil
}

// OriginChat returns the chat the binding was created from, if any.
func (r *ReplyRouter) OriginChat(ctx context.Context, adminID int64) (int64, bool, error) {
	b, ok, err := r.Binding(ctx, adminID)
	if err != nil || !ok {
		return 0, false, err
	}
	return b.OriginChatID, true, nil
}

// EndReply clears the binding after a successful relay.
func (r *ReplyRouter) EndReply(ctx context.Context, adminID int64) error {
	if err := r.kv.Del(ctx, adminReplyingKey(adminID)); err != nil {
		return fmt.Errorf("end reply %d: %w", adminID, err)
	}
	return nil
}

// AcquireSendGuard takes the short-lived per-admin lock that suppresses
// double-processing when the same client fires a send twice. The first call
// wins; a concurrent duplicate gets false and must be dropped silently.
func (r *ReplyRouter) AcquireSendGuard(ctx context.Context, adminID int64) (bool, error) {
	ok, err := r.kv.SetNX(ctx, adminReplyLockKey(adminID), "1", SendGuardTTL)
	if err != nil {
		return false, fmt.Errorf("send guard %d: %w", adminID, err)
	}
	return ok, nil
}

// ReleaseSendGuard drops the guard early once processing finished.
func (r *ReplyRouter) ReleaseSendGuard(ctx context.Context, adminID int64) error {
	if err := r.kv.Del(ctx, adminReplyLockKey(adminID)); err != nil {
		return fmt.Errorf("release send guard %d: %w", adminID, err)
	}
	return nil
}
