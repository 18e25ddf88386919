package state

import (
	"context"
	"fmt"
	"time"
)

// LockTTL is the admission lock safety net against a lost resolve signal.
// The primary release path is an explicit Unlock on admin resolution.
const LockTTL = time.Hour

// AdmissionGate enforces the at-most-one-open-ticket-per-user invariant and
// the moderation block policy. Callers must check IsBlocked before
// CanOpenNewTicket: a blocked user's rejection must say "blocked", not
// "ticket already open".
type AdmissionGate struct {
	kv KeyValue
}

func NewAdmissionGate(kv KeyValue) *AdmissionGate {
	return &AdmissionGate{kv: kv}
}

// IsBlocked reports whether the moderation block flag is present.
func (g *AdmissionGate) IsBlocked(ctx context.Context, userID int64) (bool, error) {
	ok, err := g.kv.Exists(ctx, blockedKey(userID))
	if err != nil {
		return false, fmt.Errorf("blocked check %d: %w", userID, err)
	}
	return ok, nil
}

// CanOpenNewTicket reports whether the admission lock is absent.
func (g *AdmissionGate) CanOpenNewTicket(ctx context.Context, userID int64) (bool, error) {
	ok, err := g.kv.Exists(ctx, feedbackLockKey(userID))
	if err != nil {
		return false, fmt.Errorf("admission check %d: %w", userID, err)
	}
	return !ok, nil
}

// Lock sets the admission lock. A plain SET, not conditional: the coordinator
// calls Lock exactly once per accepted submission.
func (g *AdmissionGate) Lock(ctx context.Context, userID int64, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = LockTTL
	}
	if err := g.kv.Set(ctx, feedbackLockKey(userID), "1", ttl); err != nil {
		return fmt.Errorf("lock %d: %w", userID, err)
	}
	return nil
}

// Unlock releases the admission lock, allowing a new ticket.
func (g *AdmissionGate) Unlock(ctx context.Context, userID int64) error {
	if err := g.kv.Del(ctx, feedbackLockKey(userID)); err != nil {
		return fmt.Errorf("unlock %d: %w", userID, err)
	}
	return nil
}

// Block sets the moderation flag. ttl==0 means blocked until explicit Unblock.
func (g *AdmissionGate) Block(ctx context.Context, userID int64, ttl time.Duration) error {
	if err := g.kv.Set(ctx, blockedKey(userID), "1", ttl); err != nil {
		return fmt.Errorf("block %d: %w", userID, err)
	}
	return nil
}

// Unblock removes the moderation flag.
func (g *AdmissionGate) Unblock(ctx context.Context, userID int64) error {
	if err := g.kv.Del(ctx, blockedKey(userID)); err != nil {
		return fmt.Errorf("unblock %d: %w", userID, err)
	}
	return nil
}
