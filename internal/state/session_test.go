package state_test

import (
	"context"
	"testing"
	"time"

	"github.com/YanKarpov/HelpyHub/internal/state"
	"github.com/YanKarpov/HelpyHub/internal/storage"
)

func TestSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	sessions := state.NewSessionStore(kv)

	err := sessions.Save(ctx, 1, map[string]any{
		"a": true,
		"b": "x",
		"c": 5,
	})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := sessions.Get(ctx, 1)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got["a"] != true {
		t.Errorf("expected a=true, got %v", got["a"])
	}
	if got["b"] != "x" {
		t.Errorf("expected b=%q, got %v", "x", got["b"])
	}
	// Numbers come back as their string form; only booleans are re-typed.
	if got["c"] != "5" {
		t.Errorf("expected c=%q, got %v", "5", got["c"])
	}
}

func TestSessionSaveSkipsNilAndMerges(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	sessions := state.NewSessionStore(kv)

	if err := sessions.Save(ctx, 1, map[string]any{"kept": "old", "flag": false}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := sessions.Save(ctx, 1, map[string]any{"flag": true, "gone": nil}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := sessions.Get(ctx, 1)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got["kept"] != "old" {
		t.Errorf("merge dropped unrelated field: %v", got["kept"])
	}
	if got["flag"] != true {
		t.Errorf("expected flag=true, got %v", got["flag"])
	}
	if _, ok := got["gone"]; ok {
		t.Errorf("nil value must be skipped, got %v", got["gone"])
	}
}

func TestSessionMissingRecordIsEmpty(t *testing.T) {
	ctx := context.Background()
	sessions := state.NewSessionStore(storage.NewMemory())

	got, err := sessions.Get(ctx, 404)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty map, got %v", got)
	}
}

func TestSessionFieldAccessors(t *testing.T) {
	ctx := context.Background()
	sessions := state.NewSessionStore(storage.NewMemory())

	if err := sessions.Save(ctx, 1, map[string]any{"menu_message_id": 42}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	v, ok, err := sessions.GetField(ctx, 1, "menu_message_id")
	if err != nil || !ok {
		t.Fatalf("GetField: ok=%v err=%v", ok, err)
	}
	if v != "42" {
		t.Errorf("expected %q, got %q", "42", v)
	}

	if err := sessions.DeleteField(ctx, 1, "menu_message_id"); err != nil {
		t.Fatalf("DeleteField failed: %v", err)
	}
	if _, ok, _ := sessions.GetField(ctx, 1, "menu_message_id"); ok {
		t.Error("field survived DeleteField")
	}
}

func TestSessionClearRemovesAffiliatedKeys(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	sessions := state.NewSessionStore(kv)
	gate := state.NewAdmissionGate(kv)

	if err := sessions.Save(ctx, 1, map[string]any{"type": "Другое"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := sessions.SetFeedbackType(ctx, 1, "Другое", time.Minute); err != nil {
		t.Fatalf("SetFeedbackType failed: %v", err)
	}
	if err := gate.Block(ctx, 1, 0); err != nil {
		t.Fatalf("Block failed: %v", err)
	}

	if err := sessions.Clear(ctx, 1); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	if got, _ := sessions.Get(ctx, 1); len(got) != 0 {
		t.Errorf("record survived Clear: %v", got)
	}
	if _, ok, _ := sessions.FeedbackType(ctx, 1); ok {
		t.Error("feedback type survived Clear")
	}
	if blocked, _ := gate.IsBlocked(ctx, 1); blocked {
		t.Error("block flag survived Clear")
	}
}

func TestFeedbackTypeTTL(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	now := time.Now()
	kv.Now = func() time.Time { return now }
	sessions := state.NewSessionStore(kv)

	if err := sessions.SetFeedbackType(ctx, 1, "Документы", 5*time.Minute); err != nil {
		t.Fatalf("SetFeedbackType failed: %v", err)
	}

	if v, ok, _ := sessions.FeedbackType(ctx, 1); !ok || v != "Документы" {
		t.Fatalf("expected pending type, got ok=%v v=%q", ok, v)
	}

	now = now.Add(6 * time.Minute)
	if _, ok, _ := sessions.FeedbackType(ctx, 1); ok {
		t.Error("feedback type survived its TTL")
	}
}
