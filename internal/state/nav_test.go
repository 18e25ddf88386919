package state_test

import (
	"context"
	"testing"

	"github.com/YanKarpov/HelpyHub/internal/state"
	"github.com/YanKarpov/HelpyHub/internal/storage"
)

func TestNavBottomInvariant(t *testing.T) {
	ctx := context.Background()
	nav := state.NewNavStack(storage.NewMemory())

	// Popping an absent stack repeatedly must always land on main.
	for i := 0; i < 5; i++ {
		top, err := nav.Pop(ctx, 1)
		if err != nil {
			t.Fatalf("Pop failed: %v", err)
		}
		if top.Screen != state.ScreenMain {
			t.Fatalf("pop %d: expected main, got %q", i, top.Screen)
		}
	}
}

func TestNavPushAndGoBack(t *testing.T) {
	ctx := context.Background()
	nav := state.NewNavStack(storage.NewMemory())

	if err := nav.Push(ctx, 1, state.ScreenIdentityChoice, map[string]string{"category": "Другое"}); err != nil {
		t.Fatalf("Push failed: %v", err)
	}
	if err := nav.Push(ctx, 1, state.ScreenFeedbackPrompt, map[string]string{"feedback_type": "Другое"}); err != nil {
		t.Fatalf("Push failed: %v", err)
	}

	cur, err := nav.Current(ctx, 1)
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	if cur.Screen != state.ScreenFeedbackPrompt {
		t.Fatalf("expected feedback_prompt on top, got %q", cur.Screen)
	}

	screen, params, err := nav.GoBack(ctx, 1)
	if err != nil {
		t.Fatalf("GoBack failed: %v", err)
	}
	if screen != state.ScreenIdentityChoice {
		t.Errorf("expected identity_choice, got %q", screen)
	}
	if params["category"] != "Другое" {
		t.Errorf("params lost on the way back: %v", params)
	}

	if screen, _, _ = nav.GoBack(ctx, 1); screen != state.ScreenMain {
		t.Errorf("expected main, got %q", screen)
	}
	// Further backs stay on main.
	if screen, _, _ = nav.GoBack(ctx, 1); screen != state.ScreenMain {
		t.Errorf("bottom frame popped: got %q", screen)
	}
}

func TestNavReset(t *testing.T) {
	ctx := context.Background()
	nav := state.NewNavStack(storage.NewMemory())

	_ = nav.Push(ctx, 1, state.ScreenIdentityChoice, nil)
	if err := nav.Reset(ctx, 1); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	cur, _ := nav.Current(ctx, 1)
	if cur.Screen != state.ScreenMain {
		t.Errorf("expected main after reset, got %q", cur.Screen)
	}
	if top, _ := nav.Pop(ctx, 1); top.Screen != state.ScreenMain {
		t.Errorf("reset stack deeper than one frame")
	}
}

func TestNavGotoTruncate(t *testing.T) {
	ctx := context.Background()
	nav := state.NewNavStack(storage.NewMemory())

	_ = nav.Push(ctx, 1, state.ScreenIdentityChoice, map[string]string{"category": "Документы"})
	_ = nav.Push(ctx, 1, state.ScreenFeedbackPrompt, map[string]string{"feedback_type": "Документы"})

	// Existing screen: truncate to and including it, replacing params.
	err := nav.GotoTruncate(ctx, 1, state.ScreenIdentityChoice, map[string]string{"category": "Другое"})
	if err != nil {
		t.Fatalf("GotoTruncate failed: %v", err)
	}
	cur, _ := nav.Current(ctx, 1)
	if cur.Screen != state.ScreenIdentityChoice {
		t.Fatalf("expected identity_choice, got %q", cur.Screen)
	}
	if cur.Params["category"] != "Другое" {
		t.Errorf("params not replaced: %v", cur.Params)
	}

	// Unknown screen behaves like push.
	if err := nav.GotoTruncate(ctx, 1, state.ScreenFeedbackAck, nil); err != nil {
		t.Fatalf("GotoTruncate failed: %v", err)
	}
	if cur, _ = nav.Current(ctx, 1); cur.Screen != state.ScreenFeedbackAck {
		t.Errorf("expected pushed feedback_ack, got %q", cur.Screen)
	}
}

func TestNavCorruptStateResets(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	nav := state.NewNavStack(kv)

	if err := kv.Set(ctx, "nav_stack:1", "{not json", 0); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	cur, err := nav.Current(ctx, 1)
	if err != nil {
		t.Fatalf("Current must not fail on corrupt state: %v", err)
	}
	if cur.Screen != state.ScreenMain {
		t.Errorf("expected default main frame, got %q", cur.Screen)
	}
}
