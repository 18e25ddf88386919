package state_test

import (
	"context"
	"testing"
	"time"

	"github.com/YanKarpov/HelpyHub/internal/state"
	"github.com/YanKarpov/HelpyHub/internal/storage"
)

func TestAdmissionInvariant(t *testing.T) {
	ctx := context.Background()
	gate := state.NewAdmissionGate(storage.NewMemory())

	can, err := gate.CanOpenNewTicket(ctx, 1)
	if err != nil || !can {
		t.Fatalf("fresh user must be admitted: can=%v err=%v", can, err)
	}

	if err := gate.Lock(ctx, 1, state.LockTTL); err != nil {
		t.Fatalf("Lock failed: %v", err)
	}
	if can, _ := gate.CanOpenNewTicket(ctx, 1); can {
		t.Error("locked user admitted")
	}

	if err := gate.Unlock(ctx, 1); err != nil {
		t.Fatalf("Unlock failed: %v", err)
	}
	if can, _ := gate.CanOpenNewTicket(ctx, 1); !can {
		t.Error("unlocked user still denied")
	}
}

func TestLockTTLSafetyNet(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	now := time.Now()
	kv.Now = func() time.Time { return now }
	gate := state.NewAdmissionGate(kv)

	if err := gate.Lock(ctx, 1, time.Hour); err != nil {
		t.Fatalf("Lock failed: %v", err)
	}

	now = now.Add(2 * time.Hour)
	if can, _ := gate.CanOpenNewTicket(ctx, 1); !can {
		t.Error("lock survived its TTL")
	}
}

func TestBlockIndependentOfLock(t *testing.T) {
	ctx := context.Background()
	gate := state.NewAdmissionGate(storage.NewMemory())

	if err := gate.Block(ctx, 1, 0); err != nil {
		t.Fatalf("Block failed: %v", err)
	}
	if blocked, _ := gate.IsBlocked(ctx, 1); !blocked {
		t.Fatal("block flag missing")
	}
	// The block flag does not occupy the admission lock.
	if can, _ := gate.CanOpenNewTicket(ctx, 1); !can {
		t.Error("block flag consumed the admission lock")
	}

	if err := gate.Unblock(ctx, 1); err != nil {
		t.Fatalf("Unblock failed: %v", err)
	}
	if blocked, _ := gate.IsBlocked(ctx, 1); blocked {
		t.Error("block flag survived Unblock")
	}
}

func TestBlockWithTTLExpires(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	now := time.Now()
	kv.Now = func() time.Time { return now }
	gate := state.NewAdmissionGate(kv)

	if err := gate.Block(ctx, 1, 30*time.Minute); err != nil {
		t.Fatalf("Block failed: %v", err)
	}
	now = now.Add(31 * time.Minute)
	if blocked, _ := gate.IsBlocked(ctx, 1); blocked {
		t.Error("timed block survived its TTL")
	}
}
