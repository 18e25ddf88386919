package storage_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/YanKarpov/HelpyHub/internal/feedback"
	"github.com/YanKarpov/HelpyHub/internal/storage"
)

func newArchive(t *testing.T) *storage.Archive {
	t.Helper()
	a, err := storage.NewArchive(filepath.Join(t.TempDir(), "tickets.db"))
	if err != nil {
		t.Fatalf("NewArchive failed: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func ticket(id string, userID int64, createdAt time.Time) feedback.Ticket {
	return feedback.Ticket{
		ID:          id,
		UserID:      userID,
		DisplayName: "@vasya",
		Category:    "Другое",
		Text:        "Принтер не работает",
		Named:       true,
		CreatedAt:   createdAt,
	}
}

func TestArchiveAppendAndCount(t *testing.T) {
	ctx := context.Background()
	a := newArchive(t)

	now := time.Now()
	if err := a.AppendTicket(ctx, ticket("t-1", 42, now)); err != nil {
		t.Fatalf("AppendTicket failed: %v", err)
	}
	if err := a.AppendTicket(ctx, ticket("t-2", 43, now)); err != nil {
		t.Fatalf("AppendTicket failed: %v", err)
	}
	// Retried appends of the same ticket must not duplicate rows.
	if err := a.AppendTicket(ctx, ticket("t-1", 42, now)); err != nil {
		t.Fatalf("idempotent append failed: %v", err)
	}

	n, err := a.OpenTickets(ctx)
	if err != nil {
		t.Fatalf("OpenTickets failed: %v", err)
	}
	if n != 2 {
		t.Errorf("open tickets = %d, want 2", n)
	}
}

func TestArchiveUpdateClosesOldestOpen(t *testing.T) {
	ctx := context.Background()
	a := newArchive(t)

	base := time.Now()
	if err := a.AppendTicket(ctx, ticket("t-old", 42, base.Add(-time.Hour))); err != nil {
		t.Fatalf("AppendTicket failed: %v", err)
	}
	if err := a.AppendTicket(ctx, ticket("t-new", 42, base)); err != nil {
		t.Fatalf("AppendTicket failed: %v", err)
	}

	if err := a.UpdateTicket(ctx, 42, "Починили", 7, "@adm", feedback.StatusClosed); err != nil {
		t.Fatalf("UpdateTicket failed: %v", err)
	}

	n, err := a.OpenTickets(ctx)
	if err != nil {
		t.Fatalf("OpenTickets failed: %v", err)
	}
	if n != 1 {
		t.Errorf("open tickets after update = %d, want 1", n)
	}

	// The second resolution closes the remaining row.
	if err := a.UpdateTicket(ctx, 42, "И это тоже", 7, "@adm", feedback.StatusClosed); err != nil {
		t.Fatalf("UpdateTicket failed: %v", err)
	}
	if n, _ = a.OpenTickets(ctx); n != 0 {
		t.Errorf("open tickets = %d, want 0", n)
	}
}

func TestArchiveUpdateIgnoresOtherUsers(t *testing.T) {
	ctx := context.Background()
	a := newArchive(t)

	if err := a.AppendTicket(ctx, ticket("t-1", 42, time.Now())); err != nil {
		t.Fatalf("AppendTicket failed: %v", err)
	}

	// No open row for this user: the update is a no-op, not an error.
	if err := a.UpdateTicket(ctx, 99, "ответ", 7, "@adm", feedback.StatusClosed); err != nil {
		t.Fatalf("UpdateTicket failed: %v", err)
	}
	if n, _ := a.OpenTickets(ctx); n != 1 {
		t.Errorf("open tickets = %d, want 1", n)
	}
}
