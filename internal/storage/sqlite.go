package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/YanKarpov/HelpyHub/internal/feedback"
)

// Archive is the local ticket ledger kept next to the spreadsheet sink. The
// spreadsheet is best-effort and can be unreachable; the archive records every
// accepted submission and its resolution so nothing is lost in the meantime.
//
// Uses modernc.org/sqlite — pure Go, so no CGO headaches in CI/CD.
type Archive struct {
	db *sql.DB
}

// NewArchive opens (or creates) the database at the given path and ensures
// the schema exists. Caller is responsible for calling Close() when done.
func NewArchive(path string) (*Archive, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Archive{db: db}, nil
}

func migrate(db *sql.DB) error {
	const stmt = `CREATE TABLE IF NOT EXISTS tickets (
        id TEXT PRIMARY KEY,
        user_id INTEGER NOT NULL,
        display_name TEXT NOT NULL,
        category TEXT NOT NULL,
        text TEXT NOT NULL,
        is_named INTEGER NOT NULL,
        status TEXT NOT NULL,
        answer TEXT NOT NULL DEFAULT '',
        admin_id INTEGER,
        admin_name TEXT NOT NULL DEFAULT '',
        created_at TIMESTAMP NOT NULL,
        resolved_at TIMESTAMP
    );
    CREATE INDEX IF NOT EXISTS tickets_user_status ON tickets(user_id, status);`
	_, err := db.Exec(stmt)
	return err
}

// AppendTicket records an accepted submission. Duplicate ticket IDs are
// ignored to keep the sink idempotent under retries.
func (a *Archive) AppendTicket(ctx context.Context, t feedback.Ticket) error {
	_, err := a.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO tickets(id, user_id, display_name, category, text, is_named, status, created_at)
         VALUES(?, ?, ?, ?, ?, ?, ?, ?);`,
		t.ID, t.UserID, t.DisplayName, t.Category, t.Text, boolToInt(t.Named), feedback.StatusOpen, t.CreatedAt)
	return err
}

// UpdateTicket closes the user's oldest open ticket with the admin's answer.
func (a *Archive) UpdateTicket(ctx context.Context, userID int64, answer string, adminID int64, adminName, status string) error {
	_, err := a.db.ExecContext(ctx,
		`UPDATE tickets SET status = ?, answer = ?, admin_id = ?, admin_name = ?, resolved_at = ?
         WHERE id = (
             SELECT id FROM tickets WHERE user_id = ? AND status = ? ORDER BY created_at LIMIT 1
         );`,
		status, answer, adminID, adminName, time.Now(), userID, feedback.StatusOpen)
	return err
}

// OpenTickets counts submissions still awaiting a reply. Feeds the metrics
// sweep.
func (a *Archive) OpenTickets(ctx context.Context) (int, error) {
	var n int
	err := a.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tickets WHERE status = ?;`, feedback.StatusOpen).Scan(&n)
	return n, err
}

// Close closes the underlying *sql.DB.
func (a *Archive) Close() error {
	return a.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
