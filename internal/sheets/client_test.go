package sheets_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/YanKarpov/HelpyHub/internal/feedback"
	"github.com/YanKarpov/HelpyHub/internal/sheets"
)

type recordedRequest struct {
	method string
	path   string
	query  string
	auth   string
	body   valueRange
}

type valueRange struct {
	Values [][]string `json:"values"`
}

func TestAppendTicket(t *testing.T) {
	var got recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method = r.Method
		got.path = r.URL.Path
		got.query = r.URL.RawQuery
		got.auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got.body); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	cli := sheets.New("tok", "sheet-1", sheets.WithBaseURL(srv.URL))
	err := cli.AppendTicket(context.Background(), feedback.Ticket{
		ID:          "t-1",
		UserID:      42,
		DisplayName: "@vasya",
		Category:    "Другое",
		Text:        "Принтер не работает",
		Named:       true,
		CreatedAt:   time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("AppendTicket failed: %v", err)
	}

	if got.method != http.MethodPost {
		t.Errorf("method = %s", got.method)
	}
	if !strings.Contains(got.path, "/v4/spreadsheets/sheet-1/values/") || !strings.Contains(got.path, ":append") {
		t.Errorf("path = %s", got.path)
	}
	if got.auth != "Bearer tok" {
		t.Errorf("auth header = %q", got.auth)
	}
	if len(got.body.Values) != 1 {
		t.Fatalf("appended %d rows, want 1", len(got.body.Values))
	}
	row := got.body.Values[0]
	if len(row) != 10 {
		t.Fatalf("row has %d cells, want 10", len(row))
	}
	if row[0] != "2025-03-01" || row[1] != "12:30:00" {
		t.Errorf("timestamp cells = %q %q", row[0], row[1])
	}
	if row[2] != "42" || row[3] != "@vasya" || row[4] != "Другое" || row[5] != "Принтер не работает" {
		t.Errorf("ticket cells = %v", row[2:6])
	}
	if row[9] != feedback.StatusOpen {
		t.Errorf("status cell = %q", row[9])
	}
}

func TestUpdateTicketClosesOpenRow(t *testing.T) {
	var puts []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(valueRange{Values: [][]string{
				{"2025-03-01", "10:00:00", "7", "@petya", "Документы", "вопрос", "", "", "", feedback.StatusOpen},
				{"2025-03-01", "11:00:00", "42", "@vasya", "Другое", "старый", "ответ", "1", "@adm", "Вопрос закрыт"},
				{"2025-03-01", "12:30:00", "42", "@vasya", "Другое", "текст", "", "", "", feedback.StatusOpen},
			}})
		case http.MethodPut:
			var req recordedRequest
			req.path = r.URL.Path
			json.NewDecoder(r.Body).Decode(&req.body)
			puts = append(puts, req)
			w.Write([]byte(`{}`))
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	}))
	defer srv.Close()

	cli := sheets.New("tok", "sheet-1", sheets.WithBaseURL(srv.URL))
	err := cli.UpdateTicket(context.Background(), 42, "Починили", 7, "@adm", "Вопрос закрыт")
	if err != nil {
		t.Fatalf("UpdateTicket failed: %v", err)
	}

	if len(puts) != 2 {
		t.Fatalf("made %d PUTs, want 2", len(puts))
	}
	// The open row is the third value row, i.e. sheet row 4.
	if !strings.Contains(puts[0].path, "A4:B4") {
		t.Errorf("timestamp update path = %s", puts[0].path)
	}
	if !strings.Contains(puts[1].path, "G4:J4") {
		t.Errorf("answer update path = %s", puts[1].path)
	}
	row := puts[1].body.Values[0]
	want := []string{"Починили", "7", "@adm", "Вопрос закрыт"}
	for i, v := range want {
		if row[i] != v {
			t.Errorf("answer cell %d = %q, want %q", i, row[i], v)
		}
	}
}

func TestUpdateTicketNoOpenRow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(valueRange{Values: nil})
	}))
	defer srv.Close()

	cli := sheets.New("tok", "sheet-1", sheets.WithBaseURL(srv.URL))
	if err := cli.UpdateTicket(context.Background(), 42, "x", 1, "a", "s"); err == nil {
		t.Fatal("expected an error when no open row exists")
	}
}

func TestHTTPErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"PERMISSION_DENIED"}`, http.StatusForbidden)
	}))
	defer srv.Close()

	cli := sheets.New("tok", "sheet-1", sheets.WithBaseURL(srv.URL))
	err := cli.AppendTicket(context.Background(), feedback.Ticket{CreatedAt: time.Now()})
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected http 403 error, got %v", err)
	}
}
