package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/YanKarpov/HelpyHub/internal/feedback"
)

// DefaultHTTPTimeout sets the maximum duration of a single request.
const DefaultHTTPTimeout = 15 * time.Second

// Column layout of the ticket sheet (A..J):
// date, time, user id, display name, category, text, answer, admin id,
// admin handle, status.
const sheetRange = "A2:J"

// Client is a thin wrapper over the Sheets values API implementing the
// ticket log sink. It handles: auth header, base URL, rate limiting and JSON
// decoding. No retries here — the sink is best-effort by contract, the
// coordinator logs and moves on.
//
// Example:
//
//	cli := sheets.New(token, spreadsheetID,
//	    sheets.WithRateLimit(1, 2),
//	    sheets.WithLogger(log),
//	)
//	err := cli.AppendTicket(ctx, ticket)
type Client struct {
	httpClient    *http.Client
	baseURL       *url.URL
	token         string
	spreadsheetID string
	limiter       *rate.Limiter
	log           *zap.SugaredLogger
	now           func() time.Time
}

// Option mutates the client during construction.
type Option func(*Client)

// WithBaseURL overrides the default API endpoint.
func WithBaseURL(raw string) Option {
	return func(c *Client) {
		if raw == "" {
			return
		}
		u, err := url.Parse(raw)
		if err == nil {
			c.baseURL = u
		}
	}
}

// WithRateLimit sets the per-second rate and burst size.
// If rps <=0, limiter is disabled.
func WithRateLimit(rps, burst int) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// WithLogger allows injecting custom zap logger. If nil, a no-op logger will be used.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New constructs Client with mandatory token and spreadsheet ID.
func New(token, spreadsheetID string, opts ...Option) *Client {
	base, _ := url.Parse("https://sheets.googleapis.com")
	c := &Client{
		httpClient:    &http.Client{Timeout: DefaultHTTPTimeout},
		baseURL:       base,
		token:         token,
		spreadsheetID: spreadsheetID,
		limiter:       rate.NewLimiter(rate.Inf, 0),
		log:           zap.NewNop().Sugar(),
		now:           time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type valueRange struct {
	Values [][]string `json:"values"`
}

// AppendTicket appends one row for an accepted submission with the open
// status and empty answer columns.
func (c *Client) AppendTicket(ctx context.Context, t feedback.Ticket) error {
	row := []string{
		t.CreatedAt.Format("2006-01-02"),
		t.CreatedAt.Format("15:04:05"),
		strconv.FormatInt(t.UserID, 10),
		t.DisplayName,
		t.Category,
		t.Text,
		"", // answer
		"", // admin id
		"", // admin handle
		feedback.StatusOpen,
	}
	endpoint := c.valuesURL(sheetRange+":append") + "?valueInputOption=RAW&insertDataOption=INSERT_ROWS"
	return c.post(ctx, endpoint, valueRange{Values: [][]string{row}}, nil)
}

// UpdateTicket finds the user's open row and writes the answer, admin
// identity and new status into it.
func (c *Client) UpdateTicket(ctx context.Context, userID int64, answer string, adminID int64, adminName, status string) error {
	var current valueRange
	if err := c.get(ctx, c.valuesURL(sheetRange), &current); err != nil {
		return err
	}

	wantID := strconv.FormatInt(userID, 10)
	rowIdx := -1
	for i, row := range current.Values {
		if len(row) < 10 {
			continue
		}
		if row[2] == wantID && row[9] == feedback.StatusOpen {
			rowIdx = i + 2 // values start at sheet row 2
			break
		}
	}
	if rowIdx < 0 {
		return fmt.Errorf("no open row for user %d", userID)
	}

	now := c.now()
	updates := []struct {
		rng    string
		values []string
	}{
		{fmt.Sprintf("A%d:B%d", rowIdx, rowIdx), []string{now.Format("2006-01-02"), now.Format("15:04:05")}},
		{fmt.Sprintf("G%d:J%d", rowIdx, rowIdx), []string{answer, strconv.FormatInt(adminID, 10), adminName, status}},
	}
	for _, u := range updates {
		endpoint := c.valuesURL(u.rng) + "?valueInputOption=RAW"
		if err := c.put(ctx, endpoint, valueRange{Values: [][]string{u.values}}); err != nil {
			return err
		}
	}
	return nil
}

// --- internal helpers ---

func (c *Client) valuesURL(rng string) string {
	u := *c.baseURL // copy
	u.Path = fmt.Sprintf("/v4/spreadsheets/%s/values/%s", c.spreadsheetID, rng)
	return u.String()
}

func (c *Client) get(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	c.addAuthHeader(req)
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, endpoint string, payload any, out interface{}) error {
	return c.send(ctx, http.MethodPost, endpoint, payload, out)
}

func (c *Client) put(ctx context.Context, endpoint string, payload any) error {
	return c.send(ctx, http.MethodPut, endpoint, payload, nil)
}

func (c *Client) send(ctx context.Context, method, endpoint string, payload any, out interface{}) error {
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.addAuthHeader(req)
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	if err := c.wait(req.Context()); err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("sheets api http %d: %s", resp.StatusCode, string(b))
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) addAuthHeader(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil || c.limiter.Limit() == rate.Inf {
		return nil
	}
	return c.limiter.Wait(ctx)
}
