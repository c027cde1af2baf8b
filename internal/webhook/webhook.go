// Package webhook delivers document notifications to an external HTTP
// endpoint.
//
// The package owns one outbound side effect: a single, bounded-time,
// optionally authenticated POST per notification. There is no retry
// queue, no delivery-status persistence, and no fan-out; the receiving
// endpoint is responsible for actual delivery to the end user.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/steelhand/steelhand/internal/log"
)

// DefaultTimeout bounds the entire request, connect through response.
const DefaultTimeout = 10 * time.Second

// timestampLayout renders a UTC instant with an explicit +00:00 offset,
// e.g. "2026-02-06T16:30:00+00:00".
const timestampLayout = "2006-01-02T15:04:05-07:00"

// Notification is the document-delivery record sent to the webhook.
// It is immutable once built; one notification maps to exactly one HTTP
// attempt.
type Notification struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	Recipient string `json:"recipient"`
	Timestamp string `json:"timestamp"`
}

// NewNotification assembles a notification from caller-supplied fields.
// Title and url pass through verbatim; an empty recipient means "use
// ambient session context" and is a valid value, not an error. The
// timestamp is generated here, never caller-supplied. Pure data assembly:
// it cannot fail.
func NewNotification(title, url, recipient string) Notification {
	return Notification{
		Title:     title,
		URL:       url,
		Recipient: recipient,
		Timestamp: time.Now().UTC().Format(timestampLayout),
	}
}

// Outcome classifies the result of one delivery attempt. The four values
// are mutually exclusive and cover every possible transport result.
type Outcome int

const (
	// Delivered means the endpoint answered with a 2xx status.
	Delivered Outcome = iota

	// TimedOut means the request did not complete within the timeout
	// ceiling. Distinct from generic connection failure.
	TimedOut

	// Unreachable means the endpoint could not be reached at all: DNS
	// failure, refused connection, TLS failure, anything before a
	// response was received.
	Unreachable

	// Rejected means a response was received but its status was outside
	// the 2xx range.
	Rejected
)

// Result is the outcome of one webhook attempt.
type Result struct {
	Outcome Outcome

	// Title echoes the notification title for user-facing confirmation.
	Title string

	// StatusCode is set only when Outcome is Rejected.
	StatusCode int
}

// Config configures a Dispatcher.
type Config struct {
	// URL is the webhook endpoint. Required. The URL is deliberately not
	// validated or normalized here; callers are trusted.
	URL string

	// Secret, when non-empty, is attached to every request as
	// "Authorization: Bearer <secret>". When empty, no Authorization
	// header is sent at all.
	Secret string

	// Timeout bounds the entire request. Zero means DefaultTimeout.
	Timeout time.Duration
}

// Dispatcher performs the outbound webhook call. It is stateless after
// construction and safe for concurrent use.
type Dispatcher struct {
	url    string
	secret string
	client *http.Client
	logger log.Logger
}

// NewDispatcher creates a Dispatcher. The URL must be non-empty: whether
// document delivery is available at all is decided once at startup, by
// whoever assembles the tool list, never inside Send.
func NewDispatcher(cfg Config, logger log.Logger) (*Dispatcher, error) {
	if cfg.URL == "" {
		return nil, errors.New("webhook URL is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Dispatcher{
		url:    cfg.URL,
		secret: cfg.Secret,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}, nil
}

// Send delivers the notification. Exactly one HTTP attempt is made per
// call, regardless of outcome. Every transport fault maps to one of the
// four Result outcomes. Send never returns a Go error, so the caller can
// always produce a user-facing sentence instead of failing the
// surrounding agent turn.
func (d *Dispatcher) Send(ctx context.Context, n Notification) Result {
	body, err := json.Marshal(n)
	if err != nil {
		// Four plain string fields cannot fail to marshal; treat the
		// impossible case as an unreachable endpoint rather than panic.
		d.logger.Error("marshaling notification", "error", err)
		return Result{Outcome: Unreachable, Title: n.Title}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		d.logger.Error("building webhook request", "error", err)
		return Result{Outcome: Unreachable, Title: n.Title}
	}
	req.Header.Set("Content-Type", "application/json")
	if d.secret != "" {
		req.Header.Set("Authorization", "Bearer "+d.secret)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			d.logger.Error("webhook timed out", "title", n.Title)
			return Result{Outcome: TimedOut, Title: n.Title}
		}
		d.logger.Error("webhook unreachable", "title", n.Title, "error", err)
		return Result{Outcome: Unreachable, Title: n.Title}
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body) // drain for connection reuse

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		d.logger.Info("document sent via webhook", "title", n.Title, "url", n.URL)
		return Result{Outcome: Delivered, Title: n.Title}
	}

	d.logger.Error("webhook rejected notification", "title", n.Title, "status", resp.StatusCode)
	return Result{Outcome: Rejected, Title: n.Title, StatusCode: resp.StatusCode}
}

// isTimeout reports whether err represents an exceeded deadline rather
// than a generic connection failure. Checked before the generic case so
// the two outcomes stay mutually exclusive.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
