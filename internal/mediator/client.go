// Package mediator is the HTTP client for browser mediators.
//
// A mediator is the small companion process that a browser extension
// starts on a loopback port. It answers plain-text HTTP requests; the
// contract used here is:
//
//	GET /list_tabs                 newline-delimited tab lines
//	GET /get_active_tabs           comma-separated <window>.<tab> ids
//	GET /close_tabs/<id,id,…>      close tabs by id
//	GET /activate_tab/<id>         switch to a tab (?focused=1 raises the window)
//	GET /get_browser               browser name
//	GET /get_pid                   mediator process id
//
// Any non-2xx status is reported as a *StatusError. The contract is owned
// by the mediator; this package does not interpret tab lines.
package mediator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shinji-kodama/brotab/internal/model"
)

// DefaultTimeout bounds a whole request, from dial to the last body byte.
// Zero disables the bound, in which case a hung mediator blocks its caller
// until the process is killed.
const DefaultTimeout = 10 * time.Second

// defaultHost is the host name requests are addressed to. Mediators bind
// to the loopback interface only.
const defaultHost = "localhost"

// StatusError is returned when a mediator answers with a non-success status.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

// Error satisfies the error interface.
func (e *StatusError) Error() string {
	msg := fmt.Sprintf("GET %s: unexpected status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Client talks to mediators over HTTP. A single Client is shared by all
// concurrent fetches; each request owns its own connection and response.
type Client struct {
	http   *http.Client
	host   string
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithHost overrides the host requests are sent to.
func WithHost(host string) Option {
	return func(c *Client) { c.host = host }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a Client whose requests are bounded by timeout.
func NewClient(timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		http:   &http.Client{Timeout: timeout},
		host:   defaultHost,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListTabs fetches the raw tab listing of the mediator on port. The body
// is returned verbatim; splitting into records is the caller's business.
func (c *Client) ListTabs(ctx context.Context, port model.Port) (string, error) {
	return c.get(ctx, port, "/list_tabs")
}

// ActiveTabs fetches the ids of the active tab of every window, as the raw
// comma-separated body.
func (c *Client) ActiveTabs(ctx context.Context, port model.Port) (string, error) {
	return c.get(ctx, port, "/get_active_tabs")
}

// CloseTabs asks the mediator on port to close the given tabs. The ids are
// the bare per-browser tab ids, without client letter or window.
func (c *Client) CloseTabs(ctx context.Context, port model.Port, tabIDs []string) error {
	if len(tabIDs) == 0 {
		return nil
	}
	escaped := make([]string, len(tabIDs))
	for i, id := range tabIDs {
		escaped[i] = url.PathEscape(id)
	}
	_, err := c.get(ctx, port, "/close_tabs/"+strings.Join(escaped, ","))
	return err
}

// ActivateTab asks the mediator on port to switch to a tab. When focused
// is set the browser window is raised as well.
func (c *Client) ActivateTab(ctx context.Context, port model.Port, tabID string, focused bool) error {
	path := "/activate_tab/" + url.PathEscape(tabID)
	if focused {
		path += "?focused=1"
	}
	_, err := c.get(ctx, port, path)
	return err
}

// Browser returns the browser name reported by the mediator.
func (c *Client) Browser(ctx context.Context, port model.Port) (string, error) {
	body, err := c.get(ctx, port, "/get_browser")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(body), nil
}

// PID returns the process id of the mediator.
func (c *Client) PID(ctx context.Context, port model.Port) (int, error) {
	body, err := c.get(ctx, port, "/get_pid")
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(body))
	if err != nil {
		return 0, fmt.Errorf("parse pid from localhost:%d: %w", port, err)
	}
	return pid, nil
}

// get issues a GET request and returns the full body as text.
func (c *Client) get(ctx context.Context, port model.Port, path string) (string, error) {
	u := "http://" + c.host + ":" + port.String() + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("build request %s: %w", u, err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("GET %s: %w", u, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response from %s: %w", u, err)
	}

	c.logger.Debug("mediator request",
		slog.String("url", u),
		slog.Int("status", resp.StatusCode),
		slog.Int("bytes", len(body)),
		slog.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{
			URL:        u,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}
	return string(body), nil
}
