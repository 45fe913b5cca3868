package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/juju/clock"

	"github.com/moonseer/church-planner-sub001/cmd/internal/remote/classify"
	"github.com/moonseer/church-planner-sub001/cmd/internal/remote/retry"
)

// maxBodyBytes caps how much of any response is read.
const maxBodyBytes = 64 << 10

// Session is an issued session token as returned by POST /authenticate.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionInfo is the decoded claims view returned by GET /session.
type SessionInfo struct {
	SubjectID string         `json:"subject_id"`
	TokenID   string         `json:"token_id"`
	IssuedAt  time.Time      `json:"issued_at"`
	ExpiresAt time.Time      `json:"expires_at"`
	Extra     map[string]any `json:"extra"`
}

// Client talks to the auth API. It is safe for concurrent use.
type Client struct {
	base       *url.URL
	http       *http.Client
	policy     retry.Policy
	classifier classify.Classifier
	clock      clock.Clock
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithClassifier replaces classify.Default.
func WithClassifier(cl classify.Classifier) Option {
	return func(c *Client) {
		if cl != nil {
			c.classifier = cl
		}
	}
}

// WithClock sets the clock used for retry waits.
func WithClock(clk clock.Clock) Option {
	return func(c *Client) {
		if clk != nil {
			c.clock = clk
		}
	}
}

// WithLogger sets the logger used for retry notices (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New builds a Client from cfg.
func New(cfg Config, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("client: invalid base url %q", cfg.BaseURL)
	}
	if err := cfg.Retry.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		base:       base,
		http:       &http.Client{Timeout: cfg.Timeout},
		policy:     cfg.Retry,
		classifier: classify.Default(),
		clock:      clock.WallClock,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Authenticate exchanges credentials for a session token.
func (c *Client) Authenticate(ctx context.Context, identity, secret string) (Session, error) {
	body, err := json.Marshal(struct {
		Identity string `json:"identity"`
		Secret   string `json:"secret"`
	}{identity, secret})
	if err != nil {
		return Session{}, err
	}

	return retry.Call(ctx, func(ctx context.Context) (Session, error) {
		var out Session
		err := c.do(ctx, http.MethodPost, "/authenticate", body, "", &out)
		return out, err
	}, c.policy, c.classifier, c.retryOptions("authenticate")...)
}

// Session reports the claims of tok as seen by the server.
func (c *Client) Session(ctx context.Context, tok string) (SessionInfo, error) {
	return retry.Call(ctx, func(ctx context.Context) (SessionInfo, error) {
		var out SessionInfo
		err := c.do(ctx, http.MethodGet, "/session", nil, tok, &out)
		return out, err
	}, c.policy, c.classifier, c.retryOptions("session")...)
}

func (c *Client) retryOptions(op string) []retry.Option {
	return []retry.Option{
		retry.WithClock(c.clock),
		retry.WithNotify(func(r retry.Retry) {
			c.logger.Warn("client.retry",
				"op", op,
				"attempt", r.Attempt,
				"kind", string(r.Err.Kind),
				"status", r.Err.HTTPStatus,
				"wait", r.Wait,
			)
		}),
	}
}

// do performs one attempt. Non-2xx responses become *classify.ResponseError and undecodable
// 2xx bodies *classify.MalformedResponseError; transport failures are returned as-is.
func (c *Client) do(ctx context.Context, method, path string, body []byte, bearer string, dst any) error {
	u := c.base.JoinPath(path)

	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return &classify.MalformedResponseError{StatusCode: resp.StatusCode, Err: err}
		}
		raw = nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &classify.ResponseError{StatusCode: resp.StatusCode, Body: raw}
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return &classify.MalformedResponseError{StatusCode: resp.StatusCode, Err: err}
	}
	return nil
}
