package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/knowledgeai/knowledge-console/internal/config"
)

// Auth endpoints, relative to the API url. A 401 from login, register or me
// is answered by the caller and does not expire the session.
const (
	PathLogin    = "/auth/login"
	PathRegister = "/auth/register"
	PathLogout   = "/auth/logout"
	PathMe       = "/auth/me"
)

// maxErrorBody bounds how much of an error answer is read for its message.
const maxErrorBody = 64 << 10

// Client talks JSON to the Knowledge API through the authorizing Transport.
type Client struct {
	base      *url.URL
	http      *http.Client
	userAgent string
}

// Option configures a Client.
type Option func(*Client, *Transport)

// WithOnExpired registers fn to run after a 401 reset the session.
func WithOnExpired(fn func()) Option {
	return func(_ *Client, t *Transport) {
		t.OnExpired = fn
	}
}

// WithRoundTripper replaces the network transport below the authorizing layer.
func WithRoundTripper(rt http.RoundTripper) Option {
	return func(_ *Client, t *Transport) {
		t.Base = rt
	}
}

// New returns a Client for cfg authorizing its requests with sess.
func New(cfg *config.API, sess Session, opts ...Option) (*Client, error) {
	if sess == nil {
		return nil, ErrSessionNil
	}

	if cfg.URL == "" {
		return nil, ErrEmptyBaseURL
	}

	base, err := url.Parse(strings.TrimRight(cfg.URL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "invalid knowledge api url")
	}

	c := &Client{base: base, userAgent: cfg.UserAgent}

	t := &Transport{
		Session:          sess,
		WaitForBootstrap: cfg.WaitForBootstrap,
	}
	t.Credential = c.isCredential

	for _, opt := range opts {
		opt(c, t)
	}

	c.http = &http.Client{Transport: t, Timeout: cfg.Timeout}

	return c, nil
}

// URL returns the absolute url of the API path.
func (c *Client) URL(path string) string {
	return c.base.String() + path
}

func (c *Client) isCredential(req *http.Request) bool {
	p := strings.TrimPrefix(req.URL.Path, c.base.Path)

	return p == PathLogin || p == PathRegister || p == PathMe
}

// Get decodes the answer of GET path into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

// Post sends in as JSON body and decodes the answer into out.
func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	return c.Do(ctx, http.MethodPost, path, nil, in, out)
}

// Delete issues DELETE path.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// Do runs one API call. in is sent as JSON when not nil, out receives the decoded
// answer when not nil. Non 2xx answers are returned as *Error, network failures
// wrap ErrTransport.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body io.Reader

	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "failed to encode request")
		}

		body = bytes.NewReader(raw)
	}

	target := c.URL(path)
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}

	req.Header.Set("Accept", "application/json")

	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return errors.Wrap(ctx.Err(), "request aborted")
		}

		return errors.Wrap(ErrTransport, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)

		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(ErrTransport, "invalid answer: "+err.Error())
	}

	return nil
}

// newError extracts the message of an error answer. FastAPI style answers carry
// it in "detail", others in "message".
func newError(resp *http.Response) *Error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var payload struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}

	msg := ""

	if json.Unmarshal(raw, &payload) == nil {
		var detail string
		if json.Unmarshal(payload.Detail, &detail) == nil {
			msg = detail
		} else if payload.Message != "" {
			msg = payload.Message
		}
	}

	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	return &Error{StatusCode: resp.StatusCode, Message: msg}
}
