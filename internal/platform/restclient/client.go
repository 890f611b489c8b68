// Package restclient maps one method call to one JSON HTTP request and
// normalises every failure into *Error.
package restclient

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
)

// TokenSource supplies the bearer token for authenticated calls. An empty
// token means the request is sent without an Authorization header.
type TokenSource interface {
	Token() string
}

type Request struct {
	Method string
	// Path segments are joined with "/" and escaped individually.
	Path     []string
	Query    url.Values
	Body     any
	Fallback string
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	logger     *slog.Logger
}

// New builds a client for baseURL. tokens and logger may be nil.
func New(baseURL string, httpClient *http.Client, tokens TokenSource, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		tokens:     tokens,
		logger:     logger,
	}
}

// Do performs req and decodes the response body into out when out is non-nil.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	target, err := c.buildURL(req)
	if err != nil {
		return &Error{Message: req.Fallback, Err: err}
	}

	var body io.Reader
	if req.Body != nil {
		raw, err := json.Marshal(req.Body)
		if err != nil {
			return &Error{Message: req.Fallback, Err: fmt.Errorf("encode request: %w", err)}
		}
		body = bytes.NewReader(raw)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return &Error{Message: req.Fallback, Err: fmt.Errorf("build request: %w", err)}
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error("rest call failed",
			slog.String("method", req.Method),
			slog.String("url", target),
			slog.String("error", err.Error()),
		)
		return &Error{Message: req.Fallback, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Status: resp.StatusCode, Message: req.Fallback, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := serverMessage(raw)
		if msg == "" {
			msg = req.Fallback
		}
		c.logger.Warn("rest call rejected",
			slog.String("method", req.Method),
			slog.String("url", target),
			slog.Int("status", resp.StatusCode),
			slog.String("message", msg),
		)
		return &Error{Status: resp.StatusCode, Message: msg}
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Status: resp.StatusCode, Message: req.Fallback, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func (c *Client) buildURL(req Request) (string, error) {
	segments := make([]string, 0, len(req.Path))
	for _, p := range req.Path {
		segments = append(segments, url.PathEscape(p))
	}
	target := c.baseURL + "/" + strings.Join(segments, "/")
	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}
	return u.String(), nil
}

// serverMessage extracts the "message" field of a JSON error body, or ""
// when the body is not JSON or carries no message.
func serverMessage(raw []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	if strings.TrimSpace(payload.Message) != "" {
		return payload.Message
	}
	return strings.TrimSpace(payload.Error)
}
