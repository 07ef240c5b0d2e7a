package rpsclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/park285/Cheese-RPS-bot/internal/rps"
	"github.com/park285/Cheese-RPS-bot/pkg/rpsdto"
)

// HeaderProvider allows injecting per-request headers
type HeaderProvider func() map[string]string

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status int
	rpsdto.DomainError
}

func (e *APIError) Error() string {
	return fmt.Sprintf("rps api error: status=%d code=%s: %s", e.Status, e.Code, e.Message)
}

type Client struct {
	baseURL string
	http    *fasthttp.Client
	headers HeaderProvider

	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.defaultTimeout = d }
}

func WithHeaderProvider(h HeaderProvider) Option {
	return func(c *Client) { c.headers = h }
}

func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

// WithDial replaces the TCP dialer, e.g. with an in-memory listener.
func WithDial(dial func(addr string) (net.Conn, error)) Option {
	return func(c *Client) { c.http.Dial = dial }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 16},
		defaultTimeout: 10 * time.Second,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StartGame opens a game as sender against opponent.
func (c *Client) StartGame(ctx context.Context, sender, opponent string, first rps.Move) (*rpsdto.Response, error) {
	msg := rpsdto.ExecuteMsg{StartGame: &rpsdto.StartGame{Addr: opponent, FirstMove: first}}
	var resp rpsdto.Response
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/execute", sender, msg, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SubmitMove answers host's game as sender.
func (c *Client) SubmitMove(ctx context.Context, sender, host string, move rps.Move) (*rpsdto.Response, error) {
	msg := rpsdto.ExecuteMsg{SubmitMove: &rpsdto.SubmitMove{Addr: host, Move: move}}
	var resp rpsdto.Response
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/execute", sender, msg, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) HostGames(ctx context.Context, host string) (*rpsdto.GamesResponse, error) {
	msg := rpsdto.QueryMsg{QueryHostGames: &rpsdto.QueryHostGames{Addr: host}}
	var resp rpsdto.GamesResponse
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/query", "", msg, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) AllGames(ctx context.Context) (*rpsdto.GamesResponse, error) {
	msg := rpsdto.QueryMsg{QueryAllGames: &rpsdto.QueryAllGames{}}
	var resp rpsdto.GamesResponse
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/query", "", msg, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) History(ctx context.Context, player string, limit int) (*rpsdto.HistoryResponse, error) {
	msg := rpsdto.QueryMsg{QueryHistory: &rpsdto.QueryHistory{Addr: player, Limit: limit}}
	var resp rpsdto.HistoryResponse
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/query", "", msg, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Health(ctx context.Context) error {
	return c.doJSON(ctx, fasthttp.MethodGet, "/healthz", "", nil, nil, true)
}

// doJSON retries only when retry is set; execute calls are never retried.
func (c *Client) doJSON(ctx context.Context, method, path, sender string, in any, out any, retry bool) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	req.Header.SetContentType("application/json")

	if c.headers != nil {
		for k, v := range c.headers() {
			if strings.TrimSpace(k) != "" && strings.TrimSpace(v) != "" {
				req.Header.Set(k, v)
			}
		}
	}
	if sender != "" {
		req.Header.Set("X-User-Id", sender)
	}

	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		req.SetBody(payload)
	}

	attempts := 1
	if retry && c.retryMax > 1 {
		attempts = c.retryMax
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx))
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
		} else if status := resp.StatusCode(); status < 200 || status >= 300 {
			apiErr := decodeAPIError(status, resp.Body())
			if !shouldRetryStatus(status) {
				return apiErr
			}
			lastErr = apiErr
		} else {
			if out != nil {
				if err := json.Unmarshal(resp.Body(), out); err != nil {
					return fmt.Errorf("decode response: %w", err)
				}
			}
			return nil
		}

		if attempt == attempts {
			break
		}
		if sleepErr := c.sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
			break
		}
	}

	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return lastErr
}

func decodeAPIError(status int, body []byte) *APIError {
	var eb rpsdto.ErrorBody
	if err := json.Unmarshal(body, &eb); err != nil || eb.Error.Code == "" {
		eb.Error = rpsdto.DomainError{Code: rpsdto.CodeInternal, Message: truncate(string(body), 512), Retryable: status >= 500}
	}
	return &APIError{Status: status, DomainError: eb.Error}
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	if dl, ok := ctx.Deadline(); ok {
		clientDL := time.Now().Add(c.defaultTimeout)
		if dl.Before(clientDL) {
			return dl
		}
		return clientDL
	}
	return time.Now().Add(c.defaultTimeout)
}

func (c *Client) sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	base := 100 * time.Millisecond
	return time.Duration(1<<uint(attempt-1)) * base // 100ms, 200ms ...
}

func shouldRetryStatus(code int) bool {
	switch code {
	case 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
