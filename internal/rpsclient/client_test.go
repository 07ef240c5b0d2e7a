package rpsclient

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"github.com/park285/Cheese-RPS-bot/internal/rps"
	"github.com/park285/Cheese-RPS-bot/pkg/rpsdto"
)

func serve(t *testing.T, h fasthttp.RequestHandler) *Client {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	go func() { _ = fasthttp.Serve(ln, h) }()
	t.Cleanup(func() { _ = ln.Close() })
	return NewClient("http://rps.test",
		WithDial(func(string) (net.Conn, error) { return ln.Dial() }),
		WithTimeout(2*time.Second),
	)
}

func TestQueryRetriesOn5xx(t *testing.T) {
	var calls atomic.Int32
	c := serve(t, func(ctx *fasthttp.RequestCtx) {
		if calls.Add(1) < 3 {
			ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
			ctx.SetBodyString(`{"error":{"code":"internal","message":"busy","retryable":true}}`)
			return
		}
		ctx.SetContentType("application/json")
		ctx.SetBodyString(`{"games":[]}`)
	})

	got, err := c.AllGames(context.Background())
	if err != nil {
		t.Fatalf("AllGames: %v", err)
	}
	if len(got.Games) != 0 || calls.Load() != 3 {
		t.Fatalf("expected 3 calls and empty list, got calls=%d games=%d", calls.Load(), len(got.Games))
	}
}

func TestExecuteIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := serve(t, func(ctx *fasthttp.RequestCtx) {
		calls.Add(1)
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		ctx.SetBodyString(`{"error":{"code":"internal","message":"boom","retryable":true}}`)
	})

	_, err := c.StartGame(context.Background(), "creator", "an_opponent", rps.Rock)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != rpsdto.CodeInternal || !apiErr.Retryable {
		t.Fatalf("expected retryable internal APIError, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("execute must not be retried, got %d calls", calls.Load())
	}
}

func TestDecodesDomainErrorAndSender(t *testing.T) {
	var sender atomic.Value
	c := serve(t, func(ctx *fasthttp.RequestCtx) {
		sender.Store(string(ctx.Request.Header.Peek("X-User-Id")))
		ctx.SetStatusCode(fasthttp.StatusConflict)
		ctx.SetBodyString(`{"error":{"code":"game_in_progress","message":"creator already has a game with an_opponent"}}`)
	})

	_, err := c.StartGame(context.Background(), "creator", "an_opponent", rps.Paper)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != fasthttp.StatusConflict || apiErr.Code != rpsdto.CodeGameInProgress {
		t.Fatalf("unexpected error: %+v", apiErr)
	}
	if got, _ := sender.Load().(string); got != "creator" {
		t.Fatalf("sender header = %q", got)
	}
}

func TestNonJSONErrorBody(t *testing.T) {
	c := serve(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusBadGateway)
		ctx.SetBodyString("upstream down")
	})
	err := NewClient("http://rps.test", WithRetry(1), WithDial(c.http.Dial)).Health(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "upstream down" || !apiErr.Retryable {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBackoffDuration(t *testing.T) {
	if backoffDuration(0) != 100*time.Millisecond || backoffDuration(3) != 400*time.Millisecond {
		t.Fatalf("unexpected backoff values")
	}
	if backoffDuration(10) != backoffDuration(6) {
		t.Fatalf("backoff must be capped")
	}
}
