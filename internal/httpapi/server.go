package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/park285/Cheese-RPS-bot/internal/address"
	"github.com/park285/Cheese-RPS-bot/internal/game"
	"github.com/park285/Cheese-RPS-bot/internal/msgcat"
	"github.com/park285/Cheese-RPS-bot/internal/obslog"
	"github.com/park285/Cheese-RPS-bot/internal/query"
)

const (
	HeaderUserID    = "X-User-Id"
	HeaderRequestID = "X-Request-Id"
)

// Server exposes the engine and query service over fasthttp.
type Server struct {
	engine    *game.Engine
	queries   *query.Service
	validator address.Validator
	msgs      *msgcat.Catalog
	logger    *zap.Logger

	opTimeout time.Duration
	srv       *fasthttp.Server
}

type Option func(*Server)

func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTimeouts sets the socket read/write timeouts; the write timeout also bounds each store operation.
func WithTimeouts(read, write time.Duration) Option {
	return func(s *Server) {
		if read > 0 {
			s.srv.ReadTimeout = read
		}
		if write > 0 {
			s.srv.WriteTimeout = write
			s.opTimeout = write
		}
	}
}

func New(engine *game.Engine, queries *query.Service, validator address.Validator, msgs *msgcat.Catalog, opts ...Option) *Server {
	if validator == nil {
		validator = address.Rules{}
	}
	s := &Server{
		engine:    engine,
		queries:   queries,
		validator: validator,
		msgs:      msgs,
		logger:    obslog.L(),
		opTimeout: 10 * time.Second,
		srv: &fasthttp.Server{
			Name:               "rps-server",
			ReadTimeout:        10 * time.Second,
			WriteTimeout:       10 * time.Second,
			MaxRequestBodySize: 64 << 10,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.srv.Handler = s.Handler()
	s.srv.Logger = zap.NewStdLog(s.logger)
	return s
}

// Handler returns the routed handler wrapped with request logging.
func (s *Server) Handler() fasthttp.RequestHandler {
	return s.withRequestLog(s.route)
}

func (s *Server) ListenAndServe(addr string) error { return s.srv.ListenAndServe(addr) }

func (s *Server) Serve(ln net.Listener) error { return s.srv.Serve(ln) }

func (s *Server) Shutdown(ctx context.Context) error { return s.srv.ShutdownWithContext(ctx) }

func (s *Server) route(ctx *fasthttp.RequestCtx) {
	path := string(ctx.Path())
	switch path {
	case "/execute":
		if !requireMethod(ctx, fasthttp.MethodPost) {
			return
		}
		s.handleExecute(ctx)
	case "/query":
		if !requireMethod(ctx, fasthttp.MethodPost) {
			return
		}
		s.handleQuery(ctx)
	case "/healthz":
		if !requireMethod(ctx, fasthttp.MethodGet) {
			return
		}
		respondJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "ok"})
	default:
		s.respondError(ctx, errNotFound, msgData{"Path": path})
	}
}

func (s *Server) withRequestLog(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()
		reqID := string(ctx.Request.Header.Peek(HeaderRequestID))
		if reqID == "" {
			reqID = uuid.NewString()
		}
		ctx.SetUserValue(HeaderRequestID, reqID)
		ctx.Response.Header.Set(HeaderRequestID, reqID)

		next(ctx)

		s.logger.Info("http_request",
			zap.String("request_id", reqID),
			zap.String("method", string(ctx.Method())),
			zap.String("path", string(ctx.Path())),
			zap.String("user", string(ctx.Request.Header.Peek(HeaderUserID))),
			zap.Int("status", ctx.Response.StatusCode()),
			zap.Duration("took", time.Since(start)),
		)
	}
}

// opContext bounds store work for one request.
func (s *Server) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.opTimeout)
}

func requireMethod(ctx *fasthttp.RequestCtx, method string) bool {
	if string(ctx.Method()) == method {
		return true
	}
	ctx.Response.Header.Set("Allow", method)
	respondJSON(ctx, fasthttp.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	return false
}

func respondJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		ctx.Error(`{"error":{"code":"internal","message":"encode response"}}`, fasthttp.StatusInternalServerError)
		ctx.SetContentType("application/json")
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}

// decodeBody rejects empty and malformed JSON bodies.
func decodeBody(ctx *fasthttp.RequestCtx, v any) error {
	body := ctx.PostBody()
	if len(body) == 0 {
		return invalidRequest("empty body")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return invalidRequest(err.Error())
	}
	return nil
}

var errNotFound = errors.New("not found")
