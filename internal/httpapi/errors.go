package httpapi

import (
	"errors"
	"fmt"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/park285/Cheese-RPS-bot/internal/address"
	"github.com/park285/Cheese-RPS-bot/internal/game"
	"github.com/park285/Cheese-RPS-bot/internal/query"
	"github.com/park285/Cheese-RPS-bot/pkg/rpsdto"
)

var errInvalidRequest = errors.New("invalid request")

func invalidRequest(reason string) error {
	return fmt.Errorf("%w: %s", errInvalidRequest, reason)
}

// msgData feeds the catalog templates (Host, Opponent, Reason, Path).
type msgData map[string]string

// classify maps a domain error to its HTTP status and wire code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, address.ErrInvalidIdentifier):
		return fasthttp.StatusBadRequest, rpsdto.CodeInvalidIdentifier
	case errors.Is(err, errInvalidRequest):
		return fasthttp.StatusBadRequest, rpsdto.CodeInvalidRequest
	case errors.Is(err, game.ErrNoMove):
		return fasthttp.StatusBadRequest, rpsdto.CodeNoMove
	case errors.Is(err, game.ErrGameInProgress):
		return fasthttp.StatusConflict, rpsdto.CodeGameInProgress
	case errors.Is(err, game.ErrGameAlreadyResolved):
		return fasthttp.StatusConflict, rpsdto.CodeGameAlreadyResolved
	case errors.Is(err, game.ErrNoSuchGame):
		return fasthttp.StatusNotFound, rpsdto.CodeNoSuchGame
	case errors.Is(err, errNotFound):
		return fasthttp.StatusNotFound, rpsdto.CodeNotFound
	case errors.Is(err, query.ErrHistoryDisabled):
		return fasthttp.StatusNotImplemented, rpsdto.CodeHistoryDisabled
	default:
		return fasthttp.StatusInternalServerError, rpsdto.CodeInternal
	}
}

func (s *Server) respondError(ctx *fasthttp.RequestCtx, err error, data msgData) {
	status, code := classify(err)
	if data == nil {
		data = msgData{}
	}
	if _, ok := data["Reason"]; !ok {
		data["Reason"] = err.Error()
	}

	de := rpsdto.DomainError{Code: code}
	if code == rpsdto.CodeInternal {
		// 내부 오류는 원인을 숨기고 로그로만 남김
		de.Retryable = true
		de.Message = s.msgs.Text("errors.internal", data, "internal error")
		s.logger.Error("http_internal_error",
			zap.Any("request_id", ctx.UserValue(HeaderRequestID)),
			zap.String("path", string(ctx.Path())),
			zap.Error(err),
		)
	} else {
		de.Message = s.msgs.Text("errors."+code, data, err.Error())
	}
	respondJSON(ctx, status, rpsdto.ErrorBody{Error: de})
}
