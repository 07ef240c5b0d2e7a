package httpapi

import (
	"github.com/valyala/fasthttp"

	"github.com/park285/Cheese-RPS-bot/internal/rps"
	"github.com/park285/Cheese-RPS-bot/pkg/rpsdto"
)

var resultKeys = map[rps.Outcome]string{
	rps.InProgress:   "results.started",
	rps.HostWins:     "results.host_wins",
	rps.OpponentWins: "results.opponent_wins",
	rps.Tie:          "results.tie",
}

func (s *Server) handleExecute(ctx *fasthttp.RequestCtx) {
	sender, err := s.validator.Validate(string(ctx.Request.Header.Peek(HeaderUserID)))
	if err != nil {
		s.respondError(ctx, err, nil)
		return
	}
	var msg rpsdto.ExecuteMsg
	if err := decodeBody(ctx, &msg); err != nil {
		s.respondError(ctx, err, nil)
		return
	}

	opCtx, cancel := s.opContext()
	defer cancel()

	switch {
	case msg.StartGame != nil && msg.SubmitMove == nil:
		in := msg.StartGame
		data := msgData{"Host": string(sender), "Opponent": in.Addr}
		key, err := s.engine.StartGame(opCtx, sender, in.Addr, in.FirstMove)
		if err != nil {
			s.respondError(ctx, err, data)
			return
		}
		resp := rpsdto.NewResponse().
			AddAttribute("method", "start_game").
			AddAttribute("host", string(key.Host)).
			AddAttribute("opponent", string(key.Opponent))
		respondJSON(ctx, fasthttp.StatusOK, resp)

	case msg.SubmitMove != nil && msg.StartGame == nil:
		in := msg.SubmitMove
		data := msgData{"Host": in.Addr, "Opponent": string(sender)}
		res, err := s.engine.SubmitOpponentMove(opCtx, in.Addr, sender, in.Move)
		if err != nil {
			s.respondError(ctx, err, data)
			return
		}
		data["HostMove"] = res.HostMove.String()
		data["OpponentMove"] = res.OpponentMove.String()
		resp := rpsdto.NewResponse().
			AddAttribute("method", "submit_move").
			AddAttribute("host", in.Addr).
			AddAttribute("opponent", string(sender)).
			AddAttribute("result", res.Result.String()).
			AddAttribute("summary", s.msgs.Text(resultKeys[res.Result], data, res.Result.String()))
		respondJSON(ctx, fasthttp.StatusOK, resp)

	default:
		s.respondError(ctx, invalidRequest("exactly one of start_game or submit_move is required"), nil)
	}
}

func (s *Server) handleQuery(ctx *fasthttp.RequestCtx) {
	var msg rpsdto.QueryMsg
	if err := decodeBody(ctx, &msg); err != nil {
		s.respondError(ctx, err, nil)
		return
	}
	set := 0
	for _, present := range []bool{msg.QueryHostGames != nil, msg.QueryAllGames != nil, msg.QueryHistory != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		s.respondError(ctx, invalidRequest("exactly one query is required"), nil)
		return
	}

	opCtx, cancel := s.opContext()
	defer cancel()

	switch {
	case msg.QueryAllGames != nil:
		out, err := s.queries.QueryAllGames(opCtx)
		if err != nil {
			s.respondError(ctx, err, nil)
			return
		}
		respondJSON(ctx, fasthttp.StatusOK, out)
	case msg.QueryHostGames != nil:
		out, err := s.queries.QueryHostGames(opCtx, msg.QueryHostGames.Addr)
		if err != nil {
			s.respondError(ctx, err, nil)
			return
		}
		respondJSON(ctx, fasthttp.StatusOK, out)
	default:
		out, err := s.queries.QueryHistory(opCtx, msg.QueryHistory.Addr, msg.QueryHistory.Limit)
		if err != nil {
			s.respondError(ctx, err, nil)
			return
		}
		respondJSON(ctx, fasthttp.StatusOK, out)
	}
}
