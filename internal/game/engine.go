package game

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/park285/Cheese-RPS-bot/internal/address"
	"github.com/park285/Cheese-RPS-bot/internal/obslog"
	"github.com/park285/Cheese-RPS-bot/internal/rps"
	"github.com/park285/Cheese-RPS-bot/internal/session"
)

var (
	ErrGameInProgress      = errors.New("game already in progress")
	ErrNoSuchGame          = errors.New("no such game")
	ErrGameAlreadyResolved = errors.New("game already resolved")
	ErrNoMove              = errors.New("a rock, paper or scissors move is required")
)

// ResultRecorder receives every session right after it resolves.
type ResultRecorder interface {
	SaveResult(ctx context.Context, key session.Key, s rps.Session) error
}

type Engine struct {
	store     *session.Store
	validator address.Validator
	recorder  ResultRecorder
	locks     *keyLocks
	logger    *zap.Logger
}

type Option func(*Engine)

func WithRecorder(r ResultRecorder) Option {
	return func(e *Engine) { e.recorder = r }
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

func NewEngine(store *session.Store, validator address.Validator, opts ...Option) *Engine {
	if validator == nil {
		validator = address.Rules{}
	}
	e := &Engine{
		store:     store,
		validator: validator,
		locks:     newKeyLocks(),
		logger:    obslog.L(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// StartGame opens a session for (host, opponent) with the host's first move.
// host is the already-authenticated sender; opponentRaw still needs validation.
func (e *Engine) StartGame(ctx context.Context, host address.Addr, opponentRaw string, first rps.Move) (session.Key, error) {
	opponent, err := e.validator.Validate(opponentRaw)
	if err != nil {
		return session.Key{}, err
	}
	if !first.Playable() {
		return session.Key{}, ErrNoMove
	}
	key := session.Key{Host: host, Opponent: opponent}

	unlock := e.locks.Lock(string(key.Encode()))
	err = e.store.Insert(ctx, key, rps.NewSession(first))
	unlock()

	if errors.Is(err, session.ErrAlreadyExists) {
		e.logger.Info("rps_game_start_rejected",
			zap.String("host", string(host)),
			zap.String("opponent", string(opponent)),
			zap.String("reason", "in_progress"),
		)
		return session.Key{}, ErrGameInProgress
	}
	if err != nil {
		return session.Key{}, fmt.Errorf("start game: %w", err)
	}
	e.logger.Info("rps_game_start",
		zap.String("host", string(host)),
		zap.String("opponent", string(opponent)),
	)
	return key, nil
}

// SubmitOpponentMove records the opponent's move and resolves the session.
// opponent is the already-authenticated sender; hostRaw still needs validation.
func (e *Engine) SubmitOpponentMove(ctx context.Context, hostRaw string, opponent address.Addr, move rps.Move) (rps.Session, error) {
	host, err := e.validator.Validate(hostRaw)
	if err != nil {
		return rps.Session{}, err
	}
	if !move.Playable() {
		return rps.Session{}, ErrNoMove
	}
	key := session.Key{Host: host, Opponent: opponent}

	resolved, err := e.resolve(ctx, key, move)
	if err != nil {
		return rps.Session{}, err
	}
	e.logger.Info("rps_game_resolve",
		zap.String("host", string(host)),
		zap.String("opponent", string(opponent)),
		zap.String("host_move", resolved.HostMove.String()),
		zap.String("opponent_move", resolved.OpponentMove.String()),
		zap.String("result", resolved.Result.String()),
	)

	if e.recorder != nil {
		if rerr := e.recorder.SaveResult(ctx, key, resolved); rerr != nil {
			e.logger.Error("rps_result_persist_error", zap.String("key", key.String()), zap.Error(rerr))
		}
	}
	return resolved, nil
}

// resolve runs get → check → put under the key's lock.
func (e *Engine) resolve(ctx context.Context, key session.Key, move rps.Move) (rps.Session, error) {
	unlock := e.locks.Lock(string(key.Encode()))
	defer unlock()

	cur, err := e.store.Get(ctx, key)
	if err != nil {
		return rps.Session{}, fmt.Errorf("submit move: %w", err)
	}
	if cur == nil {
		return rps.Session{}, ErrNoSuchGame
	}
	if cur.Resolved() {
		return rps.Session{}, ErrGameAlreadyResolved
	}
	next := cur.Resolve(move)
	if err := e.store.Put(ctx, key, next); err != nil {
		return rps.Session{}, fmt.Errorf("submit move: %w", err)
	}
	return next, nil
}
