package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/park285/Cheese-RPS-bot/internal/address"
	"github.com/park285/Cheese-RPS-bot/internal/archive"
	"github.com/park285/Cheese-RPS-bot/internal/session"
	"github.com/park285/Cheese-RPS-bot/pkg/rpsdto"
)

var ErrHistoryDisabled = errors.New("result history is disabled")

// HistoryReader is satisfied by *archive.Repository.
type HistoryReader interface {
	RecentResults(ctx context.Context, player address.Addr, limit int) ([]archive.Result, error)
}

// Service answers read-only queries over the session store.
type Service struct {
	store        *session.Store
	validator    address.Validator
	history      HistoryReader
	historyLimit int
}

type Option func(*Service)

func WithHistory(h HistoryReader, defaultLimit int) Option {
	return func(s *Service) {
		s.history = h
		if defaultLimit > 0 {
			s.historyLimit = defaultLimit
		}
	}
}

func NewService(store *session.Store, validator address.Validator, opts ...Option) *Service {
	if validator == nil {
		validator = address.Rules{}
	}
	s := &Service{store: store, validator: validator, historyLimit: 10}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// QueryAllGames lists every session in ascending encoded-key order.
func (s *Service) QueryAllGames(ctx context.Context) (rpsdto.GamesResponse, error) {
	entries, err := s.store.ScanAll(ctx)
	if err != nil {
		return rpsdto.GamesResponse{}, fmt.Errorf("query all games: %w", err)
	}
	return toGames(entries), nil
}

// QueryHostGames lists the sessions hosted by hostRaw. A valid host with no sessions yields an empty list.
func (s *Service) QueryHostGames(ctx context.Context, hostRaw string) (rpsdto.GamesResponse, error) {
	host, err := s.validator.Validate(hostRaw)
	if err != nil {
		return rpsdto.GamesResponse{}, err
	}
	entries, err := s.store.ScanByHost(ctx, host)
	if err != nil {
		return rpsdto.GamesResponse{}, fmt.Errorf("query host games: %w", err)
	}
	return toGames(entries), nil
}

// QueryHistory returns archived results for a player, newest first.
func (s *Service) QueryHistory(ctx context.Context, playerRaw string, limit int) (rpsdto.HistoryResponse, error) {
	player, err := s.validator.Validate(playerRaw)
	if err != nil {
		return rpsdto.HistoryResponse{}, err
	}
	if s.history == nil {
		return rpsdto.HistoryResponse{}, ErrHistoryDisabled
	}
	if limit <= 0 || limit > s.historyLimit {
		limit = s.historyLimit
	}
	results, err := s.history.RecentResults(ctx, player, limit)
	if err != nil {
		return rpsdto.HistoryResponse{}, fmt.Errorf("query history: %w", err)
	}
	if results == nil {
		results = []archive.Result{}
	}
	return rpsdto.HistoryResponse{Results: results}, nil
}

func toGames(entries []session.Entry) rpsdto.GamesResponse {
	games := make([]rpsdto.GameEntry, 0, len(entries))
	for _, e := range entries {
		games = append(games, rpsdto.GameEntry{Key: e.RawKey, Game: e.Session})
	}
	return rpsdto.GamesResponse{Games: games}
}
