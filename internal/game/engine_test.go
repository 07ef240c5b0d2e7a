package game

import (
	"context"
	"errors"
	"sync"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/park285/Cheese-RPS-bot/internal/address"
	"github.com/park285/Cheese-RPS-bot/internal/kv"
	"github.com/park285/Cheese-RPS-bot/internal/rps"
	"github.com/park285/Cheese-RPS-bot/internal/session"
)

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *session.Store) {
	t.Helper()
	store := session.NewStore(kv.NewMemory())
	return NewEngine(store, address.Rules{}, opts...), store
}

func TestStartMultipleGamesScenario(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()

	if _, err := e.StartGame(ctx, "creator", "an_opponent", rps.Scissors); err != nil {
		t.Fatalf("first start: %v", err)
	}
	if _, err := e.StartGame(ctx, "creator", "an_opponent", rps.Rock); !errors.Is(err, ErrGameInProgress) {
		t.Fatalf("expected ErrGameInProgress, got %v", err)
	}
	if _, err := e.StartGame(ctx, "creator", "diff_opponent", rps.Rock); err != nil {
		t.Fatalf("same host, different opponent: %v", err)
	}
	if _, err := e.StartGame(ctx, "user", "diff_opponent", rps.Rock); err != nil {
		t.Fatalf("different host, same opponent: %v", err)
	}

	all, err := store.ScanAll(ctx)
	if err != nil || len(all) != 3 {
		t.Fatalf("expected 3 sessions, got %d (%v)", len(all), err)
	}
	hosted, err := store.ScanByHost(ctx, "creator")
	if err != nil || len(hosted) != 2 {
		t.Fatalf("expected 2 creator sessions, got %d (%v)", len(hosted), err)
	}

	got, _ := store.Get(ctx, session.Key{Host: "creator", Opponent: "an_opponent"})
	if got == nil || got.HostMove != rps.Scissors {
		t.Fatalf("rejected restart must leave the original session untouched: %+v", got)
	}
}

func TestStartGameDirectionality(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	if _, err := e.StartGame(ctx, "alice", "bob", rps.Rock); err != nil {
		t.Fatalf("alice→bob: %v", err)
	}
	if _, err := e.StartGame(ctx, "bob", "alice", rps.Paper); err != nil {
		t.Fatalf("bob→alice is a distinct key: %v", err)
	}
}

func TestStartGameInvalidAddress(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()
	_, err := e.StartGame(ctx, "creator", "not_a_real_address&DFOUSHDOFUGSDOUFGSDOUGDGSGDFO7d9fgas", rps.Rock)
	if !errors.Is(err, address.ErrInvalidIdentifier) {
		t.Fatalf("expected ErrInvalidIdentifier, got %v", err)
	}
	all, _ := store.ScanAll(ctx)
	if len(all) != 0 {
		t.Fatalf("invalid start must not create a session, found %d", len(all))
	}
}

func TestStartGameRequiresRealMove(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()
	if _, err := e.StartGame(ctx, "creator", "an_opponent", rps.NoMove); !errors.Is(err, ErrNoMove) {
		t.Fatalf("expected ErrNoMove, got %v", err)
	}
	if got, _ := store.Get(ctx, session.Key{Host: "creator", Opponent: "an_opponent"}); got != nil {
		t.Fatalf("NoMove start must not create a session")
	}
}

type recorderFunc func(ctx context.Context, key session.Key, s rps.Session) error

func (f recorderFunc) SaveResult(ctx context.Context, key session.Key, s rps.Session) error {
	return f(ctx, key, s)
}

func TestSubmitOpponentMoveResolves(t *testing.T) {
	var recorded []rps.Session
	rec := recorderFunc(func(_ context.Context, _ session.Key, s rps.Session) error {
		recorded = append(recorded, s)
		return nil
	})
	e, store := newTestEngine(t, WithRecorder(rec))
	ctx := context.Background()

	if _, err := e.StartGame(ctx, "creator", "an_opponent", rps.Scissors); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	res, err := e.SubmitOpponentMove(ctx, "creator", "an_opponent", rps.Rock)
	if err != nil {
		t.Fatalf("SubmitOpponentMove: %v", err)
	}
	if res.Result != rps.OpponentWins || res.OpponentMove != rps.Rock {
		t.Fatalf("unexpected resolution: %+v", res)
	}
	stored, _ := store.Get(ctx, session.Key{Host: "creator", Opponent: "an_opponent"})
	if stored == nil || *stored != res {
		t.Fatalf("resolution not persisted: %+v", stored)
	}
	if len(recorded) != 1 || recorded[0] != res {
		t.Fatalf("recorder not called with resolved session: %+v", recorded)
	}

	if _, err := e.SubmitOpponentMove(ctx, "creator", "an_opponent", rps.Paper); !errors.Is(err, ErrGameAlreadyResolved) {
		t.Fatalf("expected ErrGameAlreadyResolved, got %v", err)
	}
	if _, err := e.StartGame(ctx, "creator", "an_opponent", rps.Rock); !errors.Is(err, ErrGameInProgress) {
		t.Fatalf("resolved sessions still occupy their key, got %v", err)
	}
}

func TestSubmitOpponentMoveErrors(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	if _, err := e.SubmitOpponentMove(ctx, "creator", "an_opponent", rps.Rock); !errors.Is(err, ErrNoSuchGame) {
		t.Fatalf("expected ErrNoSuchGame, got %v", err)
	}
	if _, err := e.SubmitOpponentMove(ctx, "Creator!", "an_opponent", rps.Rock); !errors.Is(err, address.ErrInvalidIdentifier) {
		t.Fatalf("expected ErrInvalidIdentifier, got %v", err)
	}
	if _, err := e.StartGame(ctx, "creator", "an_opponent", rps.Rock); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	if _, err := e.SubmitOpponentMove(ctx, "creator", "an_opponent", rps.NoMove); !errors.Is(err, ErrNoMove) {
		t.Fatalf("expected ErrNoMove, got %v", err)
	}
	// the reversed pair was never started
	if _, err := e.SubmitOpponentMove(ctx, "an_opponent", "creator", rps.Rock); !errors.Is(err, ErrNoSuchGame) {
		t.Fatalf("expected ErrNoSuchGame for reversed key, got %v", err)
	}
}

func TestRecorderFailureDoesNotFailMove(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	rec := recorderFunc(func(context.Context, session.Key, rps.Session) error { return errors.New("db down") })
	e, _ := newTestEngine(t, WithRecorder(rec), WithLogger(zap.New(core)))
	ctx := context.Background()

	if _, err := e.StartGame(ctx, "creator", "an_opponent", rps.Paper); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	if _, err := e.SubmitOpponentMove(ctx, "creator", "an_opponent", rps.Paper); err != nil {
		t.Fatalf("recorder error leaked: %v", err)
	}
	if logs.FilterMessage("rps_result_persist_error").Len() != 1 {
		t.Fatalf("expected persist error to be logged")
	}
	if logs.FilterMessage("rps_game_start").Len() != 1 || logs.FilterMessage("rps_game_resolve").Len() != 1 {
		t.Fatalf("expected start/resolve events, got %d entries", logs.Len())
	}
}

func TestConcurrentSubmitResolvesOnce(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()
	ns, err := kv.DialRedis(context.Background(), "redis://"+mr.Addr()+"/0", "games")
	if err != nil {
		t.Fatalf("DialRedis: %v", err)
	}
	defer ns.Close()

	e := NewEngine(session.NewStore(ns), address.Rules{})
	ctx := context.Background()
	if _, err := e.StartGame(ctx, "creator", "an_opponent", rps.Rock); err != nil {
		t.Fatalf("StartGame: %v", err)
	}

	moves := []rps.Move{rps.Rock, rps.Paper, rps.Scissors, rps.Paper, rps.Rock, rps.Scissors}
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins, resolvedErrs := 0, 0
	for _, m := range moves {
		wg.Add(1)
		go func(m rps.Move) {
			defer wg.Done()
			_, err := e.SubmitOpponentMove(ctx, "creator", "an_opponent", m)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, ErrGameAlreadyResolved):
				resolvedErrs++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(m)
	}
	wg.Wait()
	if wins != 1 || resolvedErrs != len(moves)-1 {
		t.Fatalf("expected exactly one resolution, got wins=%d resolved=%d", wins, resolvedErrs)
	}
	if n := e.locks.size(); n != 0 {
		t.Fatalf("key locks leaked: %d", n)
	}
}
