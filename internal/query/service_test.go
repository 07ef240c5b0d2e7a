package query

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/park285/Cheese-RPS-bot/internal/address"
	"github.com/park285/Cheese-RPS-bot/internal/archive"
	"github.com/park285/Cheese-RPS-bot/internal/kv"
	"github.com/park285/Cheese-RPS-bot/internal/rps"
	"github.com/park285/Cheese-RPS-bot/internal/session"
)

func seed(t *testing.T) *session.Store {
	t.Helper()
	store := session.NewStore(kv.NewMemory())
	ctx := context.Background()
	for _, k := range []session.Key{
		{Host: "user", Opponent: "diff_opponent"},
		{Host: "creator", Opponent: "diff_opponent"},
		{Host: "creator", Opponent: "an_opponent"},
	} {
		require.NoError(t, store.Insert(ctx, k, rps.NewSession(rps.Rock)))
	}
	return store
}

func TestQueryAllGames(t *testing.T) {
	svc := NewService(seed(t), address.Rules{})
	got, err := svc.QueryAllGames(context.Background())
	require.NoError(t, err)
	require.Len(t, got.Games, 3)
	for i := 1; i < len(got.Games); i++ {
		require.Less(t, string(got.Games[i-1].Key), string(got.Games[i].Key), "ascending key order")
	}
}

func TestQueryHostGames(t *testing.T) {
	svc := NewService(seed(t), address.Rules{})
	ctx := context.Background()

	got, err := svc.QueryHostGames(ctx, "creator")
	require.NoError(t, err)
	require.Len(t, got.Games, 2)
	first, err := session.DecodeKey(got.Games[0].Key)
	require.NoError(t, err)
	require.Equal(t, session.Key{Host: "creator", Opponent: "an_opponent"}, first)

	empty, err := svc.QueryHostGames(ctx, "nobody")
	require.NoError(t, err)
	require.NotNil(t, empty.Games)
	require.Empty(t, empty.Games)

	_, err = svc.QueryHostGames(ctx, "x&y")
	require.ErrorIs(t, err, address.ErrInvalidIdentifier)
}

func TestGamesResponseWireShape(t *testing.T) {
	svc := NewService(seed(t), address.Rules{})
	got, err := svc.QueryHostGames(context.Background(), "user")
	require.NoError(t, err)

	b, err := json.Marshal(got)
	require.NoError(t, err)
	var raw struct {
		Games [][]json.RawMessage `json:"games"`
	}
	require.NoError(t, json.Unmarshal(b, &raw))
	require.Len(t, raw.Games, 1)
	require.Len(t, raw.Games[0], 2)
	require.JSONEq(t, `{"host_move":"Rock","opponent_move":"NoMove","result":"Started"}`, string(raw.Games[0][1]))
}

type historyStub struct {
	limit int
	err   error
}

func (h *historyStub) RecentResults(_ context.Context, player address.Addr, limit int) ([]archive.Result, error) {
	h.limit = limit
	if h.err != nil {
		return nil, h.err
	}
	return []archive.Result{{HostID: player, OpponentID: "other", Outcome: rps.Tie}}, nil
}

func TestQueryHistory(t *testing.T) {
	ctx := context.Background()

	_, err := NewService(seed(t), address.Rules{}).QueryHistory(ctx, "creator", 5)
	require.ErrorIs(t, err, ErrHistoryDisabled)

	stub := &historyStub{}
	svc := NewService(seed(t), address.Rules{}, WithHistory(stub, 20))

	got, err := svc.QueryHistory(ctx, "creator", 5)
	require.NoError(t, err)
	require.Len(t, got.Results, 1)
	require.Equal(t, 5, stub.limit)

	_, err = svc.QueryHistory(ctx, "creator", 500)
	require.NoError(t, err)
	require.Equal(t, 20, stub.limit, "limit is capped")

	_, err = svc.QueryHistory(ctx, "", 1)
	require.ErrorIs(t, err, address.ErrInvalidIdentifier)

	stub.err = errors.New("boom")
	_, err = svc.QueryHistory(ctx, "creator", 1)
	require.ErrorContains(t, err, "boom")
}
