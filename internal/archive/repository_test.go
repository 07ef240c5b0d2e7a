package archive

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/park285/Cheese-RPS-bot/internal/rps"
	"github.com/park285/Cheese-RPS-bot/internal/session"
	"github.com/park285/Cheese-RPS-bot/internal/sqldb"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	ctx := context.Background()
	db, err := sqldb.Open(ctx, sqldb.SQLite, filepath.Join(t.TempDir(), "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	repo, err := NewRepository(ctx, db)
	require.NoError(t, err)
	return repo
}

func TestSaveResultAndRecent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	clock := time.UnixMilli(1_700_000_000_000)
	repo.now = func() time.Time { clock = clock.Add(time.Second); return clock }

	games := []struct {
		key  session.Key
		host rps.Move
		opp  rps.Move
	}{
		{session.Key{Host: "creator", Opponent: "an_opponent"}, rps.Rock, rps.Scissors},
		{session.Key{Host: "user", Opponent: "creator"}, rps.Paper, rps.Scissors},
		{session.Key{Host: "user", Opponent: "other"}, rps.Rock, rps.Rock},
	}
	for _, g := range games {
		require.NoError(t, repo.SaveResult(ctx, g.key, rps.NewSession(g.host).Resolve(g.opp)))
	}

	got, err := repo.RecentResults(ctx, "creator", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "user", string(got[0].HostID), "newest first")
	require.Equal(t, rps.OpponentWins, got[0].Outcome)
	require.Equal(t, rps.HostWins, got[1].Outcome)
	require.True(t, got[0].ResolvedAt.After(got[1].ResolvedAt))

	limited, err := repo.RecentResults(ctx, "user", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	require.Equal(t, rps.Tie, limited[0].Outcome)
}

func TestSaveResultIgnoresInProgress(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	key := session.Key{Host: "creator", Opponent: "an_opponent"}

	require.NoError(t, repo.SaveResult(ctx, key, rps.NewSession(rps.Rock)))
	got, err := repo.RecentResults(ctx, "creator", 0)
	require.NoError(t, err)
	require.Empty(t, got)
}
