package archive

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/park285/Cheese-RPS-bot/internal/address"
	"github.com/park285/Cheese-RPS-bot/internal/rps"
	"github.com/park285/Cheese-RPS-bot/internal/session"
	"github.com/park285/Cheese-RPS-bot/internal/sqldb"
)

const defaultRecentLimit = 10

// Result is one archived, resolved game.
type Result struct {
	HostID       address.Addr `json:"host_id"`
	OpponentID   address.Addr `json:"opponent_id"`
	HostMove     rps.Move     `json:"host_move"`
	OpponentMove rps.Move     `json:"opponent_move"`
	Outcome      rps.Outcome  `json:"result"`
	ResolvedAt   time.Time    `json:"resolved_at"`
}

// Repository keeps resolved games in rps_results for history lookups.
// Live sessions stay in the session store; this table is append/upsert only.
type Repository struct {
	db  *sqldb.DB
	now func() time.Time
}

func NewRepository(ctx context.Context, db *sqldb.DB) (*Repository, error) {
	if db == nil || db.DB == nil {
		return nil, fmt.Errorf("nil database")
	}
	const schema = `CREATE TABLE IF NOT EXISTS rps_results (
		host_id TEXT NOT NULL,
		opponent_id TEXT NOT NULL,
		host_move TEXT NOT NULL,
		opponent_move TEXT NOT NULL,
		result TEXT NOT NULL,
		resolved_at_ms BIGINT NOT NULL,
		PRIMARY KEY (host_id, opponent_id)
	)`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("create rps_results: %w", err)
	}
	return &Repository{db: db, now: time.Now}, nil
}

// SaveResult upserts a resolved session. Sessions still in progress are ignored.
func (r *Repository) SaveResult(ctx context.Context, key session.Key, s rps.Session) error {
	if r == nil || r.db == nil || !s.Resolved() {
		return nil
	}
	ph := r.db.Dialect.Placeholder
	q := `INSERT INTO rps_results (
		host_id, opponent_id, host_move, opponent_move, result, resolved_at_ms
	) VALUES (` + strings.Join([]string{ph(1), ph(2), ph(3), ph(4), ph(5), ph(6)}, ", ") + `)
	ON CONFLICT (host_id, opponent_id) DO UPDATE SET
		host_move = EXCLUDED.host_move,
		opponent_move = EXCLUDED.opponent_move,
		result = EXCLUDED.result,
		resolved_at_ms = EXCLUDED.resolved_at_ms`

	_, err := r.db.ExecContext(ctx, q,
		string(key.Host), string(key.Opponent),
		s.HostMove.String(), s.OpponentMove.String(), s.Result.String(),
		r.now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("upsert rps result: %w", err)
	}
	return nil
}

// RecentResults lists the player's games from either side, newest first.
func (r *Repository) RecentResults(ctx context.Context, player address.Addr, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	ph := r.db.Dialect.Placeholder
	q := `SELECT host_id, opponent_id, host_move, opponent_move, result, resolved_at_ms
		FROM rps_results
		WHERE host_id = ` + ph(1) + ` OR opponent_id = ` + ph(2) + `
		ORDER BY resolved_at_ms DESC, host_id ASC, opponent_id ASC
		LIMIT ` + ph(3)

	rows, err := r.db.QueryContext(ctx, q, string(player), string(player), limit)
	if err != nil {
		return nil, fmt.Errorf("select rps results: %w", err)
	}
	defer rows.Close()

	out := make([]Result, 0, limit)
	for rows.Next() {
		var (
			res               Result
			host, opp         string
			hostMove, oppMove string
			outcome           string
			resolvedMS        int64
		)
		if err := rows.Scan(&host, &opp, &hostMove, &oppMove, &outcome, &resolvedMS); err != nil {
			return nil, fmt.Errorf("scan rps result: %w", err)
		}
		res.HostID, res.OpponentID = address.Addr(host), address.Addr(opp)
		if res.HostMove, err = rps.ParseMove(hostMove); err != nil {
			return nil, err
		}
		if res.OpponentMove, err = rps.ParseMove(oppMove); err != nil {
			return nil, err
		}
		if res.Outcome, err = rps.ParseOutcome(outcome); err != nil {
			return nil, err
		}
		res.ResolvedAt = time.UnixMilli(resolvedMS).UTC()
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select rps results: %w", err)
	}
	return out, nil
}
