package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/park285/Cheese-RPS-bot/internal/sqldb"
)

// SQL is a Namespace stored in the kv_entries table of a Postgres or SQLite database.
type SQL struct {
	db *sqldb.DB
	ns string
}

// NewSQL creates the kv_entries table when missing. Close does not close db; the owner does.
func NewSQL(ctx context.Context, db *sqldb.DB, namespace string) (*SQL, error) {
	if db == nil || db.DB == nil {
		return nil, fmt.Errorf("nil database")
	}
	ns := strings.TrimSpace(namespace)
	if ns == "" {
		ns = "games"
	}
	blob := db.Dialect.BlobType()
	schema := `CREATE TABLE IF NOT EXISTS kv_entries (
		namespace TEXT NOT NULL,
		k ` + blob + ` NOT NULL,
		v ` + blob + ` NOT NULL,
		PRIMARY KEY (namespace, k)
	)`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("create kv_entries: %w", err)
	}
	return &SQL{db: db, ns: ns}, nil
}

func (s *SQL) ph(n int) string { return s.db.Dialect.Placeholder(n) }

func (s *SQL) Get(ctx context.Context, key []byte) ([]byte, error) {
	q := `SELECT v FROM kv_entries WHERE namespace = ` + s.ph(1) + ` AND k = ` + s.ph(2)
	var v []byte
	err := s.db.QueryRowContext(ctx, q, s.ns, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select kv entry: %w", err)
	}
	return v, nil
}

func (s *SQL) Insert(ctx context.Context, key, value []byte) error {
	q := `INSERT INTO kv_entries (namespace, k, v) VALUES (` + s.ph(1) + `, ` + s.ph(2) + `, ` + s.ph(3) + `)
		ON CONFLICT (namespace, k) DO NOTHING`
	res, err := s.db.ExecContext(ctx, q, s.ns, key, value)
	if err != nil {
		return fmt.Errorf("insert kv entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert kv entry: %w", err)
	}
	if n == 0 {
		return ErrKeyExists
	}
	return nil
}

func (s *SQL) Put(ctx context.Context, key, value []byte) error {
	q := `INSERT INTO kv_entries (namespace, k, v) VALUES (` + s.ph(1) + `, ` + s.ph(2) + `, ` + s.ph(3) + `)
		ON CONFLICT (namespace, k) DO UPDATE SET v = EXCLUDED.v`
	if _, err := s.db.ExecContext(ctx, q, s.ns, key, value); err != nil {
		return fmt.Errorf("upsert kv entry: %w", err)
	}
	return nil
}

func (s *SQL) Scan(ctx context.Context, prefix []byte) ([]Pair, error) {
	q := `SELECT k, v FROM kv_entries WHERE namespace = ` + s.ph(1)
	args := []any{s.ns}
	if len(prefix) > 0 {
		q += ` AND k >= ` + s.ph(2)
		args = append(args, prefix)
		if end := PrefixEnd(prefix); end != nil {
			q += ` AND k < ` + s.ph(3)
			args = append(args, end)
		}
	}
	q += ` ORDER BY k ASC`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("scan kv entries: %w", err)
	}
	defer rows.Close()

	out := make([]Pair, 0)
	for rows.Next() {
		var p Pair
		if err := rows.Scan(&p.Key, &p.Value); err != nil {
			return nil, fmt.Errorf("scan kv entry: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan kv entries: %w", err)
	}
	return out, nil
}

func (s *SQL) Close() error { return nil }
