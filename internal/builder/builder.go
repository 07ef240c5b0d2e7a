package builder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/park285/Cheese-RPS-bot/internal/address"
	"github.com/park285/Cheese-RPS-bot/internal/archive"
	"github.com/park285/Cheese-RPS-bot/internal/config"
	"github.com/park285/Cheese-RPS-bot/internal/game"
	"github.com/park285/Cheese-RPS-bot/internal/kv"
	"github.com/park285/Cheese-RPS-bot/internal/msgcat"
	"github.com/park285/Cheese-RPS-bot/internal/query"
	"github.com/park285/Cheese-RPS-bot/internal/session"
	"github.com/park285/Cheese-RPS-bot/internal/sqldb"
)

type Deps struct {
	Validator address.Rules
	Store     *session.Store
	Engine    *game.Engine
	Queries   *query.Service
	Archive   *archive.Repository
	Messages  *msgcat.Catalog

	closers []func() error
}

// Close releases backends in reverse open order.
func (d *Deps) Close() error {
	if d == nil {
		return nil
	}
	var err error
	for i := len(d.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, d.closers[i]())
	}
	d.closers = nil
	return err
}

func New(cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	d := &Deps{Validator: address.NewRules(cfg.AddrMinLen, cfg.AddrMaxLen)}
	ok := false
	defer func() {
		if !ok {
			_ = d.Close()
		}
	}()

	msgs, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	d.Messages = msgs

	// Session namespace
	ns, db, err := openNamespace(ctx, cfg, d)
	if err != nil {
		return nil, err
	}
	d.closers = append(d.closers, ns.Close)
	d.Store = session.NewStore(ns)

	// Archive (optional): reuse the store's SQL database when there is one
	engineOpts := []game.Option{game.WithLogger(logger)}
	queryOpts := []query.Option{}
	if cfg.ArchiveResults {
		if db == nil {
			if db, err = openArchiveDB(ctx, cfg, d); err != nil {
				return nil, err
			}
		}
		repo, err := archive.NewRepository(ctx, db)
		if err != nil {
			return nil, fmt.Errorf("init archive: %w", err)
		}
		d.Archive = repo
		engineOpts = append(engineOpts, game.WithRecorder(repo))
		queryOpts = append(queryOpts, query.WithHistory(repo, cfg.HistoryLimit))
	}

	d.Engine = game.NewEngine(d.Store, d.Validator, engineOpts...)
	d.Queries = query.NewService(d.Store, d.Validator, queryOpts...)

	logger.Info("rps_deps_ready",
		zap.String("backend", cfg.StoreBackend),
		zap.String("namespace", cfg.GamesNamespace),
		zap.Bool("archive", d.Archive != nil),
	)
	ok = true
	return d, nil
}

// openNamespace returns the session namespace and, for SQL backends, its database.
func openNamespace(ctx context.Context, cfg *config.AppConfig, d *Deps) (kv.Namespace, *sqldb.DB, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		return kv.NewMemory(), nil, nil
	case config.BackendRedis:
		ns, err := kv.DialRedis(ctx, cfg.RedisURL, cfg.GamesNamespace)
		if err != nil {
			return nil, nil, fmt.Errorf("init redis store: %w", err)
		}
		return ns, nil, nil
	case config.BackendPostgres, config.BackendSQLite:
		db, err := openSQL(ctx, cfg.StoreBackend, cfg)
		if err != nil {
			return nil, nil, err
		}
		d.closers = append(d.closers, db.Close)
		ns, err := kv.NewSQL(ctx, db, cfg.GamesNamespace)
		if err != nil {
			return nil, nil, fmt.Errorf("init sql store: %w", err)
		}
		return ns, db, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store backend %q", cfg.StoreBackend)
	}
}

// openArchiveDB prefers DATABASE_URL and falls back to the SQLite file.
func openArchiveDB(ctx context.Context, cfg *config.AppConfig, d *Deps) (*sqldb.DB, error) {
	backend := config.BackendSQLite
	if cfg.DatabaseURL != "" {
		backend = config.BackendPostgres
	}
	db, err := openSQL(ctx, backend, cfg)
	if err != nil {
		return nil, err
	}
	d.closers = append(d.closers, db.Close)
	return db, nil
}

func openSQL(ctx context.Context, backend string, cfg *config.AppConfig) (*sqldb.DB, error) {
	dialect, err := sqldb.ParseDialect(backend)
	if err != nil {
		return nil, err
	}
	dsn := cfg.DatabaseURL
	if dialect == sqldb.SQLite {
		dsn = cfg.SQLitePath
		if dir := filepath.Dir(dsn); dsn != ":memory:" && dir != "." && strings.TrimSpace(dir) != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
	}
	db, err := sqldb.Open(ctx, dialect, dsn)
	if err != nil {
		return nil, err
	}
	return db, nil
}
