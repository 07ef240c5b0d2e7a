package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Storage backends accepted by STORE_BACKEND.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

type AppConfig struct {
	ListenAddr      string
	ReadTimeoutSec  int
	WriteTimeoutSec int

	StoreBackend   string
	RedisURL       string
	DatabaseURL    string
	SQLitePath     string
	GamesNamespace string

	ArchiveResults bool
	HistoryLimit   int

	MessagesDir string

	AddrMinLen int
	AddrMaxLen int
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		ListenAddr:      ":8080",
		ReadTimeoutSec:  10,
		WriteTimeoutSec: 10,
		StoreBackend:    BackendMemory,
		SQLitePath:      "data/rps.db",
		GamesNamespace:  "games",
		HistoryLimit:    10,
		AddrMinLen:      3,
		AddrMaxLen:      54,
	}

	if v := strings.TrimSpace(os.Getenv("LISTEN_ADDR")); v != "" {
		cfg.ListenAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("STORE_BACKEND")); v != "" {
		cfg.StoreBackend = strings.ToLower(v)
	}
	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if v := strings.TrimSpace(os.Getenv("SQLITE_PATH")); v != "" {
		cfg.SQLitePath = v
	}
	if v := strings.TrimSpace(os.Getenv("GAMES_NAMESPACE")); v != "" {
		cfg.GamesNamespace = v
	}
	cfg.MessagesDir = strings.TrimSpace(os.Getenv("MESSAGES_DIR"))

	if v := strings.TrimSpace(os.Getenv("ARCHIVE_RESULTS")); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			cfg.ArchiveResults = b
		}
	}
	positiveInt("HTTP_READ_TIMEOUT_SEC", &cfg.ReadTimeoutSec)
	positiveInt("HTTP_WRITE_TIMEOUT_SEC", &cfg.WriteTimeoutSec)
	positiveInt("HISTORY_LIMIT", &cfg.HistoryLimit)
	positiveInt("ADDR_MIN_LEN", &cfg.AddrMinLen)
	positiveInt("ADDR_MAX_LEN", &cfg.AddrMaxLen)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) validate() error {
	switch c.StoreBackend {
	case BackendMemory:
	case BackendRedis:
		if c.RedisURL == "" {
			return errors.New("REDIS_URL is required for STORE_BACKEND=redis")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for STORE_BACKEND=postgres")
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required for STORE_BACKEND=sqlite")
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be one of memory|redis|postgres|sqlite, got %q", c.StoreBackend)
	}
	if c.AddrMinLen > c.AddrMaxLen {
		return fmt.Errorf("ADDR_MIN_LEN (%d) exceeds ADDR_MAX_LEN (%d)", c.AddrMinLen, c.AddrMaxLen)
	}
	return nil
}

// positiveInt overwrites *dst when the env var holds a positive integer.
func positiveInt(key string, dst *int) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			*dst = n
		}
	}
}
