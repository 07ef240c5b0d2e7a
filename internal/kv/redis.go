package kv

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Redis stores values under <ns>:v:<key> and keeps every key as a member of the
// zero-score sorted set <ns>:idx so ZRANGEBYLEX yields byte-ordered prefix scans.
type Redis struct {
	rdb *redis.Client
	ns  string
}

// NewRedis wraps an existing client. Close closes the client.
func NewRedis(rdb *redis.Client, namespace string) *Redis {
	ns := strings.TrimSpace(namespace)
	if ns == "" {
		ns = "games"
	}
	return &Redis{rdb: rdb, ns: ns}
}

// DialRedis connects to redisURL and verifies the connection with PING.
func DialRedis(ctx context.Context, redisURL, namespace string) (*Redis, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL required for redis store")
	}
	opts, err := ParseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedis(rdb, namespace), nil
}

func (r *Redis) valueKey(key []byte) string { return r.ns + ":v:" + string(key) }
func (r *Redis) indexKey() string           { return r.ns + ":idx" }

func (r *Redis) Get(ctx context.Context, key []byte) ([]byte, error) {
	raw, err := r.rdb.Get(ctx, r.valueKey(key)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (r *Redis) Insert(ctx context.Context, key, value []byte) error {
	vk := r.valueKey(key)
	err := r.rdb.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, vk).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrKeyExists
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, vk, value, 0)
			pipe.ZAdd(ctx, r.indexKey(), redis.Z{Score: 0, Member: string(key)})
			return nil
		})
		return err
	}, vk)
	if errors.Is(err, redis.TxFailedErr) {
		// someone wrote the key between WATCH and EXEC
		return ErrKeyExists
	}
	return err
}

func (r *Redis) Put(ctx context.Context, key, value []byte) error {
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.valueKey(key), value, 0)
		pipe.ZAdd(ctx, r.indexKey(), redis.Z{Score: 0, Member: string(key)})
		return nil
	})
	return err
}

func (r *Redis) Scan(ctx context.Context, prefix []byte) ([]Pair, error) {
	rng := &redis.ZRangeBy{Min: "-", Max: "+"}
	if len(prefix) > 0 {
		rng.Min = "[" + string(prefix)
		if end := PrefixEnd(prefix); end != nil {
			rng.Max = "(" + string(end)
		}
	}
	members, err := r.rdb.ZRangeByLex(ctx, r.indexKey(), rng).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Pair, 0, len(members))
	if len(members) == 0 {
		return out, nil
	}
	keys := make([]string, len(members))
	for i, m := range members {
		keys[i] = r.valueKey([]byte(m))
	}
	vals, err := r.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		out = append(out, Pair{Key: []byte(members[i]), Value: []byte(s)})
	}
	return out, nil
}

func (r *Redis) Close() error {
	if r == nil || r.rdb == nil {
		return nil
	}
	return r.rdb.Close()
}

// ParseRedisURL accepts redis:// and rediss:// URLs with an optional /<db> path.
func ParseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redis db %q: %w", p, err)
		}
		db = n
	}
	pass, _ := u.User.Password()
	opts := &redis.Options{Addr: u.Host, Password: pass, DB: db}
	if u.Scheme == "rediss" {
		opts.TLSConfig = &tls.Config{ServerName: u.Hostname(), MinVersion: tls.VersionTLS12}
	}
	return opts, nil
}
