package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/park285/Cheese-RPS-bot/internal/address"
	"github.com/park285/Cheese-RPS-bot/internal/kv"
	"github.com/park285/Cheese-RPS-bot/internal/rps"
)

// ErrAlreadyExists is returned by Insert when a session is already stored under the key.
var ErrAlreadyExists = errors.New("session already exists")

// Entry is one stored session together with its encoded and decoded key.
type Entry struct {
	RawKey  []byte
	Key     Key
	Session rps.Session
}

// Store owns every session record. Nothing else reads or writes the underlying namespace.
type Store struct {
	ns kv.Namespace
}

func NewStore(ns kv.Namespace) *Store {
	return &Store{ns: ns}
}

// Insert persists s only when no session exists for key.
func (s *Store) Insert(ctx context.Context, key Key, sess rps.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.ns.Insert(ctx, key.Encode(), raw); err != nil {
		if errors.Is(err, kv.ErrKeyExists) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert session %s: %w", key, err)
	}
	return nil
}

// Get returns nil, nil when no session is stored for key.
func (s *Store) Get(ctx context.Context, key Key) (*rps.Session, error) {
	raw, err := s.ns.Get(ctx, key.Encode())
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", key, err)
	}
	if raw == nil {
		return nil, nil
	}
	var sess rps.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", key, err)
	}
	return &sess, nil
}

// Put overwrites the session for an existing key. Callers Get first; Put never creates sessions.
func (s *Store) Put(ctx context.Context, key Key, sess rps.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.ns.Put(ctx, key.Encode(), raw); err != nil {
		return fmt.Errorf("put session %s: %w", key, err)
	}
	return nil
}

// ScanAll returns every session ascending by encoded key.
func (s *Store) ScanAll(ctx context.Context) ([]Entry, error) {
	return s.scan(ctx, nil)
}

// ScanByHost returns host's sessions ascending by opponent.
func (s *Store) ScanByHost(ctx context.Context, host address.Addr) ([]Entry, error) {
	return s.scan(ctx, HostPrefix(host))
}

func (s *Store) scan(ctx context.Context, prefix []byte) ([]Entry, error) {
	pairs, err := s.ns.Scan(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("scan sessions: %w", err)
	}
	out := make([]Entry, 0, len(pairs))
	for _, p := range pairs {
		key, err := DecodeKey(p.Key)
		if err != nil {
			return nil, err
		}
		var sess rps.Session
		if err := json.Unmarshal(p.Value, &sess); err != nil {
			return nil, fmt.Errorf("decode session %s: %w", key, err)
		}
		out = append(out, Entry{RawKey: p.Key, Key: key, Session: sess})
	}
	return out, nil
}
