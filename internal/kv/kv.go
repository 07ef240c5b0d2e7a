package kv

import (
	"context"
	"errors"
)

// ErrKeyExists is returned by Insert when the key is already present.
var ErrKeyExists = errors.New("key already exists")

// Pair is a single key/value entry returned by Scan.
type Pair struct {
	Key   []byte
	Value []byte
}

// Namespace is an ordered byte-keyed store. Keys compare byte-lexicographically.
type Namespace interface {
	// Get returns nil, nil when the key is absent.
	Get(ctx context.Context, key []byte) ([]byte, error)
	// Insert stores value only if key is absent; the existence check and the write are one atomic step.
	Insert(ctx context.Context, key, value []byte) error
	// Put overwrites unconditionally.
	Put(ctx context.Context, key, value []byte) error
	// Scan returns all entries whose key starts with prefix, ascending. A nil prefix scans everything.
	Scan(ctx context.Context, prefix []byte) ([]Pair, error)
	Close() error
}

// PrefixEnd returns the smallest key greater than every key with the given prefix,
// or nil when no such key exists (empty prefix or all 0xFF bytes).
func PrefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xFF {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
