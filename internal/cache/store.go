// Package cache implements the cache-aside discipline used for chat history,
// chat lists, profiles and approved-project lists: read-through on miss,
// invalidate on write. Cache faults never fail the caller's primary
// operation; a broken read degrades to a miss and a broken invalidation is
// logged and ignored.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"
)

// Policy describes how long an entry lives.
// Sliding policies renew the TTL on every read hit; absolute policies keep
// the lifetime fixed from write time.
type Policy struct {
	TTL     time.Duration
	Sliding bool
}

func Absolute(ttl time.Duration) Policy { return Policy{TTL: ttl} }
func Sliding(ttl time.Duration) Policy  { return Policy{TTL: ttl, Sliding: true} }

// Store wraps a Backend with serialization and the degrade-gracefully error
// policy.
type Store struct {
	backend Backend
}

func NewStore(backend Backend) *Store {
	return &Store{backend: backend}
}

// Invalidate removes keys. Failures are logged and swallowed: an
// invalidation fault must never roll back the committed write that
// triggered it.
func (s *Store) Invalidate(ctx context.Context, keys ...string) {
	if err := s.backend.Remove(ctx, keys...); err != nil {
		slog.Error("cache invalidation failed", "keys", keys, "error", err)
	}
}

// ReadThrough returns the cached value under key, or invokes compute,
// stores the result under key and returns it. compute runs at most once per
// call. Backend read failures are treated as misses.
func ReadThrough[T any](ctx context.Context, s *Store, key string, policy Policy, compute func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	data, err := s.backend.Get(ctx, key)
	switch {
	case err == nil:
		var cached T
		if uerr := json.Unmarshal(data, &cached); uerr == nil {
			if policy.Sliding {
				if eerr := s.backend.Expire(ctx, key, policy.TTL); eerr != nil {
					slog.Error("cache expire failed", "key", key, "error", eerr)
				}
			}
			return cached, nil
		}
		// Corrupt entry; fall through to recompute and overwrite.
		slog.Error("cache entry unreadable, recomputing", "key", key)
	case !errors.Is(err, ErrMiss):
		slog.Error("cache read failed, treating as miss", "key", key, "error", err)
	}

	value, err := compute(ctx)
	if err != nil {
		return zero, err
	}

	if data, merr := json.Marshal(value); merr != nil {
		slog.Error("cache marshal failed", "key", key, "error", merr)
	} else if serr := s.backend.Set(ctx, key, data, policy.TTL); serr != nil {
		slog.Error("cache write failed", "key", key, "error", serr)
	}

	return value, nil
}
