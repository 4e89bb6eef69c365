package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryBackend is an in-process Backend that records every call so tests
// can assert on the exact cache traffic.
type memoryBackend struct {
	entries map[string][]byte

	getErr    error
	setErr    error
	removeErr error

	expireCalls []string
	setCalls    []string
	removeCalls []string
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{entries: make(map[string][]byte)}
}

func (m *memoryBackend) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	data, ok := m.entries[key]
	if !ok {
		return nil, ErrMiss
	}
	return data, nil
}

func (m *memoryBackend) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	m.setCalls = append(m.setCalls, key)
	if m.setErr != nil {
		return m.setErr
	}
	m.entries[key] = data
	return nil
}

func (m *memoryBackend) Expire(ctx context.Context, key string, ttl time.Duration) error {
	m.expireCalls = append(m.expireCalls, key)
	return nil
}

func (m *memoryBackend) Remove(ctx context.Context, keys ...string) error {
	m.removeCalls = append(m.removeCalls, keys...)
	if m.removeErr != nil {
		return m.removeErr
	}
	for _, key := range keys {
		delete(m.entries, key)
	}
	return nil
}

func TestReadThroughComputesOnceOnMiss(t *testing.T) {
	backend := newMemoryBackend()
	store := NewStore(backend)
	ctx := context.Background()

	computations := 0
	compute := func(ctx context.Context) (string, error) {
		computations++
		return "hello", nil
	}

	value, err := ReadThrough(ctx, store, "greeting", Absolute(time.Minute), compute)
	require.NoError(t, err)
	assert.Equal(t, "hello", value)
	assert.Equal(t, 1, computations)

	// Second read hits the cache; compute must not run again.
	value, err = ReadThrough(ctx, store, "greeting", Absolute(time.Minute), compute)
	require.NoError(t, err)
	assert.Equal(t, "hello", value)
	assert.Equal(t, 1, computations)
}

func TestReadThroughSlidingRenewsOnHit(t *testing.T) {
	backend := newMemoryBackend()
	store := NewStore(backend)
	ctx := context.Background()

	compute := func(ctx context.Context) (int, error) { return 42, nil }

	_, err := ReadThrough(ctx, store, "counter", Sliding(time.Minute), compute)
	require.NoError(t, err)
	assert.Empty(t, backend.expireCalls, "a miss must not renew")

	_, err = ReadThrough(ctx, store, "counter", Sliding(time.Minute), compute)
	require.NoError(t, err)
	assert.Equal(t, []string{"counter"}, backend.expireCalls)

	// Absolute entries never renew, no matter how often they are read.
	_, err = ReadThrough(ctx, store, "fixed", Absolute(time.Minute), compute)
	require.NoError(t, err)
	_, err = ReadThrough(ctx, store, "fixed", Absolute(time.Minute), compute)
	require.NoError(t, err)
	assert.Equal(t, []string{"counter"}, backend.expireCalls)
}

func TestReadThroughTreatsReadErrorAsMiss(t *testing.T) {
	backend := newMemoryBackend()
	backend.getErr = errors.New("connection refused")
	store := NewStore(backend)

	value, err := ReadThrough(context.Background(), store, "k", Absolute(time.Minute),
		func(ctx context.Context) (string, error) { return "from source", nil })
	require.NoError(t, err)
	assert.Equal(t, "from source", value)
}

func TestReadThroughWriteFailureDoesNotFailRead(t *testing.T) {
	backend := newMemoryBackend()
	backend.setErr = errors.New("connection refused")
	store := NewStore(backend)

	value, err := ReadThrough(context.Background(), store, "k", Absolute(time.Minute),
		func(ctx context.Context) (string, error) { return "from source", nil })
	require.NoError(t, err)
	assert.Equal(t, "from source", value)
}

func TestReadThroughComputeErrorPropagates(t *testing.T) {
	store := NewStore(newMemoryBackend())
	wantErr := errors.New("database down")

	_, err := ReadThrough(context.Background(), store, "k", Absolute(time.Minute),
		func(ctx context.Context) (string, error) { return "", wantErr })
	assert.ErrorIs(t, err, wantErr)
}

func TestReadThroughRecomputesCorruptEntry(t *testing.T) {
	backend := newMemoryBackend()
	backend.entries["k"] = []byte("{not json")
	store := NewStore(backend)

	value, err := ReadThrough(context.Background(), store, "k", Absolute(time.Minute),
		func(ctx context.Context) (string, error) { return "fresh", nil })
	require.NoError(t, err)
	assert.Equal(t, "fresh", value)
	assert.Equal(t, []string{"k"}, backend.setCalls, "corrupt entry must be overwritten")
}

func TestInvalidateSwallowsBackendError(t *testing.T) {
	backend := newMemoryBackend()
	backend.removeErr = errors.New("connection refused")
	store := NewStore(backend)

	// Must not panic or surface the error.
	store.Invalidate(context.Background(), "a", "b")
	assert.Equal(t, []string{"a", "b"}, backend.removeCalls)
}

func TestKeyFormats(t *testing.T) {
	assert.Equal(t, "UserProfile_u-1", UserProfileKey("u-1"))
	assert.Equal(t, "chat_messages_7", ChatMessagesKey(7))
	assert.Equal(t, "user_chats_u-1", UserChatsKey("u-1"))
	assert.Equal(t, "approved_projects_u-1", ApprovedProjectsKey("u-1"))
}
