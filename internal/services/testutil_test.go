package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"marketplace-chat/internal/cache"
	"marketplace-chat/internal/models"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Chat{}, &models.Message{}, &models.Project{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, id, name string) *models.User {
	t.Helper()
	user := &models.User{
		ID:       id,
		Name:     name,
		Email:    id + "@example.com",
		Password: "hashed",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
	return user
}

// recordingBackend is an in-memory cache.Backend that remembers every
// removed key, so tests can assert on invalidation traffic.
type recordingBackend struct {
	entries map[string][]byte
	removed []string
}

func newRecordingBackend() *recordingBackend {
	return &recordingBackend{entries: make(map[string][]byte)}
}

func (b *recordingBackend) Get(ctx context.Context, key string) ([]byte, error) {
	data, ok := b.entries[key]
	if !ok {
		return nil, cache.ErrMiss
	}
	return data, nil
}

func (b *recordingBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	b.entries[key] = value
	return nil
}

func (b *recordingBackend) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return nil
}

func (b *recordingBackend) Remove(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		b.removed = append(b.removed, key)
		delete(b.entries, key)
	}
	return nil
}
