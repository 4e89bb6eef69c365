package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// PresenceService keeps the online-users set and per-user status hashes in
// redis, and hosts the sliding-window rate-limit check used by the HTTP
// middleware.
type PresenceService struct {
	client *redis.Client
}

func NewPresenceService(client *redis.Client) *PresenceService {
	return &PresenceService{client: client}
}

func userStatusKey(userID string) string {
	return fmt.Sprintf("user:%s:status", userID)
}

func (p *PresenceService) MarkOnline(ctx context.Context, userID string) error {
	pipe := p.client.Pipeline()
	pipe.SAdd(ctx, "online_users", userID)
	pipe.HSet(ctx, userStatusKey(userID), map[string]interface{}{
		"status":    "online",
		"last_seen": time.Now().Unix(),
	})
	pipe.Expire(ctx, userStatusKey(userID), 5*time.Minute)

	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	slog.Debug("user marked online", "userID", userID)
	return nil
}

func (p *PresenceService) MarkOffline(ctx context.Context, userID string) error {
	pipe := p.client.Pipeline()
	pipe.SRem(ctx, "online_users", userID)
	pipe.HSet(ctx, userStatusKey(userID), map[string]interface{}{
		"status":    "offline",
		"last_seen": time.Now().Unix(),
	})
	pipe.Expire(ctx, userStatusKey(userID), 24*time.Hour)

	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	slog.Debug("user marked offline", "userID", userID)
	return nil
}

func (p *PresenceService) IsUserOnline(ctx context.Context, userID string) (bool, error) {
	return p.client.SIsMember(ctx, "online_users", userID).Result()
}

func (p *PresenceService) GetOnlineUsers(ctx context.Context) ([]string, error) {
	return p.client.SMembers(ctx, "online_users").Result()
}

// CheckRateLimit reports whether another request fits inside the window.
func (p *PresenceService) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	windowStart := now.Add(-window).Unix()

	pipe := p.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", windowStart))
	count := pipe.ZCard(ctx, key)
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.Unix()), Member: now.UnixNano()})
	pipe.Expire(ctx, key, window)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return count.Val() < int64(limit), nil
}
