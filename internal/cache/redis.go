// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jason-s-yu/bubugame/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	// ScoresChannel carries a models.ScoreEvent for every saved score.
	ScoresChannel = "bubugame:scores"

	leaderboardPrefix = "bubugame:leaderboard:"
)

// Cache wraps a Redis client. A nil *Cache is valid and behaves as an
// always-empty cache that drops publishes, so callers never branch on
// whether Redis is configured.
type Cache struct {
	rdb *redis.Client
}

// Connect dials Redis at addr and verifies the connection with a PING.
func Connect(ctx context.Context, addr string, db int) (*Cache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return &Cache{rdb: rdb}, nil
}

// Close releases the underlying client.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}

func leaderboardKey(limit int) string {
	return fmt.Sprintf("%s%d", leaderboardPrefix, limit)
}

// GetLeaderboard returns the cached rows for limit. ok is false on a miss.
// Cached rows carry no UserID.
func (c *Cache) GetLeaderboard(ctx context.Context, limit int) (rows []models.LeaderboardEntry, ok bool, err error) {
	if c == nil {
		return nil, false, nil
	}
	data, err := c.rdb.Get(ctx, leaderboardKey(limit)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read leaderboard cache: %w", err)
	}
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, false, fmt.Errorf("failed to decode leaderboard cache: %w", err)
	}
	return rows, true, nil
}

// SetLeaderboard stores rows for limit with the given ttl.
func (c *Cache) SetLeaderboard(ctx context.Context, limit int, rows []models.LeaderboardEntry, ttl time.Duration) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to encode leaderboard cache: %w", err)
	}
	if err := c.rdb.Set(ctx, leaderboardKey(limit), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write leaderboard cache: %w", err)
	}
	return nil
}

// InvalidateLeaderboard drops every cached leaderboard regardless of limit.
func (c *Cache) InvalidateLeaderboard(ctx context.Context) error {
	if c == nil {
		return nil
	}
	iter := c.rdb.Scan(ctx, 0, leaderboardPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan leaderboard keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete leaderboard keys: %w", err)
	}
	return nil
}

// PublishScore announces a saved score on ScoresChannel.
func (c *Cache) PublishScore(ctx context.Context, ev models.ScoreEvent) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal ScoreEvent: %w", err)
	}
	if err := c.rdb.Publish(ctx, ScoresChannel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish to '%s': %w", ScoresChannel, err)
	}
	return nil
}

// SubscribeScores streams score events until ctx is done. The returned
// channel is closed when the subscription ends. Undecodable messages are skipped.
// On a nil Cache the channel is closed only when ctx is done.
func (c *Cache) SubscribeScores(ctx context.Context) (<-chan models.ScoreEvent, error) {
	out := make(chan models.ScoreEvent)
	if c == nil {
		go func() {
			<-ctx.Done()
			close(out)
		}()
		return out, nil
	}

	sub := c.rdb.Subscribe(ctx, ScoresChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("failed to subscribe to '%s': %w", ScoresChannel, err)
	}

	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev models.ScoreEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
