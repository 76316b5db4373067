package cache

import (
	"context"
	"fmt"
	"ssbprep/internal/model"

	"github.com/redis/go-redis/v9"
)

// LeaderboardCache handles Redis ZSET operations for the best percentage per user
type LeaderboardCache interface {
	Record(ctx context.Context, t model.TestType, userID string, percentage float64) error
	GetTop(ctx context.Context, t model.TestType, limit int) ([]model.LeaderboardEntry, error)
	GetRank(ctx context.Context, t model.TestType, userID string) (int64, error)
}

type leaderboardCache struct {
	client *redis.Client
}

// NewLeaderboardCache creates a new leaderboard cache
func NewLeaderboardCache(client *redis.Client) LeaderboardCache {
	return &leaderboardCache{
		client: client,
	}
}

func (c *leaderboardCache) key(t model.TestType) string {
	return fmt.Sprintf("leaderboard:%s", t)
}

// Record keeps the user's best percentage; lower scores never replace it
func (c *leaderboardCache) Record(ctx context.Context, t model.TestType, userID string, percentage float64) error {
	return c.client.ZAddGT(ctx, c.key(t), redis.Z{
		Score:  percentage,
		Member: userID,
	}).Err()
}

func (c *leaderboardCache) GetTop(ctx context.Context, t model.TestType, limit int) ([]model.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	results, err := c.client.ZRevRangeWithScores(ctx, c.key(t), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]model.LeaderboardEntry, len(results))
	for i, z := range results {
		member, _ := z.Member.(string)
		entries[i] = model.LeaderboardEntry{
			UserID:     member,
			Percentage: z.Score,
			Rank:       i + 1,
		}
	}
	return entries, nil
}

func (c *leaderboardCache) GetRank(ctx context.Context, t model.TestType, userID string) (int64, error) {
	rank, err := c.client.ZRevRank(ctx, c.key(t), userID).Result()
	if err == redis.Nil {
		return -1, nil
	}
	return rank + 1, err // 1-indexed
}
