package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"ssbprep/internal/model"
	"time"

	"github.com/redis/go-redis/v9"
)

// PoolCache handles Redis operations for the stimulus pools read at session start
type PoolCache interface {
	SetImages(ctx context.Context, images []model.ImageStimulus) error
	GetImages(ctx context.Context) ([]model.ImageStimulus, error)
	SetWords(ctx context.Context, words []model.WordStimulus) error
	GetWords(ctx context.Context) ([]model.WordStimulus, error)
	Invalidate(ctx context.Context) error
}

type poolCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPoolCache creates a new pool cache
func NewPoolCache(client *redis.Client, ttl time.Duration) PoolCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &poolCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *poolCache) key(t model.TestType) string {
	return fmt.Sprintf("stimuli:%s:pool", t)
}

func (c *poolCache) SetImages(ctx context.Context, images []model.ImageStimulus) error {
	return c.set(ctx, c.key(model.TestTypeTAT), images)
}

func (c *poolCache) GetImages(ctx context.Context) ([]model.ImageStimulus, error) {
	var images []model.ImageStimulus
	ok, err := c.get(ctx, c.key(model.TestTypeTAT), &images)
	if !ok || err != nil {
		return nil, err
	}
	return images, nil
}

func (c *poolCache) SetWords(ctx context.Context, words []model.WordStimulus) error {
	return c.set(ctx, c.key(model.TestTypeWAT), words)
}

func (c *poolCache) GetWords(ctx context.Context) ([]model.WordStimulus, error) {
	var words []model.WordStimulus
	ok, err := c.get(ctx, c.key(model.TestTypeWAT), &words)
	if !ok || err != nil {
		return nil, err
	}
	return words, nil
}

func (c *poolCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, c.key(model.TestTypeTAT), c.key(model.TestTypeWAT)).Err()
}

func (c *poolCache) set(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// get reports false on a cache miss
func (c *poolCache) get(ctx context.Context, key string, v interface{}) (bool, error) {
	data, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return false, err
	}
	return true, nil
}
