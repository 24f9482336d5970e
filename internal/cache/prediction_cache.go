package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utakatalp/goal-forecaster/internal/scoring"
)

const DefaultTTL = 24 * time.Hour

// PredictionCache keeps scored predictions in Redis, keyed by the exact
// inputs and scoring configuration that produced them.
type PredictionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// Open connects to the Redis instance at url and checks it answers.
func Open(ctx context.Context, url string, ttl time.Duration) (*PredictionCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return NewPredictionCache(client, ttl), nil
}

func NewPredictionCache(client *redis.Client, ttl time.Duration) *PredictionCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &PredictionCache{client: client, ttl: ttl}
}

func (c *PredictionCache) Close() error {
	return c.client.Close()
}

// Key derives the cache key for an analysis. Any change to the inputs or the
// weights yields a different key.
func Key(in scoring.Input, cfg scoring.Config) (string, error) {
	h := sha256.New()
	enc := json.NewEncoder(h)
	if err := enc.Encode(in); err != nil {
		return "", fmt.Errorf("hashing input: %w", err)
	}
	if err := enc.Encode(cfg); err != nil {
		return "", fmt.Errorf("hashing config: %w", err)
	}
	return fmt.Sprintf("prediction:%d:%d:%s", in.HomeTeamID, in.AwayTeamID, hex.EncodeToString(h.Sum(nil))), nil
}

// Get returns the cached prediction for key. The boolean is false on a miss.
func (c *PredictionCache) Get(ctx context.Context, key string) (scoring.Prediction, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return scoring.Prediction{}, false, nil
	}
	if err != nil {
		return scoring.Prediction{}, false, fmt.Errorf("reading %s: %w", key, err)
	}

	var p scoring.Prediction
	if err := json.Unmarshal(data, &p); err != nil {
		return scoring.Prediction{}, false, fmt.Errorf("decoding %s: %w", key, err)
	}
	return p, true, nil
}

func (c *PredictionCache) Set(ctx context.Context, key string, p scoring.Prediction) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshaling prediction: %w", err)
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}
