package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisGraphStore keeps serialized graphs under a key prefix. Selected
// by REDIS_URL when no database is configured.
type RedisGraphStore struct {
	client *redis.Client
}

func NewRedisGraphStore(url string) (*RedisGraphStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &RedisGraphStore{client: redis.NewClient(opts)}, nil
}

func graphKey(areaKey string) string { return "roadgraph:" + areaKey }

func (s *RedisGraphStore) LoadGraph(ctx context.Context, areaKey string) (*RoadGraph, error) {
	payload, err := s.client.Get(ctx, graphKey(areaKey)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrGraphNotFound
	}
	if err != nil {
		return nil, err
	}
	var g RoadGraph
	if err := json.Unmarshal(payload, &g); err != nil {
		return nil, fmt.Errorf("decode graph %s: %w", areaKey, err)
	}
	return &g, nil
}

func (s *RedisGraphStore) SaveGraph(ctx context.Context, areaKey string, g *RoadGraph) error {
	payload, err := json.Marshal(g)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, graphKey(areaKey), payload, 0).Err()
}
