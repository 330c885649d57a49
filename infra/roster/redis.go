package roster

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/takaflow/dispatch/core/dispatch"
	"github.com/takaflow/dispatch/core/model"
)

const (
	collectorHashKey = "roster:collectors"
	loadHashKey      = "roster:loads"
	geoKey           = "roster:geo"
)

// RedisStore keeps the roster in Redis so several engine instances share
// one view of collector loads. Collectors live as JSON in a hash; load
// counters live in a separate hash so reservations are a single atomic
// HINCRBY.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore wraps an existing Redis client.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// Put upserts a collector, its load counter and its GEO index entry.
func (s *RedisStore) Put(ctx context.Context, c model.Collector) error {
	if err := c.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	pipe := s.rdb.Pipeline()
	pipe.HSet(ctx, collectorHashKey, c.ID, data)
	pipe.HSet(ctx, loadHashKey, c.ID, c.CurrentLoad)
	pipe.GeoAdd(ctx, geoKey, &redis.GeoLocation{
		Name:      c.ID,
		Longitude: c.Location.Coordinates.Lng,
		Latitude:  c.Location.Coordinates.Lat,
	})
	_, err = pipe.Exec(ctx)
	return err
}

// Remove deletes a collector from all roster keys.
func (s *RedisStore) Remove(ctx context.Context, id string) error {
	pipe := s.rdb.Pipeline()
	pipe.HDel(ctx, collectorHashKey, id)
	pipe.HDel(ctx, loadHashKey, id)
	pipe.ZRem(ctx, geoKey, id)
	_, err := pipe.Exec(ctx)
	return err
}

// List returns every collector with its live load counter applied.
func (s *RedisStore) List(ctx context.Context) ([]model.Collector, error) {
	docs, err := s.rdb.HGetAll(ctx, collectorHashKey).Result()
	if err != nil {
		return nil, fmt.Errorf("roster list: %w", err)
	}
	loads, err := s.rdb.HGetAll(ctx, loadHashKey).Result()
	if err != nil {
		return nil, fmt.Errorf("roster loads: %w", err)
	}

	out := make([]model.Collector, 0, len(docs))
	for id, doc := range docs {
		var c model.Collector
		if err := json.Unmarshal([]byte(doc), &c); err != nil {
			return nil, fmt.Errorf("decode collector %s: %w", id, err)
		}
		if raw, ok := loads[id]; ok {
			var load int
			if _, err := fmt.Sscanf(raw, "%d", &load); err == nil {
				c.CurrentLoad = load
			}
		}
		out = append(out, c)
	}
	return out, nil
}

// Get returns one collector by id.
func (s *RedisStore) Get(ctx context.Context, id string) (model.Collector, error) {
	doc, err := s.rdb.HGet(ctx, collectorHashKey, id).Result()
	if err == redis.Nil {
		return model.Collector{}, dispatch.ErrUnknownCollector
	}
	if err != nil {
		return model.Collector{}, err
	}
	var c model.Collector
	if err := json.Unmarshal([]byte(doc), &c); err != nil {
		return model.Collector{}, fmt.Errorf("decode collector %s: %w", id, err)
	}
	load, err := s.rdb.HGet(ctx, loadHashKey, id).Int()
	if err == nil {
		c.CurrentLoad = load
	}
	return c, nil
}

// IncrementLoad reserves one slot atomically.
func (s *RedisStore) IncrementLoad(ctx context.Context, id string) error {
	exists, err := s.rdb.HExists(ctx, collectorHashKey, id).Result()
	if err != nil {
		return err
	}
	if !exists {
		return dispatch.ErrUnknownCollector
	}
	return s.rdb.HIncrBy(ctx, loadHashKey, id, 1).Err()
}

// NearbyIDs returns collector ids within radiusKm of the point, closest
// first, using the Redis GEO index.
func (s *RedisStore) NearbyIDs(ctx context.Context, at model.Coordinates, radiusKm float64) ([]string, error) {
	return s.rdb.GeoSearch(ctx, geoKey, &redis.GeoSearchQuery{
		Longitude:  at.Lng,
		Latitude:   at.Lat,
		Radius:     radiusKm,
		RadiusUnit: "km",
		Sort:       "ASC",
	}).Result()
}

// UpdateLocation refreshes the GEO entry and the stored document.
func (s *RedisStore) UpdateLocation(ctx context.Context, id string, loc model.CollectorLocation) error {
	c, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	c.Location = loc
	return s.Put(ctx, c)
}

// SetOnline flips the availability flag on the stored document.
func (s *RedisStore) SetOnline(ctx context.Context, id string, online bool) error {
	c, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	c.Online = online
	return s.Put(ctx, c)
}
