package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// CachedGeocoder wraps a ReverseGeocoder with a Redis cache. Coordinates are
// rounded to four decimal places, so lookups from roughly the same spot share
// one provider call. Cache trouble degrades to a plain lookup.
type CachedGeocoder struct {
	inner  ReverseGeocoder
	client redis.Cmdable
	ttl    time.Duration
	log    *slog.Logger
}

func NewCachedGeocoder(inner ReverseGeocoder, client redis.Cmdable, ttl time.Duration, log *slog.Logger) *CachedGeocoder {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if log == nil {
		log = slog.Default()
	}

	return &CachedGeocoder{
		inner:  inner,
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

func (c *CachedGeocoder) Reverse(ctx context.Context, lat, lon float64) (*Location, error) {
	key := cacheKey(lat, lon)

	if c.client != nil {
		data, err := c.client.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			var loc Location
			if err := json.Unmarshal(data, &loc); err == nil {
				return &loc, nil
			}
			c.log.Warn("dropping undecodable geocode cache entry", slog.String("key", key))
		case !errors.Is(err, redis.Nil):
			c.log.Warn("geocode cache read failed", slog.Any("error", err))
		}
	}

	loc, err := c.inner.Reverse(ctx, lat, lon)
	if err != nil {
		return nil, err
	}

	if c.client != nil {
		if payload, err := json.Marshal(loc); err == nil {
			if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
				c.log.Warn("geocode cache write failed", slog.Any("error", err))
			}
		}
	}

	return loc, nil
}

func cacheKey(lat, lon float64) string {
	return fmt.Sprintf("geocode:%.4f:%.4f", lat, lon)
}
