package gmaps

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Rizwan-Ijaz/route-optimization-backend/internal/model"
)

// matrixProvider and geocoder mirror the interfaces the optimization
// service pulls; declared locally so the cache layer decorates any
// implementation.
type matrixProvider interface {
	Matrices(ctx context.Context, locations []model.Coordinates) (dist, travel [][]int64, err error)
}

type geocoder interface {
	Geocode(ctx context.Context, address string) (model.Coordinates, error)
}

// CachedProvider decorates a matrix provider and geocoder with a Redis
// cache. Matrix responses are keyed by a digest of the ordered location
// list; geocode responses by the address string. Cache consistency is this
// adapter's concern alone — the optimizer only ever sees final matrices.
//
// Cache failures degrade to the underlying provider; they are logged, not
// surfaced.
type CachedProvider struct {
	matrix  matrixProvider
	geocode geocoder
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedProvider wraps the given provider with a Redis cache.
func NewCachedProvider(inner *Client, rdb *redis.Client, ttl time.Duration) *CachedProvider {
	return &CachedProvider{matrix: inner, geocode: inner, rdb: rdb, ttl: ttl}
}

type cachedMatrices struct {
	Distance [][]int64 `json:"distance"`
	Travel   [][]int64 `json:"travel"`
}

// Matrices serves from cache when the exact location list was fetched
// before, otherwise delegates and stores the result.
func (c *CachedProvider) Matrices(ctx context.Context, locations []model.Coordinates) ([][]int64, [][]int64, error) {
	key := matrixKey(locations)

	if raw, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var cached cachedMatrices
		if err := json.Unmarshal(raw, &cached); err == nil {
			log.Printf("[matrix] cache hit for %d locations", len(locations))
			return cached.Distance, cached.Travel, nil
		}
	} else if err != redis.Nil {
		log.Printf("[matrix] cache read failed: %v", err)
	}

	dist, travel, err := c.matrix.Matrices(ctx, locations)
	if err != nil {
		return nil, nil, err
	}

	if raw, err := json.Marshal(cachedMatrices{Distance: dist, Travel: travel}); err == nil {
		if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			log.Printf("[matrix] cache write failed: %v", err)
		}
	}
	return dist, travel, nil
}

// Geocode serves a cached coordinate when the address was resolved before.
func (c *CachedProvider) Geocode(ctx context.Context, address string) (model.Coordinates, error) {
	key := "geocode:" + address

	if raw, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var coord model.Coordinates
		if err := json.Unmarshal(raw, &coord); err == nil {
			return coord, nil
		}
	} else if err != redis.Nil {
		log.Printf("[geocode] cache read failed: %v", err)
	}

	coord, err := c.geocode.Geocode(ctx, address)
	if err != nil {
		return model.Coordinates{}, err
	}

	if raw, err := json.Marshal(coord); err == nil {
		if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			log.Printf("[geocode] cache write failed: %v", err)
		}
	}
	return coord, nil
}

func matrixKey(locations []model.Coordinates) string {
	h := sha1.New()
	for _, l := range locations {
		fmt.Fprintf(h, "%f,%f;", l.Latitude, l.Longitude)
	}
	return "matrix:" + hex.EncodeToString(h.Sum(nil))
}
