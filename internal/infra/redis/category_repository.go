package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"quiz-arcade/internal/domain"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// CategoryLoader fetches category content from a backing store.
type CategoryLoader interface {
	LoadCategory(ctx context.Context, id string) (domain.Category, error)
}

// CategoryRepository caches categories in Redis as JSON under a TTL'd key
// and falls back to a loader on cache miss, so multiple server instances
// share one warm cache.
type CategoryRepository struct {
	client *redis.Client
	loader CategoryLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewCategoryRepository(client *redis.Client, loader CategoryLoader, ttl time.Duration) *CategoryRepository {
	return &CategoryRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *CategoryRepository) GetCategory(ctx context.Context, id string) (domain.Category, error) {
	key := r.key(id)

	if cached, err := r.client.Get(ctx, key).Bytes(); err == nil {
		var category domain.Category
		if err := json.Unmarshal(cached, &category); err == nil {
			return category, nil
		}
		// Unparsable cache entry: drop it and reload.
		_ = r.client.Del(ctx, key).Err()
	}

	result, err, _ := r.sf.Do(id, func() (interface{}, error) {
		// Re-check in case another goroutine filled the key.
		if cached, err := r.client.Get(ctx, key).Bytes(); err == nil {
			var category domain.Category
			if err := json.Unmarshal(cached, &category); err == nil {
				return category, nil
			}
		}

		category, err := r.loader.LoadCategory(ctx, id)
		if err != nil {
			return domain.Category{}, err
		}

		if data, err := json.Marshal(category); err == nil {
			_ = r.client.Set(ctx, key, data, r.ttlWithJitter()).Err()
		}
		return category, nil
	})
	if err != nil {
		return domain.Category{}, err
	}
	return result.(domain.Category), nil
}

func (r *CategoryRepository) key(id string) string {
	return "quiz:category:" + id
}

func (r *CategoryRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
