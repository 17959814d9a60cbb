package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"quiz-arcade/internal/domain"

	"golang.org/x/sync/singleflight"
)

// CategoryLoader fetches category content from a backing store.
type CategoryLoader interface {
	LoadCategory(ctx context.Context, id string) (domain.Category, error)
}

// CategoryRepository caches categories with TTL to avoid repeated backing
// store hits while sessions start.
type CategoryRepository struct {
	loader CategoryLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedCategory
}

type cachedCategory struct {
	category  domain.Category
	expiresAt time.Time
}

func NewCategoryRepository(loader CategoryLoader, ttl time.Duration) *CategoryRepository {
	return &CategoryRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedCategory),
	}
}

func (r *CategoryRepository) GetCategory(ctx context.Context, id string) (domain.Category, error) {
	now := r.clock()

	r.mu.RLock()
	if entry, ok := r.cache[id]; ok && entry.expiresAt.After(now) {
		r.mu.RUnlock()
		return entry.category, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(id, func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if entry, ok := r.cache[id]; ok && entry.expiresAt.After(now) {
			r.mu.RUnlock()
			return entry.category, nil
		}
		r.mu.RUnlock()

		category, err := r.loader.LoadCategory(ctx, id)
		if err != nil {
			return domain.Category{}, err
		}

		r.mu.Lock()
		r.cache[id] = cachedCategory{
			category:  category,
			expiresAt: now.Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return category, nil
	})
	if err != nil {
		return domain.Category{}, err
	}
	return result.(domain.Category), nil
}

// StaticCategoryLoader serves a fixed in-memory catalog, used for the
// embedded default data and in tests.
type StaticCategoryLoader struct {
	categories map[string]domain.Category
}

func NewStaticCategoryLoader(categories map[string]domain.Category) *StaticCategoryLoader {
	return &StaticCategoryLoader{categories: categories}
}

func (l *StaticCategoryLoader) LoadCategory(_ context.Context, id string) (domain.Category, error) {
	if category, ok := l.categories[id]; ok {
		return category, nil
	}
	return domain.Category{}, domain.ErrCategoryNotFound
}

func (r *CategoryRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
