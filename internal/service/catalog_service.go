package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/yourorg/wardrobe/internal/domain"
	"github.com/yourorg/wardrobe/internal/infrastructure/redis"
	"github.com/yourorg/wardrobe/internal/observability/metrics"
	"github.com/yourorg/wardrobe/internal/reliability/circuitbreaker"
	"github.com/yourorg/wardrobe/pkg/cache"
)

const catalogCacheKey = "catalog:all"

// WardrobeItem is the read-model of an owned catalog item with the
// category slug resolved to its display name
type WardrobeItem struct {
	ID       int      `json:"id"`
	Name     string   `json:"name"`
	Category string   `json:"category"`
	ImageURL string   `json:"image_url"`
	Color    string   `json:"color"`
	Price    *float64 `json:"price"`
	ItemURL  *string  `json:"item_url"`
}

// CatalogService serves the catalog and per-user wardrobe read paths.
// Whole-catalog reads go through Redis with a circuit breaker; when the
// breaker is open or Redis is absent, reads fall through to Postgres.
// Per-user wardrobe views use a short-lived in-process cache.
type CatalogService struct {
	catalog       domain.ClothingRepository
	users         domain.UserRepository
	redisClient   *redis.Client // nil disables the shared cache
	breaker       *circuitbreaker.CircuitBreaker
	local         *cache.Cache
	cacheTTL      time.Duration
	wardrobeTTL   time.Duration
	categoryNames map[string]string
	logger        *slog.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(
	catalog domain.ClothingRepository,
	users domain.UserRepository,
	redisClient *redis.Client,
	categoryNames map[string]string,
	cacheTTL, wardrobeTTL time.Duration,
	logger *slog.Logger,
) *CatalogService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogService{
		catalog:       catalog,
		users:         users,
		redisClient:   redisClient,
		breaker:       circuitbreaker.NewCircuitBreaker(5, 2, 30*time.Second),
		local:         cache.New(),
		cacheTTL:      cacheTTL,
		wardrobeTTL:   wardrobeTTL,
		categoryNames: categoryNames,
		logger:        logger,
	}
}

// AllItems returns the full catalog, served from Redis when possible
func (s *CatalogService) AllItems(ctx context.Context) ([]*domain.Clothing, error) {
	if items, ok := s.cachedCatalog(ctx); ok {
		return items, nil
	}

	items, err := s.catalog.List(ctx)
	if err != nil {
		return nil, err
	}
	s.storeCatalog(ctx, items)
	return items, nil
}

// Wardrobe returns the items owned by a user with display categories
func (s *CatalogService) Wardrobe(ctx context.Context, username string) ([]WardrobeItem, error) {
	cacheKey := "wardrobe:" + username
	if cached, ok := s.local.Get(cacheKey); ok {
		return cached.([]WardrobeItem), nil
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	owned, err := s.users.OwnedClothing(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	items := make([]WardrobeItem, 0, len(owned))
	for _, c := range owned {
		items = append(items, WardrobeItem{
			ID:       c.ID,
			Name:     c.Name,
			Category: s.DisplayCategory(c.Category),
			ImageURL: c.ImageURL,
			Color:    c.Color,
			Price:    c.Price,
			ItemURL:  c.ItemURL,
		})
	}

	s.local.Set(cacheKey, items, s.wardrobeTTL)
	return items, nil
}

// DisplayCategory resolves a category slug to its display name. An
// unmapped slug is logged and passed through as-is; a missing category
// gets a placeholder.
func (s *CatalogService) DisplayCategory(slug *string) string {
	if slug == nil || *slug == "" {
		return "Не указано"
	}
	if name, ok := s.categoryNames[*slug]; ok {
		return name
	}
	s.logger.Warn("unmapped category slug", slog.String("slug", *slug))
	return *slug
}

// InvalidateCatalog drops cached catalog state after a mutation
func (s *CatalogService) InvalidateCatalog(ctx context.Context) {
	s.local.Invalidate("wardrobe:")
	if s.redisClient == nil {
		return
	}
	if err := s.redisClient.Delete(ctx, catalogCacheKey); err != nil {
		s.logger.Warn("failed to invalidate catalog cache", slog.String("error", err.Error()))
	}
}

// InvalidateWardrobe drops one user's cached wardrobe view
func (s *CatalogService) InvalidateWardrobe(username string) {
	s.local.Delete("wardrobe:" + username)
}

func (s *CatalogService) cachedCatalog(ctx context.Context) ([]*domain.Clothing, bool) {
	if s.redisClient == nil {
		return nil, false
	}
	if !s.breaker.AllowRequest() {
		metrics.ObserveCatalogCache("bypass")
		return nil, false
	}

	raw, err := s.redisClient.Get(ctx, catalogCacheKey)
	if err != nil {
		if redis.IsMiss(err) {
			s.breaker.RecordSuccess()
			metrics.ObserveCatalogCache("miss")
			return nil, false
		}
		s.breaker.RecordFailure()
		metrics.ObserveCatalogCache("error")
		s.logger.Warn("catalog cache read failed", slog.String("error", err.Error()))
		return nil, false
	}
	s.breaker.RecordSuccess()

	var items []*domain.Clothing
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		metrics.ObserveCatalogCache("error")
		return nil, false
	}
	metrics.ObserveCatalogCache("hit")
	return items, true
}

func (s *CatalogService) storeCatalog(ctx context.Context, items []*domain.Clothing) {
	if s.redisClient == nil || !s.breaker.AllowRequest() {
		return
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return
	}
	if err := s.redisClient.Set(ctx, catalogCacheKey, string(raw), s.cacheTTL); err != nil {
		s.breaker.RecordFailure()
		s.logger.Warn("catalog cache write failed", slog.String("error", err.Error()))
		return
	}
	s.breaker.RecordSuccess()
}
