package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yourorg/wardrobe/internal/domain"
	"github.com/yourorg/wardrobe/internal/observability/metrics"
)

// OutfitService enforces the outfit composition rules: every requested
// member id must resolve against the catalog, and the resolved set must
// hold between domain.MinOutfitItems and domain.MaxOutfitItems items.
// Validation runs before any write; a failed request persists nothing.
type OutfitService struct {
	catalog domain.ClothingRepository
	outfits domain.OutfitRepository
	logger  *slog.Logger
}

// NewOutfitService creates a new outfit service
func NewOutfitService(
	catalog domain.ClothingRepository,
	outfits domain.OutfitRepository,
	logger *slog.Logger,
) *OutfitService {
	if logger == nil {
		logger = slog.Default()
	}
	return &OutfitService{
		catalog: catalog,
		outfits: outfits,
		logger:  logger,
	}
}

// Create validates the requested membership and persists a new outfit.
// Duplicate ids are not an error; membership is a set keyed by item id,
// so supplying the same id twice yields one member. The returned outfit
// is reloaded from storage, not echoed from the request.
func (s *OutfitService) Create(ctx context.Context, ownerID int, name *string, itemIDs []int) (*domain.Outfit, error) {
	start := time.Now()

	unique, err := s.resolveMembers(ctx, itemIDs)
	if err != nil {
		metrics.ObserveOutfitOperation("create", "rejected", time.Since(start))
		return nil, err
	}

	outfit, err := s.outfits.Insert(ctx, ownerID, name, unique)
	if err != nil {
		metrics.ObserveOutfitOperation("create", "error", time.Since(start))
		return nil, fmt.Errorf("failed to create outfit: %w", err)
	}

	s.logger.Info("outfit created",
		slog.Int("outfit_id", outfit.ID),
		slog.Int("owner_id", ownerID),
		slog.Int("items", len(outfit.Clothes)),
	)
	metrics.ObserveOutfitOperation("create", "success", time.Since(start))
	return outfit, nil
}

// List returns all outfits of a user, members populated
func (s *OutfitService) List(ctx context.Context, ownerID int) ([]*domain.Outfit, error) {
	outfits, err := s.outfits.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list outfits: %w", err)
	}
	return outfits, nil
}

// Get returns a populated outfit. A missing outfit and an outfit owned
// by another user are both domain.ErrOutfitNotFound.
func (s *OutfitService) Get(ctx context.Context, outfitID, ownerID int) (*domain.Outfit, error) {
	return s.outfits.GetByIDAndOwner(ctx, outfitID, ownerID)
}

// Update replaces the outfit name and the entire membership set. The new
// set is validated with the same rules as Create; the old set is
// discarded, not merged.
func (s *OutfitService) Update(ctx context.Context, outfitID, ownerID int, name *string, itemIDs []int) (*domain.Outfit, error) {
	start := time.Now()

	if _, err := s.outfits.GetByIDAndOwner(ctx, outfitID, ownerID); err != nil {
		metrics.ObserveOutfitOperation("update", "rejected", time.Since(start))
		return nil, err
	}

	unique, err := s.resolveMembers(ctx, itemIDs)
	if err != nil {
		metrics.ObserveOutfitOperation("update", "rejected", time.Since(start))
		return nil, err
	}

	outfit, err := s.outfits.Replace(ctx, outfitID, ownerID, name, unique)
	if err != nil {
		metrics.ObserveOutfitOperation("update", "error", time.Since(start))
		return nil, err
	}

	s.logger.Info("outfit updated",
		slog.Int("outfit_id", outfitID),
		slog.Int("owner_id", ownerID),
		slog.Int("items", len(outfit.Clothes)),
	)
	metrics.ObserveOutfitOperation("update", "success", time.Since(start))
	return outfit, nil
}

// Delete removes an outfit. Deleting a missing or foreign outfit
// reports false rather than failing.
func (s *OutfitService) Delete(ctx context.Context, outfitID, ownerID int) (bool, error) {
	start := time.Now()

	deleted, err := s.outfits.Delete(ctx, outfitID, ownerID)
	if err != nil {
		metrics.ObserveOutfitOperation("delete", "error", time.Since(start))
		return false, fmt.Errorf("failed to delete outfit: %w", err)
	}

	if deleted {
		s.logger.Info("outfit deleted",
			slog.Int("outfit_id", outfitID),
			slog.Int("owner_id", ownerID),
		)
	}
	metrics.ObserveOutfitOperation("delete", "success", time.Since(start))
	return deleted, nil
}

// resolveMembers checks every requested id against the catalog and the
// cardinality bounds, returning the deduplicated id list on success.
func (s *OutfitService) resolveMembers(ctx context.Context, itemIDs []int) ([]int, error) {
	unique := make([]int, 0, len(itemIDs))
	seen := make(map[int]struct{}, len(itemIDs))
	for _, id := range itemIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	items, err := s.catalog.GetByIDs(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve clothing items: %w", err)
	}

	found := make(map[int]struct{}, len(items))
	for _, item := range items {
		found[item.ID] = struct{}{}
	}
	var missing []int
	for _, id := range unique {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, &domain.MissingItemsError{IDs: missing}
	}

	if len(items) < domain.MinOutfitItems || len(items) > domain.MaxOutfitItems {
		return nil, &domain.CardinalityError{Count: len(items)}
	}
	return unique, nil
}
