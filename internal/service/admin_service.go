package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/yourorg/wardrobe/internal/domain"
)

// AdminService covers the operator-only maintenance paths: bulk catalog
// import, random ownership assignment for testing, stats, and data
// wipes. Wipes clear relations in dependency order because the store
// has no cascading delete.
type AdminService struct {
	catalog      domain.ClothingRepository
	users        domain.UserRepository
	outfits      domain.OutfitRepository
	catalogViews *CatalogService
	logger       *slog.Logger
}

// NewAdminService creates a new admin service
func NewAdminService(
	catalog domain.ClothingRepository,
	users domain.UserRepository,
	outfits domain.OutfitRepository,
	catalogViews *CatalogService,
	logger *slog.Logger,
) *AdminService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminService{
		catalog:      catalog,
		users:        users,
		outfits:      outfits,
		catalogViews: catalogViews,
		logger:       logger,
	}
}

// ImportResult summarizes a bulk catalog import
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

type importEntry struct {
	Name     string `json:"name"`
	Color    string `json:"color"`
	Price    string `json:"price"`
	ImageURL string `json:"image_url"`
	ItemURL  string `json:"item_url"`
}

// ImportFromFile loads a catalog dump keyed by item id. Entries with a
// non-numeric key or an already-present id are skipped, not errors.
// Prices arrive as display strings ("2 999 ₽") and are cleaned to
// floats; unparseable prices import as absent.
func (s *AdminService) ImportFromFile(ctx context.Context, path string) (*ImportResult, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read import file: %w", err)
	}

	var entries map[string]importEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("invalid JSON in import file: %w", err)
	}

	result := &ImportResult{}
	for key, entry := range entries {
		id, err := strconv.Atoi(key)
		if err != nil {
			result.Skipped++
			continue
		}

		exists, err := s.catalog.Exists(ctx, id)
		if err != nil {
			return nil, err
		}
		if exists {
			result.Skipped++
			continue
		}

		item := &domain.Clothing{
			ID:       id,
			Name:     entry.Name,
			Color:    entry.Color,
			ImageURL: entry.ImageURL,
			Price:    parsePrice(entry.Price),
		}
		if entry.ItemURL != "" {
			itemURL := entry.ItemURL
			item.ItemURL = &itemURL
		}

		if err := s.catalog.Insert(ctx, item); err != nil {
			return nil, err
		}
		result.Imported++
	}

	if err := s.catalog.SyncIDSequence(ctx); err != nil {
		s.logger.Warn("could not update id sequence", slog.String("error", err.Error()))
	}

	s.catalogViews.InvalidateCatalog(ctx)
	s.logger.Info("catalog import finished",
		slog.Int("imported", result.Imported),
		slog.Int("skipped", result.Skipped),
	)
	return result, nil
}

// AssignRandom gives a user ownership of count random catalog items it
// does not already own
func (s *AdminService) AssignRandom(ctx context.Context, userID, count int) (int, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return 0, err
	}

	all, err := s.catalogViews.AllItems(ctx)
	if err != nil {
		return 0, err
	}
	if len(all) < count {
		return 0, fmt.Errorf("not enough clothes in master list, only %d available", len(all))
	}

	owned, err := s.users.OwnedClothingIDs(ctx, user.ID)
	if err != nil {
		return 0, err
	}

	available := availableItems(all, owned)
	if len(available) < count {
		return 0, fmt.Errorf("not enough available clothes, only %d the user doesn't already own", len(available))
	}

	rand.Shuffle(len(available), func(i, j int) {
		available[i], available[j] = available[j], available[i]
	})
	for _, item := range available[:count] {
		if err := s.users.AssignClothing(ctx, user.ID, item.ID); err != nil {
			return 0, err
		}
	}

	s.catalogViews.InvalidateWardrobe(user.Username)
	s.logger.Info("random clothes assigned",
		slog.Int("user_id", user.ID),
		slog.Int("count", count),
	)
	return count, nil
}

// AssignRandomAll assigns up to count random items to every user.
// Users close to owning the whole catalog get what is left.
func (s *AdminService) AssignRandomAll(ctx context.Context, count int) (int, error) {
	all, err := s.catalogViews.AllItems(ctx)
	if err != nil {
		return 0, err
	}
	if len(all) < count {
		return 0, fmt.Errorf("not enough clothes in master list, only %d available", len(all))
	}

	users, err := s.users.List(ctx)
	if err != nil {
		return 0, err
	}

	assigned := 0
	for _, user := range users {
		owned, err := s.users.OwnedClothingIDs(ctx, user.ID)
		if err != nil {
			return assigned, err
		}

		available := availableItems(all, owned)
		take := count
		if take > len(available) {
			take = len(available)
		}
		if take == 0 {
			continue
		}

		rand.Shuffle(len(available), func(i, j int) {
			available[i], available[j] = available[j], available[i]
		})
		for _, item := range available[:take] {
			if err := s.users.AssignClothing(ctx, user.ID, item.ID); err != nil {
				return assigned, err
			}
			assigned++
		}
		s.catalogViews.InvalidateWardrobe(user.Username)
	}

	s.logger.Info("random clothes assigned to all users", slog.Int("assignments", assigned))
	return assigned, nil
}

// UserStats lists every user with ownership and outfit counts
func (s *AdminService) UserStats(ctx context.Context) ([]*domain.UserStats, error) {
	return s.users.ListWithStats(ctx)
}

// ResetOutfits wipes all outfits and their membership rows
func (s *AdminService) ResetOutfits(ctx context.Context) error {
	if err := s.outfits.DeleteAll(ctx); err != nil {
		return err
	}
	s.logger.Info("all outfits wiped")
	return nil
}

// ResetOwnership clears the user-clothing relation
func (s *AdminService) ResetOwnership(ctx context.Context) error {
	if err := s.users.DeleteAllOwnership(ctx); err != nil {
		return err
	}
	s.catalogViews.InvalidateCatalog(ctx)
	s.logger.Info("all ownership wiped")
	return nil
}

// ResetCatalog wipes everything referencing the catalog, then the
// catalog itself: outfit membership, ownership, items.
func (s *AdminService) ResetCatalog(ctx context.Context) error {
	if err := s.outfits.DeleteAll(ctx); err != nil {
		return err
	}
	if err := s.users.DeleteAllOwnership(ctx); err != nil {
		return err
	}
	if err := s.catalog.DeleteAll(ctx); err != nil {
		return err
	}
	s.catalogViews.InvalidateCatalog(ctx)
	s.logger.Info("catalog wiped")
	return nil
}

func availableItems(all []*domain.Clothing, owned map[int]struct{}) []*domain.Clothing {
	available := make([]*domain.Clothing, 0, len(all))
	for _, item := range all {
		if _, ok := owned[item.ID]; !ok {
			available = append(available, item)
		}
	}
	return available
}

// parsePrice cleans a display price like "2 999 ₽" into a float.
// Empty and malformed prices are treated as absent.
func parsePrice(raw string) *float64 {
	cleaned := strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(raw, "₽", ""), " ", ""))
	// Non-breaking spaces show up in scraped listings
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	if cleaned == "" {
		return nil
	}
	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &price
}
