package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/yourorg/wardrobe/internal/domain"
	"github.com/yourorg/wardrobe/internal/security/middleware"
	"github.com/yourorg/wardrobe/internal/service"
)

// WardrobeHandler serves the authenticated user's wardrobe and the
// shared clothing catalog.
type WardrobeHandler struct {
	catalog *service.CatalogService
	logger  *slog.Logger
}

// NewWardrobeHandler creates a new wardrobe handler
func NewWardrobeHandler(catalog *service.CatalogService, logger *slog.Logger) *WardrobeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WardrobeHandler{
		catalog: catalog,
		logger:  logger,
	}
}

// Wardrobe handles GET /api/wardrobe requests. The owner is taken
// from the token claims.
func (h *WardrobeHandler) Wardrobe(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		http.Error(w, `{"error":"missing auth"}`, http.StatusUnauthorized)
		return
	}

	items, err := h.catalog.Wardrobe(r.Context(), claims.Username())
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			writeJSONError(w, "user not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load wardrobe",
			slog.String("username", claims.Username()),
			slog.String("error", err.Error()),
		)
		writeJSONError(w, "failed to load wardrobe", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{"items": items}); err != nil {
		h.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// Catalog handles GET /api/catalog requests
func (h *WardrobeHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.AllItems(r.Context())
	if err != nil {
		h.logger.Error("failed to load catalog", slog.String("error", err.Error()))
		writeJSONError(w, "failed to load catalog", http.StatusInternalServerError)
		return
	}

	views := make([]ItemView, 0, len(items))
	for _, c := range items {
		category := h.catalog.DisplayCategory(c.Category)
		views = append(views, ItemView{
			ID:       c.ID,
			Name:     c.Name,
			ImageURL: c.ImageURL,
			Category: &category,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{"items": views}); err != nil {
		h.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}
