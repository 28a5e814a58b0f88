package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/yourorg/wardrobe/internal/security/audit"
	"github.com/yourorg/wardrobe/internal/security/middleware"
	"github.com/yourorg/wardrobe/internal/service"
)

// AdminHandler exposes catalog import, random assignment, user stats
// and data reset operations. Routing restricts these to the admin role.
type AdminHandler struct {
	admin       *service.AdminService
	auditLogger *audit.Logger
	importPath  string
	logger      *slog.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(admin *service.AdminService, auditLogger *audit.Logger, importPath string, logger *slog.Logger) *AdminHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminHandler{
		admin:       admin,
		auditLogger: auditLogger,
		importPath:  importPath,
		logger:      logger,
	}
}

// AssignRequest selects how many random items to grant and to whom
type AssignRequest struct {
	UserID int `json:"user_id"`
	Count  int `json:"count"`
}

// Import handles POST /api/admin/import requests
func (h *AdminHandler) Import(w http.ResponseWriter, r *http.Request) {
	result, err := h.admin.ImportFromFile(r.Context(), h.importPath)
	if err != nil {
		h.logger.Error("catalog import failed", slog.String("error", err.Error()))
		writeJSONError(w, "import failed", http.StatusInternalServerError)
		return
	}

	h.audit(r, audit.ActionImport, fmt.Sprintf("imported %d, skipped %d", result.Imported, result.Skipped))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// Assign handles POST /api/admin/assign requests
func (h *AdminHandler) Assign(w http.ResponseWriter, r *http.Request) {
	var req AssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.UserID <= 0 || req.Count <= 0 {
		writeJSONError(w, "user_id and count must be positive", http.StatusBadRequest)
		return
	}

	assigned, err := h.admin.AssignRandom(r.Context(), req.UserID, req.Count)
	if err != nil {
		h.logger.Error("assignment failed",
			slog.Int("user_id", req.UserID),
			slog.String("error", err.Error()),
		)
		writeJSONError(w, "assignment failed", http.StatusInternalServerError)
		return
	}

	h.audit(r, audit.ActionAssign, fmt.Sprintf("assigned %d items to user %d", assigned, req.UserID))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{"assigned": assigned})
}

// AssignAll handles POST /api/admin/assign-all requests
func (h *AdminHandler) AssignAll(w http.ResponseWriter, r *http.Request) {
	var req AssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.Count <= 0 {
		writeJSONError(w, "count must be positive", http.StatusBadRequest)
		return
	}

	assigned, err := h.admin.AssignRandomAll(r.Context(), req.Count)
	if err != nil {
		h.logger.Error("bulk assignment failed", slog.String("error", err.Error()))
		writeJSONError(w, "assignment failed", http.StatusInternalServerError)
		return
	}

	h.audit(r, audit.ActionAssign, fmt.Sprintf("assigned %d items across all users", assigned))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{"assigned": assigned})
}

// Users handles GET /api/admin/users requests
func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	stats, err := h.admin.UserStats(r.Context())
	if err != nil {
		h.logger.Error("failed to load user stats", slog.String("error", err.Error()))
		writeJSONError(w, "failed to load users", http.StatusInternalServerError)
		return
	}

	type userStatsView struct {
		ID          int    `json:"id"`
		Username    string `json:"username"`
		OwnedCount  int    `json:"owned_count"`
		OutfitCount int    `json:"outfit_count"`
	}
	views := make([]userStatsView, 0, len(stats))
	for _, s := range stats {
		views = append(views, userStatsView{
			ID:          s.User.ID,
			Username:    s.User.Username,
			OwnedCount:  s.OwnedCount,
			OutfitCount: s.OutfitCount,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"users": views})
}

// ResetOutfits handles POST /api/admin/reset-outfits requests
func (h *AdminHandler) ResetOutfits(w http.ResponseWriter, r *http.Request) {
	h.reset(w, r, "outfits", h.admin.ResetOutfits)
}

// ResetOwnership handles POST /api/admin/reset-ownership requests
func (h *AdminHandler) ResetOwnership(w http.ResponseWriter, r *http.Request) {
	h.reset(w, r, "ownership", h.admin.ResetOwnership)
}

// ResetCatalog handles POST /api/admin/reset-catalog requests
func (h *AdminHandler) ResetCatalog(w http.ResponseWriter, r *http.Request) {
	h.reset(w, r, "catalog", h.admin.ResetCatalog)
}

func (h *AdminHandler) reset(w http.ResponseWriter, r *http.Request, scope string, fn func(ctx context.Context) error) {
	if err := fn(r.Context()); err != nil {
		h.logger.Error("reset failed",
			slog.String("scope", scope),
			slog.String("error", err.Error()),
		)
		writeJSONError(w, "reset failed", http.StatusInternalServerError)
		return
	}

	h.audit(r, audit.ActionReset, "reset "+scope)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (h *AdminHandler) audit(r *http.Request, action audit.Action, details string) {
	username := ""
	if claims := middleware.GetClaimsFromContext(r.Context()); claims != nil {
		username = claims.Username()
	}
	h.auditLogger.Log(username, action, details)
}
