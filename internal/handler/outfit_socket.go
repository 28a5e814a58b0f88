package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yourorg/wardrobe/internal/domain"
	"github.com/yourorg/wardrobe/internal/observability/metrics"
	"github.com/yourorg/wardrobe/internal/security/audit"
	"github.com/yourorg/wardrobe/internal/service"
)

// OutfitSocketHandler handles WebSocket connections for outfit management.
// Each connection runs a message loop: read an envelope, resolve the user,
// dispatch, write exactly one reply. Malformed frames and storage faults
// terminate the connection; domain rejections are replied to and the loop
// continues.
type OutfitSocketHandler struct {
	outfits        *service.OutfitService
	users          domain.UserRepository
	auditLogger    *audit.Logger
	logger         *slog.Logger
	allowedOrigins []string
	receiveTimeout time.Duration
}

// NewOutfitSocketHandler creates a new outfit websocket handler
func NewOutfitSocketHandler(outfits *service.OutfitService, users domain.UserRepository, auditLogger *audit.Logger, logger *slog.Logger, allowedOrigins []string, receiveTimeout time.Duration) *OutfitSocketHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if receiveTimeout <= 0 {
		receiveTimeout = 30 * time.Second
	}
	return &OutfitSocketHandler{
		outfits:        outfits,
		users:          users,
		auditLogger:    auditLogger,
		logger:         logger,
		allowedOrigins: allowedOrigins,
		receiveTimeout: receiveTimeout,
	}
}

// upgrader is initialized per-request to use instance's allowed origins
func (h *OutfitSocketHandler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				// Allow requests with no origin (e.g., non-browser clients)
				return true
			}
			for _, allowed := range h.allowedOrigins {
				if origin == allowed {
					return true
				}
			}
			h.logger.Warn("websocket origin rejected", slog.String("origin", origin))
			return false
		},
	}
}

// ServeHTTP upgrades the connection and runs the outfit message loop
func (h *OutfitSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	upgrader := h.getUpgrader()
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer ws.Close()

	metrics.WSConnectionOpened()
	defer metrics.WSConnectionClosed()

	remote := ws.RemoteAddr().String()
	h.logger.Info("outfit socket opened", slog.String("remote", remote))

	ctx := r.Context()

	for {
		// Each message must arrive within the receive window or the
		// connection is considered idle and dropped.
		if err := ws.SetReadDeadline(time.Now().Add(h.receiveTimeout)); err != nil {
			h.logger.Error("failed to set read deadline", slog.String("error", err.Error()))
			return
		}

		_, payload, err := ws.ReadMessage()
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				h.logger.Info("outfit socket idle timeout", slog.String("remote", remote))
			} else if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				h.logger.Warn("outfit socket closed unexpectedly", slog.String("error", err.Error()))
			} else {
				h.logger.Debug("outfit socket closed", slog.String("remote", remote))
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(payload, &env); err != nil {
			// A frame that is not valid JSON means the peer is broken,
			// not just the request. Reply once and hang up.
			_ = ws.WriteJSON(errorReply("Invalid JSON format"))
			h.logger.Warn("undecodable websocket frame", slog.String("remote", remote))
			return
		}

		reply, terminate := h.dispatch(ctx, &env)

		if _, isErr := reply.(ErrorMessage); isErr {
			metrics.ObserveWSMessage(string(env.Type), "error")
		} else {
			metrics.ObserveWSMessage(string(env.Type), "success")
		}

		if err := ws.WriteJSON(reply); err != nil {
			h.logger.Warn("failed to write websocket reply", slog.String("error", err.Error()))
			return
		}
		if terminate {
			return
		}
	}
}

// dispatch routes one envelope to the outfit service. The second return
// value is true when the connection should be torn down after the reply
// is written (storage faults, not domain rejections).
func (h *OutfitSocketHandler) dispatch(ctx context.Context, env *Envelope) (any, bool) {
	if env.Username == "" {
		return errorReply("User not authenticated"), false
	}

	user, err := h.users.GetByUsername(ctx, env.Username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return errorReply("User not found"), false
		}
		h.logger.Error("user lookup failed", slog.String("username", env.Username), slog.String("error", err.Error()))
		return errorReply("Internal server error"), true
	}

	switch env.Type {
	case KindCreateOutfit:
		if env.Outfit == nil || env.Outfit.ItemIDs == nil {
			return errorReply("Invalid outfit data format"), false
		}
		outfit, err := h.outfits.Create(ctx, user.ID, env.Outfit.Name, env.Outfit.ItemIDs)
		if err != nil {
			return h.serviceError(env, err)
		}
		h.auditLogger.Log(user.Username, audit.ActionOutfitCreate, fmt.Sprintf("outfit %d", outfit.ID))
		return OutfitCreatedMessage{Type: "outfit_created", Outfit: newOutfitView(outfit)}, false

	case KindGetOutfits:
		outfits, err := h.outfits.List(ctx, user.ID)
		if err != nil {
			return h.serviceError(env, err)
		}
		views := make([]OutfitView, 0, len(outfits))
		for _, o := range outfits {
			views = append(views, newOutfitView(o))
		}
		return OutfitsListMessage{Type: "outfits_list", Outfits: views}, false

	case KindUpdateOutfit:
		if env.OutfitID == 0 || env.Outfit == nil || env.Outfit.ItemIDs == nil {
			return errorReply("Invalid outfit data format"), false
		}
		outfit, err := h.outfits.Update(ctx, env.OutfitID, user.ID, env.Outfit.Name, env.Outfit.ItemIDs)
		if err != nil {
			return h.serviceError(env, err)
		}
		h.auditLogger.Log(user.Username, audit.ActionOutfitUpdate, fmt.Sprintf("outfit %d", outfit.ID))
		return OutfitUpdatedMessage{Type: "outfit_updated", Outfit: newOutfitView(outfit)}, false

	case KindDeleteOutfit:
		if env.OutfitID == 0 {
			return errorReply("Invalid outfit data format"), false
		}
		deleted, err := h.outfits.Delete(ctx, env.OutfitID, user.ID)
		if err != nil {
			return h.serviceError(env, err)
		}
		if !deleted {
			return errorReply("Outfit not found or access denied"), false
		}
		h.auditLogger.Log(user.Username, audit.ActionOutfitDelete, fmt.Sprintf("outfit %d", env.OutfitID))
		return OutfitDeletedMessage{Type: "outfit_deleted", OutfitID: env.OutfitID}, false

	default:
		return errorReply(fmt.Sprintf("Unknown message type: %s", env.Type)), false
	}
}

// serviceError translates outfit service failures into wire errors.
// Validation rejections keep the connection alive; anything else is a
// storage fault and terminates it.
func (h *OutfitSocketHandler) serviceError(env *Envelope, err error) (any, bool) {
	var missing *domain.MissingItemsError
	if errors.As(err, &missing) {
		return errorReply(missing.Error()), false
	}
	var cardinality *domain.CardinalityError
	if errors.As(err, &cardinality) {
		return errorReply(cardinality.Error()), false
	}
	if errors.Is(err, domain.ErrOutfitNotFound) {
		return errorReply("Outfit not found or access denied"), false
	}
	h.logger.Error("outfit operation failed",
		slog.String("type", string(env.Type)),
		slog.String("username", env.Username),
		slog.String("error", err.Error()),
	)
	return errorReply("Internal server error"), true
}
