package handler

import (
	"context"
	"net/http"
	"strings"

	"clinic-orders/internal/model"
	"clinic-orders/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ReviewHandler handles the manager side of the ordering workflow.
type ReviewHandler struct {
	service service.ReviewService
	logger  zerolog.Logger
}

// NewReviewHandler creates a new review handler.
func NewReviewHandler(service service.ReviewService, logger zerolog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: service,
		logger:  logger.With().Str("handler", "review").Logger(),
	}
}

// Queue handles GET /api/review/carts?status=submitted,returned&clinic=.
func (h *ReviewHandler) Queue(w http.ResponseWriter, r *http.Request) {
	filter := model.CartFilter{Clinic: r.URL.Query().Get("clinic")}

	if raw := r.URL.Query().Get("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			status := model.CartStatus(strings.TrimSpace(s))
			if !status.Valid() {
				writeError(w, r, model.NewDomainError(model.ErrCodeValidationFailed, "invalid status: "+string(status)), h.logger)
				return
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}

	carts, err := h.service.ListQueue(r.Context(), identity(r), filter)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, carts)
}

// ApproveItem handles POST /api/review/items/{itemID}/approve.
func (h *ReviewHandler) ApproveItem(w http.ResponseWriter, r *http.Request) {
	h.reviewItem(w, r, func(itemID uuid.UUID, req *model.ReviewItemRequest) (*model.CartItem, error) {
		return h.service.ApproveItem(r.Context(), identity(r), itemID, *req.Quantity, req.Note)
	})
}

// AdjustItem handles POST /api/review/items/{itemID}/adjust.
func (h *ReviewHandler) AdjustItem(w http.ResponseWriter, r *http.Request) {
	h.reviewItem(w, r, func(itemID uuid.UUID, req *model.ReviewItemRequest) (*model.CartItem, error) {
		return h.service.AdjustQuantity(r.Context(), identity(r), itemID, *req.Quantity, req.Note)
	})
}

// DenyItem handles POST /api/review/items/{itemID}/deny.
func (h *ReviewHandler) DenyItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuidParam(r, "itemID", model.ErrItemNotFound)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var req model.ReviewNoteRequest
	if err := decodeOptionalJSON(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	item, err := h.service.DenyItem(r.Context(), identity(r), itemID, req.Note)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, item)
}

// ApproveCart handles POST /api/review/carts/{cartID}/approve.
func (h *ReviewHandler) ApproveCart(w http.ResponseWriter, r *http.Request) {
	h.reviewCart(w, r, h.service.ApproveCart)
}

// ReturnCart handles POST /api/review/carts/{cartID}/return.
func (h *ReviewHandler) ReturnCart(w http.ResponseWriter, r *http.Request) {
	h.reviewCart(w, r, h.service.ReturnCart)
}

func (h *ReviewHandler) reviewItem(w http.ResponseWriter, r *http.Request, act func(uuid.UUID, *model.ReviewItemRequest) (*model.CartItem, error)) {
	itemID, err := uuidParam(r, "itemID", model.ErrItemNotFound)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var req model.ReviewItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	item, err := act(itemID, &req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, item)
}

type cartAction func(ctx context.Context, identity model.Identity, cartID uuid.UUID, note string) (*model.Cart, error)

func (h *ReviewHandler) reviewCart(w http.ResponseWriter, r *http.Request, act cartAction) {
	cartID, err := uuidParam(r, "cartID", model.ErrCartNotFound)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var req model.ReviewNoteRequest
	if err := decodeOptionalJSON(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	cart, err := act(r.Context(), identity(r), cartID, req.Note)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, cart)
}
