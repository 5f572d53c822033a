package handler

import (
	"fmt"
	"net/http"

	"clinic-orders/internal/export"
	"clinic-orders/internal/model"
	"clinic-orders/internal/service"

	"github.com/rs/zerolog"
)

// CartHandler handles the staff side of the ordering workflow.
type CartHandler struct {
	service service.CartService
	logger  zerolog.Logger
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(service service.CartService, logger zerolog.Logger) *CartHandler {
	return &CartHandler{
		service: service,
		logger:  logger.With().Str("handler", "cart").Logger(),
	}
}

// GetDraft handles GET /api/cart.
func (h *CartHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.GetDraft(r.Context(), identity(r))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// AddItem handles POST /api/cart/items.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req model.AddItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	item, err := h.service.AddItem(r.Context(), identity(r), &req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, item)
}

// UpdateItem handles PATCH /api/cart/items/{itemID}. A quantity of zero removes the item.
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuidParam(r, "itemID", model.ErrItemNotFound)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var req model.UpdateQuantityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	view, err := h.service.UpdateItemQuantity(r.Context(), identity(r), itemID, *req.Quantity)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// List handles GET /api/carts.
func (h *CartHandler) List(w http.ResponseWriter, r *http.Request) {
	carts, err := h.service.ListMine(r.Context(), identity(r))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, carts)
}

// Get handles GET /api/carts/{cartID}.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	cartID, err := uuidParam(r, "cartID", model.ErrCartNotFound)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	view, err := h.service.Get(r.Context(), identity(r), cartID)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// Submit handles POST /api/carts/{cartID}/submit.
func (h *CartHandler) Submit(w http.ResponseWriter, r *http.Request) {
	cartID, err := uuidParam(r, "cartID", model.ErrCartNotFound)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	cart, err := h.service.Submit(r.Context(), identity(r), cartID)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, cart)
}

// History handles GET /api/carts/{cartID}/history.
func (h *CartHandler) History(w http.ResponseWriter, r *http.Request) {
	cartID, err := uuidParam(r, "cartID", model.ErrCartNotFound)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	entries, err := h.service.History(r.Context(), identity(r), cartID)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

// Export handles GET /api/carts/{cartID}/export and streams the workbook.
func (h *CartHandler) Export(w http.ResponseWriter, r *http.Request) {
	cartID, err := uuidParam(r, "cartID", model.ErrCartNotFound)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	f, err := h.service.Export(r.Context(), identity(r), cartID)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.Filename(cartID)))
	w.WriteHeader(http.StatusOK)
	if err := f.Write(w); err != nil {
		// Headers are gone; all we can do is log.
		h.logger.Error().Err(err).Str("cart_id", cartID.String()).Msg("failed to stream export")
	}
}
