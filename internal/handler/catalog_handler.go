package handler

import (
	"net/http"
	"strings"

	"clinic-orders/internal/model"
	"clinic-orders/internal/service"

	"github.com/rs/zerolog"
)

// CatalogHandler handles product catalogue HTTP requests.
type CatalogHandler struct {
	service service.CatalogService
	logger  zerolog.Logger
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(service service.CatalogService, logger zerolog.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		logger:  logger.With().Str("handler", "catalog").Logger(),
	}
}

// Search handles GET /api/products?q=&category=&supplier=&limit=&offset=.
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	offset, err := intQuery(r, "offset")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	q := r.URL.Query()
	products, err := h.service.Search(r.Context(), model.ProductFilter{
		Query:    strings.TrimSpace(q.Get("q")),
		Category: q.Get("category"),
		Supplier: q.Get("supplier"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, products)
}

// Facets handles GET /api/products/facets.
func (h *CatalogHandler) Facets(w http.ResponseWriter, r *http.Request) {
	facets, err := h.service.Facets(r.Context())
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, facets)
}

// Import handles POST /api/catalog/import.
func (h *CatalogHandler) Import(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Import(r.Context(), identity(r))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
