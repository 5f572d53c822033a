package handler

import (
	"net/http"

	"clinic-orders/internal/model"
	"clinic-orders/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// PolicyHandler handles policy document requests.
type PolicyHandler struct {
	service service.PolicyService
	logger  zerolog.Logger
}

// NewPolicyHandler creates a new policy handler.
func NewPolicyHandler(service service.PolicyService, logger zerolog.Logger) *PolicyHandler {
	return &PolicyHandler{
		service: service,
		logger:  logger.With().Str("handler", "policy").Logger(),
	}
}

// Save handles PUT /api/policies/{policyID}.
func (h *PolicyHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req model.SavePolicyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	policy, err := h.service.Save(r.Context(), identity(r), chi.URLParam(r, "policyID"), &req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, policy)
}

// Get handles GET /api/policies/{policyID}.
func (h *PolicyHandler) Get(w http.ResponseWriter, r *http.Request) {
	policy, err := h.service.Get(r.Context(), chi.URLParam(r, "policyID"))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, policy)
}

// List handles GET /api/policies.
func (h *PolicyHandler) List(w http.ResponseWriter, r *http.Request) {
	policies, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, policies)
}
