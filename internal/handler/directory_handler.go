package handler

import (
	"net/http"

	"clinic-orders/internal/model"
	"clinic-orders/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// DirectoryHandler handles company, access code and user requests for the
// policy manager.
type DirectoryHandler struct {
	service service.DirectoryService
	logger  zerolog.Logger
}

// NewDirectoryHandler creates a new directory handler.
func NewDirectoryHandler(service service.DirectoryService, logger zerolog.Logger) *DirectoryHandler {
	return &DirectoryHandler{
		service: service,
		logger:  logger.With().Str("handler", "directory").Logger(),
	}
}

// CreateCompany handles POST /api/companies.
func (h *DirectoryHandler) CreateCompany(w http.ResponseWriter, r *http.Request) {
	var req model.CreateCompanyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	company, err := h.service.CreateCompany(r.Context(), identity(r), &req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, company)
}

// ListCompanies handles GET /api/companies.
func (h *DirectoryHandler) ListCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := h.service.ListCompanies(r.Context())
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, companies)
}

// DeleteCompany handles DELETE /api/companies/{companyID}.
func (h *DirectoryHandler) DeleteCompany(w http.ResponseWriter, r *http.Request) {
	companyID, err := uuidParam(r, "companyID", model.ErrCompanyNotFound)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	if err := h.service.DeleteCompany(r.Context(), identity(r), companyID); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CreateAccessCode handles POST /api/companies/{companyID}/access-codes.
func (h *DirectoryHandler) CreateAccessCode(w http.ResponseWriter, r *http.Request) {
	companyID, err := uuidParam(r, "companyID", model.ErrCompanyNotFound)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var req model.CreateAccessCodeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	code, err := h.service.CreateAccessCode(r.Context(), identity(r), companyID, &req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, code)
}

// ListAccessCodes handles GET /api/companies/{companyID}/access-codes.
func (h *DirectoryHandler) ListAccessCodes(w http.ResponseWriter, r *http.Request) {
	companyID, err := uuidParam(r, "companyID", model.ErrCompanyNotFound)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	codes, err := h.service.ListAccessCodes(r.Context(), companyID)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, codes)
}

// DeleteAccessCode handles DELETE /api/access-codes/{code}.
func (h *DirectoryHandler) DeleteAccessCode(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteAccessCode(r.Context(), identity(r), chi.URLParam(r, "code")); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CreateUser handles POST /api/users.
func (h *DirectoryHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req model.CreateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	user, err := h.service.CreateUser(r.Context(), identity(r), &req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// ListUsers handles GET /api/users.
func (h *DirectoryHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, users)
}

// DeleteUser handles DELETE /api/users/{userID}.
func (h *DirectoryHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, err := uuidParam(r, "userID", model.ErrUserNotFound)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	if err := h.service.DeleteUser(r.Context(), identity(r), userID); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
