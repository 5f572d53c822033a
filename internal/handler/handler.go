package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"clinic-orders/internal/middleware"
	"clinic-orders/internal/model"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

var errInvalidJSON = model.NewDomainError(model.ErrCodeInvalidJSON, "Request body is not valid JSON")

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// statusByCode maps domain error codes onto HTTP statuses.
var statusByCode = map[string]int{
	model.ErrCodeInvalidJSON:        http.StatusBadRequest,
	model.ErrCodeValidationFailed:   http.StatusBadRequest,
	model.ErrCodeInvalidQuantity:    http.StatusBadRequest,
	model.ErrCodeUnauthorised:       http.StatusUnauthorized,
	model.ErrCodeForbidden:          http.StatusForbidden,
	model.ErrCodeNotFound:           http.StatusNotFound,
	model.ErrCodeProductNotFound:    http.StatusNotFound,
	model.ErrCodeCartNotFound:       http.StatusNotFound,
	model.ErrCodeItemNotFound:       http.StatusNotFound,
	model.ErrCodeCompanyNotFound:    http.StatusNotFound,
	model.ErrCodeUserNotFound:       http.StatusNotFound,
	model.ErrCodePolicyNotFound:     http.StatusNotFound,
	model.ErrCodeAccessCodeNotFound: http.StatusNotFound,
	model.ErrCodeInvalidTransition:  http.StatusConflict,
	model.ErrCodeItemNotPending:     http.StatusConflict,
	model.ErrCodeCartNotEditable:    http.StatusConflict,
	model.ErrCodeCartNotReviewable:  http.StatusConflict,
	model.ErrCodeImportInProgress:   http.StatusConflict,
	model.ErrCodeDuplicate:          http.StatusConflict,
	model.ErrCodeEmptyCart:          http.StatusUnprocessableEntity,
	model.ErrCodePendingItems:       http.StatusUnprocessableEntity,
	model.ErrCodeCartNotApproved:    http.StatusUnprocessableEntity,
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError renders err as an ErrorResponse. Domain errors keep their code
// and message; anything else is logged and reported as a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error, logger zerolog.Logger) {
	correlationID := chimw.GetReqID(r.Context())

	var domainErr *model.DomainError
	if errors.As(err, &domainErr) {
		status, ok := statusByCode[domainErr.Code]
		if !ok {
			status = http.StatusBadRequest
		}
		logger.Debug().
			Str("code", domainErr.Code).
			Int("status", status).
			Str("path", r.URL.Path).
			Str("request_id", correlationID).
			Msg("request rejected")
		writeJSON(w, status, model.ErrorResponse{
			Error:         domainErr.Code,
			Message:       domainErr.Message,
			CorrelationID: correlationID,
		})
		return
	}

	logger.Error().
		Err(err).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("request_id", correlationID).
		Msg("handler error")
	writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{
		Error:         model.ErrCodeInternalError,
		Message:       "internal server error",
		CorrelationID: correlationID,
	})
}

// decodeJSON reads and validates a JSON request body into dest.
func decodeJSON(w http.ResponseWriter, r *http.Request, dest any) error {
	if err := decodeBody(w, r, dest); err != nil {
		if errors.Is(err, io.EOF) {
			return errInvalidJSON
		}
		return err
	}
	return validateRequest(dest)
}

// decodeOptionalJSON is decodeJSON for endpoints whose body may be empty.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, dest any) error {
	if err := decodeBody(w, r, dest); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return validateRequest(dest)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dest any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return err
		}
		return errInvalidJSON
	}
	return nil
}

// validateRequest checks struct tags and folds failures into one message,
// e.g. "quantity: gt; productId: required".
func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return model.NewDomainError(model.ErrCodeValidationFailed, err.Error())
	}

	fields := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		fields = append(fields, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
	}
	sort.Strings(fields)

	return model.NewDomainError(model.ErrCodeValidationFailed, strings.Join(fields, "; "))
}

// identity returns the caller as read by the identity middleware.
func identity(r *http.Request) model.Identity {
	return middleware.IdentityFromContext(r.Context())
}

// uuidParam parses a UUID path parameter. A malformed ID is reported as notFound.
func uuidParam(r *http.Request, name string, notFound error) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, notFound
	}
	return id, nil
}

// intQuery parses an optional integer query parameter.
func intQuery(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, model.NewDomainError(model.ErrCodeValidationFailed, fmt.Sprintf("invalid %s parameter", name))
	}
	return v, nil
}
