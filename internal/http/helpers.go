package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-crm/internal/importer"
	"github.com/goliatone/go-crm/internal/leads"
	"github.com/goliatone/go-crm/internal/reconciliation"
	"github.com/goliatone/go-crm/internal/stores"
	"github.com/google/uuid"
)

type errorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func joinPath(base, suffix string) string {
	trimmedBase := strings.TrimSpace(base)
	trimmedSuffix := strings.TrimSpace(suffix)
	if trimmedBase == "" {
		if trimmedSuffix == "" {
			return "/"
		}
		return "/" + strings.Trim(trimmedSuffix, "/")
	}
	baseClean := "/" + strings.Trim(trimmedBase, "/")
	if trimmedSuffix == "" {
		return baseClean
	}
	return baseClean + "/" + strings.Trim(trimmedSuffix, "/")
}

func decodeJSON(r *http.Request, target any) error {
	if r == nil || r.Body == nil {
		return io.EOF
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	if err := decoder.Decode(target); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	status, payload := mapError(err)
	writeJSON(w, status, payload)
}

func mapError(err error) (int, errorResponse) {
	if err == nil {
		return http.StatusInternalServerError, errorResponse{Error: "unknown_error"}
	}

	var leadNotFound *leads.NotFoundError
	if errors.As(err, &leadNotFound) {
		return http.StatusNotFound, errorResponse{
			Error:   "not_found",
			Message: leadNotFound.Error(),
		}
	}

	var storeNotFound *stores.NotFoundError
	if errors.As(err, &storeNotFound) {
		return http.StatusNotFound, errorResponse{
			Error:   "not_found",
			Message: storeNotFound.Error(),
		}
	}

	var runNotFound *reconciliation.NotFoundError
	if errors.As(err, &runNotFound) {
		return http.StatusNotFound, errorResponse{
			Error:   "not_found",
			Message: runNotFound.Error(),
		}
	}

	var validationErrs validation.Errors
	if errors.As(err, &validationErrs) {
		fields := make(map[string]string, len(validationErrs))
		for field, fieldErr := range validationErrs {
			if fieldErr != nil {
				fields[field] = fieldErr.Error()
			}
		}
		return http.StatusUnprocessableEntity, errorResponse{
			Error:   "validation_failed",
			Message: err.Error(),
			Fields:  fields,
		}
	}

	if errors.Is(err, leads.ErrDuplicateAdURL) {
		return http.StatusConflict, errorResponse{
			Error:   "conflict",
			Message: err.Error(),
		}
	}

	if errors.Is(err, stores.ErrEmployeeInactive) ||
		errors.Is(err, stores.ErrPositionMismatch) ||
		errors.Is(err, stores.ErrHoursInvalid) ||
		errors.Is(err, stores.ErrServiceTypeInvalid) ||
		errors.Is(err, leads.ErrStatusInvalid) {
		return http.StatusUnprocessableEntity, errorResponse{
			Error:   "validation_failed",
			Message: err.Error(),
		}
	}

	var missingColumns *importer.MissingColumnsError
	if errors.As(err, &missingColumns) {
		return http.StatusUnprocessableEntity, errorResponse{
			Error:   "validation_failed",
			Message: missingColumns.Error(),
		}
	}

	if errors.Is(err, importer.ErrEmptyFile) || errors.Is(err, leads.ErrNoActiveManagers) {
		return http.StatusBadRequest, errorResponse{
			Error:   "bad_request",
			Message: err.Error(),
		}
	}

	return http.StatusInternalServerError, errorResponse{
		Error:   "internal_error",
		Message: err.Error(),
	}
}

func parseUUID(value string) (uuid.UUID, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return uuid.Nil, errors.New("uuid required")
	}
	parsed, err := uuid.Parse(trimmed)
	if err != nil {
		return uuid.Nil, err
	}
	return parsed, nil
}
