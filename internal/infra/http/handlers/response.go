package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/xavierca1/leadmail/internal/infra/mail"
	"github.com/xavierca1/leadmail/internal/usecase"
)

const maxBodyBytes = 1 << 20

type ErrorResponse struct {
	Success bool               `json:"success"`
	Error   string             `json:"error"`
	Code    string             `json:"code,omitempty"`
	Missing []string           `json:"missing,omitempty"`
	Details []FieldErrorDetail `json:"details,omitempty"`
}

type FieldErrorDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON body", Code: "INVALID_JSON"})
		return false
	}
	return true
}

// writeErrorResponse maps usecase and transport errors onto HTTP statuses.
// Anything unrecognized is a 500 and gets logged at error level.
func writeErrorResponse(w http.ResponseWriter, log logrus.FieldLogger, err error) {
	var (
		verrs   usecase.ValidationErrors
		verr    usecase.ValidationError
		domain  *usecase.DomainError
		mailErr *mail.Error
	)

	switch {
	case errors.As(err, &verrs):
		resp := ErrorResponse{Error: err.Error(), Code: "VALIDATION_ERROR"}
		for _, v := range verrs {
			resp.Details = append(resp.Details, FieldErrorDetail{Field: v.Field, Message: v.Message})
		}
		writeJSON(w, http.StatusBadRequest, resp)

	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   err.Error(),
			Code:    "VALIDATION_ERROR",
			Details: []FieldErrorDetail{{Field: verr.Field, Message: verr.Message}},
		})

	case errors.As(err, &domain):
		writeJSON(w, domainStatus(domain.Code), ErrorResponse{Error: domain.Message, Code: domain.Code})

	case errors.As(err, &mailErr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   mailErr.Error(),
			Code:    string(mailErr.Kind),
			Missing: mailErr.Missing,
		})

	default:
		log.WithError(err).Error("request failed")
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error", Code: "INTERNAL_ERROR"})
	}
}

func domainStatus(code string) int {
	switch code {
	case "TEMPLATE_NOT_FOUND", "NO_LEADS_FOUND", "LEAD_NOT_FOUND":
		return http.StatusNotFound
	case "EMAIL_ALREADY_EXISTS":
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}
