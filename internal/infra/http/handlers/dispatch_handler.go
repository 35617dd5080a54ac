package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/xavierca1/leadmail/internal/usecase"
)

type DispatchHandler struct {
	uc  *usecase.BulkDispatchUseCase
	log logrus.FieldLogger
}

func NewDispatchHandler(uc *usecase.BulkDispatchUseCase, log logrus.FieldLogger) *DispatchHandler {
	return &DispatchHandler{uc: uc, log: log}
}

type DispatchResponse struct {
	Success bool `json:"success"`
	*usecase.BulkReport
}

// Handle serves POST /automations/dispatch. A report with failures is still
// a 200.
func (h *DispatchHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var input usecase.BulkDispatchInput
	if !decodeJSON(w, r, &input) {
		return
	}

	report, err := h.uc.Dispatch(r.Context(), input)
	if err != nil {
		writeErrorResponse(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, DispatchResponse{Success: true, BulkReport: report})
}
