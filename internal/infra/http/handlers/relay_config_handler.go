package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/xavierca1/leadmail/internal/usecase"
)

type RelayConfigHandler struct {
	uc  *usecase.RelayConfigUseCase
	log logrus.FieldLogger
}

func NewRelayConfigHandler(uc *usecase.RelayConfigUseCase, log logrus.FieldLogger) *RelayConfigHandler {
	return &RelayConfigHandler{uc: uc, log: log}
}

func (h *RelayConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.uc.Get(r.Context())
	if err != nil {
		writeErrorResponse(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *RelayConfigHandler) Put(w http.ResponseWriter, r *http.Request) {
	var input usecase.UpdateRelayConfigInput
	if !decodeJSON(w, r, &input) {
		return
	}

	view, err := h.uc.Update(r.Context(), input)
	if err != nil {
		writeErrorResponse(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
