package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/xavierca1/leadmail/internal/entity"
	"github.com/xavierca1/leadmail/internal/usecase"
)

type TemplateHandler struct {
	uc  *usecase.LeadUseCase
	log logrus.FieldLogger
}

func NewTemplateHandler(uc *usecase.LeadUseCase, log logrus.FieldLogger) *TemplateHandler {
	return &TemplateHandler{uc: uc, log: log}
}

func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	templates, err := h.uc.ListTemplates(r.Context())
	if err != nil {
		writeErrorResponse(w, h.log, err)
		return
	}
	if templates == nil {
		templates = []entity.EmailTemplate{}
	}
	writeJSON(w, http.StatusOK, templates)
}
