package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/xavierca1/leadmail/internal/usecase"
)

type SendEmailHandler struct {
	uc  *usecase.SendEmailUseCase
	log logrus.FieldLogger
}

func NewSendEmailHandler(uc *usecase.SendEmailUseCase, log logrus.FieldLogger) *SendEmailHandler {
	return &SendEmailHandler{uc: uc, log: log}
}

type SendEmailResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	MessageID string `json:"messageId"`
}

// Handle serves POST /send-email, the synchronous relay check.
func (h *SendEmailHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var input usecase.DirectSendInput
	if !decodeJSON(w, r, &input) {
		return
	}

	messageID, err := h.uc.SendDirect(r.Context(), input)
	if err != nil {
		writeErrorResponse(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, SendEmailResponse{
		Success:   true,
		Message:   "email sent to " + input.To,
		MessageID: messageID,
	})
}
