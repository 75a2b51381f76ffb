package handlers

import (
	"encoding/json"
	"net/http"

	apiContext "qualifyr/internal/api/context"
	"qualifyr/internal/engine/leads"
	"qualifyr/internal/pkg/errors"
	"qualifyr/internal/pkg/validator"
	"qualifyr/internal/platform/models"
	"qualifyr/internal/platform/repositories"
)

type ConversationHandler struct {
	leads *leads.Service
}

func NewConversationHandler(svc *leads.Service) *ConversationHandler {
	return &ConversationHandler{leads: svc}
}

// Inbound accepts a relayed email reply. The message is stored before the
// response goes out; scoring may finish afterwards, hence 202.
func (h *ConversationHandler) Inbound(w http.ResponseWriter, r *http.Request) {
	account := r.Context().Value(apiContext.Account).(*models.Account)

	var req leads.InboundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	if err := validator.ValidateEmail(req.FromEmail); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "from_email: "+err.Error(), nil)
		return
	}
	if req.Content == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "content is required", nil)
		return
	}

	lead, err := h.leads.ProcessInbound(r.Context(), account.ID, req)
	if err != nil {
		switch err {
		case repositories.ErrQuotaExceeded:
			errors.WriteError(w, http.StatusTooManyRequests, errors.ErrCodeQuotaExceeded, "Monthly lead quota exceeded", nil)
		case repositories.ErrAccountInactive:
			errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Account is not active", nil)
		default:
			errors.WriteInternal(w)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{
		"lead_id": lead.ID,
		"status":  "received",
	})
}
