package handlers

import (
	"encoding/json"
	"net/http"

	"qualifyr/internal/engine/billing"
	"qualifyr/internal/pkg/errors"
)

type BillingHandler struct {
	billing *billing.Service
}

func NewBillingHandler(svc *billing.Service) *BillingHandler {
	return &BillingHandler{billing: svc}
}

// Events receives billing provider notifications. The provider retries on
// non-2xx, so everything we can parse is acknowledged with 200 even when
// it matches no account.
func (h *BillingHandler) Events(w http.ResponseWriter, r *http.Request) {
	var evt billing.Event
	if err := json.NewDecoder(r.Body).Decode(&evt); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	if err := h.billing.Apply(r.Context(), evt); err != nil {
		errors.WriteInternal(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "processed"})
}
