package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	apiContext "qualifyr/internal/api/context"
	"qualifyr/internal/pkg/errors"
	"qualifyr/internal/platform/audit"
	"qualifyr/internal/platform/auth"
)

type AuditHandler struct {
	auditor *audit.Logger
}

func NewAuditHandler(auditor *audit.Logger) *AuditHandler {
	return &AuditHandler{auditor: auditor}
}

func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := h.auditor.List(claims.AccountID, limit)
	if err != nil {
		errors.WriteInternal(w)
		return
	}
	if entries == nil {
		entries = []*audit.Entry{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}
