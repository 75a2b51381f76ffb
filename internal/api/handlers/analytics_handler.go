package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	apiContext "qualifyr/internal/api/context"
	"qualifyr/internal/engine/analytics"
	"qualifyr/internal/pkg/errors"
	"qualifyr/internal/platform/models"
)

type AnalyticsHandler struct {
	analytics *analytics.Service
}

func NewAnalyticsHandler(svc *analytics.Service) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: svc}
}

func (h *AnalyticsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	account := r.Context().Value(apiContext.Account).(*models.Account)

	dashboard, err := h.analytics.Dashboard(account, time.Now())
	if err != nil {
		errors.WriteInternal(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dashboard)
}
