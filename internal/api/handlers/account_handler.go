package handlers

import (
	"encoding/json"
	"net/http"

	apiContext "qualifyr/internal/api/context"
	"qualifyr/internal/engine/leads"
	"qualifyr/internal/platform/models"
)

type AccountHandler struct{}

func NewAccountHandler() *AccountHandler {
	return &AccountHandler{}
}

type AccountResponse struct {
	Account *models.Account `json:"account"`
	Usage   leads.Usage     `json:"usage"`
}

func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	account := r.Context().Value(apiContext.Account).(*models.Account)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(AccountResponse{
		Account: account,
		Usage:   leads.Usage{Used: account.LeadsUsed, Limit: account.LeadsLimit},
	})
}
