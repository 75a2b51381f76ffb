package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	apiContext "qualifyr/internal/api/context"
	"qualifyr/internal/engine/webhooks"
	"qualifyr/internal/pkg/errors"
	"qualifyr/internal/pkg/validator"
	"qualifyr/internal/platform/audit"
	"qualifyr/internal/platform/models"
	"qualifyr/internal/platform/repositories"
)

type WebhookHandler struct {
	registrations *repositories.WebhookRegistrationRepository
	dispatcher    *webhooks.Dispatcher
	auditor       *audit.Logger
}

func NewWebhookHandler(registrations *repositories.WebhookRegistrationRepository, dispatcher *webhooks.Dispatcher, auditor *audit.Logger) *WebhookHandler {
	return &WebhookHandler{
		registrations: registrations,
		dispatcher:    dispatcher,
		auditor:       auditor,
	}
}

type CreateWebhookRequest struct {
	WebhookURL string   `json:"webhook_url"`
	Events     []string `json:"events"`
	Active     *bool    `json:"active"`
}

func (h *WebhookHandler) Create(w http.ResponseWriter, r *http.Request) {
	account := r.Context().Value(apiContext.Account).(*models.Account)

	var req CreateWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	if err := validator.ValidateWebhookURL(req.WebhookURL); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}

	events := req.Events
	if len(events) == 0 {
		events = []string{webhooks.EventLeadQualified}
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}

	reg := &models.WebhookRegistration{
		AccountID: account.ID,
		URL:       req.WebhookURL,
		Events:    events,
		Secret:    "whsec_" + uuid.New().String(),
		Active:    active,
	}

	if err := h.registrations.Create(reg); err != nil {
		errors.WriteInternal(w)
		return
	}

	h.auditor.RecordRequest(r, account.ID, "api_key", "webhook.created", "webhook", reg.ID, map[string]interface{}{
		"url": reg.URL,
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(reg)
}

func (h *WebhookHandler) List(w http.ResponseWriter, r *http.Request) {
	account := r.Context().Value(apiContext.Account).(*models.Account)

	regs, err := h.registrations.List(account.ID)
	if err != nil {
		errors.WriteInternal(w)
		return
	}
	if regs == nil {
		regs = []*models.WebhookRegistration{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(regs)
}

func (h *WebhookHandler) Get(w http.ResponseWriter, r *http.Request) {
	account := r.Context().Value(apiContext.Account).(*models.Account)
	params := r.Context().Value(apiContext.Params).(httprouter.Params)

	reg, err := h.registrations.GetByID(account.ID, params.ByName("webhook_id"))
	if err != nil {
		errors.WriteInternal(w)
		return
	}
	if reg == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Webhook not found", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(reg)
}

type UpdateWebhookRequest struct {
	WebhookURL *string  `json:"webhook_url"`
	Events     []string `json:"events"`
	Active     *bool    `json:"active"`
}

func (h *WebhookHandler) Update(w http.ResponseWriter, r *http.Request) {
	account := r.Context().Value(apiContext.Account).(*models.Account)
	params := r.Context().Value(apiContext.Params).(httprouter.Params)

	var req UpdateWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	reg, err := h.registrations.GetByID(account.ID, params.ByName("webhook_id"))
	if err != nil {
		errors.WriteInternal(w)
		return
	}
	if reg == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Webhook not found", nil)
		return
	}

	if req.WebhookURL != nil {
		if err := validator.ValidateWebhookURL(*req.WebhookURL); err != nil {
			errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
			return
		}
		reg.URL = *req.WebhookURL
	}
	if len(req.Events) > 0 {
		reg.Events = req.Events
	}
	if req.Active != nil {
		reg.Active = *req.Active
	}

	if err := h.registrations.Update(reg); err != nil {
		errors.WriteInternal(w)
		return
	}

	h.auditor.RecordRequest(r, account.ID, "api_key", "webhook.updated", "webhook", reg.ID, map[string]interface{}{
		"url":    reg.URL,
		"active": reg.Active,
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(reg)
}

func (h *WebhookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	account := r.Context().Value(apiContext.Account).(*models.Account)
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	id := params.ByName("webhook_id")

	reg, err := h.registrations.GetByID(account.ID, id)
	if err != nil {
		errors.WriteInternal(w)
		return
	}
	if reg == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Webhook not found", nil)
		return
	}

	if err := h.registrations.Delete(account.ID, id); err != nil {
		errors.WriteInternal(w)
		return
	}

	h.auditor.RecordRequest(r, account.ID, "api_key", "webhook.deleted", "webhook", id, nil)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
}

type TestWebhookRequest struct {
	WebhookURL string `json:"webhook_url"`
}

type TestWebhookResponse struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"status_code"`
	Error      string `json:"error,omitempty"`
}

// Test fires one synthetic lead_qualified event at the given URL and
// reports the endpoint's answer. Nothing is stored.
func (h *WebhookHandler) Test(w http.ResponseWriter, r *http.Request) {
	account := r.Context().Value(apiContext.Account).(*models.Account)

	var req TestWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	if err := validator.ValidateWebhookURL(req.WebhookURL); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}

	reg := &models.WebhookRegistration{
		AccountID: account.ID,
		URL:       req.WebhookURL,
		Secret:    "whsec_" + uuid.New().String(),
	}

	resp := TestWebhookResponse{}
	status, err := h.dispatcher.SendTest(reg)
	resp.StatusCode = status
	resp.Success = err == nil && status == http.StatusOK
	if err != nil {
		resp.Error = "endpoint unreachable"
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
