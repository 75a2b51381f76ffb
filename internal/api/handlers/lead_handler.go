package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	apiContext "qualifyr/internal/api/context"
	"qualifyr/internal/engine/leads"
	"qualifyr/internal/pkg/errors"
	"qualifyr/internal/pkg/validator"
	"qualifyr/internal/platform/models"
	"qualifyr/internal/platform/repositories"
)

type LeadHandler struct {
	leads *leads.Service
}

func NewLeadHandler(svc *leads.Service) *LeadHandler {
	return &LeadHandler{leads: svc}
}

type CreateLeadResponse struct {
	LeadID string      `json:"lead_id"`
	Status string      `json:"status"`
	Usage  leads.Usage `json:"usage"`
}

func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	account := r.Context().Value(apiContext.Account).(*models.Account)

	var req leads.CaptureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	if err := validator.ValidateEmail(req.Email); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}

	lead, usage, err := h.leads.Capture(r.Context(), account.ID, req)
	if err != nil {
		switch err {
		case repositories.ErrQuotaExceeded:
			errors.WriteError(w, http.StatusTooManyRequests, errors.ErrCodeQuotaExceeded, "Monthly lead quota exceeded", usage)
		case repositories.ErrAccountInactive:
			errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Account is not active", nil)
		case repositories.ErrDuplicateEmail:
			errors.WriteError(w, http.StatusConflict, errors.ErrCodeConflict, "A lead with this email already exists", nil)
		default:
			errors.WriteInternal(w)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(CreateLeadResponse{
		LeadID: lead.ID,
		Status: "created",
		Usage:  usage,
	})
}

type ListLeadsResponse struct {
	Leads []*models.Lead `json:"leads"`
	Total int            `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	account := r.Context().Value(apiContext.Account).(*models.Account)

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 50
	}
	stage := r.URL.Query().Get("stage")

	items, err := h.leads.List(account.ID, stage, limit, (page-1)*limit)
	if err != nil {
		errors.WriteInternal(w)
		return
	}
	total, err := h.leads.Count(account.ID, stage)
	if err != nil {
		errors.WriteInternal(w)
		return
	}

	if items == nil {
		items = []*models.Lead{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ListLeadsResponse{
		Leads: items,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

func (h *LeadHandler) Get(w http.ResponseWriter, r *http.Request) {
	account := r.Context().Value(apiContext.Account).(*models.Account)
	params := r.Context().Value(apiContext.Params).(httprouter.Params)

	lead, err := h.leads.Get(account.ID, params.ByName("lead_id"))
	if err != nil {
		errors.WriteInternal(w)
		return
	}
	if lead == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Lead not found", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(lead)
}

func (h *LeadHandler) SendToCRM(w http.ResponseWriter, r *http.Request) {
	account := r.Context().Value(apiContext.Account).(*models.Account)
	params := r.Context().Value(apiContext.Params).(httprouter.Params)

	lead, err := h.leads.SendToCRM(r.Context(), account.ID, params.ByName("lead_id"))
	if err == leads.ErrScoreTooLow {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Lead not qualified enough for CRM", nil)
		return
	}
	if err != nil {
		errors.WriteInternal(w)
		return
	}
	if lead == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Lead not found", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"lead_id":      lead.ID,
		"status":       "sent_to_crm",
		"forwarded_at": lead.ForwardedAt,
	})
}
