package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	apiContext "qualifyr/internal/api/context"
	"qualifyr/internal/engine/billing"
	"qualifyr/internal/pkg/errors"
	"qualifyr/internal/pkg/metrics"
	"qualifyr/internal/pkg/validator"
	"qualifyr/internal/platform/audit"
	"qualifyr/internal/platform/auth"
	"qualifyr/internal/platform/config"
	"qualifyr/internal/platform/email"
	"qualifyr/internal/platform/models"
	"qualifyr/internal/platform/repositories"
)

type AuthHandler struct {
	accounts   *repositories.AccountRepository
	tokenSvc   *auth.TokenService
	sender     email.Sender
	auditor    *audit.Logger
	billingCfg config.BillingConfig
}

func NewAuthHandler(accounts *repositories.AccountRepository, tokenSvc *auth.TokenService, sender email.Sender, auditor *audit.Logger, billingCfg config.BillingConfig) *AuthHandler {
	return &AuthHandler{
		accounts:   accounts,
		tokenSvc:   tokenSvc,
		sender:     sender,
		auditor:    auditor,
		billingCfg: billingCfg,
	}
}

type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Company  string `json:"company"`
	Plan     string `json:"plan"`
}

type SignupResponse struct {
	AccountID   string `json:"account_id"`
	APIKey      string `json:"api_key"`
	Plan        string `json:"plan"`
	LeadsLimit  int    `json:"leads_limit"`
	TrialEndsAt int64  `json:"trial_ends_at"`
}

// Signup creates an account on a trial. The API key appears in this
// response and nowhere else.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	if err := validator.ValidateEmail(req.Email); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}
	if len(req.Password) < 8 {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Password must be at least 8 characters", nil)
		return
	}

	plan := billing.Default()
	if req.Plan != "" {
		p, ok := billing.ByName(req.Plan)
		if !ok {
			errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Unknown plan", nil)
			return
		}
		plan = p
	}

	existing, err := h.accounts.GetByEmail(req.Email)
	if err != nil {
		errors.WriteInternal(w)
		return
	}
	if existing != nil {
		errors.WriteError(w, http.StatusConflict, errors.ErrCodeConflict, "An account with this email already exists", nil)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		errors.WriteInternal(w)
		return
	}

	apiKey, err := auth.GenerateAPIKey(h.accounts)
	if err != nil {
		errors.WriteInternal(w)
		return
	}

	trialEndsAt := time.Now().AddDate(0, 0, h.billingCfg.TrialDays).Unix()

	account := &models.Account{
		Email:        req.Email,
		PasswordHash: hash,
		Company:      req.Company,
		APIKey:       apiKey,
		Plan:         plan.Name,
		LeadsLimit:   plan.LeadsLimit,
		TrialEndsAt:  &trialEndsAt,
	}

	if err := h.accounts.Create(account); err != nil {
		if err == repositories.ErrDuplicateEmail {
			errors.WriteError(w, http.StatusConflict, errors.ErrCodeConflict, "An account with this email already exists", nil)
			return
		}
		errors.WriteInternal(w)
		return
	}

	h.auditor.RecordRequest(r, account.ID, "system", "account.created", "account", account.ID, map[string]interface{}{
		"plan": plan.Name,
	})

	go h.sendWelcome(account, plan)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(SignupResponse{
		AccountID:   account.ID,
		APIKey:      apiKey,
		Plan:        plan.Name,
		LeadsLimit:  plan.LeadsLimit,
		TrialEndsAt: trialEndsAt,
	})
}

func (h *AuthHandler) sendWelcome(account *models.Account, plan billing.Plan) {
	msg, err := email.WelcomeMessage(account.Email, email.WelcomeData{
		Company:    account.Company,
		Plan:       plan.Name,
		LeadsLimit: plan.LeadsLimit,
		TrialDays:  h.billingCfg.TrialDays,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to render welcome email")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := h.sender.Send(ctx, msg); err != nil {
		metrics.EmailsSentTotal.WithLabelValues("welcome", "error").Inc()
		log.Error().Err(err).Str("account_id", account.ID).Msg("failed to send welcome email")
		return
	}
	metrics.EmailsSentTotal.WithLabelValues("welcome", "sent").Inc()
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string          `json:"access_token"`
	Account     *models.Account `json:"account"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	account, err := h.accounts.GetByEmail(req.Email)
	if err != nil {
		errors.WriteInternal(w)
		return
	}
	if account == nil {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid credentials", nil)
		return
	}

	if err := auth.CheckPassword(account.PasswordHash, req.Password); err != nil {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid credentials", nil)
		return
	}

	accessToken, err := h.tokenSvc.GenerateAccessToken(account.ID, account.Email)
	if err != nil {
		errors.WriteInternal(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(LoginResponse{
		AccessToken: accessToken,
		Account:     account,
	})
}

type RotateAPIKeyResponse struct {
	APIKey string `json:"api_key"`
}

// RotateAPIKey replaces the account's key. The old key stops working the
// moment the update commits.
func (h *AuthHandler) RotateAPIKey(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)

	account, err := h.accounts.GetByID(claims.AccountID)
	if err != nil {
		errors.WriteInternal(w)
		return
	}
	if account == nil {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Account not found", nil)
		return
	}

	apiKey, err := auth.GenerateAPIKey(h.accounts)
	if err != nil {
		errors.WriteInternal(w)
		return
	}

	if err := h.accounts.UpdateAPIKey(account.ID, apiKey); err != nil {
		errors.WriteInternal(w)
		return
	}

	h.auditor.RecordRequest(r, account.ID, account.Email, "apikey.rotated", "account", account.ID, nil)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(RotateAPIKeyResponse{APIKey: apiKey})
}
