package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	apiContext "qualifyr/internal/api/context"
	"qualifyr/internal/pkg/errors"
	"qualifyr/internal/platform/auth"
	"qualifyr/internal/platform/repositories"
)

type APIKeyMiddleware struct {
	accounts *repositories.AccountRepository
}

func NewAPIKeyMiddleware(accounts *repositories.AccountRepository) *APIKeyMiddleware {
	return &APIKeyMiddleware{accounts: accounts}
}

// Handle authenticates a request by its API key and stores the owning
// account in the request context.
func (m *APIKeyMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Missing authorization header", nil)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" || !strings.HasPrefix(parts[1], auth.APIKeyPrefix) {
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid authorization header format", nil)
			return
		}

		account, err := m.accounts.GetByAPIKey(parts[1])
		if err != nil {
			log.Error().Err(err).Msg("Failed to look up API key")
			errors.WriteInternal(w)
			return
		}
		if account == nil {
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid API key", nil)
			return
		}
		if account.Status != "active" {
			errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Account is "+account.Status, nil)
			return
		}

		ctx := context.WithValue(r.Context(), apiContext.Account, account)
		next(w, r.WithContext(ctx))
	}
}
