package billing

import (
	"context"

	"github.com/rs/zerolog/log"
	"qualifyr/internal/platform/audit"
	"qualifyr/internal/platform/repositories"
)

const (
	EventPaymentSucceeded      = "payment_succeeded"
	EventPaymentFailed         = "payment_failed"
	EventSubscriptionCancelled = "subscription_cancelled"
)

// Event is the provider's webhook notification, reduced to what we act on.
type Event struct {
	Type           string `json:"type"`
	SubscriptionID string `json:"subscription_id"`
}

type Service struct {
	accounts *repositories.AccountRepository
	auditor  *audit.Logger
}

func NewService(accounts *repositories.AccountRepository, auditor *audit.Logger) *Service {
	return &Service{accounts: accounts, auditor: auditor}
}

// Apply processes one billing event. Unknown event types and unknown
// subscriptions are acknowledged, not errored, so the provider does not
// retry forever; both are logged for the operator.
func (s *Service) Apply(ctx context.Context, evt Event) error {
	if evt.SubscriptionID == "" {
		log.Warn().Str("type", evt.Type).Msg("billing event has no subscription id")
		return nil
	}

	var (
		affected int64
		err      error
		action   string
	)

	switch evt.Type {
	case EventPaymentSucceeded:
		affected, err = s.accounts.ResetUsageBySubscription(evt.SubscriptionID)
		action = "billing.payment_succeeded"
	case EventPaymentFailed:
		affected, err = s.accounts.SetStatusBySubscription(evt.SubscriptionID, "payment_failed")
		action = "billing.payment_failed"
	case EventSubscriptionCancelled:
		affected, err = s.accounts.SetStatusBySubscription(evt.SubscriptionID, "cancelled")
		action = "billing.subscription_cancelled"
	default:
		log.Warn().Str("type", evt.Type).Msg("ignoring unknown billing event type")
		return nil
	}
	if err != nil {
		return err
	}
	if affected == 0 {
		log.Warn().Str("type", evt.Type).Str("subscription_id", evt.SubscriptionID).Msg("billing event matched no account")
		return nil
	}

	if account, err := s.accounts.GetBySubscription(evt.SubscriptionID); err == nil && account != nil {
		s.auditor.Record(account.ID, "billing_provider", action, "account", account.ID, map[string]interface{}{
			"subscription_id": evt.SubscriptionID,
		})
	}

	return nil
}
