package workers

import (
	"time"

	"github.com/rs/zerolog/log"
	"qualifyr/internal/engine/webhooks"
	"qualifyr/internal/platform/repositories"
)

// Runner owns the background maintenance passes. Both are safe to run
// alongside the API server: the sweep claims rows before touching them,
// the purge only removes finished rows.
type Runner struct {
	Dispatcher *webhooks.Dispatcher
	Deliveries *repositories.DeliveryRepository
	Retention  time.Duration
}

// SweepDeliveries retries pending deliveries whose lease has expired.
// These are rows orphaned by a crash or restart mid-attempt.
func (r *Runner) SweepDeliveries() {
	claimed, err := r.Dispatcher.ProcessDue(100)
	if err != nil {
		log.Error().Err(err).Msg("delivery sweep failed")
		return
	}
	if claimed > 0 {
		log.Info().Int("claimed", claimed).Msg("swept orphaned webhook deliveries")
	}
}

// PurgeDeliveries drops delivered and failed rows older than the
// retention window.
func (r *Runner) PurgeDeliveries() {
	cutoff := time.Now().Add(-r.Retention).Unix()

	removed, err := r.Deliveries.DeleteFinishedBefore(cutoff)
	if err != nil {
		log.Error().Err(err).Msg("delivery purge failed")
		return
	}
	if removed > 0 {
		log.Info().Int64("removed", removed).Msg("purged finished webhook deliveries")
	}
}
