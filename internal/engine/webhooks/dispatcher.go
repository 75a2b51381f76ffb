package webhooks

import (
	"bytes"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"qualifyr/internal/pkg/metrics"
	"qualifyr/internal/platform/config"
	"qualifyr/internal/platform/models"
	"qualifyr/internal/platform/repositories"
)

// Dispatcher delivers events to registered endpoints. Every delivery is
// recorded in an outbox row before the first attempt, so a crash mid-flight
// loses nothing: the sweeper (ProcessDue) picks up orphaned rows once their
// lease expires. Delivery is at-least-once.
type Dispatcher struct {
	registrations *repositories.WebhookRegistrationRepository
	deliveries    *repositories.DeliveryRepository
	client        *http.Client
	maxAttempts   int
	backoff       time.Duration
	lease         time.Duration
	workers       int
}

func NewDispatcher(registrations *repositories.WebhookRegistrationRepository, deliveries *repositories.DeliveryRepository, cfg config.WebhooksConfig) *Dispatcher {
	attempts := cfg.RetryAttempts
	if attempts <= 0 {
		attempts = 3
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = time.Second
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	workers := cfg.WorkerCount
	if workers <= 0 {
		workers = 4
	}

	// The lease must outlive the worst case in-process attempt run (every
	// attempt timing out plus the full backoff sequence), otherwise the
	// sweeper would re-send deliveries that are still in flight.
	lease := time.Duration(attempts)*timeout + backoff*time.Duration(1<<attempts) + 30*time.Second

	return &Dispatcher{
		registrations: registrations,
		deliveries:    deliveries,
		client:        &http.Client{Timeout: timeout},
		maxAttempts:   attempts,
		backoff:       backoff,
		lease:         lease,
		workers:       workers,
	}
}

// Dispatch enqueues one delivery per matching registration and starts the
// attempt loops in the background. Safe to call on a request path.
func (d *Dispatcher) Dispatch(eventType, accountID string, lead *models.Lead) {
	regs, err := d.registrations.GetActiveByEvent(accountID, eventType)
	if err != nil {
		log.Error().Err(err).Str("event", eventType).Msg("failed to load webhook registrations")
		return
	}
	if len(regs) == 0 {
		return
	}

	payload, err := BuildEvent(eventType, lead, time.Now())
	if err != nil {
		log.Error().Err(err).Str("event", eventType).Msg("failed to build webhook payload")
		return
	}

	for _, reg := range regs {
		delivery := &models.WebhookDelivery{
			RegistrationID: reg.ID,
			AccountID:      accountID,
			Event:          eventType,
			Payload:        string(payload),
			NextAttemptAt:  time.Now().Add(d.lease).Unix(),
		}
		if err := d.deliveries.Enqueue(delivery); err != nil {
			log.Error().Err(err).Str("registration_id", reg.ID).Msg("failed to enqueue webhook delivery")
			continue
		}
		go d.attemptLoop(reg, delivery)
	}
}

// attemptLoop runs the full retry sequence for a freshly enqueued delivery.
// Each reschedule keeps the row leased so the sweeper stays out of the way
// while this process is alive.
func (d *Dispatcher) attemptLoop(reg *models.WebhookRegistration, delivery *models.WebhookDelivery) {
	payload := []byte(delivery.Payload)
	attempts := delivery.Attempts

	for attempts < d.maxAttempts {
		attempts++

		status, err := d.post(reg, delivery.Event, delivery.ID, payload)
		if err == nil && status == http.StatusOK {
			d.finishDelivered(reg.ID, delivery.ID, attempts)
			return
		}

		lastError := attemptError(status, err)
		if attempts >= d.maxAttempts {
			d.finishFailed(reg.ID, delivery.ID, attempts, lastError)
			return
		}

		backoff := d.backoff << (attempts - 1)
		next := time.Now().Add(backoff + d.lease)
		if err := d.deliveries.Reschedule(delivery.ID, attempts, next.Unix(), lastError); err != nil {
			log.Error().Err(err).Str("delivery_id", delivery.ID).Msg("failed to reschedule webhook delivery")
		}
		time.Sleep(backoff)
	}
}

// ProcessDue claims deliveries whose lease expired and runs one attempt
// each. Called by the background worker; the claim pushes the lease forward
// so a slow attempt is not re-claimed by the next sweep.
func (d *Dispatcher) ProcessDue(limit int) (int, error) {
	claimed, err := d.deliveries.ClaimDue(time.Now().Unix(), int64(d.lease.Seconds()), limit)
	if err != nil {
		return 0, err
	}
	if len(claimed) == 0 {
		return 0, nil
	}

	sem := make(chan struct{}, d.workers)
	var wg sync.WaitGroup
	for _, delivery := range claimed {
		wg.Add(1)
		sem <- struct{}{}
		go func(delivery *models.WebhookDelivery) {
			defer wg.Done()
			defer func() { <-sem }()
			d.attemptOnce(delivery)
		}(delivery)
	}
	wg.Wait()

	return len(claimed), nil
}

func (d *Dispatcher) attemptOnce(delivery *models.WebhookDelivery) {
	reg, err := d.registrations.GetByID(delivery.AccountID, delivery.RegistrationID)
	if err != nil {
		log.Error().Err(err).Str("delivery_id", delivery.ID).Msg("failed to load registration for delivery")
		return
	}
	if reg == nil {
		d.finishFailed("", delivery.ID, delivery.Attempts, "registration no longer exists")
		return
	}
	if !reg.Active {
		d.finishFailed(reg.ID, delivery.ID, delivery.Attempts, "registration disabled")
		return
	}

	attempts := delivery.Attempts + 1

	status, err := d.post(reg, delivery.Event, delivery.ID, []byte(delivery.Payload))
	if err == nil && status == http.StatusOK {
		d.finishDelivered(reg.ID, delivery.ID, attempts)
		return
	}

	lastError := attemptError(status, err)
	if attempts >= d.maxAttempts {
		d.finishFailed(reg.ID, delivery.ID, attempts, lastError)
		return
	}

	backoff := d.backoff << (attempts - 1)
	if err := d.deliveries.Reschedule(delivery.ID, attempts, time.Now().Add(backoff).Unix(), lastError); err != nil {
		log.Error().Err(err).Str("delivery_id", delivery.ID).Msg("failed to reschedule webhook delivery")
	}
}

// SendTest delivers a synthetic event synchronously so the caller can
// report the endpoint's response. Nothing is enqueued.
func (d *Dispatcher) SendTest(reg *models.WebhookRegistration) (int, error) {
	now := time.Now()
	lead := &models.Lead{
		ID:                 "lead_" + uuid.New().String(),
		Email:              "test@example.com",
		FirstName:          "John",
		LastName:           "Doe",
		Company:            "Example Inc",
		Source:             "webhook_test",
		QualificationScore: 75,
		QualificationStage: "warm_lead",
		CreatedAt:          now.Unix(),
	}

	payload, err := BuildEvent(EventLeadQualified, lead, now)
	if err != nil {
		return 0, err
	}

	return d.post(reg, EventLeadQualified, "del_"+uuid.New().String(), payload)
}

func (d *Dispatcher) post(reg *models.WebhookRegistration, event, deliveryID string, payload []byte) (int, error) {
	req, err := http.NewRequest(http.MethodPost, reg.URL, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Qualifyr-Signature", Sign(reg.Secret, payload))
	req.Header.Set("X-Qualifyr-Event", event)
	req.Header.Set("X-Qualifyr-Delivery", deliveryID)

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()

	return resp.StatusCode, nil
}

// Registration bookkeeping happens before the delivery row flips to a
// terminal status, so anything observing the terminal row sees it.
func (d *Dispatcher) finishDelivered(regID, deliveryID string, attempts int) {
	d.registrations.UpdateLastTriggered(regID, time.Now().Unix())
	d.registrations.ResetRetryCount(regID)
	if err := d.deliveries.MarkDelivered(deliveryID, attempts); err != nil {
		log.Error().Err(err).Str("delivery_id", deliveryID).Msg("failed to mark delivery as delivered")
	}
	metrics.WebhookDeliveriesTotal.WithLabelValues("delivered").Inc()
}

func (d *Dispatcher) finishFailed(regID, deliveryID string, attempts int, lastError string) {
	if regID != "" {
		d.registrations.IncrementRetryCount(regID)
		d.registrations.UpdateLastError(regID, lastError)
	}
	if err := d.deliveries.MarkFailed(deliveryID, attempts, lastError); err != nil {
		log.Error().Err(err).Str("delivery_id", deliveryID).Msg("failed to mark delivery as failed")
	}
	metrics.WebhookDeliveriesTotal.WithLabelValues("failed").Inc()
	log.Warn().Str("delivery_id", deliveryID).Str("error", lastError).Msg("webhook delivery failed permanently")
}

func attemptError(status int, err error) string {
	if err != nil {
		return err.Error()
	}
	return fmt.Sprintf("HTTP %d", status)
}
