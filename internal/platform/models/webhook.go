package models

type WebhookRegistration struct {
	ID              string   `json:"id"`
	AccountID       string   `json:"account_id"`
	URL             string   `json:"url"`
	Events          []string `json:"events"` // JSON array in DB
	Secret          string   `json:"secret"`
	Active          bool     `json:"active"`
	RetryCount      int      `json:"retry_count"`
	LastTriggeredAt int64    `json:"last_triggered_at,omitempty"`
	LastError       string   `json:"last_error,omitempty"`
	CreatedAt       int64    `json:"created_at"`
	UpdatedAt       int64    `json:"updated_at"`
}

// WebhookDelivery is one outbox row. The payload is frozen at enqueue
// time so a retry after a crash sends exactly the same bytes.
type WebhookDelivery struct {
	ID             string `json:"id"`
	RegistrationID string `json:"registration_id"`
	AccountID      string `json:"account_id"`
	Event          string `json:"event"`
	Payload        string `json:"payload"`
	Status         string `json:"status"` // pending, delivered, failed
	Attempts       int    `json:"attempts"`
	NextAttemptAt  int64  `json:"next_attempt_at"`
	LastError      string `json:"last_error,omitempty"`
	CreatedAt      int64  `json:"created_at"`
	UpdatedAt      int64  `json:"updated_at"`
}
