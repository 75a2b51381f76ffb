package repositories

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"qualifyr/internal/platform/models"
)

type WebhookRegistrationRepository struct {
	db *sql.DB
}

func NewWebhookRegistrationRepository(db *sql.DB) *WebhookRegistrationRepository {
	return &WebhookRegistrationRepository{db: db}
}

func (r *WebhookRegistrationRepository) Create(reg *models.WebhookRegistration) error {
	reg.ID = "wh_" + uuid.New().String()
	reg.CreatedAt = time.Now().Unix()
	reg.UpdatedAt = reg.CreatedAt

	eventsJSON, err := json.Marshal(reg.Events)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO webhook_registrations (id, account_id, url, events, secret, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.Exec(query, reg.ID, reg.AccountID, reg.URL, string(eventsJSON), reg.Secret, reg.Active, reg.CreatedAt, reg.UpdatedAt)
	return err
}

func (r *WebhookRegistrationRepository) GetByID(accountID, id string) (*models.WebhookRegistration, error) {
	row := r.db.QueryRow(`
		SELECT id, account_id, url, events, secret, active, retry_count, last_triggered_at, last_error, created_at, updated_at
		FROM webhook_registrations WHERE id = ? AND account_id = ?
	`, id, accountID)
	return scanRegistration(row)
}

func (r *WebhookRegistrationRepository) List(accountID string) ([]*models.WebhookRegistration, error) {
	rows, err := r.db.Query(`
		SELECT id, account_id, url, events, secret, active, retry_count, last_triggered_at, last_error, created_at, updated_at
		FROM webhook_registrations WHERE account_id = ? ORDER BY created_at DESC
	`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var regs []*models.WebhookRegistration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}

func (r *WebhookRegistrationRepository) Update(reg *models.WebhookRegistration) error {
	eventsJSON, err := json.Marshal(reg.Events)
	if err != nil {
		return err
	}
	reg.UpdatedAt = time.Now().Unix()

	query := `
		UPDATE webhook_registrations
		SET url = ?, events = ?, active = ?, updated_at = ?
		WHERE id = ? AND account_id = ?
	`
	_, err = r.db.Exec(query, reg.URL, string(eventsJSON), reg.Active, reg.UpdatedAt, reg.ID, reg.AccountID)
	return err
}

func (r *WebhookRegistrationRepository) Delete(accountID, id string) error {
	_, err := r.db.Exec(`DELETE FROM webhook_registrations WHERE id = ? AND account_id = ?`, id, accountID)
	return err
}

// GetActiveByEvent returns the account's active registrations subscribed
// to the event. Events are a JSON array column, filtered in app.
func (r *WebhookRegistrationRepository) GetActiveByEvent(accountID, eventType string) ([]*models.WebhookRegistration, error) {
	rows, err := r.db.Query(`
		SELECT id, account_id, url, events, secret, active, retry_count, last_triggered_at, last_error, created_at, updated_at
		FROM webhook_registrations WHERE account_id = ? AND active = 1
	`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matched []*models.WebhookRegistration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		for _, e := range reg.Events {
			if e == eventType {
				matched = append(matched, reg)
				break
			}
		}
	}
	return matched, rows.Err()
}

func (r *WebhookRegistrationRepository) UpdateLastTriggered(id string, timestamp int64) error {
	_, err := r.db.Exec(`UPDATE webhook_registrations SET last_triggered_at = ? WHERE id = ?`, timestamp, id)
	return err
}

func (r *WebhookRegistrationRepository) IncrementRetryCount(id string) error {
	_, err := r.db.Exec(`UPDATE webhook_registrations SET retry_count = retry_count + 1 WHERE id = ?`, id)
	return err
}

func (r *WebhookRegistrationRepository) ResetRetryCount(id string) error {
	_, err := r.db.Exec(`UPDATE webhook_registrations SET retry_count = 0 WHERE id = ?`, id)
	return err
}

func (r *WebhookRegistrationRepository) UpdateLastError(id, lastError string) error {
	_, err := r.db.Exec(`UPDATE webhook_registrations SET last_error = ? WHERE id = ?`, lastError, id)
	return err
}

func scanRegistration(s interface {
	Scan(dest ...interface{}) error
}) (*models.WebhookRegistration, error) {
	var reg models.WebhookRegistration
	var eventsStr string
	var lastTriggeredAt sql.NullInt64
	var lastError sql.NullString

	err := s.Scan(
		&reg.ID,
		&reg.AccountID,
		&reg.URL,
		&eventsStr,
		&reg.Secret,
		&reg.Active,
		&reg.RetryCount,
		&lastTriggeredAt,
		&lastError,
		&reg.CreatedAt,
		&reg.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	if lastTriggeredAt.Valid {
		reg.LastTriggeredAt = lastTriggeredAt.Int64
	}
	if lastError.Valid {
		reg.LastError = lastError.String
	}

	if err := json.Unmarshal([]byte(eventsStr), &reg.Events); err != nil {
		return nil, err
	}

	return &reg, nil
}
