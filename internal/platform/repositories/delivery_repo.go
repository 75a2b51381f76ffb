package repositories

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"qualifyr/internal/platform/models"
)

type DeliveryRepository struct {
	db *sql.DB
}

func NewDeliveryRepository(db *sql.DB) *DeliveryRepository {
	return &DeliveryRepository{db: db}
}

func (r *DeliveryRepository) Enqueue(d *models.WebhookDelivery) error {
	d.ID = "del_" + uuid.New().String()
	d.Status = "pending"
	d.CreatedAt = time.Now().Unix()
	d.UpdatedAt = d.CreatedAt

	query := `
		INSERT INTO webhook_deliveries (id, registration_id, account_id, event, payload, status, attempts, next_attempt_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query, d.ID, d.RegistrationID, d.AccountID, d.Event, d.Payload, d.Status, d.Attempts, d.NextAttemptAt, d.CreatedAt, d.UpdatedAt)
	return err
}

func (r *DeliveryRepository) GetByID(id string) (*models.WebhookDelivery, error) {
	row := r.db.QueryRow(`
		SELECT id, registration_id, account_id, event, payload, status, attempts, next_attempt_at, last_error, created_at, updated_at
		FROM webhook_deliveries WHERE id = ?
	`, id)
	return scanDelivery(row)
}

// ClaimDue picks up pending rows whose next_attempt_at elapsed and pushes
// their next_attempt_at forward by the lease, so the single sweeper does
// not re-claim them while attempts are in flight.
func (r *DeliveryRepository) ClaimDue(now, lease int64, limit int) ([]*models.WebhookDelivery, error) {
	rows, err := r.db.Query(`
		SELECT id, registration_id, account_id, event, payload, status, attempts, next_attempt_at, last_error, created_at, updated_at
		FROM webhook_deliveries
		WHERE status = 'pending' AND next_attempt_at <= ?
		ORDER BY next_attempt_at ASC
		LIMIT ?
	`, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var claimed []*models.WebhookDelivery
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, err
		}
		claimed = append(claimed, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, d := range claimed {
		if _, err := r.db.Exec(`UPDATE webhook_deliveries SET next_attempt_at = ?, updated_at = ? WHERE id = ?`,
			now+lease, now, d.ID); err != nil {
			return nil, err
		}
	}

	return claimed, nil
}

func (r *DeliveryRepository) MarkDelivered(id string, attempts int) error {
	_, err := r.db.Exec(`
		UPDATE webhook_deliveries SET status = 'delivered', attempts = ?, last_error = NULL, updated_at = ?
		WHERE id = ?
	`, attempts, time.Now().Unix(), id)
	return err
}

func (r *DeliveryRepository) MarkFailed(id string, attempts int, lastError string) error {
	_, err := r.db.Exec(`
		UPDATE webhook_deliveries SET status = 'failed', attempts = ?, last_error = ?, updated_at = ?
		WHERE id = ?
	`, attempts, lastError, time.Now().Unix(), id)
	return err
}

func (r *DeliveryRepository) Reschedule(id string, attempts int, nextAttemptAt int64, lastError string) error {
	_, err := r.db.Exec(`
		UPDATE webhook_deliveries SET attempts = ?, next_attempt_at = ?, last_error = ?, updated_at = ?
		WHERE id = ?
	`, attempts, nextAttemptAt, lastError, time.Now().Unix(), id)
	return err
}

func (r *DeliveryRepository) DeleteFinishedBefore(cutoff int64) (int64, error) {
	res, err := r.db.Exec(`
		DELETE FROM webhook_deliveries WHERE status IN ('delivered', 'failed') AND updated_at < ?
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanDelivery(s interface {
	Scan(dest ...interface{}) error
}) (*models.WebhookDelivery, error) {
	var d models.WebhookDelivery
	var lastError sql.NullString

	err := s.Scan(
		&d.ID,
		&d.RegistrationID,
		&d.AccountID,
		&d.Event,
		&d.Payload,
		&d.Status,
		&d.Attempts,
		&d.NextAttemptAt,
		&lastError,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	if lastError.Valid {
		d.LastError = lastError.String
	}

	return &d, nil
}
