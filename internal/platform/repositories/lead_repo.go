package repositories

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"qualifyr/internal/platform/models"
)

type LeadRepository struct {
	db *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{db: db}
}

// CreateTx inserts inside the caller's admission transaction so a
// uniqueness rollback also rolls back the quota increment.
func (r *LeadRepository) CreateTx(tx *sql.Tx, lead *models.Lead) error {
	lead.ID = "lead_" + uuid.New().String()
	lead.CreatedAt = time.Now().Unix()
	lead.UpdatedAt = lead.CreatedAt
	if lead.Source == "" {
		lead.Source = "api"
	}
	if lead.QualificationStage == "" {
		lead.QualificationStage = "unqualified"
	}
	if lead.Status == "" {
		lead.Status = "active"
	}

	query := `
		INSERT INTO leads (id, account_id, email, first_name, last_name, company, phone, source, qualification_score, qualification_stage, ready_for_demo, conversation, status, forwarded_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := tx.Exec(query,
		lead.ID, lead.AccountID, lead.Email,
		lead.FirstName, lead.LastName, lead.Company, lead.Phone,
		lead.Source, lead.QualificationScore, lead.QualificationStage,
		lead.ReadyForDemo, lead.Conversation, lead.Status,
		lead.ForwardedAt, lead.CreatedAt, lead.UpdatedAt,
	)
	if err != nil && isUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	return err
}

func (r *LeadRepository) GetByID(accountID, id string) (*models.Lead, error) {
	row := r.db.QueryRow(`
		SELECT id, account_id, email, first_name, last_name, company, phone, source, qualification_score, qualification_stage, ready_for_demo, conversation, status, forwarded_at, created_at, updated_at
		FROM leads WHERE id = ? AND account_id = ?
	`, id, accountID)
	return scanLead(row)
}

func (r *LeadRepository) GetByEmail(accountID, email string) (*models.Lead, error) {
	row := r.db.QueryRow(`
		SELECT id, account_id, email, first_name, last_name, company, phone, source, qualification_score, qualification_stage, ready_for_demo, conversation, status, forwarded_at, created_at, updated_at
		FROM leads WHERE account_id = ? AND email = ?
	`, accountID, email)
	return scanLead(row)
}

func (r *LeadRepository) List(accountID, stage string, limit, offset int) ([]*models.Lead, error) {
	query := `
		SELECT id, account_id, email, first_name, last_name, company, phone, source, qualification_score, qualification_stage, ready_for_demo, conversation, status, forwarded_at, created_at, updated_at
		FROM leads WHERE account_id = ?
	`
	args := []interface{}{accountID}

	if stage != "" {
		query += ` AND qualification_stage = ?`
		args = append(args, stage)
	}

	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []*models.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

func (r *LeadRepository) Count(accountID, stage string) (int, error) {
	query := `SELECT COUNT(*) FROM leads WHERE account_id = ?`
	args := []interface{}{accountID}

	if stage != "" {
		query += ` AND qualification_stage = ?`
		args = append(args, stage)
	}

	var count int
	err := r.db.QueryRow(query, args...).Scan(&count)
	return count, err
}

func (r *LeadRepository) UpdateScore(id string, score int, stage string, readyForDemo bool) error {
	_, err := r.db.Exec(`
		UPDATE leads SET qualification_score = ?, qualification_stage = ?, ready_for_demo = ?, updated_at = ?
		WHERE id = ?
	`, score, stage, readyForDemo, time.Now().Unix(), id)
	return err
}

func (r *LeadRepository) UpdateConversation(id string, conversation models.Conversation) error {
	_, err := r.db.Exec(`UPDATE leads SET conversation = ?, updated_at = ? WHERE id = ?`,
		conversation, time.Now().Unix(), id)
	return err
}

// MarkForwardedOnce claims the single automatic forward. It reports false
// when another pass already stamped the lead.
func (r *LeadRepository) MarkForwardedOnce(id string, timestamp int64) (bool, error) {
	res, err := r.db.Exec(`UPDATE leads SET forwarded_at = ?, updated_at = ? WHERE id = ? AND forwarded_at IS NULL`,
		timestamp, time.Now().Unix(), id)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// MarkForwarded restamps unconditionally (manual send-to-crm path).
func (r *LeadRepository) MarkForwarded(id string, timestamp int64) error {
	_, err := r.db.Exec(`UPDATE leads SET forwarded_at = ?, updated_at = ? WHERE id = ?`,
		timestamp, time.Now().Unix(), id)
	return err
}

func scanLead(s interface {
	Scan(dest ...interface{}) error
}) (*models.Lead, error) {
	var lead models.Lead
	var forwardedAt sql.NullInt64

	err := s.Scan(
		&lead.ID,
		&lead.AccountID,
		&lead.Email,
		&lead.FirstName,
		&lead.LastName,
		&lead.Company,
		&lead.Phone,
		&lead.Source,
		&lead.QualificationScore,
		&lead.QualificationStage,
		&lead.ReadyForDemo,
		&lead.Conversation,
		&lead.Status,
		&forwardedAt,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	if forwardedAt.Valid {
		val := forwardedAt.Int64
		lead.ForwardedAt = &val
	}

	return &lead, nil
}
