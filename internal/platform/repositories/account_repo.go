package repositories

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"qualifyr/internal/platform/models"
)

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) BeginTx() (*sql.Tx, error) {
	return r.db.Begin()
}

func (r *AccountRepository) Create(account *models.Account) error {
	account.ID = "acct_" + uuid.New().String()
	account.CreatedAt = time.Now().Unix()
	account.UpdatedAt = account.CreatedAt
	if account.Status == "" {
		account.Status = "active"
	}

	var subscriptionID interface{}
	if account.SubscriptionID != "" {
		subscriptionID = account.SubscriptionID
	}

	query := `
		INSERT INTO accounts (id, email, password_hash, company, api_key, plan, status, leads_limit, leads_used_this_month, subscription_id, trial_ends_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query,
		account.ID, account.Email, account.PasswordHash, account.Company,
		account.APIKey, account.Plan, account.Status,
		account.LeadsLimit, account.LeadsUsed, subscriptionID,
		account.TrialEndsAt, account.CreatedAt, account.UpdatedAt,
	)
	if err != nil && isUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	return err
}

func (r *AccountRepository) GetByID(id string) (*models.Account, error) {
	row := r.db.QueryRow(`
		SELECT id, email, password_hash, company, api_key, plan, status, leads_limit, leads_used_this_month, subscription_id, trial_ends_at, created_at, updated_at
		FROM accounts WHERE id = ?
	`, id)
	return scanAccount(row)
}

func (r *AccountRepository) GetByEmail(email string) (*models.Account, error) {
	row := r.db.QueryRow(`
		SELECT id, email, password_hash, company, api_key, plan, status, leads_limit, leads_used_this_month, subscription_id, trial_ends_at, created_at, updated_at
		FROM accounts WHERE email = ?
	`, email)
	return scanAccount(row)
}

func (r *AccountRepository) GetByAPIKey(key string) (*models.Account, error) {
	row := r.db.QueryRow(`
		SELECT id, email, password_hash, company, api_key, plan, status, leads_limit, leads_used_this_month, subscription_id, trial_ends_at, created_at, updated_at
		FROM accounts WHERE api_key = ?
	`, key)
	return scanAccount(row)
}

func (r *AccountRepository) GetBySubscription(subscriptionID string) (*models.Account, error) {
	row := r.db.QueryRow(`
		SELECT id, email, password_hash, company, api_key, plan, status, leads_limit, leads_used_this_month, subscription_id, trial_ends_at, created_at, updated_at
		FROM accounts WHERE subscription_id = ?
	`, subscriptionID)
	return scanAccount(row)
}

func (r *AccountRepository) ExistsByAPIKey(key string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM accounts WHERE api_key = ?)`, key).Scan(&exists)
	return exists, err
}

func (r *AccountRepository) UpdateAPIKey(id, key string) error {
	_, err := r.db.Exec(`UPDATE accounts SET api_key = ?, updated_at = ? WHERE id = ?`, key, time.Now().Unix(), id)
	return err
}

// ConsumeQuotaTx is the admission guard: the increment only lands when the
// account is active and strictly under its limit. Zero rows affected means
// the caller must reject the lead.
func (r *AccountRepository) ConsumeQuotaTx(tx *sql.Tx, id string) (bool, error) {
	res, err := tx.Exec(`
		UPDATE accounts
		SET leads_used_this_month = leads_used_this_month + 1, updated_at = ?
		WHERE id = ? AND status = 'active' AND leads_used_this_month < leads_limit
	`, time.Now().Unix(), id)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *AccountRepository) UsageTx(tx *sql.Tx, id string) (used, limit int, err error) {
	err = tx.QueryRow(`SELECT leads_used_this_month, leads_limit FROM accounts WHERE id = ?`, id).Scan(&used, &limit)
	return used, limit, err
}

func (r *AccountRepository) StatusTx(tx *sql.Tx, id string) (string, error) {
	var status string
	err := tx.QueryRow(`SELECT status FROM accounts WHERE id = ?`, id).Scan(&status)
	if err != nil {
		return "", err
	}
	return status, nil
}

// ResetUsageBySubscription zeroes the monthly counter and reactivates an
// account that was parked in payment_failed. Cancelled accounts stay
// cancelled. Returns the number of matched accounts (0 or 1).
func (r *AccountRepository) ResetUsageBySubscription(subscriptionID string) (int64, error) {
	res, err := r.db.Exec(`
		UPDATE accounts
		SET leads_used_this_month = 0,
		    status = CASE WHEN status = 'payment_failed' THEN 'active' ELSE status END,
		    updated_at = ?
		WHERE subscription_id = ?
	`, time.Now().Unix(), subscriptionID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *AccountRepository) SetStatusBySubscription(subscriptionID, status string) (int64, error) {
	res, err := r.db.Exec(`UPDATE accounts SET status = ?, updated_at = ? WHERE subscription_id = ?`,
		status, time.Now().Unix(), subscriptionID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanAccount(s interface {
	Scan(dest ...interface{}) error
}) (*models.Account, error) {
	var account models.Account
	var subscriptionID sql.NullString
	var trialEndsAt sql.NullInt64

	err := s.Scan(
		&account.ID,
		&account.Email,
		&account.PasswordHash,
		&account.Company,
		&account.APIKey,
		&account.Plan,
		&account.Status,
		&account.LeadsLimit,
		&account.LeadsUsed,
		&subscriptionID,
		&trialEndsAt,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	if subscriptionID.Valid {
		account.SubscriptionID = subscriptionID.String
	}
	if trialEndsAt.Valid {
		val := trialEndsAt.Int64
		account.TrialEndsAt = &val
	}

	return &account, nil
}
