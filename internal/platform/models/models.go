package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

type Account struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	PasswordHash   string `json:"-"`
	Company        string `json:"company,omitempty"`
	APIKey         string `json:"-"`
	Plan           string `json:"plan"`
	Status         string `json:"status"` // active, payment_failed, cancelled, suspended
	LeadsLimit     int    `json:"leads_limit"`
	LeadsUsed      int    `json:"leads_used_this_month"`
	SubscriptionID string `json:"subscription_id,omitempty"`
	TrialEndsAt    *int64 `json:"trial_ends_at,omitempty"`
	CreatedAt      int64  `json:"created_at"`
	UpdatedAt      int64  `json:"updated_at"`
}

type Lead struct {
	ID                 string       `json:"id"`
	AccountID          string       `json:"account_id"`
	Email              string       `json:"email"`
	FirstName          string       `json:"first_name,omitempty"`
	LastName           string       `json:"last_name,omitempty"`
	Company            string       `json:"company,omitempty"`
	Phone              string       `json:"phone,omitempty"`
	Source             string       `json:"source"`
	QualificationScore int          `json:"qualification_score"`
	QualificationStage string       `json:"qualification_stage"`
	ReadyForDemo       bool         `json:"ready_for_demo"`
	Conversation       Conversation `json:"conversation,omitempty"`
	Status             string       `json:"status"` // active, archived
	ForwardedAt        *int64       `json:"forwarded_at,omitempty"`
	CreatedAt          int64        `json:"created_at"`
	UpdatedAt          int64        `json:"updated_at"`
}

type Message struct {
	Kind      string `json:"kind"` // inbound, outbound, suggested_reply
	Subject   string `json:"subject,omitempty"`
	Content   string `json:"content"`
	CreatedAt int64  `json:"created_at"`
}

// Conversation is stored as a JSON array in a TEXT column.
type Conversation []Message

// Value implements the driver.Valuer interface for Conversation.
func (c Conversation) Value() (driver.Value, error) {
	if c == nil {
		return "[]", nil
	}
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for Conversation.
func (c *Conversation) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*c = nil
		return nil
	case []byte:
		return json.Unmarshal(v, c)
	case string:
		return json.Unmarshal([]byte(v), c)
	}
	return errors.New("unsupported conversation column type")
}
