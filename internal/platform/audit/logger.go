package audit

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Entry struct {
	ID           string                 `json:"id"`
	AccountID    string                 `json:"account_id"`
	Actor        string                 `json:"actor"`
	Action       string                 `json:"action"`
	ResourceType string                 `json:"resource_type"`
	ResourceID   string                 `json:"resource_id"`
	Metadata     map[string]interface{} `json:"metadata"`
	IPAddress    string                 `json:"ip_address"`
	CreatedAt    int64                  `json:"created_at"`
}

type Logger struct {
	db *sql.DB
}

func NewLogger(db *sql.DB) *Logger {
	return &Logger{db: db}
}

// Record writes the entry asynchronously. Audit writes never block or fail
// the operation that triggered them. Actions with no originating request
// (billing events, background scoring) carry no IP address.
func (l *Logger) Record(accountID, actor, action, resourceType, resourceID string, metadata map[string]interface{}) {
	l.record(accountID, actor, action, resourceType, resourceID, "", metadata)
}

// RecordRequest is Record with the caller's remote address attached.
func (l *Logger) RecordRequest(r *http.Request, accountID, actor, action, resourceType, resourceID string, metadata map[string]interface{}) {
	l.record(accountID, actor, action, resourceType, resourceID, r.RemoteAddr, metadata)
}

func (l *Logger) record(accountID, actor, action, resourceType, resourceID, ip string, metadata map[string]interface{}) {
	entry := &Entry{
		ID:           "audit_" + uuid.New().String(),
		AccountID:    accountID,
		Actor:        actor,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Metadata:     metadata,
		IPAddress:    ip,
		CreatedAt:    time.Now().Unix(),
	}

	metaJSON, _ := json.Marshal(metadata)
	if metadata == nil {
		metaJSON = []byte("{}")
	}

	go func() {
		query := `
			INSERT INTO audit_logs (id, account_id, actor, action, resource_type, resource_id, metadata, ip_address, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		_, err := l.db.Exec(query, entry.ID, entry.AccountID, entry.Actor, entry.Action,
			entry.ResourceType, entry.ResourceID, string(metaJSON), entry.IPAddress, entry.CreatedAt)
		if err != nil {
			log.Error().Err(err).Str("action", action).Msg("failed to write audit log")
		}
	}()
}

func (l *Logger) List(accountID string, limit int) ([]*Entry, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := `
		SELECT id, account_id, actor, action, resource_type, resource_id, metadata, ip_address, created_at
		FROM audit_logs
		WHERE account_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := l.db.Query(query, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry := &Entry{}
		var metaJSON string
		if err := rows.Scan(&entry.ID, &entry.AccountID, &entry.Actor, &entry.Action,
			&entry.ResourceType, &entry.ResourceID, &metaJSON, &entry.IPAddress, &entry.CreatedAt); err != nil {
			return nil, err
		}
		if metaJSON != "" {
			if err := json.Unmarshal([]byte(metaJSON), &entry.Metadata); err != nil {
				entry.Metadata = map[string]interface{}{}
			}
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}
