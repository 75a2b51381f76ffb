package webhooks

import (
	"encoding/json"
	"time"

	"qualifyr/internal/platform/models"
)

const EventLeadQualified = "lead_qualified"

type Event struct {
	Event     string      `json:"event"`
	Timestamp string      `json:"timestamp"`
	Lead      LeadPayload `json:"lead"`
}

type LeadPayload struct {
	ID                 string `json:"id"`
	Email              string `json:"email"`
	FirstName          string `json:"first_name"`
	LastName           string `json:"last_name"`
	Company            string `json:"company"`
	Phone              string `json:"phone"`
	Source             string `json:"source"`
	QualificationScore int    `json:"qualification_score"`
	QualificationStage string `json:"qualification_stage"`
	CreatedAt          string `json:"created_at"`
}

// BuildEvent freezes the payload bytes for a delivery. Timestamps are
// RFC3339 in UTC so receivers never have to guess the zone.
func BuildEvent(eventType string, lead *models.Lead, now time.Time) ([]byte, error) {
	return json.Marshal(Event{
		Event:     eventType,
		Timestamp: now.UTC().Format(time.RFC3339),
		Lead: LeadPayload{
			ID:                 lead.ID,
			Email:              lead.Email,
			FirstName:          lead.FirstName,
			LastName:           lead.LastName,
			Company:            lead.Company,
			Phone:              lead.Phone,
			Source:             lead.Source,
			QualificationScore: lead.QualificationScore,
			QualificationStage: lead.QualificationStage,
			CreatedAt:          time.Unix(lead.CreatedAt, 0).UTC().Format(time.RFC3339),
		},
	})
}
