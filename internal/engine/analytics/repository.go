package analytics

import (
	"database/sql"
	"math"
	"time"
)

type RecentLead struct {
	ID                 string `json:"id"`
	Email              string `json:"email"`
	Company            string `json:"company"`
	QualificationScore int    `json:"qualification_score"`
	QualificationStage string `json:"qualification_stage"`
	CreatedAt          int64  `json:"created_at"`
}

type Overview struct {
	TotalLeads     int            `json:"total_leads"`
	StageCounts    map[string]int `json:"stage_counts"`
	AverageScore   float64        `json:"average_score"`
	ConversionRate float64        `json:"conversion_rate"`
	LeadsThisMonth int            `json:"leads_this_month"`
	Sources        map[string]int `json:"sources"`
	RecentLeads    []RecentLead   `json:"recent_leads"`
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Overview aggregates the account's pipeline. Conversion counts every lead
// at qualified or better. Months roll over in UTC.
func (r *Repository) Overview(accountID string, now time.Time) (*Overview, error) {
	o := &Overview{
		StageCounts: map[string]int{},
		Sources:     map[string]int{},
		RecentLeads: []RecentLead{},
	}

	if err := r.db.QueryRow(
		`SELECT COUNT(*) FROM leads WHERE account_id = ?`, accountID,
	).Scan(&o.TotalLeads); err != nil {
		return nil, err
	}

	stageRows, err := r.db.Query(
		`SELECT qualification_stage, COUNT(*) FROM leads WHERE account_id = ? GROUP BY qualification_stage`,
		accountID,
	)
	if err != nil {
		return nil, err
	}
	defer stageRows.Close()
	for stageRows.Next() {
		var stage string
		var count int
		if err := stageRows.Scan(&stage, &count); err != nil {
			return nil, err
		}
		o.StageCounts[stage] = count
	}
	if err := stageRows.Err(); err != nil {
		return nil, err
	}

	var avg sql.NullFloat64
	if err := r.db.QueryRow(
		`SELECT AVG(qualification_score) FROM leads WHERE account_id = ?`, accountID,
	).Scan(&avg); err != nil {
		return nil, err
	}
	if avg.Valid {
		o.AverageScore = math.Round(avg.Float64*100) / 100
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).Unix()
	if err := r.db.QueryRow(
		`SELECT COUNT(*) FROM leads WHERE account_id = ? AND created_at >= ?`,
		accountID, monthStart,
	).Scan(&o.LeadsThisMonth); err != nil {
		return nil, err
	}

	sourceRows, err := r.db.Query(
		`SELECT source, COUNT(*) FROM leads WHERE account_id = ? GROUP BY source`,
		accountID,
	)
	if err != nil {
		return nil, err
	}
	defer sourceRows.Close()
	for sourceRows.Next() {
		var source string
		var count int
		if err := sourceRows.Scan(&source, &count); err != nil {
			return nil, err
		}
		o.Sources[source] = count
	}
	if err := sourceRows.Err(); err != nil {
		return nil, err
	}

	recentRows, err := r.db.Query(`
		SELECT id, email, company, qualification_score, qualification_stage, created_at
		FROM leads
		WHERE account_id = ?
		ORDER BY created_at DESC
		LIMIT 10
	`, accountID)
	if err != nil {
		return nil, err
	}
	defer recentRows.Close()
	for recentRows.Next() {
		var l RecentLead
		if err := recentRows.Scan(&l.ID, &l.Email, &l.Company, &l.QualificationScore, &l.QualificationStage, &l.CreatedAt); err != nil {
			return nil, err
		}
		o.RecentLeads = append(o.RecentLeads, l)
	}
	if err := recentRows.Err(); err != nil {
		return nil, err
	}

	if o.TotalLeads > 0 {
		converted := o.StageCounts["qualified"] + o.StageCounts["warm_lead"] + o.StageCounts["hot_lead"]
		o.ConversionRate = math.Round(float64(converted)/float64(o.TotalLeads)*100*100) / 100
	}

	return o, nil
}
