package analytics

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"qualifyr/internal/platform/models"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema := `
	CREATE TABLE leads (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL,
		email TEXT NOT NULL,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		company TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL DEFAULT 'api',
		qualification_score INTEGER NOT NULL DEFAULT 0,
		qualification_stage TEXT NOT NULL DEFAULT 'unqualified',
		ready_for_demo INTEGER NOT NULL DEFAULT 0,
		conversation TEXT NOT NULL DEFAULT '[]',
		status TEXT NOT NULL DEFAULT 'active',
		forwarded_at INTEGER,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		UNIQUE(account_id, email)
	);
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return db
}

func seedLead(t *testing.T, db *sql.DB, id, accountID, email, source, stage string, score int, createdAt int64) {
	t.Helper()

	_, err := db.Exec(`
		INSERT INTO leads (id, account_id, email, company, source, qualification_score, qualification_stage, created_at, updated_at)
		VALUES (?, ?, ?, 'BigCo', ?, ?, ?, ?, ?)
	`, id, accountID, email, source, score, stage, createdAt, createdAt)
	if err != nil {
		t.Fatalf("Failed to seed lead %s: %v", id, err)
	}
}

func TestOverview(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	now := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
	thisMonth := time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC).Unix()
	lastMonth := time.Date(2026, time.February, 20, 0, 0, 0, 0, time.UTC).Unix()

	seedLead(t, db, "lead_1", "acct_1", "a@x.com", "api", "hot_lead", 90, thisMonth)
	seedLead(t, db, "lead_2", "acct_1", "b@x.com", "api", "warm_lead", 70, thisMonth)
	seedLead(t, db, "lead_3", "acct_1", "c@x.com", "website", "qualified", 50, lastMonth)
	seedLead(t, db, "lead_4", "acct_1", "d@x.com", "website", "unqualified", 10, lastMonth)

	// Another tenant's lead must never leak into the aggregates.
	seedLead(t, db, "lead_5", "acct_2", "e@x.com", "api", "hot_lead", 99, thisMonth)

	o, err := repo.Overview("acct_1", now)
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}

	if o.TotalLeads != 4 {
		t.Errorf("TotalLeads = %d, want 4", o.TotalLeads)
	}
	if o.StageCounts["hot_lead"] != 1 || o.StageCounts["warm_lead"] != 1 || o.StageCounts["qualified"] != 1 || o.StageCounts["unqualified"] != 1 {
		t.Errorf("StageCounts = %v", o.StageCounts)
	}
	if o.AverageScore != 55 {
		t.Errorf("AverageScore = %v, want 55", o.AverageScore)
	}
	// 3 of 4 leads at qualified or better.
	if o.ConversionRate != 75 {
		t.Errorf("ConversionRate = %v, want 75", o.ConversionRate)
	}
	if o.LeadsThisMonth != 2 {
		t.Errorf("LeadsThisMonth = %d, want 2", o.LeadsThisMonth)
	}
	if o.Sources["api"] != 2 || o.Sources["website"] != 2 {
		t.Errorf("Sources = %v", o.Sources)
	}
	if len(o.RecentLeads) != 4 {
		t.Fatalf("RecentLeads = %d entries, want 4", len(o.RecentLeads))
	}
	if o.RecentLeads[0].CreatedAt < o.RecentLeads[len(o.RecentLeads)-1].CreatedAt {
		t.Error("RecentLeads are not newest first")
	}
}

func TestOverview_EmptyAccount(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	o, err := repo.Overview("acct_empty", time.Now())
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}

	if o.TotalLeads != 0 || o.AverageScore != 0 || o.ConversionRate != 0 || o.LeadsThisMonth != 0 {
		t.Errorf("empty account overview = %+v", o)
	}
	if len(o.StageCounts) != 0 || len(o.Sources) != 0 || len(o.RecentLeads) != 0 {
		t.Errorf("empty account collections = %+v", o)
	}
}

func TestOverview_RecentLeadsCapped(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	base := time.Now().Unix()
	for i := 0; i < 15; i++ {
		seedLead(t, db, "lead_"+string(rune('a'+i)), "acct_1", string(rune('a'+i))+"@x.com", "api", "nurture", 25, base+int64(i))
	}

	o, err := repo.Overview("acct_1", time.Now())
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if len(o.RecentLeads) != 10 {
		t.Errorf("RecentLeads = %d entries, want capped at 10", len(o.RecentLeads))
	}
}

func TestDashboard(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(NewRepository(db))

	seedLead(t, db, "lead_1", "acct_1", "a@x.com", "api", "warm_lead", 70, time.Now().Unix())

	account := &models.Account{ID: "acct_1", LeadsUsed: 37, LeadsLimit: 500}
	d, err := svc.Dashboard(account, time.Now())
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}

	if d.Usage.Used != 37 || d.Usage.Limit != 500 {
		t.Errorf("Usage = %+v, want {37 500}", d.Usage)
	}
	if d.TotalLeads != 1 {
		t.Errorf("TotalLeads = %d, want 1", d.TotalLeads)
	}
}
