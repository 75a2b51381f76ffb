package repositories

import (
	"errors"
	"testing"
	"time"

	"qualifyr/internal/platform/models"
)

func createLead(t *testing.T, repo *LeadRepository, lead *models.Lead) {
	t.Helper()

	tx, err := repo.db.Begin()
	if err != nil {
		t.Fatalf("Failed to begin tx: %v", err)
	}
	if err := repo.CreateTx(tx, lead); err != nil {
		tx.Rollback()
		t.Fatalf("Failed to create lead: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
}

func TestLeadRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewLeadRepository(db)

	lead := &models.Lead{
		AccountID:          "acct_1",
		Email:              "buyer@corp.com",
		FirstName:          "Jane",
		Company:            "Corp",
		QualificationScore: 65,
		QualificationStage: "warm_lead",
		Conversation: models.Conversation{
			{Kind: "inbound", Content: "We need this urgently", CreatedAt: time.Now().Unix()},
		},
	}
	createLead(t, repo, lead)

	if lead.ID == "" || lead.Source != "api" {
		t.Errorf("Expected generated id and default source, got %q / %q", lead.ID, lead.Source)
	}

	fetched, err := repo.GetByID("acct_1", lead.ID)
	if err != nil {
		t.Fatalf("Failed to get lead: %v", err)
	}
	if fetched == nil {
		t.Fatal("Expected lead, got nil")
	}
	if fetched.QualificationScore != 65 || fetched.QualificationStage != "warm_lead" {
		t.Errorf("Score roundtrip mismatch: %d / %s", fetched.QualificationScore, fetched.QualificationStage)
	}
	if len(fetched.Conversation) != 1 || fetched.Conversation[0].Content != "We need this urgently" {
		t.Errorf("Conversation roundtrip mismatch: %+v", fetched.Conversation)
	}

	// Leads are account-scoped.
	crossTenant, err := repo.GetByID("acct_2", lead.ID)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if crossTenant != nil {
		t.Error("Lead must not be visible to another account")
	}
}

func TestLeadRepository_DuplicateEmailPerAccount(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewLeadRepository(db)

	createLead(t, repo, &models.Lead{AccountID: "acct_1", Email: "dup@corp.com"})

	tx, err := repo.db.Begin()
	if err != nil {
		t.Fatalf("Failed to begin tx: %v", err)
	}
	defer tx.Rollback()

	err = repo.CreateTx(tx, &models.Lead{AccountID: "acct_1", Email: "dup@corp.com"})
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Errorf("Expected ErrDuplicateEmail, got %v", err)
	}

	// The same address under another account is a different lead.
	createLead(t, repo, &models.Lead{AccountID: "acct_2", Email: "dup@corp.com"})
}

func TestLeadRepository_ListFiltersByStage(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewLeadRepository(db)

	createLead(t, repo, &models.Lead{AccountID: "acct_1", Email: "a@corp.com", QualificationStage: "hot_lead"})
	createLead(t, repo, &models.Lead{AccountID: "acct_1", Email: "b@corp.com", QualificationStage: "nurture"})
	createLead(t, repo, &models.Lead{AccountID: "acct_1", Email: "c@corp.com", QualificationStage: "hot_lead"})
	createLead(t, repo, &models.Lead{AccountID: "acct_2", Email: "d@corp.com", QualificationStage: "hot_lead"})

	all, err := repo.List("acct_1", "", 50, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Expected 3 leads for acct_1, got %d", len(all))
	}

	hot, err := repo.List("acct_1", "hot_lead", 50, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(hot) != 2 {
		t.Errorf("Expected 2 hot leads, got %d", len(hot))
	}
	for _, lead := range hot {
		if lead.QualificationStage != "hot_lead" {
			t.Errorf("Stage filter leaked %s", lead.QualificationStage)
		}
	}
}

func TestLeadRepository_Count(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewLeadRepository(db)

	createLead(t, repo, &models.Lead{AccountID: "acct_1", Email: "a@corp.com", QualificationStage: "hot_lead"})
	createLead(t, repo, &models.Lead{AccountID: "acct_1", Email: "b@corp.com", QualificationStage: "nurture"})
	createLead(t, repo, &models.Lead{AccountID: "acct_2", Email: "c@corp.com", QualificationStage: "hot_lead"})

	total, err := repo.Count("acct_1", "")
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if total != 2 {
		t.Errorf("Expected 2 leads for acct_1, got %d", total)
	}

	hot, err := repo.Count("acct_1", "hot_lead")
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if hot != 1 {
		t.Errorf("Expected 1 hot lead, got %d", hot)
	}
}

func TestLeadRepository_UpdateScore(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewLeadRepository(db)

	lead := &models.Lead{AccountID: "acct_1", Email: "a@corp.com"}
	createLead(t, repo, lead)

	if err := repo.UpdateScore(lead.ID, 85, "hot_lead", true); err != nil {
		t.Fatalf("UpdateScore failed: %v", err)
	}

	fetched, _ := repo.GetByID("acct_1", lead.ID)
	if fetched.QualificationScore != 85 || fetched.QualificationStage != "hot_lead" || !fetched.ReadyForDemo {
		t.Errorf("Update mismatch: %+v", fetched)
	}
}

func TestLeadRepository_UpdateConversation(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewLeadRepository(db)

	lead := &models.Lead{AccountID: "acct_1", Email: "a@corp.com"}
	createLead(t, repo, lead)

	conv := models.Conversation{
		{Kind: "inbound", Subject: "Pricing", Content: "How much does it cost?", CreatedAt: 100},
		{Kind: "suggested_reply", Content: "Our starter plan is $99/month.", CreatedAt: 101},
	}
	if err := repo.UpdateConversation(lead.ID, conv); err != nil {
		t.Fatalf("UpdateConversation failed: %v", err)
	}

	fetched, _ := repo.GetByID("acct_1", lead.ID)
	if len(fetched.Conversation) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(fetched.Conversation))
	}
	if fetched.Conversation[1].Kind != "suggested_reply" {
		t.Errorf("Expected suggested_reply, got %s", fetched.Conversation[1].Kind)
	}
}

func TestLeadRepository_MarkForwardedOnce(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewLeadRepository(db)

	lead := &models.Lead{AccountID: "acct_1", Email: "a@corp.com"}
	createLead(t, repo, lead)

	claimed, err := repo.MarkForwardedOnce(lead.ID, 1700000000)
	if err != nil {
		t.Fatalf("MarkForwardedOnce failed: %v", err)
	}
	if !claimed {
		t.Fatal("First claim should succeed")
	}

	claimed, err = repo.MarkForwardedOnce(lead.ID, 1700000100)
	if err != nil {
		t.Fatalf("MarkForwardedOnce failed: %v", err)
	}
	if claimed {
		t.Error("Second claim must report already forwarded")
	}

	fetched, _ := repo.GetByID("acct_1", lead.ID)
	if fetched.ForwardedAt == nil || *fetched.ForwardedAt != 1700000000 {
		t.Errorf("Expected original forward timestamp to stick, got %v", fetched.ForwardedAt)
	}

	// Manual restamp is unconditional.
	if err := repo.MarkForwarded(lead.ID, 1700000200); err != nil {
		t.Fatalf("MarkForwarded failed: %v", err)
	}
	fetched, _ = repo.GetByID("acct_1", lead.ID)
	if fetched.ForwardedAt == nil || *fetched.ForwardedAt != 1700000200 {
		t.Errorf("Expected restamped timestamp, got %v", fetched.ForwardedAt)
	}
}
