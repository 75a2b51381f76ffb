package repositories

import (
	"testing"
	"time"

	"qualifyr/internal/platform/models"
)

func TestWebhookRegistrationRepository_CRUD(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewWebhookRegistrationRepository(db)

	reg := &models.WebhookRegistration{
		AccountID: "acct_1",
		URL:       "https://crm.example.com/hooks",
		Events:    []string{"lead_qualified"},
		Secret:    "whsec_abc",
		Active:    true,
	}
	if err := repo.Create(reg); err != nil {
		t.Fatalf("Failed to create registration: %v", err)
	}

	fetched, err := repo.GetByID("acct_1", reg.ID)
	if err != nil {
		t.Fatalf("Failed to get registration: %v", err)
	}
	if fetched == nil || fetched.URL != reg.URL || !fetched.Active {
		t.Errorf("Roundtrip mismatch: %+v", fetched)
	}
	if len(fetched.Events) != 1 || fetched.Events[0] != "lead_qualified" {
		t.Errorf("Events roundtrip mismatch: %v", fetched.Events)
	}

	crossTenant, err := repo.GetByID("acct_2", reg.ID)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if crossTenant != nil {
		t.Error("Registration must not be visible to another account")
	}

	fetched.URL = "https://crm.example.com/hooks/v2"
	fetched.Active = false
	if err := repo.Update(fetched); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	updated, _ := repo.GetByID("acct_1", reg.ID)
	if updated.URL != "https://crm.example.com/hooks/v2" || updated.Active {
		t.Errorf("Update mismatch: %+v", updated)
	}

	if err := repo.Delete("acct_1", reg.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	gone, _ := repo.GetByID("acct_1", reg.ID)
	if gone != nil {
		t.Error("Expected registration deleted")
	}
}

func TestWebhookRegistrationRepository_GetActiveByEvent(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewWebhookRegistrationRepository(db)

	mustCreate := func(accountID, url string, events []string, active bool) {
		t.Helper()
		reg := &models.WebhookRegistration{AccountID: accountID, URL: url, Events: events, Secret: "whsec_x", Active: active}
		if err := repo.Create(reg); err != nil {
			t.Fatalf("Failed to create registration: %v", err)
		}
	}

	mustCreate("acct_1", "https://a.example.com", []string{"lead_qualified"}, true)
	mustCreate("acct_1", "https://b.example.com", []string{"lead_qualified"}, false)
	mustCreate("acct_1", "https://c.example.com", []string{"other_event"}, true)
	mustCreate("acct_2", "https://d.example.com", []string{"lead_qualified"}, true)

	matched, err := repo.GetActiveByEvent("acct_1", "lead_qualified")
	if err != nil {
		t.Fatalf("GetActiveByEvent failed: %v", err)
	}
	if len(matched) != 1 {
		t.Fatalf("Expected exactly 1 match, got %d", len(matched))
	}
	if matched[0].URL != "https://a.example.com" {
		t.Errorf("Wrong registration matched: %s", matched[0].URL)
	}
}

func TestDeliveryRepository_Lifecycle(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewDeliveryRepository(db)

	now := time.Now().Unix()
	d := &models.WebhookDelivery{
		RegistrationID: "wh_1",
		AccountID:      "acct_1",
		Event:          "lead_qualified",
		Payload:        `{"event":"lead_qualified"}`,
		NextAttemptAt:  now - 10,
	}
	if err := repo.Enqueue(d); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if d.ID == "" || d.Status != "pending" {
		t.Errorf("Expected pending delivery with id, got %+v", d)
	}

	claimed, err := repo.ClaimDue(now, 120, 10)
	if err != nil {
		t.Fatalf("ClaimDue failed: %v", err)
	}
	if len(claimed) != 1 || claimed[0].ID != d.ID {
		t.Fatalf("Expected to claim the due delivery, got %d", len(claimed))
	}

	// The lease pushes next_attempt_at forward so a second sweep skips it.
	again, err := repo.ClaimDue(now, 120, 10)
	if err != nil {
		t.Fatalf("ClaimDue failed: %v", err)
	}
	if len(again) != 0 {
		t.Errorf("Expected leased delivery to be skipped, claimed %d", len(again))
	}

	if err := repo.Reschedule(d.ID, 1, now+2, "HTTP 500"); err != nil {
		t.Fatalf("Reschedule failed: %v", err)
	}
	resched, _ := repo.GetByID(d.ID)
	if resched.Attempts != 1 || resched.LastError != "HTTP 500" || resched.Status != "pending" {
		t.Errorf("Reschedule mismatch: %+v", resched)
	}

	if err := repo.MarkDelivered(d.ID, 2); err != nil {
		t.Fatalf("MarkDelivered failed: %v", err)
	}
	done, _ := repo.GetByID(d.ID)
	if done.Status != "delivered" || done.Attempts != 2 || done.LastError != "" {
		t.Errorf("MarkDelivered mismatch: %+v", done)
	}
}

func TestDeliveryRepository_DeleteFinishedBefore(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewDeliveryRepository(db)

	now := time.Now().Unix()

	oldDelivered := &models.WebhookDelivery{RegistrationID: "wh_1", AccountID: "acct_1", Event: "lead_qualified", Payload: "{}", NextAttemptAt: now}
	if err := repo.Enqueue(oldDelivered); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if err := repo.MarkDelivered(oldDelivered.ID, 1); err != nil {
		t.Fatalf("MarkDelivered failed: %v", err)
	}
	if _, err := db.Exec(`UPDATE webhook_deliveries SET updated_at = ? WHERE id = ?`, now-7200, oldDelivered.ID); err != nil {
		t.Fatalf("Failed to age delivery: %v", err)
	}

	pending := &models.WebhookDelivery{RegistrationID: "wh_1", AccountID: "acct_1", Event: "lead_qualified", Payload: "{}", NextAttemptAt: now}
	if err := repo.Enqueue(pending); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if _, err := db.Exec(`UPDATE webhook_deliveries SET updated_at = ? WHERE id = ?`, now-7200, pending.ID); err != nil {
		t.Fatalf("Failed to age delivery: %v", err)
	}

	purged, err := repo.DeleteFinishedBefore(now - 3600)
	if err != nil {
		t.Fatalf("Purge failed: %v", err)
	}
	if purged != 1 {
		t.Errorf("Expected 1 purged row, got %d", purged)
	}

	// Pending rows survive regardless of age.
	survivor, _ := repo.GetByID(pending.ID)
	if survivor == nil {
		t.Error("Pending delivery must not be purged")
	}
}
