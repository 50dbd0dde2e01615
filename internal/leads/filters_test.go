package leads

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestBuildListOptions(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	managerID := uuid.New()

	opts := BuildListOptions(FilterQuery{
		Status:     "new",
		Source:     "hh",
		City:       "Kazan",
		ManagerID:  managerID.String(),
		ReadyKP:    "1",
		EmailState: "with",
		NoPhone:    "1",
		AvitoToday: "today",
		KPNoReply:  "3days",
		Reminders:  "overdue",
	}, now)

	if opts.Status != StatusNew {
		t.Fatalf("Status = %q, want %q", opts.Status, StatusNew)
	}
	if opts.Source != "hh" || opts.City != "Kazan" {
		t.Fatalf("Source/City = %q/%q", opts.Source, opts.City)
	}
	if opts.ManagerID == nil || *opts.ManagerID != managerID {
		t.Fatalf("ManagerID = %v, want %s", opts.ManagerID, managerID)
	}
	if !opts.ReadyForKP || opts.Email != EmailWith || !opts.NoPhone {
		t.Fatalf("flag dimensions = %+v", opts)
	}
	if opts.SourceToday != SourceAvito {
		t.Fatalf("SourceToday = %q, want %q", opts.SourceToday, SourceAvito)
	}
	wantBorder := now.Add(-3 * 24 * time.Hour)
	if opts.KPSentBefore == nil || !opts.KPSentBefore.Equal(wantBorder) {
		t.Fatalf("KPSentBefore = %v, want %v", opts.KPSentBefore, wantBorder)
	}
	if opts.Reminders != ReminderOverdue {
		t.Fatalf("Reminders = %q, want %q", opts.Reminders, ReminderOverdue)
	}
	if !opts.Now.Equal(now) {
		t.Fatalf("Now = %v, want %v", opts.Now, now)
	}
}

func TestBuildListOptionsIgnoresMalformedValues(t *testing.T) {
	opts := BuildListOptions(FilterQuery{
		Status:     "bogus",
		ManagerID:  "not-a-uuid",
		ReadyKP:    "yes",
		EmailState: "maybe",
		Reminders:  "tomorrow",
	}, time.Now())

	if opts.Status != "" || opts.ManagerID != nil || opts.ReadyForKP {
		t.Fatalf("malformed values leaked: %+v", opts)
	}
	if opts.Email != EmailAny || opts.Reminders != ReminderAny {
		t.Fatalf("malformed enum values leaked: %+v", opts)
	}
}

func TestFilterDefinitionsCoverParameters(t *testing.T) {
	want := map[string]bool{
		"status":         false,
		"ready_kp":       false,
		"email_state":    false,
		"no_phone":       false,
		"avito_today":    false,
		"kp_no_reply":    false,
		"lead_reminders": false,
	}
	for _, def := range FilterDefinitions() {
		if _, ok := want[def.Parameter]; !ok {
			t.Fatalf("unexpected filter parameter %q", def.Parameter)
		}
		want[def.Parameter] = true
		if def.Title == "" || len(def.Options) == 0 {
			t.Fatalf("filter %q missing title or options", def.Parameter)
		}
	}
	for parameter, seen := range want {
		if !seen {
			t.Fatalf("filter %q not defined", parameter)
		}
	}
}

func TestMemoryLeadListHonorsFilterSelection(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	notes := NewMemoryNoteRepository()
	repo := NewMemoryLeadRepository(notes)
	ctx := context.Background()

	ready, err := repo.Create(ctx, &SalesLead{
		AdURL: "https://hh.ru/vacancy/1", Source: "hh", Email: "a@example.com", Status: StatusNew,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := repo.Create(ctx, &SalesLead{
		AdURL: "https://hh.ru/vacancy/2", Source: "hh", Status: StatusNew,
	}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	stale, err := repo.Create(ctx, &SalesLead{
		AdURL: "https://avito.ru/ad/3", Source: "Avito", Email: "b@example.com", Status: StatusKPSent,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	sentAt := now.Add(-4 * 24 * time.Hour)
	stale.KPSentAt = &sentAt
	if _, err := repo.Update(ctx, stale); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	remindAt := now.Add(-time.Hour)
	if _, err := notes.Create(ctx, &LeadNote{LeadID: ready.ID, Title: "call", RemindAt: &remindAt}); err != nil {
		t.Fatalf("notes.Create() error = %v", err)
	}

	got, err := repo.List(ctx, BuildListOptions(FilterQuery{ReadyKP: "1"}, now))
	if err != nil {
		t.Fatalf("List(ready_kp) error = %v", err)
	}
	if len(got) != 1 || got[0].ID != ready.ID {
		t.Fatalf("List(ready_kp) = %d leads, want the ready one", len(got))
	}

	got, err = repo.List(ctx, BuildListOptions(FilterQuery{KPNoReply: "3days"}, now))
	if err != nil {
		t.Fatalf("List(kp_no_reply) error = %v", err)
	}
	if len(got) != 1 || got[0].ID != stale.ID {
		t.Fatalf("List(kp_no_reply) = %d leads, want the stale one", len(got))
	}

	got, err = repo.List(ctx, BuildListOptions(FilterQuery{Reminders: "overdue"}, now))
	if err != nil {
		t.Fatalf("List(lead_reminders) error = %v", err)
	}
	if len(got) != 1 || got[0].ID != ready.ID {
		t.Fatalf("List(lead_reminders) = %d leads, want the reminded one", len(got))
	}
}
