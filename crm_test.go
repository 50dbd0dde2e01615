package crm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	crm "github.com/goliatone/go-crm"
	"github.com/goliatone/go-crm/internal/leads"
	"github.com/goliatone/go-crm/search"
)

func newTestModule(t *testing.T) *crm.Module {
	t.Helper()

	cfg := crm.DefaultConfig()
	cfg.Features.Imports = true
	cfg.Features.Reconciliation = true

	module, err := crm.New(cfg,
		crm.WithMailer(crm.MailerFunc(func(context.Context, leads.Message) error { return nil })),
		crm.WithClock(func() time.Time { return time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC) }),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return module
}

func TestModuleMemoryLifecycle(t *testing.T) {
	module := newTestModule(t)
	ctx := context.Background()

	lead, err := module.Leads().CreateLead(ctx, leads.CreateLeadInput{
		CompanyName: "Монетка",
		Source:      "Avito",
		AdURL:       "https://avito.ru/vacancy/77",
		City:        "Тюмень",
		Email:       "hr@monetka.ru",
	})
	if err != nil {
		t.Fatalf("CreateLead() error = %v", err)
	}

	updated, err := module.Leads().UpdateStatus(ctx, lead.ID, leads.StatusNegotiation)
	if err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}
	if updated.Status != leads.StatusNegotiation {
		t.Fatalf("Status = %q, want %q", updated.Status, leads.StatusNegotiation)
	}

	if module.Stores() == nil {
		t.Fatal("Stores() = nil")
	}
	if module.Reconciliation() == nil {
		t.Fatal("Reconciliation() = nil")
	}
	if module.LeadImporter() == nil || module.RequestImporter() == nil {
		t.Fatal("importers not wired")
	}
}

func TestModuleAdminAPIRoutes(t *testing.T) {
	module := newTestModule(t)

	mux := http.NewServeMux()
	if err := module.AdminAPI().Register(mux); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	res := httptest.NewRecorder()
	mux.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/admin/api/leads/filters", nil))
	if res.Code != http.StatusOK {
		t.Fatalf("GET /admin/api/leads/filters status = %d, want %d", res.Code, http.StatusOK)
	}

	var definitions []leads.FilterDefinition
	if err := json.Unmarshal(res.Body.Bytes(), &definitions); err != nil {
		t.Fatalf("decode filters: %v", err)
	}
	if len(definitions) == 0 {
		t.Fatal("filters response is empty")
	}

	res = httptest.NewRecorder()
	mux.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/admin/api/employees/search?term=no-such-person", nil))
	if res.Code != http.StatusOK {
		t.Fatalf("GET /admin/api/employees/search status = %d, want %d", res.Code, http.StatusOK)
	}
}

func TestModuleAdminAPIUsesConfiguredSources(t *testing.T) {
	cfg := crm.DefaultConfig()
	cfg.Leads.Sources = []string{"HH.ru", "Партнёры"}

	module, err := crm.New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	mux := http.NewServeMux()
	if err := module.AdminAPI().Register(mux); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	res := httptest.NewRecorder()
	mux.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/admin/api/leads/suggestions", nil))
	if res.Code != http.StatusOK {
		t.Fatalf("GET suggestions status = %d", res.Code)
	}

	var suggestions []string
	if err := json.Unmarshal(res.Body.Bytes(), &suggestions); err != nil {
		t.Fatalf("decode suggestions: %v", err)
	}
	if len(suggestions) != 2 || suggestions[1] != "Партнёры" {
		t.Fatalf("suggestions = %v, want configured list", suggestions)
	}
}

func TestModuleSearchScoping(t *testing.T) {
	module := newTestModule(t)

	widget := search.NewWidget("store", &search.Config{
		Source: &search.SourceConfig{URL: "/admin/api/employees/search"},
	})

	if !module.SearchPatcher().Apply(widget, module.SearchContextKey(), search.Static("123")) {
		t.Fatal("Apply() = false, want widget patched")
	}

	got := widget.BuildParams(search.Params{"term": "ann"})
	if got["term"] != "ann" || got["store_id"] != "123" {
		t.Fatalf("BuildParams() = %v, want term and store_id merged", got)
	}

	if delays := module.SearchRetryDelays(); len(delays) == 0 {
		t.Fatal("SearchRetryDelays() is empty")
	}
}
