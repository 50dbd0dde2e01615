package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goliatone/go-crm/internal/importer"
	"github.com/goliatone/go-crm/internal/leads"
	"github.com/goliatone/go-crm/internal/reconciliation"
	"github.com/goliatone/go-crm/internal/stores"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

type testServices struct {
	leadSvc  leads.Service
	storeSvc stores.Service
}

func setupAdminAPI(t *testing.T) (*http.ServeMux, testServices) {
	t.Helper()

	noteRepo := leads.NewMemoryNoteRepository()
	leadSvc := leads.NewService(
		leads.NewMemoryLeadRepository(noteRepo),
		leads.NewMemoryManagerRepository(),
		noteRepo,
		leads.NewMemoryTemplateRepository(),
		leads.NewMemoryStateRepository(),
		leads.WithMailer(leads.MailerFunc(func(context.Context, leads.Message) error { return nil })),
	)

	storeRepo := stores.NewMemoryStoreRepository()
	storeSvc := stores.NewService(
		storeRepo,
		stores.NewMemoryEmployeeRepository(storeRepo),
		stores.NewMemoryShiftRepository(),
	)

	reconciliationSvc := reconciliation.NewService(reconciliation.NewMemoryRepository())

	api := NewAdminAPI(
		WithLeadService(leadSvc),
		WithStoreService(storeSvc),
		WithReconciliationService(reconciliationSvc),
		WithLeadImporter(importer.NewLeadImporter(leadSvc)),
		WithRequestImporter(importer.NewRequestImporter(storeSvc)),
	)
	mux := http.NewServeMux()
	if err := api.Register(mux); err != nil {
		t.Fatalf("register api: %v", err)
	}
	return mux, testServices{leadSvc: leadSvc, storeSvc: storeSvc}
}

func doJSONRequest(t *testing.T, mux *http.ServeMux, method, path string, body any, wantStatus int) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != wantStatus {
		t.Fatalf("expected status %d got %d (%s)", wantStatus, rec.Code, rec.Body.String())
	}
	return rec
}

func decodeJSONBody(t *testing.T, rec *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), target); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestAdminAPI_LeadLifecycle(t *testing.T) {
	mux, _ := setupAdminAPI(t)

	createBody := map[string]any{
		"company_name": "Acme Retail",
		"source":       "avito",
		"ad_url":       "https://avito.ru/vacancy/uborshchik-123",
	}
	createResp := doJSONRequest(t, mux, http.MethodPost, "/admin/api/leads", createBody, http.StatusCreated)

	var created leads.SalesLead
	decodeJSONBody(t, createResp, &created)
	if created.ID == uuid.Nil {
		t.Fatal("expected created lead id")
	}
	if created.Status != leads.StatusNew {
		t.Fatalf("expected status new got %q", created.Status)
	}

	// duplicate advert URLs collide
	doJSONRequest(t, mux, http.MethodPost, "/admin/api/leads", createBody, http.StatusConflict)

	listResp := doJSONRequest(t, mux, http.MethodGet, "/admin/api/leads", nil, http.StatusOK)
	var rows []struct {
		ID      uuid.UUID `json:"id"`
		EditURL string    `json:"edit_url"`
	}
	decodeJSONBody(t, listResp, &rows)
	if len(rows) != 1 {
		t.Fatalf("expected 1 lead got %d", len(rows))
	}
	wantLink := "/admin/api/leads/" + created.ID.String() + "/change/"
	if !strings.HasSuffix(rows[0].EditURL, wantLink) {
		t.Fatalf("edit_url = %q, want suffix %q", rows[0].EditURL, wantLink)
	}

	getPath := "/admin/api/leads/" + created.ID.String()
	getResp := doJSONRequest(t, mux, http.MethodGet, getPath, nil, http.StatusOK)
	var fetched leads.SalesLead
	decodeJSONBody(t, getResp, &fetched)
	if fetched.ID != created.ID {
		t.Fatalf("expected fetched id %s got %s", created.ID, fetched.ID)
	}

	doJSONRequest(t, mux, http.MethodPut, getPath+"/status", map[string]any{"status": "bogus"}, http.StatusUnprocessableEntity)
	statusResp := doJSONRequest(t, mux, http.MethodPut, getPath+"/status", map[string]any{"status": "kp_sent"}, http.StatusOK)
	var updated leads.SalesLead
	decodeJSONBody(t, statusResp, &updated)
	if updated.Status != leads.StatusKPSent {
		t.Fatalf("expected status kp_sent got %q", updated.Status)
	}

	doJSONRequest(t, mux, http.MethodGet, "/admin/api/leads/"+uuid.NewString(), nil, http.StatusNotFound)
}

func TestAdminAPI_LeadCreateValidation(t *testing.T) {
	mux, _ := setupAdminAPI(t)

	doJSONRequest(t, mux, http.MethodPost, "/admin/api/leads",
		map[string]any{"company_name": "No URL"}, http.StatusUnprocessableEntity)
}

func TestAdminAPI_LeadFiltersAndSuggestions(t *testing.T) {
	mux, _ := setupAdminAPI(t)

	filtersResp := doJSONRequest(t, mux, http.MethodGet, "/admin/api/leads/filters", nil, http.StatusOK)
	var filters []leads.FilterDefinition
	decodeJSONBody(t, filtersResp, &filters)
	if len(filters) == 0 {
		t.Fatal("expected filter definitions")
	}
	if filters[0].Parameter != "status" {
		t.Fatalf("first filter parameter = %q, want status", filters[0].Parameter)
	}

	suggestionsResp := doJSONRequest(t, mux, http.MethodGet, "/admin/api/leads/suggestions", nil, http.StatusOK)
	var suggestions []string
	decodeJSONBody(t, suggestionsResp, &suggestions)
	found := false
	for _, suggestion := range suggestions {
		if suggestion == "Avito" {
			found = true
		}
	}
	if !found {
		t.Fatalf("suggestions = %v, want Avito included", suggestions)
	}
}

func TestAdminAPI_LeadListHonoursFilters(t *testing.T) {
	mux, _ := setupAdminAPI(t)

	doJSONRequest(t, mux, http.MethodPost, "/admin/api/leads", map[string]any{
		"company_name": "With Email",
		"source":       "hh",
		"ad_url":       "https://hh.ru/vacancy/1",
		"email":        "sales@example.com",
	}, http.StatusCreated)
	doJSONRequest(t, mux, http.MethodPost, "/admin/api/leads", map[string]any{
		"company_name": "Without Email",
		"source":       "hh",
		"ad_url":       "https://hh.ru/vacancy/2",
	}, http.StatusCreated)

	resp := doJSONRequest(t, mux, http.MethodGet, "/admin/api/leads?ready_kp=1", nil, http.StatusOK)
	var rows []leads.SalesLead
	decodeJSONBody(t, resp, &rows)
	if len(rows) != 1 || rows[0].CompanyName != "With Email" {
		t.Fatalf("ready_kp filter returned %+v", rows)
	}
}

func TestAdminAPI_SendKPRequiresSelection(t *testing.T) {
	mux, _ := setupAdminAPI(t)

	doJSONRequest(t, mux, http.MethodPost, "/admin/api/leads/send-kp",
		map[string]any{"lead_ids": []string{}}, http.StatusBadRequest)
}

func TestAdminAPI_LeadImportXLSX(t *testing.T) {
	mux, _ := setupAdminAPI(t)

	workbook := excelize.NewFile()
	defer workbook.Close()
	sheet := workbook.GetSheetName(0)
	rows := [][]any{
		{"company_name", "source", "ad_url", "city", "email", "work_types", "staff_count", "comment"},
		{"Acme Retail", "avito", "https://avito.ru/vacancy/1", "Тюмень", "sales@acme.ru", "Уборщик", "2", ""},
	}
	for pos, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, pos+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := workbook.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	content, err := workbook.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile(importFileField, "leads.xlsx")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(content.Bytes()); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := form.Close(); err != nil {
		t.Fatalf("close form: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/admin/api/leads/import", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d (%s)", rec.Code, rec.Body.String())
	}

	var report importer.LeadReport
	decodeJSONBody(t, rec, &report)
	if report.Created != 1 {
		t.Fatalf("report = %+v, want 1 created", report)
	}
}

func TestAdminAPI_EmployeeSearch(t *testing.T) {
	mux, _ := setupAdminAPI(t)

	doJSONRequest(t, mux, http.MethodPost, "/admin/api/employees", map[string]any{
		"full_name": "Anna Petrova",
		"email":     "anna@example.com",
	}, http.StatusCreated)
	doJSONRequest(t, mux, http.MethodPost, "/admin/api/employees", map[string]any{
		"full_name": "Boris Ivanov",
		"email":     "boris@example.com",
	}, http.StatusCreated)

	resp := doJSONRequest(t, mux, http.MethodGet, "/admin/api/employees/search?term=ann", nil, http.StatusOK)
	var result employeeSearchResponse
	decodeJSONBody(t, resp, &result)
	if len(result.Results) != 1 || result.Results[0].Text != "Anna Petrova" {
		t.Fatalf("results = %+v, want Anna only", result.Results)
	}

	// a present store_id must parse even when the store has no assignments
	scoped := "/admin/api/employees/search?term=ann&store_id=" + uuid.NewString()
	resp = doJSONRequest(t, mux, http.MethodGet, scoped, nil, http.StatusOK)
	decodeJSONBody(t, resp, &result)
	if len(result.Results) != 1 {
		t.Fatalf("scoped results = %+v", result.Results)
	}

	doJSONRequest(t, mux, http.MethodGet, "/admin/api/employees/search?term=ann&store_id=nope", nil, http.StatusBadRequest)
}

func TestAdminAPI_StoreEmployeeAssignment(t *testing.T) {
	mux, _ := setupAdminAPI(t)

	storeResp := doJSONRequest(t, mux, http.MethodPost, "/admin/api/stores", map[string]any{
		"city":    "Тюмень",
		"address": "ул Ленина 39",
	}, http.StatusCreated)
	var store stores.Store
	decodeJSONBody(t, storeResp, &store)

	employeeResp := doJSONRequest(t, mux, http.MethodPost, "/admin/api/employees", map[string]any{
		"full_name": "Anna Petrova",
		"email":     "anna@example.com",
		"positions": []string{"hall_worker"},
	}, http.StatusCreated)
	var employee stores.Employee
	decodeJSONBody(t, employeeResp, &employee)

	path := "/admin/api/stores/" + store.ID.String() + "/employee"
	assignResp := doJSONRequest(t, mux, http.MethodPut, path, map[string]any{
		"employee_id": employee.ID.String(),
	}, http.StatusOK)
	var updated stores.Store
	decodeJSONBody(t, assignResp, &updated)
	if updated.AssignedEmployeeID == nil || *updated.AssignedEmployeeID != employee.ID {
		t.Fatalf("assigned employee = %v, want %s", updated.AssignedEmployeeID, employee.ID)
	}

	// the assignment now narrows the scoped autocomplete
	scoped := "/admin/api/employees/search?term=ann&store_id=" + store.ID.String()
	resp := doJSONRequest(t, mux, http.MethodGet, scoped, nil, http.StatusOK)
	var result employeeSearchResponse
	decodeJSONBody(t, resp, &result)
	if len(result.Results) != 1 || result.Results[0].ID != employee.ID.String() {
		t.Fatalf("scoped results = %+v, want assigned employee only", result.Results)
	}

	clearResp := doJSONRequest(t, mux, http.MethodPut, path, map[string]any{}, http.StatusOK)
	updated = stores.Store{}
	decodeJSONBody(t, clearResp, &updated)
	if updated.AssignedEmployeeID != nil {
		t.Fatalf("assigned employee = %v after clearing, want nil", updated.AssignedEmployeeID)
	}

	doJSONRequest(t, mux, http.MethodPut, "/admin/api/stores/"+uuid.NewString()+"/employee", map[string]any{
		"employee_id": employee.ID.String(),
	}, http.StatusNotFound)
}

func TestAdminAPI_ShiftAssignment(t *testing.T) {
	mux, _ := setupAdminAPI(t)

	storeResp := doJSONRequest(t, mux, http.MethodPost, "/admin/api/stores", map[string]any{
		"city":    "Тюмень",
		"address": "ул Ленина 39",
	}, http.StatusCreated)
	var store stores.Store
	decodeJSONBody(t, storeResp, &store)

	doJSONRequest(t, mux, http.MethodPost, "/admin/api/shifts", map[string]any{
		"store_id":     store.ID.String(),
		"date":         "2025-03-10T00:00:00Z",
		"service_type": "delivery",
	}, http.StatusUnprocessableEntity)

	assignResp := doJSONRequest(t, mux, http.MethodPost, "/admin/api/shifts", map[string]any{
		"store_id":     store.ID.String(),
		"date":         "2025-03-10T00:00:00Z",
		"service_type": "merch",
		"hours":        4,
	}, http.StatusOK)
	var shift stores.StoreShift
	decodeJSONBody(t, assignResp, &shift)
	if shift.StoreID != store.ID {
		t.Fatalf("shift store = %s, want %s", shift.StoreID, store.ID)
	}

	listResp := doJSONRequest(t, mux, http.MethodGet, "/admin/api/stores/"+store.ID.String()+"/shifts", nil, http.StatusOK)
	var shifts []stores.StoreShift
	decodeJSONBody(t, listResp, &shifts)
	if len(shifts) != 1 {
		t.Fatalf("expected 1 shift got %d", len(shifts))
	}
}

func TestAdminAPI_ReconciliationNotFound(t *testing.T) {
	mux, _ := setupAdminAPI(t)

	doJSONRequest(t, mux, http.MethodGet, "/admin/api/reconciliations/"+uuid.NewString(), nil, http.StatusNotFound)

	listResp := doJSONRequest(t, mux, http.MethodGet, "/admin/api/reconciliations", nil, http.StatusOK)
	var runs []reconciliation.Reconciliation
	decodeJSONBody(t, listResp, &runs)
	if len(runs) != 0 {
		t.Fatalf("expected no runs got %d", len(runs))
	}
}
