package http

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-crm/internal/importer"
	"github.com/goliatone/go-crm/internal/leads"
	"github.com/google/uuid"
)

const importFileField = "file"

type leadCreatePayload struct {
	CompanyName string   `json:"company_name"`
	Source      string   `json:"source"`
	AdURL       string   `json:"ad_url"`
	City        string   `json:"city,omitempty"`
	Email       string   `json:"email,omitempty"`
	Phone       string   `json:"phone,omitempty"`
	Vacancy     string   `json:"vacancy,omitempty"`
	WorkTypes   []string `json:"work_types,omitempty"`
	StaffCount  *int     `json:"staff_count,omitempty"`
	Comment     string   `json:"comment,omitempty"`
}

type leadStatusPayload struct {
	Status leads.Status `json:"status"`
}

type sendKPPayload struct {
	LeadIDs []uuid.UUID `json:"lead_ids"`
}

type notePayload struct {
	Title    string     `json:"title"`
	Text     string     `json:"text,omitempty"`
	DueAt    *time.Time `json:"due_at,omitempty"`
	RemindAt *time.Time `json:"remind_at,omitempty"`
	AuthorID *uuid.UUID `json:"author_id,omitempty"`
}

// leadRow decorates a lead with its admin change-form link so list consumers
// can wire row-level navigation.
type leadRow struct {
	*leads.SalesLead
	EditURL string `json:"edit_url,omitempty"`
}

func (api *AdminAPI) registerLeadRoutes(mux *http.ServeMux, base string) {
	if mux == nil {
		return
	}
	root := joinPath(base, "leads")
	mux.HandleFunc("GET "+root, api.handleLeadList)
	mux.HandleFunc("POST "+root, api.handleLeadCreate)
	mux.HandleFunc("GET "+root+"/filters", api.handleLeadFilters)
	mux.HandleFunc("GET "+root+"/suggestions", api.handleLeadSuggestions)
	mux.HandleFunc("POST "+root+"/import", api.handleLeadImport)
	mux.HandleFunc("POST "+root+"/send-kp", api.handleLeadSendKP)
	mux.HandleFunc("POST "+root+"/fill-vacancies", api.handleLeadFillVacancies)
	mux.HandleFunc("GET "+root+"/{id}", api.handleLeadGet)
	mux.HandleFunc("PUT "+root+"/{id}/status", api.handleLeadStatus)
	mux.HandleFunc("POST "+root+"/{id}/notes", api.handleLeadNoteCreate)
	mux.HandleFunc("POST "+joinPath(base, "notes")+"/{id}/complete", api.handleNoteComplete)
}

func (api *AdminAPI) handleLeadList(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.leads == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}

	query := r.URL.Query()
	filters := leads.FilterQuery{
		Status:     query.Get("status"),
		Source:     query.Get("source"),
		City:       query.Get("city"),
		ManagerID:  query.Get("manager"),
		ReadyKP:    query.Get("ready_kp"),
		EmailState: query.Get("email_state"),
		NoPhone:    query.Get("no_phone"),
		AvitoToday: query.Get("avito_today"),
		KPNoReply:  query.Get("kp_no_reply"),
		Reminders:  query.Get("lead_reminders"),
	}

	records, err := api.leads.ListLeads(r.Context(), leads.BuildListOptionsWithWindow(filters, time.Now(), api.kpStaleAfter))
	if err != nil {
		writeError(w, err)
		return
	}

	rows := make([]leadRow, 0, len(records))
	for _, record := range records {
		rows = append(rows, leadRow{
			SalesLead: record,
			EditURL:   api.editLink(record.ID.String()),
		})
	}
	writeJSON(w, http.StatusOK, rows)
}

func (api *AdminAPI) handleLeadCreate(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.leads == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}

	var payload leadCreatePayload
	if err := decodeJSON(r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
		return
	}

	record, err := api.leads.CreateLead(r.Context(), leads.CreateLeadInput{
		CompanyName: payload.CompanyName,
		Source:      payload.Source,
		AdURL:       payload.AdURL,
		City:        payload.City,
		Email:       payload.Email,
		Phone:       payload.Phone,
		Vacancy:     payload.Vacancy,
		WorkTypes:   payload.WorkTypes,
		StaffCount:  payload.StaffCount,
		Comment:     payload.Comment,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

func (api *AdminAPI) handleLeadGet(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.leads == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}

	id, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid id"})
		return
	}
	record, err := api.leads.GetLead(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (api *AdminAPI) handleLeadStatus(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.leads == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}

	id, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid id"})
		return
	}

	var payload leadStatusPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
		return
	}

	record, err := api.leads.UpdateStatus(r.Context(), id, payload.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (api *AdminAPI) handleLeadFilters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, leads.FilterDefinitions())
}

func (api *AdminAPI) handleLeadSuggestions(w http.ResponseWriter, r *http.Request) {
	suggestions := api.sources
	if len(suggestions) == 0 {
		suggestions = leads.SourceSuggestions()
	}
	writeJSON(w, http.StatusOK, suggestions)
}

func (api *AdminAPI) handleLeadImport(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.leadImporter == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}

	file, header, err := r.FormFile(importFileField)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "file upload required"})
		return
	}
	defer file.Close()

	var report importer.LeadReport
	if strings.EqualFold(fileExt(header.Filename), ".csv") {
		records, err := importer.ReadCSV(file)
		if err != nil {
			writeError(w, err)
			return
		}
		report, err = api.leadImporter.ImportCSV(r.Context(), records)
		if err != nil {
			writeError(w, err)
			return
		}
	} else {
		report, err = api.leadImporter.ImportXLSX(r.Context(), file)
		if err != nil {
			writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, report)
}

func (api *AdminAPI) handleLeadSendKP(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.leads == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}

	var payload sendKPPayload
	if err := decodeJSON(r, &payload); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
		return
	}
	if len(payload.LeadIDs) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "lead_ids required"})
		return
	}

	report, err := api.leads.SendKP(r.Context(), payload.LeadIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (api *AdminAPI) handleLeadFillVacancies(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.leads == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}

	updated, err := api.leads.FillVacancies(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"updated": updated})
}

func (api *AdminAPI) handleLeadNoteCreate(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.leads == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}

	leadID, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid id"})
		return
	}

	var payload notePayload
	if err := decodeJSON(r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
		return
	}

	note, err := api.leads.AddNote(r.Context(), leads.AddNoteInput{
		LeadID:   leadID,
		Title:    payload.Title,
		Text:     payload.Text,
		DueAt:    payload.DueAt,
		RemindAt: payload.RemindAt,
		AuthorID: payload.AuthorID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

func (api *AdminAPI) handleNoteComplete(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.leads == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}

	noteID, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid id"})
		return
	}

	note, err := api.leads.CompleteNote(r.Context(), noteID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func fileExt(name string) string {
	if pos := strings.LastIndex(name, "."); pos >= 0 {
		return name[pos:]
	}
	return ""
}
