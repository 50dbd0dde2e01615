package http

import (
	"net/http"

	"github.com/goliatone/go-crm/internal/reconciliation"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (api *AdminAPI) registerReconciliationRoutes(mux *http.ServeMux, base string) {
	if mux == nil {
		return
	}
	root := joinPath(base, "reconciliations")
	mux.HandleFunc("GET "+root, api.handleReconciliationList)
	mux.HandleFunc("POST "+root, api.handleReconciliationRun)
	mux.HandleFunc("GET "+root+"/{id}", api.handleReconciliationGet)
	mux.HandleFunc("GET "+root+"/{id}/report", api.handleReconciliationReport)
}

func (api *AdminAPI) handleReconciliationList(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.reconciliations == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}

	records, err := api.reconciliations.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// handleReconciliationRun accepts both files as one multipart upload under
// the "customer_file" and "database_file" fields.
func (api *AdminAPI) handleReconciliationRun(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.reconciliations == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}

	customerFile, customerHeader, err := r.FormFile("customer_file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "customer_file upload required"})
		return
	}
	defer customerFile.Close()

	databaseFile, databaseHeader, err := r.FormFile("database_file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "database_file upload required"})
		return
	}
	defer databaseFile.Close()

	record, err := api.reconciliations.Run(r.Context(), reconciliation.RunInput{
		CustomerFileName: customerHeader.Filename,
		CustomerFile:     customerFile,
		DatabaseFileName: databaseHeader.Filename,
		DatabaseFile:     databaseFile,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

func (api *AdminAPI) handleReconciliationGet(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.reconciliations == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}

	id, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid id"})
		return
	}

	record, err := api.reconciliations.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (api *AdminAPI) handleReconciliationReport(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.reconciliations == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}

	id, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid id"})
		return
	}

	record, err := api.reconciliations.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if record.Status != reconciliation.StatusDone || len(record.Report) == 0 {
		writeJSON(w, http.StatusConflict, errorResponse{Error: "conflict", Message: "report is not ready"})
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="reconciliation_report.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(record.Report)
}
