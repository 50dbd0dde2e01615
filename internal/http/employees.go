package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/goliatone/go-crm/internal/stores"
)

type employeeSearchResult struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type employeeSearchResponse struct {
	Results []employeeSearchResult `json:"results"`
}

func (api *AdminAPI) registerEmployeeRoutes(mux *http.ServeMux, base string) {
	if mux == nil {
		return
	}
	mux.HandleFunc("GET "+joinPath(base, "employees/search"), api.handleEmployeeSearch)
}

// handleEmployeeSearch serves the staffing autocomplete. An absent store_id
// key means an unscoped search; a present key must carry a valid store id.
func (api *AdminAPI) handleEmployeeSearch(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.stores == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}

	query := r.URL.Query()
	search := stores.SearchQuery{
		Term: strings.TrimSpace(query.Get("term")),
	}

	if query.Has("store_id") {
		storeID, err := parseUUID(query.Get("store_id"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid store_id"})
			return
		}
		search.StoreID = &storeID
	}

	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			search.Limit = limit
		}
	}

	employees, err := api.stores.SearchEmployees(r.Context(), search)
	if err != nil {
		writeError(w, err)
		return
	}

	response := employeeSearchResponse{Results: make([]employeeSearchResult, 0, len(employees))}
	for _, employee := range employees {
		response.Results = append(response.Results, employeeSearchResult{
			ID:   employee.ID.String(),
			Text: employee.FullName,
		})
	}
	writeJSON(w, http.StatusOK, response)
}
