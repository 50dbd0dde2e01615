package http

import (
	"net/http"
	"time"

	"github.com/goliatone/go-crm/internal/stores"
	"github.com/google/uuid"
)

type storeCreatePayload struct {
	City       string `json:"city"`
	Address    string `json:"address"`
	AddressRaw string `json:"address_raw,omitempty"`
}

type employeeCreatePayload struct {
	FullName      string            `json:"full_name"`
	Email         string            `json:"email"`
	Positions     []stores.Position `json:"positions,omitempty"`
	CardNumber    string            `json:"card_number,omitempty"`
	AccountNumber string            `json:"account_number,omitempty"`
	BIK           string            `json:"bik,omitempty"`
	BankName      string            `json:"bank_name,omitempty"`
}

type storeEmployeePayload struct {
	EmployeeID *uuid.UUID `json:"employee_id"`
}

type shiftAssignPayload struct {
	StoreID     uuid.UUID          `json:"store_id"`
	Date        time.Time          `json:"date"`
	ServiceType stores.ServiceType `json:"service_type"`
	EmployeeID  *uuid.UUID         `json:"employee_id,omitempty"`
	Hours       float64            `json:"hours,omitempty"`
	Comment     string             `json:"comment,omitempty"`
}

func (api *AdminAPI) registerStoreRoutes(mux *http.ServeMux, base string) {
	if mux == nil {
		return
	}
	root := joinPath(base, "stores")
	mux.HandleFunc("GET "+root, api.handleStoreList)
	mux.HandleFunc("POST "+root, api.handleStoreCreate)
	mux.HandleFunc("GET "+root+"/{id}/shifts", api.handleShiftList)
	mux.HandleFunc("PUT "+root+"/{id}/employee", api.handleStoreEmployeeAssign)
	mux.HandleFunc("POST "+joinPath(base, "employees"), api.handleEmployeeCreate)
	mux.HandleFunc("POST "+joinPath(base, "shifts"), api.handleShiftAssign)
	mux.HandleFunc("POST "+joinPath(base, "requests/import"), api.handleRequestImport)
}

func (api *AdminAPI) handleStoreList(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.stores == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}

	records, err := api.stores.ListStores(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (api *AdminAPI) handleStoreCreate(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.stores == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}

	var payload storeCreatePayload
	if err := decodeJSON(r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
		return
	}

	record, err := api.stores.CreateStore(r.Context(), stores.CreateStoreInput{
		City:       payload.City,
		Address:    payload.Address,
		AddressRaw: payload.AddressRaw,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

func (api *AdminAPI) handleEmployeeCreate(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.stores == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}

	var payload employeeCreatePayload
	if err := decodeJSON(r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
		return
	}

	record, err := api.stores.CreateEmployee(r.Context(), stores.CreateEmployeeInput{
		FullName:      payload.FullName,
		Email:         payload.Email,
		Positions:     payload.Positions,
		CardNumber:    payload.CardNumber,
		AccountNumber: payload.AccountNumber,
		BIK:           payload.BIK,
		BankName:      payload.BankName,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

// handleStoreEmployeeAssign sets or clears the employee responsible for a
// store, the value the scoped employee search narrows by.
func (api *AdminAPI) handleStoreEmployeeAssign(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.stores == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}

	storeID, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid id"})
		return
	}

	var payload storeEmployeePayload
	if err := decodeJSON(r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
		return
	}

	record, err := api.stores.AssignStoreEmployee(r.Context(), storeID, payload.EmployeeID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (api *AdminAPI) handleShiftList(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.stores == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}

	storeID, err := parseUUID(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid id"})
		return
	}

	records, err := api.stores.ListShifts(r.Context(), storeID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (api *AdminAPI) handleShiftAssign(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.stores == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}

	var payload shiftAssignPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: err.Error()})
		return
	}
	if payload.StoreID == uuid.Nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "store_id required"})
		return
	}

	record, err := api.stores.AssignShift(r.Context(), stores.AssignShiftInput{
		StoreID:     payload.StoreID,
		Date:        payload.Date,
		ServiceType: payload.ServiceType,
		EmployeeID:  payload.EmployeeID,
		Hours:       payload.Hours,
		Comment:     payload.Comment,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// handleRequestImport replaces the requested hours for one service type from
// an uploaded customer spreadsheet.
func (api *AdminAPI) handleRequestImport(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.requestImporter == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}

	serviceType := stores.ServiceType(r.URL.Query().Get("service_type"))
	if !serviceType.Valid() {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "validation_failed", Message: "service_type must be merch or cleaning"})
		return
	}

	file, _, err := r.FormFile(importFileField)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "file upload required"})
		return
	}
	defer file.Close()

	report, err := api.requestImporter.ImportXLSX(r.Context(), file, serviceType)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
