// Package http provides optional HTTP adapters for the CRM admin APIs.
//
// Routes mount under /admin/api:
//   - Employees: /employees/search
//   - Leads: /leads, /leads/{id}, /leads/filters, /leads/suggestions,
//     /leads/import, /leads/send-kp, /leads/fill-vacancies
//   - Stores and staffing: /stores, /stores/{id}/shifts, /shifts
//   - Reconciliation: /reconciliations, /reconciliations/{id},
//     /reconciliations/{id}/report
//
// Host applications can register handlers on their own mux/router as needed.
package http
