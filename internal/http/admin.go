package http

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-crm/internal/importer"
	"github.com/goliatone/go-crm/internal/leads"
	"github.com/goliatone/go-crm/internal/logging"
	"github.com/goliatone/go-crm/internal/reconciliation"
	"github.com/goliatone/go-crm/internal/stores"
	"github.com/goliatone/go-crm/pkg/interfaces"
	urlkit "github.com/goliatone/go-urlkit"
)

const (
	adminRouteGroup = "admin"
	leadChangeRoute = "lead_change"
)

// AdminAPI registers admin endpoints for leads, staffing, and reconciliation.
type AdminAPI struct {
	basePath        string
	leads           leads.Service
	stores          stores.Service
	reconciliations reconciliation.Service
	leadImporter    *importer.LeadImporter
	requestImporter *importer.RequestImporter
	routes          *urlkit.RouteManager
	logger          interfaces.Logger
	kpStaleAfter    time.Duration
	sources         []string
}

// AdminOption mutates the AdminAPI configuration.
type AdminOption func(*AdminAPI)

// NewAdminAPI constructs an AdminAPI instance.
func NewAdminAPI(opts ...AdminOption) *AdminAPI {
	api := &AdminAPI{
		basePath:     "/admin/api",
		logger:       logging.NoOp(),
		kpStaleAfter: leads.DefaultKPStaleAfter,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(api)
		}
	}
	if api.routes == nil {
		api.routes = defaultRouteManager(api.basePath)
	}
	return api
}

// WithBasePath overrides the base API path (defaults to "/admin/api").
func WithBasePath(path string) AdminOption {
	return func(api *AdminAPI) {
		if api == nil {
			return
		}
		if trimmed := strings.TrimSpace(path); trimmed != "" {
			api.basePath = trimmed
		}
	}
}

// WithLeadService wires the lead pipeline service.
func WithLeadService(service leads.Service) AdminOption {
	return func(api *AdminAPI) {
		if api != nil {
			api.leads = service
		}
	}
}

// WithStoreService wires the store and staffing service.
func WithStoreService(service stores.Service) AdminOption {
	return func(api *AdminAPI) {
		if api != nil {
			api.stores = service
		}
	}
}

// WithReconciliationService wires the reconciliation service.
func WithReconciliationService(service reconciliation.Service) AdminOption {
	return func(api *AdminAPI) {
		if api != nil {
			api.reconciliations = service
		}
	}
}

// WithLeadImporter wires the spreadsheet lead importer.
func WithLeadImporter(leadImporter *importer.LeadImporter) AdminOption {
	return func(api *AdminAPI) {
		if api != nil {
			api.leadImporter = leadImporter
		}
	}
}

// WithRequestImporter wires the customer request importer.
func WithRequestImporter(requestImporter *importer.RequestImporter) AdminOption {
	return func(api *AdminAPI) {
		if api != nil {
			api.requestImporter = requestImporter
		}
	}
}

// WithKPStaleWindow overrides how long a sent proposal may sit unanswered
// before the follow-up filter surfaces the lead.
func WithKPStaleWindow(window time.Duration) AdminOption {
	return func(api *AdminAPI) {
		if api != nil && window > 0 {
			api.kpStaleAfter = window
		}
	}
}

// WithSourceSuggestions overrides the lead source suggestion list.
func WithSourceSuggestions(sources []string) AdminOption {
	return func(api *AdminAPI) {
		if api != nil && len(sources) > 0 {
			api.sources = sources
		}
	}
}

// WithRouteManager overrides the go-urlkit manager used for row edit links.
// The manager must expose an "admin" group with a "lead_change" route.
func WithRouteManager(manager *urlkit.RouteManager) AdminOption {
	return func(api *AdminAPI) {
		if api != nil && manager != nil {
			api.routes = manager
		}
	}
}

// WithLogger wires the module logger.
func WithLogger(logger interfaces.Logger) AdminOption {
	return func(api *AdminAPI) {
		if api != nil && logger != nil {
			api.logger = logger
		}
	}
}

// Register attaches the admin endpoints to the provided mux.
func (api *AdminAPI) Register(mux *http.ServeMux) error {
	if mux == nil {
		return fmt.Errorf("http: mux is required")
	}
	if api == nil {
		return fmt.Errorf("http: admin api is nil")
	}

	base := joinPath(api.basePath, "")

	api.registerEmployeeRoutes(mux, base)
	api.registerLeadRoutes(mux, base)
	api.registerStoreRoutes(mux, base)
	api.registerReconciliationRoutes(mux, base)

	return nil
}

func defaultRouteManager(basePath string) *urlkit.RouteManager {
	return urlkit.NewRouteManager(&urlkit.Config{
		Groups: []urlkit.GroupConfig{
			{
				Name: adminRouteGroup,
				Path: joinPath(basePath, ""),
				Paths: map[string]string{
					leadChangeRoute: "/leads/:id/change/",
				},
			},
		},
	})
}

// editLink builds the admin change-form path for one lead row. Link failures
// only cost the row its shortcut, never the listing.
func (api *AdminAPI) editLink(id string) string {
	url, err := buildRoute(api.routes, adminRouteGroup, leadChangeRoute, map[string]any{"id": id})
	if err != nil {
		api.logger.Debug("http: edit link unavailable", "lead_id", id, "error", err)
		return ""
	}
	return url
}

func buildRoute(manager *urlkit.RouteManager, group, route string, params map[string]any) (url string, err error) {
	if manager == nil {
		return "", fmt.Errorf("http: route manager not configured")
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("http: route %s.%s: %v", group, route, rec)
		}
	}()

	builder := manager.Group(group).Builder(route)
	for key, value := range params {
		builder.WithParam(key, value)
	}
	return builder.Build()
}
