package crm

import (
	"time"

	"github.com/goliatone/go-crm/internal/di"
	crmhttp "github.com/goliatone/go-crm/internal/http"
	"github.com/goliatone/go-crm/internal/importer"
	"github.com/goliatone/go-crm/internal/leads"
	"github.com/goliatone/go-crm/internal/reconciliation"
	"github.com/goliatone/go-crm/internal/stores"
	"github.com/goliatone/go-crm/pkg/interfaces"
	"github.com/goliatone/go-crm/search"
	"github.com/uptrace/bun"
)

// LeadService exports the lead pipeline contract for consumers of the crm package.
type LeadService = leads.Service

// StoreService exports the store and staffing contract.
type StoreService = stores.Service

// ReconciliationService exports the hour reconciliation contract.
type ReconciliationService = reconciliation.Service

// Mailer exports the outbound mail contract used for proposal delivery.
type Mailer = leads.Mailer

// MailerFunc adapts a function to the Mailer interface.
type MailerFunc = leads.MailerFunc

// AdminAPI exports the admin HTTP surface type.
type AdminAPI = crmhttp.AdminAPI

// Option exports the DI container option type so hosts outside the module
// can customise construction.
type Option = di.Option

// WithDB wires a bun database handle, switching every repository to its
// persistent implementation.
func WithDB(db *bun.DB) Option {
	return di.WithBunDB(db)
}

// WithLogger wires a logger provider for every module-scoped logger.
func WithLogger(provider interfaces.LoggerProvider) Option {
	return di.WithLoggerProvider(provider)
}

// WithMailer wires the outbound mailer used for proposal delivery.
func WithMailer(mailer Mailer) Option {
	return di.WithMailer(mailer)
}

// WithClock overrides the clock passed to every service.
func WithClock(clock func() time.Time) Option {
	return di.WithClock(clock)
}

// Module represents the top level CRM runtime façade.
type Module struct {
	container *di.Container
}

// New constructs a CRM module using the provided configuration and optional DI overrides.
func New(cfg Config, opts ...Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Leads returns the lead pipeline service, nil when the feature is disabled.
func (m *Module) Leads() LeadService {
	return m.container.LeadService()
}

// Stores returns the store and staffing service.
func (m *Module) Stores() StoreService {
	return m.container.StoreService()
}

// Reconciliation returns the hour reconciliation service, nil when the
// feature is disabled.
func (m *Module) Reconciliation() ReconciliationService {
	return m.container.ReconciliationService()
}

// LeadImporter returns the spreadsheet lead importer, nil when imports are
// disabled.
func (m *Module) LeadImporter() *importer.LeadImporter {
	return m.container.LeadImporter()
}

// RequestImporter returns the customer request importer, nil when imports
// are disabled.
func (m *Module) RequestImporter() *importer.RequestImporter {
	return m.container.RequestImporter()
}

// SearchPatcher returns the widget context patcher.
func (m *Module) SearchPatcher() *search.Patcher {
	return m.container.SearchPatcher()
}

// SearchContextKey returns the parameter name lookup requests are scoped by.
func (m *Module) SearchContextKey() string {
	return m.container.Config.Search.ContextKey
}

// SearchRetryDelays returns the deferred-patch retry schedule.
func (m *Module) SearchRetryDelays() []time.Duration {
	return m.container.Config.Search.RetryDelays
}

// AdminAPI constructs the admin HTTP surface wired to the module services.
// Extra options are applied after the module defaults so hosts can override
// any of them.
func (m *Module) AdminAPI(opts ...crmhttp.AdminOption) *crmhttp.AdminAPI {
	cfg := m.container.Config

	adminOpts := []crmhttp.AdminOption{
		crmhttp.WithBasePath(cfg.Navigation.AdminBasePath),
		crmhttp.WithLeadService(m.container.LeadService()),
		crmhttp.WithStoreService(m.container.StoreService()),
		crmhttp.WithReconciliationService(m.container.ReconciliationService()),
		crmhttp.WithLeadImporter(m.container.LeadImporter()),
		crmhttp.WithRequestImporter(m.container.RequestImporter()),
		crmhttp.WithLogger(m.container.HTTPLogger()),
		crmhttp.WithKPStaleWindow(cfg.Leads.KPStaleAfter),
		crmhttp.WithSourceSuggestions(cfg.Leads.Sources),
	}
	if manager := m.container.RouteManager(); manager != nil {
		adminOpts = append(adminOpts, crmhttp.WithRouteManager(manager))
	}
	adminOpts = append(adminOpts, opts...)

	return crmhttp.NewAdminAPI(adminOpts...)
}
