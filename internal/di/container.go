package di

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-crm/internal/commands"
	leadscmd "github.com/goliatone/go-crm/internal/commands/leads"
	reconciliationcmd "github.com/goliatone/go-crm/internal/commands/reconciliation"
	storescmd "github.com/goliatone/go-crm/internal/commands/stores"
	"github.com/goliatone/go-crm/internal/importer"
	"github.com/goliatone/go-crm/internal/leads"
	"github.com/goliatone/go-crm/internal/logging"
	"github.com/goliatone/go-crm/internal/logging/gologger"
	"github.com/goliatone/go-crm/internal/reconciliation"
	"github.com/goliatone/go-crm/internal/runtimeconfig"
	"github.com/goliatone/go-crm/internal/stores"
	"github.com/goliatone/go-crm/pkg/interfaces"
	"github.com/goliatone/go-crm/search"
	repocache "github.com/goliatone/go-repository-cache/cache"
	urlkit "github.com/goliatone/go-urlkit"
	"github.com/uptrace/bun"
)

// Container wires module dependencies. Memory-backed repositories are the
// default; WithBunDB swaps in the persistent ones.
type Container struct {
	Config runtimeconfig.Config

	bunDB          *bun.DB
	cacheTTL       time.Duration
	cacheService   repocache.CacheService
	keySerializer  repocache.KeySerializer
	loggerProvider interfaces.LoggerProvider

	mailer leads.Mailer
	clock  func() time.Time

	leadRepo     leads.LeadRepository
	managerRepo  leads.ManagerRepository
	noteRepo     leads.NoteRepository
	templateRepo leads.TemplateRepository
	stateRepo    leads.StateRepository

	storeRepo    stores.StoreRepository
	employeeRepo stores.EmployeeRepository
	shiftRepo    stores.ShiftRepository

	reconciliationRepo reconciliation.Repository

	routeManager *urlkit.RouteManager

	leadSvc  leads.Service
	storeSvc stores.Service
	reconSvc reconciliation.Service

	leadImporter    *importer.LeadImporter
	requestImporter *importer.RequestImporter

	searchPatcher *search.Patcher

	importLeadsHandler    *leadscmd.ImportLeadsHandler
	sendKPHandler         *leadscmd.SendKPHandler
	fillVacanciesHandler  *leadscmd.FillVacanciesHandler
	importRequestsHandler *storescmd.ImportRequestsHandler
	runReconHandler       *reconciliationcmd.RunHandler
	unsubscribes          []func()
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithBunDB wires a bun database handle, switching every repository to its
// persistent implementation.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		if db != nil {
			c.bunDB = db
		}
	}
}

// WithCache overrides the repository cache service and key serializer.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithLoggerProvider overrides the logger provider built from configuration.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		if provider != nil {
			c.loggerProvider = provider
		}
	}
}

// WithMailer wires the outbound mailer used for proposal delivery.
func WithMailer(mailer leads.Mailer) Option {
	return func(c *Container) {
		if mailer != nil {
			c.mailer = mailer
		}
	}
}

// WithClock overrides the clock passed to every service.
func WithClock(clock func() time.Time) Option {
	return func(c *Container) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithLeadService overrides the lead pipeline service.
func WithLeadService(svc leads.Service) Option {
	return func(c *Container) {
		if svc != nil {
			c.leadSvc = svc
		}
	}
}

// WithStoreService overrides the store and staffing service.
func WithStoreService(svc stores.Service) Option {
	return func(c *Container) {
		if svc != nil {
			c.storeSvc = svc
		}
	}
}

// WithReconciliationService overrides the reconciliation service.
func WithReconciliationService(svc reconciliation.Service) Option {
	return func(c *Container) {
		if svc != nil {
			c.reconSvc = svc
		}
	}
}

// WithRouteManager overrides the go-urlkit route manager used for admin links.
func WithRouteManager(manager *urlkit.RouteManager) Option {
	return func(c *Container) {
		if manager != nil {
			c.routeManager = manager
		}
	}
}

// NewContainer validates the configuration and wires the module graph.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cacheTTL := cfg.Cache.DefaultTTL
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}

	memoryNoteRepo := leads.NewMemoryNoteRepository()
	memoryStoreRepo := stores.NewMemoryStoreRepository()

	c := &Container{
		Config:             cfg,
		cacheTTL:           cacheTTL,
		noteRepo:           memoryNoteRepo,
		leadRepo:           leads.NewMemoryLeadRepository(memoryNoteRepo),
		managerRepo:        leads.NewMemoryManagerRepository(),
		templateRepo:       leads.NewMemoryTemplateRepository(),
		stateRepo:          leads.NewMemoryStateRepository(),
		storeRepo:          memoryStoreRepo,
		employeeRepo:       stores.NewMemoryEmployeeRepository(memoryStoreRepo),
		shiftRepo:          stores.NewMemoryShiftRepository(),
		reconciliationRepo: reconciliation.NewMemoryRepository(),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if err := c.configureLoggerProvider(); err != nil {
		return nil, err
	}
	c.configureCacheDefaults()
	c.configureRepositories()
	c.configureNavigation()
	c.configureServices()
	c.configureCommands()

	if err := c.seedTemplates(context.Background()); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Container) configureLoggerProvider() error {
	if c.loggerProvider != nil || !c.Config.Features.Logger {
		return nil
	}

	adapterCfg := gologger.Config{
		Level:     c.Config.Logging.Level,
		Format:    c.Config.Logging.Format,
		AddSource: c.Config.Logging.AddSource,
		Focus:     c.Config.Logging.Focus,
	}
	if normalizeProvider(c.Config.Logging.Provider) == "console" {
		adapterCfg.Format = "console"
	}

	provider, err := gologger.NewProvider(adapterCfg)
	if err != nil {
		return err
	}
	c.loggerProvider = provider
	return nil
}

func (c *Container) configureCacheDefaults() {
	if !c.Config.Cache.Enabled {
		return
	}

	if c.cacheService == nil {
		cfg := repocache.DefaultConfig()
		if c.cacheTTL > 0 {
			cfg.TTL = c.cacheTTL
		}
		service, err := repocache.NewCacheService(cfg)
		if err == nil {
			c.cacheService = service
		}
	}

	if c.cacheService != nil && c.keySerializer == nil {
		c.keySerializer = repocache.NewDefaultKeySerializer()
	}
}

func (c *Container) configureRepositories() {
	if c.bunDB == nil {
		return
	}

	c.leadRepo = leads.NewBunLeadRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)
	c.managerRepo = leads.NewBunManagerRepository(c.bunDB)
	c.noteRepo = leads.NewBunNoteRepository(c.bunDB)
	c.templateRepo = leads.NewBunTemplateRepository(c.bunDB)
	c.stateRepo = leads.NewBunStateRepository(c.bunDB)

	c.storeRepo = stores.NewBunStoreRepository(c.bunDB)
	c.employeeRepo = stores.NewBunEmployeeRepository(c.bunDB)
	c.shiftRepo = stores.NewBunShiftRepository(c.bunDB)

	c.reconciliationRepo = reconciliation.NewBunRepository(c.bunDB)
}

func (c *Container) configureNavigation() {
	if c.routeManager != nil {
		return
	}
	if c.Config.Navigation.RouteConfig == nil {
		return
	}
	c.routeManager = urlkit.NewRouteManager(c.Config.Navigation.RouteConfig)
}

func (c *Container) configureServices() {
	if c.leadSvc == nil && c.Config.Features.Leads {
		leadOpts := []leads.Option{leads.WithLogger(c.scopedLogger(logging.LeadsLogger))}
		if c.clock != nil {
			leadOpts = append(leadOpts, leads.WithClock(c.clock))
		}
		if c.mailer != nil {
			leadOpts = append(leadOpts, leads.WithMailer(c.mailer))
		}
		c.leadSvc = leads.NewService(c.leadRepo, c.managerRepo, c.noteRepo, c.templateRepo, c.stateRepo, leadOpts...)
	}

	if c.storeSvc == nil {
		storeOpts := []stores.Option{stores.WithLogger(c.scopedLogger(logging.StoresLogger))}
		if c.clock != nil {
			storeOpts = append(storeOpts, stores.WithClock(c.clock))
		}
		c.storeSvc = stores.NewService(c.storeRepo, c.employeeRepo, c.shiftRepo, storeOpts...)
	}

	if c.reconSvc == nil && c.Config.Features.Reconciliation {
		reconOpts := []reconciliation.Option{reconciliation.WithLogger(c.scopedLogger(logging.ReconciliationLogger))}
		if c.clock != nil {
			reconOpts = append(reconOpts, reconciliation.WithClock(c.clock))
		}
		c.reconSvc = reconciliation.NewService(c.reconciliationRepo, reconOpts...)
	}

	if c.Config.Features.Imports {
		if c.leadImporter == nil && c.leadSvc != nil {
			c.leadImporter = importer.NewLeadImporter(c.leadSvc, importer.WithLeadLogger(c.scopedLogger(logging.ImporterLogger)))
		}
		if c.requestImporter == nil && c.storeSvc != nil {
			c.requestImporter = importer.NewRequestImporter(c.storeSvc, importer.WithRequestLogger(c.scopedLogger(logging.ImporterLogger)))
		}
	}

	if c.searchPatcher == nil {
		c.searchPatcher = search.NewPatcher(search.WithLogger(c.scopedLogger(logging.SearchLogger)))
	}
}

func (c *Container) configureCommands() {
	if !c.Config.Commands.Enabled {
		return
	}

	if c.leadSvc != nil {
		leadLogger := commands.CommandLogger(c.loggerProvider, "leads")
		c.sendKPHandler = leadscmd.NewSendKPHandler(c.leadSvc, leadLogger)
		c.fillVacanciesHandler = leadscmd.NewFillVacanciesHandler(c.leadSvc, leadLogger)
		if c.leadImporter != nil {
			c.importLeadsHandler = leadscmd.NewImportLeadsHandler(c.leadImporter, leadLogger)
		}
	}
	if c.requestImporter != nil {
		c.importRequestsHandler = storescmd.NewImportRequestsHandler(c.requestImporter, commands.CommandLogger(c.loggerProvider, "stores"))
	}
	if c.reconSvc != nil {
		c.runReconHandler = reconciliationcmd.NewRunHandler(c.reconSvc, commands.CommandLogger(c.loggerProvider, "reconciliation"))
	}

	if !c.Config.Commands.AutoRegisterDispatcher {
		return
	}
	if c.sendKPHandler != nil {
		sub := dispatcher.SubscribeCommand(c.sendKPHandler)
		c.unsubscribes = append(c.unsubscribes, sub.Unsubscribe)
	}
	if c.fillVacanciesHandler != nil {
		sub := dispatcher.SubscribeCommand(c.fillVacanciesHandler)
		c.unsubscribes = append(c.unsubscribes, sub.Unsubscribe)
	}
	if c.importLeadsHandler != nil {
		sub := dispatcher.SubscribeCommand(c.importLeadsHandler)
		c.unsubscribes = append(c.unsubscribes, sub.Unsubscribe)
	}
	if c.importRequestsHandler != nil {
		sub := dispatcher.SubscribeCommand(c.importRequestsHandler)
		c.unsubscribes = append(c.unsubscribes, sub.Unsubscribe)
	}
	if c.runReconHandler != nil {
		sub := dispatcher.SubscribeCommand(c.runReconHandler)
		c.unsubscribes = append(c.unsubscribes, sub.Unsubscribe)
	}
}

// Shutdown releases dispatcher subscriptions taken during construction.
func (c *Container) Shutdown() {
	for _, unsubscribe := range c.unsubscribes {
		unsubscribe()
	}
	c.unsubscribes = nil
}

func (c *Container) seedTemplates(ctx context.Context) error {
	if c.templateRepo == nil || !c.Config.Features.Leads {
		return nil
	}
	for _, path := range c.Config.Leads.TemplatePaths {
		template, err := leads.LoadTemplateFile(path)
		if err != nil {
			return err
		}
		if _, err := c.templateRepo.Upsert(ctx, template); err != nil {
			return fmt.Errorf("seed kp template %s: %w", path, err)
		}
	}
	return nil
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func (c *Container) scopedLogger(scope func(interfaces.LoggerProvider) interfaces.Logger) interfaces.Logger {
	if c.loggerProvider == nil {
		return logging.NoOp()
	}
	return scope(c.loggerProvider)
}

// LoggerProvider exposes the configured logger provider, nil when logging is
// disabled and no override was supplied.
func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

// HTTPLogger returns the logger scoped to the admin HTTP surface.
func (c *Container) HTTPLogger() interfaces.Logger {
	return c.scopedLogger(logging.HTTPLogger)
}

// LeadService exposes the lead pipeline service, nil when the leads feature
// is disabled.
func (c *Container) LeadService() leads.Service {
	return c.leadSvc
}

// StoreService exposes the store and staffing service.
func (c *Container) StoreService() stores.Service {
	return c.storeSvc
}

// ReconciliationService exposes the reconciliation service, nil when the
// feature is disabled.
func (c *Container) ReconciliationService() reconciliation.Service {
	return c.reconSvc
}

// LeadImporter exposes the spreadsheet lead importer, nil when imports are
// disabled.
func (c *Container) LeadImporter() *importer.LeadImporter {
	return c.leadImporter
}

// RequestImporter exposes the customer request importer, nil when imports are
// disabled.
func (c *Container) RequestImporter() *importer.RequestImporter {
	return c.requestImporter
}

// RouteManager exposes the go-urlkit manager built from Navigation config,
// nil when none was configured.
func (c *Container) RouteManager() *urlkit.RouteManager {
	return c.routeManager
}

// SearchPatcher exposes the widget context patcher.
func (c *Container) SearchPatcher() *search.Patcher {
	return c.searchPatcher
}

// SendKPHandler exposes the send-KP command handler, nil when commands are
// disabled.
func (c *Container) SendKPHandler() *leadscmd.SendKPHandler {
	return c.sendKPHandler
}

// FillVacanciesHandler exposes the fill-vacancies command handler, nil when
// commands are disabled.
func (c *Container) FillVacanciesHandler() *leadscmd.FillVacanciesHandler {
	return c.fillVacanciesHandler
}

// ImportLeadsHandler exposes the lead import command handler, nil when
// commands or imports are disabled.
func (c *Container) ImportLeadsHandler() *leadscmd.ImportLeadsHandler {
	return c.importLeadsHandler
}

// ImportRequestsHandler exposes the request import command handler, nil when
// commands or imports are disabled.
func (c *Container) ImportRequestsHandler() *storescmd.ImportRequestsHandler {
	return c.importRequestsHandler
}

// RunReconciliationHandler exposes the reconciliation command handler, nil
// when commands or reconciliation are disabled.
func (c *Container) RunReconciliationHandler() *reconciliationcmd.RunHandler {
	return c.runReconHandler
}

// TemplateRepository exposes the proposal template repository so hosts can
// manage templates directly.
func (c *Container) TemplateRepository() leads.TemplateRepository {
	return c.templateRepo
}

// ManagerRepository exposes the sales manager repository for host-side
// roster management.
func (c *Container) ManagerRepository() leads.ManagerRepository {
	return c.managerRepo
}

// BunDB exposes the configured database handle, nil for memory-backed runs.
func (c *Container) BunDB() *bun.DB {
	return c.bunDB
}
