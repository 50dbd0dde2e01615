package di

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-crm/internal/leads"
	"github.com/goliatone/go-crm/internal/logging"
	"github.com/goliatone/go-crm/internal/logging/gologger"
	"github.com/goliatone/go-crm/internal/runtimeconfig"
	"github.com/goliatone/go-crm/pkg/interfaces"
)

func fullFeatureConfig() runtimeconfig.Config {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Imports = true
	cfg.Features.Reconciliation = true
	return cfg
}

func TestNewContainerDefaultsToMemory(t *testing.T) {
	container, err := NewContainer(fullFeatureConfig())
	if err != nil {
		t.Fatalf("NewContainer() error = %v", err)
	}

	if container.LeadService() == nil {
		t.Fatal("LeadService() = nil, want memory-backed service")
	}
	if container.StoreService() == nil {
		t.Fatal("StoreService() = nil, want memory-backed service")
	}
	if container.ReconciliationService() == nil {
		t.Fatal("ReconciliationService() = nil, want memory-backed service")
	}
	if container.LeadImporter() == nil || container.RequestImporter() == nil {
		t.Fatal("importers not wired with imports feature enabled")
	}
	if container.SearchPatcher() == nil {
		t.Fatal("SearchPatcher() = nil")
	}

	lead, err := container.LeadService().CreateLead(context.Background(), leads.CreateLeadInput{
		CompanyName: "Монетка",
		Source:      "Avito",
		AdURL:       "https://avito.ru/vacancy/1",
	})
	if err != nil {
		t.Fatalf("CreateLead() error = %v", err)
	}
	if lead.ID.String() == "" {
		t.Fatal("CreateLead() returned lead without id")
	}
}

func TestNewContainerRejectsInvalidConfig(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Search.ContextKey = ""

	if _, err := NewContainer(cfg); !errors.Is(err, runtimeconfig.ErrSearchContextKeyRequired) {
		t.Fatalf("NewContainer() error = %v, want ErrSearchContextKeyRequired", err)
	}
}

func TestNewContainerHonoursFeatureGates(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()

	container, err := NewContainer(cfg)
	if err != nil {
		t.Fatalf("NewContainer() error = %v", err)
	}

	if container.ReconciliationService() != nil {
		t.Fatal("ReconciliationService() wired with feature disabled")
	}
	if container.LeadImporter() != nil || container.RequestImporter() != nil {
		t.Fatal("importers wired with imports feature disabled")
	}
}

func TestConfigureCommandsBuildsHandlers(t *testing.T) {
	cfg := fullFeatureConfig()
	cfg.Commands.Enabled = true

	container, err := NewContainer(cfg)
	if err != nil {
		t.Fatalf("NewContainer() error = %v", err)
	}

	if container.SendKPHandler() == nil || container.FillVacanciesHandler() == nil {
		t.Fatal("lead command handlers not wired")
	}
	if container.ImportLeadsHandler() == nil || container.ImportRequestsHandler() == nil {
		t.Fatal("import command handlers not wired")
	}
	if container.RunReconciliationHandler() == nil {
		t.Fatal("reconciliation command handler not wired")
	}
	if len(container.unsubscribes) != 0 {
		t.Fatal("dispatcher subscriptions taken without auto-registration")
	}
}

func TestConfigureCommandsAutoRegistersDispatcher(t *testing.T) {
	cfg := fullFeatureConfig()
	cfg.Commands.Enabled = true
	cfg.Commands.AutoRegisterDispatcher = true

	container, err := NewContainer(cfg)
	if err != nil {
		t.Fatalf("NewContainer() error = %v", err)
	}
	t.Cleanup(container.Shutdown)

	if len(container.unsubscribes) != 5 {
		t.Fatalf("subscriptions = %d, want 5", len(container.unsubscribes))
	}
}

func TestConfigureLoggerProviderUsesGoLoggerAdapter(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Logger = true
	cfg.Logging.Provider = "gologger"
	cfg.Logging.Format = "json"

	container, err := NewContainer(cfg)
	if err != nil {
		t.Fatalf("NewContainer() error = %v", err)
	}

	if _, ok := container.loggerProvider.(*gologger.Provider); !ok {
		t.Fatalf("loggerProvider = %T, want *gologger.Provider", container.loggerProvider)
	}
}

type singleLoggerProvider struct {
	logger interfaces.Logger
	names  []string
}

func (p *singleLoggerProvider) GetLogger(name string) interfaces.Logger {
	p.names = append(p.names, name)
	return p.logger
}

func TestWithLoggerProviderOverride(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Logger = true

	provider := &singleLoggerProvider{logger: logging.NoOp()}
	container, err := NewContainer(cfg, WithLoggerProvider(provider))
	if err != nil {
		t.Fatalf("NewContainer() error = %v", err)
	}

	if container.loggerProvider != provider {
		t.Fatal("loggerProvider override was replaced")
	}
	if len(provider.names) == 0 {
		t.Fatal("override provider was never asked for module loggers")
	}
}

func TestSeedTemplatesLoadsFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kp.md")
	source := "---\nname: Основной шаблон\nsubject: КП для {{company}}\n---\nЗдравствуйте, {{company}}!\n"
	if err := os.WriteFile(path, []byte(source), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg := runtimeconfig.DefaultConfig()
	cfg.Leads.TemplatePaths = []string{path}

	container, err := NewContainer(cfg)
	if err != nil {
		t.Fatalf("NewContainer() error = %v", err)
	}

	template, err := container.TemplateRepository().GetActive(context.Background())
	if err != nil {
		t.Fatalf("GetActive() error = %v", err)
	}
	if template.Name != "Основной шаблон" {
		t.Fatalf("template.Name = %q", template.Name)
	}

	cfg.Leads.TemplatePaths = []string{filepath.Join(dir, "missing.md")}
	if _, err := NewContainer(cfg); err == nil {
		t.Fatal("NewContainer() with missing template path succeeded, want error")
	}
}
