package runtimeconfig_test

import (
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-crm/internal/runtimeconfig"
)

func TestConfigValidate_AcceptsDefaults(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
}

func TestConfigValidate_RequiresLeadsForImports(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Imports = true
	cfg.Features.Leads = false

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrImportsRequireLeads) {
		t.Fatalf("expected ErrImportsRequireLeads, got %v", err)
	}
}

func TestConfigValidate_RequiresCommandsForDispatcher(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Commands.AutoRegisterDispatcher = true

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrCommandsDispatcherRequiresCommands) {
		t.Fatalf("expected ErrCommandsDispatcherRequiresCommands, got %v", err)
	}
}

func TestConfigValidate_RequiresSearchContextKey(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Search.ContextKey = "  "

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrSearchContextKeyRequired) {
		t.Fatalf("expected ErrSearchContextKeyRequired, got %v", err)
	}
}

func TestConfigValidate_RejectsNonPositiveRetryDelay(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Search.RetryDelays = []time.Duration{time.Second, 0}

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrSearchRetryDelayInvalid) {
		t.Fatalf("expected ErrSearchRetryDelayInvalid, got %v", err)
	}
}

func TestConfigValidate_RejectsNegativeKPStaleWindow(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Leads.KPStaleAfter = -time.Hour

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrLeadsKPStaleAfterInvalid) {
		t.Fatalf("expected ErrLeadsKPStaleAfterInvalid, got %v", err)
	}
}

func TestConfigValidate_RequiresLoggingProviderWhenFeatureEnabled(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Logger = true
	cfg.Logging.Provider = ""

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrLoggingProviderRequired) {
		t.Fatalf("expected ErrLoggingProviderRequired, got %v", err)
	}
}

func TestConfigValidate_RejectsUnknownLoggingProvider(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Logger = true
	cfg.Logging.Provider = "syslog"

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrLoggingProviderUnknown) {
		t.Fatalf("expected ErrLoggingProviderUnknown, got %v", err)
	}
}

func TestConfigValidate_RejectsInvalidLoggingLevel(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Logger = true
	cfg.Logging.Level = "verbose"

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrLoggingLevelInvalid) {
		t.Fatalf("expected ErrLoggingLevelInvalid, got %v", err)
	}
}

func TestConfigValidate_RejectsInvalidLoggingFormat(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Logger = true
	cfg.Logging.Provider = "gologger"
	cfg.Logging.Format = "xml"

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrLoggingFormatInvalid) {
		t.Fatalf("expected ErrLoggingFormatInvalid, got %v", err)
	}
}

func TestDefaultConfig_Defaults(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()

	if !cfg.Enabled {
		t.Fatal("Enabled = false, want true")
	}
	if cfg.Search.ContextKey != "store_id" {
		t.Fatalf("Search.ContextKey = %q, want store_id", cfg.Search.ContextKey)
	}
	if len(cfg.Search.RetryDelays) != 2 {
		t.Fatalf("Search.RetryDelays length = %d, want 2", len(cfg.Search.RetryDelays))
	}
	if cfg.Leads.KPStaleAfter != 3*24*time.Hour {
		t.Fatalf("Leads.KPStaleAfter = %s, want 72h", cfg.Leads.KPStaleAfter)
	}
	if !cfg.Features.Leads {
		t.Fatal("Features.Leads = false, want true")
	}
}
