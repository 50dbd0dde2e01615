package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"

	urlkit "github.com/goliatone/go-urlkit"
)

// ErrImportsRequireLeads keeps spreadsheet imports behind the leads flag.
var ErrImportsRequireLeads = errors.New("crm config: imports feature requires leads to be enabled")

// ErrCommandsDispatcherRequiresCommands ensures automatic dispatcher wiring only runs when commands are enabled.
var ErrCommandsDispatcherRequiresCommands = errors.New("crm config: command dispatcher auto-registration requires commands to be enabled")
var ErrSearchContextKeyRequired = errors.New("crm config: search context key is required")
var ErrSearchRetryDelayInvalid = errors.New("crm config: search retry delays must be positive")
var ErrLeadsKPStaleAfterInvalid = errors.New("crm config: kp stale window must be zero or positive")
var ErrCacheTTLInvalid = errors.New("crm config: cache ttl must be zero or positive")
var ErrLoggingProviderRequired = errors.New("crm config: logging provider is required when logging feature is enabled")
var ErrLoggingProviderUnknown = errors.New("crm config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("crm config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("crm config: logging format is invalid")

// Config aggregates feature flags and adapter bindings for the CRM module.
// Fields intentionally use simple types so host applications can extend them later.
type Config struct {
	Enabled    bool
	Storage    StorageConfig
	Cache      CacheConfig
	Navigation NavigationConfig
	Search     SearchConfig
	Leads      LeadsConfig
	Features   Features
	Commands   CommandsConfig
	Logging    LoggingConfig
}

// StorageConfig lists identifiers for storage-related dependencies.
type StorageConfig struct {
	Provider string
}

// CacheConfig captures cache behaviour for the cached lead repository.
type CacheConfig struct {
	Enabled    bool
	DefaultTTL time.Duration
}

// NavigationConfig captures routing configuration for admin URL resolution.
type NavigationConfig struct {
	RouteConfig   *urlkit.Config
	AdminBasePath string
}

// SearchConfig controls how lookup widgets are scoped.
type SearchConfig struct {
	// ContextKey is the name of the request parameter carrying the row context.
	ContextKey string
	// RetryDelays drives deferred patching of widgets the host renders asynchronously.
	RetryDelays []time.Duration
}

// LeadsConfig captures lead pipeline tunables.
type LeadsConfig struct {
	// Sources seeds the suggestion list offered on the lead form.
	Sources []string
	// KPStaleAfter is how long a sent proposal may sit unanswered before it
	// counts as ignored.
	KPStaleAfter time.Duration
	// TemplatePaths are proposal template files loaded into the template
	// repository on startup.
	TemplatePaths []string
}

// Features toggles module functionality.
type Features struct {
	Leads          bool
	Imports        bool
	Reconciliation bool
	Logger         bool
}

// CommandsConfig captures optional command-layer behaviour.
type CommandsConfig struct {
	Enabled                bool
	AutoRegisterDispatcher bool
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string
	Level     string
	Format    string
	AddSource bool
	Focus     []string
}

// DefaultConfig returns opinionated defaults for an embedded deployment.
func DefaultConfig() Config {
	return Config{
		Enabled: true,
		Storage: StorageConfig{
			Provider: "bun",
		},
		Cache: CacheConfig{
			Enabled:    true,
			DefaultTTL: time.Minute,
		},
		Navigation: NavigationConfig{
			AdminBasePath: "/admin/api",
		},
		Search: SearchConfig{
			ContextKey:  "store_id",
			RetryDelays: []time.Duration{500 * time.Millisecond, 2 * time.Second},
		},
		Leads: LeadsConfig{
			KPStaleAfter: 3 * 24 * time.Hour,
		},
		Features: Features{
			Leads: true,
		},
		Commands: CommandsConfig{},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
			Format:   "",
		},
	}
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	if cfg.Features.Imports && !cfg.Features.Leads {
		return ErrImportsRequireLeads
	}
	if cfg.Commands.AutoRegisterDispatcher && !cfg.Commands.Enabled {
		return ErrCommandsDispatcherRequiresCommands
	}
	if strings.TrimSpace(cfg.Search.ContextKey) == "" {
		return ErrSearchContextKeyRequired
	}
	for _, delay := range cfg.Search.RetryDelays {
		if delay <= 0 {
			return fmt.Errorf("%w: %s", ErrSearchRetryDelayInvalid, delay)
		}
	}
	if cfg.Leads.KPStaleAfter < 0 {
		return ErrLeadsKPStaleAfterInvalid
	}
	if cfg.Cache.DefaultTTL < 0 {
		return ErrCacheTTLInvalid
	}
	if cfg.Features.Logger {
		provider := normalizeProvider(cfg.Logging.Provider)
		if provider == "" {
			return ErrLoggingProviderRequired
		}
		if !isSupportedProvider(provider) {
			return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
		}
		if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
			return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
		}
		if provider == "gologger" {
			if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
				return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
			}
		}
	}
	return nil
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
