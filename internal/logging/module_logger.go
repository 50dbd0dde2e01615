package logging

import (
	"context"

	"github.com/goliatone/go-crm/pkg/interfaces"
)

const (
	rootModule           = "crm"
	searchModule         = "crm.search"
	leadsModule          = "crm.leads"
	storesModule         = "crm.stores"
	importerModule       = "crm.importer"
	reconciliationModule = "crm.reconciliation"
	httpModule           = "crm.http"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The returned logger attaches
// the module identifier as structured context so downstream entries can be
// filtered predictably.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	if fieldsLogger, ok := logger.(interfaces.FieldsLogger); ok {
		return fieldsLogger.WithFields(map[string]any{
			"module": module,
		})
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// SearchLogger returns the logger namespace reserved for search augmentation.
func SearchLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, searchModule)
}

// LeadsLogger returns the logger namespace reserved for lead services.
func LeadsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, leadsModule)
}

// StoresLogger returns the logger namespace reserved for store services.
func StoresLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, storesModule)
}

// ImporterLogger returns the logger namespace reserved for spreadsheet imports.
func ImporterLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, importerModule)
}

// ReconciliationLogger returns the logger namespace reserved for reconciliation runs.
func ReconciliationLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, reconciliationModule)
}

// HTTPLogger returns the logger namespace reserved for the admin HTTP surface.
func HTTPLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, httpModule)
}

// NoOp returns a logger that drops every log entry. It satisfies the Logger
// contract so services can safely operate when logging is disabled.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
