package storescmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-crm/internal/commands"
	"github.com/goliatone/go-crm/internal/importer"
	"github.com/goliatone/go-crm/internal/logging"
	"github.com/goliatone/go-crm/internal/stores"
	"github.com/goliatone/go-crm/pkg/interfaces"
	command "github.com/goliatone/go-command"
)

const (
	importRequestsMessageType = "crm.stores.import_requests"
	importRequestsOperation   = "stores.import_requests"
)

var _ command.Commander[ImportRequestsCommand] = (*ImportRequestsHandler)(nil)

// ImportRequestsCommand loads a customer request spreadsheet and replaces the
// current requested hours for one service type.
type ImportRequestsCommand struct {
	Path        string             `json:"path"`
	ServiceType stores.ServiceType `json:"service_type"`
}

// Type implements command.Message.
func (ImportRequestsCommand) Type() string { return importRequestsMessageType }

// Validate ensures the source file and service type are usable.
func (m ImportRequestsCommand) Validate() error {
	errs := validation.Errors{}
	if strings.TrimSpace(m.Path) == "" {
		errs["path"] = validation.NewError("crm.stores.import_requests.path_required", "path is required")
	}
	if !m.ServiceType.Valid() {
		errs["service_type"] = validation.NewError("crm.stores.import_requests.service_type_invalid", "service_type must be merch or cleaning")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ImportRequestsHandler runs request imports via the shared command handler foundation.
type ImportRequestsHandler struct {
	inner *commands.Handler[ImportRequestsCommand]
}

// NewImportRequestsHandler creates a handler bound to the supplied request importer.
func NewImportRequestsHandler(requestImporter *importer.RequestImporter, logger interfaces.Logger, opts ...commands.HandlerOption[ImportRequestsCommand]) *ImportRequestsHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg ImportRequestsCommand) error {
		file, err := os.Open(msg.Path)
		if err != nil {
			return fmt.Errorf("open import file: %w", err)
		}
		defer file.Close()

		report, err := requestImporter.ImportXLSX(ctx, file, msg.ServiceType)
		if err != nil {
			return err
		}

		logging.WithFields(baseLogger, map[string]any{
			"created_stores": report.CreatedStores,
			"created_lines":  report.CreatedLines,
			"skipped_bad":    report.SkippedBad,
		}).Info("stores.command.import_requests.completed")
		return nil
	}

	handlerOpts := []commands.HandlerOption[ImportRequestsCommand]{
		commands.WithLogger[ImportRequestsCommand](baseLogger),
		commands.WithOperation[ImportRequestsCommand](importRequestsOperation),
		commands.WithMessageFields(func(msg ImportRequestsCommand) map[string]any {
			return map[string]any{
				"path":         msg.Path,
				"service_type": string(msg.ServiceType),
			}
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[ImportRequestsCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ImportRequestsHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[ImportRequestsCommand].
func (h *ImportRequestsHandler) Execute(ctx context.Context, msg ImportRequestsCommand) error {
	return h.inner.Execute(ctx, msg)
}
