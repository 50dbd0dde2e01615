package leadscmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-crm/internal/commands"
	"github.com/goliatone/go-crm/internal/importer"
	"github.com/goliatone/go-crm/internal/logging"
	"github.com/goliatone/go-crm/pkg/interfaces"
	command "github.com/goliatone/go-command"
)

const (
	importLeadsMessageType = "crm.leads.import"
	importOperation        = "leads.import"
)

const (
	// FormatXLSX imports the structured spreadsheet template.
	FormatXLSX = "xlsx"
	// FormatCSV imports job-board CSV exports, structured or DOM-scraped.
	FormatCSV = "csv"
)

var _ command.Commander[ImportLeadsCommand] = (*ImportLeadsHandler)(nil)

// ImportLeadsCommand imports sales leads from a spreadsheet on disk.
// Format is derived from the file extension when left empty.
type ImportLeadsCommand struct {
	Path   string `json:"path"`
	Format string `json:"format,omitempty"`
}

// Type implements command.Message.
func (ImportLeadsCommand) Type() string { return importLeadsMessageType }

// Validate ensures the command names a readable source before reaching handlers.
func (m ImportLeadsCommand) Validate() error {
	errs := validation.Errors{}
	if strings.TrimSpace(m.Path) == "" {
		errs["path"] = validation.NewError("crm.leads.import.path_required", "path is required")
	}
	if format := strings.ToLower(strings.TrimSpace(m.Format)); format != "" && format != FormatXLSX && format != FormatCSV {
		errs["format"] = validation.NewError("crm.leads.import.format_invalid", "format must be xlsx or csv")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (m ImportLeadsCommand) format() string {
	if format := strings.ToLower(strings.TrimSpace(m.Format)); format != "" {
		return format
	}
	if strings.EqualFold(filepath.Ext(m.Path), ".csv") {
		return FormatCSV
	}
	return FormatXLSX
}

// ImportLeadsHandler runs lead imports via the shared command handler foundation.
type ImportLeadsHandler struct {
	inner *commands.Handler[ImportLeadsCommand]
}

// NewImportLeadsHandler creates a handler bound to the supplied lead importer.
func NewImportLeadsHandler(leadImporter *importer.LeadImporter, logger interfaces.Logger, opts ...commands.HandlerOption[ImportLeadsCommand]) *ImportLeadsHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg ImportLeadsCommand) error {
		file, err := os.Open(msg.Path)
		if err != nil {
			return fmt.Errorf("open import file: %w", err)
		}
		defer file.Close()

		var report importer.LeadReport
		switch msg.format() {
		case FormatCSV:
			records, err := importer.ReadCSV(file)
			if err != nil {
				return err
			}
			report, err = leadImporter.ImportCSV(ctx, records)
			if err != nil {
				return err
			}
		default:
			report, err = leadImporter.ImportXLSX(ctx, file)
			if err != nil {
				return err
			}
		}

		logging.WithFields(baseLogger, map[string]any{
			"created":     report.Created,
			"skipped_dup": report.SkippedDup,
			"skipped_bad": report.SkippedBad,
		}).Info("leads.command.import.completed")
		return nil
	}

	handlerOpts := []commands.HandlerOption[ImportLeadsCommand]{
		commands.WithLogger[ImportLeadsCommand](baseLogger),
		commands.WithOperation[ImportLeadsCommand](importOperation),
		commands.WithMessageFields(func(msg ImportLeadsCommand) map[string]any {
			return map[string]any{
				"path":   msg.Path,
				"format": msg.format(),
			}
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[ImportLeadsCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ImportLeadsHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[ImportLeadsCommand].
func (h *ImportLeadsHandler) Execute(ctx context.Context, msg ImportLeadsCommand) error {
	return h.inner.Execute(ctx, msg)
}
