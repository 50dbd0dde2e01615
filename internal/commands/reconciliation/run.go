package reconciliationcmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-crm/internal/commands"
	"github.com/goliatone/go-crm/internal/logging"
	"github.com/goliatone/go-crm/internal/reconciliation"
	"github.com/goliatone/go-crm/pkg/interfaces"
	command "github.com/goliatone/go-command"
)

const (
	runMessageType = "crm.reconciliation.run"
	runOperation   = "reconciliation.run"
)

var _ command.Commander[RunCommand] = (*RunHandler)(nil)

// RunCommand reconciles the customer's hour report against the database
// export, both read from disk.
type RunCommand struct {
	CustomerPath string `json:"customer_path"`
	DatabasePath string `json:"database_path"`
}

// Type implements command.Message.
func (RunCommand) Type() string { return runMessageType }

// Validate ensures both input files are named.
func (m RunCommand) Validate() error {
	errs := validation.Errors{}
	if strings.TrimSpace(m.CustomerPath) == "" {
		errs["customer_path"] = validation.NewError("crm.reconciliation.run.customer_path_required", "customer_path is required")
	}
	if strings.TrimSpace(m.DatabasePath) == "" {
		errs["database_path"] = validation.NewError("crm.reconciliation.run.database_path_required", "database_path is required")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// RunHandler starts reconciliations via the shared command handler foundation.
type RunHandler struct {
	inner *commands.Handler[RunCommand]
}

// NewRunHandler constructs a handler wired to the provided reconciliation service.
func NewRunHandler(service reconciliation.Service, logger interfaces.Logger, opts ...commands.HandlerOption[RunCommand]) *RunHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg RunCommand) error {
		customerFile, err := os.Open(msg.CustomerPath)
		if err != nil {
			return fmt.Errorf("open customer file: %w", err)
		}
		defer customerFile.Close()

		databaseFile, err := os.Open(msg.DatabasePath)
		if err != nil {
			return fmt.Errorf("open database file: %w", err)
		}
		defer databaseFile.Close()

		record, err := service.Run(ctx, reconciliation.RunInput{
			CustomerFileName: filepath.Base(msg.CustomerPath),
			CustomerFile:     customerFile,
			DatabaseFileName: filepath.Base(msg.DatabasePath),
			DatabaseFile:     databaseFile,
		})
		if err != nil {
			return err
		}

		fields := map[string]any{
			"id":     record.ID.String(),
			"status": string(record.Status),
		}
		if record.Status == reconciliation.StatusError {
			fields["error_message"] = record.ErrorMessage
		}
		logging.WithFields(baseLogger, fields).Info("reconciliation.command.run.completed")
		return nil
	}

	handlerOpts := []commands.HandlerOption[RunCommand]{
		commands.WithLogger[RunCommand](baseLogger),
		commands.WithOperation[RunCommand](runOperation),
		commands.WithMessageFields(func(msg RunCommand) map[string]any {
			return map[string]any{
				"customer_path": msg.CustomerPath,
				"database_path": msg.DatabasePath,
			}
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[RunCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &RunHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[RunCommand].
func (h *RunHandler) Execute(ctx context.Context, msg RunCommand) error {
	return h.inner.Execute(ctx, msg)
}
