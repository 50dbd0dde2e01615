package leadscmd

import (
	"context"

	"github.com/goliatone/go-crm/internal/commands"
	"github.com/goliatone/go-crm/internal/leads"
	"github.com/goliatone/go-crm/internal/logging"
	"github.com/goliatone/go-crm/pkg/interfaces"
	command "github.com/goliatone/go-command"
)

const (
	fillVacanciesMessageType = "crm.leads.fill_vacancies"
	fillVacanciesOperation   = "leads.fill_vacancies"
)

var _ command.Commander[FillVacanciesCommand] = (*FillVacanciesHandler)(nil)

// FillVacanciesCommand backfills empty vacancy fields from each lead's ad URL.
type FillVacanciesCommand struct{}

// Type implements command.Message.
func (FillVacanciesCommand) Type() string { return fillVacanciesMessageType }

// Validate implements command.Message; the command carries no parameters.
func (FillVacanciesCommand) Validate() error { return nil }

// FillVacanciesHandler runs the backfill via the shared command handler foundation.
type FillVacanciesHandler struct {
	inner *commands.Handler[FillVacanciesCommand]
}

// NewFillVacanciesHandler constructs a handler wired to the provided lead service.
func NewFillVacanciesHandler(service leads.Service, logger interfaces.Logger, opts ...commands.HandlerOption[FillVacanciesCommand]) *FillVacanciesHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, _ FillVacanciesCommand) error {
		updated, err := service.FillVacancies(ctx)
		if err != nil {
			return err
		}
		logging.WithFields(baseLogger, map[string]any{
			"updated": updated,
		}).Info("leads.command.fill_vacancies.completed")
		return nil
	}

	handlerOpts := []commands.HandlerOption[FillVacanciesCommand]{
		commands.WithLogger[FillVacanciesCommand](baseLogger),
		commands.WithOperation[FillVacanciesCommand](fillVacanciesOperation),
		commands.WithTelemetry(commands.DefaultTelemetry[FillVacanciesCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &FillVacanciesHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[FillVacanciesCommand].
func (h *FillVacanciesHandler) Execute(ctx context.Context, msg FillVacanciesCommand) error {
	return h.inner.Execute(ctx, msg)
}
