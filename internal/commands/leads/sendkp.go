package leadscmd

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-crm/internal/commands"
	"github.com/goliatone/go-crm/internal/leads"
	"github.com/goliatone/go-crm/internal/logging"
	"github.com/goliatone/go-crm/pkg/interfaces"
	command "github.com/goliatone/go-command"
	"github.com/google/uuid"
)

const (
	sendKPMessageType = "crm.leads.send_kp"
	sendKPOperation   = "leads.send_kp"
)

var _ command.Commander[SendKPCommand] = (*SendKPHandler)(nil)

// SendKPCommand emails the commercial proposal to the selected leads.
type SendKPCommand struct {
	LeadIDs []uuid.UUID `json:"lead_ids"`
}

// Type implements command.Message.
func (SendKPCommand) Type() string { return sendKPMessageType }

// Validate ensures at least one valid lead is selected.
func (m SendKPCommand) Validate() error {
	errs := validation.Errors{}
	if len(m.LeadIDs) == 0 {
		errs["lead_ids"] = validation.NewError("crm.leads.send_kp.lead_ids_required", "at least one lead id is required")
	}
	for _, id := range m.LeadIDs {
		if id == uuid.Nil {
			errs["lead_ids"] = validation.NewError("crm.leads.send_kp.lead_ids_invalid", "lead ids must be valid identifiers")
			break
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SendKPHandler sends proposals via the lead service using the shared command handler foundation.
type SendKPHandler struct {
	inner *commands.Handler[SendKPCommand]
}

// NewSendKPHandler constructs a handler wired to the provided lead service.
func NewSendKPHandler(service leads.Service, logger interfaces.Logger, opts ...commands.HandlerOption[SendKPCommand]) *SendKPHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg SendKPCommand) error {
		report, err := service.SendKP(ctx, msg.LeadIDs)
		if err != nil {
			return err
		}
		logging.WithFields(baseLogger, map[string]any{
			"sent":             report.Sent,
			"skipped_no_email": report.SkippedNoEmail,
			"skipped_already":  report.SkippedAlready,
			"errors":           report.Errors,
		}).Info("leads.command.send_kp.completed")
		return nil
	}

	handlerOpts := []commands.HandlerOption[SendKPCommand]{
		commands.WithLogger[SendKPCommand](baseLogger),
		commands.WithOperation[SendKPCommand](sendKPOperation),
		commands.WithMessageFields(func(msg SendKPCommand) map[string]any {
			return map[string]any{
				"lead_count": len(msg.LeadIDs),
			}
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[SendKPCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &SendKPHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[SendKPCommand].
func (h *SendKPHandler) Execute(ctx context.Context, msg SendKPCommand) error {
	return h.inner.Execute(ctx, msg)
}
