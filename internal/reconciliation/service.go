package reconciliation

import (
	"context"
	"io"
	"time"

	"github.com/goliatone/go-crm/internal/logging"
	"github.com/goliatone/go-crm/pkg/interfaces"
	"github.com/google/uuid"
)

// Service runs reconciliations and exposes past runs.
type Service interface {
	Run(ctx context.Context, input RunInput) (*Reconciliation, error)
	Get(ctx context.Context, id uuid.UUID) (*Reconciliation, error)
	List(ctx context.Context) ([]*Reconciliation, error)
}

// RunInput carries the two uploads of one reconciliation.
type RunInput struct {
	CustomerFileName string
	CustomerFile     io.Reader
	DatabaseFileName string
	DatabaseFile     io.Reader
}

// Option mutates the service configuration.
type Option func(*service)

// WithLogger wires the module logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the clock used for timestamps and the default year of
// short header dates.
func WithClock(clock func() time.Time) Option {
	return func(s *service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

type service struct {
	records Repository
	logger  interfaces.Logger
	clock   func() time.Time
}

// NewService wires a reconciliation service over the given repository.
func NewService(records Repository, opts ...Option) Service {
	s := &service{
		records: records,
		logger:  logging.NoOp(),
		clock:   time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Run parses both files, compares them, and stores the summary and xlsx
// report. Failures are recorded on the run itself so the admin can see what
// went wrong.
func (s *service) Run(ctx context.Context, input RunInput) (*Reconciliation, error) {
	record, err := s.records.Create(ctx, &Reconciliation{
		ID:               uuid.New(),
		CustomerFileName: input.CustomerFileName,
		DatabaseFileName: input.DatabaseFileName,
		Status:           StatusUploaded,
		CreatedAt:        s.clock(),
		UpdatedAt:        s.clock(),
	})
	if err != nil {
		return nil, err
	}

	record.Status = StatusProcessing
	if record, err = s.records.Update(ctx, record); err != nil {
		return nil, err
	}

	result, report, runErr := s.compare(input)
	if runErr != nil {
		record.Status = StatusError
		record.ErrorMessage = runErr.Error()
		s.logger.Error("reconciliation failed",
			"id", record.ID.String(),
			"customer_file", input.CustomerFileName,
			"database_file", input.DatabaseFileName,
			"error", runErr,
		)
		return s.records.Update(ctx, record)
	}

	record.Status = StatusDone
	record.Summary = result.Summary()
	record.Report = report
	s.logger.Info("reconciliation finished",
		"id", record.ID.String(),
		"only_customer", len(result.OnlyCustomer),
		"only_database", len(result.OnlyDatabase),
		"hour_diffs", len(result.HourDiffs),
	)
	return s.records.Update(ctx, record)
}

func (s *service) compare(input RunInput) (Result, []byte, error) {
	defaultYear := s.clock().Year()

	customerSheet, err := ReadSheet(input.CustomerFile)
	if err != nil {
		return Result{}, nil, err
	}
	customerRows, err := Parse(customerSheet, defaultYear)
	if err != nil {
		return Result{}, nil, err
	}

	databaseSheet, err := ReadSheet(input.DatabaseFile)
	if err != nil {
		return Result{}, nil, err
	}
	databaseRows, err := Parse(databaseSheet, defaultYear)
	if err != nil {
		return Result{}, nil, err
	}

	result := Compare(customerRows, databaseRows)
	report, err := BuildReport(customerRows, databaseRows)
	if err != nil {
		return Result{}, nil, err
	}
	return result, report, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Reconciliation, error) {
	return s.records.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context) ([]*Reconciliation, error) {
	return s.records.List(ctx)
}
