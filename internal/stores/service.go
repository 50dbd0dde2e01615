package stores

import (
	"context"
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/goliatone/go-crm/internal/logging"
	"github.com/goliatone/go-crm/pkg/interfaces"
	"github.com/google/uuid"
)

// ErrServiceTypeInvalid indicates an unknown service type was supplied.
var ErrServiceTypeInvalid = errors.New("stores: service type must be merch or cleaning")

// ErrEmployeeInactive indicates an inactive employee was offered for work.
var ErrEmployeeInactive = errors.New("stores: cannot assign an inactive employee")

// ErrPositionMismatch indicates the employee does not hold the position the
// service requires.
var ErrPositionMismatch = errors.New("stores: employee position does not match the service")

// ErrHoursInvalid indicates a negative hour amount.
var ErrHoursInvalid = errors.New("stores: hours must be zero or positive")

// Service exposes store, employee, and shift operations.
type Service interface {
	CreateStore(ctx context.Context, input CreateStoreInput) (*Store, error)
	GetStore(ctx context.Context, id uuid.UUID) (*Store, error)
	ListStores(ctx context.Context) ([]*Store, error)
	UpsertStoreByAddress(ctx context.Context, city, address, addressRaw string) (*Store, bool, error)
	SetCurrentHours(ctx context.Context, service ServiceType, hours map[uuid.UUID]float64) error
	AssignStoreEmployee(ctx context.Context, storeID uuid.UUID, employeeID *uuid.UUID) (*Store, error)

	CreateEmployee(ctx context.Context, input CreateEmployeeInput) (*Employee, error)
	GetEmployee(ctx context.Context, id uuid.UUID) (*Employee, error)
	SearchEmployees(ctx context.Context, query SearchQuery) ([]*Employee, error)

	AssignShift(ctx context.Context, input AssignShiftInput) (*StoreShift, error)
	ListShifts(ctx context.Context, storeID uuid.UUID) ([]*StoreShift, error)
}

// CreateStoreInput captures the fields needed to register a store.
type CreateStoreInput struct {
	City       string
	Address    string
	AddressRaw string
}

// Validate checks the input before it reaches persistence.
func (i CreateStoreInput) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.City, validation.Required),
		validation.Field(&i.Address, validation.Required),
	)
}

// CreateEmployeeInput captures the fields needed to register an employee.
type CreateEmployeeInput struct {
	FullName      string
	Email         string
	Positions     []Position
	CardNumber    string
	AccountNumber string
	BIK           string
	BankName      string
}

// Validate checks the input before it reaches persistence.
func (i CreateEmployeeInput) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.FullName, validation.Required),
		validation.Field(&i.Email, validation.Required, is.EmailFormat),
	)
}

// AssignShiftInput captures a staffing decision for one store slot. A nil
// EmployeeID clears the slot.
type AssignShiftInput struct {
	StoreID     uuid.UUID
	Date        time.Time
	ServiceType ServiceType
	EmployeeID  *uuid.UUID
	Hours       float64
	Comment     string
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

// WithClock overrides the clock used for timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

type service struct {
	stores    StoreRepository
	employees EmployeeRepository
	shifts    ShiftRepository
	logger    interfaces.Logger
	clock     func() time.Time
}

// NewService wires a store service over the given repositories.
func NewService(storeRepo StoreRepository, employeeRepo EmployeeRepository, shiftRepo ShiftRepository, opts ...Option) Service {
	s := &service{
		stores:    storeRepo,
		employees: employeeRepo,
		shifts:    shiftRepo,
		logger:    logging.NoOp(),
		clock:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *service) CreateStore(ctx context.Context, input CreateStoreInput) (*Store, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	now := s.clock()
	store := &Store{
		ID:         uuid.New(),
		City:       input.City,
		Address:    input.Address,
		AddressRaw: input.AddressRaw,
		Status:     StoreOpen,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if store.AddressRaw == "" {
		store.AddressRaw = input.City + ", " + input.Address
	}
	return s.stores.Create(ctx, store)
}

func (s *service) GetStore(ctx context.Context, id uuid.UUID) (*Store, error) {
	return s.stores.GetByID(ctx, id)
}

func (s *service) ListStores(ctx context.Context) ([]*Store, error) {
	return s.stores.List(ctx)
}

// UpsertStoreByAddress finds or creates a store by its address key, the way
// spreadsheet imports reference locations. The raw spelling is refreshed when
// it drifts.
func (s *service) UpsertStoreByAddress(ctx context.Context, city, address, addressRaw string) (*Store, bool, error) {
	existing, err := s.stores.GetByAddress(ctx, city, address)
	if err == nil {
		if addressRaw != "" && existing.AddressRaw != addressRaw {
			existing.AddressRaw = addressRaw
			existing.UpdatedAt = s.clock()
			updated, uerr := s.stores.Update(ctx, existing)
			if uerr != nil {
				return nil, false, uerr
			}
			return updated, false, nil
		}
		return existing, false, nil
	}

	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		return nil, false, err
	}

	store, err := s.CreateStore(ctx, CreateStoreInput{City: city, Address: address, AddressRaw: addressRaw})
	if err != nil {
		return nil, false, err
	}
	return store, true, nil
}

// SetCurrentHours replaces the running hour totals for the given service
// type. Stores missing from the map are reset to zero, matching how each
// request file supersedes the previous one.
func (s *service) SetCurrentHours(ctx context.Context, service ServiceType, hours map[uuid.UUID]float64) error {
	if !service.Valid() {
		return ErrServiceTypeInvalid
	}
	all, err := s.stores.List(ctx)
	if err != nil {
		return err
	}
	for _, store := range all {
		total := hours[store.ID]
		if total < 0 {
			return ErrHoursInvalid
		}
		switch service {
		case ServiceMerchandising:
			if store.CurrentHoursMerch == total {
				continue
			}
			store.CurrentHoursMerch = total
		case ServiceCleaning:
			if store.CurrentHoursCleaning == total {
				continue
			}
			store.CurrentHoursCleaning = total
		}
		store.UpdatedAt = s.clock()
		if _, err := s.stores.Update(ctx, store); err != nil {
			return err
		}
	}
	return nil
}

// AssignStoreEmployee points the store at the employee responsible for it,
// the dimension the scoped autocomplete narrows by. A nil employeeID clears
// the assignment. Only active employees qualify.
func (s *service) AssignStoreEmployee(ctx context.Context, storeID uuid.UUID, employeeID *uuid.UUID) (*Store, error) {
	store, err := s.stores.GetByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if employeeID != nil {
		employee, err := s.employees.GetByID(ctx, *employeeID)
		if err != nil {
			return nil, err
		}
		if !employee.IsActive {
			return nil, ErrEmployeeInactive
		}
	}
	store.AssignedEmployeeID = employeeID
	store.UpdatedAt = s.clock()
	return s.stores.Update(ctx, store)
}

func (s *service) CreateEmployee(ctx context.Context, input CreateEmployeeInput) (*Employee, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	now := s.clock()
	employee := &Employee{
		ID:            uuid.New(),
		FullName:      input.FullName,
		Email:         input.Email,
		Positions:     input.Positions,
		CardNumber:    input.CardNumber,
		AccountNumber: input.AccountNumber,
		BIK:           input.BIK,
		BankName:      input.BankName,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	employee.Normalize()
	return s.employees.Create(ctx, employee)
}

func (s *service) GetEmployee(ctx context.Context, id uuid.UUID) (*Employee, error) {
	return s.employees.GetByID(ctx, id)
}

func (s *service) SearchEmployees(ctx context.Context, query SearchQuery) ([]*Employee, error) {
	results, err := s.employees.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	scope := "unscoped"
	if query.StoreID != nil {
		scope = query.StoreID.String()
	}
	s.logger.Debug("employee search", "term", query.Term, "store", scope, "results", len(results))
	return results, nil
}

// AssignShift creates or updates the slot identified by store, date, and
// service type. The staffing rules from the admin forms apply: only active
// employees holding the position the service requires can be assigned.
func (s *service) AssignShift(ctx context.Context, input AssignShiftInput) (*StoreShift, error) {
	if !input.ServiceType.Valid() {
		return nil, ErrServiceTypeInvalid
	}
	if input.Hours < 0 {
		return nil, ErrHoursInvalid
	}
	if _, err := s.stores.GetByID(ctx, input.StoreID); err != nil {
		return nil, err
	}
	if input.EmployeeID != nil {
		employee, err := s.employees.GetByID(ctx, *input.EmployeeID)
		if err != nil {
			return nil, err
		}
		if !employee.IsActive {
			return nil, ErrEmployeeInactive
		}
		if !employee.HasPosition(input.ServiceType.RequiredPosition()) {
			return nil, ErrPositionMismatch
		}
	}

	now := s.clock()
	existing, err := s.shifts.GetByKey(ctx, input.StoreID, input.Date, input.ServiceType)
	if err == nil {
		existing.EmployeeID = input.EmployeeID
		existing.Hours = input.Hours
		existing.Comment = input.Comment
		existing.UpdatedAt = now
		return s.shifts.Update(ctx, existing)
	}
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		return nil, err
	}

	return s.shifts.Create(ctx, &StoreShift{
		ID:          uuid.New(),
		StoreID:     input.StoreID,
		Date:        input.Date,
		ServiceType: input.ServiceType,
		EmployeeID:  input.EmployeeID,
		Hours:       input.Hours,
		Comment:     input.Comment,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (s *service) ListShifts(ctx context.Context, storeID uuid.UUID) ([]*StoreShift, error) {
	return s.shifts.ListByStore(ctx, storeID)
}
