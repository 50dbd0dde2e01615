package stores

import (
	"context"
	"errors"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ErrStoreNotFound indicates the requested store does not exist.
var ErrStoreNotFound = errors.New("stores: store not found")

// ErrEmployeeNotFound indicates the requested employee does not exist.
var ErrEmployeeNotFound = errors.New("stores: employee not found")

// ErrShiftNotFound indicates the requested shift does not exist.
var ErrShiftNotFound = errors.New("stores: shift not found")

// SearchQuery narrows an employee lookup. StoreID carries the contextual
// identifier injected by the search augmenter; nil means the lookup is
// unscoped, which is distinct from an empty identifier that never reaches
// this layer.
type SearchQuery struct {
	Term    string
	StoreID *uuid.UUID
	Limit   int
}

// StoreRepository exposes persistence operations for stores.
type StoreRepository interface {
	Create(ctx context.Context, store *Store) (*Store, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Store, error)
	GetByAddress(ctx context.Context, city, address string) (*Store, error)
	List(ctx context.Context) ([]*Store, error)
	Update(ctx context.Context, store *Store) (*Store, error)
}

// EmployeeRepository exposes persistence operations for employees.
type EmployeeRepository interface {
	Create(ctx context.Context, employee *Employee) (*Employee, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Employee, error)
	GetByEmail(ctx context.Context, email string) (*Employee, error)
	List(ctx context.Context) ([]*Employee, error)
	Update(ctx context.Context, employee *Employee) (*Employee, error)
	Search(ctx context.Context, query SearchQuery) ([]*Employee, error)
}

// ShiftRepository exposes persistence operations for store shifts.
type ShiftRepository interface {
	Create(ctx context.Context, shift *StoreShift) (*StoreShift, error)
	GetByKey(ctx context.Context, storeID uuid.UUID, date time.Time, service ServiceType) (*StoreShift, error)
	ListByStore(ctx context.Context, storeID uuid.UUID) ([]*StoreShift, error)
	Update(ctx context.Context, shift *StoreShift) (*StoreShift, error)
}

// NewStoreRecordRepository creates the go-repository-bun handler set for Store entities.
func NewStoreRecordRepository(db *bun.DB) repository.Repository[*Store] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Store]{
		NewRecord: func() *Store { return &Store{} },
		GetID: func(s *Store) uuid.UUID {
			return s.ID
		},
		SetID: func(s *Store, id uuid.UUID) {
			s.ID = id
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(s *Store) string {
			return s.ID.String()
		},
	})
}

// NewEmployeeRecordRepository creates the go-repository-bun handler set for Employee entities.
func NewEmployeeRecordRepository(db *bun.DB) repository.Repository[*Employee] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Employee]{
		NewRecord: func() *Employee { return &Employee{} },
		GetID: func(e *Employee) uuid.UUID {
			return e.ID
		},
		SetID: func(e *Employee, id uuid.UUID) {
			e.ID = id
		},
		GetIdentifier: func() string {
			return "email"
		},
		GetIdentifierValue: func(e *Employee) string {
			return e.Email
		},
	})
}

// NewShiftRecordRepository creates the go-repository-bun handler set for StoreShift entities.
func NewShiftRecordRepository(db *bun.DB) repository.Repository[*StoreShift] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*StoreShift]{
		NewRecord: func() *StoreShift { return &StoreShift{} },
		GetID: func(s *StoreShift) uuid.UUID {
			return s.ID
		},
		SetID: func(s *StoreShift, id uuid.UUID) {
			s.ID = id
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(s *StoreShift) string {
			return s.ID.String()
		},
	})
}
