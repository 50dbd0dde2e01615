package stores

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ServiceType distinguishes the two services a store can request.
type ServiceType string

const (
	ServiceMerchandising ServiceType = "merch"
	ServiceCleaning      ServiceType = "cleaning"
)

// Valid reports whether the service type is one of the known values.
func (s ServiceType) Valid() bool {
	return s == ServiceMerchandising || s == ServiceCleaning
}

// RequiredPosition maps a service type to the position an employee must hold
// to work it.
func (s ServiceType) RequiredPosition() Position {
	if s == ServiceCleaning {
		return PositionCleaner
	}
	return PositionHallWorker
}

// Position identifies an employee role.
type Position string

const (
	PositionHallWorker Position = "hall_worker"
	PositionCleaner    Position = "cleaner"
)

// StoreStatus tracks whether a store is operating.
type StoreStatus string

const (
	StoreOpen   StoreStatus = "open"
	StoreClosed StoreStatus = "closed"
)

// Store is a serviced retail location. City plus address is unique; the raw
// address preserves the spelling used by the customer's spreadsheets.
type Store struct {
	bun.BaseModel `bun:"table:stores,alias:s"`

	ID                   uuid.UUID   `bun:",pk,type:uuid" json:"id"`
	City                 string      `bun:"city,notnull" json:"city"`
	Address              string      `bun:"address,notnull" json:"address"`
	AddressRaw           string      `bun:"address_raw,notnull" json:"address_raw"`
	Status               StoreStatus `bun:"status,notnull,default:'open'" json:"status"`
	AssignedEmployeeID   *uuid.UUID  `bun:"assigned_employee_id,type:uuid" json:"assigned_employee_id,omitempty"`
	CurrentHoursMerch    float64     `bun:"current_hours_merch,notnull,default:0" json:"current_hours_merch"`
	CurrentHoursCleaning float64     `bun:"current_hours_cleaning,notnull,default:0" json:"current_hours_cleaning"`
	CreatedAt            time.Time   `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt            time.Time   `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`

	AssignedEmployee *Employee `bun:"rel:belongs-to,join:assigned_employee_id=id" json:"assigned_employee,omitempty"`
}

// Label renders the store the way admin rows display it.
func (s *Store) Label() string {
	if s == nil {
		return ""
	}
	return s.City + ", " + s.Address
}

// Employee is a field worker that can be assigned to stores and shifts.
// FullNameNorm is maintained on every write so lookups stay case-insensitive.
type Employee struct {
	bun.BaseModel `bun:"table:employees,alias:e"`

	ID            uuid.UUID  `bun:",pk,type:uuid" json:"id"`
	FullName      string     `bun:"full_name,notnull" json:"full_name"`
	FullNameNorm  string     `bun:"full_name_norm,notnull,default:''" json:"full_name_norm"`
	Email         string     `bun:"email,notnull,unique" json:"email"`
	Positions     []Position `bun:"positions,type:jsonb" json:"positions,omitempty"`
	CardNumber    string     `bun:"card_number,notnull,default:''" json:"card_number"`
	AccountNumber string     `bun:"account_number,notnull,default:''" json:"account_number"`
	BIK           string     `bun:"bik,notnull,default:''" json:"bik"`
	BankName      string     `bun:"bank_name,notnull,default:''" json:"bank_name"`
	IsActive      bool       `bun:"is_active,notnull,default:true" json:"is_active"`
	CreatedAt     time.Time  `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time  `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// Normalize refreshes the derived lookup fields.
func (e *Employee) Normalize() {
	e.FullNameNorm = NormalizeName(e.FullName)
}

// HasPosition reports whether the employee holds the given position.
func (e *Employee) HasPosition(p Position) bool {
	if e == nil {
		return false
	}
	for _, held := range e.Positions {
		if held == p {
			return true
		}
	}
	return false
}

// NormalizeName folds a person's name for case-insensitive matching.
func NormalizeName(name string) string {
	folded := strings.ToLower(strings.TrimSpace(name))
	return strings.Join(strings.Fields(folded), " ")
}

// StoreShift records one service slot at a store on a date. Store, date, and
// service type are unique together; the employee may stay unset until the
// slot is staffed.
type StoreShift struct {
	bun.BaseModel `bun:"table:store_shifts,alias:ss"`

	ID          uuid.UUID   `bun:",pk,type:uuid" json:"id"`
	StoreID     uuid.UUID   `bun:"store_id,notnull,type:uuid" json:"store_id"`
	Date        time.Time   `bun:"date,notnull" json:"date"`
	ServiceType ServiceType `bun:"service_type,notnull" json:"service_type"`
	EmployeeID  *uuid.UUID  `bun:"employee_id,type:uuid" json:"employee_id,omitempty"`
	Hours       float64     `bun:"hours,notnull,default:0" json:"hours"`
	Comment     string      `bun:"comment,notnull,default:''" json:"comment"`
	CreatedAt   time.Time   `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt   time.Time   `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`

	Store    *Store    `bun:"rel:belongs-to,join:store_id=id" json:"store,omitempty"`
	Employee *Employee `bun:"rel:belongs-to,join:employee_id=id" json:"employee,omitempty"`
}
