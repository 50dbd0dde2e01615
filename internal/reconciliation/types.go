// Package reconciliation compares the customer's hour report against the
// internal database export. Both arrive as xlsx files with free-form
// addresses, so rows are matched on a (date, normalized address) key and
// hour totals are compared per key.
package reconciliation

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Status tracks a reconciliation run through its lifecycle.
type Status string

const (
	StatusUploaded   Status = "uploaded"
	StatusProcessing Status = "processing"
	StatusDone       Status = "done"
	StatusError      Status = "error"
)

// Reconciliation is one comparison run: the two uploaded files, the text
// summary, and the generated xlsx report.
type Reconciliation struct {
	bun.BaseModel `bun:"table:reconciliations,alias:rc"`

	ID               uuid.UUID `bun:",pk,type:uuid" json:"id"`
	CustomerFileName string    `bun:"customer_file_name,notnull,default:''" json:"customer_file_name"`
	DatabaseFileName string    `bun:"database_file_name,notnull,default:''" json:"database_file_name"`
	Status           Status    `bun:"status,notnull,default:'uploaded'" json:"status"`
	Summary          string    `bun:"summary,notnull,default:''" json:"summary,omitempty"`
	Report           []byte    `bun:"report" json:"-"`
	ErrorMessage     string    `bun:"error_message,notnull,default:''" json:"error_message,omitempty"`
	CreatedAt        time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt        time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// RowKey identifies an hour entry: the work date plus the normalized
// address both files are matched on.
type RowKey struct {
	Date time.Time
	Addr string
}

// ParsedRow is one hour entry read from either file. AddrRaw keeps the
// spelling from the source file for display.
type ParsedRow struct {
	Key     RowKey
	AddrRaw string
	Hours   float64
}

// round2 keeps hour arithmetic on two decimal places, matching how the
// customer files carry them.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// dateOnly drops the time-of-day component so keys from both files line up.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
