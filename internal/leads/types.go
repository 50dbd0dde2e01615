package leads

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Status tracks a lead through the sales pipeline.
type Status string

const (
	StatusNew         Status = "new"
	StatusKPSent      Status = "kp_sent"
	StatusReply       Status = "reply"
	StatusNegotiation Status = "negotiation"
	StatusAgreement   Status = "agreement"
	StatusDeal        Status = "deal"
	StatusRejected    Status = "rejected"
)

// Statuses lists every pipeline stage in order. The admin filter dropdown is
// built from this list.
func Statuses() []Status {
	return []Status{
		StatusNew, StatusKPSent, StatusReply, StatusNegotiation,
		StatusAgreement, StatusDeal, StatusRejected,
	}
}

// Valid reports whether the status is a known pipeline stage.
func (s Status) Valid() bool {
	for _, known := range Statuses() {
		if s == known {
			return true
		}
	}
	return false
}

// Source identifiers recognized by the importer.
const (
	SourceHH    = "hh"
	SourceAvito = "avito"
)

// SalesLead is one inbound sales opportunity, usually harvested from a job
// board advert.
type SalesLead struct {
	bun.BaseModel `bun:"table:sales_leads,alias:sl"`

	ID          uuid.UUID  `bun:",pk,type:uuid" json:"id"`
	CompanyName string     `bun:"company_name,notnull,default:''" json:"company_name"`
	Source      string     `bun:"source,notnull,default:''" json:"source"`
	AdURL       string     `bun:"ad_url,notnull,default:''" json:"ad_url"`
	City        string     `bun:"city,notnull,default:''" json:"city"`
	Email       string     `bun:"email,notnull,default:''" json:"email"`
	Phone       string     `bun:"phone,notnull,default:''" json:"phone"`
	Vacancy     string     `bun:"vacancy,notnull,default:''" json:"vacancy"`
	WorkTypes   []string   `bun:"work_types,type:jsonb" json:"work_types,omitempty"`
	StaffCount  *int       `bun:"staff_count" json:"staff_count,omitempty"`
	Comment     string     `bun:"comment,notnull,default:''" json:"comment"`
	Status      Status     `bun:"status,notnull,default:'new'" json:"status"`
	ManagerID   *uuid.UUID `bun:"manager_id,type:uuid" json:"manager_id,omitempty"`
	KPSentAt    *time.Time `bun:"kp_sent_at,nullzero" json:"kp_sent_at,omitempty"`
	CreatedAt   time.Time  `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt   time.Time  `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`

	Manager *Manager    `bun:"rel:belongs-to,join:manager_id=id" json:"manager,omitempty"`
	Notes   []*LeadNote `bun:"rel:has-many,join:id=lead_id" json:"notes,omitempty"`
}

// HasEmail reports whether the lead carries a contact address.
func (l *SalesLead) HasEmail() bool {
	return l != nil && strings.TrimSpace(l.Email) != ""
}

// Manager is a sales person leads get distributed to.
type Manager struct {
	bun.BaseModel `bun:"table:managers,alias:mg"`

	ID        uuid.UUID `bun:",pk,type:uuid" json:"id"`
	FullName  string    `bun:"full_name,notnull" json:"full_name"`
	Email     string    `bun:"email,notnull,unique" json:"email"`
	IsActive  bool      `bun:"is_active,notnull,default:true" json:"is_active"`
	CreatedAt time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
}

// LeadNote is a calendar entry attached to a lead: a free-form note with
// optional due and reminder timestamps.
type LeadNote struct {
	bun.BaseModel `bun:"table:lead_notes,alias:ln"`

	ID         uuid.UUID  `bun:",pk,type:uuid" json:"id"`
	LeadID     uuid.UUID  `bun:"lead_id,notnull,type:uuid" json:"lead_id"`
	Title      string     `bun:"title,notnull,default:''" json:"title"`
	Text       string     `bun:"text,notnull,default:''" json:"text"`
	DueAt      *time.Time `bun:"due_at,nullzero" json:"due_at,omitempty"`
	RemindAt   *time.Time `bun:"remind_at,nullzero" json:"remind_at,omitempty"`
	IsDone     bool       `bun:"is_done,notnull,default:false" json:"is_done"`
	RemindedAt *time.Time `bun:"reminded_at,nullzero" json:"reminded_at,omitempty"`
	AuthorID   *uuid.UUID `bun:"author_id,type:uuid" json:"author_id,omitempty"`
	CreatedAt  time.Time  `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
}

// KpTemplate holds the commercial proposal email. The body is authored in
// markdown and rendered to HTML on send; TextBody is the plain alternative.
type KpTemplate struct {
	bun.BaseModel `bun:"table:kp_templates,alias:kt"`

	ID        uuid.UUID `bun:",pk,type:uuid" json:"id"`
	Name      string    `bun:"name,notnull,default:'Default template'" json:"name"`
	IsActive  bool      `bun:"is_active,notnull,default:true" json:"is_active"`
	Subject   string    `bun:"subject,notnull" json:"subject"`
	TextBody  string    `bun:"text_body,notnull,default:''" json:"text_body"`
	Markdown  string    `bun:"markdown,notnull,default:''" json:"markdown"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// RoundRobinState remembers which manager received the previous lead so
// distribution keeps cycling across imports and restarts.
type RoundRobinState struct {
	bun.BaseModel `bun:"table:lead_round_robin_state,alias:rr"`

	ID            uuid.UUID  `bun:",pk,type:uuid" json:"id"`
	LastManagerID *uuid.UUID `bun:"last_manager_id,type:uuid" json:"last_manager_id,omitempty"`
	UpdatedAt     time.Time  `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}
