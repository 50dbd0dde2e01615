package leads

import (
	"context"
	"errors"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ErrLeadNotFound indicates the requested lead does not exist.
var ErrLeadNotFound = errors.New("leads: lead not found")

// ErrTemplateNotFound indicates no active KP template is configured.
var ErrTemplateNotFound = errors.New("leads: no active KP template")

// NotFoundError reports a missing record with enough context for the HTTP
// layer to map it to a 404.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

// EmailState narrows lists by contact address presence.
type EmailState string

const (
	EmailAny     EmailState = ""
	EmailWith    EmailState = "with"
	EmailWithout EmailState = "without"
)

// ReminderState narrows lists by attached note reminders.
type ReminderState string

const (
	ReminderAny     ReminderState = ""
	ReminderToday   ReminderState = "today"
	ReminderOverdue ReminderState = "overdue"
)

// ListOptions describes a filtered lead listing. Zero values leave the
// corresponding dimension unconstrained; Now anchors the day-relative
// filters and must be set when one of them is.
type ListOptions struct {
	Status       Status
	Source       string
	City         string
	ManagerID    *uuid.UUID
	ReadyForKP   bool
	Email        EmailState
	NoPhone      bool
	SourceToday  string
	KPSentBefore *time.Time
	Reminders    ReminderState
	Now          time.Time
	Limit        int
	Offset       int
}

// LeadRepository exposes persistence operations for sales leads.
type LeadRepository interface {
	Create(ctx context.Context, lead *SalesLead) (*SalesLead, error)
	GetByID(ctx context.Context, id uuid.UUID) (*SalesLead, error)
	ExistsByAdURL(ctx context.Context, adURL string) (bool, error)
	List(ctx context.Context, opts ListOptions) ([]*SalesLead, error)
	Update(ctx context.Context, lead *SalesLead) (*SalesLead, error)
}

// ManagerRepository exposes persistence operations for sales managers.
type ManagerRepository interface {
	Create(ctx context.Context, manager *Manager) (*Manager, error)
	ListActive(ctx context.Context) ([]*Manager, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Manager, error)
}

// NoteRepository exposes persistence operations for lead notes.
type NoteRepository interface {
	Create(ctx context.Context, note *LeadNote) (*LeadNote, error)
	GetByID(ctx context.Context, id uuid.UUID) (*LeadNote, error)
	ListByLead(ctx context.Context, leadID uuid.UUID) ([]*LeadNote, error)
	Update(ctx context.Context, note *LeadNote) (*LeadNote, error)
}

// TemplateRepository exposes persistence operations for KP templates.
type TemplateRepository interface {
	Upsert(ctx context.Context, template *KpTemplate) (*KpTemplate, error)
	GetActive(ctx context.Context) (*KpTemplate, error)
}

// StateRepository persists the round-robin distribution cursor.
type StateRepository interface {
	Get(ctx context.Context) (*RoundRobinState, error)
	Save(ctx context.Context, state *RoundRobinState) (*RoundRobinState, error)
}

// NewLeadRecordRepository creates the go-repository-bun handler set for SalesLead entities.
func NewLeadRecordRepository(db *bun.DB) repository.Repository[*SalesLead] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*SalesLead]{
		NewRecord: func() *SalesLead { return &SalesLead{} },
		GetID: func(l *SalesLead) uuid.UUID {
			return l.ID
		},
		SetID: func(l *SalesLead, id uuid.UUID) {
			l.ID = id
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(l *SalesLead) string {
			return l.ID.String()
		},
	})
}

// NewManagerRecordRepository creates the go-repository-bun handler set for Manager entities.
func NewManagerRecordRepository(db *bun.DB) repository.Repository[*Manager] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Manager]{
		NewRecord: func() *Manager { return &Manager{} },
		GetID: func(m *Manager) uuid.UUID {
			return m.ID
		},
		SetID: func(m *Manager, id uuid.UUID) {
			m.ID = id
		},
		GetIdentifier: func() string {
			return "email"
		},
		GetIdentifierValue: func(m *Manager) string {
			return m.Email
		},
	})
}

// NewNoteRecordRepository creates the go-repository-bun handler set for LeadNote entities.
func NewNoteRecordRepository(db *bun.DB) repository.Repository[*LeadNote] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*LeadNote]{
		NewRecord: func() *LeadNote { return &LeadNote{} },
		GetID: func(n *LeadNote) uuid.UUID {
			return n.ID
		},
		SetID: func(n *LeadNote, id uuid.UUID) {
			n.ID = id
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(n *LeadNote) string {
			return n.ID.String()
		},
	})
}

func mapRepositoryError(err error, resource, key string) error {
	if err == nil {
		return nil
	}

	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{Resource: resource, Key: key}
	}

	return fmt.Errorf("%s repository error: %w", resource, err)
}
