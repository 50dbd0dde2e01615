package leads

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/goliatone/go-crm/internal/logging"
	"github.com/goliatone/go-crm/pkg/interfaces"
	"github.com/google/uuid"
)

// ErrDuplicateAdURL indicates a lead with the same advert URL already exists.
var ErrDuplicateAdURL = errors.New("leads: a lead with this ad URL already exists")

// ErrStatusInvalid indicates an unknown pipeline status.
var ErrStatusInvalid = errors.New("leads: unknown lead status")

// ErrNoActiveManagers indicates leads cannot be distributed because no manager
// is active.
var ErrNoActiveManagers = errors.New("leads: no active managers to distribute to")

const (
	defaultVacancy    = "Линейный персонал"
	defaultKPSubject  = "Kommercheskoe predlozhenie (KP)"
	defaultKPTextBody = "Здравствуйте! Направляем коммерческое предложение. Подробности в письме."
	defaultManager    = "Менеджер"

	maxFieldLen = 255
)

// Message is an outbound KP email.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Mailer delivers KP emails. Implementations wrap whatever transport the
// deployment uses.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// MailerFunc adapts a function to the Mailer interface.
type MailerFunc func(ctx context.Context, msg Message) error

func (f MailerFunc) Send(ctx context.Context, msg Message) error { return f(ctx, msg) }

// SendKPReport summarizes one send-KP batch.
type SendKPReport struct {
	Sent           int `json:"sent"`
	SkippedNoEmail int `json:"skipped_no_email"`
	SkippedAlready int `json:"skipped_already"`
	Errors         int `json:"errors"`
}

// Service exposes lead pipeline operations.
type Service interface {
	CreateLead(ctx context.Context, input CreateLeadInput) (*SalesLead, error)
	GetLead(ctx context.Context, id uuid.UUID) (*SalesLead, error)
	ListLeads(ctx context.Context, opts ListOptions) ([]*SalesLead, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*SalesLead, error)

	AssignNextManager(ctx context.Context, leadID uuid.UUID) (*Manager, error)

	AddNote(ctx context.Context, input AddNoteInput) (*LeadNote, error)
	CompleteNote(ctx context.Context, noteID uuid.UUID) (*LeadNote, error)
	NextReminder(ctx context.Context, leadID uuid.UUID) (*time.Time, error)

	SendKP(ctx context.Context, leadIDs []uuid.UUID) (SendKPReport, error)
	FillVacancies(ctx context.Context) (int, error)
}

// CreateLeadInput captures an inbound sales opportunity.
type CreateLeadInput struct {
	CompanyName string
	Source      string
	AdURL       string
	City        string
	Email       string
	Phone       string
	Vacancy     string
	WorkTypes   []string
	StaffCount  *int
	Comment     string
}

// Validate checks the input before it reaches persistence.
func (i CreateLeadInput) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.AdURL, validation.Required, is.URL),
		validation.Field(&i.Email, is.EmailFormat),
		validation.Field(&i.Source, validation.Required),
	)
}

// AddNoteInput captures a calendar entry for a lead.
type AddNoteInput struct {
	LeadID   uuid.UUID
	Title    string
	Text     string
	DueAt    *time.Time
	RemindAt *time.Time
	AuthorID *uuid.UUID
}

// Validate checks the input before it reaches persistence.
func (i AddNoteInput) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Title, validation.Required),
	)
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

// WithMailer wires the KP delivery transport.
func WithMailer(mailer Mailer) Option {
	return func(s *service) {
		if mailer != nil {
			s.mailer = mailer
		}
	}
}

type service struct {
	leads     LeadRepository
	managers  ManagerRepository
	notes     NoteRepository
	templates TemplateRepository
	state     StateRepository
	mailer    Mailer
	logger    interfaces.Logger
	clock     func() time.Time
}

// NewService wires a lead service over the given repositories.
func NewService(leadRepo LeadRepository, managerRepo ManagerRepository, noteRepo NoteRepository, templateRepo TemplateRepository, stateRepo StateRepository, opts ...Option) Service {
	s := &service{
		leads:     leadRepo,
		managers:  managerRepo,
		notes:     noteRepo,
		templates: templateRepo,
		state:     stateRepo,
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

func (s *service) CreateLead(ctx context.Context, input CreateLeadInput) (*SalesLead, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.leads.ExistsByAdURL(ctx, input.AdURL)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateAdURL
	}

	vacancy := strings.TrimSpace(input.Vacancy)
	if vacancy == "" {
		vacancy = vacancyFromAdURL(input.AdURL)
	}
	company := strings.TrimSpace(input.CompanyName)
	if company == "" {
		company = vacancy
	}

	now := s.clock()
	lead := &SalesLead{
		ID:          uuid.New(),
		CompanyName: truncate(company, maxFieldLen),
		Source:      strings.ToLower(strings.TrimSpace(input.Source)),
		AdURL:       input.AdURL,
		City:        strings.TrimSpace(input.City),
		Email:       strings.TrimSpace(input.Email),
		Phone:       strings.TrimSpace(input.Phone),
		Vacancy:     truncate(vacancy, maxFieldLen),
		WorkTypes:   input.WorkTypes,
		StaffCount:  input.StaffCount,
		Comment:     input.Comment,
		Status:      StatusNew,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if manager, err := s.nextManager(ctx); err == nil {
		lead.ManagerID = &manager.ID
	} else if !errors.Is(err, ErrNoActiveManagers) {
		return nil, err
	}

	return s.leads.Create(ctx, lead)
}

func (s *service) GetLead(ctx context.Context, id uuid.UUID) (*SalesLead, error) {
	return s.leads.GetByID(ctx, id)
}

func (s *service) ListLeads(ctx context.Context, opts ListOptions) ([]*SalesLead, error) {
	if opts.Now.IsZero() {
		opts.Now = s.clock()
	}
	return s.leads.List(ctx, opts)
}

func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*SalesLead, error) {
	if !status.Valid() {
		return nil, ErrStatusInvalid
	}
	lead, err := s.leads.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	lead.Status = status
	lead.UpdatedAt = s.clock()
	return s.leads.Update(ctx, lead)
}

// AssignNextManager hands the lead to the next active manager in the
// round-robin cycle and persists the cursor.
func (s *service) AssignNextManager(ctx context.Context, leadID uuid.UUID) (*Manager, error) {
	lead, err := s.leads.GetByID(ctx, leadID)
	if err != nil {
		return nil, err
	}
	manager, err := s.nextManager(ctx)
	if err != nil {
		return nil, err
	}
	lead.ManagerID = &manager.ID
	lead.UpdatedAt = s.clock()
	if _, err := s.leads.Update(ctx, lead); err != nil {
		return nil, err
	}
	return manager, nil
}

func (s *service) nextManager(ctx context.Context) (*Manager, error) {
	managers, err := s.managers.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if len(managers) == 0 {
		return nil, ErrNoActiveManagers
	}

	state, err := s.state.Get(ctx)
	if err != nil {
		return nil, err
	}

	next := managers[0]
	if state.LastManagerID != nil {
		for i, manager := range managers {
			if manager.ID == *state.LastManagerID {
				next = managers[(i+1)%len(managers)]
				break
			}
		}
	}

	state.LastManagerID = &next.ID
	if _, err := s.state.Save(ctx, state); err != nil {
		return nil, err
	}
	return next, nil
}

func (s *service) AddNote(ctx context.Context, input AddNoteInput) (*LeadNote, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.leads.GetByID(ctx, input.LeadID); err != nil {
		return nil, err
	}
	note := &LeadNote{
		ID:        uuid.New(),
		LeadID:    input.LeadID,
		Title:     input.Title,
		Text:      input.Text,
		DueAt:     input.DueAt,
		RemindAt:  input.RemindAt,
		AuthorID:  input.AuthorID,
		CreatedAt: s.clock(),
	}
	return s.notes.Create(ctx, note)
}

func (s *service) CompleteNote(ctx context.Context, noteID uuid.UUID) (*LeadNote, error) {
	note, err := s.notes.GetByID(ctx, noteID)
	if err != nil {
		return nil, err
	}
	note.IsDone = true
	return s.notes.Update(ctx, note)
}

// NextReminder returns the earliest open reminder attached to the lead, or
// nil when none is pending.
func (s *service) NextReminder(ctx context.Context, leadID uuid.UUID) (*time.Time, error) {
	notes, err := s.notes.ListByLead(ctx, leadID)
	if err != nil {
		return nil, err
	}
	var next *time.Time
	for _, note := range notes {
		if note.IsDone || note.RemindAt == nil {
			continue
		}
		if next == nil || note.RemindAt.Before(*next) {
			at := *note.RemindAt
			next = &at
		}
	}
	return next, nil
}

// SendKP emails the commercial proposal to each selected lead and marks it as
// sent. One bad lead never aborts the batch; failures land in the report.
func (s *service) SendKP(ctx context.Context, leadIDs []uuid.UUID) (SendKPReport, error) {
	var report SendKPReport

	template, err := s.templates.GetActive(ctx)
	if err != nil && !errors.Is(err, ErrTemplateNotFound) {
		return report, err
	}

	for _, id := range leadIDs {
		lead, err := s.leads.GetByID(ctx, id)
		if err != nil {
			report.Errors++
			s.logger.Error("send KP: lead lookup failed", "lead_id", id.String(), "error", err)
			continue
		}
		if !lead.HasEmail() {
			report.SkippedNoEmail++
			continue
		}
		if lead.KPSentAt != nil {
			report.SkippedAlready++
			continue
		}

		if err := s.deliverKP(ctx, lead, template); err != nil {
			report.Errors++
			s.logger.Error("send KP: delivery failed", "lead_id", lead.ID.String(), "email", lead.Email, "error", err)
			continue
		}

		now := s.clock()
		lead.Status = StatusKPSent
		lead.KPSentAt = &now
		lead.UpdatedAt = now
		if _, err := s.leads.Update(ctx, lead); err != nil {
			report.Errors++
			s.logger.Error("send KP: status update failed", "lead_id", lead.ID.String(), "error", err)
			continue
		}
		report.Sent++
	}

	s.logger.Info("send KP batch finished",
		"sent", report.Sent,
		"skipped_no_email", report.SkippedNoEmail,
		"skipped_already", report.SkippedAlready,
		"errors", report.Errors,
	)
	return report, nil
}

func (s *service) deliverKP(ctx context.Context, lead *SalesLead, template *KpTemplate) error {
	if s.mailer == nil {
		return errors.New("leads: no mailer configured")
	}

	managerName := defaultManager
	if lead.ManagerID != nil {
		if manager, err := s.managers.GetByID(ctx, *lead.ManagerID); err == nil {
			managerName = manager.FullName
		}
	}

	renderCtx := RenderContext(lead, managerName)
	msg := Message{
		To:      lead.Email,
		Subject: defaultKPSubject,
		Text:    defaultKPTextBody,
	}
	if template != nil {
		if template.Subject != "" {
			msg.Subject = RenderTemplate(template.Subject, renderCtx)
		}
		if text := RenderTemplate(template.TextBody, renderCtx); strings.TrimSpace(text) != "" {
			msg.Text = text
		}
		if template.Markdown != "" {
			htmlBody, err := RenderHTML(RenderTemplate(template.Markdown, renderCtx))
			if err != nil {
				return err
			}
			msg.HTML = htmlBody
		}
	}

	return s.mailer.Send(ctx, msg)
}

// FillVacancies backfills empty vacancy fields from the advert URL and
// returns the number of updated leads. Empty company names fall back to the
// vacancy.
func (s *service) FillVacancies(ctx context.Context) (int, error) {
	leads, err := s.leads.List(ctx, ListOptions{Now: s.clock()})
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, lead := range leads {
		if strings.TrimSpace(lead.Vacancy) != "" {
			continue
		}
		lead.Vacancy = truncate(vacancyFromAdURL(lead.AdURL), maxFieldLen)
		if strings.TrimSpace(lead.CompanyName) == "" {
			lead.CompanyName = lead.Vacancy
		}
		lead.UpdatedAt = s.clock()
		if _, err := s.leads.Update(ctx, lead); err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}

// vacancyFromAdURL derives a human readable vacancy name from the last path
// segment of the advert URL.
func vacancyFromAdURL(adURL string) string {
	parsed, err := url.Parse(adURL)
	if err != nil {
		return defaultVacancy
	}
	path := strings.Trim(parsed.Path, "/")
	if path == "" {
		return defaultVacancy
	}
	segments := strings.Split(path, "/")
	last := segments[len(segments)-1]
	last = strings.NewReplacer("-", " ", "_", " ").Replace(last)
	last = strings.TrimSpace(last)
	if last == "" {
		return defaultVacancy
	}
	return titleCase(last)
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		for j := 1; j < len(runes); j++ {
			runes[j] = unicode.ToLower(runes[j])
		}
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
