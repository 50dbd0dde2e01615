package leads

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryNoteRepository is an in-memory NoteRepository for tests and examples.
type MemoryNoteRepository struct {
	mu    sync.RWMutex
	notes map[uuid.UUID]*LeadNote
}

// NewMemoryNoteRepository creates an empty in-memory note repository.
func NewMemoryNoteRepository() *MemoryNoteRepository {
	return &MemoryNoteRepository{notes: map[uuid.UUID]*LeadNote{}}
}

func (r *MemoryNoteRepository) Create(_ context.Context, note *LeadNote) (*LeadNote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *note
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	r.notes[stored.ID] = &stored

	result := stored
	return &result, nil
}

func (r *MemoryNoteRepository) GetByID(_ context.Context, id uuid.UUID) (*LeadNote, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	note, ok := r.notes[id]
	if !ok {
		return nil, &NotFoundError{Resource: "note", Key: id.String()}
	}
	result := *note
	return &result, nil
}

func (r *MemoryNoteRepository) ListByLead(_ context.Context, leadID uuid.UUID) ([]*LeadNote, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*LeadNote
	for _, note := range r.notes {
		if note.LeadID != leadID {
			continue
		}
		copied := *note
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *MemoryNoteRepository) Update(_ context.Context, note *LeadNote) (*LeadNote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.notes[note.ID]; !ok {
		return nil, &NotFoundError{Resource: "note", Key: note.ID.String()}
	}
	stored := *note
	r.notes[stored.ID] = &stored

	result := stored
	return &result, nil
}

// pendingReminders returns the open reminder timestamps attached to a lead.
func (r *MemoryNoteRepository) pendingReminders(leadID uuid.UUID) []time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []time.Time
	for _, note := range r.notes {
		if note.LeadID != leadID || note.IsDone || note.RemindAt == nil {
			continue
		}
		result = append(result, *note.RemindAt)
	}
	return result
}

// MemoryLeadRepository is an in-memory LeadRepository for tests and examples.
// It consults the note repository so reminder filters behave like the SQL
// implementation.
type MemoryLeadRepository struct {
	mu    sync.RWMutex
	leads map[uuid.UUID]*SalesLead
	notes *MemoryNoteRepository
}

// NewMemoryLeadRepository creates an empty in-memory lead repository backed by
// the given note repository.
func NewMemoryLeadRepository(notes *MemoryNoteRepository) *MemoryLeadRepository {
	if notes == nil {
		notes = NewMemoryNoteRepository()
	}
	return &MemoryLeadRepository{leads: map[uuid.UUID]*SalesLead{}, notes: notes}
}

func (r *MemoryLeadRepository) Create(_ context.Context, lead *SalesLead) (*SalesLead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *lead
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	now := time.Now().UTC()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = now
	}
	r.leads[stored.ID] = &stored

	result := stored
	return &result, nil
}

func (r *MemoryLeadRepository) GetByID(_ context.Context, id uuid.UUID) (*SalesLead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lead, ok := r.leads[id]
	if !ok {
		return nil, &NotFoundError{Resource: "lead", Key: id.String()}
	}
	result := *lead
	return &result, nil
}

func (r *MemoryLeadRepository) ExistsByAdURL(_ context.Context, adURL string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, lead := range r.leads {
		if lead.AdURL == adURL {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryLeadRepository) List(_ context.Context, opts ListOptions) ([]*SalesLead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*SalesLead
	for _, lead := range r.leads {
		if !r.matches(lead, opts) {
			continue
		}
		copied := *lead
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if opts.Offset > 0 {
		if opts.Offset >= len(result) {
			return nil, nil
		}
		result = result[opts.Offset:]
	}
	if opts.Limit > 0 && len(result) > opts.Limit {
		result = result[:opts.Limit]
	}
	return result, nil
}

func (r *MemoryLeadRepository) Update(_ context.Context, lead *SalesLead) (*SalesLead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.leads[lead.ID]
	if !ok {
		return nil, &NotFoundError{Resource: "lead", Key: lead.ID.String()}
	}
	updated := *lead
	updated.CreatedAt = stored.CreatedAt
	updated.UpdatedAt = time.Now().UTC()
	r.leads[updated.ID] = &updated

	result := updated
	return &result, nil
}

func (r *MemoryLeadRepository) matches(lead *SalesLead, opts ListOptions) bool {
	if opts.Status != "" && lead.Status != opts.Status {
		return false
	}
	if source := strings.TrimSpace(opts.Source); source != "" && !strings.EqualFold(lead.Source, source) {
		return false
	}
	if city := strings.TrimSpace(opts.City); city != "" && lead.City != city {
		return false
	}
	if opts.ManagerID != nil {
		if lead.ManagerID == nil || *lead.ManagerID != *opts.ManagerID {
			return false
		}
	}
	if opts.ReadyForKP && (lead.Status != StatusNew || lead.Email == "") {
		return false
	}
	switch opts.Email {
	case EmailWith:
		if lead.Email == "" {
			return false
		}
	case EmailWithout:
		if lead.Email != "" {
			return false
		}
	}
	if opts.NoPhone && lead.Phone != "" {
		return false
	}
	if source := strings.TrimSpace(opts.SourceToday); source != "" {
		if !strings.EqualFold(lead.Source, source) {
			return false
		}
		if !sameDay(lead.CreatedAt, opts.Now) {
			return false
		}
	}
	if opts.KPSentBefore != nil {
		if lead.Status != StatusKPSent || lead.KPSentAt == nil || lead.KPSentAt.After(*opts.KPSentBefore) {
			return false
		}
	}
	switch opts.Reminders {
	case ReminderToday:
		if !r.hasReminder(lead.ID, func(at time.Time) bool { return sameDay(at, opts.Now) }) {
			return false
		}
	case ReminderOverdue:
		if !r.hasReminder(lead.ID, func(at time.Time) bool { return at.Before(opts.Now) }) {
			return false
		}
	}
	return true
}

func (r *MemoryLeadRepository) hasReminder(leadID uuid.UUID, match func(time.Time) bool) bool {
	for _, at := range r.notes.pendingReminders(leadID) {
		if match(at) {
			return true
		}
	}
	return false
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// MemoryManagerRepository is an in-memory ManagerRepository for tests and examples.
type MemoryManagerRepository struct {
	mu       sync.RWMutex
	managers map[uuid.UUID]*Manager
}

// NewMemoryManagerRepository creates an empty in-memory manager repository.
func NewMemoryManagerRepository() *MemoryManagerRepository {
	return &MemoryManagerRepository{managers: map[uuid.UUID]*Manager{}}
}

func (r *MemoryManagerRepository) Create(_ context.Context, manager *Manager) (*Manager, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *manager
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	r.managers[stored.ID] = &stored

	result := stored
	return &result, nil
}

func (r *MemoryManagerRepository) GetByID(_ context.Context, id uuid.UUID) (*Manager, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	manager, ok := r.managers[id]
	if !ok {
		return nil, &NotFoundError{Resource: "manager", Key: id.String()}
	}
	result := *manager
	return &result, nil
}

func (r *MemoryManagerRepository) ListActive(_ context.Context) ([]*Manager, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*Manager
	for _, manager := range r.managers {
		if !manager.IsActive {
			continue
		}
		copied := *manager
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// MemoryTemplateRepository is an in-memory TemplateRepository for tests and examples.
type MemoryTemplateRepository struct {
	mu        sync.RWMutex
	templates map[uuid.UUID]*KpTemplate
}

// NewMemoryTemplateRepository creates an empty in-memory template repository.
func NewMemoryTemplateRepository() *MemoryTemplateRepository {
	return &MemoryTemplateRepository{templates: map[uuid.UUID]*KpTemplate{}}
}

func (r *MemoryTemplateRepository) Upsert(_ context.Context, template *KpTemplate) (*KpTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *template
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	stored.UpdatedAt = time.Now().UTC()
	r.templates[stored.ID] = &stored

	result := stored
	return &result, nil
}

func (r *MemoryTemplateRepository) GetActive(_ context.Context) (*KpTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *KpTemplate
	for _, template := range r.templates {
		if !template.IsActive {
			continue
		}
		if latest == nil || template.UpdatedAt.After(latest.UpdatedAt) {
			latest = template
		}
	}
	if latest == nil {
		return nil, ErrTemplateNotFound
	}
	result := *latest
	return &result, nil
}

// MemoryStateRepository is an in-memory StateRepository for tests and examples.
type MemoryStateRepository struct {
	mu    sync.Mutex
	state *RoundRobinState
}

// NewMemoryStateRepository creates an empty in-memory state repository.
func NewMemoryStateRepository() *MemoryStateRepository {
	return &MemoryStateRepository{}
}

func (r *MemoryStateRepository) Get(_ context.Context) (*RoundRobinState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == nil {
		return &RoundRobinState{ID: uuid.New()}, nil
	}
	result := *r.state
	return &result, nil
}

func (r *MemoryStateRepository) Save(_ context.Context, state *RoundRobinState) (*RoundRobinState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *state
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	stored.UpdatedAt = time.Now().UTC()
	r.state = &stored

	result := stored
	return &result, nil
}
