package leads

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	cache "github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const leadNamespace = "sales_lead"

// BunLeadRepository implements LeadRepository with optional caching.
type BunLeadRepository struct {
	repo         repository.Repository[*SalesLead]
	cacheService cache.CacheService
	cachePrefix  string
}

// NewBunLeadRepository creates a lead repository without caching.
func NewBunLeadRepository(db *bun.DB) *BunLeadRepository {
	return NewBunLeadRepositoryWithCache(db, nil, nil)
}

// NewBunLeadRepositoryWithCache creates a lead repository with caching services.
func NewBunLeadRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, serializer cache.KeySerializer) *BunLeadRepository {
	base := NewLeadRecordRepository(db)
	var svc cache.CacheService
	if cacheService != nil && serializer != nil {
		base = repositorycache.New(base, cacheService, serializer)
		svc = cacheService
	}
	prefix := ""
	if svc != nil {
		prefix = leadNamespace + cache.KeySeparator
	}
	return &BunLeadRepository{repo: base, cacheService: svc, cachePrefix: prefix}
}

func (r *BunLeadRepository) Create(ctx context.Context, lead *SalesLead) (*SalesLead, error) {
	return r.repo.Create(ctx, lead)
}

func (r *BunLeadRepository) GetByID(ctx context.Context, id uuid.UUID) (*SalesLead, error) {
	record, err := r.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, "lead", id.String())
	}
	return record, nil
}

func (r *BunLeadRepository) ExistsByAdURL(ctx context.Context, adURL string) (bool, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.ad_url = ?", adURL)
		}),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return false, err
	}
	return len(records) > 0, nil
}

func (r *BunLeadRepository) List(ctx context.Context, opts ListOptions) ([]*SalesLead, error) {
	processors := []repository.SelectCriteria{
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return applyListOptions(q, opts)
		}),
	}
	if opts.Limit > 0 {
		processors = append(processors, repository.SelectPaginate(opts.Limit, opts.Offset))
	}
	records, _, err := r.repo.List(ctx, processors...)
	return records, err
}

func (r *BunLeadRepository) Update(ctx context.Context, lead *SalesLead) (*SalesLead, error) {
	return r.repo.Update(ctx, lead)
}

// InvalidateCache drops every cached lead listing.
func (r *BunLeadRepository) InvalidateCache(ctx context.Context) error {
	if r.cacheService == nil || r.cachePrefix == "" {
		return nil
	}
	return r.cacheService.DeleteByPrefix(ctx, r.cachePrefix)
}

func applyListOptions(q *bun.SelectQuery, opts ListOptions) *bun.SelectQuery {
	if opts.Status != "" {
		q = q.Where("?TableAlias.status = ?", opts.Status)
	}
	if source := strings.TrimSpace(opts.Source); source != "" {
		q = q.Where("LOWER(?TableAlias.source) = LOWER(?)", source)
	}
	if city := strings.TrimSpace(opts.City); city != "" {
		q = q.Where("?TableAlias.city = ?", city)
	}
	if opts.ManagerID != nil {
		q = q.Where("?TableAlias.manager_id = ?", *opts.ManagerID)
	}
	if opts.ReadyForKP {
		q = q.Where("?TableAlias.status = ?", StatusNew).
			Where("?TableAlias.email <> ''")
	}
	switch opts.Email {
	case EmailWith:
		q = q.Where("?TableAlias.email <> ''")
	case EmailWithout:
		q = q.Where("?TableAlias.email = ''")
	}
	if opts.NoPhone {
		q = q.Where("?TableAlias.phone = ''")
	}
	if source := strings.TrimSpace(opts.SourceToday); source != "" {
		q = q.Where("LOWER(?TableAlias.source) = LOWER(?)", source).
			Where("DATE(?TableAlias.created_at) = ?", opts.Now.Format("2006-01-02"))
	}
	if opts.KPSentBefore != nil {
		q = q.Where("?TableAlias.status = ?", StatusKPSent).
			Where("?TableAlias.kp_sent_at <= ?", *opts.KPSentBefore)
	}
	switch opts.Reminders {
	case ReminderToday:
		q = q.Where("EXISTS (SELECT 1 FROM lead_notes AS n WHERE n.lead_id = ?TableAlias.id AND n.is_done = ? AND DATE(n.remind_at) = ?)",
			false, opts.Now.Format("2006-01-02"))
	case ReminderOverdue:
		q = q.Where("EXISTS (SELECT 1 FROM lead_notes AS n WHERE n.lead_id = ?TableAlias.id AND n.is_done = ? AND n.remind_at < ?)",
			false, opts.Now)
	}
	return q.Order("created_at DESC")
}

// BunManagerRepository implements ManagerRepository on top of go-repository-bun.
type BunManagerRepository struct {
	repo repository.Repository[*Manager]
}

// NewBunManagerRepository creates a manager repository.
func NewBunManagerRepository(db *bun.DB) *BunManagerRepository {
	return &BunManagerRepository{repo: NewManagerRecordRepository(db)}
}

func (r *BunManagerRepository) Create(ctx context.Context, manager *Manager) (*Manager, error) {
	return r.repo.Create(ctx, manager)
}

func (r *BunManagerRepository) GetByID(ctx context.Context, id uuid.UUID) (*Manager, error) {
	record, err := r.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, "manager", id.String())
	}
	return record, nil
}

// ListActive returns active managers in a stable order so round-robin
// distribution cycles deterministically.
func (r *BunManagerRepository) ListActive(ctx context.Context) ([]*Manager, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.is_active = ?", true).
				Order("created_at ASC")
		}),
	)
	return records, err
}

// BunNoteRepository implements NoteRepository on top of go-repository-bun.
type BunNoteRepository struct {
	repo repository.Repository[*LeadNote]
}

// NewBunNoteRepository creates a note repository.
func NewBunNoteRepository(db *bun.DB) *BunNoteRepository {
	return &BunNoteRepository{repo: NewNoteRecordRepository(db)}
}

func (r *BunNoteRepository) Create(ctx context.Context, note *LeadNote) (*LeadNote, error) {
	return r.repo.Create(ctx, note)
}

func (r *BunNoteRepository) GetByID(ctx context.Context, id uuid.UUID) (*LeadNote, error) {
	record, err := r.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, "note", id.String())
	}
	return record, nil
}

func (r *BunNoteRepository) ListByLead(ctx context.Context, leadID uuid.UUID) ([]*LeadNote, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.lead_id = ?", leadID).
				Order("created_at DESC")
		}),
	)
	return records, err
}

func (r *BunNoteRepository) Update(ctx context.Context, note *LeadNote) (*LeadNote, error) {
	return r.repo.Update(ctx, note)
}

// BunTemplateRepository persists KP templates with a plain bun query set.
type BunTemplateRepository struct {
	db *bun.DB
}

// NewBunTemplateRepository creates a template repository.
func NewBunTemplateRepository(db *bun.DB) *BunTemplateRepository {
	return &BunTemplateRepository{db: db}
}

func (r *BunTemplateRepository) Upsert(ctx context.Context, template *KpTemplate) (*KpTemplate, error) {
	if template.ID == uuid.Nil {
		template.ID = uuid.New()
	}
	template.UpdatedAt = time.Now().UTC()
	_, err := r.db.NewInsert().Model(template).
		On("CONFLICT (id) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("is_active = EXCLUDED.is_active").
		Set("subject = EXCLUDED.subject").
		Set("text_body = EXCLUDED.text_body").
		Set("markdown = EXCLUDED.markdown").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	return template, nil
}

// GetActive returns the most recently updated active template.
func (r *BunTemplateRepository) GetActive(ctx context.Context) (*KpTemplate, error) {
	var template KpTemplate
	err := r.db.NewSelect().Model(&template).
		Where("is_active = ?", true).
		Order("updated_at DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}
	return &template, nil
}

// BunStateRepository persists the round-robin cursor with a plain bun query set.
type BunStateRepository struct {
	db *bun.DB
}

// NewBunStateRepository creates a state repository.
func NewBunStateRepository(db *bun.DB) *BunStateRepository {
	return &BunStateRepository{db: db}
}

func (r *BunStateRepository) Get(ctx context.Context) (*RoundRobinState, error) {
	var state RoundRobinState
	err := r.db.NewSelect().Model(&state).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &RoundRobinState{ID: uuid.New()}, nil
		}
		return nil, err
	}
	return &state, nil
}

func (r *BunStateRepository) Save(ctx context.Context, state *RoundRobinState) (*RoundRobinState, error) {
	if state.ID == uuid.Nil {
		state.ID = uuid.New()
	}
	state.UpdatedAt = time.Now().UTC()
	_, err := r.db.NewInsert().Model(state).
		On("CONFLICT (id) DO UPDATE").
		Set("last_manager_id = EXCLUDED.last_manager_id").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	return state, nil
}
