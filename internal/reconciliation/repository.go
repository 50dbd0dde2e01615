package reconciliation

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// NotFoundError reports a missing reconciliation record.
type NotFoundError struct {
	Key string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("reconciliation %q not found", e.Key)
}

// Repository persists reconciliation runs.
type Repository interface {
	Create(ctx context.Context, record *Reconciliation) (*Reconciliation, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Reconciliation, error)
	Update(ctx context.Context, record *Reconciliation) (*Reconciliation, error)
	List(ctx context.Context) ([]*Reconciliation, error)
}

// NewRecordRepository creates the go-repository-bun handler set for
// Reconciliation entities.
func NewRecordRepository(db *bun.DB) repository.Repository[*Reconciliation] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Reconciliation]{
		NewRecord: func() *Reconciliation { return &Reconciliation{} },
		GetID: func(r *Reconciliation) uuid.UUID {
			return r.ID
		},
		SetID: func(r *Reconciliation, id uuid.UUID) {
			r.ID = id
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(r *Reconciliation) string {
			return r.ID.String()
		},
	})
}

// BunRepository implements Repository on top of go-repository-bun.
type BunRepository struct {
	repo repository.Repository[*Reconciliation]
}

// NewBunRepository creates a reconciliation repository.
func NewBunRepository(db *bun.DB) *BunRepository {
	return &BunRepository{repo: NewRecordRepository(db)}
}

func (r *BunRepository) Create(ctx context.Context, record *Reconciliation) (*Reconciliation, error) {
	return r.repo.Create(ctx, record)
}

func (r *BunRepository) GetByID(ctx context.Context, id uuid.UUID) (*Reconciliation, error) {
	record, err := r.repo.GetByID(ctx, id.String())
	if err != nil {
		if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
			return nil, &NotFoundError{Key: id.String()}
		}
		return nil, fmt.Errorf("reconciliation repository error: %w", err)
	}
	return record, nil
}

func (r *BunRepository) Update(ctx context.Context, record *Reconciliation) (*Reconciliation, error) {
	return r.repo.Update(ctx, record)
}

func (r *BunRepository) List(ctx context.Context) ([]*Reconciliation, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("created_at DESC")
		}),
	)
	return records, err
}

// MemoryRepository is an in-memory Repository for tests and examples.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*Reconciliation
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: map[uuid.UUID]*Reconciliation{}}
}

func (r *MemoryRepository) Create(_ context.Context, record *Reconciliation) (*Reconciliation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *record
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
	r.records[stored.ID] = &stored

	result := stored
	return &result, nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id uuid.UUID) (*Reconciliation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.records[id]
	if !ok {
		return nil, &NotFoundError{Key: id.String()}
	}
	result := *record
	return &result, nil
}

func (r *MemoryRepository) Update(_ context.Context, record *Reconciliation) (*Reconciliation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.records[record.ID]
	if !ok {
		return nil, &NotFoundError{Key: record.ID.String()}
	}
	updated := *record
	updated.CreatedAt = stored.CreatedAt
	updated.UpdatedAt = time.Now().UTC()
	r.records[updated.ID] = &updated

	result := updated
	return &result, nil
}

func (r *MemoryRepository) List(_ context.Context) ([]*Reconciliation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*Reconciliation
	for _, record := range r.records {
		copied := *record
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}
