package stores

import (
	"context"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// NotFoundError reports a missing record with enough context for the HTTP
// layer to map it to a 404.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

// BunStoreRepository implements StoreRepository on top of go-repository-bun.
type BunStoreRepository struct {
	repo repository.Repository[*Store]
}

// NewBunStoreRepository creates a store repository.
func NewBunStoreRepository(db *bun.DB) *BunStoreRepository {
	return &BunStoreRepository{repo: NewStoreRecordRepository(db)}
}

func (r *BunStoreRepository) Create(ctx context.Context, store *Store) (*Store, error) {
	return r.repo.Create(ctx, store)
}

func (r *BunStoreRepository) GetByID(ctx context.Context, id uuid.UUID) (*Store, error) {
	record, err := r.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, "store", id.String())
	}
	return record, nil
}

func (r *BunStoreRepository) GetByAddress(ctx context.Context, city, address string) (*Store, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.city = ?", city).
				Where("?TableAlias.address = ?", address)
		}),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, mapRepositoryError(err, "store", city+", "+address)
	}
	if len(records) == 0 {
		return nil, &NotFoundError{Resource: "store", Key: city + ", " + address}
	}
	return records[0], nil
}

func (r *BunStoreRepository) List(ctx context.Context) ([]*Store, error) {
	records, _, err := r.repo.List(ctx)
	return records, err
}

func (r *BunStoreRepository) Update(ctx context.Context, store *Store) (*Store, error) {
	return r.repo.Update(ctx, store)
}

// BunEmployeeRepository implements EmployeeRepository on top of go-repository-bun.
type BunEmployeeRepository struct {
	repo repository.Repository[*Employee]
}

// NewBunEmployeeRepository creates an employee repository.
func NewBunEmployeeRepository(db *bun.DB) *BunEmployeeRepository {
	return &BunEmployeeRepository{repo: NewEmployeeRecordRepository(db)}
}

func (r *BunEmployeeRepository) Create(ctx context.Context, employee *Employee) (*Employee, error) {
	employee.Normalize()
	return r.repo.Create(ctx, employee)
}

func (r *BunEmployeeRepository) GetByID(ctx context.Context, id uuid.UUID) (*Employee, error) {
	record, err := r.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, "employee", id.String())
	}
	return record, nil
}

func (r *BunEmployeeRepository) GetByEmail(ctx context.Context, email string) (*Employee, error) {
	record, err := r.repo.GetByIdentifier(ctx, email)
	if err != nil {
		return nil, mapRepositoryError(err, "employee", email)
	}
	return record, nil
}

func (r *BunEmployeeRepository) List(ctx context.Context) ([]*Employee, error) {
	records, _, err := r.repo.List(ctx)
	return records, err
}

func (r *BunEmployeeRepository) Update(ctx context.Context, employee *Employee) (*Employee, error) {
	employee.Normalize()
	return r.repo.Update(ctx, employee)
}

// Search matches active employees by normalized name. When the query carries
// a store context, employees assigned to a different store are excluded while
// unassigned ones and the store's own stay in.
func (r *BunEmployeeRepository) Search(ctx context.Context, query SearchQuery) ([]*Employee, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	term := NormalizeName(query.Term)

	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			q = q.Where("?TableAlias.is_active = ?", true)
			if term != "" {
				q = q.Where("?TableAlias.full_name_norm LIKE ?", "%"+term+"%")
			}
			if query.StoreID != nil {
				q = q.Join("LEFT JOIN stores AS st ON st.assigned_employee_id = ?TableAlias.id").
					Where("st.id IS NULL OR st.id = ?", *query.StoreID)
			}
			return q.Order("full_name_norm ASC")
		}),
		repository.SelectPaginate(limit, 0),
	)
	if err != nil {
		return nil, fmt.Errorf("employee search error: %w", err)
	}
	return records, nil
}

// BunShiftRepository implements ShiftRepository on top of go-repository-bun.
type BunShiftRepository struct {
	repo repository.Repository[*StoreShift]
}

// NewBunShiftRepository creates a shift repository.
func NewBunShiftRepository(db *bun.DB) *BunShiftRepository {
	return &BunShiftRepository{repo: NewShiftRecordRepository(db)}
}

func (r *BunShiftRepository) Create(ctx context.Context, shift *StoreShift) (*StoreShift, error) {
	return r.repo.Create(ctx, shift)
}

func (r *BunShiftRepository) GetByKey(ctx context.Context, storeID uuid.UUID, date time.Time, service ServiceType) (*StoreShift, error) {
	day := date.Format("2006-01-02")
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.store_id = ?", storeID).
				Where("DATE(?TableAlias.date) = ?", day).
				Where("?TableAlias.service_type = ?", service)
		}),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, mapRepositoryError(err, "shift", shiftKey(storeID, date, service))
	}
	if len(records) == 0 {
		return nil, &NotFoundError{Resource: "shift", Key: shiftKey(storeID, date, service)}
	}
	return records[0], nil
}

func (r *BunShiftRepository) ListByStore(ctx context.Context, storeID uuid.UUID) ([]*StoreShift, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.store_id = ?", storeID).
				Order("date ASC")
		}),
	)
	return records, err
}

func (r *BunShiftRepository) Update(ctx context.Context, shift *StoreShift) (*StoreShift, error) {
	return r.repo.Update(ctx, shift)
}

const defaultSearchLimit = 20

func shiftKey(storeID uuid.UUID, date time.Time, service ServiceType) string {
	return strings.Join([]string{storeID.String(), date.Format("2006-01-02"), string(service)}, "/")
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
