package stores

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStoreRepository keeps stores in memory for tests and lightweight
// deployments.
type MemoryStoreRepository struct {
	mu     sync.RWMutex
	stores map[uuid.UUID]*Store
}

// NewMemoryStoreRepository constructs an empty in-memory store repository.
func NewMemoryStoreRepository() *MemoryStoreRepository {
	return &MemoryStoreRepository{stores: make(map[uuid.UUID]*Store)}
}

func (r *MemoryStoreRepository) Create(_ context.Context, store *Store) (*Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if store.ID == uuid.Nil {
		store.ID = uuid.New()
	}
	stored := *store
	r.stores[store.ID] = &stored
	result := stored
	return &result, nil
}

func (r *MemoryStoreRepository) GetByID(_ context.Context, id uuid.UUID) (*Store, error) {
	r.mu.RLock()
	stored, ok := r.stores[id]
	r.mu.RUnlock()
	if !ok {
		return nil, &NotFoundError{Resource: "store", Key: id.String()}
	}
	result := *stored
	return &result, nil
}

func (r *MemoryStoreRepository) GetByAddress(_ context.Context, city, address string) (*Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, stored := range r.stores {
		if stored.City == city && stored.Address == address {
			result := *stored
			return &result, nil
		}
	}
	return nil, &NotFoundError{Resource: "store", Key: city + ", " + address}
}

func (r *MemoryStoreRepository) List(context.Context) ([]*Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Store, 0, len(r.stores))
	for _, stored := range r.stores {
		result := *stored
		out = append(out, &result)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label() < out[j].Label() })
	return out, nil
}

func (r *MemoryStoreRepository) Update(_ context.Context, store *Store) (*Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.stores[store.ID]; !ok {
		return nil, &NotFoundError{Resource: "store", Key: store.ID.String()}
	}
	stored := *store
	r.stores[store.ID] = &stored
	result := stored
	return &result, nil
}

// assignedStore reports the store an employee is currently assigned to.
func (r *MemoryStoreRepository) assignedStore(employeeID uuid.UUID) (uuid.UUID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, stored := range r.stores {
		if stored.AssignedEmployeeID != nil && *stored.AssignedEmployeeID == employeeID {
			return id, true
		}
	}
	return uuid.Nil, false
}

// MemoryEmployeeRepository keeps employees in memory. It consults the store
// repository so store-scoped searches honor existing assignments the same way
// the SQL join does.
type MemoryEmployeeRepository struct {
	mu        sync.RWMutex
	employees map[uuid.UUID]*Employee
	stores    *MemoryStoreRepository
}

// NewMemoryEmployeeRepository constructs an in-memory employee repository.
// The store repository may be nil when store-scoped search is not exercised.
func NewMemoryEmployeeRepository(storeRepo *MemoryStoreRepository) *MemoryEmployeeRepository {
	return &MemoryEmployeeRepository{
		employees: make(map[uuid.UUID]*Employee),
		stores:    storeRepo,
	}
}

func (r *MemoryEmployeeRepository) Create(_ context.Context, employee *Employee) (*Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if employee.ID == uuid.Nil {
		employee.ID = uuid.New()
	}
	employee.Normalize()
	stored := *employee
	r.employees[employee.ID] = &stored
	result := stored
	return &result, nil
}

func (r *MemoryEmployeeRepository) GetByID(_ context.Context, id uuid.UUID) (*Employee, error) {
	r.mu.RLock()
	stored, ok := r.employees[id]
	r.mu.RUnlock()
	if !ok {
		return nil, &NotFoundError{Resource: "employee", Key: id.String()}
	}
	result := *stored
	return &result, nil
}

func (r *MemoryEmployeeRepository) GetByEmail(_ context.Context, email string) (*Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, stored := range r.employees {
		if strings.EqualFold(stored.Email, email) {
			result := *stored
			return &result, nil
		}
	}
	return nil, &NotFoundError{Resource: "employee", Key: email}
}

func (r *MemoryEmployeeRepository) List(context.Context) ([]*Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Employee, 0, len(r.employees))
	for _, stored := range r.employees {
		result := *stored
		out = append(out, &result)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullNameNorm < out[j].FullNameNorm })
	return out, nil
}

func (r *MemoryEmployeeRepository) Update(_ context.Context, employee *Employee) (*Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.employees[employee.ID]; !ok {
		return nil, &NotFoundError{Resource: "employee", Key: employee.ID.String()}
	}
	employee.Normalize()
	stored := *employee
	r.employees[employee.ID] = &stored
	result := stored
	return &result, nil
}

func (r *MemoryEmployeeRepository) Search(_ context.Context, query SearchQuery) ([]*Employee, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	term := NormalizeName(query.Term)

	matches, err := r.List(context.Background())
	if err != nil {
		return nil, err
	}

	out := make([]*Employee, 0, limit)
	for _, employee := range matches {
		if !employee.IsActive {
			continue
		}
		if term != "" && !strings.Contains(employee.FullNameNorm, term) {
			continue
		}
		if query.StoreID != nil && r.stores != nil {
			if assigned, ok := r.stores.assignedStore(employee.ID); ok && assigned != *query.StoreID {
				continue
			}
		}
		out = append(out, employee)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// MemoryShiftRepository keeps shifts in memory.
type MemoryShiftRepository struct {
	mu     sync.RWMutex
	shifts map[uuid.UUID]*StoreShift
}

// NewMemoryShiftRepository constructs an in-memory shift repository.
func NewMemoryShiftRepository() *MemoryShiftRepository {
	return &MemoryShiftRepository{shifts: make(map[uuid.UUID]*StoreShift)}
}

func (r *MemoryShiftRepository) Create(_ context.Context, shift *StoreShift) (*StoreShift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if shift.ID == uuid.Nil {
		shift.ID = uuid.New()
	}
	stored := *shift
	r.shifts[shift.ID] = &stored
	result := stored
	return &result, nil
}

func (r *MemoryShiftRepository) GetByKey(_ context.Context, storeID uuid.UUID, date time.Time, service ServiceType) (*StoreShift, error) {
	day := date.Format("2006-01-02")
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, stored := range r.shifts {
		if stored.StoreID == storeID && stored.Date.Format("2006-01-02") == day && stored.ServiceType == service {
			result := *stored
			return &result, nil
		}
	}
	return nil, &NotFoundError{Resource: "shift", Key: shiftKey(storeID, date, service)}
}

func (r *MemoryShiftRepository) ListByStore(_ context.Context, storeID uuid.UUID) ([]*StoreShift, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*StoreShift, 0)
	for _, stored := range r.shifts {
		if stored.StoreID == storeID {
			result := *stored
			out = append(out, &result)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *MemoryShiftRepository) Update(_ context.Context, shift *StoreShift) (*StoreShift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.shifts[shift.ID]; !ok {
		return nil, &NotFoundError{Resource: "shift", Key: shift.ID.String()}
	}
	stored := *shift
	r.shifts[shift.ID] = &stored
	result := stored
	return &result, nil
}
