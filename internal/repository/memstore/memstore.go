// Package memstore keeps employees and attendance events in process memory.
// It satisfies the repository interfaces and backs local runs without Postgres.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spec-kit/attendance-service/internal/domain"
	"github.com/spec-kit/attendance-service/internal/repository"
)

// Store holds both tables behind one lock so cross-table checks stay consistent.
type Store struct {
	mu          sync.RWMutex
	employees   map[int64]domain.Employee
	attendances map[int64]domain.AttendanceEvent
	nextEmpID   int64
	nextAttID   int64
}

// New returns an empty store.
func New() *Store {
	return &Store{
		employees:   make(map[int64]domain.Employee),
		attendances: make(map[int64]domain.AttendanceEvent),
	}
}

// Employees exposes the store as an EmployeeRepository.
func (s *Store) Employees() repository.EmployeeRepository { return employeeStore{s} }

// Attendances exposes the store as an AttendanceRepository.
func (s *Store) Attendances() repository.AttendanceRepository { return attendanceStore{s} }

func (s *Store) codeTaken(code string, except int64) bool {
	for id, e := range s.employees {
		if id != except && e.EmployeeCode == code {
			return true
		}
	}
	return false
}

func page[T any](items []T, limit, offset int) []T {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return make([]T, 0)
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	out := make([]T, end-offset)
	copy(out, items[offset:end])
	return out
}

type employeeStore struct{ s *Store }

func (r employeeStore) Create(_ context.Context, e *domain.Employee) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.codeTaken(e.EmployeeCode, 0) {
		return 0, fmt.Errorf("%w: employees_employee_code_key", repository.ErrDuplicateKey)
	}
	r.s.nextEmpID++
	e.ID = r.s.nextEmpID
	r.s.employees[e.ID] = *e
	return e.ID, nil
}

func (r employeeStore) GetByID(_ context.Context, id int64) (*domain.Employee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	e, ok := r.s.employees[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (r employeeStore) GetByCode(_ context.Context, code string) (*domain.Employee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, e := range r.s.employees {
		if e.EmployeeCode == code {
			e := e
			return &e, nil
		}
	}
	return nil, nil
}

func (r employeeStore) List(_ context.Context, f repository.EmployeeFilter) ([]domain.Employee, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var name string
	if f.Name != nil {
		name = strings.ToLower(strings.TrimSpace(*f.Name))
	}
	matched := make([]domain.Employee, 0, len(r.s.employees))
	for _, e := range r.s.employees {
		if f.Department != nil && e.Department != *f.Department {
			continue
		}
		if f.IsActive != nil && e.IsActive != *f.IsActive {
			continue
		}
		if name != "" && !strings.Contains(strings.ToLower(e.Name), name) {
			continue
		}
		matched = append(matched, e)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return page(matched, f.Limit, f.Offset), int64(len(matched)), nil
}

func (r employeeStore) Update(_ context.Context, id int64, patch domain.EmployeePatch, updatedAt time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.s.employees[id]
	if !ok {
		return false, nil
	}
	if patch.EmployeeCode != nil && r.s.codeTaken(*patch.EmployeeCode, id) {
		return false, fmt.Errorf("%w: employees_employee_code_key", repository.ErrDuplicateKey)
	}
	e = patch.Apply(e)
	e.UpdatedAt = updatedAt
	r.s.employees[id] = e
	return true, nil
}

func (r employeeStore) Deactivate(_ context.Context, id int64, updatedAt time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.s.employees[id]
	if !ok {
		return false, nil
	}
	e.IsActive = false
	e.UpdatedAt = updatedAt
	r.s.employees[id] = e
	return true, nil
}

func (r employeeStore) Delete(_ context.Context, id int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.employees[id]; !ok {
		return false, nil
	}
	for _, a := range r.s.attendances {
		if a.EmployeeID == id {
			return false, fmt.Errorf("%w: attendance_events_employee_id_fkey", repository.ErrForeignKey)
		}
	}
	delete(r.s.employees, id)
	return true, nil
}

type attendanceStore struct{ s *Store }

func (r attendanceStore) Create(_ context.Context, a *domain.AttendanceEvent) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.employees[a.EmployeeID]; !ok {
		return 0, fmt.Errorf("%w: attendance_events_employee_id_fkey", repository.ErrForeignKey)
	}
	r.s.nextAttID++
	a.ID = r.s.nextAttID
	stored := *a
	stored.EmployeeName, stored.EmployeeCode = nil, nil
	r.s.attendances[a.ID] = stored
	return a.ID, nil
}

func (r attendanceStore) GetByID(_ context.Context, id int64) (*domain.AttendanceEvent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.attendances[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (r attendanceStore) List(_ context.Context, f repository.AttendanceFilter) ([]domain.AttendanceEvent, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	matched := make([]domain.AttendanceEvent, 0, len(r.s.attendances))
	for _, a := range r.s.attendances {
		if f.EmployeeID != nil && a.EmployeeID != *f.EmployeeID {
			continue
		}
		if f.Type != nil && a.Type != *f.Type {
			continue
		}
		if f.From != nil && a.Timestamp.Before(*f.From) {
			continue
		}
		if f.To != nil && a.Timestamp.After(*f.To) {
			continue
		}
		if f.WithEmployee {
			if e, ok := r.s.employees[a.EmployeeID]; ok {
				name, code := e.Name, e.EmployeeCode
				a.EmployeeName, a.EmployeeCode = &name, &code
			}
		}
		matched = append(matched, a)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].Timestamp.Equal(matched[j].Timestamp) {
			return matched[i].Timestamp.After(matched[j].Timestamp)
		}
		return matched[i].ID > matched[j].ID
	})
	return page(matched, f.Limit, f.Offset), int64(len(matched)), nil
}

func (r attendanceStore) Update(_ context.Context, id int64, patch domain.AttendancePatch, updatedAt time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.attendances[id]
	if !ok {
		return false, nil
	}
	if patch.EmployeeID != nil {
		if _, exists := r.s.employees[*patch.EmployeeID]; !exists {
			return false, fmt.Errorf("%w: attendance_events_employee_id_fkey", repository.ErrForeignKey)
		}
	}
	a = patch.Apply(a)
	a.UpdatedAt = updatedAt
	r.s.attendances[id] = a
	return true, nil
}

func (r attendanceStore) Delete(_ context.Context, id int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.attendances[id]; !ok {
		return false, nil
	}
	delete(r.s.attendances, id)
	return true, nil
}

func (r attendanceStore) CountByEmployee(_ context.Context, employeeID int64) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var n int64
	for _, a := range r.s.attendances {
		if a.EmployeeID == employeeID {
			n++
		}
	}
	return n, nil
}
