package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/attendance-service/internal/config"
	"github.com/spec-kit/attendance-service/internal/domain"
	"github.com/spec-kit/attendance-service/internal/events"
	"github.com/spec-kit/attendance-service/internal/repository"
	"github.com/spec-kit/attendance-service/internal/repository/memstore"
	"github.com/spec-kit/attendance-service/internal/validation"
	apperrors "github.com/spec-kit/attendance-service/pkg/util/errorutil"
)

func ptr[T any](v T) *T { return &v }

type fixture struct {
	store       *memstore.Store
	employees   *EmployeeService
	attendances *AttendanceService
	published   []events.Event
	now         time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: memstore.New(),
		now:   time.Date(2024, 3, 1, 9, 0, 0, 123456789, time.UTC),
	}
	clock := func() time.Time { return f.now }
	dispatcher := events.NewInMemoryDispatcher()
	for _, et := range events.AllEventTypes {
		dispatcher.Subscribe(et, func(_ context.Context, e events.Event) error {
			f.published = append(f.published, e)
			return nil
		})
	}
	v := validation.New(f.store.Employees())
	pagination := config.PaginationConfig{DefaultLimit: 20, MaxLimit: 100}

	f.employees = NewEmployeeService(EmployeeDependencies{
		EmployeeRepo:   f.store.Employees(),
		AttendanceRepo: f.store.Attendances(),
		Validator:      v,
		Dispatcher:     dispatcher,
		Clock:          clock,
		Pagination:     pagination,
	})
	f.attendances = NewAttendanceService(AttendanceDependencies{
		AttendanceRepo: f.store.Attendances(),
		EmployeeRepo:   f.store.Employees(),
		Validator:      v,
		Dispatcher:     dispatcher,
		Clock:          clock,
		Pagination:     pagination,
	})
	return f
}

func (f *fixture) createEmployee(t *testing.T, code string) *domain.Employee {
	t.Helper()
	e, err := f.employees.Create(context.Background(), validation.EmployeeInput{
		EmployeeCode: ptr(code),
		Name:         ptr("Taro"),
		Department:   ptr("Eng"),
		Position:     ptr("Engineer"),
	})
	require.NoError(t, err)
	return e
}

func domainErr(t *testing.T, err error) *apperrors.DomainError {
	t.Helper()
	var de *apperrors.DomainError
	require.True(t, errors.As(err, &de), "expected DomainError, got %v", err)
	return de
}

func TestCreateEmployeeThenFetchIsEqual(t *testing.T) {
	f := newFixture(t)
	created := f.createEmployee(t, "EMP100")

	assert.NotZero(t, created.ID)
	assert.True(t, created.IsActive)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)
	assert.Equal(t, f.now.Truncate(time.Millisecond), created.CreatedAt)

	fetched, err := f.employees.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, fetched)

	require.Len(t, f.published, 1)
	assert.Equal(t, events.EventEmployeeCreated, f.published[0].Type)
	assert.Equal(t, created.ID, f.published[0].ResourceID)
}

func TestCreateEmployeeRejectsDuplicateCode(t *testing.T) {
	f := newFixture(t)
	f.createEmployee(t, "EMP100")

	_, err := f.employees.Create(context.Background(), validation.EmployeeInput{
		EmployeeCode: ptr("EMP100"), Name: ptr("Jiro"), Department: ptr("Eng"), Position: ptr("QA"),
	})
	de := domainErr(t, err)
	assert.Equal(t, http.StatusBadRequest, de.HTTPStatus)
	require.Len(t, de.Fields, 1)
	assert.Equal(t, "employee_code", de.Fields[0].Field)
}

func TestAttendanceForMissingEmployeeIsValidationError(t *testing.T) {
	f := newFixture(t)

	_, err := f.attendances.Create(context.Background(), validation.AttendanceInput{
		EmployeeID: ptr(int64(404)),
		Type:       ptr("check_in"),
	})
	de := domainErr(t, err)
	assert.Equal(t, "VALIDATION_FAILED", de.Code)
	require.Len(t, de.Fields, 1)
	assert.Equal(t, "employee_id", de.Fields[0].Field)

	page, err := f.attendances.List(context.Background(), AttendanceListQuery{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}

func TestAttendanceTimestampDefaultsToNow(t *testing.T) {
	f := newFixture(t)
	emp := f.createEmployee(t, "EMP100")

	ev, err := f.attendances.Create(context.Background(), validation.AttendanceInput{
		EmployeeID: ptr(emp.ID),
		Type:       ptr("check_in"),
	})
	require.NoError(t, err)
	assert.Equal(t, f.now.Truncate(time.Millisecond), ev.Timestamp)

	ev, err = f.attendances.Create(context.Background(), validation.AttendanceInput{
		EmployeeID: ptr(emp.ID),
		Type:       ptr("check_out"),
		Timestamp:  ptr("2024-03-01T18:00:00.250Z"),
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01T18:00:00.250Z", domain.FormatTimestamp(ev.Timestamp))
}

func TestUpdateMissingIsNotFoundAndChangesNothing(t *testing.T) {
	f := newFixture(t)
	emp := f.createEmployee(t, "EMP100")

	_, err := f.employees.Update(context.Background(), emp.ID+1, validation.EmployeeInput{Name: ptr("X")})
	assert.True(t, apperrors.IsNotFound(err))

	_, err = f.attendances.Update(context.Background(), 99, validation.AttendanceInput{Note: ptr("x")})
	assert.True(t, apperrors.IsNotFound(err))

	fetched, err := f.employees.Get(context.Background(), emp.ID)
	require.NoError(t, err)
	assert.Equal(t, emp, fetched)
}

func TestUpdateAppliesOnlyProvidedFields(t *testing.T) {
	f := newFixture(t)
	emp := f.createEmployee(t, "EMP100")
	f.now = f.now.Add(time.Hour)

	updated, err := f.employees.Update(context.Background(), emp.ID, validation.EmployeeInput{
		Position: ptr("Staff Engineer"),
		Email:    ptr("taro@example.com"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Staff Engineer", updated.Position)
	assert.Equal(t, "taro@example.com", *updated.Email)
	assert.Equal(t, emp.Name, updated.Name)
	assert.Equal(t, emp.EmployeeCode, updated.EmployeeCode)
	assert.Equal(t, emp.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(emp.UpdatedAt))

	// Keeping one's own code is allowed.
	_, err = f.employees.Update(context.Background(), emp.ID, validation.EmployeeInput{EmployeeCode: ptr("EMP100")})
	require.NoError(t, err)
}

func TestUpdateClearsNulledOptionalFields(t *testing.T) {
	f := newFixture(t)
	emp, err := f.employees.Create(context.Background(), validation.EmployeeInput{
		EmployeeCode: ptr("EMP100"), Name: ptr("Taro"), Department: ptr("Eng"), Position: ptr("Engineer"),
		Email: ptr("taro@example.com"), Phone: ptr("03-1234"),
	})
	require.NoError(t, err)

	updated, err := f.employees.Update(context.Background(), emp.ID, validation.EmployeeInput{
		Nulls: validation.Nulls{"email": true},
	})
	require.NoError(t, err)
	assert.Nil(t, updated.Email)
	require.NotNil(t, updated.Phone)
	assert.Equal(t, "03-1234", *updated.Phone)

	_, err = f.employees.Update(context.Background(), emp.ID, validation.EmployeeInput{
		Nulls: validation.Nulls{"department": true},
	})
	assert.Equal(t, http.StatusBadRequest, domainErr(t, err).HTTPStatus)
}

func TestUpdateAttendanceValidatesEmployee(t *testing.T) {
	f := newFixture(t)
	emp := f.createEmployee(t, "EMP100")
	ev, err := f.attendances.Create(context.Background(), validation.AttendanceInput{EmployeeID: ptr(emp.ID), Type: ptr("check_in")})
	require.NoError(t, err)

	_, err = f.attendances.Update(context.Background(), ev.ID, validation.AttendanceInput{EmployeeID: ptr(int64(77))})
	de := domainErr(t, err)
	assert.Equal(t, "employee_id", de.Fields[0].Field)

	updated, err := f.attendances.Update(context.Background(), ev.ID, validation.AttendanceInput{
		Type:     ptr("break_start"),
		Location: ptr("HQ"),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.AttendanceBreakStart, updated.Type)
	assert.Equal(t, "HQ", *updated.Location)
	assert.Equal(t, ev.Timestamp, updated.Timestamp)
}

func TestDeleteEmployeeWithoutAttendanceIsPhysical(t *testing.T) {
	f := newFixture(t)
	emp := f.createEmployee(t, "EMP100")

	outcome, err := f.employees.Delete(context.Background(), emp.ID)
	require.NoError(t, err)
	assert.Equal(t, DeleteOutcomeDeleted, outcome)

	_, err = f.employees.Get(context.Background(), emp.ID)
	assert.True(t, apperrors.IsNotFound(err))

	_, err = f.employees.Delete(context.Background(), emp.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestDeleteEmployeeWithAttendanceDeactivates(t *testing.T) {
	f := newFixture(t)
	emp := f.createEmployee(t, "EMP100")
	_, err := f.attendances.Create(context.Background(), validation.AttendanceInput{EmployeeID: ptr(emp.ID), Type: ptr("check_in")})
	require.NoError(t, err)

	outcome, err := f.employees.Delete(context.Background(), emp.ID)
	require.NoError(t, err)
	assert.Equal(t, DeleteOutcomeDeactivated, outcome)

	fetched, err := f.employees.Get(context.Background(), emp.ID)
	require.NoError(t, err)
	assert.False(t, fetched.IsActive)
	assert.Equal(t, events.EventEmployeeDeactivated, f.published[len(f.published)-1].Type)
}

// countlessAttendances hides attendance from the pre-delete count, as when a
// check-in lands between the count and the delete.
type countlessAttendances struct {
	repository.AttendanceRepository
}

func (countlessAttendances) CountByEmployee(context.Context, int64) (int64, error) {
	return 0, nil
}

func TestDeleteEmployeeFallsBackToDeactivateOnForeignKey(t *testing.T) {
	f := newFixture(t)
	emp := f.createEmployee(t, "EMP100")
	_, err := f.attendances.Create(context.Background(), validation.AttendanceInput{EmployeeID: ptr(emp.ID), Type: ptr("check_in")})
	require.NoError(t, err)

	svc := NewEmployeeService(EmployeeDependencies{
		EmployeeRepo:   f.store.Employees(),
		AttendanceRepo: countlessAttendances{f.store.Attendances()},
		Validator:      validation.New(f.store.Employees()),
		Clock:          func() time.Time { return f.now },
	})

	outcome, err := svc.Delete(context.Background(), emp.ID)
	require.NoError(t, err)
	assert.Equal(t, DeleteOutcomeDeactivated, outcome)

	fetched, err := f.employees.Get(context.Background(), emp.ID)
	require.NoError(t, err)
	assert.False(t, fetched.IsActive)
}

func TestDeleteAttendance(t *testing.T) {
	f := newFixture(t)
	emp := f.createEmployee(t, "EMP100")
	ev, err := f.attendances.Create(context.Background(), validation.AttendanceInput{EmployeeID: ptr(emp.ID), Type: ptr("check_in")})
	require.NoError(t, err)

	require.NoError(t, f.attendances.Delete(context.Background(), ev.ID))
	_, err = f.attendances.Get(context.Background(), ev.ID)
	assert.True(t, apperrors.IsNotFound(err))
	assert.True(t, apperrors.IsNotFound(f.attendances.Delete(context.Background(), ev.ID)))

	// The employee is untouched.
	fetched, err := f.employees.Get(context.Background(), emp.ID)
	require.NoError(t, err)
	assert.True(t, fetched.IsActive)
}

func TestListSecondPageOfFifteen(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 15; i++ {
		f.createEmployee(t, fmt.Sprintf("EMP%03d", i))
	}

	page, err := f.employees.List(context.Background(), EmployeeListQuery{Page: 2, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, page.Items, 5)
	assert.Equal(t, int64(15), page.Total)
	assert.Equal(t, 2, page.Pages)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 10, page.Limit)
	assert.Equal(t, "EMP010", page.Items[0].EmployeeCode)
}

func TestListClampsPaging(t *testing.T) {
	f := newFixture(t)
	f.createEmployee(t, "EMP001")

	page, err := f.employees.List(context.Background(), EmployeeListQuery{Page: -3, Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 100, page.Limit)

	page, err = f.employees.List(context.Background(), EmployeeListQuery{})
	require.NoError(t, err)
	assert.Equal(t, 20, page.Limit)
	assert.Equal(t, 1, page.Pages)
}

func TestListHugePageIsEmptyNotFirst(t *testing.T) {
	f := newFixture(t)
	f.createEmployee(t, "EMP001")

	page, err := f.employees.List(context.Background(), EmployeeListQuery{Page: math.MaxInt, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, math.MaxInt32/10+1, page.Page)

	_, _, offset := normalizePage(math.MaxInt, 100, config.PaginationConfig{MaxLimit: 100})
	assert.Positive(t, offset)
	assert.LessOrEqual(t, offset, math.MaxInt32)
}

func TestListForEmployee(t *testing.T) {
	f := newFixture(t)
	emp := f.createEmployee(t, "EMP100")
	other := f.createEmployee(t, "EMP200")
	for _, id := range []int64{emp.ID, other.ID, emp.ID} {
		_, err := f.attendances.Create(context.Background(), validation.AttendanceInput{EmployeeID: ptr(id), Type: ptr("check_in")})
		require.NoError(t, err)
	}

	page, err := f.attendances.ListForEmployee(context.Background(), emp.ID, AttendanceListQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	for _, ev := range page.Items {
		assert.Equal(t, emp.ID, ev.EmployeeID)
		require.NotNil(t, ev.EmployeeCode)
		assert.Equal(t, "EMP100", *ev.EmployeeCode)
	}

	_, err = f.attendances.ListForEmployee(context.Background(), 999, AttendanceListQuery{})
	assert.True(t, apperrors.IsNotFound(err))
}

type mapCache struct {
	entries     map[string]any
	generations map[string]int64
	invalidated []string
}

func newMapCache() *mapCache {
	return &mapCache{entries: map[string]any{}, generations: map[string]int64{}}
}

func (m *mapCache) key(resource, key string) string {
	return fmt.Sprintf("%s|%d|%s", resource, m.generations[resource], key)
}

func (m *mapCache) Get(_ context.Context, resource, key string, dest any) (int64, bool) {
	gen := m.generations[resource]
	v, ok := m.entries[m.key(resource, key)]
	if !ok {
		return gen, false
	}
	*(dest.(*Page[domain.Employee])) = v.(Page[domain.Employee])
	return gen, true
}

func (m *mapCache) Set(_ context.Context, resource, key string, gen int64, value any) {
	if gen != m.generations[resource] {
		return
	}
	m.entries[m.key(resource, key)] = value
}

func (m *mapCache) Invalidate(_ context.Context, resource string) error {
	m.invalidated = append(m.invalidated, resource)
	m.generations[resource]++
	return nil
}

func TestListUsesCacheAndNotificationsInvalidate(t *testing.T) {
	store := memstore.New()
	cache := newMapCache()
	dispatcher := events.NewInMemoryDispatcher()
	NewNotificationService(NotificationDependencies{Dispatcher: dispatcher, Cache: cache}).RegisterHandlers()

	svc := NewEmployeeService(EmployeeDependencies{
		EmployeeRepo:   store.Employees(),
		AttendanceRepo: store.Attendances(),
		Validator:      validation.New(store.Employees()),
		Dispatcher:     dispatcher,
		Cache:          cache,
	})

	page, err := svc.List(context.Background(), EmployeeListQuery{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
	assert.Len(t, cache.entries, 1)

	_, err = svc.Create(context.Background(), validation.EmployeeInput{
		EmployeeCode: ptr("E1"), Name: ptr("A"), Department: ptr("D"), Position: ptr("P"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"employee", "attendance"}, cache.invalidated)

	page, err = svc.List(context.Background(), EmployeeListQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	assert.Len(t, cache.entries, 2)
}

// raceCache misses, then lets an invalidation land before the loaded page is stored.
type raceCache struct {
	*mapCache
	onMiss func()
}

func (r *raceCache) Get(ctx context.Context, resource, key string, dest any) (int64, bool) {
	gen, ok := r.mapCache.Get(ctx, resource, key, dest)
	if !ok && r.onMiss != nil {
		r.onMiss()
		r.onMiss = nil
	}
	return gen, ok
}

func TestListDoesNotCachePageLoadedBeforeWrite(t *testing.T) {
	store := memstore.New()
	cache := &raceCache{mapCache: newMapCache()}
	svc := NewEmployeeService(EmployeeDependencies{
		EmployeeRepo:   store.Employees(),
		AttendanceRepo: store.Attendances(),
		Validator:      validation.New(store.Employees()),
		Cache:          cache,
	})
	cache.onMiss = func() {
		require.NoError(t, cache.Invalidate(context.Background(), "employee"))
	}

	_, err := svc.List(context.Background(), EmployeeListQuery{})
	require.NoError(t, err)
	assert.Empty(t, cache.entries)
}

type recordingForwarder struct{ got []events.Event }

func (r *recordingForwarder) Publish(_ context.Context, e events.Event) error {
	r.got = append(r.got, e)
	return nil
}

func TestNotificationServiceForwardsEvents(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	fwd := &recordingForwarder{}
	NewNotificationService(NotificationDependencies{Dispatcher: dispatcher, Forwarder: fwd}).RegisterHandlers()

	require.NoError(t, dispatcher.Publish(context.Background(), events.NewEvent(events.EventAttendanceDeleted, 3, time.Now(), nil)))
	require.Len(t, fwd.got, 1)
	assert.Equal(t, events.EventAttendanceDeleted, fwd.got[0].Type)
}
