package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/attendance-service/internal/domain"
)

var employeeCols = []string{
	"id", "employee_code", "name", "department", "position", "email", "phone",
	"profile_image_url", "is_active", "created_at", "updated_at",
}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

func strPtr(s string) *string { return &s }

func TestEmployeeRepositoryCreate(t *testing.T) {
	mock := newMock(t)
	repo := NewEmployeeRepository(mock)
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	e := &domain.Employee{
		EmployeeCode: "E001",
		Name:         "Alice",
		Department:   "Eng",
		Position:     "Dev",
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO employees")).
		WithArgs("E001", "Alice", "Eng", "Dev", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), true, now, now).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))

	id, err := repo.Create(context.Background(), e)
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.Equal(t, int64(7), e.ID)
}

func TestEmployeeRepositoryCreateDuplicateCode(t *testing.T) {
	mock := newMock(t)
	repo := NewEmployeeRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO employees")).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "employees_employee_code_key"})

	_, err := repo.Create(context.Background(), &domain.Employee{EmployeeCode: "E001"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateKey))
}

func TestEmployeeRepositoryGetByID(t *testing.T) {
	mock := newMock(t)
	repo := NewEmployeeRepository(mock)
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM employees WHERE id=$1")).
		WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows(employeeCols).
			AddRow(int64(3), "E003", "Carol", "Ops", "Lead", strPtr("c@x.io"), nil, nil, true, now, now))

	e, err := repo.GetByID(context.Background(), 3)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "Carol", e.Name)
	require.NotNil(t, e.Email)
	assert.Equal(t, "c@x.io", *e.Email)
	assert.Nil(t, e.Phone)
}

func TestEmployeeRepositoryGetByIDMissing(t *testing.T) {
	mock := newMock(t)
	repo := NewEmployeeRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta("FROM employees WHERE id=$1")).
		WithArgs(int64(99)).
		WillReturnRows(pgxmock.NewRows(employeeCols))

	e, err := repo.GetByID(context.Background(), 99)
	require.NoError(t, err)
	assert.Nil(t, e)
}

func TestEmployeeRepositoryListBuildsFilters(t *testing.T) {
	mock := newMock(t)
	repo := NewEmployeeRepository(mock)
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	dept := "Eng"
	active := true
	name := "Al_"

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM employees WHERE department=$1 AND is_active=$2 AND LOWER(name) LIKE $3`)).
		WithArgs("Eng", true, `%al\_%`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY id ASC LIMIT 10 OFFSET 10`)).
		WithArgs("Eng", true, `%al\_%`).
		WillReturnRows(pgxmock.NewRows(employeeCols).
			AddRow(int64(1), "E001", "Al_ice", "Eng", "Dev", nil, nil, nil, true, now, now))

	items, total, err := repo.List(context.Background(), EmployeeFilter{
		Department: &dept,
		IsActive:   &active,
		Name:       &name,
		Limit:      10,
		Offset:     10,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, "E001", items[0].EmployeeCode)
}

func TestEmployeeRepositoryUpdateOnlyTouchesProvidedColumns(t *testing.T) {
	mock := newMock(t)
	repo := NewEmployeeRepository(mock)
	now := time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)
	name := "Alicia"
	active := false

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE employees SET name=$1, is_active=$2, updated_at=$3 WHERE id=$4`)).
		WithArgs("Alicia", false, now, int64(1)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	ok, err := repo.Update(context.Background(), 1, domain.EmployeePatch{Name: &name, IsActive: &active}, now)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEmployeeRepositoryUpdateClearsOptionalColumns(t *testing.T) {
	mock := newMock(t)
	repo := NewEmployeeRepository(mock)
	now := time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE employees SET email=$1, profile_image_url=$2, updated_at=$3 WHERE id=$4`)).
		WithArgs(nil, nil, now, int64(1)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	ok, err := repo.Update(context.Background(), 1, domain.EmployeePatch{ClearEmail: true, ClearProfileImageURL: true}, now)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEmployeeRepositoryDeactivateAndDelete(t *testing.T) {
	mock := newMock(t)
	repo := NewEmployeeRepository(mock)
	now := time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE employees SET is_active=FALSE, updated_at=$1 WHERE id=$2`)).
		WithArgs(now, int64(5)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM employees WHERE id=$1`)).
		WithArgs(int64(6)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	ok, err := repo.Deactivate(context.Background(), 5, now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Delete(context.Background(), 6)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLikePatternEscapesWildcards(t *testing.T) {
	assert.Equal(t, `%50\%\_off%`, likePattern(" 50%_OFF "))
	assert.Equal(t, `%a\\b%`, likePattern(`a\b`))
}
