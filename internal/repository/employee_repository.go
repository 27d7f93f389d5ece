package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/attendance-service/internal/domain"
)

// EmployeeRepository handles persistence for employees.
type EmployeeRepository interface {
	Create(ctx context.Context, employee *domain.Employee) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Employee, error)
	GetByCode(ctx context.Context, code string) (*domain.Employee, error)
	List(ctx context.Context, filter EmployeeFilter) ([]domain.Employee, int64, error)
	Update(ctx context.Context, id int64, patch domain.EmployeePatch, updatedAt time.Time) (bool, error)
	Deactivate(ctx context.Context, id int64, updatedAt time.Time) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// EmployeeFilter defines query params for employee listing.
type EmployeeFilter struct {
	Department *string
	IsActive   *bool
	Name       *string
	Limit      int
	Offset     int
}

const employeeColumns = `id, employee_code, name, department, position, email, phone,
               profile_image_url, is_active, created_at, updated_at`

type employeeRepository struct {
	db DB
}

// NewEmployeeRepository instantiates the Postgres-backed repository.
func NewEmployeeRepository(db DB) EmployeeRepository {
	return &employeeRepository{db: db}
}

func (r *employeeRepository) Create(ctx context.Context, e *domain.Employee) (int64, error) {
	const query = `
        INSERT INTO employees (employee_code, name, department, position, email, phone,
                               profile_image_url, is_active, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id`

	var id int64
	if err := r.db.QueryRow(ctx, query,
		e.EmployeeCode,
		e.Name,
		e.Department,
		e.Position,
		e.Email,
		e.Phone,
		e.ProfileImageURL,
		e.IsActive,
		e.CreatedAt,
		e.UpdatedAt,
	).Scan(&id); err != nil {
		return 0, mapPgError(err)
	}
	e.ID = id
	return id, nil
}

func (r *employeeRepository) GetByID(ctx context.Context, id int64) (*domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *employeeRepository) GetByCode(ctx context.Context, code string) (*domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE employee_code=$1`
	return r.fetchSingle(ctx, query, code)
}

func (r *employeeRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Employee, error) {
	var e domain.Employee
	if err := scanEmployee(r.db.QueryRow(ctx, query, arg), &e); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func employeeWhere(filter EmployeeFilter) whereBuilder {
	var w whereBuilder
	if filter.Department != nil {
		w.add("department=%s", *filter.Department)
	}
	if filter.IsActive != nil {
		w.add("is_active=%s", *filter.IsActive)
	}
	if filter.Name != nil && *filter.Name != "" {
		w.add(`LOWER(name) LIKE %s ESCAPE '\'`, likePattern(*filter.Name))
	}
	return w
}

func (r *employeeRepository) List(ctx context.Context, filter EmployeeFilter) ([]domain.Employee, int64, error) {
	w := employeeWhere(filter)

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM employees`+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := pageBounds(filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM employees%s ORDER BY id ASC LIMIT %d OFFSET %d`,
		employeeColumns, w.sql(), limit, offset)

	rows, err := r.db.Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	result := make([]domain.Employee, 0)
	for rows.Next() {
		var e domain.Employee
		if err := scanEmployee(rows, &e); err != nil {
			return nil, 0, err
		}
		result = append(result, e)
	}
	return result, total, rows.Err()
}

func (r *employeeRepository) Update(ctx context.Context, id int64, patch domain.EmployeePatch, updatedAt time.Time) (bool, error) {
	var s setBuilder
	if patch.EmployeeCode != nil {
		s.set("employee_code", *patch.EmployeeCode)
	}
	if patch.Name != nil {
		s.set("name", *patch.Name)
	}
	if patch.Department != nil {
		s.set("department", *patch.Department)
	}
	if patch.Position != nil {
		s.set("position", *patch.Position)
	}
	if patch.Email != nil {
		s.set("email", *patch.Email)
	} else if patch.ClearEmail {
		s.set("email", nil)
	}
	if patch.Phone != nil {
		s.set("phone", *patch.Phone)
	} else if patch.ClearPhone {
		s.set("phone", nil)
	}
	if patch.ProfileImageURL != nil {
		s.set("profile_image_url", *patch.ProfileImageURL)
	} else if patch.ClearProfileImageURL {
		s.set("profile_image_url", nil)
	}
	if patch.IsActive != nil {
		s.set("is_active", *patch.IsActive)
	}
	s.set("updated_at", updatedAt)

	s.args = append(s.args, id)
	query := fmt.Sprintf(`UPDATE employees SET %s WHERE id=$%d`, s.sql(), len(s.args))

	cmd, err := r.db.Exec(ctx, query, s.args...)
	if err != nil {
		return false, mapPgError(err)
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *employeeRepository) Deactivate(ctx context.Context, id int64, updatedAt time.Time) (bool, error) {
	const query = `UPDATE employees SET is_active=FALSE, updated_at=$1 WHERE id=$2`
	cmd, err := r.db.Exec(ctx, query, updatedAt, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *employeeRepository) Delete(ctx context.Context, id int64) (bool, error) {
	const query = `DELETE FROM employees WHERE id=$1`
	cmd, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return false, mapPgError(err)
	}
	return cmd.RowsAffected() == 1, nil
}

func scanEmployee(row pgx.Row, e *domain.Employee) error {
	return row.Scan(
		&e.ID,
		&e.EmployeeCode,
		&e.Name,
		&e.Department,
		&e.Position,
		&e.Email,
		&e.Phone,
		&e.ProfileImageURL,
		&e.IsActive,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
}
