package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/attendance-service/internal/domain"
)

// AttendanceRepository encapsulates attendance event persistence.
type AttendanceRepository interface {
	Create(ctx context.Context, event *domain.AttendanceEvent) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.AttendanceEvent, error)
	List(ctx context.Context, filter AttendanceFilter) ([]domain.AttendanceEvent, int64, error)
	Update(ctx context.Context, id int64, patch domain.AttendancePatch, updatedAt time.Time) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	CountByEmployee(ctx context.Context, employeeID int64) (int64, error)
}

// AttendanceFilter captures attendance search parameters.
type AttendanceFilter struct {
	EmployeeID *int64
	Type       *domain.AttendanceType
	From       *time.Time
	To         *time.Time
	// WithEmployee joins employees to fill EmployeeName and EmployeeCode.
	WithEmployee bool
	Limit        int
	Offset       int
}

const attendanceColumns = `a.id, a.employee_id, a.type, a.timestamp, a.image_url, a.note, a.location,
               a.created_at, a.updated_at`

type attendanceRepository struct {
	db DB
}

// NewAttendanceRepository instantiates the Postgres-backed repository.
func NewAttendanceRepository(db DB) AttendanceRepository {
	return &attendanceRepository{db: db}
}

func (r *attendanceRepository) Create(ctx context.Context, ev *domain.AttendanceEvent) (int64, error) {
	const query = `
        INSERT INTO attendance_events (employee_id, type, timestamp, image_url, note, location, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id`

	var id int64
	if err := r.db.QueryRow(ctx, query,
		ev.EmployeeID,
		ev.Type,
		ev.Timestamp,
		ev.ImageURL,
		ev.Note,
		ev.Location,
		ev.CreatedAt,
		ev.UpdatedAt,
	).Scan(&id); err != nil {
		return 0, mapPgError(err)
	}
	ev.ID = id
	return id, nil
}

func (r *attendanceRepository) GetByID(ctx context.Context, id int64) (*domain.AttendanceEvent, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendance_events a WHERE a.id=$1`

	var ev domain.AttendanceEvent
	if err := scanAttendance(r.db.QueryRow(ctx, query, id), &ev, false); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &ev, nil
}

func attendanceWhere(filter AttendanceFilter) whereBuilder {
	var w whereBuilder
	if filter.EmployeeID != nil {
		w.add("a.employee_id=%s", *filter.EmployeeID)
	}
	if filter.Type != nil {
		w.add("a.type=%s", string(*filter.Type))
	}
	if filter.From != nil {
		w.add("a.timestamp >= %s", *filter.From)
	}
	if filter.To != nil {
		w.add("a.timestamp <= %s", *filter.To)
	}
	return w
}

func (r *attendanceRepository) List(ctx context.Context, filter AttendanceFilter) ([]domain.AttendanceEvent, int64, error) {
	w := attendanceWhere(filter)

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM attendance_events a`+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	columns, from := attendanceColumns, "attendance_events a"
	if filter.WithEmployee {
		columns += ", e.name, e.employee_code"
		from += " LEFT JOIN employees e ON e.id = a.employee_id"
	}
	limit, offset := pageBounds(filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM %s%s ORDER BY a.timestamp DESC, a.id DESC LIMIT %d OFFSET %d`,
		columns, from, w.sql(), limit, offset)

	rows, err := r.db.Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	result := make([]domain.AttendanceEvent, 0)
	for rows.Next() {
		var ev domain.AttendanceEvent
		if err := scanAttendance(rows, &ev, filter.WithEmployee); err != nil {
			return nil, 0, err
		}
		result = append(result, ev)
	}
	return result, total, rows.Err()
}

func (r *attendanceRepository) Update(ctx context.Context, id int64, patch domain.AttendancePatch, updatedAt time.Time) (bool, error) {
	var s setBuilder
	if patch.EmployeeID != nil {
		s.set("employee_id", *patch.EmployeeID)
	}
	if patch.Type != nil {
		s.set("type", string(*patch.Type))
	}
	if patch.Timestamp != nil {
		s.set("timestamp", *patch.Timestamp)
	}
	if patch.ImageURL != nil {
		s.set("image_url", *patch.ImageURL)
	} else if patch.ClearImageURL {
		s.set("image_url", nil)
	}
	if patch.Note != nil {
		s.set("note", *patch.Note)
	} else if patch.ClearNote {
		s.set("note", nil)
	}
	if patch.Location != nil {
		s.set("location", *patch.Location)
	} else if patch.ClearLocation {
		s.set("location", nil)
	}
	s.set("updated_at", updatedAt)

	s.args = append(s.args, id)
	query := fmt.Sprintf(`UPDATE attendance_events SET %s WHERE id=$%d`, s.sql(), len(s.args))

	cmd, err := r.db.Exec(ctx, query, s.args...)
	if err != nil {
		return false, mapPgError(err)
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *attendanceRepository) Delete(ctx context.Context, id int64) (bool, error) {
	const query = `DELETE FROM attendance_events WHERE id=$1`
	cmd, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *attendanceRepository) CountByEmployee(ctx context.Context, employeeID int64) (int64, error) {
	const query = `SELECT COUNT(*) FROM attendance_events WHERE employee_id=$1`
	var count int64
	if err := r.db.QueryRow(ctx, query, employeeID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func scanAttendance(row pgx.Row, ev *domain.AttendanceEvent, withEmployee bool) error {
	var typ string
	dest := []any{
		&ev.ID,
		&ev.EmployeeID,
		&typ,
		&ev.Timestamp,
		&ev.ImageURL,
		&ev.Note,
		&ev.Location,
		&ev.CreatedAt,
		&ev.UpdatedAt,
	}
	if withEmployee {
		dest = append(dest, &ev.EmployeeName, &ev.EmployeeCode)
	}
	if err := row.Scan(dest...); err != nil {
		return err
	}
	ev.Type = domain.AttendanceType(typ)
	return nil
}
