package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/attendance-service/internal/config"
	"github.com/spec-kit/attendance-service/internal/domain"
	"github.com/spec-kit/attendance-service/internal/events"
	"github.com/spec-kit/attendance-service/internal/repository"
	"github.com/spec-kit/attendance-service/internal/validation"
	apperrors "github.com/spec-kit/attendance-service/pkg/util/errorutil"
)

// AttendanceService coordinates attendance event workflows.
type AttendanceService struct {
	base
	attendances repository.AttendanceRepository
	employees   repository.EmployeeRepository
	validator   *validation.Validator
}

// AttendanceDependencies bundles collaborators for the attendance service.
type AttendanceDependencies struct {
	AttendanceRepo repository.AttendanceRepository
	EmployeeRepo   repository.EmployeeRepository
	Validator      *validation.Validator
	Dispatcher     events.Dispatcher
	Cache          ListCache
	Clock          domain.Clock
	Logger         *zap.Logger
	Pagination     config.PaginationConfig
}

// AttendanceListQuery describes attendance listing filters.
type AttendanceListQuery struct {
	EmployeeID *int64
	Type       *domain.AttendanceType
	From       *time.Time
	To         *time.Time
	Page       int
	Limit      int
}

// NewAttendanceService constructs the service.
func NewAttendanceService(deps AttendanceDependencies) *AttendanceService {
	return &AttendanceService{
		base:        newBase(deps.Dispatcher, deps.Cache, deps.Clock, deps.Logger, deps.Pagination),
		attendances: deps.AttendanceRepo,
		employees:   deps.EmployeeRepo,
		validator:   deps.Validator,
	}
}

// Create records a clock action. A missing timestamp defaults to now.
func (s *AttendanceService) Create(ctx context.Context, input validation.AttendanceInput) (*domain.AttendanceEvent, error) {
	res, err := s.validator.ValidateAttendance(ctx, input, validation.ModeCreate)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if !res.Valid() {
		return nil, res.Err()
	}

	now := s.now()
	event := domain.AttendanceEvent{
		EmployeeID: *input.EmployeeID,
		Type:       domain.AttendanceType(*input.Type),
		Timestamp:  now,
		ImageURL:   input.ImageURL,
		Note:       input.Note,
		Location:   input.Location,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if input.Timestamp != nil {
		ts, err := domain.ParseTimestamp(*input.Timestamp)
		if err != nil {
			return nil, apperrors.NewValidationError([]apperrors.FieldError{{Field: "timestamp", Message: err.Error()}})
		}
		event.Timestamp = ts
	}

	id, err := s.attendances.Create(ctx, &event)
	if err != nil {
		return nil, writeAttendanceError(err)
	}

	created, err := s.attendances.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if created == nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("attendance %d not found after insert", id))
	}

	s.publish(ctx, events.NewEvent(events.EventAttendanceCreated, created.ID, now, attendancePayload(created)))
	return created, nil
}

// Get returns one attendance event or a not-found error.
func (s *AttendanceService) Get(ctx context.Context, id int64) (*domain.AttendanceEvent, error) {
	event, err := s.attendances.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if event == nil {
		return nil, apperrors.NewNotFound("attendance")
	}
	return event, nil
}

// List returns a filtered page ordered by timestamp, newest first.
func (s *AttendanceService) List(ctx context.Context, q AttendanceListQuery) (Page[domain.AttendanceEvent], error) {
	return s.list(ctx, q, false)
}

// ListForEmployee lists one employee's events with the employee's name and code attached.
func (s *AttendanceService) ListForEmployee(ctx context.Context, employeeID int64, q AttendanceListQuery) (Page[domain.AttendanceEvent], error) {
	employee, err := s.employees.GetByID(ctx, employeeID)
	if err != nil {
		return Page[domain.AttendanceEvent]{}, apperrors.NewInternalError(err)
	}
	if employee == nil {
		return Page[domain.AttendanceEvent]{}, apperrors.NewNotFound("employee")
	}
	q.EmployeeID = &employeeID
	return s.list(ctx, q, true)
}

func (s *AttendanceService) list(ctx context.Context, q AttendanceListQuery, withEmployee bool) (Page[domain.AttendanceEvent], error) {
	page, limit, offset := normalizePage(q.Page, q.Limit, s.pagination)

	key := url.Values{}
	if q.EmployeeID != nil {
		key.Set("employee_id", strconv.FormatInt(*q.EmployeeID, 10))
	}
	if q.Type != nil {
		key.Set("type", string(*q.Type))
	}
	if q.From != nil {
		key.Set("from", q.From.UTC().Format(time.RFC3339Nano))
	}
	if q.To != nil {
		key.Set("to", q.To.UTC().Format(time.RFC3339Nano))
	}
	if withEmployee {
		key.Set("with_employee", "true")
	}
	key.Set("page", strconv.Itoa(page))
	key.Set("limit", strconv.Itoa(limit))

	return cachedList(ctx, s.base, string(events.ResourceAttendance), key.Encode(), func() (Page[domain.AttendanceEvent], error) {
		items, total, err := s.attendances.List(ctx, repository.AttendanceFilter{
			EmployeeID:   q.EmployeeID,
			Type:         q.Type,
			From:         q.From,
			To:           q.To,
			WithEmployee: withEmployee,
			Limit:        limit,
			Offset:       offset,
		})
		if err != nil {
			return Page[domain.AttendanceEvent]{}, apperrors.NewInternalError(err)
		}
		return newPage(items, total, page, limit), nil
	})
}

// Update applies the supplied fields to an existing attendance event.
func (s *AttendanceService) Update(ctx context.Context, id int64, input validation.AttendanceInput) (*domain.AttendanceEvent, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	res, err := s.validator.ValidateAttendance(ctx, input, validation.ModeUpdate)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if !res.Valid() {
		return nil, res.Err()
	}

	patch := domain.AttendancePatch{
		EmployeeID: input.EmployeeID,
		ImageURL:   input.ImageURL,
		Note:       input.Note,
		Location:   input.Location,

		ClearImageURL: input.Nulls.Has("image_url"),
		ClearNote:     input.Nulls.Has("note"),
		ClearLocation: input.Nulls.Has("location"),
	}
	if input.Type != nil {
		t := domain.AttendanceType(*input.Type)
		patch.Type = &t
	}
	if input.Timestamp != nil {
		ts, err := domain.ParseTimestamp(*input.Timestamp)
		if err != nil {
			return nil, apperrors.NewValidationError([]apperrors.FieldError{{Field: "timestamp", Message: err.Error()}})
		}
		patch.Timestamp = &ts
	}

	now := s.now()
	ok, err := s.attendances.Update(ctx, id, patch, now)
	if err != nil {
		return nil, writeAttendanceError(err)
	}
	if !ok {
		return nil, apperrors.NewNotFound("attendance")
	}

	updated, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewEvent(events.EventAttendanceUpdated, id, now, attendancePayload(updated)))
	return updated, nil
}

// Delete physically removes an attendance event.
func (s *AttendanceService) Delete(ctx context.Context, id int64) error {
	event, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	ok, err := s.attendances.Delete(ctx, id)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if !ok {
		return apperrors.NewNotFound("attendance")
	}

	s.publish(ctx, events.NewEvent(events.EventAttendanceDeleted, id, s.now(), attendancePayload(event)))
	return nil
}

// writeAttendanceError maps a lost foreign-key race to the same field error
// validation would have produced.
func writeAttendanceError(err error) error {
	if errors.Is(err, repository.ErrForeignKey) {
		return apperrors.NewValidationError([]apperrors.FieldError{{Field: "employee_id", Message: "employee not found"}})
	}
	return apperrors.NewInternalError(err)
}

func attendancePayload(a *domain.AttendanceEvent) events.AttendanceChangedPayload {
	return events.AttendanceChangedPayload{
		EmployeeID: a.EmployeeID,
		Type:       string(a.Type),
		Timestamp:  domain.FormatTimestamp(a.Timestamp),
	}
}
