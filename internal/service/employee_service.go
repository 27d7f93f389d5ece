package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/spec-kit/attendance-service/internal/config"
	"github.com/spec-kit/attendance-service/internal/domain"
	"github.com/spec-kit/attendance-service/internal/events"
	"github.com/spec-kit/attendance-service/internal/repository"
	"github.com/spec-kit/attendance-service/internal/validation"
	apperrors "github.com/spec-kit/attendance-service/pkg/util/errorutil"
)

const msgDuplicateCode = "employee code already exists"

// DeleteOutcome tells callers which action an employee delete performed.
type DeleteOutcome string

const (
	DeleteOutcomeDeleted     DeleteOutcome = "deleted"
	DeleteOutcomeDeactivated DeleteOutcome = "deactivated"
)

// EmployeeService coordinates employee workflows.
type EmployeeService struct {
	base
	employees   repository.EmployeeRepository
	attendances repository.AttendanceRepository
	validator   *validation.Validator
}

// EmployeeDependencies bundles collaborators for the employee service.
type EmployeeDependencies struct {
	EmployeeRepo   repository.EmployeeRepository
	AttendanceRepo repository.AttendanceRepository
	Validator      *validation.Validator
	Dispatcher     events.Dispatcher
	Cache          ListCache
	Clock          domain.Clock
	Logger         *zap.Logger
	Pagination     config.PaginationConfig
}

// EmployeeListQuery describes employee listing filters.
type EmployeeListQuery struct {
	Department *string
	IsActive   *bool
	Name       *string
	Page       int
	Limit      int
}

// NewEmployeeService constructs the service.
func NewEmployeeService(deps EmployeeDependencies) *EmployeeService {
	return &EmployeeService{
		base:        newBase(deps.Dispatcher, deps.Cache, deps.Clock, deps.Logger, deps.Pagination),
		employees:   deps.EmployeeRepo,
		attendances: deps.AttendanceRepo,
		validator:   deps.Validator,
	}
}

// Create validates and persists a new employee, returning the stored row.
func (s *EmployeeService) Create(ctx context.Context, input validation.EmployeeInput) (*domain.Employee, error) {
	res, err := s.validator.ValidateEmployee(ctx, input, validation.ModeCreate, 0)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if !res.Valid() {
		return nil, res.Err()
	}

	now := s.now()
	employee := domain.Employee{
		EmployeeCode:    *input.EmployeeCode,
		Name:            *input.Name,
		Department:      *input.Department,
		Position:        *input.Position,
		Email:           input.Email,
		Phone:           input.Phone,
		ProfileImageURL: input.ProfileImageURL,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if input.IsActive != nil {
		employee.IsActive = *input.IsActive
	}

	id, err := s.employees.Create(ctx, &employee)
	if err != nil {
		return nil, s.writeError(err)
	}

	created, err := s.employees.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if created == nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("employee %d not found after insert", id))
	}

	s.publish(ctx, events.NewEvent(events.EventEmployeeCreated, created.ID, now, employeePayload(created)))
	return created, nil
}

// Get returns one employee or a not-found error.
func (s *EmployeeService) Get(ctx context.Context, id int64) (*domain.Employee, error) {
	employee, err := s.employees.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if employee == nil {
		return nil, apperrors.NewNotFound("employee")
	}
	return employee, nil
}

// List returns a filtered page of employees ordered by id.
func (s *EmployeeService) List(ctx context.Context, q EmployeeListQuery) (Page[domain.Employee], error) {
	page, limit, offset := normalizePage(q.Page, q.Limit, s.pagination)

	key := url.Values{}
	if q.Department != nil {
		key.Set("department", *q.Department)
	}
	if q.IsActive != nil {
		key.Set("is_active", strconv.FormatBool(*q.IsActive))
	}
	if q.Name != nil {
		key.Set("name", *q.Name)
	}
	key.Set("page", strconv.Itoa(page))
	key.Set("limit", strconv.Itoa(limit))

	return cachedList(ctx, s.base, string(events.ResourceEmployee), key.Encode(), func() (Page[domain.Employee], error) {
		items, total, err := s.employees.List(ctx, repository.EmployeeFilter{
			Department: q.Department,
			IsActive:   q.IsActive,
			Name:       q.Name,
			Limit:      limit,
			Offset:     offset,
		})
		if err != nil {
			return Page[domain.Employee]{}, apperrors.NewInternalError(err)
		}
		return newPage(items, total, page, limit), nil
	})
}

// Update applies the supplied fields to an existing employee.
func (s *EmployeeService) Update(ctx context.Context, id int64, input validation.EmployeeInput) (*domain.Employee, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	res, err := s.validator.ValidateEmployee(ctx, input, validation.ModeUpdate, id)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if !res.Valid() {
		return nil, res.Err()
	}

	patch := domain.EmployeePatch{
		EmployeeCode:    input.EmployeeCode,
		Name:            input.Name,
		Department:      input.Department,
		Position:        input.Position,
		Email:           input.Email,
		Phone:           input.Phone,
		ProfileImageURL: input.ProfileImageURL,
		IsActive:        input.IsActive,

		ClearEmail:           input.Nulls.Has("email"),
		ClearPhone:           input.Nulls.Has("phone"),
		ClearProfileImageURL: input.Nulls.Has("profile_image_url"),
	}
	now := s.now()
	ok, err := s.employees.Update(ctx, id, patch, now)
	if err != nil {
		return nil, s.writeError(err)
	}
	if !ok {
		return nil, apperrors.NewNotFound("employee")
	}

	updated, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewEvent(events.EventEmployeeUpdated, id, now, employeePayload(updated)))
	return updated, nil
}

// Delete removes an employee without attendance history and deactivates one
// that has any.
func (s *EmployeeService) Delete(ctx context.Context, id int64) (DeleteOutcome, error) {
	employee, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}

	count, err := s.attendances.CountByEmployee(ctx, id)
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}

	now := s.now()
	if count == 0 {
		ok, err := s.employees.Delete(ctx, id)
		switch {
		case errors.Is(err, repository.ErrForeignKey):
			// attendance arrived between the count and the delete
			s.logger.Info("employee gained attendance during delete; deactivating", zap.Int64("employee_id", id))
		case err != nil:
			return "", apperrors.NewInternalError(err)
		case !ok:
			return "", apperrors.NewNotFound("employee")
		default:
			s.publish(ctx, events.NewEvent(events.EventEmployeeDeleted, id, now, employeePayload(employee)))
			return DeleteOutcomeDeleted, nil
		}
	}

	ok, err := s.employees.Deactivate(ctx, id, now)
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}
	if !ok {
		return "", apperrors.NewNotFound("employee")
	}

	employee.IsActive = false
	s.publish(ctx, events.NewEvent(events.EventEmployeeDeactivated, id, now, employeePayload(employee)))
	return DeleteOutcomeDeactivated, nil
}

func (s *EmployeeService) writeError(err error) error {
	if errors.Is(err, repository.ErrDuplicateKey) {
		return apperrors.NewDuplicateKey(msgDuplicateCode, nil)
	}
	return apperrors.NewInternalError(err)
}

func employeePayload(e *domain.Employee) events.EmployeeChangedPayload {
	return events.EmployeeChangedPayload{
		EmployeeCode: e.EmployeeCode,
		Department:   e.Department,
		IsActive:     e.IsActive,
	}
}
