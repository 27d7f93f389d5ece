// Package validation checks candidate employee and attendance records before
// they are written. Invalid input is reported through Result, never as an error.
package validation

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/spec-kit/attendance-service/internal/domain"
	apperrors "github.com/spec-kit/attendance-service/pkg/util/errorutil"
)

// Mode selects the rule set applied to a candidate record.
type Mode int

const (
	ModeCreate Mode = iota
	ModeUpdate
)

// EmployeeLookup resolves employees for uniqueness and existence checks.
type EmployeeLookup interface {
	GetByID(ctx context.Context, id int64) (*domain.Employee, error)
	GetByCode(ctx context.Context, code string) (*domain.Employee, error)
}

// EmployeeInput is a candidate employee; nil fields were not supplied.
type EmployeeInput struct {
	EmployeeCode    *string `json:"employee_code" validate:"omitnil,max=20"`
	Name            *string `json:"name" validate:"omitnil,max=100"`
	Department      *string `json:"department" validate:"omitnil,max=50"`
	Position        *string `json:"position" validate:"omitnil,max=50"`
	Email           *string `json:"email" validate:"omitnil,email"`
	Phone           *string `json:"phone" validate:"omitnil,max=20,phone"`
	ProfileImageURL *string `json:"profile_image_url" validate:"omitnil,url"`
	IsActive        *bool   `json:"is_active"`

	Nulls Nulls `json:"-"`
}

// AttendanceInput is a candidate attendance event; nil fields were not supplied.
type AttendanceInput struct {
	EmployeeID *int64  `json:"employee_id"`
	Type       *string `json:"type" validate:"omitnil,attendancetype"`
	Timestamp  *string `json:"timestamp" validate:"omitnil,isotimestamp"`
	ImageURL   *string `json:"image_url" validate:"omitnil,url"`
	Note       *string `json:"note" validate:"omitnil,max=200"`
	Location   *string `json:"location" validate:"omitnil,max=100"`

	Nulls Nulls `json:"-"`
}

// Nulls holds the fields a request set to an explicit null. On update an
// explicit null clears an optional field; required fields cannot be nulled.
type Nulls map[string]bool

// Has reports whether field was sent as null.
func (n Nulls) Has(field string) bool { return n[field] }

var (
	employeeClearable   = map[string]bool{"email": true, "phone": true, "profile_image_url": true}
	attendanceClearable = map[string]bool{"image_url": true, "note": true, "location": true}
)

// nullErrors flags nulls sent for fields that cannot be cleared. On create a
// null is the same as an omitted field.
func nullErrors(res *Result, nulls Nulls, mode Mode, clearable map[string]bool, order map[string]int) {
	if mode != ModeUpdate {
		return
	}
	for field := range nulls {
		if _, known := order[field]; known && !clearable[field] {
			res.add(field, "must not be null")
		}
	}
}

// Result is the outcome of a validation pass.
type Result struct {
	Errors []apperrors.FieldError
}

// Valid reports whether no field errors were found.
func (r Result) Valid() bool { return len(r.Errors) == 0 }

// Err converts an invalid result into a validation DomainError.
func (r Result) Err() error {
	if r.Valid() {
		return nil
	}
	return apperrors.NewValidationError(r.Errors)
}

func (r *Result) add(field, message string) {
	r.Errors = append(r.Errors, apperrors.FieldError{Field: field, Message: message})
}

var (
	phonePattern     = regexp.MustCompile(`^[0-9\-+\s()]*$`)
	timestampPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}Z$`)

	employeeFieldOrder   = fieldOrder(EmployeeInput{})
	attendanceFieldOrder = fieldOrder(AttendanceInput{})
)

// Validator applies struct-tag rules plus lookups against the employee store.
type Validator struct {
	v         *validator.Validate
	employees EmployeeLookup
}

// New builds a Validator with the custom tags registered.
func New(employees EmployeeLookup) *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(jsonName)
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("isotimestamp", func(fl validator.FieldLevel) bool {
		if !timestampPattern.MatchString(fl.Field().String()) {
			return false
		}
		_, err := domain.ParseTimestamp(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("attendancetype", func(fl validator.FieldLevel) bool {
		return domain.AttendanceType(fl.Field().String()).Valid()
	})
	return &Validator{v: v, employees: employees}
}

// ValidateEmployee checks an employee candidate. excludeID is the id of the
// employee being updated and is ignored in ModeCreate.
func (val *Validator) ValidateEmployee(ctx context.Context, in EmployeeInput, mode Mode, excludeID int64) (Result, error) {
	var res Result

	required := map[string]*string{
		"employee_code": in.EmployeeCode,
		"name":          in.Name,
		"department":    in.Department,
		"position":      in.Position,
	}
	for _, field := range []string{"employee_code", "name", "department", "position"} {
		value := required[field]
		switch {
		case value == nil && mode == ModeCreate:
			res.add(field, "is required")
		case value != nil && strings.TrimSpace(*value) == "":
			res.add(field, "must not be empty")
		}
	}

	nullErrors(&res, in.Nulls, mode, employeeClearable, employeeFieldOrder)
	val.structErrors(&res, in)

	if in.EmployeeCode != nil && strings.TrimSpace(*in.EmployeeCode) != "" {
		existing, err := val.employees.GetByCode(ctx, *in.EmployeeCode)
		if err != nil {
			return Result{}, fmt.Errorf("lookup employee code: %w", err)
		}
		if existing != nil && (mode == ModeCreate || existing.ID != excludeID) {
			res.add("employee_code", "employee code already exists")
		}
	}

	sortErrors(res.Errors, employeeFieldOrder)
	return res, nil
}

// ValidateAttendance checks an attendance candidate.
func (val *Validator) ValidateAttendance(ctx context.Context, in AttendanceInput, mode Mode) (Result, error) {
	var res Result

	if mode == ModeCreate {
		if in.EmployeeID == nil {
			res.add("employee_id", "is required")
		}
		if in.Type == nil {
			res.add("type", "is required")
		}
	}

	nullErrors(&res, in.Nulls, mode, attendanceClearable, attendanceFieldOrder)
	val.structErrors(&res, in)

	if in.EmployeeID != nil {
		emp, err := val.employees.GetByID(ctx, *in.EmployeeID)
		if err != nil {
			return Result{}, fmt.Errorf("lookup employee: %w", err)
		}
		if emp == nil {
			res.add("employee_id", "employee not found")
		}
	}

	sortErrors(res.Errors, attendanceFieldOrder)
	return res, nil
}

func (val *Validator) structErrors(res *Result, in any) {
	err := val.v.Struct(in)
	if err == nil {
		return
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		res.add("_", err.Error())
		return
	}
	for _, fe := range ves {
		res.add(fe.Field(), tagMessage(fe))
	}
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "phone":
		return "must contain only digits, spaces, parentheses, + and -"
	case "attendancetype":
		names := make([]string, len(domain.AttendanceTypes))
		for i, t := range domain.AttendanceTypes {
			names[i] = string(t)
		}
		return "must be one of " + strings.Join(names, ", ")
	case "isotimestamp":
		return "must be an ISO-8601 UTC timestamp with milliseconds (YYYY-MM-DDTHH:MM:SS.sssZ)"
	default:
		return "is invalid"
	}
}

func jsonName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return f.Name
	}
	return name
}

func fieldOrder(v any) map[string]int {
	t := reflect.TypeOf(v)
	order := make(map[string]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).Tag.Get("json") == "-" {
			continue
		}
		order[jsonName(t.Field(i))] = i
	}
	return order
}

// sortErrors orders errors by declaration order of the input fields, keeping
// the insertion order for errors on the same field.
func sortErrors(errs []apperrors.FieldError, order map[string]int) {
	sort.SliceStable(errs, func(i, j int) bool {
		return order[errs[i].Field] < order[errs[j].Field]
	})
}
