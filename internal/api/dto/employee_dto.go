package dto

import (
	"github.com/spec-kit/attendance-service/internal/domain"
	"github.com/spec-kit/attendance-service/internal/validation"
)

// EmployeeRequest is the body of employee create and update calls. An omitted
// field is left untouched; a null one clears it on update.
type EmployeeRequest struct {
	EmployeeCode    *string `json:"employee_code"`
	Name            *string `json:"name"`
	Department      *string `json:"department"`
	Position        *string `json:"position"`
	Email           *string `json:"email"`
	Phone           *string `json:"phone"`
	ProfileImageURL *string `json:"profile_image_url"`
	IsActive        *bool   `json:"is_active"`
}

// Input converts the request for validation and the service layer. body is the
// raw request body, scanned for explicit nulls.
func (r EmployeeRequest) Input(body []byte) validation.EmployeeInput {
	return validation.EmployeeInput{
		EmployeeCode:    r.EmployeeCode,
		Name:            r.Name,
		Department:      r.Department,
		Position:        r.Position,
		Email:           r.Email,
		Phone:           r.Phone,
		ProfileImageURL: r.ProfileImageURL,
		IsActive:        r.IsActive,
		Nulls:           NullFields(body),
	}
}

// EmployeeResponse is the wire form of an employee.
type EmployeeResponse struct {
	ID              int64   `json:"id"`
	EmployeeCode    string  `json:"employee_code"`
	Name            string  `json:"name"`
	Department      string  `json:"department"`
	Position        string  `json:"position"`
	Email           *string `json:"email"`
	Phone           *string `json:"phone"`
	ProfileImageURL *string `json:"profile_image_url"`
	IsActive        bool    `json:"is_active"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

// NewEmployeeResponse maps a domain employee.
func NewEmployeeResponse(e domain.Employee) EmployeeResponse {
	return EmployeeResponse{
		ID:              e.ID,
		EmployeeCode:    e.EmployeeCode,
		Name:            e.Name,
		Department:      e.Department,
		Position:        e.Position,
		Email:           e.Email,
		Phone:           e.Phone,
		ProfileImageURL: e.ProfileImageURL,
		IsActive:        e.IsActive,
		CreatedAt:       domain.FormatTimestamp(e.CreatedAt),
		UpdatedAt:       domain.FormatTimestamp(e.UpdatedAt),
	}
}

// EmployeeData wraps a single employee in the envelope's data field.
type EmployeeData struct {
	Employee EmployeeResponse `json:"employee"`
}

// EmployeeListData is the data field of employee listings.
type EmployeeListData struct {
	Employees  []EmployeeResponse `json:"employees"`
	Pagination Pagination         `json:"pagination"`
}

// NewEmployeeListData maps a page of employees.
func NewEmployeeListData(items []domain.Employee, p Pagination) EmployeeListData {
	out := make([]EmployeeResponse, 0, len(items))
	for _, e := range items {
		out = append(out, NewEmployeeResponse(e))
	}
	return EmployeeListData{Employees: out, Pagination: p}
}

// EmployeeDeleteData reports which delete action ran.
type EmployeeDeleteData struct {
	ID     int64  `json:"id"`
	Action string `json:"action"`
}
