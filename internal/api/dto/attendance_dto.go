package dto

import (
	"github.com/spec-kit/attendance-service/internal/domain"
	"github.com/spec-kit/attendance-service/internal/validation"
)

// AttendanceRequest is the body of attendance create and update calls.
type AttendanceRequest struct {
	EmployeeID *int64  `json:"employee_id"`
	Type       *string `json:"type"`
	Timestamp  *string `json:"timestamp"`
	ImageURL   *string `json:"image_url"`
	Note       *string `json:"note"`
	Location   *string `json:"location"`
}

// Input converts the request for validation and the service layer. body is the
// raw request body, scanned for explicit nulls.
func (r AttendanceRequest) Input(body []byte) validation.AttendanceInput {
	return validation.AttendanceInput{
		EmployeeID: r.EmployeeID,
		Type:       r.Type,
		Timestamp:  r.Timestamp,
		ImageURL:   r.ImageURL,
		Note:       r.Note,
		Location:   r.Location,
		Nulls:      NullFields(body),
	}
}

// AttendanceResponse is the wire form of an attendance event.
type AttendanceResponse struct {
	ID           int64   `json:"id"`
	EmployeeID   int64   `json:"employee_id"`
	Type         string  `json:"type"`
	Timestamp    string  `json:"timestamp"`
	ImageURL     *string `json:"image_url"`
	Note         *string `json:"note"`
	Location     *string `json:"location"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
	EmployeeName *string `json:"employee_name,omitempty"`
	EmployeeCode *string `json:"employee_code,omitempty"`
}

// NewAttendanceResponse maps a domain attendance event.
func NewAttendanceResponse(a domain.AttendanceEvent) AttendanceResponse {
	return AttendanceResponse{
		ID:           a.ID,
		EmployeeID:   a.EmployeeID,
		Type:         string(a.Type),
		Timestamp:    domain.FormatTimestamp(a.Timestamp),
		ImageURL:     a.ImageURL,
		Note:         a.Note,
		Location:     a.Location,
		CreatedAt:    domain.FormatTimestamp(a.CreatedAt),
		UpdatedAt:    domain.FormatTimestamp(a.UpdatedAt),
		EmployeeName: a.EmployeeName,
		EmployeeCode: a.EmployeeCode,
	}
}

// AttendanceData wraps a single event in the envelope's data field.
type AttendanceData struct {
	Attendance AttendanceResponse `json:"attendance"`
}

// AttendanceListData is the data field of attendance listings.
type AttendanceListData struct {
	Attendances []AttendanceResponse `json:"attendances"`
	Pagination  Pagination           `json:"pagination"`
}

// NewAttendanceListData maps a page of events.
func NewAttendanceListData(items []domain.AttendanceEvent, p Pagination) AttendanceListData {
	out := make([]AttendanceResponse, 0, len(items))
	for _, a := range items {
		out = append(out, NewAttendanceResponse(a))
	}
	return AttendanceListData{Attendances: out, Pagination: p}
}
