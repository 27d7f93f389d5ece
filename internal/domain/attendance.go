package domain

import "time"

// AttendanceType enumerates the clock actions an employee can record.
type AttendanceType string

const (
	AttendanceCheckIn    AttendanceType = "check_in"
	AttendanceCheckOut   AttendanceType = "check_out"
	AttendanceBreakStart AttendanceType = "break_start"
	AttendanceBreakEnd   AttendanceType = "break_end"
)

// AttendanceTypes lists every valid AttendanceType.
var AttendanceTypes = []AttendanceType{
	AttendanceCheckIn,
	AttendanceCheckOut,
	AttendanceBreakStart,
	AttendanceBreakEnd,
}

// Valid reports whether t is one of AttendanceTypes.
func (t AttendanceType) Valid() bool {
	for _, v := range AttendanceTypes {
		if t == v {
			return true
		}
	}
	return false
}

// AttendanceEvent is a single clock action for one employee.
type AttendanceEvent struct {
	ID         int64
	EmployeeID int64
	Type       AttendanceType
	Timestamp  time.Time
	ImageURL   *string
	Note       *string
	Location   *string
	CreatedAt  time.Time
	UpdatedAt  time.Time

	// Populated only by per-employee listings.
	EmployeeName *string
	EmployeeCode *string
}

// AttendancePatch carries the mutable fields of a partial update; nil means
// untouched. The Clear flags set an optional field to null.
type AttendancePatch struct {
	EmployeeID *int64
	Type       *AttendanceType
	Timestamp  *time.Time
	ImageURL   *string
	Note       *string
	Location   *string

	ClearImageURL bool
	ClearNote     bool
	ClearLocation bool
}

// IsEmpty reports whether the patch changes nothing.
func (p AttendancePatch) IsEmpty() bool {
	return p.EmployeeID == nil && p.Type == nil && p.Timestamp == nil &&
		p.ImageURL == nil && p.Note == nil && p.Location == nil &&
		!p.ClearImageURL && !p.ClearNote && !p.ClearLocation
}

// Apply returns a copy of a with the patch applied.
func (p AttendancePatch) Apply(a AttendanceEvent) AttendanceEvent {
	if p.EmployeeID != nil {
		a.EmployeeID = *p.EmployeeID
	}
	if p.Type != nil {
		a.Type = *p.Type
	}
	if p.Timestamp != nil {
		a.Timestamp = *p.Timestamp
	}
	if p.ImageURL != nil || p.ClearImageURL {
		a.ImageURL = p.ImageURL
	}
	if p.Note != nil || p.ClearNote {
		a.Note = p.Note
	}
	if p.Location != nil || p.ClearLocation {
		a.Location = p.Location
	}
	return a
}
