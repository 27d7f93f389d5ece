package domain

import "time"

// Employee is the identity record for a staff member.
type Employee struct {
	ID              int64
	EmployeeCode    string
	Name            string
	Department      string
	Position        string
	Email           *string
	Phone           *string
	ProfileImageURL *string
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// EmployeePatch carries the mutable fields of a partial update; nil means
// untouched. The Clear flags set an optional field to null.
type EmployeePatch struct {
	EmployeeCode    *string
	Name            *string
	Department      *string
	Position        *string
	Email           *string
	Phone           *string
	ProfileImageURL *string
	IsActive        *bool

	ClearEmail           bool
	ClearPhone           bool
	ClearProfileImageURL bool
}

// IsEmpty reports whether the patch changes nothing.
func (p EmployeePatch) IsEmpty() bool {
	return p.EmployeeCode == nil && p.Name == nil && p.Department == nil && p.Position == nil &&
		p.Email == nil && p.Phone == nil && p.ProfileImageURL == nil && p.IsActive == nil &&
		!p.ClearEmail && !p.ClearPhone && !p.ClearProfileImageURL
}

// Apply returns a copy of e with the patch applied.
func (p EmployeePatch) Apply(e Employee) Employee {
	if p.EmployeeCode != nil {
		e.EmployeeCode = *p.EmployeeCode
	}
	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.Department != nil {
		e.Department = *p.Department
	}
	if p.Position != nil {
		e.Position = *p.Position
	}
	if p.Email != nil || p.ClearEmail {
		e.Email = p.Email
	}
	if p.Phone != nil || p.ClearPhone {
		e.Phone = p.Phone
	}
	if p.ProfileImageURL != nil || p.ClearProfileImageURL {
		e.ProfileImageURL = p.ProfileImageURL
	}
	if p.IsActive != nil {
		e.IsActive = *p.IsActive
	}
	return e
}
