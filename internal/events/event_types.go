package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventEmployeeCreated     EventType = "employee.created"
	EventEmployeeUpdated     EventType = "employee.updated"
	EventEmployeeDeleted     EventType = "employee.deleted"
	EventEmployeeDeactivated EventType = "employee.deactivated"

	EventAttendanceCreated EventType = "attendance.created"
	EventAttendanceUpdated EventType = "attendance.updated"
	EventAttendanceDeleted EventType = "attendance.deleted"
)

// AllEventTypes lists every event the services publish.
var AllEventTypes = []EventType{
	EventEmployeeCreated,
	EventEmployeeUpdated,
	EventEmployeeDeleted,
	EventEmployeeDeactivated,
	EventAttendanceCreated,
	EventAttendanceUpdated,
	EventAttendanceDeleted,
}

// Resource names the entity an event refers to.
type Resource string

const (
	ResourceEmployee   Resource = "employee"
	ResourceAttendance Resource = "attendance"
)

// Resource derives the entity kind from the event type.
func (t EventType) Resource() Resource {
	switch t {
	case EventAttendanceCreated, EventAttendanceUpdated, EventAttendanceDeleted:
		return ResourceAttendance
	default:
		return ResourceEmployee
	}
}

// Event represents a domain event emitted by services.
type Event struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	ResourceID int64     `json:"resource_id"`
	Timestamp  time.Time `json:"timestamp"`
	Payload    any       `json:"payload,omitempty"`
}

// NewEvent stamps a fresh event id.
func NewEvent(eventType EventType, resourceID int64, at time.Time, payload any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		ResourceID: resourceID,
		Timestamp:  at,
		Payload:    payload,
	}
}

// EmployeeChangedPayload payload.
type EmployeeChangedPayload struct {
	EmployeeCode string `json:"employee_code"`
	Department   string `json:"department"`
	IsActive     bool   `json:"is_active"`
}

// AttendanceChangedPayload payload.
type AttendanceChangedPayload struct {
	EmployeeID int64  `json:"employee_id"`
	Type       string `json:"type"`
	Timestamp  string `json:"timestamp"`
}
