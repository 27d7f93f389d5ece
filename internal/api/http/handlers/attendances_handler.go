package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/attendance-service/internal/api/dto"
	"github.com/spec-kit/attendance-service/internal/service"
)

// AttendancesHandler exposes attendance event endpoints.
type AttendancesHandler struct {
	attendances *service.AttendanceService
}

// NewAttendancesHandler constructs handler.
func NewAttendancesHandler(attendances *service.AttendanceService) *AttendancesHandler {
	return &AttendancesHandler{attendances: attendances}
}

func listQuery(q *queryReader, withEmployeeFilter bool) service.AttendanceListQuery {
	query := service.AttendanceListQuery{
		Type:  q.attendanceType("type"),
		From:  q.datetime("start_date"),
		To:    q.datetime("end_date"),
		Page:  q.positiveInt("page"),
		Limit: q.positiveInt("limit"),
	}
	if withEmployeeFilter {
		query.EmployeeID = q.id("employee_id")
	}
	return query
}

// List handles GET /attendances.
func (h *AttendancesHandler) List(c *fiber.Ctx) error {
	q := newQueryReader(c)
	query := listQuery(q, true)
	if err := q.err(); err != nil {
		return err
	}

	page, err := h.attendances.List(c.UserContext(), query)
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, "", dto.NewAttendanceListData(page.Items, pagination(page)))
}

// ListForEmployee handles GET /attendances/employee/:employeeId.
func (h *AttendancesHandler) ListForEmployee(c *fiber.Ctx) error {
	employeeID, err := parseID(c, "employeeId")
	if err != nil {
		return err
	}
	q := newQueryReader(c)
	query := listQuery(q, false)
	if err := q.err(); err != nil {
		return err
	}

	page, err := h.attendances.ListForEmployee(c.UserContext(), employeeID, query)
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, "", dto.NewAttendanceListData(page.Items, pagination(page)))
}

// Get handles GET /attendances/:id.
func (h *AttendancesHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	event, err := h.attendances.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, "", dto.AttendanceData{Attendance: dto.NewAttendanceResponse(*event)})
}

// Create handles POST /attendances.
func (h *AttendancesHandler) Create(c *fiber.Ctx) error {
	var req dto.AttendanceRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	event, err := h.attendances.Create(c.UserContext(), req.Input(c.Body()))
	if err != nil {
		return err
	}
	return success(c, fiber.StatusCreated, "attendance recorded", dto.AttendanceData{Attendance: dto.NewAttendanceResponse(*event)})
}

// Update handles PUT /attendances/:id.
func (h *AttendancesHandler) Update(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req dto.AttendanceRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	event, err := h.attendances.Update(c.UserContext(), id, req.Input(c.Body()))
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, "attendance updated", dto.AttendanceData{Attendance: dto.NewAttendanceResponse(*event)})
}

// Delete handles DELETE /attendances/:id.
func (h *AttendancesHandler) Delete(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.attendances.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return success(c, fiber.StatusOK, "attendance deleted", fiber.Map{"id": id})
}
