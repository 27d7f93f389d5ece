package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/attendance-service/internal/api/dto"
	"github.com/spec-kit/attendance-service/internal/service"
)

// EmployeesHandler exposes employee CRUD endpoints.
type EmployeesHandler struct {
	employees *service.EmployeeService
}

// NewEmployeesHandler constructs handler.
func NewEmployeesHandler(employees *service.EmployeeService) *EmployeesHandler {
	return &EmployeesHandler{employees: employees}
}

// List handles GET /employees.
func (h *EmployeesHandler) List(c *fiber.Ctx) error {
	q := newQueryReader(c)
	query := service.EmployeeListQuery{
		Department: q.text("department"),
		IsActive:   q.boolean("is_active"),
		Name:       q.text("name"),
		Page:       q.positiveInt("page"),
		Limit:      q.positiveInt("limit"),
	}
	if err := q.err(); err != nil {
		return err
	}

	page, err := h.employees.List(c.UserContext(), query)
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, "", dto.NewEmployeeListData(page.Items, pagination(page)))
}

// Get handles GET /employees/:id.
func (h *EmployeesHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	employee, err := h.employees.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, "", dto.EmployeeData{Employee: dto.NewEmployeeResponse(*employee)})
}

// Create handles POST /employees.
func (h *EmployeesHandler) Create(c *fiber.Ctx) error {
	var req dto.EmployeeRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	employee, err := h.employees.Create(c.UserContext(), req.Input(c.Body()))
	if err != nil {
		return err
	}
	return success(c, fiber.StatusCreated, "employee created", dto.EmployeeData{Employee: dto.NewEmployeeResponse(*employee)})
}

// Update handles PUT /employees/:id.
func (h *EmployeesHandler) Update(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req dto.EmployeeRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	employee, err := h.employees.Update(c.UserContext(), id, req.Input(c.Body()))
	if err != nil {
		return err
	}
	return success(c, fiber.StatusOK, "employee updated", dto.EmployeeData{Employee: dto.NewEmployeeResponse(*employee)})
}

// Delete handles DELETE /employees/:id.
func (h *EmployeesHandler) Delete(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	outcome, err := h.employees.Delete(c.UserContext(), id)
	if err != nil {
		return err
	}

	message := "employee deleted"
	if outcome == service.DeleteOutcomeDeactivated {
		message = "employee deactivated (attendance records exist)"
	}
	return success(c, fiber.StatusOK, message, dto.EmployeeDeleteData{ID: id, Action: string(outcome)})
}
