package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/attendance-service/internal/api/dto"
	"github.com/spec-kit/attendance-service/internal/service"
	apperrors "github.com/spec-kit/attendance-service/pkg/util/errorutil"
)

func success(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(dto.Envelope{
		Status:  dto.StatusSuccess,
		Message: message,
		Data:    data,
	})
}

func pagination[T any](p service.Page[T]) dto.Pagination {
	return dto.Pagination{Total: p.Total, Page: p.Page, Limit: p.Limit, Pages: p.Pages}
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewBadRequest("invalid request body")
	}
	return nil
}
