package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestToDomainErrorPassesThroughWrapped(t *testing.T) {
	base := NewNotFound("employee")
	wrapped := fmt.Errorf("lookup: %w", base)

	de := ToDomainError(wrapped)
	assert.Equal(t, "NOT_FOUND", de.Code)
	assert.Equal(t, "employee not found", de.Message)
	assert.Equal(t, http.StatusNotFound, de.HTTPStatus)
	assert.True(t, IsNotFound(wrapped))
}

func TestToDomainErrorWrapsUnknownAsInternal(t *testing.T) {
	cause := errors.New("connection refused")

	de := ToDomainError(cause)
	assert.Equal(t, "INTERNAL_ERROR", de.Code)
	assert.Equal(t, http.StatusInternalServerError, de.HTTPStatus)
	assert.ErrorIs(t, de, cause)
	assert.Contains(t, de.Error(), "connection refused")
}

func TestToDomainErrorFromFiber(t *testing.T) {
	de := ToDomainError(fiber.NewError(http.StatusNotFound, "Cannot GET /nope"))
	assert.Equal(t, "NOT_FOUND", de.Code)
	assert.Equal(t, http.StatusNotFound, de.HTTPStatus)

	de = ToDomainError(fiber.NewError(http.StatusUnprocessableEntity, "bad body"))
	assert.Equal(t, "BAD_REQUEST", de.Code)
	assert.Equal(t, http.StatusUnprocessableEntity, de.HTTPStatus)
}

func TestValidationErrorCarriesFields(t *testing.T) {
	err := NewValidationError([]FieldError{{Field: "email", Message: "invalid email address"}})

	de := ToDomainError(err)
	assert.Equal(t, http.StatusBadRequest, de.HTTPStatus)
	assert.Len(t, de.Fields, 1)
	assert.Equal(t, "email", de.Fields[0].Field)
	assert.Nil(t, ToDomainError(nil))
}
