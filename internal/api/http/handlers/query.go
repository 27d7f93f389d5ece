package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/attendance-service/internal/domain"
	apperrors "github.com/spec-kit/attendance-service/pkg/util/errorutil"
)

// parseID reads a positive numeric path parameter.
func parseID(c *fiber.Ctx, param string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(param), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewBadRequest("invalid id")
	}
	return id, nil
}

// queryReader parses optional query parameters and collects one field error
// per malformed value.
type queryReader struct {
	c      *fiber.Ctx
	fields []apperrors.FieldError
}

func newQueryReader(c *fiber.Ctx) *queryReader {
	return &queryReader{c: c}
}

func (q *queryReader) raw(name string) (string, bool) {
	v := strings.TrimSpace(q.c.Query(name))
	return v, v != ""
}

func (q *queryReader) fail(name, message string) {
	q.fields = append(q.fields, apperrors.FieldError{Field: name, Message: message})
}

// positiveInt returns 0 when the parameter is absent.
func (q *queryReader) positiveInt(name string) int {
	v, ok := q.raw(name)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		q.fail(name, "must be a positive integer")
		return 0
	}
	return n
}

func (q *queryReader) id(name string) *int64 {
	v, ok := q.raw(name)
	if !ok {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 1 {
		q.fail(name, "must be a positive integer")
		return nil
	}
	return &n
}

func (q *queryReader) boolean(name string) *bool {
	v, ok := q.raw(name)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		q.fail(name, "must be true or false")
		return nil
	}
	return &b
}

func (q *queryReader) text(name string) *string {
	v, ok := q.raw(name)
	if !ok {
		return nil
	}
	return &v
}

func (q *queryReader) datetime(name string) *time.Time {
	v, ok := q.raw(name)
	if !ok {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		q.fail(name, "must be an RFC 3339 datetime")
		return nil
	}
	t = t.UTC()
	return &t
}

func (q *queryReader) attendanceType(name string) *domain.AttendanceType {
	v, ok := q.raw(name)
	if !ok {
		return nil
	}
	t := domain.AttendanceType(v)
	if !t.Valid() {
		q.fail(name, "must be one of check_in, check_out, break_start, break_end")
		return nil
	}
	return &t
}

func (q *queryReader) err() error {
	if len(q.fields) == 0 {
		return nil
	}
	return apperrors.NewValidationError(q.fields)
}
