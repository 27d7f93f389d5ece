package dto

import (
	"bytes"
	"encoding/json"

	"github.com/spec-kit/attendance-service/internal/validation"
	apperrors "github.com/spec-kit/attendance-service/pkg/util/errorutil"
)

// Envelope is the body of every API response.
type Envelope struct {
	Status  string                 `json:"status"`
	Message string                 `json:"message,omitempty"`
	Data    any                    `json:"data,omitempty"`
	Errors  []apperrors.FieldError `json:"errors,omitempty"`
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Pagination describes the page window of a listing.
type Pagination struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Pages int   `json:"pages"`
}

// NullFields lists the top-level keys of a JSON object body whose value is
// null. Bodies that are not JSON objects have none.
func NullFields(body []byte) validation.Nulls {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil
	}
	var nulls validation.Nulls
	for name, raw := range fields {
		if !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			continue
		}
		if nulls == nil {
			nulls = validation.Nulls{}
		}
		nulls[name] = true
	}
	return nulls
}
