package api

import (
	"fmt"
	"net/http"

	"github.com/goccy/go-json"

	clienterrors "github.com/tourcat/tourcat-go/internal/errors"
)

// Error is a non-2xx outcome from the catalog API. The body is kept verbatim
// so the caller can surface the authority's messages unchanged; Fields holds
// the structured per-field messages when the body carried them (the
// authority's validation-error format).
type Error struct {
	Status int
	Body   []byte
	Fields map[string][]string
}

func newError(o *Outcome) *Error {
	return &Error{
		Status: o.Status,
		Body:   o.Body,
		Fields: parseFieldErrors(o.Body),
	}
}

func (e *Error) Error() string {
	if detail := e.Detail(); detail != "" {
		return fmt.Sprintf("api: %d %s: %s", e.Status, http.StatusText(e.Status), detail)
	}
	return fmt.Sprintf("api: %d %s", e.Status, http.StatusText(e.Status))
}

// Unauthorized reports whether the authority rejected the credential.
func (e *Error) Unauthorized() bool { return e.Status == http.StatusUnauthorized }

// Unwrap maps well-known statuses onto sentinel errors so callers can use
// errors.Is without inspecting status codes.
func (e *Error) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return clienterrors.ErrUnauthorized
	case http.StatusNotFound:
		return clienterrors.ErrNotFound
	}
	return nil
}

// Detail returns the authority's top-level "detail" message, if any.
func (e *Error) Detail() string {
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(e.Body, &body); err != nil {
		return ""
	}
	return body.Detail
}

// parseFieldErrors decodes the authority's {"field": ["msg", ...]} validation
// body. Anything that does not match that shape yields no fields.
func parseFieldErrors(body []byte) map[string][]string {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil
	}

	fields := make(map[string][]string)
	for name, value := range raw {
		switch v := value.(type) {
		case string:
			fields[name] = []string{v}
		case []any:
			for _, item := range v {
				if s, ok := item.(string); ok {
					fields[name] = append(fields[name], s)
				}
			}
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}
