package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// StatusError is a non-2xx answer from the records service.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	// Message is the service's "message" field, or "Erreur: <status>".
	Message string
}

func (e *StatusError) Error() string {
	return e.Message
}

// NotFound reports whether the service answered 404.
func (e *StatusError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

func newStatusError(method, path string, status int, body []byte) *StatusError {
	se := &StatusError{
		Method:     method,
		Path:       path,
		StatusCode: status,
		Message:    fmt.Sprintf("Erreur: %d", status),
	}
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		se.Message = payload.Message
	}
	return se
}

// IsNotFound reports whether err is a 404 from the records service.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.NotFound()
}
