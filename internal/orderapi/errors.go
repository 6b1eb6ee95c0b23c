package orderapi

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// ErrNotFound matches a ServerError with status 404 under errors.Is.
var ErrNotFound = errors.New("order not found")

// NetworkError means the request never produced a response: the host was
// unreachable, the client timed out or the context was cancelled.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError is a non-2xx response.
type ServerError struct {
	Op         string
	StatusCode int
	// Message is the server-provided message, or the status text when the
	// body carried none.
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("%s: server returned %d: %s", e.Op, e.StatusCode, e.Message)
}

func (e *ServerError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// ValidationError is a malformed payload. It covers requests rejected before
// sending as well as responses that do not decode.
type ValidationError struct {
	Op string
	// Fields holds per-field reasons for a rejected request; empty for
	// undecodable responses.
	Fields map[string]string
	Err    error
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("%s: invalid payload: %v", e.Op, e.Err)
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return fmt.Sprintf("%s: invalid payload: %s", e.Op, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return e.Err }
