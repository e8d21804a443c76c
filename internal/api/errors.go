// ABOUTME: Error types for backend calls
// ABOUTME: StatusError carries the HTTP status and the backend's detail message

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	// ErrNotFound matches a 404 StatusError
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized matches a 401 StatusError
	ErrUnauthorized = errors.New("unauthorized")
	// ErrStreamUnavailable is returned by OpenStream when no streamable
	// body could be obtained
	ErrStreamUnavailable = errors.New("stream unavailable")
)

// StatusError is a non-2xx backend response.
type StatusError struct {
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("backend returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Detail)
}

// Is makes errors.Is(err, ErrNotFound) and errors.Is(err, ErrUnauthorized) work.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	}
	return false
}

// maxErrorBody bounds how much of an error body is read.
const maxErrorBody = 64 << 10

// newStatusError reads the error body. FastAPI answers {"detail": "..."};
// other servers may use {"error": "..."} or plain text.
func newStatusError(resp *http.Response) *StatusError {
	e := &StatusError{StatusCode: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(body) == 0 {
		return e
	}

	var payload struct {
		Detail json.RawMessage `json:"detail"`
		Error  string          `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		var detail string
		switch {
		case len(payload.Detail) > 0 && json.Unmarshal(payload.Detail, &detail) == nil:
			e.Detail = detail
		case len(payload.Detail) > 0:
			// validation errors arrive as a list of objects
			e.Detail = string(payload.Detail)
		default:
			e.Detail = payload.Error
		}
		return e
	}

	e.Detail = strings.TrimSpace(string(body))
	return e
}
