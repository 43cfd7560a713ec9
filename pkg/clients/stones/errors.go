package stones

import (
	"errors"
	"fmt"
)

// ErrEmptyResponse is returned when the backend answers with a success status but no usable payload.
var ErrEmptyResponse = errors.New("no data received from server")

// ConnectionError reports that the backend could not be reached at all.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return "cannot connect to server. Please check if the backend is running."
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ServerError is returned by ListStones for non-2xx responses and carries the response body.
type ServerError struct {
	Status int
	Body   string
}

func (e *ServerError) Error() string {
	body := e.Body
	if body == "" {
		body = "No error details available"
	}
	return fmt.Sprintf("server error: %d - %s", e.Status, body)
}

// HTTPError is returned by the single-stone operations for non-2xx responses.
type HTTPError struct {
	Status int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http error: status %d", e.Status)
}

// StatusCode extracts the backend status carried by a ServerError or HTTPError.
func StatusCode(err error) (int, bool) {
	var serverErr *ServerError
	if errors.As(err, &serverErr) {
		return serverErr.Status, true
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status, true
	}
	return 0, false
}
