package httpapi

import "fmt"

// APIError represents a non-2xx response from the server.
// Message is the plain-text body, or a status line when the body is empty.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string { return e.Message }

func newAPIError(status int, body []byte) *APIError {
	msg := errorMessage(body)
	if msg == "" {
		msg = fmt.Sprintf("request failed: status %d", status)
	}
	return &APIError{StatusCode: status, Message: msg}
}
