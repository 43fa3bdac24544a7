package api

import (
	"fmt"
	"net/http"
)

// StatusError is a non-success HTTP response.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.Code, e.Message)
}

// StatusCode returns the HTTP status.
func (e *StatusError) StatusCode() int {
	return e.Code
}

// Unauthorized reports whether the session is missing or expired.
func (e *StatusError) Unauthorized() bool {
	return e.Code == http.StatusUnauthorized
}

// NetworkError is a request that did not complete.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (b errorBody) text() string {
	if b.Error != "" {
		return b.Error
	}
	return b.Message
}
