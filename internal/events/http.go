package events

import (
	"net/http"
	"time"
)

// HTTPClientStart is emitted before a GraphQL request is sent.
// Context carries the request context.
type HTTPClientStart struct {
	Request       *http.Request
	OperationName string
}

// HTTPClientFinish is emitted after the response was read or the request
// failed. Status is 0 when no response was received.
type HTTPClientFinish struct {
	Request       *http.Request
	OperationName string
	Status        int
	Err           error
	Duration      time.Duration
}
