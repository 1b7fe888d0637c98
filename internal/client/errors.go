package client

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoData indicates a response without a data object and without errors.
var ErrNoData = errors.New("client: response has no data")

// Location is a line/column position reported by a GraphQL server.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// GraphQLError is one entry of a response's "errors" list.
type GraphQLError struct {
	Message    string         `json:"message"`
	Locations  []Location     `json:"locations,omitempty"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

func (e GraphQLError) Error() string {
	if len(e.Path) == 0 {
		return e.Message
	}
	parts := make([]string, len(e.Path))
	for i, p := range e.Path {
		parts[i] = fmt.Sprint(p)
	}
	return fmt.Sprintf("%s: %s", strings.Join(parts, "."), e.Message)
}

// ResponseError is returned when the server answered with GraphQL errors.
// Data holds whatever partial data came along with them.
type ResponseError struct {
	Errors []GraphQLError
	Data   map[string]any
}

func (e *ResponseError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ge := range e.Errors {
		msgs[i] = ge.Error()
	}
	return "graphql: " + strings.Join(msgs, "; ")
}

// HTTPError is returned for non-2xx responses.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("client: unexpected status %s", e.Status)
	}
	return fmt.Sprintf("client: unexpected status %s: %s", e.Status, e.Body)
}

// OperationCountError reports a document that does not declare exactly one
// operation.
type OperationCountError struct {
	Count int
}

func (e *OperationCountError) Error() string {
	return fmt.Sprintf("document declares %d operations, want exactly one", e.Count)
}
