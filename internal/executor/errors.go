package executor

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration matches every *ConfigurationError.
	ErrConfiguration = errors.New("executor: configuration error")
	// ErrTransport matches every *TransportError.
	ErrTransport = errors.New("executor: transport error")
)

// ConfigurationError reports that the executor cannot build a transport,
// typically because no endpoint is configured.
type ConfigurationError struct {
	Message string
	Err     error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// TransportError wraps a failure of one query. Op is "build" for structured
// expressions that cannot be converted, "parse" for literal text rejected by
// the transport, and "execute" for the request itself.
type TransportError struct {
	Query string
	Op    string
	Err   error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("query %q: %s: %v", e.Query, e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

func missingEndpoint() *ConfigurationError {
	return &ConfigurationError{Message: "graphql endpoint is not configured: add graphql_endpoint to your config file"}
}
