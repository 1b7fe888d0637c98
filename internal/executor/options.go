package executor

import (
	client "github.com/hanpama/graphtown/internal/client"
)

// VariablesFunc supplies the variables of one query. Returning nil sends no
// variables.
type VariablesFunc func() map[string]any

// TransportFactory builds the transport for endpoint. configure is the client
// configuration hook and is never nil.
type TransportFactory func(endpoint string, configure func(*client.Client)) (Transport, error)

// Options configures an Executor.
//
// Defaults:
//   - Endpoint:     none; Resolve fails with a ConfigurationError
//   - Configure:    no-op
//   - NewTransport: client.New
type Options struct {
	Endpoint     func() (string, error)
	Configure    func(*client.Client)
	Variables    map[string]VariablesFunc
	NewTransport TransportFactory
}

type Option func(*Options)

// WithEndpoint sets a fixed endpoint URL.
func WithEndpoint(url string) Option {
	return func(o *Options) { o.Endpoint = func() (string, error) { return url, nil } }
}

// WithEndpointFunc resolves the endpoint lazily on the first Resolve call.
func WithEndpointFunc(fn func() (string, error)) Option {
	return func(o *Options) { o.Endpoint = fn }
}

// WithClientConfig sets the client configuration hook.
func WithClientConfig(fn func(*client.Client)) Option {
	return func(o *Options) { o.Configure = fn }
}

// WithVariables registers the variables provider for the query name.
func WithVariables(name string, fn VariablesFunc) Option {
	return func(o *Options) {
		if o.Variables == nil {
			o.Variables = map[string]VariablesFunc{}
		}
		o.Variables[name] = fn
	}
}

// WithTransport replaces how the transport is built.
func WithTransport(f TransportFactory) Option {
	return func(o *Options) { o.NewTransport = f }
}

func defaultOptions() *Options {
	return &Options{
		Configure:    func(*client.Client) {},
		NewTransport: newClientTransport,
	}
}

func newClientTransport(endpoint string, configure func(*client.Client)) (Transport, error) {
	return client.New(endpoint, configure)
}
