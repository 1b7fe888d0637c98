// Package graphtown declares named GraphQL queries once per consuming type and
// resolves them lazily, exactly once per instance.
//
//	var siteQueries = graphtown.NewRegistry()
//
//	func init() {
//		siteQueries.Query("somethings", graphtown.Query(
//			graphtown.Field("somethings").Fields("id", "title", "age", "createdAt"),
//		))
//		siteQueries.Literal("somethings_string", `{ somethings { identifier: id title } }`)
//	}
//
//	exec := graphtown.NewExecutor(siteQueries, graphtown.WithEndpoint(url))
//	results, err := exec.Resolve(ctx)
package graphtown

import (
	"github.com/hanpama/graphtown/internal/build"
	"github.com/hanpama/graphtown/internal/client"
	"github.com/hanpama/graphtown/internal/config"
	"github.com/hanpama/graphtown/internal/executor"
	"github.com/hanpama/graphtown/internal/querydef"
	"github.com/hanpama/graphtown/internal/registry"
)

// ===========================
// Re-exported Types
// ===========================

// Registry types
type (
	Registry   = registry.Registry
	Definition = registry.Definition
	Entry      = registry.Entry
	Kind       = registry.Kind
)

const (
	KindExpression = registry.KindExpression
	KindLiteral    = registry.KindLiteral
)

// Builder types
type (
	Operation   = build.Operation
	Node        = build.Node
	VariableRef = build.VariableRef
	Enum        = build.Enum
)

// Executor types
type (
	Executor           = executor.Executor
	Option             = executor.Option
	Results            = executor.Results
	Transport          = executor.Transport
	TransportFactory   = executor.TransportFactory
	VariablesFunc      = executor.VariablesFunc
	ConfigurationError = executor.ConfigurationError
	TransportError     = executor.TransportError
)

// Client types
type (
	Client        = client.Client
	ClientOption  = client.Option
	GraphQLError  = client.GraphQLError
	ResponseError = client.ResponseError
	HTTPError     = client.HTTPError
)

// Config is the YAML configuration file model.
type Config = config.Config

// Error sentinels
var (
	ErrConfiguration = executor.ErrConfiguration
	ErrTransport     = executor.ErrTransport
)

// ===========================
// Convenience Functions
// ===========================

// NewRegistry returns an empty query registry.
func NewRegistry() *Registry { return registry.New() }

// Expression wraps a structured operation as a definition.
func Expression(op *Operation) Definition { return registry.Expression(op) }

// Literal wraps raw query text as a definition.
func Literal(text string) Definition { return registry.Literal(text) }

// Query starts a structured query operation.
func Query(fields ...*Node) *Operation { return build.Query(fields...) }

// Mutation starts a structured mutation operation.
func Mutation(fields ...*Node) *Operation { return build.Mutation(fields...) }

// Field selects a field with optional sub-selections.
func Field(name string, sub ...*Node) *Node { return build.Field(name, sub...) }

// Variable refers to an operation variable from an argument.
func Variable(name string) VariableRef { return build.Variable(name) }

// NewExecutor creates an executor over reg.
func NewExecutor(reg *Registry, opts ...Option) *Executor { return executor.New(reg, opts...) }

// Executor options
var (
	WithEndpoint     = executor.WithEndpoint
	WithEndpointFunc = executor.WithEndpointFunc
	WithClientConfig = executor.WithClientConfig
	WithVariables    = executor.WithVariables
	WithTransport    = executor.WithTransport
)

// WithConfig takes the endpoint and client settings from cfg.
func WithConfig(cfg *Config) []Option {
	return []Option{
		WithEndpointFunc(cfg.Endpoint),
		WithClientConfig(cfg.ConfigureClient),
	}
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (*Config, error) { return config.Load(path) }

// LoadQueries reads HCL query files into reg and returns the executor
// options carrying their declared variables.
func LoadQueries(reg *Registry, paths ...string) ([]Option, error) {
	f, err := querydef.Load(paths...)
	if err != nil {
		return nil, err
	}
	f.Register(reg)
	return f.VariableOptions(), nil
}
