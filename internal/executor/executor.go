package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	client "github.com/hanpama/graphtown/internal/client"
	eventbus "github.com/hanpama/graphtown/internal/eventbus"
	events "github.com/hanpama/graphtown/internal/events"
	language "github.com/hanpama/graphtown/internal/language"
	registry "github.com/hanpama/graphtown/internal/registry"
	reqid "github.com/hanpama/graphtown/internal/reqid"
)

// Transport parses and executes GraphQL documents.
type Transport interface {
	Parse(query string) (*language.QueryDocument, error)
	Execute(ctx context.Context, doc *language.QueryDocument, variables map[string]any) (map[string]any, error)
}

var _ Transport = (*client.Client)(nil)

// Executor resolves the queries of a registry once and caches the results.
// One Executor belongs to one consuming instance; any number of executors may
// share a registry.
type Executor struct {
	reg *registry.Registry
	opt *Options

	// pass holds a token while a resolve pass runs.
	pass chan struct{}

	mu       sync.Mutex
	executed bool
	results  *Results
}

// New creates an executor over reg.
func New(reg *registry.Registry, opts ...Option) *Executor {
	o := defaultOptions()
	for _, f := range opts {
		f(o)
	}
	if o.Configure == nil {
		o.Configure = func(*client.Client) {}
	}
	if o.NewTransport == nil {
		o.NewTransport = newClientTransport
	}
	if reg == nil {
		reg = registry.New()
	}
	return &Executor{reg: reg, opt: o, pass: make(chan struct{}, 1)}
}

// Executed reports whether a resolve pass has completed successfully.
func (e *Executor) Executed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.executed
}

func (e *Executor) cached() (*Results, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.results, e.executed
}

// Resolve executes every registered query on the first call and returns the
// cached results on later calls. Concurrent callers wait for the pass in
// progress; a waiting caller whose ctx ends gives up with ctx.Err().
func (e *Executor) Resolve(ctx context.Context) (*Results, error) {
	if r, ok := e.cached(); ok {
		return r, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	select {
	case e.pass <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-e.pass }()
	if r, ok := e.cached(); ok {
		return r, nil
	}

	endpoint, err := e.endpoint()
	if err != nil {
		return nil, err
	}
	tp, err := e.opt.NewTransport(endpoint, e.opt.Configure)
	if err != nil {
		return nil, &ConfigurationError{Message: "build transport", Err: err}
	}

	entries := e.reg.All()
	ctx, _ = reqid.NewContext(ctx)
	start := time.Now()
	eventbus.Publish(ctx, events.ResolveStart{Endpoint: endpoint, Queries: len(entries)})

	staged := newResults(len(entries))
	for _, entry := range entries {
		value, err := e.resolveOne(ctx, tp, entry)
		if err != nil {
			eventbus.Publish(ctx, events.ResolveFinish{Endpoint: endpoint, Queries: len(entries), Err: err, Duration: time.Since(start)})
			return nil, err
		}
		staged.set(entry.Name, value)
	}

	e.mu.Lock()
	e.results = staged
	e.executed = true
	e.mu.Unlock()
	eventbus.Publish(ctx, events.ResolveFinish{Endpoint: endpoint, Queries: len(entries), Duration: time.Since(start)})
	return staged, nil
}

func (e *Executor) endpoint() (string, error) {
	if e.opt.Endpoint == nil {
		return "", missingEndpoint()
	}
	url, err := e.opt.Endpoint()
	if err != nil {
		return "", &ConfigurationError{Message: "resolve graphql endpoint", Err: err}
	}
	if url == "" {
		return "", missingEndpoint()
	}
	return url, nil
}

func (e *Executor) resolveOne(ctx context.Context, tp Transport, entry registry.Entry) (value any, err error) {
	kind := entry.Definition.Kind().String()
	start := time.Now()
	fallback := false
	eventbus.Publish(ctx, events.QueryStart{Name: entry.Name, Kind: kind})
	defer func() {
		eventbus.Publish(ctx, events.QueryFinish{
			Name:     entry.Name,
			Kind:     kind,
			Fallback: fallback,
			Err:      err,
			Duration: time.Since(start),
		})
	}()

	doc, err := executable(tp, entry)
	if err != nil {
		return nil, err
	}

	var vars map[string]any
	if fn, ok := e.opt.Variables[entry.Name]; ok && fn != nil {
		vars = fn()
	}

	data, err := tp.Execute(ctx, doc, vars)
	if err != nil {
		return nil, &TransportError{Query: entry.Name, Op: "execute", Err: err}
	}
	value, fallback = Normalize(entry.Name, data)
	return value, nil
}

func executable(tp Transport, entry registry.Entry) (*language.QueryDocument, error) {
	def := entry.Definition
	switch def.Kind() {
	case registry.KindExpression:
		op, ok := def.Operation()
		if !ok {
			return nil, &TransportError{Query: entry.Name, Op: "build", Err: fmt.Errorf("expression without operation")}
		}
		doc, err := op.Document()
		if err != nil {
			return nil, &TransportError{Query: entry.Name, Op: "build", Err: err}
		}
		return doc, nil
	case registry.KindLiteral:
		text, _ := def.Literal()
		doc, err := tp.Parse(text)
		if err != nil {
			return nil, &TransportError{Query: entry.Name, Op: "parse", Err: err}
		}
		return doc, nil
	default:
		return nil, &TransportError{Query: entry.Name, Op: "build", Err: fmt.Errorf("invalid definition")}
	}
}

// Normalize picks the result for the query name out of a response data
// object. It returns data[name] when the key is present, even with a null
// value, and data itself otherwise. fallback reports the second case.
func Normalize(name string, data map[string]any) (result any, fallback bool) {
	if v, ok := data[name]; ok {
		return v, false
	}
	return data, true
}
