package executor

import (
	"context"
	"sync"

	client "github.com/hanpama/graphtown/internal/client"
	language "github.com/hanpama/graphtown/internal/language"
)

// MockResponder answers one executed query in tests.
type MockResponder func(query string, variables map[string]any) (map[string]any, error)

// NewMockDataResponder returns a MockResponder that always answers data.
func NewMockDataResponder(data map[string]any) MockResponder {
	return func(string, map[string]any) (map[string]any, error) { return data, nil }
}

// MockCall records one transport invocation. Op is "parse" or "execute".
type MockCall struct {
	Op        string
	Query     string
	Variables map[string]any
}

// MockTransport implements Transport for tests. Parse uses the real query
// parser; Execute renders the document and hands the text to the responder.
type MockTransport struct {
	mu        sync.Mutex
	respond   MockResponder
	parseErr  error
	calls     []MockCall
	endpoints []string
	clients   []*client.Client
}

// NewMockTransport creates a MockTransport answering with respond.
func NewMockTransport(respond MockResponder) *MockTransport {
	return &MockTransport{respond: respond}
}

// FailParse makes every Parse call return err.
func (m *MockTransport) FailParse(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.parseErr = err
}

func (m *MockTransport) Parse(query string) (*language.QueryDocument, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{Op: "parse", Query: query})
	perr := m.parseErr
	m.mu.Unlock()
	if perr != nil {
		return nil, perr
	}
	return language.ParseQuery(query)
}

func (m *MockTransport) Execute(ctx context.Context, doc *language.QueryDocument, variables map[string]any) (map[string]any, error) {
	text, err := language.FormatQuery(doc)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{Op: "execute", Query: text, Variables: variables})
	respond := m.respond
	m.mu.Unlock()
	if respond == nil {
		return map[string]any{}, nil
	}
	return respond(text, variables)
}

// Factory returns a TransportFactory that builds a real client (so the
// configuration hook runs) but answers through m.
func (m *MockTransport) Factory() TransportFactory {
	return func(endpoint string, configure func(*client.Client)) (Transport, error) {
		c, err := client.New(endpoint, configure)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.endpoints = append(m.endpoints, endpoint)
		m.clients = append(m.clients, c)
		m.mu.Unlock()
		return m, nil
	}
}

// Calls returns every recorded call in order.
func (m *MockTransport) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.calls...)
}

// ExecuteCalls returns the recorded Execute calls in order.
func (m *MockTransport) ExecuteCalls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []MockCall
	for _, c := range m.calls {
		if c.Op == "execute" {
			out = append(out, c)
		}
	}
	return out
}

// Endpoints returns the endpoints the factory was asked to build for.
func (m *MockTransport) Endpoints() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.endpoints...)
}

// Clients returns the configured clients built by the factory.
func (m *MockTransport) Clients() []*client.Client {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*client.Client(nil), m.clients...)
}
