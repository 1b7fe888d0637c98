// Package client is a minimal GraphQL-over-HTTP transport. It parses query
// text (validating against a schema when one is configured) and executes
// documents, returning the response's data object.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	eventbus "github.com/hanpama/graphtown/internal/eventbus"
	events "github.com/hanpama/graphtown/internal/events"
	language "github.com/hanpama/graphtown/internal/language"
)

// Client sends GraphQL requests to a single endpoint. The exported fields may
// be changed by options until the first Parse or Execute call.
type Client struct {
	Endpoint   string
	Header     http.Header
	HTTPClient *http.Client
	// SchemaPath points to an SDL file. When set, Parse validates queries
	// against it.
	SchemaPath string
	// Timeout applies when the request context has no deadline. 0 disables it.
	Timeout time.Duration

	schemaOnce sync.Once
	schema     *language.Schema
	schemaErr  error
}

// New creates a client for endpoint and applies opts in order.
func New(endpoint string, opts ...Option) (*Client, error) {
	if endpoint == "" {
		return nil, errors.New("client: endpoint is required")
	}
	c := &Client{
		Endpoint:   endpoint,
		Header:     http.Header{},
		HTTPClient: http.DefaultClient,
		Timeout:    DefaultTimeout,
	}
	for _, f := range opts {
		if f != nil {
			f(c)
		}
	}
	if c.HTTPClient == nil {
		c.HTTPClient = http.DefaultClient
	}
	if c.Header == nil {
		c.Header = http.Header{}
	}
	return c, nil
}

// Schema returns the schema loaded from SchemaPath, or nil when none is
// configured.
func (c *Client) Schema() (*language.Schema, error) {
	if c.SchemaPath == "" {
		return nil, nil
	}
	c.schemaOnce.Do(func() {
		c.schema, c.schemaErr = language.LoadSchemaFile(c.SchemaPath)
		if c.schemaErr != nil {
			c.schemaErr = fmt.Errorf("client: load schema %s: %w", c.SchemaPath, c.schemaErr)
		}
	})
	return c.schema, c.schemaErr
}

// Parse turns query text into an executable document. The document must
// declare exactly one operation, since requests carry no operation name
// chosen by the caller.
func (c *Client) Parse(query string) (*language.QueryDocument, error) {
	sch, err := c.Schema()
	if err != nil {
		return nil, err
	}
	var doc *language.QueryDocument
	if sch != nil {
		doc, err = language.LoadQuery(sch, query)
	} else {
		doc, err = language.ParseQuery(query)
	}
	if err != nil {
		return nil, fmt.Errorf("client: parse query: %w", err)
	}
	if n := len(doc.Operations); n != 1 {
		return nil, fmt.Errorf("client: parse query: %w", &OperationCountError{Count: n})
	}
	return doc, nil
}

// request is the JSON body of a GraphQL POST.
type request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

type response struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors,omitempty"`
}

// Execute sends doc with variables and returns the response's data object.
// doc must hold a single operation.
func (c *Client) Execute(ctx context.Context, doc *language.QueryDocument, variables map[string]any) (map[string]any, error) {
	if doc != nil && len(doc.Operations) > 1 {
		return nil, fmt.Errorf("client: %w", &OperationCountError{Count: len(doc.Operations)})
	}
	query, err := language.FormatQuery(doc)
	if err != nil {
		return nil, fmt.Errorf("client: %w", err)
	}
	opName := doc.Operations[0].Name
	body, err := json.Marshal(request{Query: query, OperationName: opName, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("client: encode request: %w", err)
	}

	if _, ok := ctx.Deadline(); !ok && c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("client: build request: %w", err)
	}
	for k, v := range c.Header {
		req.Header[k] = append([]string(nil), v...)
	}
	req.Header.Set("Content-Type", "application/json")
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	start := time.Now()
	status := 0
	eventbus.Publish(ctx, events.HTTPClientStart{Request: req, OperationName: opName})
	defer func() {
		eventbus.Publish(ctx, events.HTTPClientFinish{
			Request:       req,
			OperationName: opName,
			Status:        status,
			Err:           err,
			Duration:      time.Since(start),
		})
	}()

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		err = fmt.Errorf("client: post %s: %w", c.Endpoint, err)
		return nil, err
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		err = &HTTPError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(bytes.TrimSpace(b))}
		return nil, err
	}

	var out map[string]any
	out, err = decodeResponse(resp.Body)
	return out, err
}

func decodeResponse(r io.Reader) (map[string]any, error) {
	var res response
	if err := json.NewDecoder(r).Decode(&res); err != nil {
		return nil, fmt.Errorf("client: decode response: %w", err)
	}
	var data map[string]any
	if len(res.Data) > 0 && !bytes.Equal(res.Data, []byte("null")) {
		if err := json.Unmarshal(res.Data, &data); err != nil {
			return nil, fmt.Errorf("client: decode data: %w", err)
		}
	}
	if len(res.Errors) > 0 {
		return nil, &ResponseError{Errors: res.Errors, Data: data}
	}
	if data == nil {
		return nil, ErrNoData
	}
	return data, nil
}
