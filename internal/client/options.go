package client

import (
	"net/http"
	"time"
)

// DefaultTimeout bounds a request whose context carries no deadline.
const DefaultTimeout = 10 * time.Second

// maxErrorBody caps how much of a non-2xx body is kept in HTTPError.
const maxErrorBody = 4 << 10

// Option mutates a Client before first use. Options are the configuration
// hook: headers, the HTTP client (and with it the round tripper), the schema
// used to validate literal queries and the request timeout.
type Option func(*Client)

func WithHeader(key, value string) Option {
	return func(c *Client) { c.Header.Set(key, value) }
}

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.HTTPClient = hc } }
func WithSchemaPath(path string) Option     { return func(c *Client) { c.SchemaPath = path } }
func WithTimeout(d time.Duration) Option    { return func(c *Client) { c.Timeout = d } }
