package executor

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-openapi/strfmt"
	build "github.com/hanpama/graphtown/internal/build"
	client "github.com/hanpama/graphtown/internal/client"
	registry "github.com/hanpama/graphtown/internal/registry"
	"github.com/stretchr/testify/require"
)

type something struct {
	ID        int             `json:"id"`
	Title     string          `json:"title"`
	Age       int             `json:"age"`
	CreatedAt strfmt.DateTime `json:"createdAt"`
}

type aliasedSomething struct {
	Identifier int    `json:"identifier"`
	Title      string `json:"title"`
}

func testQueries() *registry.Registry {
	reg := registry.New()
	reg.Query("somethings", build.Query(
		build.Field("somethings").Fields("id", "title", "age", "createdAt"),
	))
	reg.Literal("somethings_string", `
		query {
			somethings {
				identifier: id
				title
				age
				createdAt
			}
		}
	`)
	return reg
}

func newSomethingsServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		b, _ := io.ReadAll(r.Body)
		var req struct {
			Query string `json:"query"`
		}
		_ = json.Unmarshal(b, &req)
		if r.Header.Get("X-Site") != "graphtown" {
			http.Error(w, "missing site header", http.StatusUnauthorized)
			return
		}
		idKey := "id"
		if strings.Contains(req.Query, "identifier") {
			idKey = "identifier"
		}
		body := map[string]any{
			"data": map[string]any{
				"somethings": []any{map[string]any{
					idKey:       1,
					"title":     "I'm a title!",
					"age":       123,
					"createdAt": "2020-08-14T15:58:29+00:00",
				}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestScenarioStructuredAndLiteralQueries(t *testing.T) {
	var hits int32
	srv := newSomethingsServer(t, &hits)
	exec := New(testQueries(),
		WithEndpoint(srv.URL),
		WithClientConfig(func(c *client.Client) { c.Header.Set("X-Site", "graphtown") }),
	)

	res, err := exec.Resolve(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 2, atomic.LoadInt32(&hits))
	require.Equal(t, []string{"somethings", "somethings_string"}, res.Names())

	var records []something
	require.NoError(t, res.Decode("somethings", &records))
	require.Len(t, records, 1)
	require.Equal(t, 1, records[0].ID)
	require.Equal(t, "I'm a title!", records[0].Title)
	require.Equal(t, 123, records[0].Age)
	want := time.Date(2020, 8, 14, 15, 58, 29, 0, time.UTC)
	require.True(t, time.Time(records[0].CreatedAt).Equal(want))

	whole, ok := res.Value("somethings_string").(map[string]any)
	require.True(t, ok, "literal query falls back to the whole data object")
	require.Contains(t, whole, "somethings")
	var fallback struct {
		Somethings []aliasedSomething `json:"somethings"`
	}
	require.NoError(t, res.Decode("somethings_string", &fallback))
	require.Len(t, fallback.Somethings, 1)
	require.Equal(t, 1, fallback.Somethings[0].Identifier)
	require.Equal(t, "I'm a title!", fallback.Somethings[0].Title)

	again, err := exec.Resolve(context.Background())
	require.NoError(t, err)
	require.Same(t, res, again)
	require.EqualValues(t, 2, atomic.LoadInt32(&hits))
}

func TestScenarioTransportErrorSurfaces(t *testing.T) {
	var hits int32
	srv := newSomethingsServer(t, &hits)
	exec := New(testQueries(), WithEndpoint(srv.URL))

	_, err := exec.Resolve(context.Background())
	var he *client.HTTPError
	require.ErrorAs(t, err, &he)
	require.Equal(t, http.StatusUnauthorized, he.StatusCode)
	require.ErrorIs(t, err, ErrTransport)
	require.EqualValues(t, 1, atomic.LoadInt32(&hits))
}

func TestScenarioLiteralValidatedAgainstIntrospectionSchema(t *testing.T) {
	var hits int32
	srv := newSomethingsServer(t, &hits)
	schemaPath := filepath.Join("..", "client", "testdata", "introspectionSchema.json")
	configure := func(c *client.Client) {
		c.Header.Set("X-Site", "graphtown")
		c.SchemaPath = schemaPath
	}

	res, err := New(testQueries(), WithEndpoint(srv.URL), WithClientConfig(configure)).Resolve(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, res.Len())
	require.EqualValues(t, 2, atomic.LoadInt32(&hits))

	reg := testQueries()
	reg.Literal("somethings_string", `{ somethings { identifier: id colour } }`)
	_, err = New(reg, WithEndpoint(srv.URL), WithClientConfig(configure)).Resolve(context.Background())
	var te *TransportError
	require.ErrorAs(t, err, &te)
	require.Equal(t, "somethings_string", te.Query)
	require.Equal(t, "parse", te.Op)
	require.ErrorContains(t, err, "colour")
	require.EqualValues(t, 3, atomic.LoadInt32(&hits))
}

func TestScenarioLiteralWithSeveralOperations(t *testing.T) {
	var hits int32
	srv := newSomethingsServer(t, &hits)
	reg := registry.New()
	reg.Literal("somethings", `query A { somethings { id } } query B { somethings { title } }`)

	_, err := New(reg, WithEndpoint(srv.URL)).Resolve(context.Background())
	var te *TransportError
	require.ErrorAs(t, err, &te)
	require.Equal(t, "parse", te.Op)
	var countErr *client.OperationCountError
	require.ErrorAs(t, err, &countErr)
	require.Equal(t, 2, countErr.Count)
	require.EqualValues(t, 0, atomic.LoadInt32(&hits))
}

func TestResultsMarshalJSONKeepsOrder(t *testing.T) {
	r := newResults(3)
	r.set("zeta", 1)
	r.set("alpha", []any{"x"})
	r.set("mid", map[string]any{"k": true})

	b, err := json.Marshal(r)
	require.NoError(t, err)
	require.JSONEq(t, `{"zeta":1,"alpha":["x"],"mid":{"k":true}}`, string(b))
	require.Equal(t, `{"zeta":1,"alpha":["x"],"mid":{"k":true}}`, string(b))
}

func TestDecodeUnknownQuery(t *testing.T) {
	r := newResults(0)
	var out any
	require.ErrorContains(t, r.Decode("nope", &out), "nope")
}
