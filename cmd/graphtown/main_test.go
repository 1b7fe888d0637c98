package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const testQueries = `
query "somethings" {
  field "somethings" {
    fields = ["id", "title", "age", "createdAt"]
  }
}

query "somethings_string" {
  document = "{ somethings { identifier: id title } }"
}
`

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestHelp(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runWith([]string{"help", "fetch"}, &out, io.Discard))
	require.Contains(t, out.String(), "fetch FLAGS")

	out.Reset()
	require.NoError(t, runWith([]string{"help"}, &out, io.Discard))
	require.Contains(t, out.String(), "COMMANDS")

	require.Error(t, runWith([]string{"help", "nope"}, &out, io.Discard))
}

func TestUnknownAndMissingCommand(t *testing.T) {
	var errOut bytes.Buffer
	require.ErrorContains(t, runWith(nil, io.Discard, &errOut), "missing command")
	require.Contains(t, errOut.String(), "USAGE")
	require.ErrorContains(t, runWith([]string{"serve"}, io.Discard, io.Discard), "unknown command")
}

func TestPrint(t *testing.T) {
	dir := t.TempDir()
	queries := writeFile(t, dir, "queries.hcl", testQueries)

	var out bytes.Buffer
	require.NoError(t, runWith([]string{"print", "-queries", queries}, &out, io.Discard))
	s := out.String()
	require.Contains(t, s, "# somethings (expression)")
	require.Contains(t, s, "createdAt")
	require.Contains(t, s, "# somethings_string (literal)")
	require.Less(t, strings.Index(s, "# somethings (expression)"), strings.Index(s, "# somethings_string"))

	require.ErrorContains(t, runWith([]string{"print"}, io.Discard, io.Discard), "-queries is required")
}

func TestFetch(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		b, _ := io.ReadAll(r.Body)
		idKey := "id"
		if strings.Contains(string(b), "identifier") {
			idKey = "identifier"
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"somethings": []any{map[string]any{idKey: 1, "title": "I'm a title!"}}},
		})
	}))
	defer srv.Close()

	t.Setenv("GRAPHTOWN_GRAPHQL_ENDPOINT", "")
	dir := t.TempDir()
	cfg := writeFile(t, dir, "graphtown.yml", "graphql_endpoint: "+srv.URL+"\n")
	queries := writeFile(t, dir, "queries.hcl", testQueries)
	outFile := filepath.Join(dir, "out.json")

	err := runWith([]string{"fetch", "-config", cfg, "-queries", queries, "-out", outFile, "-log.level", "error"}, io.Discard, io.Discard)
	require.NoError(t, err)
	require.Equal(t, 2, hits)

	b, err := os.ReadFile(outFile)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"somethings": [{"id": 1, "title": "I'm a title!"}],
		"somethings_string": {"somethings": [{"identifier": 1, "title": "I'm a title!"}]}
	}`, string(b))
	require.Less(t, strings.Index(string(b), `"somethings"`), strings.Index(string(b), `"somethings_string"`))
}

func TestFetchMissingEndpoint(t *testing.T) {
	t.Setenv("GRAPHTOWN_GRAPHQL_ENDPOINT", "")
	dir := t.TempDir()
	queries := writeFile(t, dir, "queries.hcl", testQueries)

	err := runWith([]string{"fetch", "-config", filepath.Join(dir, "absent.yml"), "-queries", queries, "-log.level", "error"}, io.Discard, io.Discard)
	require.ErrorContains(t, err, "graphql_endpoint")
}

func TestFetchRequiresQueries(t *testing.T) {
	require.ErrorContains(t, runWith([]string{"fetch"}, io.Discard, io.Discard), "-queries is required")
	require.Error(t, runWith([]string{"fetch", "-queries", "x.hcl", "-log.level", "loud"}, io.Discard, io.Discard))
}
