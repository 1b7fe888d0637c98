package querydef

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	build "github.com/hanpama/graphtown/internal/build"
	executor "github.com/hanpama/graphtown/internal/executor"
	registry "github.com/hanpama/graphtown/internal/registry"
	"github.com/stretchr/testify/require"
)

const sample = `
query "somethings" {
  field "somethings" {
    fields = ["id", "title", "age", "createdAt"]
  }
}

query "somethings_string" {
  document = <<-EOT
    query {
      somethings {
        identifier: id
        title
      }
    }
  EOT
  variables = { limit = 10, tags = ["go", "hcl"] }
}

query "page" {
  operation_name = "Page"
  var "first" { type = "Int!" }
  field "posts" {
    alias = "latest"
    args  = { first = "$first", order = "DESC" }
    fields = ["id"]
    field "author" {
      fields = ["name"]
    }
  }
}
`

func TestParse(t *testing.T) {
	f, err := Parse("queries.hcl", []byte(sample))
	require.NoError(t, err)
	require.Len(t, f.Queries, 3)

	q := f.Queries[0]
	require.Equal(t, "somethings", q.Name)
	require.Equal(t, registry.KindExpression, q.Definition.Kind())
	require.Nil(t, q.Variables)
	require.Equal(t, "queries.hcl", q.Source)
	op, ok := q.Definition.Operation()
	require.True(t, ok)
	want := build.Query(build.Field("somethings").Fields("id", "title", "age", "createdAt"))
	require.Equal(t, want.String(), op.String())

	q = f.Queries[1]
	require.Equal(t, registry.KindLiteral, q.Definition.Kind())
	text, _ := q.Definition.Literal()
	require.Contains(t, text, "identifier: id")
	require.Equal(t, map[string]any{"limit": float64(10), "tags": []any{"go", "hcl"}}, q.Variables)

	q = f.Queries[2]
	op, ok = q.Definition.Operation()
	require.True(t, ok)
	want = build.Query(
		build.Field("posts").
			As("latest").
			Arg("first", build.Variable("first")).
			Arg("order", "DESC").
			Fields("id").
			Select(build.Field("author").Fields("name")),
	).Named("Page").Var("first", "Int!")
	require.Equal(t, want.String(), op.String())
}

func TestParseEnv(t *testing.T) {
	t.Setenv("GRAPHTOWN_TEST_TAG", "release")
	f, err := Parse("env.hcl", []byte(`
query "tagged" {
  document  = "query ($tag: String) { tagged(tag: $tag) { id } }"
  variables = { tag = env.GRAPHTOWN_TEST_TAG }
}
`))
	require.NoError(t, err)
	require.Equal(t, map[string]any{"tag": "release"}, f.Queries[0].Variables)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "both forms",
			src: `
query "a" {
  document = "{ a }"
  field "a" {}
}`,
			want: "mutually exclusive",
		},
		{
			name: "neither form",
			src:  `query "a" {}`,
			want: "either document or at least one field block",
		},
		{
			name: "invalid name",
			src:  `query "not-valid" { document = "{ a }" }`,
			want: "valid GraphQL name",
		},
		{
			name: "duplicate",
			src: `
query "a" { document = "{ a }" }
query "a" { document = "{ b }" }
`,
			want: "declared twice",
		},
		{
			name: "bad operation",
			src: `
query "a" {
  operation = "subscription"
  field "a" {}
}`,
			want: "unsupported operation",
		},
		{
			name: "bad var type",
			src: `
query "a" {
  var "x" { type = "[Int" }
  field "a" {}
}`,
			want: "$x",
		},
		{
			name: "bad alias",
			src: `
query "a" {
  field "a" {
    alias = "x-y"
  }
}`,
			want: `invalid alias "x-y"`,
		},
		{
			name: "bad leaf field",
			src: `
query "a" {
  field "a" {
    fields = ["id", "created at"]
  }
}`,
			want: `invalid field name "created at"`,
		},
		{
			name: "bad argument name",
			src: `
query "a" {
  field "a" {
    args = { "a b" = 1 }
  }
}`,
			want: `invalid argument name "a b"`,
		},
		{
			name: "variables not an object",
			src: `
query "a" {
  document  = "{ a }"
  variables = "nope"
}`,
			want: "expected an object",
		},
		{
			name: "syntax",
			src:  `query "a" {`,
			want: "parse",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("bad.hcl", []byte(tt.src))
			require.ErrorContains(t, err, tt.want)
		})
	}
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.hcl"), []byte(`query "second" { document = "{ b }" }`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.hcl"), []byte(`query "first" { document = "{ a }" }`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte(`ignored`), 0o644))

	f, err := Load(dir)
	require.NoError(t, err)
	require.Len(t, f.Queries, 2)
	require.Equal(t, "first", f.Queries[0].Name)
	require.Equal(t, "second", f.Queries[1].Name)
	require.Equal(t, filepath.Join(dir, "a.hcl"), f.Queries[0].Source)

	_, err = Load(filepath.Join(dir, "missing.hcl"))
	require.Error(t, err)
}

func TestRegisterAndVariables(t *testing.T) {
	f, err := Parse("queries.hcl", []byte(sample))
	require.NoError(t, err)

	reg := registry.New()
	f.Register(reg)
	require.Equal(t, []string{"somethings", "somethings_string", "page"}, reg.Names())

	m := executor.NewMockTransport(nil)
	opts := append([]executor.Option{
		executor.WithEndpoint("http://graphql.test"),
		executor.WithTransport(m.Factory()),
	}, f.VariableOptions()...)
	_, err = executor.New(reg, opts...).Resolve(context.Background())
	require.NoError(t, err)

	calls := m.ExecuteCalls()
	require.Len(t, calls, 3)
	require.Nil(t, calls[0].Variables)
	require.Equal(t, map[string]any{"limit": float64(10), "tags": []any{"go", "hcl"}}, calls[1].Variables)
	require.Nil(t, calls[2].Variables)
}
