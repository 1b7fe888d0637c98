// Package querydef loads query definitions from HCL files.
//
//	query "somethings" {
//	  field "somethings" {
//	    fields = ["id", "title", "age", "createdAt"]
//	  }
//	}
//
//	query "somethings_string" {
//	  document  = "{ somethings { identifier: id title } }"
//	  variables = { limit = 10 }
//	}
//
// A query block carries either a literal document or structured field
// blocks. Field blocks nest, and accept alias, args and a fields shorthand for
// leaf selections. var blocks declare operation variables for structured
// queries. Expressions may read the process environment through env.NAME.
package querydef

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"

	build "github.com/hanpama/graphtown/internal/build"
	executor "github.com/hanpama/graphtown/internal/executor"
	registry "github.com/hanpama/graphtown/internal/registry"
)

// Query is one decoded query block.
type Query struct {
	Name       string
	Definition registry.Definition
	// Variables is nil when the block declares none.
	Variables map[string]any
	// Source is the file the block was declared in.
	Source string
}

// File is the set of queries loaded from one or more files, in declaration
// order.
type File struct {
	Queries []Query
}

type hclFile struct {
	Queries []*hclQuery `hcl:"query,block"`
}

type hclQuery struct {
	Name          string      `hcl:"name,label"`
	Document      *string     `hcl:"document,optional"`
	Operation     *string     `hcl:"operation,optional"`
	OperationName *string     `hcl:"operation_name,optional"`
	Variables     cty.Value   `hcl:"variables,optional"`
	Vars          []*hclVar   `hcl:"var,block"`
	Fields        []*hclField `hcl:"field,block"`
}

type hclVar struct {
	Name string `hcl:"name,label"`
	Type string `hcl:"type"`
}

type hclField struct {
	Name   string      `hcl:"name,label"`
	Alias  *string     `hcl:"alias,optional"`
	Args   cty.Value   `hcl:"args,optional"`
	Leaves []string    `hcl:"fields,optional"`
	Fields []*hclField `hcl:"field,block"`
}

// Load parses the given files. A directory argument loads every *.hcl file in
// it, sorted by name. Query names must be unique across all files.
func Load(paths ...string) (*File, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("querydef: %w", err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(p, "*.hcl"))
		if err != nil {
			return nil, fmt.Errorf("querydef: %w", err)
		}
		sort.Strings(matches)
		files = append(files, matches...)
	}

	parser := hclparse.NewParser()
	out := &File{}
	for _, path := range files {
		f, diags := parser.ParseHCLFile(path)
		if diags.HasErrors() {
			return nil, fmt.Errorf("querydef: parse %s: %w", path, diags)
		}
		if err := out.decode(path, f.Body); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Parse decodes a single HCL source. filename is used in diagnostics.
func Parse(filename string, src []byte) (*File, error) {
	f, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("querydef: parse %s: %w", filename, diags)
	}
	out := &File{}
	if err := out.decode(filename, f.Body); err != nil {
		return nil, err
	}
	return out, nil
}

func (f *File) decode(source string, body hcl.Body) error {
	var raw hclFile
	if diags := gohcl.DecodeBody(body, evalContext(), &raw); diags.HasErrors() {
		return fmt.Errorf("querydef: decode: %w", diags)
	}
	for _, q := range raw.Queries {
		if prev, ok := f.lookup(q.Name); ok {
			return fmt.Errorf("querydef: query %q declared twice (%s and %s)", q.Name, prev.Source, source)
		}
		query, err := q.toQuery()
		if err != nil {
			return fmt.Errorf("querydef: %s: query %q: %w", source, q.Name, err)
		}
		query.Source = source
		f.Queries = append(f.Queries, query)
	}
	return nil
}

func (f *File) lookup(name string) (Query, bool) {
	for _, q := range f.Queries {
		if q.Name == name {
			return q, true
		}
	}
	return Query{}, false
}

// Register adds every query to reg in declaration order.
func (f *File) Register(reg *registry.Registry) {
	for _, q := range f.Queries {
		reg.Register(q.Name, q.Definition)
	}
}

// VariableOptions returns an executor option per query that declares
// variables.
func (f *File) VariableOptions() []executor.Option {
	var opts []executor.Option
	for _, q := range f.Queries {
		if q.Variables == nil {
			continue
		}
		vars := q.Variables
		opts = append(opts, executor.WithVariables(q.Name, func() map[string]any { return vars }))
	}
	return opts
}

func (q *hclQuery) toQuery() (Query, error) {
	out := Query{Name: q.Name}
	if !build.IsName(q.Name) {
		return out, fmt.Errorf("not a valid GraphQL name")
	}

	vars, err := toGoMap(q.Variables)
	if err != nil {
		return out, fmt.Errorf("variables: %w", err)
	}
	out.Variables = vars

	switch {
	case q.Document != nil && len(q.Fields) > 0:
		return out, fmt.Errorf("document and field blocks are mutually exclusive")
	case q.Document != nil:
		if strings.TrimSpace(*q.Document) == "" {
			return out, fmt.Errorf("document is empty")
		}
		if len(q.Vars) > 0 || q.Operation != nil || q.OperationName != nil {
			return out, fmt.Errorf("var, operation and operation_name apply to field blocks only")
		}
		out.Definition = registry.Literal(*q.Document)
		return out, nil
	case len(q.Fields) == 0:
		return out, fmt.Errorf("either document or at least one field block is required")
	}

	var op *build.Operation
	kind := "query"
	if q.Operation != nil {
		kind = *q.Operation
	}
	switch kind {
	case "query":
		op = build.Query()
	case "mutation":
		op = build.Mutation()
	default:
		return out, fmt.Errorf("unsupported operation %q", kind)
	}
	if q.OperationName != nil {
		op.Named(*q.OperationName)
	}
	for _, v := range q.Vars {
		op.Var(v.Name, v.Type)
	}
	for _, hf := range q.Fields {
		f, err := hf.toField()
		if err != nil {
			return out, err
		}
		op.Select(f)
	}
	if _, err := op.Document(); err != nil {
		return out, err
	}
	out.Definition = registry.Expression(op)
	return out, nil
}

func (hf *hclField) toField() (*build.Node, error) {
	f := build.Field(hf.Name)
	if hf.Alias != nil {
		f.As(*hf.Alias)
	}
	args, err := toGoMap(hf.Args)
	if err != nil {
		return nil, fmt.Errorf("field %q args: %w", hf.Name, err)
	}
	names := make([]string, 0, len(args))
	for k := range args {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		f.Arg(k, argValue(args[k]))
	}
	f.Fields(hf.Leaves...)
	for _, child := range hf.Fields {
		c, err := child.toField()
		if err != nil {
			return nil, err
		}
		f.Select(c)
	}
	return f, nil
}

// argValue maps "$name" strings to variable references.
func argValue(v any) any {
	if s, ok := v.(string); ok && strings.HasPrefix(s, "$") && build.IsName(s[1:]) {
		return build.Variable(s[1:])
	}
	return v
}

func toGoMap(v cty.Value) (map[string]any, error) {
	if v.Type() == cty.NilType || v.IsNull() {
		return nil, nil
	}
	if !v.IsWhollyKnown() {
		return nil, fmt.Errorf("value is not known")
	}
	if !v.Type().IsObjectType() && !v.Type().IsMapType() {
		return nil, fmt.Errorf("expected an object, got %s", v.Type().FriendlyName())
	}
	b, err := ctyjson.SimpleJSONValue{Value: v}.MarshalJSON()
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func evalContext() *hcl.EvalContext {
	env := map[string]cty.Value{}
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		env[k] = cty.StringVal(v)
	}
	envVal := cty.MapValEmpty(cty.String)
	if len(env) > 0 {
		envVal = cty.MapVal(env)
	}
	return &hcl.EvalContext{Variables: map[string]cty.Value{"env": envVal}}
}
