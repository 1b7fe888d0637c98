// Package build is a small builder for structured GraphQL operations.
//
// Operations are assembled from Field nodes and turned into a gqlparser
// document, so a structured operation and the equivalent literal query text
// render to the same GraphQL.
//
//	op := build.Query(
//		build.Field("somethings").Fields("id", "title", "age", "createdAt"),
//	)
package build

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"

	language "github.com/hanpama/graphtown/internal/language"
)

// Operation is a structured query or mutation.
type Operation struct {
	kind   language.Operation
	name   string
	vars   []varDef
	fields []*Node
}

type varDef struct {
	name string
	typ  string
}

// Query returns an anonymous query operation selecting fields.
func Query(fields ...*Node) *Operation {
	return &Operation{kind: language.Query, fields: fields}
}

// Mutation returns an anonymous mutation operation selecting fields.
func Mutation(fields ...*Node) *Operation {
	return &Operation{kind: language.Mutation, fields: fields}
}

// Named sets the operation name.
func (o *Operation) Named(name string) *Operation {
	o.name = name
	return o
}

// Var declares an operation variable. typ uses GraphQL type syntax, e.g.
// `Int!` or `[ID!]`.
func (o *Operation) Var(name, typ string) *Operation {
	o.vars = append(o.vars, varDef{name: name, typ: typ})
	return o
}

// Select appends fields to the operation's root selection set.
func (o *Operation) Select(fields ...*Node) *Operation {
	o.fields = append(o.fields, fields...)
	return o
}

// Document converts the operation into a query document. It returns an error
// when a name, variable type or argument value cannot be represented.
func (o *Operation) Document() (*language.QueryDocument, error) {
	if len(o.fields) == 0 {
		return nil, fmt.Errorf("build: operation has no fields")
	}
	if o.name != "" && !isName(o.name) {
		return nil, fmt.Errorf("build: invalid operation name %q", o.name)
	}
	op := &language.OperationDefinition{
		Operation: o.kind,
		Name:      o.name,
	}
	for _, v := range o.vars {
		if !isName(v.name) {
			return nil, fmt.Errorf("build: invalid variable name %q", v.name)
		}
		t, err := parseType(v.typ)
		if err != nil {
			return nil, fmt.Errorf("build: variable $%s: %w", v.name, err)
		}
		op.VariableDefinitions = append(op.VariableDefinitions, &language.VariableDefinition{
			Variable: v.name,
			Type:     t,
		})
	}
	set, err := selectionSet(o.fields)
	if err != nil {
		return nil, err
	}
	op.SelectionSet = set
	return &language.QueryDocument{Operations: language.OperationList{op}}, nil
}

// String renders the operation as GraphQL text, or an empty string when the
// operation is invalid.
func (o *Operation) String() string {
	doc, err := o.Document()
	if err != nil {
		return ""
	}
	s, err := language.FormatQuery(doc)
	if err != nil {
		return ""
	}
	return s
}

// Node is one selected field with optional alias, arguments and children.
type Node struct {
	name     string
	alias    string
	args     []arg
	children []*Node
}

type arg struct {
	name  string
	value any
}

// Field returns a field selecting name with the given sub-selections.
func Field(name string, sub ...*Node) *Node {
	return &Node{name: name, children: sub}
}

// As sets a response alias for the field.
func (f *Node) As(alias string) *Node {
	f.alias = alias
	return f
}

// Arg adds an argument. value may be a Go scalar, slice, map, nil or the
// result of Variable.
func (f *Node) Arg(name string, value any) *Node {
	f.args = append(f.args, arg{name: name, value: value})
	return f
}

// Fields appends leaf children by name.
func (f *Node) Fields(names ...string) *Node {
	for _, n := range names {
		f.children = append(f.children, &Node{name: n})
	}
	return f
}

// Select appends child fields.
func (f *Node) Select(sub ...*Node) *Node {
	f.children = append(f.children, sub...)
	return f
}

// VariableRef refers to an operation variable from an argument value.
type VariableRef string

// Variable returns a reference to operation variable name for use with Arg.
func Variable(name string) VariableRef { return VariableRef(name) }

// Enum marks a string argument value as an enum literal.
type Enum string

func selectionSet(fields []*Node) (language.SelectionSet, error) {
	var set language.SelectionSet
	for _, f := range fields {
		node, err := f.node()
		if err != nil {
			return nil, err
		}
		set = append(set, node)
	}
	return set, nil
}

func (f *Node) node() (*language.Field, error) {
	if f.name == "" {
		return nil, fmt.Errorf("build: field without name")
	}
	if !isName(f.name) {
		return nil, fmt.Errorf("build: invalid field name %q", f.name)
	}
	alias := f.alias
	if alias == "" {
		alias = f.name
	} else if !isName(alias) {
		return nil, fmt.Errorf("build: %s: invalid alias %q", f.name, alias)
	}
	node := &language.Field{Alias: alias, Name: f.name}
	for _, a := range f.args {
		if !isName(a.name) {
			return nil, fmt.Errorf("build: %s: invalid argument name %q", f.name, a.name)
		}
		v, err := toValue(a.value)
		if err != nil {
			return nil, fmt.Errorf("build: %s(%s:): %w", f.name, a.name, err)
		}
		node.Arguments = append(node.Arguments, &language.Argument{Name: a.name, Value: v})
	}
	if len(f.children) > 0 {
		set, err := selectionSet(f.children)
		if err != nil {
			return nil, err
		}
		node.SelectionSet = set
	}
	return node, nil
}

func toValue(v any) (*language.Value, error) {
	switch x := v.(type) {
	case nil:
		return &language.Value{Kind: language.NullValue, Raw: "null"}, nil
	case *language.Value:
		return x, nil
	case VariableRef:
		if !isName(string(x)) {
			return nil, fmt.Errorf("invalid variable name %q", string(x))
		}
		return &language.Value{Kind: language.Variable, Raw: string(x)}, nil
	case Enum:
		if !isName(string(x)) || x == "true" || x == "false" || x == "null" {
			return nil, fmt.Errorf("invalid enum value %q", string(x))
		}
		return &language.Value{Kind: language.EnumValue, Raw: string(x)}, nil
	case string:
		return &language.Value{Kind: language.StringValue, Raw: x}, nil
	case bool:
		return &language.Value{Kind: language.BooleanValue, Raw: strconv.FormatBool(x)}, nil
	case float32:
		return floatValue(float64(x))
	case float64:
		return floatValue(x)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return &language.Value{Kind: language.IntValue, Raw: strconv.FormatInt(rv.Int(), 10)}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &language.Value{Kind: language.IntValue, Raw: strconv.FormatUint(rv.Uint(), 10)}, nil
	case reflect.Slice, reflect.Array:
		out := &language.Value{Kind: language.ListValue}
		for i := 0; i < rv.Len(); i++ {
			child, err := toValue(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			out.Children = append(out.Children, &language.ChildValue{Value: child})
		}
		return out, nil
	case reflect.Float32, reflect.Float64:
		return floatValue(rv.Float())
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("unsupported map key type %s", rv.Type().Key())
		}
		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		out := &language.Value{Kind: language.ObjectValue}
		for _, k := range keys {
			child, err := toValue(rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())).Interface())
			if err != nil {
				return nil, err
			}
			out.Children = append(out.Children, &language.ChildValue{Name: k, Value: child})
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported value type %T", v)
}

// floatValue keeps integral numbers as Int literals so values decoded from
// JSON or HCL (always float64) render the way a person would write them.
// GraphQL has no literal for NaN or the infinities.
func floatValue(f float64) (*language.Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("non-finite float %v", f)
	}
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return &language.Value{Kind: language.IntValue, Raw: strconv.FormatInt(int64(f), 10)}, nil
	}
	return &language.Value{Kind: language.FloatValue, Raw: strconv.FormatFloat(f, 'g', -1, 64)}, nil
}

// parseType parses GraphQL type syntax: Name, Name!, [T], [T]!.
func parseType(s string) (*language.Type, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty type")
	}
	nonNull := false
	if strings.HasSuffix(s, "!") {
		nonNull = true
		s = strings.TrimSpace(s[:len(s)-1])
	}
	var t *language.Type
	if strings.HasPrefix(s, "[") {
		if !strings.HasSuffix(s, "]") {
			return nil, fmt.Errorf("unterminated list type %q", s)
		}
		elem, err := parseType(s[1 : len(s)-1])
		if err != nil {
			return nil, err
		}
		t = language.ListType(elem)
	} else {
		if !isName(s) {
			return nil, fmt.Errorf("invalid type name %q", s)
		}
		t = language.NamedType(s)
	}
	t.NonNull = nonNull
	return t, nil
}

// isName reports whether s matches the GraphQL Name production.
func isName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// IsName reports whether s is a valid GraphQL name, usable as a query name.
func IsName(s string) bool { return isName(s) }
