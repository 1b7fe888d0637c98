package language

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
	"github.com/vektah/gqlparser/v2/validator"
)

// introspectionResult accepts both a full response ({"data": {"__schema": ...}})
// and its data object ({"__schema": ...}).
type introspectionResult struct {
	Data   *introspectionData   `json:"data"`
	Schema *introspectionSchema `json:"__schema"`
}

type introspectionData struct {
	Schema *introspectionSchema `json:"__schema"`
}

type introspectionSchema struct {
	Description      string                   `json:"description"`
	QueryType        *introspectionName       `json:"queryType"`
	MutationType     *introspectionName       `json:"mutationType"`
	SubscriptionType *introspectionName       `json:"subscriptionType"`
	Types            []introspectionType      `json:"types"`
	Directives       []introspectionDirective `json:"directives"`
}

type introspectionName struct {
	Name string `json:"name"`
}

type introspectionType struct {
	Kind          string                    `json:"kind"`
	Name          string                    `json:"name"`
	Description   string                    `json:"description"`
	Fields        []introspectionField      `json:"fields"`
	InputFields   []introspectionInputValue `json:"inputFields"`
	Interfaces    []introspectionTypeRef    `json:"interfaces"`
	PossibleTypes []introspectionTypeRef    `json:"possibleTypes"`
	EnumValues    []introspectionEnumValue  `json:"enumValues"`
}

type introspectionField struct {
	Name              string                    `json:"name"`
	Description       string                    `json:"description"`
	Args              []introspectionInputValue `json:"args"`
	Type              introspectionTypeRef      `json:"type"`
	IsDeprecated      bool                      `json:"isDeprecated"`
	DeprecationReason *string                   `json:"deprecationReason"`
}

type introspectionInputValue struct {
	Name         string               `json:"name"`
	Description  string               `json:"description"`
	Type         introspectionTypeRef `json:"type"`
	DefaultValue *string              `json:"defaultValue"`
}

type introspectionEnumValue struct {
	Name              string  `json:"name"`
	Description       string  `json:"description"`
	IsDeprecated      bool    `json:"isDeprecated"`
	DeprecationReason *string `json:"deprecationReason"`
}

type introspectionTypeRef struct {
	Kind   string                `json:"kind"`
	Name   string                `json:"name"`
	OfType *introspectionTypeRef `json:"ofType"`
}

type introspectionDirective struct {
	Name         string                    `json:"name"`
	Description  string                    `json:"description"`
	Locations    []string                  `json:"locations"`
	Args         []introspectionInputValue `json:"args"`
	IsRepeatable bool                      `json:"isRepeatable"`
}

// LoadIntrospectionSchema builds a schema from the JSON result of an
// introspection query, the format servers publish as introspectionSchema.json.
// Built-in scalars, directives and __ types in the dump are replaced by
// gqlparser's own definitions.
func LoadIntrospectionSchema(name string, b []byte) (*Schema, error) {
	var res introspectionResult
	if err := json.Unmarshal(b, &res); err != nil {
		return nil, fmt.Errorf("language: %s: %w", name, err)
	}
	in := res.Schema
	if in == nil && res.Data != nil {
		in = res.Data.Schema
	}
	if in == nil {
		return nil, fmt.Errorf("language: %s: no __schema object", name)
	}
	if in.QueryType == nil || in.QueryType.Name == "" {
		return nil, fmt.Errorf("language: %s: schema has no query type", name)
	}

	doc, err := parser.ParseSchema(validator.Prelude)
	if err != nil {
		return nil, err
	}
	builtinTypes := map[string]bool{}
	for _, def := range doc.Definitions {
		builtinTypes[def.Name] = true
	}
	builtinDirectives := map[string]bool{}
	for _, dir := range doc.Directives {
		builtinDirectives[dir.Name] = true
	}

	for _, t := range in.Types {
		if builtinTypes[t.Name] {
			continue
		}
		def, err := definitionFrom(t)
		if err != nil {
			return nil, fmt.Errorf("language: %s: type %s: %w", name, t.Name, err)
		}
		doc.Definitions = append(doc.Definitions, def)
	}
	for _, d := range in.Directives {
		if builtinDirectives[d.Name] {
			continue
		}
		dir := &ast.DirectiveDefinition{
			Description:  d.Description,
			Name:         d.Name,
			IsRepeatable: d.IsRepeatable,
		}
		for _, loc := range d.Locations {
			dir.Locations = append(dir.Locations, ast.DirectiveLocation(loc))
		}
		if dir.Arguments, err = argumentsFrom(d.Args); err != nil {
			return nil, fmt.Errorf("language: %s: directive @%s: %w", name, d.Name, err)
		}
		doc.Directives = append(doc.Directives, dir)
	}

	root := &ast.SchemaDefinition{Description: in.Description}
	root.OperationTypes = append(root.OperationTypes, &ast.OperationTypeDefinition{Operation: ast.Query, Type: in.QueryType.Name})
	if in.MutationType != nil && in.MutationType.Name != "" {
		root.OperationTypes = append(root.OperationTypes, &ast.OperationTypeDefinition{Operation: ast.Mutation, Type: in.MutationType.Name})
	}
	if in.SubscriptionType != nil && in.SubscriptionType.Name != "" {
		root.OperationTypes = append(root.OperationTypes, &ast.OperationTypeDefinition{Operation: ast.Subscription, Type: in.SubscriptionType.Name})
	}
	doc.Schema = append(doc.Schema, root)

	sch, err := validator.ValidateSchemaDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("language: %s: %w", name, err)
	}
	return sch, nil
}

func definitionFrom(t introspectionType) (*ast.Definition, error) {
	def := &ast.Definition{
		Kind:        ast.DefinitionKind(t.Kind),
		Name:        t.Name,
		Description: t.Description,
	}
	switch def.Kind {
	case ast.Scalar:
	case ast.Object, ast.Interface:
		for _, f := range t.Fields {
			typ, err := typeFrom(f.Type)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", f.Name, err)
			}
			args, err := argumentsFrom(f.Args)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", f.Name, err)
			}
			def.Fields = append(def.Fields, &ast.FieldDefinition{
				Name:        f.Name,
				Description: f.Description,
				Arguments:   args,
				Type:        typ,
				Directives:  deprecated(ast.LocationFieldDefinition, f.IsDeprecated, f.DeprecationReason),
			})
		}
		for _, i := range t.Interfaces {
			def.Interfaces = append(def.Interfaces, i.Name)
		}
	case ast.Union:
		for _, p := range t.PossibleTypes {
			def.Types = append(def.Types, p.Name)
		}
	case ast.Enum:
		for _, v := range t.EnumValues {
			def.EnumValues = append(def.EnumValues, &ast.EnumValueDefinition{
				Name:        v.Name,
				Description: v.Description,
				Directives:  deprecated(ast.LocationEnumValue, v.IsDeprecated, v.DeprecationReason),
			})
		}
	case ast.InputObject:
		for _, f := range t.InputFields {
			typ, err := typeFrom(f.Type)
			if err != nil {
				return nil, fmt.Errorf("input field %s: %w", f.Name, err)
			}
			dv, err := defaultValue(f.DefaultValue)
			if err != nil {
				return nil, fmt.Errorf("input field %s: %w", f.Name, err)
			}
			def.Fields = append(def.Fields, &ast.FieldDefinition{
				Name:         f.Name,
				Description:  f.Description,
				Type:         typ,
				DefaultValue: dv,
			})
		}
	default:
		return nil, fmt.Errorf("unknown kind %q", t.Kind)
	}
	return def, nil
}

func argumentsFrom(in []introspectionInputValue) (ast.ArgumentDefinitionList, error) {
	var out ast.ArgumentDefinitionList
	for _, a := range in {
		typ, err := typeFrom(a.Type)
		if err != nil {
			return nil, fmt.Errorf("argument %s: %w", a.Name, err)
		}
		dv, err := defaultValue(a.DefaultValue)
		if err != nil {
			return nil, fmt.Errorf("argument %s: %w", a.Name, err)
		}
		out = append(out, &ast.ArgumentDefinition{
			Name:         a.Name,
			Description:  a.Description,
			Type:         typ,
			DefaultValue: dv,
		})
	}
	return out, nil
}

func typeFrom(ref introspectionTypeRef) (*ast.Type, error) {
	switch ref.Kind {
	case "NON_NULL":
		if ref.OfType == nil {
			return nil, errors.New("NON_NULL without ofType")
		}
		elem, err := typeFrom(*ref.OfType)
		if err != nil {
			return nil, err
		}
		elem.NonNull = true
		return elem, nil
	case "LIST":
		if ref.OfType == nil {
			return nil, errors.New("LIST without ofType")
		}
		elem, err := typeFrom(*ref.OfType)
		if err != nil {
			return nil, err
		}
		return ast.ListType(elem, nil), nil
	default:
		if ref.Name == "" {
			return nil, fmt.Errorf("unnamed %s type reference", ref.Kind)
		}
		return ast.NamedType(ref.Name, nil), nil
	}
}

// defaultValue parses a default value, which introspection reports as
// GraphQL literal text.
func defaultValue(raw *string) (*ast.Value, error) {
	if raw == nil {
		return nil, nil
	}
	doc, err := parser.ParseQuery(&ast.Source{Input: "{ f(v: " + *raw + ") }"})
	if err != nil {
		return nil, fmt.Errorf("default value %q: %w", *raw, err)
	}
	field, ok := doc.Operations[0].SelectionSet[0].(*ast.Field)
	if !ok || len(field.Arguments) != 1 {
		return nil, fmt.Errorf("default value %q is not a single value", *raw)
	}
	return field.Arguments[0].Value, nil
}

func deprecated(loc ast.DirectiveLocation, is bool, reason *string) ast.DirectiveList {
	if !is {
		return nil
	}
	dir := &ast.Directive{Name: "deprecated", Location: loc}
	if reason != nil {
		dir.Arguments = ast.ArgumentList{{Name: "reason", Value: &ast.Value{Kind: ast.StringValue, Raw: *reason}}}
	}
	return ast.DirectiveList{dir}
}
