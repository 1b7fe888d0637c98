// Package language wraps the gqlparser parser, validator and formatter behind
// the handful of calls the rest of graphtown needs.
package language

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
	"github.com/vektah/gqlparser/v2/parser"
)

// ParseQuery parses source into a query document without schema validation.
func ParseQuery(source string) (*QueryDocument, error) {
	doc, err := parser.ParseQuery(&ast.Source{Input: source})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// LoadQuery parses source and validates it against schema.
func LoadQuery(schema *Schema, source string) (*QueryDocument, error) {
	doc, errs := gqlparser.LoadQuery(schema, source)
	if len(errs) > 0 {
		return nil, errs
	}
	return doc, nil
}

// LoadSchema builds a schema from SDL source. The GraphQL built-in types are
// included automatically.
func LoadSchema(name, source string) (*Schema, error) {
	sch, err := gqlparser.LoadSchema(&ast.Source{Name: name, Input: source})
	if err != nil {
		return nil, err
	}
	return sch, nil
}

// LoadSchemaFile reads a schema from disk. A .json file, or any file whose
// content starts with '{', is read as an introspection result; anything else
// as SDL.
func LoadSchemaFile(path string) (*Schema, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(path), ".json") || bytes.HasPrefix(bytes.TrimSpace(b), []byte("{")) {
		return LoadIntrospectionSchema(path, b)
	}
	return LoadSchema(path, string(b))
}

// FormatQuery renders doc as GraphQL query text.
func FormatQuery(doc *QueryDocument) (string, error) {
	if doc == nil || len(doc.Operations) == 0 {
		return "", errors.New("language: document has no operations")
	}
	var buf bytes.Buffer
	formatter.NewFormatter(&buf).FormatQueryDocument(doc)
	return buf.String(), nil
}
