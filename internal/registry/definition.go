package registry

import (
	"fmt"

	build "github.com/hanpama/graphtown/internal/build"
	language "github.com/hanpama/graphtown/internal/language"
)

// Kind tells how a Definition carries its query body.
type Kind int

const (
	// KindExpression is a structured operation built with package build.
	KindExpression Kind = iota + 1
	// KindLiteral is raw GraphQL text handed to the transport's parser.
	KindLiteral
)

func (k Kind) String() string {
	switch k {
	case KindExpression:
		return "expression"
	case KindLiteral:
		return "literal"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Definition is a pending query: either a structured expression or a literal
// query string. The zero value is invalid.
type Definition struct {
	kind Kind
	op   *build.Operation
	text string
}

// Expression wraps a structured operation.
func Expression(op *build.Operation) Definition {
	return Definition{kind: KindExpression, op: op}
}

// Literal wraps raw GraphQL query text.
func Literal(text string) Definition {
	return Definition{kind: KindLiteral, text: text}
}

func (d Definition) Kind() Kind { return d.kind }

// Operation returns the structured operation of an expression definition.
func (d Definition) Operation() (*build.Operation, bool) {
	return d.op, d.kind == KindExpression && d.op != nil
}

// Literal returns the query text of a literal definition.
func (d Definition) Literal() (string, bool) {
	return d.text, d.kind == KindLiteral
}

// Text renders the definition as GraphQL text. Literal text is returned as is.
func (d Definition) Text() (string, error) {
	switch d.kind {
	case KindLiteral:
		return d.text, nil
	case KindExpression:
		if d.op == nil {
			return "", fmt.Errorf("registry: expression without operation")
		}
		doc, err := d.op.Document()
		if err != nil {
			return "", err
		}
		return language.FormatQuery(doc)
	default:
		return "", fmt.Errorf("registry: invalid definition")
	}
}
