// Package filter implements the SCIM filter model (RFC 7644 section 3.4.2.2):
// the filter expression tree, attribute paths, parsers for both, and the
// evaluation engine that matches filters against resource documents.
package filter

import (
	"strings"

	"github.com/kailas-cloud/scimd/internal/domain/value"
)

// Kind identifies a filter operator. The set is closed: Evaluate
// dispatches exhaustively over it.
type Kind int

const (
	KindInvalid Kind = iota
	KindAnd
	KindOr
	KindNot
	KindEqual
	KindNotEqual
	KindContains
	KindStartsWith
	KindEndsWith
	KindGreaterThan
	KindGreaterOrEqual
	KindLessThan
	KindLessOrEqual
	KindPresent
	KindValuePath
)

// String returns the SCIM operator keyword for comparison operators and a
// lowercase name for the combinators.
func (k Kind) String() string {
	switch k {
	case KindAnd:
		return "and"
	case KindOr:
		return "or"
	case KindNot:
		return "not"
	case KindEqual:
		return "eq"
	case KindNotEqual:
		return "ne"
	case KindContains:
		return "co"
	case KindStartsWith:
		return "sw"
	case KindEndsWith:
		return "ew"
	case KindGreaterThan:
		return "gt"
	case KindGreaterOrEqual:
		return "ge"
	case KindLessThan:
		return "lt"
	case KindLessOrEqual:
		return "le"
	case KindPresent:
		return "pr"
	case KindValuePath:
		return "valuePath"
	default:
		return "invalid"
	}
}

// Expression is an immutable node of a filter tree.
//
// Field usage by kind:
//   - And, Or: children
//   - Not, ValuePath: inner (ValuePath also carries path)
//   - Present: path
//   - comparison operators: path and value
type Expression struct {
	kind     Kind
	path     Path
	value    value.Value
	children []*Expression
	inner    *Expression
}

func newComparison(kind Kind, path Path, v value.Value) *Expression {
	return &Expression{kind: kind, path: path, value: v}
}

// NewEqual creates an "eq" filter.
func NewEqual(path Path, v value.Value) *Expression {
	return newComparison(KindEqual, path, v)
}

// NewNotEqual creates an "ne" filter.
func NewNotEqual(path Path, v value.Value) *Expression {
	return newComparison(KindNotEqual, path, v)
}

// NewContains creates a "co" filter.
func NewContains(path Path, v value.Value) *Expression {
	return newComparison(KindContains, path, v)
}

// NewStartsWith creates a "sw" filter.
func NewStartsWith(path Path, v value.Value) *Expression {
	return newComparison(KindStartsWith, path, v)
}

// NewEndsWith creates an "ew" filter.
func NewEndsWith(path Path, v value.Value) *Expression {
	return newComparison(KindEndsWith, path, v)
}

// NewGreaterThan creates a "gt" filter.
func NewGreaterThan(path Path, v value.Value) *Expression {
	return newComparison(KindGreaterThan, path, v)
}

// NewGreaterOrEqual creates a "ge" filter.
func NewGreaterOrEqual(path Path, v value.Value) *Expression {
	return newComparison(KindGreaterOrEqual, path, v)
}

// NewLessThan creates an "lt" filter.
func NewLessThan(path Path, v value.Value) *Expression {
	return newComparison(KindLessThan, path, v)
}

// NewLessOrEqual creates an "le" filter.
func NewLessOrEqual(path Path, v value.Value) *Expression {
	return newComparison(KindLessOrEqual, path, v)
}

// NewPresent creates a "pr" filter.
func NewPresent(path Path) *Expression {
	return &Expression{kind: KindPresent, path: path}
}

// NewAnd creates a conjunction. An empty conjunction is vacuously true.
func NewAnd(children ...*Expression) *Expression {
	return &Expression{kind: KindAnd, children: children}
}

// NewOr creates a disjunction. An empty disjunction is false.
func NewOr(children ...*Expression) *Expression {
	return &Expression{kind: KindOr, children: children}
}

// NewNot creates a negation.
func NewNot(inner *Expression) *Expression {
	return &Expression{kind: KindNot, inner: inner}
}

// NewValuePath creates a value-path filter: path selects a (possibly
// multi-valued) attribute and inner is evaluated against each of its
// values individually.
func NewValuePath(path Path, inner *Expression) *Expression {
	return &Expression{kind: KindValuePath, path: path, inner: inner}
}

// Kind returns the operator of this node.
func (e *Expression) Kind() Kind { return e.kind }

// Path returns the attribute path for operators that carry one.
func (e *Expression) Path() Path { return e.path }

// Value returns the comparison value for comparison operators.
func (e *Expression) Value() value.Value { return e.value }

// Children returns the child filters of an and/or combinator.
func (e *Expression) Children() []*Expression { return e.children }

// Inner returns the inverted filter of a "not" node or the value filter
// of a value-path node.
func (e *Expression) Inner() *Expression { return e.inner }

// Depth returns the nesting depth of the expression tree. A leaf operator
// has depth 1; segment value filters inside paths count toward depth.
func (e *Expression) Depth() int {
	if e == nil {
		return 0
	}
	max := 0
	for _, c := range e.children {
		if d := c.Depth(); d > max {
			max = d
		}
	}
	if d := e.inner.Depth(); d > max {
		max = d
	}
	for _, seg := range e.path.Segments() {
		if d := seg.ValueFilter().Depth(); d > max {
			max = d
		}
	}
	return max + 1
}

// String renders the filter in SCIM filter syntax.
func (e *Expression) String() string {
	var b strings.Builder
	e.render(&b)
	return b.String()
}

func (e *Expression) render(b *strings.Builder) {
	switch e.kind {
	case KindAnd, KindOr:
		for i, c := range e.children {
			if i > 0 {
				b.WriteByte(' ')
				b.WriteString(e.kind.String())
				b.WriteByte(' ')
			}
			if c.kind == KindAnd || c.kind == KindOr {
				b.WriteByte('(')
				c.render(b)
				b.WriteByte(')')
			} else {
				c.render(b)
			}
		}
	case KindNot:
		b.WriteString("not (")
		e.inner.render(b)
		b.WriteByte(')')
	case KindPresent:
		b.WriteString(e.path.String())
		b.WriteString(" pr")
	case KindValuePath:
		b.WriteString(e.path.String())
		b.WriteByte('[')
		e.inner.render(b)
		b.WriteByte(']')
	default:
		b.WriteString(e.path.String())
		b.WriteByte(' ')
		b.WriteString(e.kind.String())
		b.WriteByte(' ')
		b.WriteString(e.value.String())
	}
}
