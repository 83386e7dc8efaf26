package filter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/scimd/internal/domain/value"
)

// ErrInvalidFilter signals a filter that cannot legally be evaluated or
// parsed. During evaluation it is raised only when an ordering operator
// (gt, ge, lt, le) meets a boolean or binary attribute value.
var ErrInvalidFilter = errors.New("invalid filter")

// Evaluate reports whether a resource document matches a filter
// expression. It is a pure function over immutable inputs: it never
// mutates the document, holds no state between calls, and is safe to
// invoke concurrently.
//
// Missing attributes, type mismatches in equality and substring
// operators, and empty multi-valued attributes are ordinary non-matches.
// The only error condition is an ordering comparison against a boolean
// or binary value, reported wrapping ErrInvalidFilter.
func Evaluate(f *Expression, doc value.Value) (bool, error) {
	if f == nil {
		return false, fmt.Errorf("%w: nil filter expression", ErrInvalidFilter)
	}

	switch f.kind {
	case KindAnd:
		for _, child := range f.children {
			match, err := Evaluate(child, doc)
			if err != nil {
				return false, err
			}
			if !match {
				return false, nil
			}
		}
		return true, nil

	case KindOr:
		for _, child := range f.children {
			match, err := Evaluate(child, doc)
			if err != nil {
				return false, err
			}
			if match {
				return true, nil
			}
		}
		return false, nil

	case KindNot:
		match, err := Evaluate(f.inner, doc)
		if err != nil {
			return false, err
		}
		return !match, nil

	case KindEqual:
		nodes, err := candidateValues(f.path, doc)
		if err != nil {
			return false, err
		}
		// RFC 7643 section 2.5: an unassigned attribute, the null value,
		// and an empty multi-valued attribute are equivalent in state.
		if f.value.IsNull() && allEmpty(nodes) {
			return true, nil
		}
		for _, n := range nodes {
			if equalValues(n, f.value) {
				return true, nil
			}
		}
		return false, nil

	case KindNotEqual:
		// Computed independently of eq, not as its negation: same
		// absence rule, inverted outcome.
		nodes, err := candidateValues(f.path, doc)
		if err != nil {
			return false, err
		}
		if f.value.IsNull() && allEmpty(nodes) {
			return false, nil
		}
		for _, n := range nodes {
			if equalValues(n, f.value) {
				return false, nil
			}
		}
		return true, nil

	case KindContains, KindStartsWith, KindEndsWith:
		nodes, err := candidateValues(f.path, doc)
		if err != nil {
			return false, err
		}
		for _, n := range nodes {
			if substringMatch(f.kind, n, f.value) || n.Equal(f.value) {
				return true, nil
			}
		}
		return false, nil

	case KindPresent:
		nodes, err := candidateValues(f.path, doc)
		if err != nil {
			return false, err
		}
		for _, n := range nodes {
			if !isEmptyValue(n) {
				return true, nil
			}
		}
		return false, nil

	case KindGreaterThan, KindGreaterOrEqual, KindLessThan, KindLessOrEqual:
		nodes, err := candidateValues(f.path, doc)
		if err != nil {
			return false, err
		}
		for _, n := range nodes {
			if n.IsBoolean() || n.IsBinary() {
				return false, fmt.Errorf(
					"%w: %s filter may not compare boolean or binary attribute values",
					ErrInvalidFilter, orderingOpName(f.kind))
			}
			cmp, ok := compareValues(n, f.value)
			if ok && orderingSatisfied(f.kind, cmp) {
				return true, nil
			}
		}
		return false, nil

	case KindValuePath:
		nodes, err := candidateValues(f.path, doc)
		if err != nil {
			return false, err
		}
		for _, n := range nodes {
			if n.IsArray() {
				for _, el := range n.Elements() {
					match, err := Evaluate(f.inner, el)
					if err != nil {
						return false, err
					}
					if match {
						return true, nil
					}
				}
				continue
			}
			match, err := Evaluate(f.inner, n)
			if err != nil {
				return false, err
			}
			if match {
				return true, nil
			}
		}
		return false, nil

	default:
		return false, fmt.Errorf("%w: unsupported filter operator %q", ErrInvalidFilter, f.kind)
	}
}

// substringMatch applies the case-insensitive string relation of a
// co/sw/ew operator. Non-string operands never match here; the caller
// falls back to exact equality for those.
func substringMatch(kind Kind, candidate, comparison value.Value) bool {
	if !candidate.IsString() || !comparison.IsString() {
		return false
	}
	c := strings.ToLower(candidate.Str())
	v := strings.ToLower(comparison.Str())
	switch kind {
	case KindContains:
		return strings.Contains(c, v)
	case KindStartsWith:
		return strings.HasPrefix(c, v)
	case KindEndsWith:
		return strings.HasSuffix(c, v)
	default:
		return false
	}
}

func orderingSatisfied(kind Kind, cmp int) bool {
	switch kind {
	case KindGreaterThan:
		return cmp > 0
	case KindGreaterOrEqual:
		return cmp >= 0
	case KindLessThan:
		return cmp < 0
	case KindLessOrEqual:
		return cmp <= 0
	default:
		return false
	}
}

func orderingOpName(kind Kind) string {
	switch kind {
	case KindGreaterThan:
		return "greater than"
	case KindGreaterOrEqual:
		return "greater than or equal"
	case KindLessThan:
		return "less than"
	case KindLessOrEqual:
		return "less than or equal"
	default:
		return kind.String()
	}
}

// isEmptyValue reports whether a node is in the "unassigned" state:
// null, or an array whose elements are all themselves empty (nested
// empty arrays count).
func isEmptyValue(v value.Value) bool {
	if v.IsArray() {
		for _, el := range v.Elements() {
			if !isEmptyValue(el) {
				return false
			}
		}
		return true
	}
	return v.IsNull()
}

// allEmpty reports whether every candidate is empty; vacuously true for
// an empty candidate set (the attribute is absent altogether).
func allEmpty(nodes []value.Value) bool {
	for _, n := range nodes {
		if !isEmptyValue(n) {
			return false
		}
	}
	return true
}
