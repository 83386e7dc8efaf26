package filter

import (
	"github.com/kailas-cloud/scimd/internal/domain/value"
)

// valuesAt resolves a path against an object value, returning every node
// the path addresses, in document order. Arrays encountered mid-path are
// traversed element-wise; a segment value filter keeps only the elements
// it matches. An absent attribute yields an empty result, never an error.
// Errors can only surface from value filters inside the path.
func valuesAt(p Path, doc value.Value) ([]value.Value, error) {
	return collectValues(p.Segments(), doc)
}

func collectValues(segs []Segment, node value.Value) ([]value.Value, error) {
	if len(segs) == 0 {
		return []value.Value{node}, nil
	}

	if node.IsArray() {
		var out []value.Value
		for _, el := range node.Elements() {
			vs, err := collectValues(segs, el)
			if err != nil {
				return nil, err
			}
			out = append(out, vs...)
		}
		return out, nil
	}

	if !node.IsObject() {
		return nil, nil
	}

	seg := segs[0]
	child, ok := node.Field(seg.Name())
	if !ok {
		return nil, nil
	}

	if f := seg.ValueFilter(); f != nil {
		if child.IsArray() {
			var kept []value.Value
			for _, el := range child.Elements() {
				match, err := Evaluate(f, el)
				if err != nil {
					return nil, err
				}
				if match {
					kept = append(kept, el)
				}
			}
			child = value.Array(kept...)
		} else {
			match, err := Evaluate(f, child)
			if err != nil {
				return nil, err
			}
			if !match {
				return nil, nil
			}
		}
	}

	return collectValues(segs[1:], child)
}

// candidateValues yields the nodes a filter operator inspects for a given
// path and document:
//
//  1. an array document contributes its elements directly (the evaluator
//     is already iterating one value of a multi-valued attribute);
//  2. an object document is resolved via the path, with one level of
//     array flattening so each value of a multi-valued attribute is a
//     separate candidate;
//  3. a scalar document with the distinguished "value" path contributes
//     itself, so attr[value eq "x"] can match bare array elements;
//  4. anything else has no candidates, which the operators treat as an
//     absent attribute.
func candidateValues(p Path, doc value.Value) ([]value.Value, error) {
	if doc.IsArray() {
		return doc.Elements(), nil
	}

	if doc.IsObject() {
		nodes, err := valuesAt(p, doc)
		if err != nil {
			return nil, err
		}
		flattened := make([]value.Value, 0, len(nodes))
		for _, n := range nodes {
			if n.IsArray() {
				flattened = append(flattened, n.Elements()...)
			} else {
				flattened = append(flattened, n)
			}
		}
		return flattened, nil
	}

	if doc.IsScalar() && p.IsBareValue() {
		return []value.Value{doc}, nil
	}

	return nil, nil
}
