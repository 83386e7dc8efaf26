package filter

import (
	"strings"
)

// bareValueAttr is the synthetic attribute name that refers to a bare
// array element itself, used by value-path filters over multi-valued
// attributes whose elements are plain scalars: attr[value eq "x"].
const bareValueAttr = "value"

// Segment is one step of an attribute path: an attribute name with an
// optional value filter selecting elements of a multi-valued attribute.
type Segment struct {
	name        string
	valueFilter *Expression
}

// NewSegment creates a plain path segment.
func NewSegment(name string) Segment { return Segment{name: name} }

// NewFilteredSegment creates a path segment with a value filter.
func NewFilteredSegment(name string, f *Expression) Segment {
	return Segment{name: name, valueFilter: f}
}

// Name returns the attribute name of the segment.
func (s Segment) Name() string { return s.name }

// ValueFilter returns the segment's value filter, or nil.
func (s Segment) ValueFilter() *Expression { return s.valueFilter }

// Path addresses an attribute (or sub-attribute) within a resource
// document. Paths are immutable.
type Path struct {
	segments []Segment
}

// NewPath creates a path from segments.
func NewPath(segments ...Segment) Path {
	cp := make([]Segment, len(segments))
	copy(cp, segments)
	return Path{segments: cp}
}

// NewAttributePath creates a path of plain attribute names.
func NewAttributePath(names ...string) Path {
	segs := make([]Segment, len(names))
	for i, n := range names {
		segs[i] = Segment{name: n}
	}
	return Path{segments: segs}
}

// Segments returns the path segments in order.
func (p Path) Segments() []Segment { return p.segments }

// IsBareValue reports whether the path is the distinguished "value" path:
// a single unfiltered segment named "value" (matched case-insensitively),
// which refers to a bare array element during value-path iteration.
func (p Path) IsBareValue() bool {
	return len(p.segments) == 1 &&
		p.segments[0].valueFilter == nil &&
		strings.EqualFold(p.segments[0].name, bareValueAttr)
}

// String renders the path in SCIM attribute path syntax.
func (p Path) String() string {
	var b strings.Builder
	for i, seg := range p.segments {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(seg.name)
		if seg.valueFilter != nil {
			b.WriteByte('[')
			b.WriteString(seg.valueFilter.String())
			b.WriteByte(']')
		}
	}
	return b.String()
}
