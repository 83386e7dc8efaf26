package filter

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/scimd/internal/domain/value"
)

// Parse parses a SCIM filter string (RFC 7644 section 3.4.2.2) into an
// expression tree. Operator keywords match case-insensitively; "not"
// binds tighter than "and", which binds tighter than "or". All parse
// errors wrap ErrInvalidFilter.
func Parse(input string) (*Expression, error) {
	p := &parser{input: input}
	e, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if !p.eof() {
		return nil, p.errorf("unexpected %q at position %d", p.rest(), p.pos)
	}
	return e, nil
}

// ParsePath parses a SCIM attribute path: dotted attribute names, each
// optionally qualified by a bracketed value filter, e.g.
// "emails[type eq \"work\"].value". All parse errors wrap ErrInvalidFilter.
func ParsePath(input string) (Path, error) {
	p := &parser{input: input}
	path, err := p.parsePath()
	if err != nil {
		return Path{}, err
	}
	p.skipSpace()
	if !p.eof() {
		return Path{}, p.errorf("unexpected %q at position %d", p.rest(), p.pos)
	}
	return path, nil
}

// MustParse parses a filter or panics. Intended for tests and static
// filter literals.
func MustParse(input string) *Expression {
	e, err := Parse(input)
	if err != nil {
		panic(err)
	}
	return e
}

type parser struct {
	input string
	pos   int
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidFilter, fmt.Sprintf(format, args...))
}

func (p *parser) eof() bool { return p.pos >= len(p.input) }

func (p *parser) rest() string {
	r := p.input[p.pos:]
	if len(r) > 16 {
		r = r[:16]
	}
	return r
}

func (p *parser) skipSpace() {
	for !p.eof() && p.input[p.pos] == ' ' {
		p.pos++
	}
}

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.input[p.pos]
}

// keyword consumes kw (case-insensitive) if it appears at the cursor as a
// whole word.
func (p *parser) keyword(kw string) bool {
	p.skipSpace()
	end := p.pos + len(kw)
	if end > len(p.input) || !strings.EqualFold(p.input[p.pos:end], kw) {
		return false
	}
	if end < len(p.input) && isNameChar(p.input[end]) {
		return false
	}
	p.pos = end
	return true
}

func (p *parser) expect(c byte) error {
	p.skipSpace()
	if p.eof() || p.input[p.pos] != c {
		return p.errorf("expected %q at position %d", string(c), p.pos)
	}
	p.pos++
	return nil
}

func (p *parser) parseOr() (*Expression, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.keyword("or") {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		if left.kind == KindOr {
			left.children = append(left.children, right)
		} else {
			left = NewOr(left, right)
		}
	}
	return left, nil
}

func (p *parser) parseAnd() (*Expression, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.keyword("and") {
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		if left.kind == KindAnd {
			left.children = append(left.children, right)
		} else {
			left = NewAnd(left, right)
		}
	}
	return left, nil
}

func (p *parser) parseTerm() (*Expression, error) {
	p.skipSpace()
	if p.eof() {
		return nil, p.errorf("unexpected end of filter")
	}

	if p.keyword("not") {
		if err := p.expect('('); err != nil {
			return nil, err
		}
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(')'); err != nil {
			return nil, err
		}
		return NewNot(inner), nil
	}

	if p.peek() == '(' {
		p.pos++
		e, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(')'); err != nil {
			return nil, err
		}
		return e, nil
	}

	return p.parseAttrExp()
}

func (p *parser) parseAttrExp() (*Expression, error) {
	path, err := p.parseDottedNames()
	if err != nil {
		return nil, err
	}

	if p.peek() == '[' {
		p.pos++
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(']'); err != nil {
			return nil, err
		}
		return NewValuePath(path, inner), nil
	}

	if p.keyword("pr") {
		return NewPresent(path), nil
	}

	opPos := p.pos
	op, err := p.parseWord()
	if err != nil {
		return nil, err
	}
	ctor, ok := comparisonCtors[strings.ToLower(op)]
	if !ok {
		return nil, p.errorf("unknown operator %q at position %d", op, opPos)
	}

	v, err := p.parseCompValue()
	if err != nil {
		return nil, err
	}
	return ctor(path, v), nil
}

var comparisonCtors = map[string]func(Path, value.Value) *Expression{
	"eq": NewEqual,
	"ne": NewNotEqual,
	"co": NewContains,
	"sw": NewStartsWith,
	"ew": NewEndsWith,
	"gt": NewGreaterThan,
	"ge": NewGreaterOrEqual,
	"lt": NewLessThan,
	"le": NewLessOrEqual,
}

func (p *parser) parsePath() (Path, error) {
	var segs []Segment
	for {
		name, err := p.parseAttrName()
		if err != nil {
			return Path{}, err
		}
		if p.peek() == '[' {
			p.pos++
			inner, err := p.parseOr()
			if err != nil {
				return Path{}, err
			}
			if err := p.expect(']'); err != nil {
				return Path{}, err
			}
			segs = append(segs, NewFilteredSegment(name, inner))
		} else {
			segs = append(segs, NewSegment(name))
		}
		if p.peek() != '.' {
			break
		}
		p.pos++
	}
	return NewPath(segs...), nil
}

// parseDottedNames parses the plain attribute path of a filter term:
// dotted names without bracketed segments.
func (p *parser) parseDottedNames() (Path, error) {
	var names []string
	for {
		name, err := p.parseAttrName()
		if err != nil {
			return Path{}, err
		}
		names = append(names, name)
		if p.peek() != '.' {
			break
		}
		p.pos++
	}
	return NewAttributePath(names...), nil
}

// parseAttrName reads an attribute name: ALPHA *(ALPHA / DIGIT / "-" / "_"),
// with an optional leading "$" for reference attributes such as $ref.
func (p *parser) parseAttrName() (string, error) {
	p.skipSpace()
	start := p.pos
	if p.peek() == '$' {
		p.pos++
	}
	if p.eof() || !isAlpha(p.input[p.pos]) {
		return "", p.errorf("expected attribute name at position %d", start)
	}
	p.pos++
	for !p.eof() && isNameChar(p.input[p.pos]) {
		p.pos++
	}
	return p.input[start:p.pos], nil
}

func (p *parser) parseWord() (string, error) {
	p.skipSpace()
	start := p.pos
	for !p.eof() && isAlpha(p.input[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		return "", p.errorf("expected operator at position %d", start)
	}
	return p.input[start:p.pos], nil
}

// parseCompValue parses a JSON comparison value: a string, number,
// boolean, or null literal.
func (p *parser) parseCompValue() (value.Value, error) {
	p.skipSpace()
	if p.eof() {
		return value.Value{}, p.errorf("expected comparison value at position %d", p.pos)
	}

	if p.peek() == '"' {
		return p.parseStringLiteral()
	}
	if p.keyword("true") {
		return value.Bool(true), nil
	}
	if p.keyword("false") {
		return value.Bool(false), nil
	}
	if p.keyword("null") {
		return value.Null(), nil
	}

	start := p.pos
	for !p.eof() && isNumberChar(p.input[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		return value.Value{}, p.errorf("invalid comparison value at position %d", start)
	}
	lit := p.input[start:p.pos]
	n, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return value.Value{}, p.errorf("invalid number %q at position %d", lit, start)
	}
	return value.Number(n), nil
}

func (p *parser) parseStringLiteral() (value.Value, error) {
	start := p.pos
	p.pos++ // opening quote
	for !p.eof() {
		switch p.input[p.pos] {
		case '\\':
			p.pos += 2
		case '"':
			p.pos++
			var s string
			if err := json.Unmarshal([]byte(p.input[start:p.pos]), &s); err != nil {
				return value.Value{}, p.errorf("invalid string literal at position %d: %v", start, err)
			}
			return value.String(s), nil
		default:
			p.pos++
		}
	}
	return value.Value{}, p.errorf("unterminated string literal at position %d", start)
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameChar(c byte) bool {
	return isAlpha(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isNumberChar(c byte) bool {
	return (c >= '0' && c <= '9') || c == '-' || c == '+' || c == '.' || c == 'e' || c == 'E'
}
