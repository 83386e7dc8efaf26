package filter

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/scimd/internal/domain/value"
)

func TestParse_Operators(t *testing.T) {
	tests := []struct {
		input string
		kind  Kind
	}{
		{`userName eq "bjensen"`, KindEqual},
		{`userName ne "bjensen"`, KindNotEqual},
		{`userName co "jens"`, KindContains},
		{`userName sw "bj"`, KindStartsWith},
		{`userName ew "en"`, KindEndsWith},
		{`loginCount gt 5`, KindGreaterThan},
		{`loginCount ge 5`, KindGreaterOrEqual},
		{`loginCount lt 5`, KindLessThan},
		{`loginCount le 5`, KindLessOrEqual},
		{`userName pr`, KindPresent},
		{`userName EQ "bjensen"`, KindEqual}, // keywords are case-insensitive
		{`userName Pr`, KindPresent},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			e, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.input, err)
			}
			if e.Kind() != tt.kind {
				t.Errorf("Parse(%q).Kind() = %v, want %v", tt.input, e.Kind(), tt.kind)
			}
		})
	}
}

func TestParse_ComparisonValues(t *testing.T) {
	tests := []struct {
		input string
		want  value.Value
	}{
		{`a eq "text"`, value.String("text")},
		{`a eq "esc \"quoted\""`, value.String(`esc "quoted"`)},
		{`a eq 25`, value.Number(25)},
		{`a eq -4.5`, value.Number(-4.5)},
		{`a eq 1e3`, value.Number(1000)},
		{`a eq true`, value.Bool(true)},
		{`a eq false`, value.Bool(false)},
		{`a eq null`, value.Null()},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			e, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.input, err)
			}
			if !e.Value().Equal(tt.want) {
				t.Errorf("Parse(%q).Value() = %v, want %v", tt.input, e.Value(), tt.want)
			}
		})
	}
}

func TestParse_Precedence(t *testing.T) {
	// and binds tighter than or; both flatten into n-ary nodes.
	e, err := Parse(`a eq 1 or b eq 2 and c eq 3 or d eq 4`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if e.Kind() != KindOr {
		t.Fatalf("root kind = %v, want or", e.Kind())
	}
	if len(e.Children()) != 3 {
		t.Fatalf("or arity = %d, want 3", len(e.Children()))
	}
	if mid := e.Children()[1]; mid.Kind() != KindAnd || len(mid.Children()) != 2 {
		t.Errorf("middle child = %v/%d, want and/2", mid.Kind(), len(mid.Children()))
	}

	grouped, err := Parse(`(a eq 1 or b eq 2) and c eq 3`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if grouped.Kind() != KindAnd {
		t.Fatalf("grouped root = %v, want and", grouped.Kind())
	}
	if first := grouped.Children()[0]; first.Kind() != KindOr {
		t.Errorf("grouped first child = %v, want or", first.Kind())
	}
}

func TestParse_Not(t *testing.T) {
	e, err := Parse(`not (userName eq "bjensen" and active eq true)`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if e.Kind() != KindNot {
		t.Fatalf("kind = %v, want not", e.Kind())
	}
	if e.Inner().Kind() != KindAnd {
		t.Errorf("inner kind = %v, want and", e.Inner().Kind())
	}
}

func TestParse_ValuePath(t *testing.T) {
	e, err := Parse(`emails[type eq "work" and value co "@example.com"]`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if e.Kind() != KindValuePath {
		t.Fatalf("kind = %v, want valuePath", e.Kind())
	}
	if got := e.Path().String(); got != "emails" {
		t.Errorf("path = %q, want %q", got, "emails")
	}
	if e.Inner().Kind() != KindAnd {
		t.Errorf("inner kind = %v, want and", e.Inner().Kind())
	}
}

func TestParse_SubAttributes(t *testing.T) {
	e, err := Parse(`name.familyName sw "Jen"`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	segs := e.Path().Segments()
	if len(segs) != 2 || segs[0].Name() != "name" || segs[1].Name() != "familyName" {
		t.Errorf("path segments = %v, want [name familyName]", e.Path())
	}
}

func TestParse_RefAttribute(t *testing.T) {
	e, err := Parse(`members[$ref ew "Users/2819c223"]`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	inner := e.Inner()
	if got := inner.Path().String(); got != "$ref" {
		t.Errorf("inner path = %q, want %q", got, "$ref")
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []string{
		``,
		`   `,
		`userName`,
		`userName xx "b"`,
		`userName eq`,
		`userName eq "unterminated`,
		`userName eq "a" and`,
		`(userName eq "a"`,
		`userName eq "a")`,
		`emails[type eq "work"`,
		`not userName eq "a"`,
		`eq "a"`,
		`userName eq 12..5`,
		`9name eq "a"`,
	}
	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			if _, err := Parse(input); !errors.Is(err, ErrInvalidFilter) {
				t.Errorf("Parse(%q) error = %v, want ErrInvalidFilter", input, err)
			}
		})
	}
}

func TestParse_RoundTrip(t *testing.T) {
	// String() must render a filter that parses back to the same tree.
	tests := []string{
		`userName eq "bjensen"`,
		`userName pr`,
		`not (active eq true)`,
		`a eq 1 and b eq 2 or c pr`,
		`emails[type eq "work"]`,
		`name.familyName co "son"`,
	}
	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			first := MustParse(input)
			second, err := Parse(first.String())
			if err != nil {
				t.Fatalf("reparse %q: %v", first.String(), err)
			}
			if second.String() != first.String() {
				t.Errorf("round trip %q -> %q", first.String(), second.String())
			}
		})
	}
}

func TestParsePath(t *testing.T) {
	tests := []struct {
		input    string
		segments int
		rendered string
	}{
		{`userName`, 1, `userName`},
		{`name.familyName`, 2, `name.familyName`},
		{`emails[type eq "work"].value`, 2, `emails[type eq "work"].value`},
		{`value`, 1, `value`},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			p, err := ParsePath(tt.input)
			if err != nil {
				t.Fatalf("ParsePath(%q): %v", tt.input, err)
			}
			if len(p.Segments()) != tt.segments {
				t.Errorf("segments = %d, want %d", len(p.Segments()), tt.segments)
			}
			if p.String() != tt.rendered {
				t.Errorf("String() = %q, want %q", p.String(), tt.rendered)
			}
		})
	}
}

func TestParsePath_Errors(t *testing.T) {
	for _, input := range []string{``, `.`, `a.`, `a[`, `a[b eq`, `a]`, `1a`} {
		t.Run(input, func(t *testing.T) {
			if _, err := ParsePath(input); !errors.Is(err, ErrInvalidFilter) {
				t.Errorf("ParsePath(%q) error = %v, want ErrInvalidFilter", input, err)
			}
		})
	}
}

func TestPath_IsBareValue(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{`value`, true},
		{`VALUE`, true},
		{`values`, false},
		{`value.sub`, false},
		{`other`, false},
	}
	for _, tt := range tests {
		p, err := ParsePath(tt.input)
		if err != nil {
			t.Fatalf("ParsePath(%q): %v", tt.input, err)
		}
		if got := p.IsBareValue(); got != tt.want {
			t.Errorf("IsBareValue(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestExpression_Depth(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{`a eq 1`, 1},
		{`a eq 1 and b eq 2`, 2},
		{`not (a eq 1 and b eq 2)`, 3},
		{`emails[type eq "work"]`, 2},
	}
	for _, tt := range tests {
		if got := MustParse(tt.input).Depth(); got != tt.want {
			t.Errorf("Depth(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}
