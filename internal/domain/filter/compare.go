package filter

import (
	"bytes"
	"strings"
	"time"

	"github.com/kailas-cloud/scimd/internal/domain/value"
)

// compareValues orders two values where SCIM defines an ordering:
// number/number, string/string, boolean/boolean (false < true),
// binary/binary, null/null. The second result reports whether the pair
// is comparable at all; incompatible kinds are never an error, they are
// simply not comparable.
func compareValues(a, b value.Value) (int, bool) {
	if a.Kind() != b.Kind() {
		return 0, false
	}
	switch a.Kind() {
	case value.KindNull:
		return 0, true
	case value.KindBoolean:
		return boolCmp(a.Bool(), b.Bool()), true
	case value.KindNumber:
		switch {
		case a.Num() < b.Num():
			return -1, true
		case a.Num() > b.Num():
			return 1, true
		default:
			return 0, true
		}
	case value.KindString:
		return stringCmp(a.Str(), b.Str()), true
	case value.KindBinary:
		return bytes.Compare(a.Bytes(), b.Bytes()), true
	default:
		return 0, false
	}
}

// equalValues is the equality used by the eq/ne operators: comparator
// equality where the pair is comparable, deep structural equality
// otherwise (which also covers object and array comparison values).
func equalValues(a, b value.Value) bool {
	if cmp, ok := compareValues(a, b); ok {
		return cmp == 0
	}
	return a.Equal(b)
}

// stringCmp compares strings chronologically when both parse as RFC 3339
// timestamps (SCIM dateTime values), byte-wise otherwise. The timestamp
// refinement keeps mixed-precision or mixed-offset representations of the
// same instant ordered correctly.
func stringCmp(a, b string) int {
	ta, errA := time.Parse(time.RFC3339, a)
	tb, errB := time.Parse(time.RFC3339, b)
	if errA == nil && errB == nil {
		switch {
		case ta.Before(tb):
			return -1
		case ta.After(tb):
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a, b)
}

func boolCmp(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}
