package iceberg

import (
	"bytes"
	"fmt"
	"math"
)

// Compare orders two values of the same primitive type per §4.1: booleans
// false<true, integers/temporals numeric, string/uuid lexicographic over
// code points, binary/fixed lexicographic over unsigned bytes, decimal
// numeric over the unscaled value, floats numeric with NaN excluded from
// callers' min/max tracking (callers must not call Compare with a NaN
// operand; NaN is handled upstream in the stats collector).
func Compare(t Type, a, b any) int {
	switch t.ID() {
	case TypeBoolean:
		av, bv := a.(bool), b.(bool)
		if av == bv {
			return 0
		}
		if !av {
			return -1
		}
		return 1
	case TypeInt, TypeLong, TypeDate, TypeTime, TypeTimestamp, TypeTimestampTZ, TypeTimestampNs, TypeTimestampTZNs:
		av, bv := toInt64(a), toInt64(b)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case TypeFloat, TypeDouble:
		av, bv := toFloat64(a), toFloat64(b)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case TypeDecimal:
		av, bv := a.(int64), b.(int64) // unscaled value, same scale guaranteed by caller
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case TypeString, TypeUUID:
		return bytesOrStringCompare(a, b)
	case TypeBinary:
		return bytes.Compare(a.([]byte), b.([]byte))
	case TypeFixed:
		return bytes.Compare(a.([]byte), b.([]byte))
	default:
		panic(fmt.Sprintf("iceberg: type %s is not comparable", t))
	}
}

func bytesOrStringCompare(a, b any) int {
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		if as < bs {
			return -1
		}
		if as > bs {
			return 1
		}
		return 0
	}
	if au, ok := a.([16]byte); ok {
		bu := b.([16]byte)
		return bytes.Compare(au[:], bu[:])
	}
	return bytes.Compare(a.([]byte), b.([]byte))
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	default:
		panic(fmt.Sprintf("iceberg: value %v is not an integer", v))
	}
}

func toFloat64(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	default:
		panic(fmt.Sprintf("iceberg: value %v is not a float", v))
	}
}

// IsNaN reports whether v (of a floating point type) is NaN.
func IsNaN(t Type, v any) bool {
	switch t.ID() {
	case TypeFloat:
		f, ok := v.(float32)
		return ok && math.IsNaN(float64(f))
	case TypeDouble:
		f, ok := v.(float64)
		return ok && math.IsNaN(f)
	default:
		return false
	}
}

// PromotionAllowed reports whether a field may be widened from oldType to
// newType per the promotion table: int->long, float->double, fixed->binary,
// decimal(P1,S)->decimal(P2,S) where P2>=P1. Identical types are always
// allowed (a no-op promotion).
func PromotionAllowed(oldType, newType Type) bool {
	if oldType.Equals(newType) {
		return true
	}
	switch o := oldType.(type) {
	case primitiveType:
		if o.id == TypeInt && newType.ID() == TypeLong {
			return true
		}
		if o.id == TypeFloat && newType.ID() == TypeDouble {
			return true
		}
		if o.id == TypeBinary {
			return false
		}
	case FixedType:
		return newType.ID() == TypeBinary
	case DecimalType:
		n, ok := newType.(DecimalType)
		return ok && n.Scale == o.Scale && n.Precision >= o.Precision
	}
	return false
}
