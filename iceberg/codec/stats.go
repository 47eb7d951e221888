// Package codec implements the binary/JSON encodings the core produces
// itself: column statistic bounds, canonical table-metadata JSON, and Avro
// framing for manifest and manifest-list files.
package codec

import (
	"encoding/binary"
	"math"
	"unicode/utf8"

	"github.com/dot-do/iceberg-sub003/iceberg"
)

// EncodeStatValue renders v (a value of type t) to the canonical byte bounds
// used in data-file lower/upper-bounds maps, per §4.1.
func EncodeStatValue(t iceberg.Type, v any) []byte {
	switch t.ID() {
	case iceberg.TypeBoolean:
		if v.(bool) {
			return []byte{1}
		}
		return []byte{0}
	case iceberg.TypeInt, iceberg.TypeDate:
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, uint32(toInt32(v)))
		return buf
	case iceberg.TypeLong, iceberg.TypeTime, iceberg.TypeTimestamp,
		iceberg.TypeTimestampTZ, iceberg.TypeTimestampNs, iceberg.TypeTimestampTZNs:
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint64(buf, uint64(toInt64(v)))
		return buf
	case iceberg.TypeFloat:
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, math.Float32bits(v.(float32)))
		return buf
	case iceberg.TypeDouble:
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint64(buf, math.Float64bits(v.(float64)))
		return buf
	case iceberg.TypeString:
		return []byte(v.(string))
	case iceberg.TypeBinary, iceberg.TypeFixed:
		return v.([]byte)
	case iceberg.TypeDecimal:
		return encodeUnscaledBigEndian(v.(int64))
	case iceberg.TypeUUID:
		u := v.([16]byte)
		return u[:]
	default:
		panic("codec: unsupported stat type " + t.String())
	}
}

// DecodeStatValue is the inverse of EncodeStatValue.
func DecodeStatValue(t iceberg.Type, b []byte) any {
	switch t.ID() {
	case iceberg.TypeBoolean:
		return b[0] != 0
	case iceberg.TypeInt, iceberg.TypeDate:
		return int32(binary.LittleEndian.Uint32(b))
	case iceberg.TypeLong, iceberg.TypeTime, iceberg.TypeTimestamp,
		iceberg.TypeTimestampTZ, iceberg.TypeTimestampNs, iceberg.TypeTimestampTZNs:
		return int64(binary.LittleEndian.Uint64(b))
	case iceberg.TypeFloat:
		return math.Float32frombits(binary.LittleEndian.Uint32(b))
	case iceberg.TypeDouble:
		return math.Float64frombits(binary.LittleEndian.Uint64(b))
	case iceberg.TypeString:
		return string(b)
	case iceberg.TypeBinary, iceberg.TypeFixed:
		return b
	case iceberg.TypeDecimal:
		return decodeUnscaledBigEndian(b)
	case iceberg.TypeUUID:
		var u [16]byte
		copy(u[:], b)
		return u
	default:
		panic("codec: unsupported stat type " + t.String())
	}
}

func toInt32(v any) int32 {
	switch n := v.(type) {
	case int32:
		return n
	case int:
		return int32(n)
	default:
		panic("codec: value is not a 32-bit integer")
	}
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
		panic("codec: value is not a 64-bit integer")
	}
}

// encodeUnscaledBigEndian returns the minimal two's-complement big-endian
// byte representation of an unscaled decimal value.
func encodeUnscaledBigEndian(unscaled int64) []byte {
	if unscaled == 0 {
		return []byte{0}
	}
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], uint64(unscaled))
	// Trim leading bytes that are redundant sign-extension: a leading 0x00
	// followed by a byte whose high bit is 0, or a leading 0xFF followed by a
	// byte whose high bit is 1.
	start := 0
	for start < 7 {
		b, next := tmp[start], tmp[start+1]
		if b == 0x00 && next&0x80 == 0 {
			start++
			continue
		}
		if b == 0xFF && next&0x80 != 0 {
			start++
			continue
		}
		break
	}
	return append([]byte(nil), tmp[start:]...)
}

func decodeUnscaledBigEndian(b []byte) int64 {
	var v int64
	if len(b) > 0 && b[0]&0x80 != 0 {
		v = -1 // sign-extend
	}
	for _, by := range b {
		v = v<<8 | int64(by)
	}
	return v
}

// TruncateString truncates s to at most maxLen Unicode code points (the
// "min" bound truncation rule).
func TruncateString(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen])
}

// TruncateUpperBound implements the "max" bound truncation rule: truncate to
// maxLen code points, then increment the last code point that is not already
// at the Unicode maximum so the result is strictly >= every string with this
// prefix; saturated code points after the incremented one are dropped. If
// every code point of the truncated prefix is at the Unicode maximum, the
// prefix is returned without increment.
func TruncateUpperBound(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)[:maxLen]
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] < utf8.MaxRune {
			runes[i]++
			return string(runes[:i+1])
		}
	}
	return string(runes)
}
