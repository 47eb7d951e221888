package codec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dot-do/iceberg-sub003/iceberg"
	"github.com/dot-do/iceberg-sub003/iceberg/codec"
)

func TestEncodeStatValueIntLittleEndian(t *testing.T) {
	b := codec.EncodeStatValue(iceberg.IntType, int32(2018))
	assert.Equal(t, []byte{0xE2, 0x07, 0x00, 0x00}, b)

	b = codec.EncodeStatValue(iceberg.IntType, int32(2021))
	assert.Equal(t, []byte{0xE5, 0x07, 0x00, 0x00}, b)
}

func TestEncodeDecodeStatValueRoundTrip(t *testing.T) {
	cases := []struct {
		t iceberg.Type
		v any
	}{
		{iceberg.IntType, int32(-7)},
		{iceberg.LongType, int64(1234567890123)},
		{iceberg.FloatType, float32(3.14)},
		{iceberg.DoubleType, 2.71828},
		{iceberg.BooleanType, true},
		{iceberg.StringType, "hello"},
		{iceberg.DateType, int32(19000)},
	}
	for _, c := range cases {
		enc := codec.EncodeStatValue(c.t, c.v)
		dec := codec.DecodeStatValue(c.t, enc)
		assert.Equal(t, c.v, dec, "type %s", c.t)
	}
}

func TestTruncateStringAndUpperBound(t *testing.T) {
	assert.Equal(t, "abc", codec.TruncateString("abca", 3))
	assert.Equal(t, "abd", codec.TruncateUpperBound("abcz", 3))
	assert.Equal(t, "ab", codec.TruncateString("ab", 3))
}

func TestTruncateUpperBoundSaturated(t *testing.T) {
	saturated := string([]rune{'a', 'b', 0x10FFFF, 0x10FFFF})
	got := codec.TruncateUpperBound(saturated, 3)
	assert.Equal(t, "ac", got)
}

func TestDecimalUnscaledRoundTrip(t *testing.T) {
	for _, v := range []int64{0, 1, -1, 127, -128, 128, 1000000, -1000000} {
		enc := codec.EncodeStatValue(iceberg.DecimalType{Precision: 18, Scale: 2}, v)
		dec := codec.DecodeStatValue(iceberg.DecimalType{Precision: 18, Scale: 2}, enc)
		assert.Equal(t, v, dec)
	}
}
