package stats_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dot-do/iceberg-sub003/iceberg"
	"github.com/dot-do/iceberg-sub003/iceberg/codec"
	"github.com/dot-do/iceberg-sub003/iceberg/stats"
)

func TestCollectorIntStats(t *testing.T) {
	c := stats.NewCollector(iceberg.IntType)
	for _, v := range []any{int32(2018), int32(2019), int32(2020), int32(2021), nil} {
		c.Add(v)
	}
	assert.Equal(t, int64(5), c.ValueCount)
	assert.Equal(t, int64(1), c.NullCount)
	assert.Equal(t, []byte{0xE2, 0x07, 0x00, 0x00}, c.LowerBound())
	assert.Equal(t, []byte{0xE5, 0x07, 0x00, 0x00}, c.UpperBound())
}

func TestCollectorStringTruncation(t *testing.T) {
	c := stats.NewCollector(iceberg.StringType)
	c.MaxStringLength = 3
	c.Add("abca")
	c.Add("abcz")
	assert.Equal(t, "abc", string(c.LowerBound()))
	assert.Equal(t, "abd", string(c.UpperBound()))
}

func TestCollectorExcludesNaNFromBounds(t *testing.T) {
	c := stats.NewCollector(iceberg.DoubleType)
	c.Add(1.5)
	c.Add(float64(0))
	c.Add(math.NaN())
	assert.Equal(t, int64(3), c.ValueCount)
	assert.Equal(t, int64(1), c.NaNCount)
	assert.Equal(t, codec.EncodeStatValue(iceberg.DoubleType, float64(0)), c.LowerBound())
	assert.Equal(t, codec.EncodeStatValue(iceberg.DoubleType, 1.5), c.UpperBound())
}

func TestZoneMapCanSkip(t *testing.T) {
	assert.True(t, stats.CanSkip(iceberg.IntType, stats.OpEQ, int32(10), int32(20), int32(5)))
	assert.False(t, stats.CanSkip(iceberg.IntType, stats.OpEQ, int32(10), int32(20), int32(15)))
	assert.True(t, stats.CanSkip(iceberg.IntType, stats.OpLT, int32(10), int32(20), int32(10)))
	assert.False(t, stats.CanSkip(iceberg.IntType, stats.OpLT, int32(10), int32(20), int32(11)))
	assert.True(t, stats.CanSkip(iceberg.IntType, stats.OpGT, int32(10), int32(20), int32(20)))
	assert.True(t, stats.CanSkip(iceberg.IntType, stats.OpNE, int32(10), int32(10), int32(10)))
}

func TestAggregateMergeWidensBounds(t *testing.T) {
	agg := stats.NewAggregate()

	c1 := stats.NewCollector(iceberg.IntType)
	c1.Add(int32(5))
	c1.Add(int32(20))
	agg.Merge(1, c1)

	c2 := stats.NewCollector(iceberg.IntType)
	c2.Add(int32(1))
	c2.Add(int32(10))
	agg.Merge(1, c2)

	assert.Equal(t, int64(4), agg.ValueCounts[1])
	assert.Equal(t, []byte{1, 0, 0, 0}, agg.LowerBounds[1])
	assert.Equal(t, []byte{20, 0, 0, 0}, agg.UpperBounds[1])
}
