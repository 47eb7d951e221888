package stats_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dot-do/iceberg-sub003/iceberg/stats"
)

func TestBloomFilterNoFalseNegatives(t *testing.T) {
	f := stats.NewFilter(1000, 0.01, 0)
	words := []string{"apple", "banana", "cherry"}
	for _, w := range words {
		f.Add(stats.HashString(w))
	}
	for _, w := range words {
		assert.True(t, f.MightContain(stats.HashString(w)), "must not false-negative on %q", w)
	}
}

func TestBloomFilterObservedFPRWithinBound(t *testing.T) {
	const n = 10000
	target := 0.01
	f := stats.NewFilter(n, target, 0)
	for i := 0; i < n; i++ {
		f.Add(stats.HashInt64(int64(i)))
	}
	falsePositives := 0
	probes := 10000
	for i := 0; i < probes; i++ {
		// Disjoint key space: negative numbers were never inserted.
		if f.MightContain(stats.HashInt64(int64(-i - 1))) {
			falsePositives++
		}
	}
	observed := float64(falsePositives) / float64(probes)
	assert.LessOrEqual(t, observed, target*2, "observed FPR %v exceeds 2x target %v", observed, target)
}

func TestBloomFilterSerializeRoundTrip(t *testing.T) {
	f := stats.NewFilter(100, 0.05, 0)
	f.Add(stats.HashString("a"))
	f.Add(stats.HashString("b"))

	var buf bytes.Buffer
	require.NoError(t, f.Serialize(&buf))

	got, err := stats.DeserializeFilter(&buf)
	require.NoError(t, err)
	assert.Equal(t, len(f.Blocks), len(got.Blocks))
	assert.Equal(t, f.ItemCount, got.ItemCount)
	assert.Equal(t, f.Blocks, got.Blocks)
	assert.True(t, got.MightContain(stats.HashString("a")))
}

func TestBloomFilterMergeRejectsMismatchedSize(t *testing.T) {
	a := stats.NewFilter(10, 0.1, 0)
	b := stats.NewFilter(100000, 0.001, 0)
	assert.False(t, a.Merge(b))
}

func TestBloomFilterMergeUnion(t *testing.T) {
	a := stats.NewFilter(100, 0.05, 0)
	b := stats.NewFilter(100, 0.05, 0)
	a.Add(stats.HashString("x"))
	b.Add(stats.HashString("y"))
	require.True(t, a.Merge(b))
	assert.True(t, a.MightContain(stats.HashString("x")))
	assert.True(t, a.MightContain(stats.HashString("y")))
}

func TestFilterFileRoundTrip(t *testing.T) {
	f1 := stats.NewFilter(10, 0.05, 0)
	f1.Add(stats.HashString("a"))
	f2 := stats.NewFilter(10, 0.05, 0)
	f2.Add(stats.HashInt64(42))

	var buf bytes.Buffer
	require.NoError(t, stats.WriteFilterFile(&buf, []stats.NamedFilter{
		{FieldID: 1, Name: "col_a", Filter: f1},
		{FieldID: 2, Name: "col_b", Filter: f2},
	}))

	got, err := stats.ReadFilterFile(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "col_a", got[0].Name)
	assert.True(t, got[0].Filter.MightContain(stats.HashString("a")))
	assert.True(t, got[1].Filter.MightContain(stats.HashInt64(42)))
}
