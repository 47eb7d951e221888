// Package stats implements per-column statistic collection and aggregation
// (zone maps) and split-block bloom filters, per §4.3.
package stats

import (
	"github.com/dot-do/iceberg-sub003/iceberg"
	"github.com/dot-do/iceberg-sub003/iceberg/codec"
)

const defaultMaxStringLength = 16

// Collector accumulates per-column statistics for one data file.
type Collector struct {
	Type            iceberg.Type
	MaxStringLength int

	ValueCount int64
	NullCount  int64
	NaNCount   int64
	ColumnSize int64

	min    any
	max    any
	hasMin bool
	hasMax bool
}

// NewCollector returns a Collector for t using the default truncation
// length for string bounds.
func NewCollector(t iceberg.Type) *Collector {
	return &Collector{Type: t, MaxStringLength: defaultMaxStringLength}
}

// Add folds one observed value into the running statistics.
func (c *Collector) Add(v any) {
	c.ValueCount++
	if v == nil {
		c.NullCount++
		return
	}
	if iceberg.IsNaN(c.Type, v) {
		c.NaNCount++
		return
	}
	c.ColumnSize += EstimateSize(c.Type, v)

	if c.Type.ID() == iceberg.TypeString {
		c.addString(v.(string))
		return
	}

	if !c.hasMin || iceberg.Compare(c.Type, v, c.min) < 0 {
		c.min = v
		c.hasMin = true
	}
	if !c.hasMax || iceberg.Compare(c.Type, v, c.max) > 0 {
		c.max = v
		c.hasMax = true
	}
}

func (c *Collector) addString(s string) {
	if !c.hasMin || s < c.min.(string) {
		c.min = s
		c.hasMin = true
	}
	if !c.hasMax || s > c.max.(string) {
		c.max = s
		c.hasMax = true
	}
}

// LowerBound returns the encoded lower bound, truncated for strings.
func (c *Collector) LowerBound() []byte {
	if !c.hasMin {
		return nil
	}
	if c.Type.ID() == iceberg.TypeString {
		return []byte(codec.TruncateString(c.min.(string), c.MaxStringLength))
	}
	return codec.EncodeStatValue(c.Type, c.min)
}

// UpperBound returns the encoded upper bound, truncated-and-incremented for
// strings per §4.3.
func (c *Collector) UpperBound() []byte {
	if !c.hasMax {
		return nil
	}
	if c.Type.ID() == iceberg.TypeString {
		return []byte(codec.TruncateUpperBound(c.max.(string), c.MaxStringLength))
	}
	return codec.EncodeStatValue(c.Type, c.max)
}

// EstimateSize approximates the on-disk byte size of one value of type t,
// used as the column_size accumulator.
func EstimateSize(t iceberg.Type, v any) int64 {
	switch t.ID() {
	case iceberg.TypeBoolean:
		return 1
	case iceberg.TypeInt, iceberg.TypeDate, iceberg.TypeFloat:
		return 4
	case iceberg.TypeLong, iceberg.TypeDouble, iceberg.TypeTime, iceberg.TypeTimestamp,
		iceberg.TypeTimestampTZ, iceberg.TypeTimestampNs, iceberg.TypeTimestampTZNs:
		return 8
	case iceberg.TypeString:
		return int64(len(v.(string)))
	case iceberg.TypeUUID:
		return 16
	case iceberg.TypeBinary:
		return int64(len(v.([]byte)))
	case iceberg.TypeFixed:
		return int64(len(v.([]byte)))
	case iceberg.TypeDecimal:
		return 16
	default:
		return 0
	}
}

// Aggregate merges per-file collectors into manifest-level maps keyed by
// field id, the manifest generator's summary inputs.
type Aggregate struct {
	ValueCounts     map[int]int64
	NullValueCounts map[int]int64
	NaNValueCounts  map[int]int64
	ColumnSizes     map[int]int64
	LowerBounds     map[int][]byte
	UpperBounds     map[int][]byte

	types map[int]iceberg.Type
}

// NewAggregate returns an empty Aggregate.
func NewAggregate() *Aggregate {
	return &Aggregate{
		ValueCounts:     map[int]int64{},
		NullValueCounts: map[int]int64{},
		NaNValueCounts:  map[int]int64{},
		ColumnSizes:     map[int]int64{},
		LowerBounds:     map[int][]byte{},
		UpperBounds:     map[int][]byte{},
		types:           map[int]iceberg.Type{},
	}
}

// Merge folds one field's per-file Collector into the aggregate under
// fieldID, keeping the smaller lower bound and the larger upper bound by the
// type's comparator.
func (a *Aggregate) Merge(fieldID int, c *Collector) {
	a.ValueCounts[fieldID] += c.ValueCount
	a.NullValueCounts[fieldID] += c.NullCount
	if c.NaNCount > 0 {
		a.NaNValueCounts[fieldID] += c.NaNCount
	}
	a.ColumnSizes[fieldID] += c.ColumnSize
	a.types[fieldID] = c.Type

	if lb := c.LowerBound(); lb != nil {
		if existing, ok := a.LowerBounds[fieldID]; !ok || compareEncoded(c.Type, lb, existing) < 0 {
			a.LowerBounds[fieldID] = lb
		}
	}
	if ub := c.UpperBound(); ub != nil {
		if existing, ok := a.UpperBounds[fieldID]; !ok || compareEncoded(c.Type, ub, existing) > 0 {
			a.UpperBounds[fieldID] = ub
		}
	}
}

func compareEncoded(t iceberg.Type, a, b []byte) int {
	if t.ID() == iceberg.TypeString {
		return stringCompareBytes(a, b)
	}
	return iceberg.Compare(t, codec.DecodeStatValue(t, a), codec.DecodeStatValue(t, b))
}

func stringCompareBytes(a, b []byte) int {
	as, bs := string(a), string(b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	default:
		return 0
	}
}
