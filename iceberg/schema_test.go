package iceberg_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dot-do/iceberg-sub003/iceberg"
)

func TestSchemaHighestFieldID(t *testing.T) {
	s := iceberg.NewSchema(0,
		iceberg.NestedField{ID: 1, Name: "id", Type: iceberg.LongType, Required: true},
		iceberg.NestedField{ID: 2, Name: "name", Type: iceberg.StringType},
		iceberg.NestedField{ID: 3, Name: "tags", Type: iceberg.ListType{ElementID: 4, Element: iceberg.StringType}},
	)
	assert.Equal(t, 4, s.HighestFieldID())
}

func TestFieldLookup(t *testing.T) {
	s := iceberg.NewSchema(0,
		iceberg.NestedField{ID: 1, Name: "id", Type: iceberg.LongType, Required: true},
	)
	f, ok := s.FieldByName("id")
	require.True(t, ok)
	assert.Equal(t, 1, f.ID)

	_, ok = s.FieldByID(99)
	assert.False(t, ok)
}

func TestParseTransform(t *testing.T) {
	tr, err := iceberg.ParseTransform("bucket[16]")
	require.NoError(t, err)
	assert.Equal(t, iceberg.TransformBucket, tr.Kind)
	assert.Equal(t, 16, tr.Arg)
	assert.Equal(t, "bucket[16]", tr.String())

	tr, err = iceberg.ParseTransform("day")
	require.NoError(t, err)
	assert.Equal(t, iceberg.TransformDay, tr.Kind)

	_, err = iceberg.ParseTransform("garbage")
	assert.Error(t, err)
}

func TestPartitionSpecLastPartitionID(t *testing.T) {
	spec := iceberg.PartitionSpec{
		SpecID: 0,
		Fields: []iceberg.PartitionField{
			{SourceID: 1, FieldID: 1000, Name: "id_bucket", Transform: iceberg.Transform{Kind: iceberg.TransformBucket, Arg: 16}},
			{SourceID: 3, FieldID: 1001, Name: "created_day", Transform: iceberg.Transform{Kind: iceberg.TransformDay}},
		},
	}
	assert.Equal(t, 1001, spec.LastPartitionID())
	assert.False(t, spec.IsUnpartitioned())
}

func TestPromotionAllowed(t *testing.T) {
	assert.True(t, iceberg.PromotionAllowed(iceberg.IntType, iceberg.LongType))
	assert.True(t, iceberg.PromotionAllowed(iceberg.FloatType, iceberg.DoubleType))
	assert.False(t, iceberg.PromotionAllowed(iceberg.LongType, iceberg.IntType))
	assert.True(t, iceberg.PromotionAllowed(iceberg.FixedType{Length: 4}, iceberg.BinaryType))
	assert.True(t, iceberg.PromotionAllowed(iceberg.DecimalType{Precision: 9, Scale: 2}, iceberg.DecimalType{Precision: 18, Scale: 2}))
	assert.False(t, iceberg.PromotionAllowed(iceberg.DecimalType{Precision: 9, Scale: 2}, iceberg.DecimalType{Precision: 18, Scale: 3}))
}

func TestValidateCatchesDanglingSnapshot(t *testing.T) {
	s := iceberg.NewSchema(0, iceberg.NestedField{ID: 1, Name: "id", Type: iceberg.LongType, Required: true})
	bad := int64(42)
	m := &iceberg.TableMetadata{
		FormatVersion:      2,
		CurrentSchemaID:    0,
		Schemas:            []*iceberg.Schema{s},
		PartitionSpecs:     []iceberg.PartitionSpec{{SpecID: 0}},
		SortOrders:         []iceberg.SortOrder{{OrderID: 0}},
		CurrentSnapshotID:  &bad,
	}
	err := iceberg.Validate(m)
	assert.Error(t, err)
}

func TestValidateAcceptsEmptyTable(t *testing.T) {
	s := iceberg.NewSchema(0, iceberg.NestedField{ID: 1, Name: "id", Type: iceberg.LongType, Required: true})
	m := &iceberg.TableMetadata{
		FormatVersion:   2,
		CurrentSchemaID: 0,
		Schemas:         []*iceberg.Schema{s},
		PartitionSpecs:  []iceberg.PartitionSpec{{SpecID: 0}},
		SortOrders:      []iceberg.SortOrder{{OrderID: 0}},
	}
	assert.NoError(t, iceberg.Validate(m))
}
