package table_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dot-do/iceberg-sub003/iceberg"
	"github.com/dot-do/iceberg-sub003/iceberg/table"
)

func TestCompareSchemasDetectsRename(t *testing.T) {
	from := baseSchema()
	to := iceberg.NewSchema(1,
		iceberg.NestedField{ID: 1, Name: "id", Type: iceberg.LongType, Required: true},
		iceberg.NestedField{ID: 2, Name: "full_name", Type: iceberg.StringType},
	)
	cmp := table.CompareSchemas(from, to)
	assert.Empty(t, cmp.Added)
	assert.Empty(t, cmp.Removed)
	assert.Equal(t, [2]string{"name", "full_name"}, cmp.Renamed[2])
	assert.Empty(t, cmp.Changed)
}

func TestCompareSchemasDetectsAddedRemovedAndTypeChange(t *testing.T) {
	from := iceberg.NewSchema(0,
		iceberg.NestedField{ID: 1, Name: "id", Type: iceberg.IntType, Required: true},
		iceberg.NestedField{ID: 2, Name: "old", Type: iceberg.StringType},
	)
	to := iceberg.NewSchema(1,
		iceberg.NestedField{ID: 1, Name: "id", Type: iceberg.LongType, Required: true},
		iceberg.NestedField{ID: 3, Name: "new", Type: iceberg.StringType},
	)
	cmp := table.CompareSchemas(from, to)
	assert.Len(t, cmp.Added, 1)
	assert.Equal(t, "new", cmp.Added[0].Name)
	assert.Len(t, cmp.Removed, 1)
	assert.Equal(t, "old", cmp.Removed[0].Name)
	assert.Len(t, cmp.Changed, 1)
	assert.True(t, cmp.Changed[0].TypeChanged)
}

func TestIsBackwardCompatibleAllowsWideningAndAdditiveOptional(t *testing.T) {
	from := iceberg.NewSchema(0, iceberg.NestedField{ID: 1, Name: "amount", Type: iceberg.IntType, Required: true})
	to := iceberg.NewSchema(1,
		iceberg.NestedField{ID: 1, Name: "amount", Type: iceberg.LongType, Required: true},
		iceberg.NestedField{ID: 2, Name: "note", Type: iceberg.StringType},
	)
	assert.True(t, table.IsBackwardCompatible(from, to))
}

func TestIsBackwardCompatibleRejectsDropAndNarrowing(t *testing.T) {
	from := iceberg.NewSchema(0,
		iceberg.NestedField{ID: 1, Name: "amount", Type: iceberg.LongType, Required: true},
		iceberg.NestedField{ID: 2, Name: "note", Type: iceberg.StringType},
	)
	dropped := iceberg.NewSchema(1, iceberg.NestedField{ID: 1, Name: "amount", Type: iceberg.LongType, Required: true})
	assert.False(t, table.IsBackwardCompatible(from, dropped))

	narrowed := iceberg.NewSchema(1,
		iceberg.NestedField{ID: 1, Name: "amount", Type: iceberg.IntType, Required: true},
		iceberg.NestedField{ID: 2, Name: "note", Type: iceberg.StringType},
	)
	assert.False(t, table.IsBackwardCompatible(from, narrowed))
}

func TestIsBackwardCompatibleRejectsTighteningToRequired(t *testing.T) {
	from := iceberg.NewSchema(0, iceberg.NestedField{ID: 1, Name: "note", Type: iceberg.StringType, Required: false})
	to := iceberg.NewSchema(1, iceberg.NestedField{ID: 1, Name: "note", Type: iceberg.StringType, Required: true})
	assert.False(t, table.IsBackwardCompatible(from, to))
}

func TestIsForwardCompatibleRequiresNewRequiredFieldsToExist(t *testing.T) {
	from := iceberg.NewSchema(0, iceberg.NestedField{ID: 1, Name: "id", Type: iceberg.LongType, Required: true})
	to := iceberg.NewSchema(1,
		iceberg.NestedField{ID: 1, Name: "id", Type: iceberg.LongType, Required: true},
		iceberg.NestedField{ID: 2, Name: "required_new", Type: iceberg.StringType, Required: true},
	)
	assert.False(t, table.IsForwardCompatible(from, to))

	toOptional := iceberg.NewSchema(1,
		iceberg.NestedField{ID: 1, Name: "id", Type: iceberg.LongType, Required: true},
		iceberg.NestedField{ID: 2, Name: "optional_new", Type: iceberg.StringType, Required: false},
	)
	assert.True(t, table.IsForwardCompatible(from, toOptional))
}

func TestIsFullyCompatibleRequiresBothDirections(t *testing.T) {
	same := baseSchema()
	assert.True(t, table.IsFullyCompatible(same, same))
}
