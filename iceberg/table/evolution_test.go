package table_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dot-do/iceberg-sub003/iceberg"
	"github.com/dot-do/iceberg-sub003/iceberg/table"
)

func baseSchema() *iceberg.Schema {
	return iceberg.NewSchema(0,
		iceberg.NestedField{ID: 1, Name: "id", Type: iceberg.LongType, Required: true},
		iceberg.NestedField{ID: 2, Name: "name", Type: iceberg.StringType},
	)
}

// TestRenameThenAddPreservesIDs exercises spec.md §8 scenario S6: renaming a
// field keeps its id, and an added field gets a fresh id above last-column-id.
func TestRenameThenAddPreservesIDs(t *testing.T) {
	s := baseSchema()
	next, err := table.NewSchemaEvolver(s, s.HighestFieldID(), true).
		RenameColumn("name", "full_name").
		AddColumn("phone", iceberg.StringType, false, "", nil).
		Finish(1)
	require.NoError(t, err)

	assert.Equal(t, 1, next.SchemaID)
	f, ok := next.FieldByID(2)
	require.True(t, ok)
	assert.Equal(t, "full_name", f.Name)

	phone, ok := next.FieldByName("phone")
	require.True(t, ok)
	assert.Equal(t, 3, phone.ID)
	assert.Equal(t, 3, next.HighestFieldID())
}

func TestAddColumnRejectsDuplicateName(t *testing.T) {
	s := baseSchema()
	_, err := table.NewSchemaEvolver(s, s.HighestFieldID(), true).
		AddColumn("name", iceberg.StringType, false, "", nil).
		Finish(1)
	assert.Error(t, err)
}

func TestAddRequiredColumnToNonEmptyTableNeedsDefault(t *testing.T) {
	s := baseSchema()
	_, err := table.NewSchemaEvolver(s, s.HighestFieldID(), false).
		AddColumn("score", iceberg.IntType, true, "", nil).
		Finish(1)
	assert.Error(t, err)

	_, err = table.NewSchemaEvolver(s, s.HighestFieldID(), false).
		AddColumn("score", iceberg.IntType, true, "", int32(0)).
		Finish(1)
	assert.NoError(t, err)
}

func TestAddRequiredColumnToEmptyTableNeedsNoDefault(t *testing.T) {
	s := baseSchema()
	_, err := table.NewSchemaEvolver(s, s.HighestFieldID(), true).
		AddColumn("score", iceberg.IntType, true, "", nil).
		Finish(1)
	assert.NoError(t, err)
}

func TestDropColumnRejectsIdentifierField(t *testing.T) {
	s := baseSchema()
	s.IdentifierIDs = []int{1}
	_, err := table.NewSchemaEvolver(s, s.HighestFieldID(), true).
		DropColumn("id").
		Finish(1)
	assert.Error(t, err)
}

func TestDropColumnAllowsNonIdentifierField(t *testing.T) {
	s := baseSchema()
	s.IdentifierIDs = []int{1}
	next, err := table.NewSchemaEvolver(s, s.HighestFieldID(), true).
		DropColumn("name").
		Finish(1)
	require.NoError(t, err)
	_, ok := next.FieldByName("name")
	assert.False(t, ok)
}

func TestDropUnknownColumnFails(t *testing.T) {
	s := baseSchema()
	_, err := table.NewSchemaEvolver(s, s.HighestFieldID(), true).
		DropColumn("nope").
		Finish(1)
	assert.Error(t, err)
}

func TestUpdateColumnTypeAllowsPromotion(t *testing.T) {
	s := iceberg.NewSchema(0, iceberg.NestedField{ID: 1, Name: "amount", Type: iceberg.IntType, Required: true})
	next, err := table.NewSchemaEvolver(s, s.HighestFieldID(), true).
		UpdateColumnType("amount", iceberg.LongType).
		Finish(1)
	require.NoError(t, err)
	f, _ := next.FieldByName("amount")
	assert.Equal(t, iceberg.LongType, f.Type)
}

func TestUpdateColumnTypeRejectsNarrowing(t *testing.T) {
	s := iceberg.NewSchema(0, iceberg.NestedField{ID: 1, Name: "amount", Type: iceberg.LongType, Required: true})
	_, err := table.NewSchemaEvolver(s, s.HighestFieldID(), true).
		UpdateColumnType("amount", iceberg.IntType).
		Finish(1)
	assert.Error(t, err)
}

func TestMakeColumnOptionalAndRequired(t *testing.T) {
	s := baseSchema()
	next, err := table.NewSchemaEvolver(s, s.HighestFieldID(), true).
		MakeColumnOptional("id").
		Finish(1)
	require.NoError(t, err)
	f, _ := next.FieldByName("id")
	assert.False(t, f.Required)

	next2, err := table.NewSchemaEvolver(s, s.HighestFieldID(), true).
		MakeColumnRequired("name").
		Finish(1)
	require.NoError(t, err)
	f2, _ := next2.FieldByName("name")
	assert.True(t, f2.Required)
}

func TestUpdateColumnDoc(t *testing.T) {
	s := baseSchema()
	next, err := table.NewSchemaEvolver(s, s.HighestFieldID(), true).
		UpdateColumnDoc("id", "primary key").
		Finish(1)
	require.NoError(t, err)
	f, _ := next.FieldByName("id")
	assert.Equal(t, "primary key", f.Doc)
}

func TestMoveColumnVariants(t *testing.T) {
	s := iceberg.NewSchema(0,
		iceberg.NestedField{ID: 1, Name: "a", Type: iceberg.StringType},
		iceberg.NestedField{ID: 2, Name: "b", Type: iceberg.StringType},
		iceberg.NestedField{ID: 3, Name: "c", Type: iceberg.StringType},
	)

	order := func(sc *iceberg.Schema) []string {
		names := make([]string, len(sc.Struct.FieldList))
		for i, f := range sc.Struct.FieldList {
			names[i] = f.Name
		}
		return names
	}

	last, err := table.NewSchemaEvolver(s, s.HighestFieldID(), true).MoveColumn("a", table.MoveLast, "").Finish(1)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "a"}, order(last))

	first, err := table.NewSchemaEvolver(s, s.HighestFieldID(), true).MoveColumn("c", table.MoveFirst, "").Finish(1)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, order(first))

	before, err := table.NewSchemaEvolver(s, s.HighestFieldID(), true).MoveColumn("c", table.MoveBefore, "a").Finish(1)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, order(before))

	after, err := table.NewSchemaEvolver(s, s.HighestFieldID(), true).MoveColumn("a", table.MoveAfter, "b").Finish(1)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, order(after))

	_, err = table.NewSchemaEvolver(s, s.HighestFieldID(), true).MoveColumn("a", table.MoveAfter, "nope").Finish(1)
	assert.Error(t, err)
}

func TestFieldIDManagerSeedsAboveLastColumnID(t *testing.T) {
	mgr := table.NewFieldIDManager(5)
	assert.Equal(t, 6, mgr.Next())
	assert.Equal(t, 7, mgr.Next())
}

func TestFirstErrorInChainSticks(t *testing.T) {
	s := baseSchema()
	_, err := table.NewSchemaEvolver(s, s.HighestFieldID(), true).
		DropColumn("nope").
		AddColumn("anything", iceberg.StringType, false, "", nil).
		Finish(1)
	assert.Error(t, err)
}
