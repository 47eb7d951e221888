package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dot-do/iceberg-sub003/iceberg"
)

func TestBuildSchemaFromFlags(t *testing.T) {
	schema, err := buildSchemaFromFlags([]string{"id:long", "name:string:optional", "created:timestamp"})
	require.NoError(t, err)

	assert.Equal(t, 0, schema.SchemaID)
	require.Len(t, schema.Struct.FieldList, 3)

	idField, ok := schema.FieldByName("id")
	require.True(t, ok)
	assert.Equal(t, 1, idField.ID)
	assert.True(t, idField.Required)
	assert.Equal(t, iceberg.LongType, idField.Type)

	nameField, ok := schema.FieldByName("name")
	require.True(t, ok)
	assert.False(t, nameField.Required)
}

func TestBuildSchemaFromFlagsRejectsEmpty(t *testing.T) {
	_, err := buildSchemaFromFlags(nil)
	assert.Error(t, err)
}

func TestBuildSchemaFromFlagsRejectsMalformed(t *testing.T) {
	_, err := buildSchemaFromFlags([]string{"justname"})
	assert.Error(t, err)
}
