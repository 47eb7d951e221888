package table_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dot-do/iceberg-sub003/iceberg"
	"github.com/dot-do/iceberg-sub003/iceberg/table"
)

func testSchema() *iceberg.Schema {
	return iceberg.NewSchema(0,
		iceberg.NestedField{ID: 1, Name: "id", Type: iceberg.LongType, Required: true},
		iceberg.NestedField{ID: 2, Name: "name", Type: iceberg.StringType},
	)
}

func TestBuilderBuildMinimal(t *testing.T) {
	m, err := table.NewBuilder([]string{"db", "t"}, testSchema(), "memory://w/db/t").Build()
	require.NoError(t, err)
	assert.Equal(t, 2, m.FormatVersion)
	assert.NotEmpty(t, m.TableUUID)
	assert.Equal(t, 0, m.CurrentSchemaID)
	assert.Equal(t, 2, m.LastColumnID)
	assert.Nil(t, m.CurrentSnapshotID)
	assert.Empty(t, m.Snapshots)
	assert.NoError(t, iceberg.Validate(m))
}

func TestBuilderRequiresSchemaAndLocation(t *testing.T) {
	_, err := table.NewBuilder(nil, nil, "memory://w/db/t").Build()
	assert.Error(t, err)

	_, err = table.NewBuilder(nil, testSchema(), "").Build()
	assert.Error(t, err)
}

func TestBuilderRejectsBadFormatVersion(t *testing.T) {
	_, err := table.NewBuilder(nil, testSchema(), "memory://w/db/t").WithFormatVersion(4).Build()
	assert.Error(t, err)
}

func TestBuilderV3SeedsEncryptionKeys(t *testing.T) {
	m, err := table.NewBuilder(nil, testSchema(), "memory://w/db/t").WithFormatVersion(3).Build()
	require.NoError(t, err)
	assert.NotNil(t, m.EncryptionKeys)
}

func TestAppendSnapshotMovesMainRefAndSequence(t *testing.T) {
	base, err := table.NewBuilder(nil, testSchema(), "memory://w/db/t").Build()
	require.NoError(t, err)

	schemaID := 0
	snap := iceberg.Snapshot{
		SnapshotID:     123,
		SequenceNumber: 1,
		TimestampMs:    1000,
		ManifestList:   "s3://w/db/t/metadata/snap-123.avro",
		SchemaID:       &schemaID,
		Summary:        map[string]string{"operation": "append"},
	}
	next := table.AppendSnapshot(base, snap)

	require.Len(t, next.Snapshots, 1)
	require.NotNil(t, next.CurrentSnapshotID)
	assert.Equal(t, int64(123), *next.CurrentSnapshotID)
	ref, ok := next.Refs["main"]
	require.True(t, ok)
	assert.Equal(t, int64(123), ref.SnapshotID)
	assert.Equal(t, int64(1), next.LastSequenceNumber)
	assert.Equal(t, int64(1000), next.LastUpdatedMs)

	// base is untouched (persistent builder, no mutation in place).
	assert.Empty(t, base.Snapshots)
	assert.Nil(t, base.CurrentSnapshotID)
}

func TestAppendSnapshotV3AdvancesNextRowID(t *testing.T) {
	base, err := table.NewBuilder(nil, testSchema(), "memory://w/db/t").WithFormatVersion(3).Build()
	require.NoError(t, err)

	added := int64(10)
	snap := iceberg.Snapshot{
		SnapshotID:     1,
		SequenceNumber: 1,
		TimestampMs:    1000,
		ManifestList:   "snap-1.avro",
		AddedRows:      &added,
	}
	next := table.AppendSnapshot(base, snap)
	assert.Equal(t, int64(10), next.NextRowID)
}

func TestAddSchemaRaisesLastColumnID(t *testing.T) {
	base, err := table.NewBuilder(nil, testSchema(), "memory://w/db/t").Build()
	require.NoError(t, err)

	wider := iceberg.NewSchema(1,
		iceberg.NestedField{ID: 1, Name: "id", Type: iceberg.LongType, Required: true},
		iceberg.NestedField{ID: 2, Name: "name", Type: iceberg.StringType},
		iceberg.NestedField{ID: 3, Name: "phone", Type: iceberg.StringType},
	)
	next := table.AddSchema(base, wider)
	assert.Len(t, next.Schemas, 2)
	assert.Equal(t, 3, next.LastColumnID)
	assert.Equal(t, 2, base.LastColumnID) // base untouched
}

func TestSetCurrentSchema(t *testing.T) {
	base, err := table.NewBuilder(nil, testSchema(), "memory://w/db/t").Build()
	require.NoError(t, err)
	next := table.SetCurrentSchema(base, 0)
	assert.Equal(t, 0, next.CurrentSchemaID)
}

func TestUpgradeFormatVersionIsOneWay(t *testing.T) {
	base, err := table.NewBuilder(nil, testSchema(), "memory://w/db/t").Build()
	require.NoError(t, err)
	require.Equal(t, 2, base.FormatVersion)

	v3, err := table.UpgradeFormatVersion(base, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, v3.FormatVersion)
	assert.Equal(t, int64(0), v3.NextRowID)
	assert.NotNil(t, v3.EncryptionKeys)

	_, err = table.UpgradeFormatVersion(v3, 3)
	assert.Error(t, err)

	_, err = table.UpgradeFormatVersion(v3, 2)
	assert.Error(t, err)
}

func TestUpgradeFormatVersionRejectsUnsupported(t *testing.T) {
	base, err := table.NewBuilder(nil, testSchema(), "memory://w/db/t").Build()
	require.NoError(t, err)
	_, err = table.UpgradeFormatVersion(base, 9)
	assert.Error(t, err)
}

func TestGenerateMetadataFileName(t *testing.T) {
	name, err := table.GenerateMetadataFileName(7)
	require.NoError(t, err)
	assert.Regexp(t, `^00007-[0-9a-f-]+\.metadata\.json$`, name)

	_, err = table.GenerateMetadataFileName(-1)
	assert.Error(t, err)
}
