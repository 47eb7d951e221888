package codec_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dot-do/iceberg-sub003/iceberg"
	"github.com/dot-do/iceberg-sub003/iceberg/codec"
)

func sampleMetadata() *iceberg.TableMetadata {
	schema := iceberg.NewSchema(0,
		iceberg.NestedField{ID: 1, Name: "id", Type: iceberg.LongType, Required: true},
		iceberg.NestedField{ID: 2, Name: "name", Type: iceberg.StringType},
		iceberg.NestedField{ID: 3, Name: "created", Type: iceberg.TimestampType, Required: true},
	)
	return &iceberg.TableMetadata{
		FormatVersion:      2,
		TableUUID:          "3f3a1b1a-0000-4000-8000-000000000000",
		Location:           "memory://w/db/t",
		LastSequenceNumber: 0,
		LastColumnID:       3,
		CurrentSchemaID:    0,
		Schemas:            []*iceberg.Schema{schema},
		DefaultSpecID:      0,
		PartitionSpecs:     []iceberg.PartitionSpec{{SpecID: 0}},
		DefaultSortOrderID: 0,
		SortOrders:         []iceberg.SortOrder{{OrderID: 0}},
		Properties:         iceberg.Properties{"owner": "test"},
		Refs:               map[string]iceberg.SnapshotRef{},
	}
}

func TestEncodeTableMetadataNullCurrentSnapshot(t *testing.T) {
	m := sampleMetadata()
	b, err := codec.EncodeTableMetadata(m)
	require.NoError(t, err)

	var generic map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(b, &generic))
	raw, ok := generic["current-snapshot-id"]
	require.True(t, ok, "current-snapshot-id must be present even when null")
	assert.Equal(t, "null", string(raw))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	m := sampleMetadata()
	one := int64(1)
	m.LastSequenceNumber = 1
	m.CurrentSnapshotID = &one
	m.Snapshots = []iceberg.Snapshot{
		{
			SnapshotID:     1,
			SequenceNumber: 1,
			TimestampMs:    1700000000000,
			ManifestList:   "memory://w/db/t/metadata/snap-1-1-abc.avro",
			Summary:        map[string]string{"operation": "append", "added-records": "10"},
		},
	}
	m.Refs["main"] = iceberg.SnapshotRef{SnapshotID: 1, Type: iceberg.RefBranch}

	b, err := codec.EncodeTableMetadata(m)
	require.NoError(t, err)

	got, err := codec.DecodeTableMetadata(b)
	require.NoError(t, err)

	assert.Equal(t, m.FormatVersion, got.FormatVersion)
	assert.Equal(t, m.TableUUID, got.TableUUID)
	assert.Equal(t, m.LastSequenceNumber, got.LastSequenceNumber)
	require.NotNil(t, got.CurrentSnapshotID)
	assert.Equal(t, *m.CurrentSnapshotID, *got.CurrentSnapshotID)
	require.Len(t, got.Schemas, 1)
	f, ok := got.Schemas[0].FieldByName("created")
	require.True(t, ok)
	assert.Equal(t, iceberg.TimestampType, f.Type)
	require.Len(t, got.Snapshots, 1)
	assert.Equal(t, "append", got.Snapshots[0].Summary["operation"])
	ref, ok := got.Refs["main"]
	require.True(t, ok)
	assert.Equal(t, int64(1), ref.SnapshotID)
}

func TestEncodeTableMetadataLogsUseHyphenCasedKeys(t *testing.T) {
	m := sampleMetadata()
	m.SnapshotLog = []iceberg.SnapshotLogEntry{{TimestampMs: 1700000000000, SnapshotID: 1}}
	m.MetadataLog = []iceberg.MetadataLogEntry{{TimestampMs: 1700000000000, MetadataFile: "v1.metadata.json"}}

	b, err := codec.EncodeTableMetadata(m)
	require.NoError(t, err)

	var generic map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(b, &generic))

	var snapLog []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(generic["snapshot-log"], &snapLog))
	require.Len(t, snapLog, 1)
	assert.Contains(t, snapLog[0], "timestamp-ms")
	assert.Contains(t, snapLog[0], "snapshot-id")

	var metaLog []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(generic["metadata-log"], &metaLog))
	require.Len(t, metaLog, 1)
	assert.Contains(t, metaLog[0], "timestamp-ms")
	assert.Contains(t, metaLog[0], "metadata-file")
}

func TestEncodeDecodeRoundTripPreservesLogsAndKeyID(t *testing.T) {
	m := sampleMetadata()
	keyID := 7
	m.SnapshotLog = []iceberg.SnapshotLogEntry{{TimestampMs: 1700000000000, SnapshotID: 1}}
	m.MetadataLog = []iceberg.MetadataLogEntry{{TimestampMs: 1700000000000, MetadataFile: "v1.metadata.json"}}
	m.Snapshots = []iceberg.Snapshot{
		{
			SnapshotID:     1,
			SequenceNumber: 1,
			TimestampMs:    1700000000000,
			ManifestList:   "memory://w/db/t/metadata/snap-1-1-abc.avro",
			Summary:        map[string]string{"operation": "append"},
			KeyID:          &keyID,
		},
	}

	b, err := codec.EncodeTableMetadata(m)
	require.NoError(t, err)

	got, err := codec.DecodeTableMetadata(b)
	require.NoError(t, err)

	require.Len(t, got.SnapshotLog, 1)
	assert.Equal(t, m.SnapshotLog[0], got.SnapshotLog[0])
	require.Len(t, got.MetadataLog, 1)
	assert.Equal(t, m.MetadataLog[0], got.MetadataLog[0])

	require.Len(t, got.Snapshots, 1)
	require.NotNil(t, got.Snapshots[0].KeyID)
	assert.Equal(t, keyID, *got.Snapshots[0].KeyID)
}

func TestParsePrimitiveType(t *testing.T) {
	cases := map[string]iceberg.Type{
		"long":              iceberg.LongType,
		"string":            iceberg.StringType,
		"decimal(10, 2)":    iceberg.DecimalType{Precision: 10, Scale: 2},
		"fixed[16]":         iceberg.FixedType{Length: 16},
		"geometry(OGC:CRS84)": iceberg.NewGeometryType("OGC:CRS84"),
	}
	for s, want := range cases {
		got, err := codec.ParsePrimitiveType(s)
		require.NoError(t, err)
		assert.True(t, want.Equals(got), "parsing %q: got %v want %v", s, got, want)
	}

	_, err := codec.ParsePrimitiveType("not-a-type")
	assert.Error(t, err)
}
