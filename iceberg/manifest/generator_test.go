package manifest_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dot-do/iceberg-sub003/iceberg"
	"github.com/dot-do/iceberg-sub003/iceberg/manifest"
)

func sampleSchema() *iceberg.Schema {
	return iceberg.NewSchema(0,
		iceberg.NestedField{ID: 1, Name: "id", Type: iceberg.LongType, Required: true},
		iceberg.NestedField{ID: 2, Name: "ts", Type: iceberg.IntType, Required: false},
	)
}

func sampleSpec() iceberg.PartitionSpec {
	return iceberg.PartitionSpec{
		SpecID: 0,
		Fields: []iceberg.PartitionField{
			{SourceID: 2, FieldID: 1000, Name: "ts", Transform: iceberg.Transform{Kind: iceberg.TransformIdentity}},
		},
	}
}

func TestGeneratorAddAndFinalize(t *testing.T) {
	schema := sampleSchema()
	spec := sampleSpec()
	gen := manifest.NewGenerator(spec, 100, 5)

	df1 := iceberg.DataFile{
		Content:         iceberg.ContentData,
		FilePath:        "data/file1.parquet",
		FileFormat:      iceberg.FileFormatParquet,
		RecordCount:     10,
		FileSizeInBytes: 1024,
		Partition:       map[int]any{1000: int32(2020)},
	}
	df2 := iceberg.DataFile{
		Content:         iceberg.ContentData,
		FilePath:        "data/file2.parquet",
		FileFormat:      iceberg.FileFormatParquet,
		RecordCount:     20,
		FileSizeInBytes: 2048,
		Partition:       map[int]any{1000: int32(2021)},
	}

	gen.Add(iceberg.EntryAdded, df1, schema)
	gen.Add(iceberg.EntryAdded, df2, schema)
	gen.Add(iceberg.EntryDeleted, df1, schema)

	var buf bytes.Buffer
	summary, err := gen.Finalize(&buf)
	require.NoError(t, err)

	assert.Equal(t, int32(2), summary.AddedFiles)
	assert.Equal(t, int32(1), summary.DeletedFiles)
	assert.Equal(t, int64(30), summary.AddedRows)
	assert.Equal(t, int64(10), summary.DeletedRows)
	assert.Equal(t, int64(3072), summary.AddedSize)
	assert.Equal(t, int64(1024), summary.RemovedSize)
	require.Len(t, summary.Partitions, 1)
	assert.False(t, summary.Partitions[0].ContainsNull)
	assert.NotEmpty(t, buf.Bytes())
}

func TestPartitionFieldTypeResolvesTransformOutput(t *testing.T) {
	schema := sampleSchema()
	spec := iceberg.PartitionSpec{
		SpecID: 0,
		Fields: []iceberg.PartitionField{
			{SourceID: 2, FieldID: 1000, Name: "ts_bucket", Transform: iceberg.Transform{Kind: iceberg.TransformBucket, Arg: 16}},
		},
	}
	gen := manifest.NewGenerator(spec, 1, 1)
	df := iceberg.DataFile{
		Content:         iceberg.ContentData,
		FilePath:        "data/file.parquet",
		FileFormat:      iceberg.FileFormatParquet,
		RecordCount:     1,
		FileSizeInBytes: 1,
		Partition:       map[int]any{1000: int32(3)},
	}
	gen.Add(iceberg.EntryAdded, df, schema)

	var buf bytes.Buffer
	summary, err := gen.Finalize(&buf)
	require.NoError(t, err)
	require.Len(t, summary.Partitions, 1)
	assert.Equal(t, []byte{3, 0, 0, 0}, summary.Partitions[0].LowerBound)
}
