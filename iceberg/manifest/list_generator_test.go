package manifest_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dot-do/iceberg-sub003/iceberg"
	"github.com/dot-do/iceberg-sub003/iceberg/manifest"
)

func TestListGeneratorAddAndFinalize(t *testing.T) {
	lg := manifest.NewListGenerator()
	lg.Add(manifest.ListEntryInput{
		ManifestPath:      "metadata/m1.avro",
		ManifestLength:    100,
		PartitionSpecID:   0,
		SequenceNumber:    5,
		MinSequenceNumber: 5,
		AddedSnapshotID:   100,
		Content:           iceberg.ManifestContentData,
		Summary: manifest.Summary{
			AddedFiles: 2,
			AddedRows:  30,
			AddedSize:  3072,
		},
	})

	require.Len(t, lg.Manifests(), 1)
	assert.Equal(t, "metadata/m1.avro", lg.Manifests()[0].ManifestPath)
	assert.Equal(t, int32(2), lg.Manifests()[0].AddedFilesCount)

	var buf bytes.Buffer
	require.NoError(t, lg.Finalize(&buf))
	assert.NotEmpty(t, buf.Bytes())
}

func TestListGeneratorAggregate(t *testing.T) {
	lg := manifest.NewListGenerator()
	summaries := []manifest.Summary{
		{AddedFiles: 2, DeletedFiles: 1, AddedRows: 30, DeletedRows: 10, AddedSize: 3072, RemovedSize: 1024},
		{AddedFiles: 1, AddedRows: 5, AddedSize: 512},
	}
	agg := lg.Aggregate(summaries)
	assert.Equal(t, int64(3), agg.AddedDataFiles)
	assert.Equal(t, int64(1), agg.DeletedDataFiles)
	assert.Equal(t, int64(35), agg.AddedRecords)
	assert.Equal(t, int64(10), agg.DeletedRecords)
	assert.Equal(t, int64(3584), agg.AddedFilesSize)
	assert.Equal(t, int64(1024), agg.RemovedFilesSize)
}
