package manifest_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dot-do/iceberg-sub003/iceberg"
	"github.com/dot-do/iceberg-sub003/iceberg/manifest"
)

func TestNewPositionDeleteFile(t *testing.T) {
	df := manifest.NewPositionDeleteFile("data/del1.parquet", iceberg.FileFormatParquet, 3, 128)
	assert.True(t, df.IsDeleteFile())
	assert.True(t, df.IsPositionDeleteFile())
	assert.False(t, df.IsDeletionVector())
}

func TestNewEqualityDeleteFile(t *testing.T) {
	df := manifest.NewEqualityDeleteFile("data/eq1.parquet", iceberg.FileFormatParquet, 3, 128, []int{1, 2})
	assert.True(t, df.IsDeleteFile())
	assert.False(t, df.IsPositionDeleteFile())
	assert.Equal(t, []int{1, 2}, df.EqualityIDs)
}

func TestValidateDeletionVectorRejectsEqualityIDs(t *testing.T) {
	df := iceberg.DataFile{
		FilePath:           "data/dv1.puffin",
		EqualityIDs:        []int{1},
		ContentOffset:      int64Ptr(0),
		ContentSizeInBytes: int64Ptr(64),
	}
	err := manifest.ValidateDeletionVector(df)
	require.Error(t, err)
}

func TestNewDeletionVectorValid(t *testing.T) {
	df, err := manifest.NewDeletionVector("data/dv1.puffin", 64, 0, 64)
	require.NoError(t, err)
	assert.True(t, df.IsDeletionVector())
}

func TestSupersedesPositionDeletes(t *testing.T) {
	assert.True(t, manifest.SupersedesPositionDeletes("data/f1.parquet", 10, "data/f1.parquet", 5))
	assert.True(t, manifest.SupersedesPositionDeletes("data/f1.parquet", 5, "data/f1.parquet", 5))
	assert.False(t, manifest.SupersedesPositionDeletes("data/f1.parquet", 4, "data/f1.parquet", 5))
	assert.False(t, manifest.SupersedesPositionDeletes("data/f1.parquet", 10, "data/other.parquet", 5))
}

func int64Ptr(v int64) *int64 { return &v }
