package manifest

import (
	"github.com/dot-do/iceberg-sub003/iceberg"
	pkgerrors "github.com/dot-do/iceberg-sub003/pkg/errors"
)

var codeInvalidDeleteFile = pkgerrors.MustNewCode("manifest.invalid_delete_file")

// NewPositionDeleteFile builds a position-delete DataFile. Position deletes
// are themselves data files whose rows are (file_path, pos) pairs at the
// reserved field ids.
func NewPositionDeleteFile(path string, format iceberg.FileFormat, recordCount, size int64) iceberg.DataFile {
	return iceberg.DataFile{
		Content:         iceberg.ContentPositionDeletes,
		FilePath:        path,
		FileFormat:      format,
		RecordCount:     recordCount,
		FileSizeInBytes: size,
	}
}

// NewEqualityDeleteFile builds an equality-delete DataFile identified by the
// set of column ids used for row identity.
func NewEqualityDeleteFile(path string, format iceberg.FileFormat, recordCount, size int64, equalityIDs []int) iceberg.DataFile {
	return iceberg.DataFile{
		Content:         iceberg.ContentEqualityDeletes,
		FilePath:        path,
		FileFormat:      format,
		RecordCount:     recordCount,
		FileSizeInBytes: size,
		EqualityIDs:     equalityIDs,
	}
}

// NewDeletionVector builds a v3 deletion-vector DataFile referencing a
// Puffin-file byte range.
func NewDeletionVector(path string, size, contentOffset, contentSizeInBytes int64) (iceberg.DataFile, error) {
	df := iceberg.DataFile{
		Content:            iceberg.ContentPositionDeletes,
		FilePath:           path,
		FileSizeInBytes:    size,
		ContentOffset:      &contentOffset,
		ContentSizeInBytes: &contentSizeInBytes,
	}
	if err := ValidateDeletionVector(df); err != nil {
		return iceberg.DataFile{}, err
	}
	return df, nil
}

// ValidateDeletionVector enforces §4.4/§9's v3 deletion-vector constraints:
// content-offset and content-size-in-bytes both present, equality-ids
// absent.
func ValidateDeletionVector(df iceberg.DataFile) error {
	if (df.ContentOffset == nil) != (df.ContentSizeInBytes == nil) {
		return pkgerrors.New(codeInvalidDeleteFile, pkgerrors.KindValidation, "deletion vector needs both content-offset and content-size-in-bytes").
			WithEntity("data_file", df.FilePath)
	}
	if !df.IsDeletionVector() {
		return nil
	}
	if len(df.EqualityIDs) > 0 {
		return pkgerrors.New(codeInvalidDeleteFile, pkgerrors.KindValidation, "deletion vector must not carry equality-ids").
			WithEntity("data_file", df.FilePath)
	}
	return nil
}

// SupersedesPositionDeletes reports whether a deletion vector for path at
// sequence number dvSeq supersedes a position-delete file targeting the
// same path written at sequence number posDeleteSeq: the deletion vector
// wins when it is the same age or newer.
func SupersedesPositionDeletes(dvPath string, dvSeq int64, posDeletePath string, posDeleteSeq int64) bool {
	return dvPath == posDeletePath && dvSeq >= posDeleteSeq
}
