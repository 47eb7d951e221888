package codec

import (
	"io"
	"sort"

	"github.com/hamba/avro/v2/ocf"

	"github.com/dot-do/iceberg-sub003/iceberg"
	pkgerrors "github.com/dot-do/iceberg-sub003/pkg/errors"
)

var codeAvroIO = pkgerrors.MustNewCode("codec.avro_io")

// kvLong/kvBytes/kvInt mirror the array-of-record encoding Avro uses for
// Iceberg's int-keyed maps (column_sizes, value_counts, lower_bounds, ...).
type kvLong struct {
	Key   int32 `avro:"key"`
	Value int64 `avro:"value"`
}

type kvBytes struct {
	Key   int32  `avro:"key"`
	Value []byte `avro:"value"`
}

// dataFileRecord is the Avro wire shape of a DataFile.
type dataFileRecord struct {
	Content            int32     `avro:"content"`
	FilePath           string    `avro:"file_path"`
	FileFormat         string    `avro:"file_format"`
	Partition          struct{}  `avro:"partition"`
	RecordCount        int64     `avro:"record_count"`
	FileSizeInBytes    int64     `avro:"file_size_in_bytes"`
	ColumnSizes        []kvLong  `avro:"column_sizes"`
	ValueCounts        []kvLong  `avro:"value_counts"`
	NullValueCounts    []kvLong  `avro:"null_value_counts"`
	NaNValueCounts     []kvLong  `avro:"nan_value_counts"`
	LowerBounds        []kvBytes `avro:"lower_bounds"`
	UpperBounds        []kvBytes `avro:"upper_bounds"`
	KeyMetadata        []byte    `avro:"key_metadata"`
	SplitOffsets       []int64   `avro:"split_offsets"`
	EqualityIDs        []int32   `avro:"equality_ids"`
	SortOrderID        *int32    `avro:"sort_order_id"`
	ContentOffset      *int64    `avro:"content_offset"`
	ContentSizeInBytes *int64    `avro:"content_size_in_bytes"`
}

type manifestEntryRecord struct {
	Status             int32          `avro:"status"`
	SnapshotID         *int64         `avro:"snapshot_id"`
	SequenceNumber     *int64         `avro:"sequence_number"`
	FileSequenceNumber *int64         `avro:"file_sequence_number"`
	DataFile           dataFileRecord `avro:"data_file"`
}

func toKVLong(m map[int]int64) []kvLong {
	if len(m) == 0 {
		return nil
	}
	out := make([]kvLong, 0, len(m))
	for k, v := range m {
		out = append(out, kvLong{Key: int32(k), Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func fromKVLong(kv []kvLong) map[int]int64 {
	if len(kv) == 0 {
		return nil
	}
	out := make(map[int]int64, len(kv))
	for _, p := range kv {
		out[int(p.Key)] = p.Value
	}
	return out
}

func toKVBytes(m map[int][]byte) []kvBytes {
	if len(m) == 0 {
		return nil
	}
	out := make([]kvBytes, 0, len(m))
	for k, v := range m {
		out = append(out, kvBytes{Key: int32(k), Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func fromKVBytes(kv []kvBytes) map[int][]byte {
	if len(kv) == 0 {
		return nil
	}
	out := make(map[int][]byte, len(kv))
	for _, p := range kv {
		out[int(p.Key)] = p.Value
	}
	return out
}

func toDataFileRecord(f iceberg.DataFile) dataFileRecord {
	r := dataFileRecord{
		Content:            int32(f.Content),
		FilePath:           f.FilePath,
		FileFormat:         string(f.FileFormat),
		RecordCount:        f.RecordCount,
		FileSizeInBytes:    f.FileSizeInBytes,
		ColumnSizes:        toKVLong(f.ColumnSizes),
		ValueCounts:        toKVLong(f.ValueCounts),
		NullValueCounts:    toKVLong(f.NullValueCounts),
		NaNValueCounts:     toKVLong(f.NaNValueCounts),
		LowerBounds:        toKVBytes(f.LowerBounds),
		UpperBounds:        toKVBytes(f.UpperBounds),
		KeyMetadata:        f.KeyMetadata,
		SplitOffsets:       f.SplitOffsets,
		ContentOffset:      f.ContentOffset,
		ContentSizeInBytes: f.ContentSizeInBytes,
	}
	if len(f.EqualityIDs) > 0 {
		r.EqualityIDs = make([]int32, len(f.EqualityIDs))
		for i, id := range f.EqualityIDs {
			r.EqualityIDs[i] = int32(id)
		}
	}
	if f.SortOrderID != nil {
		v := int32(*f.SortOrderID)
		r.SortOrderID = &v
	}
	return r
}

func fromDataFileRecord(r dataFileRecord) iceberg.DataFile {
	f := iceberg.DataFile{
		Content:             iceberg.FileContent(r.Content),
		FilePath:            r.FilePath,
		FileFormat:          iceberg.FileFormat(r.FileFormat),
		RecordCount:         r.RecordCount,
		FileSizeInBytes:     r.FileSizeInBytes,
		ColumnSizes:         fromKVLong(r.ColumnSizes),
		ValueCounts:         fromKVLong(r.ValueCounts),
		NullValueCounts:     fromKVLong(r.NullValueCounts),
		NaNValueCounts:      fromKVLong(r.NaNValueCounts),
		LowerBounds:         fromKVBytes(r.LowerBounds),
		UpperBounds:         fromKVBytes(r.UpperBounds),
		KeyMetadata:         r.KeyMetadata,
		SplitOffsets:        r.SplitOffsets,
		ContentOffset:       r.ContentOffset,
		ContentSizeInBytes:  r.ContentSizeInBytes,
	}
	for _, id := range r.EqualityIDs {
		f.EqualityIDs = append(f.EqualityIDs, int(id))
	}
	if r.SortOrderID != nil {
		v := int(*r.SortOrderID)
		f.SortOrderID = &v
	}
	return f
}

// EncodeManifest writes entries as an Avro Object Container File to w, per
// §4.2's "Avro framing" requirement.
func EncodeManifest(w io.Writer, entries []iceberg.ManifestEntry) error {
	enc, err := ocf.NewEncoder(ManifestEntrySchema.String(), w, ocf.WithCodec(ocf.Deflate))
	if err != nil {
		return pkgerrors.Wrap(codeAvroIO, pkgerrors.KindInternal, "create manifest encoder", err)
	}
	for _, e := range entries {
		rec := manifestEntryRecord{
			Status:             int32(e.Status),
			SnapshotID:         &e.SnapshotID,
			SequenceNumber:     e.SequenceNumber,
			FileSequenceNumber: e.FileSequenceNum,
			DataFile:           toDataFileRecord(e.DataFile),
		}
		if err := enc.Encode(rec); err != nil {
			return pkgerrors.Wrap(codeAvroIO, pkgerrors.KindInternal, "encode manifest entry", err)
		}
	}
	return enc.Close()
}

// DecodeManifest reads an Avro Object Container File of manifest entries.
func DecodeManifest(r io.Reader) ([]iceberg.ManifestEntry, error) {
	dec, err := ocf.NewDecoder(r)
	if err != nil {
		return nil, pkgerrors.Wrap(codeAvroIO, pkgerrors.KindInternal, "create manifest decoder", err)
	}
	var out []iceberg.ManifestEntry
	for dec.HasNext() {
		var rec manifestEntryRecord
		if err := dec.Decode(&rec); err != nil {
			return nil, pkgerrors.Wrap(codeAvroIO, pkgerrors.KindInternal, "decode manifest entry", err)
		}
		entry := iceberg.ManifestEntry{
			Status:          iceberg.ManifestEntryStatus(rec.Status),
			SequenceNumber:  rec.SequenceNumber,
			FileSequenceNum: rec.FileSequenceNumber,
			DataFile:        fromDataFileRecord(rec.DataFile),
		}
		if rec.SnapshotID != nil {
			entry.SnapshotID = *rec.SnapshotID
		}
		out = append(out, entry)
	}
	if err := dec.Error(); err != nil {
		return nil, pkgerrors.Wrap(codeAvroIO, pkgerrors.KindInternal, "read manifest stream", err)
	}
	return out, nil
}

// manifestFileRecord is the Avro wire shape of a ManifestFile (manifest-list
// entry).
type manifestFileRecord struct {
	ManifestPath       string                    `avro:"manifest_path"`
	ManifestLength     int64                     `avro:"manifest_length"`
	PartitionSpecID    int32                     `avro:"partition_spec_id"`
	Content            int32                     `avro:"content"`
	SequenceNumber     int64                     `avro:"sequence_number"`
	MinSequenceNumber  int64                     `avro:"min_sequence_number"`
	AddedSnapshotID    int64                     `avro:"added_snapshot_id"`
	AddedFilesCount    int32                     `avro:"added_files_count"`
	ExistingFilesCount int32                     `avro:"existing_files_count"`
	DeletedFilesCount  int32                     `avro:"deleted_files_count"`
	AddedRowsCount     int64                     `avro:"added_rows_count"`
	ExistingRowsCount  int64                     `avro:"existing_rows_count"`
	DeletedRowsCount   int64                     `avro:"deleted_rows_count"`
	Partitions         []partitionFieldSummaryRec `avro:"partitions"`
	KeyMetadata        []byte                     `avro:"key_metadata"`
}

type partitionFieldSummaryRec struct {
	ContainsNull bool   `avro:"contains_null"`
	ContainsNaN  *bool  `avro:"contains_nan"`
	LowerBound   []byte `avro:"lower_bound"`
	UpperBound   []byte `avro:"upper_bound"`
}

func toManifestFileRecord(m iceberg.ManifestFile) manifestFileRecord {
	r := manifestFileRecord{
		ManifestPath:       m.ManifestPath,
		ManifestLength:     m.ManifestLength,
		PartitionSpecID:    int32(m.PartitionSpecID),
		Content:            int32(m.Content),
		SequenceNumber:     m.SequenceNumber,
		MinSequenceNumber:  m.MinSequenceNumber,
		AddedSnapshotID:    m.AddedSnapshotID,
		AddedFilesCount:    m.AddedFilesCount,
		ExistingFilesCount: m.ExistingFilesCount,
		DeletedFilesCount:  m.DeletedFilesCount,
		AddedRowsCount:     m.AddedRowsCount,
		ExistingRowsCount:  m.ExistingRowsCount,
		DeletedRowsCount:   m.DeletedRowsCount,
		KeyMetadata:        m.KeyMetadata,
	}
	for _, p := range m.Partitions {
		r.Partitions = append(r.Partitions, partitionFieldSummaryRec{
			ContainsNull: p.ContainsNull,
			ContainsNaN:  p.ContainsNaN,
			LowerBound:   p.LowerBound,
			UpperBound:   p.UpperBound,
		})
	}
	return r
}

func fromManifestFileRecord(r manifestFileRecord) iceberg.ManifestFile {
	m := iceberg.ManifestFile{
		ManifestPath:       r.ManifestPath,
		ManifestLength:     r.ManifestLength,
		PartitionSpecID:    int(r.PartitionSpecID),
		Content:            iceberg.ManifestContent(r.Content),
		SequenceNumber:     r.SequenceNumber,
		MinSequenceNumber:  r.MinSequenceNumber,
		AddedSnapshotID:    r.AddedSnapshotID,
		AddedFilesCount:    r.AddedFilesCount,
		ExistingFilesCount: r.ExistingFilesCount,
		DeletedFilesCount:  r.DeletedFilesCount,
		AddedRowsCount:     r.AddedRowsCount,
		ExistingRowsCount:  r.ExistingRowsCount,
		DeletedRowsCount:   r.DeletedRowsCount,
		KeyMetadata:        r.KeyMetadata,
	}
	for _, p := range r.Partitions {
		m.Partitions = append(m.Partitions, iceberg.PartitionFieldSummary{
			ContainsNull: p.ContainsNull,
			ContainsNaN:  p.ContainsNaN,
			LowerBound:   p.LowerBound,
			UpperBound:   p.UpperBound,
		})
	}
	return m
}

// EncodeManifestList writes manifest-list entries as an Avro Object
// Container File.
func EncodeManifestList(w io.Writer, manifests []iceberg.ManifestFile) error {
	enc, err := ocf.NewEncoder(ManifestFileSchema.String(), w, ocf.WithCodec(ocf.Deflate))
	if err != nil {
		return pkgerrors.Wrap(codeAvroIO, pkgerrors.KindInternal, "create manifest-list encoder", err)
	}
	for _, m := range manifests {
		if err := enc.Encode(toManifestFileRecord(m)); err != nil {
			return pkgerrors.Wrap(codeAvroIO, pkgerrors.KindInternal, "encode manifest-list entry", err)
		}
	}
	return enc.Close()
}

// DecodeManifestList reads an Avro Object Container File of manifest-list
// entries.
func DecodeManifestList(r io.Reader) ([]iceberg.ManifestFile, error) {
	dec, err := ocf.NewDecoder(r)
	if err != nil {
		return nil, pkgerrors.Wrap(codeAvroIO, pkgerrors.KindInternal, "create manifest-list decoder", err)
	}
	var out []iceberg.ManifestFile
	for dec.HasNext() {
		var rec manifestFileRecord
		if err := dec.Decode(&rec); err != nil {
			return nil, pkgerrors.Wrap(codeAvroIO, pkgerrors.KindInternal, "decode manifest-list entry", err)
		}
		out = append(out, fromManifestFileRecord(rec))
	}
	if err := dec.Error(); err != nil {
		return nil, pkgerrors.Wrap(codeAvroIO, pkgerrors.KindInternal, "read manifest-list stream", err)
	}
	return out, nil
}
