package iceberg

import "time"

// Constants bit-exact across engines.
const (
	MetadataDir         = "metadata"
	VersionHintFilename = "version-hint.text"
	MsPerDay            = 86_400_000

	// Reserved field ids for position-delete synthetic columns.
	PositionDeleteFilePathFieldID = 2147483546
	PositionDeletePosFieldID      = 2147483545

	DefaultRetainVersions = 10
	DefaultMaxAgeMs       = 7 * 24 * 60 * 60 * 1000 // 604_800_000

	FormatVersionMin = 2
	FormatVersionMax = 3
)

// FileFormat is the physical encoding of a data file.
type FileFormat string

const (
	FileFormatParquet FileFormat = "parquet"
	FileFormatORC      FileFormat = "orc"
	FileFormatAvro     FileFormat = "avro"
)

// FileContent discriminates data files from the two delete-file kinds.
type FileContent int

const (
	ContentData FileContent = iota
	ContentPositionDeletes
	ContentEqualityDeletes
)

// ManifestEntryStatus is the lifecycle state of a manifest entry.
type ManifestEntryStatus int

const (
	EntryExisting ManifestEntryStatus = iota
	EntryAdded
	EntryDeleted
)

// ManifestContent discriminates a manifest file listing data files from one
// listing delete files.
type ManifestContent int

const (
	ManifestContentData ManifestContent = iota
	ManifestContentDeletes
)

// Properties is a flat string-keyed property bag attached to namespaces,
// tables, and views.
type Properties map[string]string

// DataFile describes one physical file (data, position-delete, or
// equality-delete) referenced by a manifest entry.
type DataFile struct {
	Content          FileContent
	FilePath         string
	FileFormat       FileFormat
	Partition        map[int]any // partition field id -> value
	RecordCount      int64
	FileSizeInBytes  int64
	ColumnSizes      map[int]int64
	ValueCounts      map[int]int64
	NullValueCounts  map[int]int64
	NaNValueCounts   map[int]int64
	LowerBounds      map[int][]byte
	UpperBounds      map[int][]byte
	SplitOffsets     []int64
	EqualityIDs      []int
	SortOrderID      *int
	KeyMetadata      []byte

	// v3 deletion vector fields; mutually exclusive with EqualityIDs.
	ContentOffset       *int64
	ContentSizeInBytes  *int64
}

// IsDeleteFile reports whether f carries delete rows rather than data rows.
func (f DataFile) IsDeleteFile() bool { return f.Content != ContentData }

// IsPositionDeleteFile reports whether f is a position-delete file.
func (f DataFile) IsPositionDeleteFile() bool { return f.Content == ContentPositionDeletes }

// IsDeletionVector reports whether f is a v3 deletion-vector reference.
func (f DataFile) IsDeletionVector() bool {
	return f.ContentOffset != nil && f.ContentSizeInBytes != nil
}

// ManifestEntry wraps a DataFile with the bookkeeping fields that vary per
// inclusion in a manifest (status, the snapshot that added it, sequence
// numbers).
type ManifestEntry struct {
	Status           ManifestEntryStatus
	SnapshotID       int64
	SequenceNumber   *int64
	FileSequenceNum  *int64
	DataFile         DataFile
}

// PartitionFieldSummary is one partition-field's aggregate over a manifest's
// files (the per-manifest-list entry described in §3).
type PartitionFieldSummary struct {
	ContainsNull bool
	ContainsNaN  *bool
	LowerBound   []byte
	UpperBound   []byte
}

// ManifestFile is a manifest-list entry: the summary of one manifest's
// contribution to a snapshot.
type ManifestFile struct {
	ManifestPath       string
	ManifestLength     int64
	PartitionSpecID    int
	Content            ManifestContent
	SequenceNumber     int64
	MinSequenceNumber  int64
	AddedSnapshotID    int64
	AddedFilesCount    int32
	ExistingFilesCount int32
	DeletedFilesCount  int32
	AddedRowsCount     int64
	ExistingRowsCount  int64
	DeletedRowsCount   int64
	Partitions         []PartitionFieldSummary
	KeyMetadata        []byte
}

// SnapshotOperation is the high-level kind of change a snapshot represents.
type SnapshotOperation string

const (
	OperationAppend   SnapshotOperation = "append"
	OperationReplace  SnapshotOperation = "replace"
	OperationOverwrite SnapshotOperation = "overwrite"
	OperationDelete   SnapshotOperation = "delete"
)

// Snapshot is one immutable table state.
type Snapshot struct {
	SnapshotID       int64
	ParentSnapshotID *int64
	SequenceNumber   int64
	TimestampMs      int64
	ManifestList     string
	Summary          map[string]string
	SchemaID         *int
	KeyID            *int
	FirstRowID       *int64 // v3
	AddedRows        *int64 // v3
}

// Operation reads the summary's "operation" key.
func (s Snapshot) Operation() SnapshotOperation {
	return SnapshotOperation(s.Summary["operation"])
}

// RefType discriminates a branch from a tag.
type RefType string

const (
	RefBranch RefType = "branch"
	RefTag    RefType = "tag"
)

// SnapshotRef is a named pointer to a snapshot id.
type SnapshotRef struct {
	SnapshotID         int64
	Type               RefType
	MaxRefAgeMs        *int64
	MaxSnapshotAgeMs   *int64
	MinSnapshotsToKeep *int
}

// SnapshotLogEntry records one historical "current snapshot" transition.
type SnapshotLogEntry struct {
	TimestampMs int64
	SnapshotID  int64
}

// MetadataLogEntry records one historical metadata file.
type MetadataLogEntry struct {
	TimestampMs  int64
	MetadataFile string
}

// TableMetadata is the root object persisted as v{N}.metadata.json.
type TableMetadata struct {
	FormatVersion        int
	TableUUID            string
	Location             string
	LastSequenceNumber   int64
	LastUpdatedMs        int64
	LastColumnID         int
	CurrentSchemaID      int
	Schemas              []*Schema
	DefaultSpecID        int
	PartitionSpecs       []PartitionSpec
	LastPartitionID      int
	DefaultSortOrderID   int
	SortOrders           []SortOrder
	Properties           Properties
	CurrentSnapshotID    *int64
	Snapshots            []Snapshot
	SnapshotLog          []SnapshotLogEntry
	MetadataLog          []MetadataLogEntry
	Refs                 map[string]SnapshotRef

	// v3
	NextRowID      int64
	EncryptionKeys map[string]string
}

// CurrentSchema returns the schema named by CurrentSchemaID.
func (m *TableMetadata) CurrentSchema() (*Schema, bool) {
	for _, s := range m.Schemas {
		if s.SchemaID == m.CurrentSchemaID {
			return s, true
		}
	}
	return nil, false
}

// CurrentSnapshot returns the snapshot named by CurrentSnapshotID, if any.
func (m *TableMetadata) CurrentSnapshot() (*Snapshot, bool) {
	if m.CurrentSnapshotID == nil {
		return nil, false
	}
	for i := range m.Snapshots {
		if m.Snapshots[i].SnapshotID == *m.CurrentSnapshotID {
			return &m.Snapshots[i], true
		}
	}
	return nil, false
}

// SnapshotByID looks up a snapshot by id.
func (m *TableMetadata) SnapshotByID(id int64) (*Snapshot, bool) {
	for i := range m.Snapshots {
		if m.Snapshots[i].SnapshotID == id {
			return &m.Snapshots[i], true
		}
	}
	return nil, false
}

// NowMs returns the current time in epoch milliseconds, the unit used
// throughout table metadata timestamps.
func NowMs() int64 { return time.Now().UnixMilli() }

// ViewRepresentation is one SQL-dialect rendering of a view version.
type ViewRepresentation struct {
	Type    string // "sql"
	SQL     string
	Dialect string
}

// ViewVersion is one historical definition of a view.
type ViewVersion struct {
	VersionID          int
	SchemaID           int
	TimestampMs        int64
	Summary            map[string]string
	Representations    []ViewRepresentation
	DefaultCatalog     string
	DefaultNamespace   []string
}

// ViewVersionLogEntry records one historical "current version" transition.
type ViewVersionLogEntry struct {
	TimestampMs int64
	VersionID   int
}

// ViewMetadata is the root object persisted for a view.
type ViewMetadata struct {
	ViewUUID         string
	FormatVersion    int // always 1
	Location         string
	CurrentVersionID int
	Versions         []ViewVersion
	VersionLog       []ViewVersionLogEntry
	Schemas          []*Schema
	Properties       Properties
}

// CurrentVersion returns the view version named by CurrentVersionID.
func (v *ViewMetadata) CurrentVersion() (*ViewVersion, bool) {
	for i := range v.Versions {
		if v.Versions[i].VersionID == v.CurrentVersionID {
			return &v.Versions[i], true
		}
	}
	return nil, false
}
