package manifest

import (
	"io"

	"github.com/dot-do/iceberg-sub003/iceberg/codec"

	"github.com/dot-do/iceberg-sub003/iceberg"
)

// ListEntryInput is the input to ListGenerator.Add: the physical location of
// a finalized manifest plus the counters Generator.Finalize reported for it.
type ListEntryInput struct {
	ManifestPath      string
	ManifestLength    int64
	PartitionSpecID   int
	SequenceNumber    int64
	MinSequenceNumber int64
	AddedSnapshotID   int64
	Content           iceberg.ManifestContent
	Summary           Summary
}

// ListGenerator buffers ManifestFile entries for one snapshot's manifest
// list.
type ListGenerator struct {
	manifests []iceberg.ManifestFile
}

// NewListGenerator returns an empty ListGenerator.
func NewListGenerator() *ListGenerator { return &ListGenerator{} }

// Add appends one manifest's summary as a manifest-list entry.
func (g *ListGenerator) Add(in ListEntryInput) {
	g.manifests = append(g.manifests, iceberg.ManifestFile{
		ManifestPath:       in.ManifestPath,
		ManifestLength:     in.ManifestLength,
		PartitionSpecID:    in.PartitionSpecID,
		Content:            in.Content,
		SequenceNumber:     in.SequenceNumber,
		MinSequenceNumber:  in.MinSequenceNumber,
		AddedSnapshotID:    in.AddedSnapshotID,
		AddedFilesCount:    in.Summary.AddedFiles,
		ExistingFilesCount: in.Summary.ExistingFiles,
		DeletedFilesCount:  in.Summary.DeletedFiles,
		AddedRowsCount:     in.Summary.AddedRows,
		ExistingRowsCount:  in.Summary.ExistingRows,
		DeletedRowsCount:   in.Summary.DeletedRows,
		Partitions:         in.Summary.Partitions,
	})
}

// Manifests returns the buffered entries in insertion order.
func (g *ListGenerator) Manifests() []iceberg.ManifestFile { return g.manifests }

// Finalize writes the buffered manifest entries as an Avro manifest-list
// file to w.
func (g *ListGenerator) Finalize(w io.Writer) error {
	return codec.EncodeManifestList(w, g.manifests)
}

// AggregateCounters sums AddedFiles/Rows/Size etc. across every manifest in
// the list, the inputs the snapshot synthesizer needs for its summary.
type AggregateCounters struct {
	AddedDataFiles   int64
	DeletedDataFiles int64
	AddedRecords     int64
	DeletedRecords   int64
	AddedFilesSize   int64
	RemovedFilesSize int64
}

// Aggregate sums the per-manifest Summary values collected while building
// this list.
func (g *ListGenerator) Aggregate(summaries []Summary) AggregateCounters {
	var out AggregateCounters
	for _, s := range summaries {
		out.AddedDataFiles += int64(s.AddedFiles)
		out.DeletedDataFiles += int64(s.DeletedFiles)
		out.AddedRecords += s.AddedRows
		out.DeletedRecords += s.DeletedRows
		out.AddedFilesSize += s.AddedSize
		out.RemovedFilesSize += s.RemovedSize
	}
	return out
}
