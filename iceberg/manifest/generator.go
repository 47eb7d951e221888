// Package manifest implements the manifest and manifest-list writers
// (component 4): buffering data-file entries, aggregating statistics into
// partition-field summaries, and emitting Avro-framed manifest and
// manifest-list files via iceberg/codec.
package manifest

import (
	"io"

	"github.com/dot-do/iceberg-sub003/iceberg"
	"github.com/dot-do/iceberg-sub003/iceberg/codec"
	"github.com/dot-do/iceberg-sub003/iceberg/stats"
)

// Summary is the generator's report of one finalized manifest, matching the
// counters a ManifestFile (manifest-list entry) is built from.
type Summary struct {
	AddedFiles    int32
	ExistingFiles int32
	DeletedFiles  int32
	AddedRows     int64
	ExistingRows  int64
	DeletedRows   int64
	AddedSize     int64
	RemovedSize   int64
	Partitions    []iceberg.PartitionFieldSummary
}

// Generator buffers manifest entries for one manifest file and tracks the
// running counters needed to synthesize its Summary on Finalize.
type Generator struct {
	Spec           iceberg.PartitionSpec
	SnapshotID     int64
	SequenceNumber int64

	entries     []iceberg.ManifestEntry
	summary     Summary
	partitionAg map[int]*stats.Collector // partition field id -> collector
}

// NewGenerator returns a Generator for one manifest under spec, attributing
// new entries to snapshotID at sequenceNumber.
func NewGenerator(spec iceberg.PartitionSpec, snapshotID, sequenceNumber int64) *Generator {
	return &Generator{
		Spec:           spec,
		SnapshotID:     snapshotID,
		SequenceNumber: sequenceNumber,
		partitionAg:    map[int]*stats.Collector{},
	}
}

// partitionFieldType resolves the logical type of a partition field's
// output column: identity preserves the source type, the rest are int
// valued transforms except truncate (preserves source type) and void (no
// value ever observed).
func partitionFieldType(f iceberg.PartitionField, sourceType iceberg.Type) iceberg.Type {
	switch f.Transform.Kind {
	case iceberg.TransformIdentity, iceberg.TransformTruncate:
		return sourceType
	case iceberg.TransformYear, iceberg.TransformMonth, iceberg.TransformDay, iceberg.TransformHour, iceberg.TransformBucket:
		return iceberg.IntType
	default:
		return sourceType
	}
}

// Add appends one entry and folds its data file into the running counters
// and per-partition-field summary collectors.
func (g *Generator) Add(status iceberg.ManifestEntryStatus, df iceberg.DataFile, schema *iceberg.Schema) {
	seq := g.SequenceNumber
	entry := iceberg.ManifestEntry{
		Status:         status,
		SnapshotID:     g.SnapshotID,
		SequenceNumber: &seq,
		DataFile:       df,
	}
	g.entries = append(g.entries, entry)

	switch status {
	case iceberg.EntryAdded:
		g.summary.AddedFiles++
		g.summary.AddedRows += df.RecordCount
		g.summary.AddedSize += df.FileSizeInBytes
	case iceberg.EntryExisting:
		g.summary.ExistingFiles++
		g.summary.ExistingRows += df.RecordCount
	case iceberg.EntryDeleted:
		g.summary.DeletedFiles++
		g.summary.DeletedRows += df.RecordCount
		g.summary.RemovedSize += df.FileSizeInBytes
	}

	for _, pf := range g.Spec.Fields {
		sourceField, ok := schema.FieldByID(pf.SourceID)
		if !ok {
			continue
		}
		col, ok := g.partitionAg[pf.FieldID]
		if !ok {
			col = stats.NewCollector(partitionFieldType(pf, sourceField.Type))
			g.partitionAg[pf.FieldID] = col
		}
		col.Add(df.Partition[pf.FieldID])
	}
}

// Finalize writes the buffered entries as an Avro manifest file to w and
// returns the summary counters used to build the owning ManifestFile entry.
func (g *Generator) Finalize(w io.Writer) (Summary, error) {
	if err := codec.EncodeManifest(w, g.entries); err != nil {
		return Summary{}, err
	}

	summary := g.summary
	for _, pf := range g.Spec.Fields {
		col := g.partitionAg[pf.FieldID]
		if col == nil {
			summary.Partitions = append(summary.Partitions, iceberg.PartitionFieldSummary{})
			continue
		}
		fieldSummary := iceberg.PartitionFieldSummary{
			ContainsNull: col.NullCount > 0,
			LowerBound:   col.LowerBound(),
			UpperBound:   col.UpperBound(),
		}
		if iceberg.IsFloatingPoint(col.Type) {
			containsNaN := col.NaNCount > 0
			fieldSummary.ContainsNaN = &containsNaN
		}
		summary.Partitions = append(summary.Partitions, fieldSummary)
	}
	return summary, nil
}
