// Package commit implements snapshot synthesis and the atomic commit
// protocol (component 6): building a Snapshot from aggregated manifest
// counters, and writing a new TableMetadata version under optimistic
// concurrency control with retry and metadata-log retention.
package commit

import (
	"math/rand"
	"strconv"

	"github.com/dot-do/iceberg-sub003/iceberg"
	pkgerrors "github.com/dot-do/iceberg-sub003/pkg/errors"
)

var codeSynthesis = pkgerrors.MustNewCode("commit.snapshot_synthesis")

// Deltas aggregates one commit's manifest-layer counters, consumed from the
// manifest list generator's summary. Every field here is an incremental
// delta, not a running total; Synthesize computes rolling totals from the
// parent snapshot's summary.
type Deltas struct {
	AddedDataFiles   int64
	DeletedDataFiles int64
	AddedRecords     int64
	DeletedRecords   int64
	AddedFilesSize   int64
	RemovedFilesSize int64
}

// Summary keys shared with the parent snapshot's rolling totals.
const (
	summaryOperation        = "operation"
	summaryAddedDataFiles   = "added-data-files"
	summaryDeletedDataFiles = "deleted-data-files"
	summaryAddedRecords     = "added-records"
	summaryDeletedRecords   = "deleted-records"
	summaryAddedFilesSize   = "added-files-size"
	summaryRemovedFilesSize = "removed-files-size"
	summaryTotalRecords     = "total-records"
	summaryTotalFilesSize   = "total-files-size"
	summaryTotalDataFiles   = "total-data-files"
)

// Options parameterizes Synthesize beyond the required manifest-list
// path and deltas.
type Options struct {
	SchemaID  *int
	KeyID     *int
	ExtraSummary map[string]string
}

// Synthesize builds the next Snapshot for parent: a fresh
// sequence-number (last-sequence-number + 1), a random positive 63-bit
// snapshot-id distinct from every existing snapshot, the current wall
// timestamp, and a summary carrying both this commit's incremental deltas
// and rolling totals derived from the parent snapshot's totals plus delta.
func Synthesize(parent *iceberg.TableMetadata, manifestListPath string, operation iceberg.SnapshotOperation, deltas Deltas, opts Options) (iceberg.Snapshot, error) {
	if manifestListPath == "" {
		return iceberg.Snapshot{}, pkgerrors.New(codeSynthesis, pkgerrors.KindValidation, "manifest list path must not be empty")
	}

	seq := parent.LastSequenceNumber + 1

	var parentID *int64
	var parentSummary map[string]string
	if cur, ok := parent.CurrentSnapshot(); ok {
		id := cur.SnapshotID
		parentID = &id
		parentSummary = cur.Summary
	}

	id := freshSnapshotID(parent)

	schemaID := parent.CurrentSchemaID
	if opts.SchemaID != nil {
		schemaID = *opts.SchemaID
	}

	summary := map[string]string{
		summaryOperation:        string(operation),
		summaryAddedDataFiles:   strconv.FormatInt(deltas.AddedDataFiles, 10),
		summaryDeletedDataFiles: strconv.FormatInt(deltas.DeletedDataFiles, 10),
		summaryAddedRecords:     strconv.FormatInt(deltas.AddedRecords, 10),
		summaryDeletedRecords:   strconv.FormatInt(deltas.DeletedRecords, 10),
		summaryAddedFilesSize:   strconv.FormatInt(deltas.AddedFilesSize, 10),
		summaryRemovedFilesSize: strconv.FormatInt(deltas.RemovedFilesSize, 10),
		summaryTotalRecords:     strconv.FormatInt(rollingTotal(parentSummary, summaryTotalRecords)+deltas.AddedRecords-deltas.DeletedRecords, 10),
		summaryTotalFilesSize:   strconv.FormatInt(rollingTotal(parentSummary, summaryTotalFilesSize)+deltas.AddedFilesSize-deltas.RemovedFilesSize, 10),
		summaryTotalDataFiles:   strconv.FormatInt(rollingTotal(parentSummary, summaryTotalDataFiles)+deltas.AddedDataFiles-deltas.DeletedDataFiles, 10),
	}
	for k, v := range opts.ExtraSummary {
		summary[k] = v
	}

	snap := iceberg.Snapshot{
		SnapshotID:       id,
		ParentSnapshotID: parentID,
		SequenceNumber:   seq,
		TimestampMs:      iceberg.NowMs(),
		ManifestList:     manifestListPath,
		Summary:          summary,
		SchemaID:         &schemaID,
		KeyID:            opts.KeyID,
	}

	if parent.FormatVersion >= 3 {
		firstRowID := parent.NextRowID
		snap.FirstRowID = &firstRowID
		addedRows := deltas.AddedRecords
		snap.AddedRows = &addedRows
	}

	return snap, nil
}

// rollingTotal reads a parent summary total, defaulting to 0 for the first
// snapshot of a table (no parent summary) or a missing/unparseable key.
func rollingTotal(summary map[string]string, key string) int64 {
	if summary == nil {
		return 0
	}
	v, ok := summary[key]
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// freshSnapshotID draws a random positive 63-bit id distinct from every
// snapshot already recorded on parent, matching the "monotonic clock-based
// or random 63-bit positive" allowance for snapshot ids.
func freshSnapshotID(parent *iceberg.TableMetadata) int64 {
	existing := make(map[int64]struct{}, len(parent.Snapshots))
	for _, s := range parent.Snapshots {
		existing[s.SnapshotID] = struct{}{}
	}
	for {
		id := rand.Int63()
		if id == 0 {
			continue
		}
		if _, collide := existing[id]; !collide {
			return id
		}
	}
}
