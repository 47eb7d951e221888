// Package table implements table metadata construction, schema evolution,
// and compatibility checking (component 5): the TableBuilder fluent
// constructor, schema mutation operations that preserve field ids across
// renames, and the v2/v3 metadata upgrade path.
package table

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/dot-do/iceberg-sub003/iceberg"
	pkgerrors "github.com/dot-do/iceberg-sub003/pkg/errors"
)

var (
	codeInvalidBuild   = pkgerrors.MustNewCode("table.invalid_build")
	codeInvalidUpgrade = pkgerrors.MustNewCode("table.invalid_upgrade")
)

// Identifier names a table within a catalog's namespace hierarchy.
type Identifier = []string

// Builder assembles a fresh TableMetadata via fluent configuration, mirroring
// the create-table path's minimum required inputs (schema, location) plus
// optional partition spec, sort order, and properties.
type Builder struct {
	ident         Identifier
	schema        *iceberg.Schema
	spec          iceberg.PartitionSpec
	sortOrder     iceberg.SortOrder
	location      string
	properties    iceberg.Properties
	formatVersion int
}

// NewBuilder starts a Builder for a table at location with the given schema.
// The default format version is 2.
func NewBuilder(ident Identifier, schema *iceberg.Schema, location string) *Builder {
	return &Builder{
		ident:         ident,
		schema:        schema,
		location:      location,
		properties:    iceberg.Properties{},
		formatVersion: 2,
	}
}

// WithPartitionSpec sets the table's partition spec.
func (b *Builder) WithPartitionSpec(spec iceberg.PartitionSpec) *Builder {
	b.spec = spec
	return b
}

// WithSortOrder sets the table's sort order.
func (b *Builder) WithSortOrder(order iceberg.SortOrder) *Builder {
	b.sortOrder = order
	return b
}

// WithProperties sets the table's properties.
func (b *Builder) WithProperties(props iceberg.Properties) *Builder {
	b.properties = props
	return b
}

// WithFormatVersion overrides the default format version (2).
func (b *Builder) WithFormatVersion(v int) *Builder {
	b.formatVersion = v
	return b
}

// Build constructs a fresh TableMetadata: a new random table UUID, the
// current schema id taken from the schema, spec id/sort-order id taken from
// the configured values (defaulting to
// the unpartitioned/unsorted id 0), no snapshots, and last-column-id seeded
// from the schema's highest field id.
func (b *Builder) Build() (*iceberg.TableMetadata, error) {
	if b.schema == nil {
		return nil, pkgerrors.New(codeInvalidBuild, pkgerrors.KindValidation, "schema is required")
	}
	if b.location == "" {
		return nil, pkgerrors.New(codeInvalidBuild, pkgerrors.KindValidation, "location is required")
	}
	if b.formatVersion < iceberg.FormatVersionMin || b.formatVersion > iceberg.FormatVersionMax {
		return nil, pkgerrors.Newf(codeInvalidUpgrade, pkgerrors.KindValidation, "unsupported format version %d", b.formatVersion)
	}

	specs := []iceberg.PartitionSpec{b.spec}
	orders := []iceberg.SortOrder{b.sortOrder}

	meta := &iceberg.TableMetadata{
		FormatVersion:      b.formatVersion,
		TableUUID:          uuid.NewString(),
		Location:           b.location,
		LastSequenceNumber: 0,
		LastUpdatedMs:      iceberg.NowMs(),
		LastColumnID:       b.schema.HighestFieldID(),
		CurrentSchemaID:    b.schema.SchemaID,
		Schemas:            []*iceberg.Schema{b.schema},
		DefaultSpecID:      b.spec.SpecID,
		PartitionSpecs:     specs,
		LastPartitionID:    b.spec.LastPartitionID(),
		DefaultSortOrderID: b.sortOrder.OrderID,
		SortOrders:         orders,
		Properties:         b.properties,
		Refs:               map[string]iceberg.SnapshotRef{},
	}
	if b.formatVersion >= 3 {
		meta.EncryptionKeys = map[string]string{}
	}
	return meta, nil
}

// AppendSnapshot returns a new TableMetadata with snap appended to
// Snapshots, SnapshotLog, and the "main" branch ref in one step: snapshots,
// snapshot-log, current-snapshot-id, and the main ref move together so no
// observer ever sees a partially-applied append. last-sequence-number is
// raised to max(old, snap.SequenceNumber); last-updated-ms to
// snap.TimestampMs; for format-version 3, next-row-id advances by
// snap.AddedRows.
func AppendSnapshot(base *iceberg.TableMetadata, snap iceberg.Snapshot) *iceberg.TableMetadata {
	next := cloneMetadata(base)

	next.Snapshots = append(append([]iceberg.Snapshot{}, base.Snapshots...), snap)
	next.SnapshotLog = append(append([]iceberg.SnapshotLogEntry{}, base.SnapshotLog...), iceberg.SnapshotLogEntry{
		TimestampMs: snap.TimestampMs,
		SnapshotID:  snap.SnapshotID,
	})
	next.CurrentSnapshotID = &snap.SnapshotID

	refs := make(map[string]iceberg.SnapshotRef, len(base.Refs)+1)
	for k, v := range base.Refs {
		refs[k] = v
	}
	refs["main"] = iceberg.SnapshotRef{SnapshotID: snap.SnapshotID, Type: iceberg.RefBranch}
	next.Refs = refs

	if snap.SequenceNumber > next.LastSequenceNumber {
		next.LastSequenceNumber = snap.SequenceNumber
	}
	next.LastUpdatedMs = snap.TimestampMs

	if next.FormatVersion >= 3 && snap.AddedRows != nil {
		next.NextRowID += *snap.AddedRows
	}
	return next
}

// AddSchema returns a new TableMetadata with schema appended to Schemas and
// last-column-id raised to the schema's highest field id if greater.
func AddSchema(base *iceberg.TableMetadata, schema *iceberg.Schema) *iceberg.TableMetadata {
	next := cloneMetadata(base)
	next.Schemas = append(append([]*iceberg.Schema{}, base.Schemas...), schema)
	if h := schema.HighestFieldID(); h > next.LastColumnID {
		next.LastColumnID = h
	}
	return next
}

// SetCurrentSchema returns a new TableMetadata with CurrentSchemaID set to
// schemaID.
func SetCurrentSchema(base *iceberg.TableMetadata, schemaID int) *iceberg.TableMetadata {
	next := cloneMetadata(base)
	next.CurrentSchemaID = schemaID
	return next
}

// UpgradeFormatVersion advances a v2 table to v3, initializing next-row-id
// to 0 and refreshing last-updated-ms. Pre-existing
// snapshots are left untouched (no retroactive first-row-id/added-rows).
// Upgrading a v3 table, or "upgrading" to v2, is rejected: format-version
// changes are one-way.
func UpgradeFormatVersion(base *iceberg.TableMetadata, targetVersion int) (*iceberg.TableMetadata, error) {
	if targetVersion <= base.FormatVersion {
		return nil, pkgerrors.Newf(codeInvalidUpgrade, pkgerrors.KindValidation,
			"cannot upgrade format-version %d to %d: format-version upgrades are one-way", base.FormatVersion, targetVersion)
	}
	if targetVersion > iceberg.FormatVersionMax {
		return nil, pkgerrors.Newf(codeInvalidUpgrade, pkgerrors.KindValidation, "unsupported format version %d", targetVersion)
	}
	next := cloneMetadata(base)
	next.FormatVersion = targetVersion
	next.LastUpdatedMs = iceberg.NowMs()
	if targetVersion >= 3 {
		next.NextRowID = 0
		if next.EncryptionKeys == nil {
			next.EncryptionKeys = map[string]string{}
		}
	}
	return next, nil
}

// cloneMetadata returns a shallow copy of base with slice/map fields
// re-sliced so callers mutate the copy, never the original (the persistent-
// builder design in DESIGN NOTES: each operation produces a new
// TableMetadata rather than mutating one in place).
func cloneMetadata(base *iceberg.TableMetadata) *iceberg.TableMetadata {
	cp := *base
	cp.Schemas = append([]*iceberg.Schema{}, base.Schemas...)
	cp.PartitionSpecs = append([]iceberg.PartitionSpec{}, base.PartitionSpecs...)
	cp.SortOrders = append([]iceberg.SortOrder{}, base.SortOrders...)
	cp.Snapshots = append([]iceberg.Snapshot{}, base.Snapshots...)
	cp.SnapshotLog = append([]iceberg.SnapshotLogEntry{}, base.SnapshotLog...)
	cp.MetadataLog = append([]iceberg.MetadataLogEntry{}, base.MetadataLog...)
	refs := make(map[string]iceberg.SnapshotRef, len(base.Refs))
	for k, v := range base.Refs {
		refs[k] = v
	}
	cp.Refs = refs
	props := make(iceberg.Properties, len(base.Properties))
	for k, v := range base.Properties {
		props[k] = v
	}
	cp.Properties = props
	return &cp
}

// GenerateMetadataFileName returns the canonical "<V>-<uuid>.metadata.json"
// name for metadata version newVersion, where V is newVersion as a 5-digit
// zero-padded non-negative integer.
func GenerateMetadataFileName(newVersion int) (string, error) {
	if newVersion < 0 {
		return "", pkgerrors.Newf(codeInvalidBuild, pkgerrors.KindValidation, "invalid table version: %d must be non-negative", newVersion)
	}
	return fmt.Sprintf("%05d-%s.metadata.json", newVersion, uuid.NewString()), nil
}
