package iceberg

import pkgerrors "github.com/dot-do/iceberg-sub003/pkg/errors"

// Error codes for the type/schema model and metadata invariants (§7).
var (
	CodeInvalidMetadata    = pkgerrors.MustNewCode("iceberg.invalid_metadata")
	CodeInvalidPromotion   = pkgerrors.MustNewCode("iceberg.invalid_type_promotion")
	CodeDuplicateColumn    = pkgerrors.MustNewCode("iceberg.duplicate_column_name")
	CodeMissingDefault     = pkgerrors.MustNewCode("iceberg.missing_default_for_required")
	CodeDanglingSnapshot   = pkgerrors.MustNewCode("iceberg.dangling_snapshot_id")
	CodeDanglingRef        = pkgerrors.MustNewCode("iceberg.dangling_ref")
	CodeIdentifierDropped  = pkgerrors.MustNewCode("iceberg.identifier_field_dropped")
	CodeFormatVersion      = pkgerrors.MustNewCode("iceberg.invalid_format_version")
)

func invalidMetadata(format string, args ...any) *pkgerrors.Error {
	return pkgerrors.Newf(CodeInvalidMetadata, pkgerrors.KindValidation, format, args...)
}

// Validate checks TableMetadata against the structural invariants of §3:
// current-snapshot-id resolves, refs resolve, current-schema-id/default
// spec/sort-order resolve, sequence numbers are non-decreasing.
func Validate(m *TableMetadata) error {
	if m.FormatVersion < FormatVersionMin || m.FormatVersion > FormatVersionMax {
		return pkgerrors.Newf(CodeFormatVersion, pkgerrors.KindValidation, "format-version %d out of range [%d,%d]", m.FormatVersion, FormatVersionMin, FormatVersionMax).
			WithEntity("table", m.TableUUID)
	}
	if _, ok := m.CurrentSchema(); !ok {
		return invalidMetadata("current-schema-id %d does not resolve to a known schema", m.CurrentSchemaID)
	}
	if !hasSpec(m.PartitionSpecs, m.DefaultSpecID) {
		return invalidMetadata("default-spec-id %d does not resolve to a known partition spec", m.DefaultSpecID)
	}
	if !hasSortOrder(m.SortOrders, m.DefaultSortOrderID) {
		return invalidMetadata("default-sort-order-id %d does not resolve to a known sort order", m.DefaultSortOrderID)
	}
	if m.CurrentSnapshotID != nil {
		if _, ok := m.SnapshotByID(*m.CurrentSnapshotID); !ok {
			return pkgerrors.Newf(CodeDanglingSnapshot, pkgerrors.KindValidation, "current-snapshot-id %d has no matching snapshot", *m.CurrentSnapshotID)
		}
	}
	for name, ref := range m.Refs {
		if _, ok := m.SnapshotByID(ref.SnapshotID); !ok {
			return pkgerrors.Newf(CodeDanglingRef, pkgerrors.KindValidation, "ref %q points to missing snapshot %d", name, ref.SnapshotID).
				AddContext("ref", name)
		}
	}
	last := int64(-1)
	for _, s := range m.Snapshots {
		if s.SequenceNumber < last {
			return invalidMetadata("snapshots are not ordered by non-decreasing sequence-number")
		}
		last = s.SequenceNumber
	}
	return nil
}

func hasSpec(specs []PartitionSpec, id int) bool {
	for _, s := range specs {
		if s.SpecID == id {
			return true
		}
	}
	return false
}

func hasSortOrder(orders []SortOrder, id int) bool {
	for _, o := range orders {
		if o.OrderID == id {
			return true
		}
	}
	return false
}
