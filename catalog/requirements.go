package catalog

import (
	"github.com/dot-do/iceberg-sub003/iceberg"
	"github.com/dot-do/iceberg-sub003/iceberg/table"
	pkgerrors "github.com/dot-do/iceberg-sub003/pkg/errors"
)

var codeRequirementFailed = pkgerrors.MustNewCode("catalog.requirement_failed")

// RequirementKind names one of the assertions CommitTable can require hold
// against the catalog's current metadata before applying updates (spec
// §4.7). All requirements on a request must hold simultaneously.
type RequirementKind string

const (
	AssertCreate                  RequirementKind = "assert-create"
	AssertTableUUID                RequirementKind = "assert-table-uuid"
	AssertRefSnapshotID             RequirementKind = "assert-ref-snapshot-id"
	AssertLastAssignedFieldID       RequirementKind = "assert-last-assigned-field-id"
	AssertCurrentSchemaID           RequirementKind = "assert-current-schema-id"
	AssertLastAssignedPartitionID   RequirementKind = "assert-last-assigned-partition-id"
	AssertDefaultSpecID             RequirementKind = "assert-default-spec-id"
	AssertDefaultSortOrderID        RequirementKind = "assert-default-sort-order-id"
)

// Requirement is one commit precondition. Ref/UUID/IntValue/SnapshotID hold
// the requirement's operand depending on Kind; zero value fields are unused
// for kinds that don't need them.
type Requirement struct {
	Kind       RequirementKind
	UUID       string
	Ref        string
	SnapshotID *int64 // nil means "ref must not exist"
	IntValue   int
}

func failedRequirement(kind RequirementKind, format string, args ...any) error {
	return pkgerrors.Newf(codeRequirementFailed, pkgerrors.KindConflict, format, args...).
		AddContext("requirement", string(kind))
}

// Validate reports whether r holds against current. current is nil only
// for AssertCreate, which by definition requires the table not yet exist.
func (r Requirement) Validate(current *iceberg.TableMetadata) error {
	if r.Kind == AssertCreate {
		if current != nil {
			return failedRequirement(r.Kind, "table already exists")
		}
		return nil
	}
	if current == nil {
		return failedRequirement(r.Kind, "table does not exist")
	}
	switch r.Kind {
	case AssertTableUUID:
		if current.TableUUID != r.UUID {
			return failedRequirement(r.Kind, "table UUID %q does not match expected %q", current.TableUUID, r.UUID)
		}
	case AssertRefSnapshotID:
		ref, ok := current.Refs[r.Ref]
		if r.SnapshotID == nil {
			if ok {
				return failedRequirement(r.Kind, "ref %q exists but was expected absent", r.Ref)
			}
			return nil
		}
		if !ok {
			return failedRequirement(r.Kind, "ref %q does not exist", r.Ref)
		}
		if ref.SnapshotID != *r.SnapshotID {
			return failedRequirement(r.Kind, "ref %q points to snapshot %d, expected %d", r.Ref, ref.SnapshotID, *r.SnapshotID)
		}
	case AssertLastAssignedFieldID:
		if current.LastColumnID != r.IntValue {
			return failedRequirement(r.Kind, "last-column-id is %d, expected %d", current.LastColumnID, r.IntValue)
		}
	case AssertCurrentSchemaID:
		if current.CurrentSchemaID != r.IntValue {
			return failedRequirement(r.Kind, "current-schema-id is %d, expected %d", current.CurrentSchemaID, r.IntValue)
		}
	case AssertLastAssignedPartitionID:
		if current.LastPartitionID != r.IntValue {
			return failedRequirement(r.Kind, "last-partition-id is %d, expected %d", current.LastPartitionID, r.IntValue)
		}
	case AssertDefaultSpecID:
		if current.DefaultSpecID != r.IntValue {
			return failedRequirement(r.Kind, "default-spec-id is %d, expected %d", current.DefaultSpecID, r.IntValue)
		}
	case AssertDefaultSortOrderID:
		if current.DefaultSortOrderID != r.IntValue {
			return failedRequirement(r.Kind, "default-sort-order-id is %d, expected %d", current.DefaultSortOrderID, r.IntValue)
		}
	default:
		return failedRequirement(r.Kind, "unknown requirement kind %q", r.Kind)
	}
	return nil
}

// UpdateKind names one metadata mutation CommitTable applies, in order, to
// a working copy of the table's metadata.
type UpdateKind string

const (
	UpdateAssignUUID          UpdateKind = "assign-uuid"
	UpdateUpgradeFormatVersion UpdateKind = "upgrade-format-version"
	UpdateAddSchema            UpdateKind = "add-schema"
	UpdateSetCurrentSchema     UpdateKind = "set-current-schema"
	UpdateAddPartitionSpec     UpdateKind = "add-partition-spec"
	UpdateSetDefaultSpec       UpdateKind = "set-default-spec"
	UpdateAddSortOrder         UpdateKind = "add-sort-order"
	UpdateSetDefaultSortOrder  UpdateKind = "set-default-sort-order"
	UpdateAddSnapshot          UpdateKind = "add-snapshot"
	UpdateRemoveSnapshots      UpdateKind = "remove-snapshots"
	UpdateSetSnapshotRef       UpdateKind = "set-snapshot-ref"
	UpdateRemoveSnapshotRef    UpdateKind = "remove-snapshot-ref"
	UpdateSetProperties        UpdateKind = "set-properties"
	UpdateRemoveProperties     UpdateKind = "remove-properties"
	UpdateSetLocation          UpdateKind = "set-location"
)

// Update is one commit mutation. Only the fields relevant to Kind are read.
type Update struct {
	Kind UpdateKind

	UUID          string
	FormatVersion int
	Schema        *iceberg.Schema
	SchemaID      int
	Spec          *iceberg.PartitionSpec
	SpecID        int
	SortOrder     *iceberg.SortOrder
	SortOrderID   int
	Snapshot      iceberg.Snapshot
	SnapshotIDs   []int64
	RefName       string
	Ref           iceberg.SnapshotRef
	Properties    iceberg.Properties
	RemoveKeys    []string
	Location      string
}

// Apply runs u against current, returning the resulting metadata. Callers
// fold a CommitTableRequest's Updates slice across successive calls,
// threading the result of each Apply into the next: updates are applied in
// order to a working copy of metadata.
func (u Update) Apply(current *iceberg.TableMetadata) (*iceberg.TableMetadata, error) {
	switch u.Kind {
	case UpdateAssignUUID:
		next := shallowCopy(current)
		next.TableUUID = u.UUID
		return next, nil
	case UpdateUpgradeFormatVersion:
		return table.UpgradeFormatVersion(current, u.FormatVersion)
	case UpdateAddSchema:
		if u.Schema == nil {
			return nil, pkgerrors.New(codeRequirementFailed, pkgerrors.KindValidation, "add-schema requires a schema")
		}
		return table.AddSchema(current, u.Schema), nil
	case UpdateSetCurrentSchema:
		return table.SetCurrentSchema(current, u.SchemaID), nil
	case UpdateAddPartitionSpec:
		if u.Spec == nil {
			return nil, pkgerrors.New(codeRequirementFailed, pkgerrors.KindValidation, "add-partition-spec requires a spec")
		}
		next := shallowCopy(current)
		next.PartitionSpecs = append(append([]iceberg.PartitionSpec{}, current.PartitionSpecs...), *u.Spec)
		if lp := u.Spec.LastPartitionID(); lp > next.LastPartitionID {
			next.LastPartitionID = lp
		}
		return next, nil
	case UpdateSetDefaultSpec:
		next := shallowCopy(current)
		next.DefaultSpecID = u.SpecID
		return next, nil
	case UpdateAddSortOrder:
		if u.SortOrder == nil {
			return nil, pkgerrors.New(codeRequirementFailed, pkgerrors.KindValidation, "add-sort-order requires a sort order")
		}
		next := shallowCopy(current)
		next.SortOrders = append(append([]iceberg.SortOrder{}, current.SortOrders...), *u.SortOrder)
		return next, nil
	case UpdateSetDefaultSortOrder:
		next := shallowCopy(current)
		next.DefaultSortOrderID = u.SortOrderID
		return next, nil
	case UpdateAddSnapshot:
		return table.AppendSnapshot(current, u.Snapshot), nil
	case UpdateRemoveSnapshots:
		return removeSnapshots(current, u.SnapshotIDs), nil
	case UpdateSetSnapshotRef:
		next := shallowCopy(current)
		refs := make(map[string]iceberg.SnapshotRef, len(current.Refs)+1)
		for k, v := range current.Refs {
			refs[k] = v
		}
		refs[u.RefName] = u.Ref
		next.Refs = refs
		if u.RefName == "main" {
			id := u.Ref.SnapshotID
			next.CurrentSnapshotID = &id
		}
		return next, nil
	case UpdateRemoveSnapshotRef:
		next := shallowCopy(current)
		refs := make(map[string]iceberg.SnapshotRef, len(current.Refs))
		for k, v := range current.Refs {
			if k != u.RefName {
				refs[k] = v
			}
		}
		next.Refs = refs
		if u.RefName == "main" {
			next.CurrentSnapshotID = nil
		}
		return next, nil
	case UpdateSetProperties:
		next := shallowCopy(current)
		props := make(iceberg.Properties, len(current.Properties)+len(u.Properties))
		for k, v := range current.Properties {
			props[k] = v
		}
		for k, v := range u.Properties {
			props[k] = v
		}
		next.Properties = props
		return next, nil
	case UpdateRemoveProperties:
		next := shallowCopy(current)
		props := make(iceberg.Properties, len(current.Properties))
		for k, v := range current.Properties {
			props[k] = v
		}
		for _, k := range u.RemoveKeys {
			delete(props, k)
		}
		next.Properties = props
		return next, nil
	case UpdateSetLocation:
		next := shallowCopy(current)
		next.Location = u.Location
		return next, nil
	default:
		return nil, pkgerrors.Newf(codeRequirementFailed, pkgerrors.KindValidation, "unknown update kind %q", u.Kind)
	}
}

func removeSnapshots(current *iceberg.TableMetadata, ids []int64) *iceberg.TableMetadata {
	drop := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	next := shallowCopy(current)
	kept := make([]iceberg.Snapshot, 0, len(current.Snapshots))
	for _, s := range current.Snapshots {
		if _, gone := drop[s.SnapshotID]; !gone {
			kept = append(kept, s)
		}
	}
	next.Snapshots = kept
	return next
}

// shallowCopy duplicates current's slice/map-bearing fields so updates
// never mutate the caller's metadata in place (persistent-builder design,
// DESIGN NOTES).
func shallowCopy(current *iceberg.TableMetadata) *iceberg.TableMetadata {
	cp := *current
	cp.Schemas = append([]*iceberg.Schema{}, current.Schemas...)
	cp.PartitionSpecs = append([]iceberg.PartitionSpec{}, current.PartitionSpecs...)
	cp.SortOrders = append([]iceberg.SortOrder{}, current.SortOrders...)
	cp.Snapshots = append([]iceberg.Snapshot{}, current.Snapshots...)
	cp.SnapshotLog = append([]iceberg.SnapshotLogEntry{}, current.SnapshotLog...)
	cp.MetadataLog = append([]iceberg.MetadataLogEntry{}, current.MetadataLog...)
	refs := make(map[string]iceberg.SnapshotRef, len(current.Refs))
	for k, v := range current.Refs {
		refs[k] = v
	}
	cp.Refs = refs
	props := make(iceberg.Properties, len(current.Properties))
	for k, v := range current.Properties {
		props[k] = v
	}
	cp.Properties = props
	return &cp
}

// ApplyUpdates folds updates across base in order, per CommitTable's
// contract.
func ApplyUpdates(base *iceberg.TableMetadata, updates []Update) (*iceberg.TableMetadata, error) {
	current := base
	for _, u := range updates {
		next, err := u.Apply(current)
		if err != nil {
			return nil, err
		}
		current = next
	}
	return current, nil
}

// ValidateRequirements checks that every requirement holds against current.
func ValidateRequirements(current *iceberg.TableMetadata, reqs []Requirement) error {
	for _, r := range reqs {
		if err := r.Validate(current); err != nil {
			return err
		}
	}
	return nil
}
