package restapi

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/dot-do/iceberg-sub003/catalog"
	"github.com/dot-do/iceberg-sub003/iceberg"
	"github.com/dot-do/iceberg-sub003/iceberg/codec"
)

// decodeCommitTableRequest parses a REST CommitTable body. requirements and
// updates are polymorphic JSON objects tagged by a "type"/"action"
// discriminator field; gjson scans that field first so each element is
// routed to the right decoder without a monolithic struct covering every
// requirement/update kind's fields at once.
func decodeCommitTableRequest(body []byte) (catalog.CommitTableRequest, error) {
	var req catalog.CommitTableRequest

	result := gjson.ParseBytes(body)
	for _, r := range result.Get("requirements").Array() {
		req.Requirements = append(req.Requirements, decodeRequirement(r))
	}
	for _, u := range result.Get("updates").Array() {
		upd, err := decodeUpdate(u)
		if err != nil {
			return catalog.CommitTableRequest{}, err
		}
		req.Updates = append(req.Updates, upd)
	}
	return req, nil
}

func decodeRequirement(r gjson.Result) catalog.Requirement {
	kind := catalog.RequirementKind(r.Get("type").String())
	req := catalog.Requirement{Kind: kind}
	switch kind {
	case catalog.AssertTableUUID:
		req.UUID = r.Get("uuid").String()
	case catalog.AssertRefSnapshotID:
		req.Ref = r.Get("ref").String()
		if sid := r.Get("snapshot-id"); sid.Exists() && sid.Type != gjson.Null {
			v := sid.Int()
			req.SnapshotID = &v
		}
	case catalog.AssertLastAssignedFieldID:
		req.IntValue = int(r.Get("last-assigned-field-id").Int())
	case catalog.AssertCurrentSchemaID:
		req.IntValue = int(r.Get("current-schema-id").Int())
	case catalog.AssertLastAssignedPartitionID:
		req.IntValue = int(r.Get("last-assigned-partition-id").Int())
	case catalog.AssertDefaultSpecID:
		req.IntValue = int(r.Get("default-spec-id").Int())
	case catalog.AssertDefaultSortOrderID:
		req.IntValue = int(r.Get("default-sort-order-id").Int())
	}
	return req
}

func decodeUpdate(u gjson.Result) (catalog.Update, error) {
	kind := catalog.UpdateKind(u.Get("action").String())
	upd := catalog.Update{Kind: kind}
	switch kind {
	case catalog.UpdateAssignUUID:
		upd.UUID = u.Get("uuid").String()
	case catalog.UpdateUpgradeFormatVersion:
		upd.FormatVersion = int(u.Get("format-version").Int())
	case catalog.UpdateAddSchema:
		schema, err := codec.DecodeSchema(json.RawMessage(u.Get("schema").Raw))
		if err != nil {
			return catalog.Update{}, fmt.Errorf("restapi: add-schema: %w", err)
		}
		upd.Schema = schema
	case catalog.UpdateSetCurrentSchema:
		upd.SchemaID = int(u.Get("schema-id").Int())
	case catalog.UpdateAddPartitionSpec:
		spec, err := codec.DecodePartitionSpec(json.RawMessage(u.Get("spec").Raw))
		if err != nil {
			return catalog.Update{}, fmt.Errorf("restapi: add-partition-spec: %w", err)
		}
		upd.Spec = &spec
	case catalog.UpdateSetDefaultSpec:
		upd.SpecID = int(u.Get("spec-id").Int())
	case catalog.UpdateAddSortOrder:
		order, err := codec.DecodeSortOrder(json.RawMessage(u.Get("sort-order").Raw))
		if err != nil {
			return catalog.Update{}, fmt.Errorf("restapi: add-sort-order: %w", err)
		}
		upd.SortOrder = &order
	case catalog.UpdateSetDefaultSortOrder:
		upd.SortOrderID = int(u.Get("sort-order-id").Int())
	case catalog.UpdateAddSnapshot:
		upd.Snapshot = decodeSnapshot(u.Get("snapshot"))
	case catalog.UpdateRemoveSnapshots:
		for _, id := range u.Get("snapshot-ids").Array() {
			upd.SnapshotIDs = append(upd.SnapshotIDs, id.Int())
		}
	case catalog.UpdateSetSnapshotRef:
		upd.RefName = u.Get("ref-name").String()
		upd.Ref = iceberg.SnapshotRef{
			SnapshotID: u.Get("snapshot-id").Int(),
			Type:       iceberg.RefType(u.Get("type").String()),
		}
	case catalog.UpdateRemoveSnapshotRef:
		upd.RefName = u.Get("ref-name").String()
	case catalog.UpdateSetProperties:
		props := iceberg.Properties{}
		u.Get("updates").ForEach(func(k, v gjson.Result) bool {
			props[k.String()] = v.String()
			return true
		})
		upd.Properties = props
	case catalog.UpdateRemoveProperties:
		for _, k := range u.Get("removals").Array() {
			upd.RemoveKeys = append(upd.RemoveKeys, k.String())
		}
	case catalog.UpdateSetLocation:
		upd.Location = u.Get("location").String()
	default:
		return catalog.Update{}, fmt.Errorf("restapi: unknown update action %q", kind)
	}
	return upd, nil
}

// decodeSnapshot reads an add-snapshot update's inline snapshot object.
// Snapshot carries no interface-typed fields, but its Go field names don't
// match the wire's hyphenated keys, so it's read field-by-field like the
// requirement/update discriminators rather than handed to encoding/json.
func decodeSnapshot(s gjson.Result) iceberg.Snapshot {
	snap := iceberg.Snapshot{
		SnapshotID:     s.Get("snapshot-id").Int(),
		SequenceNumber: s.Get("sequence-number").Int(),
		TimestampMs:    s.Get("timestamp-ms").Int(),
		ManifestList:   s.Get("manifest-list").String(),
	}
	if p := s.Get("parent-snapshot-id"); p.Exists() && p.Type != gjson.Null {
		v := p.Int()
		snap.ParentSnapshotID = &v
	}
	if sc := s.Get("schema-id"); sc.Exists() && sc.Type != gjson.Null {
		v := int(sc.Int())
		snap.SchemaID = &v
	}
	if summary := s.Get("summary"); summary.Exists() {
		m := map[string]string{}
		summary.ForEach(func(k, v gjson.Result) bool {
			m[k.String()] = v.String()
			return true
		})
		snap.Summary = m
	}
	return snap
}
