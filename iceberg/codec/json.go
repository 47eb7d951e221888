package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/dot-do/iceberg-sub003/iceberg"
)

// orderedObject accumulates key/value pairs and marshals them as a JSON
// object preserving insertion order, since encoding/json's map marshaling
// sorts keys and metadata.json must emit a fixed key sequence to
// interoperate with other Iceberg implementations.
type orderedObject struct {
	keys   []string
	values []json.RawMessage
}

func (o *orderedObject) set(key string, raw json.RawMessage) {
	o.keys = append(o.keys, key)
	o.values = append(o.values, raw)
}

func (o *orderedObject) setValue(key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("codec: marshal %s: %v", key, err))
	}
	o.set(key, raw)
}

// setLong emits v as an unquoted JSON number, the canonical encoding for
// long-typed metadata fields.
func (o *orderedObject) setLong(key string, v int64) {
	o.set(key, json.RawMessage(strconv.FormatInt(v, 10)))
}

// setNullableLong emits v as a number, or JSON null if v is nil. Used for
// current-snapshot-id, which must serialize as an explicit null rather than
// being omitted.
func (o *orderedObject) setNullableLong(key string, v *int64) {
	if v == nil {
		o.set(key, json.RawMessage("null"))
		return
	}
	o.setLong(key, *v)
}

func (o *orderedObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, _ := json.Marshal(k)
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(o.values[i])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// EncodeTableMetadata renders m as canonical metadata JSON: deterministic
// key order, unquoted long fields, string-valued snapshot summaries, and an
// explicit JSON null for a nil current-snapshot-id.
func EncodeTableMetadata(m *iceberg.TableMetadata) ([]byte, error) {
	o := &orderedObject{}
	o.setValue("format-version", m.FormatVersion)
	o.setValue("table-uuid", m.TableUUID)
	o.setValue("location", m.Location)
	o.setLong("last-sequence-number", m.LastSequenceNumber)
	o.setLong("last-updated-ms", m.LastUpdatedMs)
	o.setValue("last-column-id", m.LastColumnID)
	o.setValue("current-schema-id", m.CurrentSchemaID)
	o.setValue("schemas", encodeSchemas(m.Schemas))
	o.setValue("default-spec-id", m.DefaultSpecID)
	o.setValue("partition-specs", encodePartitionSpecs(m.PartitionSpecs))
	o.setValue("last-partition-id", m.LastPartitionID)
	o.setValue("default-sort-order-id", m.DefaultSortOrderID)
	o.setValue("sort-orders", encodeSortOrders(m.SortOrders))
	o.setValue("properties", m.Properties)
	o.setNullableLong("current-snapshot-id", m.CurrentSnapshotID)
	o.setValue("snapshots", encodeSnapshots(m.Snapshots))
	o.setValue("snapshot-log", encodeSnapshotLog(m.SnapshotLog))
	o.setValue("metadata-log", encodeMetadataLog(m.MetadataLog))
	o.setValue("refs", encodeRefs(m.Refs))
	if m.FormatVersion >= 3 {
		o.setLong("next-row-id", m.NextRowID)
		if len(m.EncryptionKeys) > 0 {
			o.setValue("encryption-keys", m.EncryptionKeys)
		}
	}
	return json.Marshal(o)
}

type schemaJSON struct {
	Type          string           `json:"type"`
	SchemaID      int              `json:"schema-id"`
	Fields        []fieldJSON      `json:"fields"`
	IdentifierIDs []int            `json:"identifier-field-ids,omitempty"`
}

type fieldJSON struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Required bool   `json:"required"`
	Type     any    `json:"type"`
	Doc      string `json:"doc,omitempty"`
}

func encodeSchemas(schemas []*iceberg.Schema) []schemaJSON {
	out := make([]schemaJSON, 0, len(schemas))
	for _, s := range schemas {
		sj := schemaJSON{Type: "struct", SchemaID: s.SchemaID, IdentifierIDs: s.IdentifierIDs}
		for _, f := range s.Struct.FieldList {
			sj.Fields = append(sj.Fields, fieldJSON{ID: f.ID, Name: f.Name, Required: f.Required, Type: typeToJSON(f.Type), Doc: f.Doc})
		}
		out = append(out, sj)
	}
	return out
}

func typeToJSON(t iceberg.Type) any {
	switch v := t.(type) {
	case iceberg.StructType:
		fields := make([]fieldJSON, 0, len(v.FieldList))
		for _, f := range v.FieldList {
			fields = append(fields, fieldJSON{ID: f.ID, Name: f.Name, Required: f.Required, Type: typeToJSON(f.Type), Doc: f.Doc})
		}
		return map[string]any{"type": "struct", "fields": fields}
	case iceberg.ListType:
		return map[string]any{"type": "list", "element-id": v.ElementID, "element": typeToJSON(v.Element), "element-required": v.ElementRequired}
	case iceberg.MapType:
		return map[string]any{"type": "map", "key-id": v.KeyID, "key": typeToJSON(v.Key), "value-id": v.ValueID, "value": typeToJSON(v.Value), "value-required": v.ValueRequired}
	default:
		return t.String()
	}
}

func encodePartitionSpecs(specs []iceberg.PartitionSpec) []map[string]any {
	out := make([]map[string]any, 0, len(specs))
	for _, s := range specs {
		fields := make([]map[string]any, 0, len(s.Fields))
		for _, f := range s.Fields {
			fields = append(fields, map[string]any{
				"source-id": f.SourceID, "field-id": f.FieldID, "name": f.Name, "transform": f.Transform.String(),
			})
		}
		out = append(out, map[string]any{"spec-id": s.SpecID, "fields": fields})
	}
	return out
}

func encodeSortOrders(orders []iceberg.SortOrder) []map[string]any {
	out := make([]map[string]any, 0, len(orders))
	for _, o := range orders {
		fields := make([]map[string]any, 0, len(o.Fields))
		for _, f := range o.Fields {
			direction := "asc"
			if f.Direction == iceberg.SortDesc {
				direction = "desc"
			}
			nullOrder := "nulls-first"
			if f.NullOrder == iceberg.NullsLast {
				nullOrder = "nulls-last"
			}
			fields = append(fields, map[string]any{
				"source-id": f.SourceID, "transform": f.Transform.String(), "direction": direction, "null-order": nullOrder,
			})
		}
		out = append(out, map[string]any{"order-id": o.OrderID, "fields": fields})
	}
	return out
}

func encodeSnapshots(snaps []iceberg.Snapshot) []map[string]any {
	out := make([]map[string]any, 0, len(snaps))
	for _, s := range snaps {
		// Summary values are strings, even for integer counts (§4.2).
		summary := make(map[string]string, len(s.Summary))
		for k, v := range s.Summary {
			summary[k] = v
		}
		entry := map[string]any{
			"snapshot-id":     s.SnapshotID,
			"sequence-number": s.SequenceNumber,
			"timestamp-ms":    s.TimestampMs,
			"manifest-list":   s.ManifestList,
			"summary":         summary,
		}
		if s.ParentSnapshotID != nil {
			entry["parent-snapshot-id"] = *s.ParentSnapshotID
		}
		if s.SchemaID != nil {
			entry["schema-id"] = *s.SchemaID
		}
		if s.FirstRowID != nil {
			entry["first-row-id"] = *s.FirstRowID
		}
		if s.AddedRows != nil {
			entry["added-rows"] = *s.AddedRows
		}
		if s.KeyID != nil {
			entry["key-id"] = *s.KeyID
		}
		out = append(out, entry)
	}
	return out
}

func encodeSnapshotLog(log []iceberg.SnapshotLogEntry) []map[string]any {
	out := make([]map[string]any, 0, len(log))
	for _, e := range log {
		out = append(out, map[string]any{"timestamp-ms": e.TimestampMs, "snapshot-id": e.SnapshotID})
	}
	return out
}

func encodeMetadataLog(log []iceberg.MetadataLogEntry) []map[string]any {
	out := make([]map[string]any, 0, len(log))
	for _, e := range log {
		out = append(out, map[string]any{"timestamp-ms": e.TimestampMs, "metadata-file": e.MetadataFile})
	}
	return out
}

func encodeRefs(refs map[string]iceberg.SnapshotRef) map[string]any {
	out := make(map[string]any, len(refs))
	for name, r := range refs {
		entry := map[string]any{"snapshot-id": r.SnapshotID, "type": string(r.Type)}
		if r.MaxRefAgeMs != nil {
			entry["max-ref-age-ms"] = *r.MaxRefAgeMs
		}
		if r.MaxSnapshotAgeMs != nil {
			entry["max-snapshot-age-ms"] = *r.MaxSnapshotAgeMs
		}
		if r.MinSnapshotsToKeep != nil {
			entry["min-snapshots-to-keep"] = *r.MinSnapshotsToKeep
		}
		out[name] = entry
	}
	return out
}
