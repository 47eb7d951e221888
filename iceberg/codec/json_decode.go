package codec

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dot-do/iceberg-sub003/iceberg"
)

// DecodeTableMetadata parses canonical metadata JSON into a TableMetadata,
// the inverse of EncodeTableMetadata.
func DecodeTableMetadata(data []byte) (*iceberg.TableMetadata, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("codec: parse metadata: %w", err)
	}

	m := &iceberg.TableMetadata{Refs: map[string]iceberg.SnapshotRef{}}
	if v, ok := raw["format-version"]; ok {
		json.Unmarshal(v, &m.FormatVersion)
	}
	json.Unmarshal(raw["table-uuid"], &m.TableUUID)
	json.Unmarshal(raw["location"], &m.Location)
	json.Unmarshal(raw["last-sequence-number"], &m.LastSequenceNumber)
	json.Unmarshal(raw["last-updated-ms"], &m.LastUpdatedMs)
	json.Unmarshal(raw["last-column-id"], &m.LastColumnID)
	json.Unmarshal(raw["current-schema-id"], &m.CurrentSchemaID)
	json.Unmarshal(raw["default-spec-id"], &m.DefaultSpecID)
	json.Unmarshal(raw["last-partition-id"], &m.LastPartitionID)
	json.Unmarshal(raw["default-sort-order-id"], &m.DefaultSortOrderID)
	json.Unmarshal(raw["properties"], &m.Properties)
	json.Unmarshal(raw["next-row-id"], &m.NextRowID)
	json.Unmarshal(raw["encryption-keys"], &m.EncryptionKeys)

	if v, ok := raw["current-snapshot-id"]; ok && string(v) != "null" {
		var id int64
		if err := json.Unmarshal(v, &id); err != nil {
			return nil, fmt.Errorf("codec: current-snapshot-id: %w", err)
		}
		m.CurrentSnapshotID = &id
	}

	schemas, err := decodeSchemas(raw["schemas"])
	if err != nil {
		return nil, err
	}
	m.Schemas = schemas

	specs, err := decodePartitionSpecs(raw["partition-specs"])
	if err != nil {
		return nil, err
	}
	m.PartitionSpecs = specs

	orders, err := decodeSortOrders(raw["sort-orders"])
	if err != nil {
		return nil, err
	}
	m.SortOrders = orders

	snaps, err := decodeSnapshots(raw["snapshots"])
	if err != nil {
		return nil, err
	}
	m.Snapshots = snaps

	snapLog, err := decodeSnapshotLog(raw["snapshot-log"])
	if err != nil {
		return nil, err
	}
	m.SnapshotLog = snapLog

	metaLog, err := decodeMetadataLog(raw["metadata-log"])
	if err != nil {
		return nil, err
	}
	m.MetadataLog = metaLog

	refs, err := decodeRefs(raw["refs"])
	if err != nil {
		return nil, err
	}
	m.Refs = refs

	return m, nil
}

func decodeSchemas(raw json.RawMessage) ([]*iceberg.Schema, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var items []schemaJSON
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("codec: schemas: %w", err)
	}
	out := make([]*iceberg.Schema, 0, len(items))
	for _, sj := range items {
		s, err := schemaFromJSON(sj)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func schemaFromJSON(sj schemaJSON) (*iceberg.Schema, error) {
	fields := make([]iceberg.NestedField, 0, len(sj.Fields))
	for _, fj := range sj.Fields {
		t, err := parseType(fj.Type)
		if err != nil {
			return nil, err
		}
		fields = append(fields, iceberg.NestedField{ID: fj.ID, Name: fj.Name, Required: fj.Required, Type: t, Doc: fj.Doc})
	}
	return &iceberg.Schema{SchemaID: sj.SchemaID, Struct: iceberg.StructType{FieldList: fields}, IdentifierIDs: sj.IdentifierIDs}, nil
}

// DecodeSchema parses a single schema object, the shape a REST commit
// update's new-schema payload arrives in (as opposed to the array
// decodeSchemas expects for a table metadata document's "schemas" field).
func DecodeSchema(raw json.RawMessage) (*iceberg.Schema, error) {
	var sj schemaJSON
	if err := json.Unmarshal(raw, &sj); err != nil {
		return nil, fmt.Errorf("codec: schema: %w", err)
	}
	return schemaFromJSON(sj)
}

var (
	decimalPattern  = regexp.MustCompile(`^decimal\((\d+),\s*(\d+)\)$`)
	fixedPattern    = regexp.MustCompile(`^fixed\[(\d+)\]$`)
	geometryPattern = regexp.MustCompile(`^geometry\(([^)]*)\)$`)
	geographyPattern = regexp.MustCompile(`^geography\(([^,]*),\s*([^)]*)\)$`)
)

// parseType accepts either a raw JSON string (primitive/parameterized
// primitive) or a decoded object (struct/list/map, as produced by
// typeToJSON).
func parseType(v any) (iceberg.Type, error) {
	switch t := v.(type) {
	case string:
		return parsePrimitiveType(t)
	case map[string]any:
		return parseComplexType(t)
	default:
		// re-marshal/unmarshal path used when v comes straight from
		// encoding/json as json.RawMessage wrapped in `any`.
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		var s string
		if err := json.Unmarshal(b, &s); err == nil {
			return parsePrimitiveType(s)
		}
		var m map[string]any
		if err := json.Unmarshal(b, &m); err != nil {
			return nil, fmt.Errorf("codec: unrecognized type shape %v", v)
		}
		return parseComplexType(m)
	}
}

// ParsePrimitiveType parses a type name as it appears in metadata JSON or on
// a command line (e.g. "long", "decimal(10,2)", "fixed[16]",
// "geometry(OGC:CRS84)") into its iceberg.Type value. Complex types
// (struct/list/map) are not expressible in this flat string form; use
// DecodeSchema for those.
func ParsePrimitiveType(s string) (iceberg.Type, error) {
	return parsePrimitiveType(s)
}

func parsePrimitiveType(s string) (iceberg.Type, error) {
	switch s {
	case "boolean":
		return iceberg.BooleanType, nil
	case "int":
		return iceberg.IntType, nil
	case "long":
		return iceberg.LongType, nil
	case "float":
		return iceberg.FloatType, nil
	case "double":
		return iceberg.DoubleType, nil
	case "date":
		return iceberg.DateType, nil
	case "time":
		return iceberg.TimeType, nil
	case "timestamp":
		return iceberg.TimestampType, nil
	case "timestamptz":
		return iceberg.TimestampTZType, nil
	case "timestamp_ns":
		return iceberg.TimestampNsType, nil
	case "timestamptz_ns":
		return iceberg.TimestampTZNs, nil
	case "string":
		return iceberg.StringType, nil
	case "uuid":
		return iceberg.UUIDType, nil
	case "binary":
		return iceberg.BinaryType, nil
	case "variant":
		return iceberg.VariantType, nil
	case "unknown":
		return iceberg.UnknownType, nil
	}
	if m := decimalPattern.FindStringSubmatch(s); m != nil {
		p, _ := strconv.Atoi(m[1])
		sc, _ := strconv.Atoi(m[2])
		return iceberg.DecimalType{Precision: p, Scale: sc}, nil
	}
	if m := fixedPattern.FindStringSubmatch(s); m != nil {
		l, _ := strconv.Atoi(m[1])
		return iceberg.FixedType{Length: l}, nil
	}
	if m := geometryPattern.FindStringSubmatch(s); m != nil {
		return iceberg.NewGeometryType(strings.TrimSpace(m[1])), nil
	}
	if m := geographyPattern.FindStringSubmatch(s); m != nil {
		return iceberg.NewGeographyType(strings.TrimSpace(m[1]), iceberg.GeoAlgorithm(strings.TrimSpace(m[2]))), nil
	}
	return nil, fmt.Errorf("codec: unrecognized primitive type %q", s)
}

func parseComplexType(m map[string]any) (iceberg.Type, error) {
	kind, _ := m["type"].(string)
	switch kind {
	case "struct":
		fieldsRaw, _ := m["fields"].([]any)
		fields := make([]iceberg.NestedField, 0, len(fieldsRaw))
		for _, fr := range fieldsRaw {
			fb, err := json.Marshal(fr)
			if err != nil {
				return nil, err
			}
			var fj fieldJSON
			if err := json.Unmarshal(fb, &fj); err != nil {
				return nil, err
			}
			t, err := parseType(fj.Type)
			if err != nil {
				return nil, err
			}
			fields = append(fields, iceberg.NestedField{ID: fj.ID, Name: fj.Name, Required: fj.Required, Type: t, Doc: fj.Doc})
		}
		return iceberg.StructType{FieldList: fields}, nil
	case "list":
		elemID := int(asFloat(m["element-id"]))
		elem, err := parseType(m["element"])
		if err != nil {
			return nil, err
		}
		return iceberg.ListType{ElementID: elemID, Element: elem, ElementRequired: asBool(m["element-required"])}, nil
	case "map":
		keyID := int(asFloat(m["key-id"]))
		valueID := int(asFloat(m["value-id"]))
		key, err := parseType(m["key"])
		if err != nil {
			return nil, err
		}
		value, err := parseType(m["value"])
		if err != nil {
			return nil, err
		}
		return iceberg.MapType{KeyID: keyID, Key: key, ValueID: valueID, Value: value, ValueRequired: asBool(m["value-required"])}, nil
	default:
		return nil, fmt.Errorf("codec: unrecognized complex type %q", kind)
	}
}

func asFloat(v any) float64 {
	f, _ := v.(float64)
	return f
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

type partitionSpecJSON struct {
	SpecID int `json:"spec-id"`
	Fields []struct {
		SourceID  int    `json:"source-id"`
		FieldID   int    `json:"field-id"`
		Name      string `json:"name"`
		Transform string `json:"transform"`
	} `json:"fields"`
}

func decodePartitionSpecs(raw json.RawMessage) ([]iceberg.PartitionSpec, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var items []partitionSpecJSON
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("codec: partition-specs: %w", err)
	}
	out := make([]iceberg.PartitionSpec, 0, len(items))
	for _, it := range items {
		spec, err := partitionSpecFromJSON(it)
		if err != nil {
			return nil, err
		}
		out = append(out, spec)
	}
	return out, nil
}

func partitionSpecFromJSON(it partitionSpecJSON) (iceberg.PartitionSpec, error) {
	spec := iceberg.PartitionSpec{SpecID: it.SpecID}
	for _, f := range it.Fields {
		tr, err := iceberg.ParseTransform(f.Transform)
		if err != nil {
			return iceberg.PartitionSpec{}, err
		}
		spec.Fields = append(spec.Fields, iceberg.PartitionField{SourceID: f.SourceID, FieldID: f.FieldID, Name: f.Name, Transform: tr})
	}
	return spec, nil
}

// DecodePartitionSpec parses a single partition spec object, the shape a
// REST commit update's add-partition-spec payload arrives in.
func DecodePartitionSpec(raw json.RawMessage) (iceberg.PartitionSpec, error) {
	var it partitionSpecJSON
	if err := json.Unmarshal(raw, &it); err != nil {
		return iceberg.PartitionSpec{}, fmt.Errorf("codec: partition-spec: %w", err)
	}
	return partitionSpecFromJSON(it)
}

type sortOrderJSON struct {
	OrderID int `json:"order-id"`
	Fields  []struct {
		SourceID  int    `json:"source-id"`
		Transform string `json:"transform"`
		Direction string `json:"direction"`
		NullOrder string `json:"null-order"`
	} `json:"fields"`
}

func decodeSortOrders(raw json.RawMessage) ([]iceberg.SortOrder, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var items []sortOrderJSON
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("codec: sort-orders: %w", err)
	}
	out := make([]iceberg.SortOrder, 0, len(items))
	for _, it := range items {
		order, err := sortOrderFromJSON(it)
		if err != nil {
			return nil, err
		}
		out = append(out, order)
	}
	return out, nil
}

func sortOrderFromJSON(it sortOrderJSON) (iceberg.SortOrder, error) {
	order := iceberg.SortOrder{OrderID: it.OrderID}
	for _, f := range it.Fields {
		tr, err := iceberg.ParseTransform(f.Transform)
		if err != nil {
			return iceberg.SortOrder{}, err
		}
		dir := iceberg.SortAsc
		if f.Direction == "desc" {
			dir = iceberg.SortDesc
		}
		nullOrder := iceberg.NullsFirst
		if f.NullOrder == "nulls-last" {
			nullOrder = iceberg.NullsLast
		}
		order.Fields = append(order.Fields, iceberg.SortField{SourceID: f.SourceID, Transform: tr, Direction: dir, NullOrder: nullOrder})
	}
	return order, nil
}

// DecodeSortOrder parses a single sort order object, the shape a REST
// commit update's add-sort-order payload arrives in.
func DecodeSortOrder(raw json.RawMessage) (iceberg.SortOrder, error) {
	var it sortOrderJSON
	if err := json.Unmarshal(raw, &it); err != nil {
		return iceberg.SortOrder{}, fmt.Errorf("codec: sort-order: %w", err)
	}
	return sortOrderFromJSON(it)
}

func decodeSnapshots(raw json.RawMessage) ([]iceberg.Snapshot, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var items []struct {
		SnapshotID       int64             `json:"snapshot-id"`
		ParentSnapshotID *int64            `json:"parent-snapshot-id"`
		SequenceNumber   int64             `json:"sequence-number"`
		TimestampMs      int64             `json:"timestamp-ms"`
		ManifestList     string            `json:"manifest-list"`
		Summary          map[string]string `json:"summary"`
		SchemaID         *int              `json:"schema-id"`
		KeyID            *int              `json:"key-id"`
		FirstRowID       *int64            `json:"first-row-id"`
		AddedRows        *int64            `json:"added-rows"`
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("codec: snapshots: %w", err)
	}
	out := make([]iceberg.Snapshot, 0, len(items))
	for _, it := range items {
		out = append(out, iceberg.Snapshot{
			SnapshotID:       it.SnapshotID,
			ParentSnapshotID: it.ParentSnapshotID,
			SequenceNumber:   it.SequenceNumber,
			TimestampMs:      it.TimestampMs,
			ManifestList:     it.ManifestList,
			Summary:          it.Summary,
			SchemaID:         it.SchemaID,
			KeyID:            it.KeyID,
			FirstRowID:       it.FirstRowID,
			AddedRows:        it.AddedRows,
		})
	}
	return out, nil
}

func decodeSnapshotLog(raw json.RawMessage) ([]iceberg.SnapshotLogEntry, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var items []struct {
		TimestampMs int64 `json:"timestamp-ms"`
		SnapshotID  int64 `json:"snapshot-id"`
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("codec: snapshot-log: %w", err)
	}
	out := make([]iceberg.SnapshotLogEntry, 0, len(items))
	for _, it := range items {
		out = append(out, iceberg.SnapshotLogEntry{TimestampMs: it.TimestampMs, SnapshotID: it.SnapshotID})
	}
	return out, nil
}

func decodeMetadataLog(raw json.RawMessage) ([]iceberg.MetadataLogEntry, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var items []struct {
		TimestampMs  int64  `json:"timestamp-ms"`
		MetadataFile string `json:"metadata-file"`
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("codec: metadata-log: %w", err)
	}
	out := make([]iceberg.MetadataLogEntry, 0, len(items))
	for _, it := range items {
		out = append(out, iceberg.MetadataLogEntry{TimestampMs: it.TimestampMs, MetadataFile: it.MetadataFile})
	}
	return out, nil
}

func decodeRefs(raw json.RawMessage) (map[string]iceberg.SnapshotRef, error) {
	out := map[string]iceberg.SnapshotRef{}
	if len(raw) == 0 {
		return out, nil
	}
	var items map[string]struct {
		SnapshotID         int64  `json:"snapshot-id"`
		Type               string `json:"type"`
		MaxRefAgeMs        *int64 `json:"max-ref-age-ms"`
		MaxSnapshotAgeMs   *int64 `json:"max-snapshot-age-ms"`
		MinSnapshotsToKeep *int   `json:"min-snapshots-to-keep"`
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("codec: refs: %w", err)
	}
	for name, it := range items {
		out[name] = iceberg.SnapshotRef{
			SnapshotID:         it.SnapshotID,
			Type:               iceberg.RefType(it.Type),
			MaxRefAgeMs:        it.MaxRefAgeMs,
			MaxSnapshotAgeMs:   it.MaxSnapshotAgeMs,
			MinSnapshotsToKeep: it.MinSnapshotsToKeep,
		}
	}
	return out, nil
}
