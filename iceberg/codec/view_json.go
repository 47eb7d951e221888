package codec

import (
	"encoding/json"
	"fmt"

	"github.com/dot-do/iceberg-sub003/iceberg"
)

// EncodeViewMetadata renders v as view metadata JSON, reusing the same
// ordered-key/schema encoding EncodeTableMetadata uses for tables.
func EncodeViewMetadata(v *iceberg.ViewMetadata) ([]byte, error) {
	o := &orderedObject{}
	o.setValue("view-uuid", v.ViewUUID)
	o.setValue("format-version", v.FormatVersion)
	o.setValue("location", v.Location)
	o.setValue("current-version-id", v.CurrentVersionID)
	o.setValue("versions", encodeViewVersions(v.Versions))
	o.setValue("version-log", v.VersionLog)
	o.setValue("schemas", encodeSchemas(v.Schemas))
	o.setValue("properties", v.Properties)
	return json.Marshal(o)
}

func encodeViewVersions(versions []iceberg.ViewVersion) []map[string]any {
	out := make([]map[string]any, 0, len(versions))
	for _, ver := range versions {
		reps := make([]map[string]any, 0, len(ver.Representations))
		for _, r := range ver.Representations {
			reps = append(reps, map[string]any{"type": r.Type, "sql": r.SQL, "dialect": r.Dialect})
		}
		out = append(out, map[string]any{
			"version-id":        ver.VersionID,
			"schema-id":         ver.SchemaID,
			"timestamp-ms":      ver.TimestampMs,
			"summary":           ver.Summary,
			"representations":   reps,
			"default-catalog":   ver.DefaultCatalog,
			"default-namespace": ver.DefaultNamespace,
		})
	}
	return out
}

// DecodeViewMetadata parses view metadata JSON, the inverse of
// EncodeViewMetadata.
func DecodeViewMetadata(data []byte) (*iceberg.ViewMetadata, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("codec: parse view metadata: %w", err)
	}

	v := &iceberg.ViewMetadata{}
	json.Unmarshal(raw["view-uuid"], &v.ViewUUID)
	json.Unmarshal(raw["format-version"], &v.FormatVersion)
	json.Unmarshal(raw["location"], &v.Location)
	json.Unmarshal(raw["current-version-id"], &v.CurrentVersionID)
	json.Unmarshal(raw["properties"], &v.Properties)
	json.Unmarshal(raw["version-log"], &v.VersionLog)

	schemas, err := decodeSchemas(raw["schemas"])
	if err != nil {
		return nil, err
	}
	v.Schemas = schemas

	var rawVersions []struct {
		VersionID       int               `json:"version-id"`
		SchemaID        int               `json:"schema-id"`
		TimestampMs     int64             `json:"timestamp-ms"`
		Summary         map[string]string `json:"summary"`
		DefaultCatalog  string            `json:"default-catalog"`
		DefaultNamespace []string         `json:"default-namespace"`
		Representations []struct {
			Type    string `json:"type"`
			SQL     string `json:"sql"`
			Dialect string `json:"dialect"`
		} `json:"representations"`
	}
	if err := json.Unmarshal(raw["versions"], &rawVersions); err != nil && len(raw["versions"]) > 0 {
		return nil, fmt.Errorf("codec: view versions: %w", err)
	}
	for _, rv := range rawVersions {
		ver := iceberg.ViewVersion{
			VersionID:        rv.VersionID,
			SchemaID:         rv.SchemaID,
			TimestampMs:      rv.TimestampMs,
			Summary:          rv.Summary,
			DefaultCatalog:   rv.DefaultCatalog,
			DefaultNamespace: rv.DefaultNamespace,
		}
		for _, r := range rv.Representations {
			ver.Representations = append(ver.Representations, iceberg.ViewRepresentation{Type: r.Type, SQL: r.SQL, Dialect: r.Dialect})
		}
		v.Versions = append(v.Versions, ver)
	}
	return v, nil
}
