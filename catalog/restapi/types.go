package restapi

import (
	"encoding/json"
	"strings"

	"github.com/dot-do/iceberg-sub003/catalog"
	"github.com/dot-do/iceberg-sub003/iceberg"
)

// namespaceSeparator is the REST catalog API's wire encoding for a
// multi-level namespace inside a single path segment (RFC 3986 unreserved
// chars only, so the literal unit separator is percent-escaped on the
// wire); catalog.Identifier.String uses the same separator internally.
const namespaceSeparator = "\x1f"

func parseNamespace(raw string) catalog.Identifier {
	if raw == "" {
		return nil
	}
	return catalog.Identifier(strings.Split(raw, namespaceSeparator))
}

// createNamespaceRequest is the body of POST /v1/namespaces.
type createNamespaceRequest struct {
	Namespace []string           `json:"namespace"`
	Properties iceberg.Properties `json:"properties"`
}

type namespaceResponse struct {
	Namespace  []string           `json:"namespace"`
	Properties iceberg.Properties `json:"properties,omitempty"`
}

type listNamespacesResponse struct {
	Namespaces [][]string `json:"namespaces"`
}

type updateNamespacePropertiesRequest struct {
	Removals []string           `json:"removals"`
	Updates  iceberg.Properties `json:"updates"`
}

type updateNamespacePropertiesResponse struct {
	Updated []string `json:"updated"`
	Removed []string `json:"removed"`
	Missing []string `json:"missing"`
}

type listTablesResponse struct {
	Identifiers []tableIdentifier `json:"identifiers"`
}

type tableIdentifier struct {
	Namespace []string `json:"namespace"`
	Name      string   `json:"name"`
}

func toTableIdentifier(id catalog.Identifier) tableIdentifier {
	return tableIdentifier{Namespace: id.Namespace(), Name: id.Name()}
}

// createTableRequest is the body of POST /v1/namespaces/{ns}/tables. The
// schema/spec/sort-order payloads are raw JSON so they can be handed to
// codec.DecodeSchema/DecodePartitionSpec/DecodeSortOrder unchanged.
type createTableRequest struct {
	Name          string             `json:"name"`
	Schema        json.RawMessage    `json:"schema"`
	PartitionSpec json.RawMessage    `json:"partition-spec"`
	WriteOrder    json.RawMessage    `json:"write-order"`
	Location      string             `json:"location"`
	Properties    iceberg.Properties `json:"properties"`
}

type loadTableResponse struct {
	MetadataLocation string                  `json:"metadata-location,omitempty"`
	Metadata         *iceberg.TableMetadata  `json:"metadata"`
}

type renameTableRequest struct {
	Source      tableIdentifier `json:"source"`
	Destination tableIdentifier `json:"destination"`
}

func fromTableIdentifier(id tableIdentifier) catalog.Identifier {
	full := make(catalog.Identifier, len(id.Namespace)+1)
	copy(full, id.Namespace)
	full[len(id.Namespace)] = id.Name
	return full
}

type createViewRequest struct {
	Name     string          `json:"name"`
	Metadata json.RawMessage `json:"metadata"`
}
