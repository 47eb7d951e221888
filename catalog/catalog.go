// Package catalog defines the namespace/table/view contract (component 7):
// the Catalog interface every backend implements, the commit
// requirement/update vocabulary used by CommitTable, and the shared error
// taxonomy both the filesystem and authoritative implementations raise.
package catalog

import (
	"context"
	"strings"

	"github.com/dot-do/iceberg-sub003/iceberg"
	pkgerrors "github.com/dot-do/iceberg-sub003/pkg/errors"
)

// Identifier names a namespace or a (namespace, name) pair, following the
// iceberg-go/REST convention of a flat string slice (the last element is
// the table/view name when one is present).
type Identifier []string

// Namespace returns the identifier's namespace portion.
func (id Identifier) Namespace() Identifier {
	if len(id) == 0 {
		return nil
	}
	return id[:len(id)-1]
}

// Name returns the identifier's leaf name, or "" for a bare namespace.
func (id Identifier) Name() string {
	if len(id) == 0 {
		return ""
	}
	return id[len(id)-1]
}

// String renders the identifier using the REST wire separator.
func (id Identifier) String() string { return strings.Join(id, "\x1f") }

var (
	CodeNamespaceNotFound      = pkgerrors.MustNewCode("catalog.namespace_not_found")
	CodeNamespaceAlreadyExists = pkgerrors.MustNewCode("catalog.namespace_already_exists")
	CodeNamespaceNotEmpty      = pkgerrors.MustNewCode("catalog.namespace_not_empty")
	CodeTableNotFound          = pkgerrors.MustNewCode("catalog.table_not_found")
	CodeTableAlreadyExists     = pkgerrors.MustNewCode("catalog.table_already_exists")
	CodeViewNotFound           = pkgerrors.MustNewCode("catalog.view_not_found")
	CodeViewAlreadyExists      = pkgerrors.MustNewCode("catalog.view_already_exists")
	CodeCommitFailed           = pkgerrors.MustNewCode("catalog.commit_failed")
)

// ErrNamespaceNotFound builds the not-found error for a missing namespace.
func ErrNamespaceNotFound(ns Identifier) error {
	return pkgerrors.Newf(CodeNamespaceNotFound, pkgerrors.KindNotFound, "namespace %q not found", ns).WithEntity("namespace", ns.String())
}

// ErrNamespaceAlreadyExists builds the already-exists error for a namespace.
func ErrNamespaceAlreadyExists(ns Identifier) error {
	return pkgerrors.Newf(CodeNamespaceAlreadyExists, pkgerrors.KindAlreadyExists, "namespace %q already exists", ns).WithEntity("namespace", ns.String())
}

// ErrNamespaceNotEmpty builds the not-empty error for DropNamespace.
func ErrNamespaceNotEmpty(ns Identifier) error {
	return pkgerrors.Newf(CodeNamespaceNotEmpty, pkgerrors.KindNotEmpty, "namespace %q is not empty", ns).WithEntity("namespace", ns.String())
}

// ErrTableNotFound builds the not-found error for a missing table.
func ErrTableNotFound(id Identifier) error {
	return pkgerrors.Newf(CodeTableNotFound, pkgerrors.KindNotFound, "table %q not found", id).WithEntity("table", id.String())
}

// ErrTableAlreadyExists builds the already-exists error for a table.
// viaViewCollision disambiguates the "a view with this name already exists"
// case that renames must call out explicitly.
func ErrTableAlreadyExists(id Identifier, viaViewCollision bool) error {
	msg := "table with same name already exists"
	if viaViewCollision {
		msg = "a view with the same name already exists"
	}
	return pkgerrors.New(CodeTableAlreadyExists, pkgerrors.KindAlreadyExists, msg).WithEntity("table", id.String())
}

// ErrViewNotFound builds the not-found error for a missing view.
func ErrViewNotFound(id Identifier) error {
	return pkgerrors.Newf(CodeViewNotFound, pkgerrors.KindNotFound, "view %q not found", id).WithEntity("view", id.String())
}

// ErrViewAlreadyExists builds the already-exists error for a view.
func ErrViewAlreadyExists(id Identifier, viaTableCollision bool) error {
	msg := "view with same name already exists"
	if viaTableCollision {
		msg = "a table with the same name already exists"
	}
	return pkgerrors.New(CodeViewAlreadyExists, pkgerrors.KindAlreadyExists, msg).WithEntity("view", id.String())
}

// PropertiesUpdateSummary reports the outcome of UpdateNamespaceProperties.
type PropertiesUpdateSummary struct {
	Updated []string
	Removed []string
	Missing []string
}

// CreateTableRequest carries the inputs to CreateTable beyond the
// identifier: the initial schema and optional partition spec/sort
// order/properties/location override.
type CreateTableRequest struct {
	Schema     *iceberg.Schema
	Spec       *iceberg.PartitionSpec
	SortOrder  *iceberg.SortOrder
	Location   string
	Properties iceberg.Properties
}

// CommitTableRequest bundles a table's identifier with the requirements
// that must hold and the updates to apply.
type CommitTableRequest struct {
	Identifier   Identifier
	Requirements []Requirement
	Updates      []Update
}

// CommitTableResponse is CommitTable's result: the new metadata file
// location plus the metadata it points to.
type CommitTableResponse struct {
	MetadataLocation string
	Metadata         *iceberg.TableMetadata
}

// Catalog is the namespace/table/view contract implemented by both the
// filesystem backend and the authoritative single-writer backend (spec
// §4.7). All methods are safe for concurrent use by many caller goroutines;
// implementations serialize their own mutations.
type Catalog interface {
	// Namespaces.
	ListNamespaces(ctx context.Context, parent Identifier) ([]Identifier, error)
	CreateNamespace(ctx context.Context, ns Identifier, props iceberg.Properties) error
	NamespaceExists(ctx context.Context, ns Identifier) (bool, error)
	GetNamespaceProperties(ctx context.Context, ns Identifier) (iceberg.Properties, error)
	UpdateNamespaceProperties(ctx context.Context, ns Identifier, updates iceberg.Properties, removals []string) (PropertiesUpdateSummary, error)
	DropNamespace(ctx context.Context, ns Identifier) error

	// Tables.
	ListTables(ctx context.Context, ns Identifier) ([]Identifier, error)
	CreateTable(ctx context.Context, id Identifier, req CreateTableRequest) (*iceberg.TableMetadata, error)
	LoadTable(ctx context.Context, id Identifier) (*iceberg.TableMetadata, error)
	TableExists(ctx context.Context, id Identifier) (bool, error)
	DropTable(ctx context.Context, id Identifier, purge bool) error
	RenameTable(ctx context.Context, from, to Identifier) error
	CommitTable(ctx context.Context, req CommitTableRequest) (CommitTableResponse, error)

	// Views.
	ListViews(ctx context.Context, ns Identifier) ([]Identifier, error)
	CreateView(ctx context.Context, id Identifier, meta *iceberg.ViewMetadata) error
	LoadView(ctx context.Context, id Identifier) (*iceberg.ViewMetadata, error)
	ViewExists(ctx context.Context, id Identifier) (bool, error)
	DropView(ctx context.Context, id Identifier) error
	RenameView(ctx context.Context, from, to Identifier) error
}
