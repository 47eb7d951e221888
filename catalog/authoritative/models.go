// Package authoritative implements catalog.Catalog as a single-writer,
// sqlite-backed registry: namespace, table, and view existence plus
// name-collision detection live in bun
// models with an optimistic row version column, while table metadata bytes
// are still delegated to iceberg/commit.Engine over a StorageBackend.
// Namespace and table lookups are served from an expirable LRU cache to
// keep repeated reads off sqlite.
package authoritative

import (
	"context"
	"database/sql"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/mattn/go-sqlite3"

	pkgerrors "github.com/dot-do/iceberg-sub003/pkg/errors"
)

var codeSchemaInit = pkgerrors.MustNewCode("authoritative.schema_init")

// NamespaceRow is the authoritative record of a namespace's existence and
// properties.
type NamespaceRow struct {
	bun.BaseModel `bun:"table:namespaces"`

	ID         int64  `bun:"id,pk,autoincrement"`
	Path       string `bun:"path,notnull,unique"`
	Properties string `bun:"properties_json,notnull,default:'{}'"`
	Version    int    `bun:"version,notnull,default:1"`
	CreatedAt  int64  `bun:"created_at,notnull"`
	UpdatedAt  int64  `bun:"updated_at,notnull"`
}

// TableRow is the authoritative pointer from a table identifier to its
// metadata location; the metadata itself is versioned by commit.Engine.
type TableRow struct {
	bun.BaseModel `bun:"table:tables"`

	ID        int64  `bun:"id,pk,autoincrement"`
	Namespace string `bun:"namespace_path,notnull,unique:table_identity"`
	Name      string `bun:"name,notnull,unique:table_identity"`
	Location  string `bun:"location,notnull"`
	Version   int    `bun:"version,notnull,default:1"`
	CreatedAt int64  `bun:"created_at,notnull"`
	UpdatedAt int64  `bun:"updated_at,notnull"`
}

// ViewRow is the authoritative record for a view; unlike tables, views
// carry their metadata inline since they have no commit/versioning
// operation in this catalog's contract.
type ViewRow struct {
	bun.BaseModel `bun:"table:views"`

	ID        int64  `bun:"id,pk,autoincrement"`
	Namespace string `bun:"namespace_path,notnull,unique:view_identity"`
	Name      string `bun:"name,notnull,unique:view_identity"`
	Metadata  string `bun:"metadata_json,notnull"`
	Version   int    `bun:"version,notnull,default:1"`
	CreatedAt int64  `bun:"created_at,notnull"`
	UpdatedAt int64  `bun:"updated_at,notnull"`
}

// OpenSQLite opens a bun.DB over a local sqlite file, mirroring the
// teacher's bun-migration-manager construction pattern.
func OpenSQLite(path string) (*bun.DB, error) {
	sqldb, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, pkgerrors.Wrap(codeSchemaInit, pkgerrors.KindInternal, "open sqlite database", err).AddContext("path", path)
	}
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

// EnsureSchema creates the three registry tables if they do not already
// exist.
func EnsureSchema(ctx context.Context, db *bun.DB) error {
	models := []any{(*NamespaceRow)(nil), (*TableRow)(nil), (*ViewRow)(nil)}
	for _, m := range models {
		if _, err := db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return pkgerrors.Wrap(codeSchemaInit, pkgerrors.KindInternal, "create registry table", err)
		}
	}
	return nil
}
