package authoritative

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/dot-do/iceberg-sub003/catalog"
	"github.com/dot-do/iceberg-sub003/iceberg"
	"github.com/dot-do/iceberg-sub003/iceberg/storage"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	// A sqlite ":memory:" database is private to a single connection; cap
	// the pool at one so every query lands on the same in-memory instance.
	db.DB.SetMaxOpenConns(1)
	require.NoError(t, EnsureSchema(context.Background(), db))
	t.Cleanup(func() { db.Close() })
	return db
}

func testSchema() *iceberg.Schema {
	return iceberg.NewSchema(0, iceberg.NestedField{ID: 1, Name: "id", Type: iceberg.LongType, Required: true})
}

func TestNamespaceLifecycle(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	c := New(db, storage.NewMemory(), "memory://warehouse", zerolog.Nop())

	require.NoError(t, c.CreateNamespace(ctx, catalog.Identifier{"db"}, iceberg.Properties{"owner": "team-a"}))
	assert.Error(t, c.CreateNamespace(ctx, catalog.Identifier{"db"}, nil))

	ok, err := c.NamespaceExists(ctx, catalog.Identifier{"db"})
	require.NoError(t, err)
	assert.True(t, ok)

	props, err := c.GetNamespaceProperties(ctx, catalog.Identifier{"db"})
	require.NoError(t, err)
	assert.Equal(t, "team-a", props["owner"])

	summary, err := c.UpdateNamespaceProperties(ctx, catalog.Identifier{"db"}, iceberg.Properties{"region": "us"}, []string{"missing"})
	require.NoError(t, err)
	assert.Contains(t, summary.Updated, "region")
	assert.Contains(t, summary.Missing, "missing")

	require.NoError(t, c.DropNamespace(ctx, catalog.Identifier{"db"}))
	ok, err = c.NamespaceExists(ctx, catalog.Identifier{"db"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTableLifecycle(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	c := New(db, storage.NewMemory(), "memory://warehouse", zerolog.Nop())
	require.NoError(t, c.CreateNamespace(ctx, catalog.Identifier{"db"}, nil))

	id := catalog.Identifier{"db", "orders"}
	meta, err := c.CreateTable(ctx, id, catalog.CreateTableRequest{Schema: testSchema()})
	require.NoError(t, err)

	_, err = c.CreateTable(ctx, id, catalog.CreateTableRequest{Schema: testSchema()})
	assert.Error(t, err)

	loaded, err := c.LoadTable(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, meta.TableUUID, loaded.TableUUID)

	require.NoError(t, c.RenameTable(ctx, id, catalog.Identifier{"db", "orders2"}))
	_, err = c.LoadTable(ctx, id)
	assert.Error(t, err)

	resp, err := c.CommitTable(ctx, catalog.CommitTableRequest{
		Identifier: catalog.Identifier{"db", "orders2"},
		Updates:    []catalog.Update{{Kind: catalog.UpdateSetProperties, Properties: iceberg.Properties{"k": "v"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, "v", resp.Metadata.Properties["k"])

	require.NoError(t, c.DropTable(ctx, catalog.Identifier{"db", "orders2"}, false))
	exists, err := c.TableExists(ctx, catalog.Identifier{"db", "orders2"})
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCreateTableRejectsViewCollision(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	c := New(db, storage.NewMemory(), "memory://warehouse", zerolog.Nop())
	require.NoError(t, c.CreateNamespace(ctx, catalog.Identifier{"db"}, nil))

	id := catalog.Identifier{"db", "x"}
	require.NoError(t, c.CreateView(ctx, id, &iceberg.ViewMetadata{FormatVersion: 1, Schemas: []*iceberg.Schema{testSchema()}}))

	_, err := c.CreateTable(ctx, id, catalog.CreateTableRequest{Schema: testSchema()})
	assert.Error(t, err)
}

func TestDropNamespaceRequiresEmpty(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	c := New(db, storage.NewMemory(), "memory://warehouse", zerolog.Nop())
	require.NoError(t, c.CreateNamespace(ctx, catalog.Identifier{"db"}, nil))
	_, err := c.CreateTable(ctx, catalog.Identifier{"db", "t"}, catalog.CreateTableRequest{Schema: testSchema()})
	require.NoError(t, err)

	err = c.DropNamespace(ctx, catalog.Identifier{"db"})
	assert.Error(t, err)
}

// TestNamespaceExistsQueriesSQLite exercises NamespaceExists against a
// mocked driver, asserting the query it issues against the namespaces
// table without needing a real sqlite file.
func TestNamespaceExistsQueriesSQLite(t *testing.T) {
	sqldb, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer sqldb.Close()

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	c := New(bunDB, storage.NewMemory(), "memory://warehouse", zerolog.Nop())

	mock.ExpectQuery(`(?i)select.*from.*namespaces`).
		WillReturnRows(sqlmock.NewRows([]string{"one"}).AddRow(int64(1)))

	ok, err := c.NamespaceExists(context.Background(), catalog.Identifier{"db"})
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}
