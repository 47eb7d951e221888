package filesystem

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dot-do/iceberg-sub003/catalog"
	"github.com/dot-do/iceberg-sub003/iceberg"
	"github.com/dot-do/iceberg-sub003/iceberg/storage"
)

func newTestCatalog() *Catalog {
	return New(storage.NewMemory(), "memory://warehouse", zerolog.Nop())
}

func testSchema() *iceberg.Schema {
	return iceberg.NewSchema(0, iceberg.NestedField{ID: 1, Name: "id", Type: iceberg.LongType, Required: true})
}

func TestNamespaceLifecycle(t *testing.T) {
	ctx := context.Background()
	c := newTestCatalog()

	require.NoError(t, c.CreateNamespace(ctx, catalog.Identifier{"db"}, iceberg.Properties{"owner": "team-a"}))

	err := c.CreateNamespace(ctx, catalog.Identifier{"db"}, nil)
	assert.Error(t, err)

	ok, err := c.NamespaceExists(ctx, catalog.Identifier{"db"})
	require.NoError(t, err)
	assert.True(t, ok)

	props, err := c.GetNamespaceProperties(ctx, catalog.Identifier{"db"})
	require.NoError(t, err)
	assert.Equal(t, "team-a", props["owner"])

	summary, err := c.UpdateNamespaceProperties(ctx, catalog.Identifier{"db"}, iceberg.Properties{"region": "us"}, []string{"missing-key"})
	require.NoError(t, err)
	assert.Contains(t, summary.Updated, "region")
	assert.Contains(t, summary.Missing, "missing-key")

	namespaces, err := c.ListNamespaces(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, namespaces, 1)

	require.NoError(t, c.DropNamespace(ctx, catalog.Identifier{"db"}))
	ok, err = c.NamespaceExists(ctx, catalog.Identifier{"db"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCreateTableRequiresNamespace(t *testing.T) {
	ctx := context.Background()
	c := newTestCatalog()
	_, err := c.CreateTable(ctx, catalog.Identifier{"db", "t"}, catalog.CreateTableRequest{Schema: testSchema()})
	assert.Error(t, err)
}

func TestTableLifecycle(t *testing.T) {
	ctx := context.Background()
	c := newTestCatalog()
	require.NoError(t, c.CreateNamespace(ctx, catalog.Identifier{"db"}, nil))

	id := catalog.Identifier{"db", "orders"}
	meta, err := c.CreateTable(ctx, id, catalog.CreateTableRequest{Schema: testSchema()})
	require.NoError(t, err)
	assert.Equal(t, 2, meta.FormatVersion)

	_, err = c.CreateTable(ctx, id, catalog.CreateTableRequest{Schema: testSchema()})
	assert.Error(t, err)

	exists, err := c.TableExists(ctx, id)
	require.NoError(t, err)
	assert.True(t, exists)

	loaded, err := c.LoadTable(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, meta.TableUUID, loaded.TableUUID)

	tables, err := c.ListTables(ctx, catalog.Identifier{"db"})
	require.NoError(t, err)
	assert.Len(t, tables, 1)

	require.NoError(t, c.RenameTable(ctx, id, catalog.Identifier{"db", "orders2"}))
	_, err = c.LoadTable(ctx, id)
	assert.Error(t, err)
	renamed, err := c.LoadTable(ctx, catalog.Identifier{"db", "orders2"})
	require.NoError(t, err)
	assert.Equal(t, meta.TableUUID, renamed.TableUUID)

	require.NoError(t, c.DropTable(ctx, catalog.Identifier{"db", "orders2"}, false))
	exists, err = c.TableExists(ctx, catalog.Identifier{"db", "orders2"})
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCommitTableAppliesUpdatesAndRequirements(t *testing.T) {
	ctx := context.Background()
	c := newTestCatalog()
	require.NoError(t, c.CreateNamespace(ctx, catalog.Identifier{"db"}, nil))
	id := catalog.Identifier{"db", "t"}
	meta, err := c.CreateTable(ctx, id, catalog.CreateTableRequest{Schema: testSchema()})
	require.NoError(t, err)

	resp, err := c.CommitTable(ctx, catalog.CommitTableRequest{
		Identifier:   id,
		Requirements: []catalog.Requirement{{Kind: catalog.AssertTableUUID, UUID: meta.TableUUID}},
		Updates: []catalog.Update{
			{Kind: catalog.UpdateSetProperties, Properties: iceberg.Properties{"k": "v"}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "v", resp.Metadata.Properties["k"])

	_, err = c.CommitTable(ctx, catalog.CommitTableRequest{
		Identifier:   id,
		Requirements: []catalog.Requirement{{Kind: catalog.AssertTableUUID, UUID: "wrong-uuid"}},
	})
	assert.Error(t, err)
}

func TestViewLifecycle(t *testing.T) {
	ctx := context.Background()
	c := newTestCatalog()
	require.NoError(t, c.CreateNamespace(ctx, catalog.Identifier{"db"}, nil))

	id := catalog.Identifier{"db", "v1"}
	meta := &iceberg.ViewMetadata{
		ViewUUID:         "22222222-2222-2222-2222-222222222222",
		FormatVersion:    1,
		CurrentVersionID: 1,
		Schemas:          []*iceberg.Schema{testSchema()},
		Versions: []iceberg.ViewVersion{{
			VersionID:       1,
			SchemaID:        0,
			Representations: []iceberg.ViewRepresentation{{Type: "sql", SQL: "SELECT * FROM db.t"}},
		}},
	}
	require.NoError(t, c.CreateView(ctx, id, meta))

	exists, err := c.ViewExists(ctx, id)
	require.NoError(t, err)
	assert.True(t, exists)

	loaded, err := c.LoadView(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, meta.ViewUUID, loaded.ViewUUID)
	require.Len(t, loaded.Versions, 1)
	assert.Equal(t, "SELECT * FROM db.t", loaded.Versions[0].Representations[0].SQL)

	require.NoError(t, c.RenameView(ctx, id, catalog.Identifier{"db", "v2"}))
	_, err = c.LoadView(ctx, id)
	assert.Error(t, err)

	require.NoError(t, c.DropView(ctx, catalog.Identifier{"db", "v2"}))
	exists, err = c.ViewExists(ctx, catalog.Identifier{"db", "v2"})
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCreateTableRejectsViewNameCollision(t *testing.T) {
	ctx := context.Background()
	c := newTestCatalog()
	require.NoError(t, c.CreateNamespace(ctx, catalog.Identifier{"db"}, nil))
	id := catalog.Identifier{"db", "x"}
	require.NoError(t, c.CreateView(ctx, id, &iceberg.ViewMetadata{FormatVersion: 1, Schemas: []*iceberg.Schema{testSchema()}}))

	_, err := c.CreateTable(ctx, id, catalog.CreateTableRequest{Schema: testSchema()})
	assert.Error(t, err)
}
