package authoritative

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"
	"github.com/uptrace/bun"

	"github.com/dot-do/iceberg-sub003/catalog"
	"github.com/dot-do/iceberg-sub003/iceberg"
	"github.com/dot-do/iceberg-sub003/iceberg/codec"
	"github.com/dot-do/iceberg-sub003/iceberg/commit"
	"github.com/dot-do/iceberg-sub003/iceberg/storage"
	"github.com/dot-do/iceberg-sub003/iceberg/table"
	pkgerrors "github.com/dot-do/iceberg-sub003/pkg/errors"
)

const (
	defaultCacheSize = 1000
	defaultCacheTTL  = 60 * time.Second
)

var codeDB = pkgerrors.MustNewCode("authoritative.db")

// Catalog is the single-writer sqlite-backed catalog.Catalog.
type Catalog struct {
	db            *bun.DB
	backend       storage.ConditionalBackend
	engine        *commit.Engine
	warehouseRoot string
	logger        zerolog.Logger

	namespaceCache *expirable.LRU[string, iceberg.Properties]
	tableLocCache  *expirable.LRU[string, string]
}

// New constructs an authoritative Catalog. Callers must have already run
// EnsureSchema(ctx, db).
func New(db *bun.DB, backend storage.ConditionalBackend, warehouseRoot string, logger zerolog.Logger) *Catalog {
	return &Catalog{
		db:             db,
		backend:        backend,
		engine:         commit.NewEngine(backend, logger),
		warehouseRoot:  strings.TrimRight(warehouseRoot, "/"),
		logger:         logger.With().Str("component", "catalog.authoritative").Logger(),
		namespaceCache: expirable.NewLRU[string, iceberg.Properties](defaultCacheSize, nil, defaultCacheTTL),
		tableLocCache:  expirable.NewLRU[string, string](defaultCacheSize, nil, defaultCacheTTL),
	}
}

func (c *Catalog) tableLocation(id catalog.Identifier) string {
	return c.warehouseRoot + "/" + strings.Join([]string(id), "/")
}

// Namespaces.

func (c *Catalog) ListNamespaces(ctx context.Context, parent catalog.Identifier) ([]catalog.Identifier, error) {
	var rows []NamespaceRow
	if err := c.db.NewSelect().Model(&rows).Scan(ctx); err != nil {
		return nil, wrapDB(err)
	}
	wantDepth := len(parent) + 1
	var out []catalog.Identifier
	for _, r := range rows {
		segs := strings.Split(r.Path, "\x1f")
		if len(segs) != wantDepth || !hasPrefix(segs, parent) {
			continue
		}
		out = append(out, catalog.Identifier(segs))
	}
	return out, nil
}

func (c *Catalog) CreateNamespace(ctx context.Context, ns catalog.Identifier, props iceberg.Properties) error {
	propsJSON, err := json.Marshal(props)
	if err != nil {
		return err
	}
	now := iceberg.NowMs()
	row := &NamespaceRow{Path: ns.String(), Properties: string(propsJSON), Version: 1, CreatedAt: now, UpdatedAt: now}
	_, err = c.db.NewInsert().Model(row).Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return catalog.ErrNamespaceAlreadyExists(ns)
		}
		return wrapDB(err)
	}
	c.namespaceCache.Remove(ns.String())
	return nil
}

func (c *Catalog) NamespaceExists(ctx context.Context, ns catalog.Identifier) (bool, error) {
	if _, ok := c.namespaceCache.Get(ns.String()); ok {
		return true, nil
	}
	exists, err := c.db.NewSelect().Model((*NamespaceRow)(nil)).Where("path = ?", ns.String()).Exists(ctx)
	if err != nil {
		return false, wrapDB(err)
	}
	return exists, nil
}

func (c *Catalog) GetNamespaceProperties(ctx context.Context, ns catalog.Identifier) (iceberg.Properties, error) {
	if props, ok := c.namespaceCache.Get(ns.String()); ok {
		return cloneProps(props), nil
	}
	var row NamespaceRow
	err := c.db.NewSelect().Model(&row).Where("path = ?", ns.String()).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, catalog.ErrNamespaceNotFound(ns)
		}
		return nil, wrapDB(err)
	}
	var props iceberg.Properties
	if err := json.Unmarshal([]byte(row.Properties), &props); err != nil {
		return nil, pkgerrors.Wrap(codeDB, pkgerrors.KindInternal, "decode namespace properties", err)
	}
	c.namespaceCache.Add(ns.String(), props)
	return cloneProps(props), nil
}

func (c *Catalog) UpdateNamespaceProperties(ctx context.Context, ns catalog.Identifier, updates iceberg.Properties, removals []string) (catalog.PropertiesUpdateSummary, error) {
	var summary catalog.PropertiesUpdateSummary
	var row NamespaceRow
	err := c.db.NewSelect().Model(&row).Where("path = ?", ns.String()).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return summary, catalog.ErrNamespaceNotFound(ns)
		}
		return summary, wrapDB(err)
	}
	var props iceberg.Properties
	if err := json.Unmarshal([]byte(row.Properties), &props); err != nil {
		return summary, pkgerrors.Wrap(codeDB, pkgerrors.KindInternal, "decode namespace properties", err)
	}
	if props == nil {
		props = iceberg.Properties{}
	}
	for k, v := range updates {
		props[k] = v
		summary.Updated = append(summary.Updated, k)
	}
	for _, k := range removals {
		if _, ok := props[k]; ok {
			delete(props, k)
			summary.Removed = append(summary.Removed, k)
		} else {
			summary.Missing = append(summary.Missing, k)
		}
	}
	propsJSON, err := json.Marshal(props)
	if err != nil {
		return summary, err
	}

	res, err := c.db.NewUpdate().Model((*NamespaceRow)(nil)).
		Set("properties_json = ?", string(propsJSON)).
		Set("version = version + 1").
		Set("updated_at = ?", iceberg.NowMs()).
		Where("id = ? AND version = ?", row.ID, row.Version).
		Exec(ctx)
	if err != nil {
		return summary, wrapDB(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return summary, pkgerrors.New(codeDB, pkgerrors.KindConflict, "namespace properties changed concurrently; retry").WithEntity("namespace", ns.String())
	}
	c.namespaceCache.Remove(ns.String())
	return summary, nil
}

func (c *Catalog) DropNamespace(ctx context.Context, ns catalog.Identifier) error {
	exists, err := c.db.NewSelect().Model((*NamespaceRow)(nil)).Where("path = ?", ns.String()).Exists(ctx)
	if err != nil {
		return wrapDB(err)
	}
	if !exists {
		return catalog.ErrNamespaceNotFound(ns)
	}
	prefix := ns.String() + "\x1f"
	tableCount, err := c.db.NewSelect().Model((*TableRow)(nil)).Where("namespace_path = ? OR namespace_path LIKE ?", ns.String(), prefix+"%").Count(ctx)
	if err != nil {
		return wrapDB(err)
	}
	if tableCount > 0 {
		return catalog.ErrNamespaceNotEmpty(ns)
	}
	viewCount, err := c.db.NewSelect().Model((*ViewRow)(nil)).Where("namespace_path = ? OR namespace_path LIKE ?", ns.String(), prefix+"%").Count(ctx)
	if err != nil {
		return wrapDB(err)
	}
	if viewCount > 0 {
		return catalog.ErrNamespaceNotEmpty(ns)
	}
	childCount, err := c.db.NewSelect().Model((*NamespaceRow)(nil)).Where("path LIKE ?", prefix+"%").Count(ctx)
	if err != nil {
		return wrapDB(err)
	}
	if childCount > 0 {
		return catalog.ErrNamespaceNotEmpty(ns)
	}
	if _, err := c.db.NewDelete().Model((*NamespaceRow)(nil)).Where("path = ?", ns.String()).Exec(ctx); err != nil {
		return wrapDB(err)
	}
	c.namespaceCache.Remove(ns.String())
	return nil
}

// Tables.

func (c *Catalog) ListTables(ctx context.Context, ns catalog.Identifier) ([]catalog.Identifier, error) {
	var rows []TableRow
	if err := c.db.NewSelect().Model(&rows).Where("namespace_path = ?", ns.String()).Scan(ctx); err != nil {
		return nil, wrapDB(err)
	}
	out := make([]catalog.Identifier, 0, len(rows))
	for _, r := range rows {
		full := make(catalog.Identifier, len(ns)+1)
		copy(full, ns)
		full[len(ns)] = r.Name
		out = append(out, full)
	}
	return out, nil
}

func (c *Catalog) CreateTable(ctx context.Context, id catalog.Identifier, req catalog.CreateTableRequest) (*iceberg.TableMetadata, error) {
	ns := id.Namespace()
	nsExists, err := c.NamespaceExists(ctx, ns)
	if err != nil {
		return nil, err
	}
	if !nsExists {
		return nil, catalog.ErrNamespaceNotFound(ns)
	}
	if viewExists, err := c.db.NewSelect().Model((*ViewRow)(nil)).Where("namespace_path = ? AND name = ?", ns.String(), id.Name()).Exists(ctx); err != nil {
		return nil, wrapDB(err)
	} else if viewExists {
		return nil, catalog.ErrTableAlreadyExists(id, true)
	}

	location := req.Location
	if location == "" {
		location = c.tableLocation(id)
	}
	builder := table.NewBuilder([]string(id), req.Schema, location)
	if req.Spec != nil {
		builder = builder.WithPartitionSpec(*req.Spec)
	}
	if req.SortOrder != nil {
		builder = builder.WithSortOrder(*req.SortOrder)
	}
	if req.Properties != nil {
		builder = builder.WithProperties(req.Properties)
	}
	meta, err := builder.Build()
	if err != nil {
		return nil, err
	}
	if _, err := c.engine.Create(ctx, location, meta); err != nil {
		return nil, err
	}

	now := iceberg.NowMs()
	row := &TableRow{Namespace: ns.String(), Name: id.Name(), Location: location, Version: 1, CreatedAt: now, UpdatedAt: now}
	if _, err := c.db.NewInsert().Model(row).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			c.logger.Warn().Str("table", id.String()).Msg("table metadata written but registry insert lost a race; orphaned metadata left in place")
			return nil, catalog.ErrTableAlreadyExists(id, false)
		}
		return nil, wrapDB(err)
	}
	c.tableLocCache.Add(id.String(), location)
	return meta, nil
}

func (c *Catalog) lookupTableLocation(ctx context.Context, id catalog.Identifier) (string, error) {
	if loc, ok := c.tableLocCache.Get(id.String()); ok {
		return loc, nil
	}
	var row TableRow
	err := c.db.NewSelect().Model(&row).Where("namespace_path = ? AND name = ?", id.Namespace().String(), id.Name()).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", catalog.ErrTableNotFound(id)
		}
		return "", wrapDB(err)
	}
	c.tableLocCache.Add(id.String(), row.Location)
	return row.Location, nil
}

func (c *Catalog) LoadTable(ctx context.Context, id catalog.Identifier) (*iceberg.TableMetadata, error) {
	location, err := c.lookupTableLocation(ctx, id)
	if err != nil {
		return nil, err
	}
	n, err := c.engine.CurrentVersion(ctx, location)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, catalog.ErrTableNotFound(id)
	}
	return c.engine.LoadMetadata(ctx, location, n)
}

func (c *Catalog) TableExists(ctx context.Context, id catalog.Identifier) (bool, error) {
	if _, ok := c.tableLocCache.Get(id.String()); ok {
		return true, nil
	}
	exists, err := c.db.NewSelect().Model((*TableRow)(nil)).Where("namespace_path = ? AND name = ?", id.Namespace().String(), id.Name()).Exists(ctx)
	if err != nil {
		return false, wrapDB(err)
	}
	return exists, nil
}

func (c *Catalog) DropTable(ctx context.Context, id catalog.Identifier, purge bool) error {
	var row TableRow
	err := c.db.NewSelect().Model(&row).Where("namespace_path = ? AND name = ?", id.Namespace().String(), id.Name()).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return catalog.ErrTableNotFound(id)
		}
		return wrapDB(err)
	}
	if _, err := c.db.NewDelete().Model((*TableRow)(nil)).Where("id = ?", row.ID).Exec(ctx); err != nil {
		return wrapDB(err)
	}
	c.tableLocCache.Remove(id.String())
	if purge {
		c.purgeLocation(ctx, row.Location)
	}
	return nil
}

func (c *Catalog) purgeLocation(ctx context.Context, location string) {
	keys, err := c.backend.List(ctx, strings.TrimRight(location, "/")+"/")
	if err != nil {
		c.logger.Warn().Err(err).Str("location", location).Msg("purge: list failed")
		return
	}
	for _, k := range keys {
		if err := c.backend.Delete(ctx, k); err != nil {
			c.logger.Warn().Err(err).Str("key", k).Msg("purge: delete failed")
		}
	}
}

func (c *Catalog) RenameTable(ctx context.Context, from, to catalog.Identifier) error {
	var row TableRow
	err := c.db.NewSelect().Model(&row).Where("namespace_path = ? AND name = ?", from.Namespace().String(), from.Name()).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return catalog.ErrTableNotFound(from)
		}
		return wrapDB(err)
	}
	toNS := to.Namespace()
	if nsExists, err := c.NamespaceExists(ctx, toNS); err != nil {
		return err
	} else if !nsExists {
		return catalog.ErrNamespaceNotFound(toNS)
	}
	if viewExists, err := c.db.NewSelect().Model((*ViewRow)(nil)).Where("namespace_path = ? AND name = ?", toNS.String(), to.Name()).Exists(ctx); err != nil {
		return wrapDB(err)
	} else if viewExists {
		return catalog.ErrTableAlreadyExists(to, true)
	}

	res, err := c.db.NewUpdate().Model((*TableRow)(nil)).
		Set("namespace_path = ?", toNS.String()).
		Set("name = ?", to.Name()).
		Set("version = version + 1").
		Set("updated_at = ?", iceberg.NowMs()).
		Where("id = ? AND version = ?", row.ID, row.Version).
		Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return catalog.ErrTableAlreadyExists(to, false)
		}
		return wrapDB(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return pkgerrors.New(codeDB, pkgerrors.KindConflict, "table changed concurrently; retry rename").WithEntity("table", from.String())
	}
	c.tableLocCache.Remove(from.String())
	c.tableLocCache.Add(to.String(), row.Location)
	return nil
}

func (c *Catalog) CommitTable(ctx context.Context, req catalog.CommitTableRequest) (catalog.CommitTableResponse, error) {
	location, err := c.lookupTableLocation(ctx, req.Identifier)
	if err != nil {
		return catalog.CommitTableResponse{}, err
	}
	result, err := c.engine.Commit(ctx, location, func(current *iceberg.TableMetadata) (*iceberg.TableMetadata, error) {
		if err := catalog.ValidateRequirements(current, req.Requirements); err != nil {
			return nil, err
		}
		return catalog.ApplyUpdates(current, req.Updates)
	})
	if err != nil {
		return catalog.CommitTableResponse{}, err
	}
	return catalog.CommitTableResponse{MetadataLocation: result.MetadataLocation, Metadata: result.Metadata}, nil
}

// Views.

func (c *Catalog) ListViews(ctx context.Context, ns catalog.Identifier) ([]catalog.Identifier, error) {
	var rows []ViewRow
	if err := c.db.NewSelect().Model(&rows).Where("namespace_path = ?", ns.String()).Scan(ctx); err != nil {
		return nil, wrapDB(err)
	}
	out := make([]catalog.Identifier, 0, len(rows))
	for _, r := range rows {
		full := make(catalog.Identifier, len(ns)+1)
		copy(full, ns)
		full[len(ns)] = r.Name
		out = append(out, full)
	}
	return out, nil
}

func (c *Catalog) CreateView(ctx context.Context, id catalog.Identifier, meta *iceberg.ViewMetadata) error {
	ns := id.Namespace()
	nsExists, err := c.NamespaceExists(ctx, ns)
	if err != nil {
		return err
	}
	if !nsExists {
		return catalog.ErrNamespaceNotFound(ns)
	}
	if tableExists, err := c.db.NewSelect().Model((*TableRow)(nil)).Where("namespace_path = ? AND name = ?", ns.String(), id.Name()).Exists(ctx); err != nil {
		return wrapDB(err)
	} else if tableExists {
		return catalog.ErrViewAlreadyExists(id, true)
	}

	data, err := codec.EncodeViewMetadata(meta)
	if err != nil {
		return err
	}
	now := iceberg.NowMs()
	row := &ViewRow{Namespace: ns.String(), Name: id.Name(), Metadata: string(data), Version: 1, CreatedAt: now, UpdatedAt: now}
	if _, err := c.db.NewInsert().Model(row).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return catalog.ErrViewAlreadyExists(id, false)
		}
		return wrapDB(err)
	}
	return nil
}

func (c *Catalog) LoadView(ctx context.Context, id catalog.Identifier) (*iceberg.ViewMetadata, error) {
	var row ViewRow
	err := c.db.NewSelect().Model(&row).Where("namespace_path = ? AND name = ?", id.Namespace().String(), id.Name()).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, catalog.ErrViewNotFound(id)
		}
		return nil, wrapDB(err)
	}
	return codec.DecodeViewMetadata([]byte(row.Metadata))
}

func (c *Catalog) ViewExists(ctx context.Context, id catalog.Identifier) (bool, error) {
	exists, err := c.db.NewSelect().Model((*ViewRow)(nil)).Where("namespace_path = ? AND name = ?", id.Namespace().String(), id.Name()).Exists(ctx)
	if err != nil {
		return false, wrapDB(err)
	}
	return exists, nil
}

func (c *Catalog) DropView(ctx context.Context, id catalog.Identifier) error {
	res, err := c.db.NewDelete().Model((*ViewRow)(nil)).Where("namespace_path = ? AND name = ?", id.Namespace().String(), id.Name()).Exec(ctx)
	if err != nil {
		return wrapDB(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return catalog.ErrViewNotFound(id)
	}
	return nil
}

func (c *Catalog) RenameView(ctx context.Context, from, to catalog.Identifier) error {
	var row ViewRow
	err := c.db.NewSelect().Model(&row).Where("namespace_path = ? AND name = ?", from.Namespace().String(), from.Name()).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return catalog.ErrViewNotFound(from)
		}
		return wrapDB(err)
	}
	toNS := to.Namespace()
	if nsExists, err := c.NamespaceExists(ctx, toNS); err != nil {
		return err
	} else if !nsExists {
		return catalog.ErrNamespaceNotFound(toNS)
	}
	if tableExists, err := c.db.NewSelect().Model((*TableRow)(nil)).Where("namespace_path = ? AND name = ?", toNS.String(), to.Name()).Exists(ctx); err != nil {
		return wrapDB(err)
	} else if tableExists {
		return catalog.ErrViewAlreadyExists(to, true)
	}

	res, err := c.db.NewUpdate().Model((*ViewRow)(nil)).
		Set("namespace_path = ?", toNS.String()).
		Set("name = ?", to.Name()).
		Set("version = version + 1").
		Set("updated_at = ?", iceberg.NowMs()).
		Where("id = ? AND version = ?", row.ID, row.Version).
		Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return catalog.ErrViewAlreadyExists(to, false)
		}
		return wrapDB(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return pkgerrors.New(codeDB, pkgerrors.KindConflict, "view changed concurrently; retry rename").WithEntity("view", from.String())
	}
	return nil
}

func hasPrefix(segs []string, prefix catalog.Identifier) bool {
	if len(segs) < len(prefix) {
		return false
	}
	for i, p := range prefix {
		if segs[i] != p {
			return false
		}
	}
	return true
}

func cloneProps(props iceberg.Properties) iceberg.Properties {
	if props == nil {
		return nil
	}
	out := make(iceberg.Properties, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out
}

func isUniqueViolation(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "unique")
}

func wrapDB(err error) error {
	return pkgerrors.Wrap(codeDB, pkgerrors.KindInternal, "registry query failed", err)
}
