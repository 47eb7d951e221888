// Package filesystem implements catalog.Catalog as a single JSON registry
// file plus per-table metadata managed by the commit engine, adapting the
// single-file JSON catalog pattern (server/catalog/json) to the
// StorageBackend abstraction: registry updates go through CompareAndSwap
// instead of a local temp-file-and-rename.
package filesystem

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dot-do/iceberg-sub003/catalog"
	"github.com/dot-do/iceberg-sub003/iceberg"
	"github.com/dot-do/iceberg-sub003/iceberg/codec"
	"github.com/dot-do/iceberg-sub003/iceberg/commit"
	"github.com/dot-do/iceberg-sub003/iceberg/storage"
	"github.com/dot-do/iceberg-sub003/iceberg/table"
	pkgerrors "github.com/dot-do/iceberg-sub003/pkg/errors"
	"github.com/dot-do/iceberg-sub003/pkg/retry"
)

var codeRegistryDecode = pkgerrors.MustNewCode("filesystem.registry_decode")

type namespaceEntry struct {
	Properties iceberg.Properties `json:"properties"`
	CreatedAt  int64              `json:"created_at"`
	UpdatedAt  int64              `json:"updated_at"`
}

type tableEntry struct {
	Location  string `json:"location"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

type viewEntry struct {
	Location  string `json:"location"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

type registryData struct {
	Namespaces map[string]namespaceEntry `json:"namespaces"`
	Tables     map[string]tableEntry     `json:"tables"`
	Views      map[string]viewEntry      `json:"views"`
}

func newRegistryData() *registryData {
	return &registryData{
		Namespaces: map[string]namespaceEntry{},
		Tables:     map[string]tableEntry{},
		Views:      map[string]viewEntry{},
	}
}

// Catalog is a single-file-registry catalog backed by any
// storage.ConditionalBackend. It delegates table metadata versioning
// entirely to commit.Engine; the registry only tracks which identifiers
// exist and where their current metadata location is.
type Catalog struct {
	backend       storage.ConditionalBackend
	engine        *commit.Engine
	warehouseRoot string
	registryKey   string
	logger        zerolog.Logger
	retry         retry.Config
}

// New constructs a filesystem Catalog rooted at warehouseRoot. The registry
// file lives at warehouseRoot/catalog-registry.json.
func New(backend storage.ConditionalBackend, warehouseRoot string, logger zerolog.Logger) *Catalog {
	return &Catalog{
		backend:       backend,
		engine:        commit.NewEngine(backend, logger),
		warehouseRoot: strings.TrimRight(warehouseRoot, "/"),
		registryKey:   strings.TrimRight(warehouseRoot, "/") + "/catalog-registry.json",
		logger:        logger.With().Str("component", "catalog.filesystem").Logger(),
		retry:         retry.DefaultCommitConfig(),
	}
}

func (c *Catalog) tableLocation(id catalog.Identifier) string {
	return c.warehouseRoot + "/" + strings.Join([]string(id), "/")
}

func (c *Catalog) viewLocation(id catalog.Identifier) string {
	return c.warehouseRoot + "/" + strings.Join([]string(id), "/") + "/metadata/00001-view.metadata.json"
}

func (c *Catalog) loadRegistry(ctx context.Context) (*registryData, []byte, error) {
	raw, err := c.backend.Get(ctx, c.registryKey)
	if err != nil {
		if err == storage.ErrNotFound || pkgerrors.IsNotFound(err) {
			return newRegistryData(), nil, nil
		}
		return nil, nil, err
	}
	var d registryData
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, nil, pkgerrors.Wrap(codeRegistryDecode, pkgerrors.KindInternal, "decode catalog registry", err)
	}
	if d.Namespaces == nil {
		d.Namespaces = map[string]namespaceEntry{}
	}
	if d.Tables == nil {
		d.Tables = map[string]tableEntry{}
	}
	if d.Views == nil {
		d.Views = map[string]viewEntry{}
	}
	return &d, raw, nil
}

// mutateRegistry loads the registry, applies fn, and writes the result back
// with compare-and-swap, retrying on conflicting concurrent writers. fn
// returning a non-nil error aborts without writing (wrapped as permanent
// unless it is itself a conflict, which is never the case here since fn
// operates on a private copy).
func (c *Catalog) mutateRegistry(ctx context.Context, fn func(d *registryData) error) error {
	return retry.Do(ctx, c.retry, c.logger, func(ctx context.Context, attempt int) error {
		d, raw, err := c.loadRegistry(ctx)
		if err != nil {
			return retry.Permanent(err)
		}
		if err := fn(d); err != nil {
			return retry.Permanent(err)
		}
		newRaw, err := json.Marshal(d)
		if err != nil {
			return retry.Permanent(err)
		}
		if err := c.backend.CompareAndSwap(ctx, c.registryKey, raw, newRaw); err != nil {
			if err == storage.ErrConflict || pkgerrors.IsConflict(err) {
				return err
			}
			return retry.Permanent(err)
		}
		return nil
	})
}

// Namespaces.

func (c *Catalog) ListNamespaces(ctx context.Context, parent catalog.Identifier) ([]catalog.Identifier, error) {
	d, _, err := c.loadRegistry(ctx)
	if err != nil {
		return nil, err
	}
	wantDepth := len(parent) + 1
	var out []catalog.Identifier
	for key := range d.Namespaces {
		segs := splitKey(key)
		if len(segs) != wantDepth {
			continue
		}
		if !hasPrefix(segs, parent) {
			continue
		}
		out = append(out, catalog.Identifier(segs))
	}
	return out, nil
}

func (c *Catalog) CreateNamespace(ctx context.Context, ns catalog.Identifier, props iceberg.Properties) error {
	return c.mutateRegistry(ctx, func(d *registryData) error {
		if _, ok := d.Namespaces[ns.String()]; ok {
			return catalog.ErrNamespaceAlreadyExists(ns)
		}
		now := iceberg.NowMs()
		d.Namespaces[ns.String()] = namespaceEntry{Properties: cloneProps(props), CreatedAt: now, UpdatedAt: now}
		return nil
	})
}

func (c *Catalog) NamespaceExists(ctx context.Context, ns catalog.Identifier) (bool, error) {
	d, _, err := c.loadRegistry(ctx)
	if err != nil {
		return false, err
	}
	_, ok := d.Namespaces[ns.String()]
	return ok, nil
}

func (c *Catalog) GetNamespaceProperties(ctx context.Context, ns catalog.Identifier) (iceberg.Properties, error) {
	d, _, err := c.loadRegistry(ctx)
	if err != nil {
		return nil, err
	}
	entry, ok := d.Namespaces[ns.String()]
	if !ok {
		return nil, catalog.ErrNamespaceNotFound(ns)
	}
	return cloneProps(entry.Properties), nil
}

func (c *Catalog) UpdateNamespaceProperties(ctx context.Context, ns catalog.Identifier, updates iceberg.Properties, removals []string) (catalog.PropertiesUpdateSummary, error) {
	var summary catalog.PropertiesUpdateSummary
	err := c.mutateRegistry(ctx, func(d *registryData) error {
		entry, ok := d.Namespaces[ns.String()]
		if !ok {
			return catalog.ErrNamespaceNotFound(ns)
		}
		props := cloneProps(entry.Properties)
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
		entry.Properties = props
		entry.UpdatedAt = iceberg.NowMs()
		d.Namespaces[ns.String()] = entry
		return nil
	})
	if err != nil {
		return catalog.PropertiesUpdateSummary{}, err
	}
	return summary, nil
}

func (c *Catalog) DropNamespace(ctx context.Context, ns catalog.Identifier) error {
	return c.mutateRegistry(ctx, func(d *registryData) error {
		if _, ok := d.Namespaces[ns.String()]; !ok {
			return catalog.ErrNamespaceNotFound(ns)
		}
		for key := range d.Tables {
			if hasPrefix(splitKey(key), ns) {
				return catalog.ErrNamespaceNotEmpty(ns)
			}
		}
		for key := range d.Views {
			if hasPrefix(splitKey(key), ns) {
				return catalog.ErrNamespaceNotEmpty(ns)
			}
		}
		for key := range d.Namespaces {
			segs := splitKey(key)
			if len(segs) == len(ns)+1 && hasPrefix(segs, ns) {
				return catalog.ErrNamespaceNotEmpty(ns)
			}
		}
		delete(d.Namespaces, ns.String())
		return nil
	})
}

// Tables.

func (c *Catalog) ListTables(ctx context.Context, ns catalog.Identifier) ([]catalog.Identifier, error) {
	d, _, err := c.loadRegistry(ctx)
	if err != nil {
		return nil, err
	}
	var out []catalog.Identifier
	for key := range d.Tables {
		segs := splitKey(key)
		if len(segs) != len(ns)+1 {
			continue
		}
		if !hasPrefix(segs, ns) {
			continue
		}
		out = append(out, catalog.Identifier(segs))
	}
	return out, nil
}

func (c *Catalog) CreateTable(ctx context.Context, id catalog.Identifier, req catalog.CreateTableRequest) (*iceberg.TableMetadata, error) {
	d, _, err := c.loadRegistry(ctx)
	if err != nil {
		return nil, err
	}
	ns := id.Namespace()
	if _, ok := d.Namespaces[ns.String()]; !ok {
		return nil, catalog.ErrNamespaceNotFound(ns)
	}
	if _, ok := d.Tables[id.String()]; ok {
		return nil, catalog.ErrTableAlreadyExists(id, false)
	}
	if _, ok := d.Views[id.String()]; ok {
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

	err = c.mutateRegistry(ctx, func(d *registryData) error {
		if _, ok := d.Tables[id.String()]; ok {
			return catalog.ErrTableAlreadyExists(id, false)
		}
		if _, ok := d.Views[id.String()]; ok {
			return catalog.ErrTableAlreadyExists(id, true)
		}
		now := iceberg.NowMs()
		d.Tables[id.String()] = tableEntry{Location: location, CreatedAt: now, UpdatedAt: now}
		return nil
	})
	if err != nil {
		c.logger.Warn().Str("table", id.String()).Msg("table metadata written but registry registration lost a race; orphaned metadata left in place")
		return nil, err
	}
	return meta, nil
}

func (c *Catalog) LoadTable(ctx context.Context, id catalog.Identifier) (*iceberg.TableMetadata, error) {
	d, _, err := c.loadRegistry(ctx)
	if err != nil {
		return nil, err
	}
	entry, ok := d.Tables[id.String()]
	if !ok {
		return nil, catalog.ErrTableNotFound(id)
	}
	n, err := c.engine.CurrentVersion(ctx, entry.Location)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, catalog.ErrTableNotFound(id)
	}
	return c.engine.LoadMetadata(ctx, entry.Location, n)
}

func (c *Catalog) TableExists(ctx context.Context, id catalog.Identifier) (bool, error) {
	d, _, err := c.loadRegistry(ctx)
	if err != nil {
		return false, err
	}
	_, ok := d.Tables[id.String()]
	return ok, nil
}

func (c *Catalog) DropTable(ctx context.Context, id catalog.Identifier, purge bool) error {
	var location string
	err := c.mutateRegistry(ctx, func(d *registryData) error {
		entry, ok := d.Tables[id.String()]
		if !ok {
			return catalog.ErrTableNotFound(id)
		}
		location = entry.Location
		delete(d.Tables, id.String())
		return nil
	})
	if err != nil {
		return err
	}
	if purge {
		c.purgeLocation(ctx, location)
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
	return c.mutateRegistry(ctx, func(d *registryData) error {
		entry, ok := d.Tables[from.String()]
		if !ok {
			return catalog.ErrTableNotFound(from)
		}
		if _, ok := d.Namespaces[to.Namespace().String()]; !ok {
			return catalog.ErrNamespaceNotFound(to.Namespace())
		}
		if _, ok := d.Views[to.String()]; ok {
			return catalog.ErrTableAlreadyExists(to, true)
		}
		if _, ok := d.Tables[to.String()]; ok {
			return catalog.ErrTableAlreadyExists(to, false)
		}
		delete(d.Tables, from.String())
		entry.UpdatedAt = iceberg.NowMs()
		d.Tables[to.String()] = entry
		return nil
	})
}

func (c *Catalog) CommitTable(ctx context.Context, req catalog.CommitTableRequest) (catalog.CommitTableResponse, error) {
	d, _, err := c.loadRegistry(ctx)
	if err != nil {
		return catalog.CommitTableResponse{}, err
	}
	entry, ok := d.Tables[req.Identifier.String()]
	if !ok {
		return catalog.CommitTableResponse{}, catalog.ErrTableNotFound(req.Identifier)
	}

	result, err := c.engine.Commit(ctx, entry.Location, func(current *iceberg.TableMetadata) (*iceberg.TableMetadata, error) {
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
	d, _, err := c.loadRegistry(ctx)
	if err != nil {
		return nil, err
	}
	var out []catalog.Identifier
	for key := range d.Views {
		segs := splitKey(key)
		if len(segs) != len(ns)+1 {
			continue
		}
		if !hasPrefix(segs, ns) {
			continue
		}
		out = append(out, catalog.Identifier(segs))
	}
	return out, nil
}

func (c *Catalog) CreateView(ctx context.Context, id catalog.Identifier, meta *iceberg.ViewMetadata) error {
	d, _, err := c.loadRegistry(ctx)
	if err != nil {
		return err
	}
	ns := id.Namespace()
	if _, ok := d.Namespaces[ns.String()]; !ok {
		return catalog.ErrNamespaceNotFound(ns)
	}
	if _, ok := d.Tables[id.String()]; ok {
		return catalog.ErrViewAlreadyExists(id, true)
	}
	if _, ok := d.Views[id.String()]; ok {
		return catalog.ErrViewAlreadyExists(id, false)
	}

	location := meta.Location
	if location == "" {
		location = c.viewLocation(id)
	}
	stored := *meta
	stored.Location = location
	data, err := codec.EncodeViewMetadata(&stored)
	if err != nil {
		return err
	}
	if err := c.backend.PutIfAbsent(ctx, location, data); err != nil {
		if err == storage.ErrConflict || pkgerrors.IsConflict(err) {
			return catalog.ErrViewAlreadyExists(id, false)
		}
		return err
	}

	return c.mutateRegistry(ctx, func(d *registryData) error {
		if _, ok := d.Views[id.String()]; ok {
			return catalog.ErrViewAlreadyExists(id, false)
		}
		if _, ok := d.Tables[id.String()]; ok {
			return catalog.ErrViewAlreadyExists(id, true)
		}
		now := iceberg.NowMs()
		d.Views[id.String()] = viewEntry{Location: location, CreatedAt: now, UpdatedAt: now}
		return nil
	})
}

func (c *Catalog) LoadView(ctx context.Context, id catalog.Identifier) (*iceberg.ViewMetadata, error) {
	d, _, err := c.loadRegistry(ctx)
	if err != nil {
		return nil, err
	}
	entry, ok := d.Views[id.String()]
	if !ok {
		return nil, catalog.ErrViewNotFound(id)
	}
	data, err := c.backend.Get(ctx, entry.Location)
	if err != nil {
		return nil, err
	}
	return codec.DecodeViewMetadata(data)
}

func (c *Catalog) ViewExists(ctx context.Context, id catalog.Identifier) (bool, error) {
	d, _, err := c.loadRegistry(ctx)
	if err != nil {
		return false, err
	}
	_, ok := d.Views[id.String()]
	return ok, nil
}

func (c *Catalog) DropView(ctx context.Context, id catalog.Identifier) error {
	var location string
	err := c.mutateRegistry(ctx, func(d *registryData) error {
		entry, ok := d.Views[id.String()]
		if !ok {
			return catalog.ErrViewNotFound(id)
		}
		location = entry.Location
		delete(d.Views, id.String())
		return nil
	})
	if err != nil {
		return err
	}
	if err := c.backend.Delete(ctx, location); err != nil {
		c.logger.Warn().Err(err).Str("location", location).Msg("drop view: delete metadata failed")
	}
	return nil
}

func (c *Catalog) RenameView(ctx context.Context, from, to catalog.Identifier) error {
	return c.mutateRegistry(ctx, func(d *registryData) error {
		entry, ok := d.Views[from.String()]
		if !ok {
			return catalog.ErrViewNotFound(from)
		}
		if _, ok := d.Namespaces[to.Namespace().String()]; !ok {
			return catalog.ErrNamespaceNotFound(to.Namespace())
		}
		if _, ok := d.Tables[to.String()]; ok {
			return catalog.ErrViewAlreadyExists(to, true)
		}
		if _, ok := d.Views[to.String()]; ok {
			return catalog.ErrViewAlreadyExists(to, false)
		}
		delete(d.Views, from.String())
		entry.UpdatedAt = iceberg.NowMs()
		d.Views[to.String()] = entry
		return nil
	})
}

func splitKey(key string) []string {
	return strings.Split(key, "\x1f")
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
