package commit

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dot-do/iceberg-sub003/iceberg"
	"github.com/dot-do/iceberg-sub003/iceberg/codec"
	"github.com/dot-do/iceberg-sub003/iceberg/storage"
	pkgerrors "github.com/dot-do/iceberg-sub003/pkg/errors"
	"github.com/dot-do/iceberg-sub003/pkg/retry"
)

var (
	codeAlreadyCreated = pkgerrors.MustNewCode("commit.table_already_created")
	codeCommitConflict = pkgerrors.MustNewCode("commit.conflict")
)

// IsConflict reports whether err is a commit conflict (including one that
// survived the retry loop as CommitRetryExhausted's wrapped cause).
func IsConflict(err error) bool { return pkgerrors.IsConflict(err) }

// RetentionConfig bounds the metadata-log retention sweep (defaults: retain
// 10 versions, max age 7 days).
type RetentionConfig struct {
	RetainVersions int
	MaxAgeMs       int64
	// OnCleanupFailure, if set, receives a non-nil error when pruning an old
	// metadata file fails. Cleanup failures never fail the commit.
	OnCleanupFailure func(error)
}

// DefaultRetention returns the default retention policy.
func DefaultRetention() RetentionConfig {
	return RetentionConfig{
		RetainVersions: iceberg.DefaultRetainVersions,
		MaxAgeMs:       iceberg.DefaultMaxAgeMs,
	}
}

// ApplyFunc builds a pending TableMetadata from the currently-committed one.
// It must not mutate current; AppendSnapshot-style helpers in package table
// already return copies. Returning a Permanent-wrapped error via
// pkg/retry.Permanent (or any error that is not a conflict) aborts the
// commit without retrying.
type ApplyFunc func(current *iceberg.TableMetadata) (*iceberg.TableMetadata, error)

// Result describes a successful commit.
type Result struct {
	Metadata         *iceberg.TableMetadata
	MetadataLocation string
	Version          int
	Attempts         int
	ConflictResolved bool
}

// Engine owns the two artifacts of the atomic commit protocol: the
// versioned metadata file and the version-hint pointer. It requires a
// ConditionalBackend, since optimistic concurrency control is impossible
// without at least one of PutIfAbsent/CompareAndSwap.
type Engine struct {
	backend   storage.ConditionalBackend
	logger    zerolog.Logger
	retry     retry.Config
	retention RetentionConfig
}

// NewEngine constructs a commit Engine over backend with the default retry
// schedule and retention policy.
func NewEngine(backend storage.ConditionalBackend, logger zerolog.Logger) *Engine {
	return &Engine{
		backend:   backend,
		logger:    logger.With().Str("component", "commit").Logger(),
		retry:     retry.DefaultCommitConfig(),
		retention: DefaultRetention(),
	}
}

// WithRetry overrides the retry schedule.
func (e *Engine) WithRetry(cfg retry.Config) *Engine {
	e.retry = cfg
	return e
}

// WithRetention overrides the metadata-log retention policy.
func (e *Engine) WithRetention(cfg RetentionConfig) *Engine {
	e.retention = cfg
	return e
}

func pointerKey(location string) string {
	return strings.TrimRight(location, "/") + "/" + iceberg.MetadataDir + "/" + iceberg.VersionHintFilename
}

func metadataKey(location string, version int) string {
	return fmt.Sprintf("%s/%s/v%d.metadata.json", strings.TrimRight(location, "/"), iceberg.MetadataDir, version)
}

// CurrentVersion reads the version-hint pointer, returning 0 if the table
// has not yet been created (no pointer written).
func (e *Engine) CurrentVersion(ctx context.Context, location string) (int, error) {
	data, err := e.backend.Get(ctx, pointerKey(location))
	if err != nil {
		if err == storage.ErrNotFound || pkgerrors.IsNotFound(err) {
			return 0, nil
		}
		return 0, err
	}
	n, convErr := strconv.Atoi(strings.TrimSpace(string(data)))
	if convErr != nil {
		return 0, pkgerrors.Wrap(codeCommitConflict, pkgerrors.KindInternal, "version-hint.text does not contain a decimal version", convErr)
	}
	return n, nil
}

// LoadMetadata reads and decodes TableMetadata[version] for location.
func (e *Engine) LoadMetadata(ctx context.Context, location string, version int) (*iceberg.TableMetadata, error) {
	data, err := e.backend.Get(ctx, metadataKey(location, version))
	if err != nil {
		return nil, err
	}
	return codec.DecodeTableMetadata(data)
}

// Create writes the table's first metadata file (v1) and the version-hint
// pointer, used by the catalog's CreateTable path (the commit protocol
// begins at version 1; version 0 means "table does not exist yet"). Create
// is itself conflict-safe: two concurrent creates race on PutIfAbsent at
// v1.metadata.json.
func (e *Engine) Create(ctx context.Context, location string, meta *iceberg.TableMetadata) (*Result, error) {
	if err := iceberg.Validate(meta); err != nil {
		return nil, err
	}
	data, err := codec.EncodeTableMetadata(meta)
	if err != nil {
		return nil, err
	}
	metaKey := metadataKey(location, 1)
	if err := e.backend.PutIfAbsent(ctx, metaKey, data); err != nil {
		if err == storage.ErrConflict || pkgerrors.IsConflict(err) {
			return nil, pkgerrors.Wrap(codeAlreadyCreated, pkgerrors.KindConflict, "table metadata already exists at v1", err).WithEntity("table", meta.TableUUID)
		}
		return nil, err
	}
	if err := e.flipPointer(ctx, location, 0, 1); err != nil {
		_ = e.backend.Delete(ctx, metaKey)
		return nil, err
	}
	return &Result{Metadata: meta, MetadataLocation: metaKey, Version: 1, Attempts: 1}, nil
}

// flipPointer moves the version-hint from old to new, preferring
// compare-and-swap; backends that report ErrUnsupported for CAS fall back
// to an unconditional Put, relying on the PutIfAbsent race at the
// versioned-metadata-write step to have already serialized writers.
func (e *Engine) flipPointer(ctx context.Context, location string, old, new int) error {
	var expected []byte
	if old > 0 {
		expected = []byte(strconv.Itoa(old))
	}
	newHint := []byte(strconv.Itoa(new))
	err := e.backend.CompareAndSwap(ctx, pointerKey(location), expected, newHint)
	if err == nil {
		return nil
	}
	if err == storage.ErrUnsupported || pkgerrors.Is(err, storage.CodeUnsupported) {
		return e.backend.Put(ctx, pointerKey(location), newHint)
	}
	return err
}

// Commit runs the atomic commit protocol: load current metadata, build a
// pending version via apply, write it at current+1 with create-if-absent
// semantics, then flip the pointer. On conflict at either step it retries
// with jittered exponential backoff, reloading current metadata
// fresh on each attempt so apply sees the winning peer's state.
func (e *Engine) Commit(ctx context.Context, location string, apply ApplyFunc) (*Result, error) {
	var result *Result
	conflictSeen := false

	err := retry.Do(ctx, e.retry, e.logger, func(ctx context.Context, attempt int) error {
		n, err := e.CurrentVersion(ctx, location)
		if err != nil {
			return retry.Permanent(err)
		}
		if n == 0 {
			return retry.Permanent(pkgerrors.New(codeCommitConflict, pkgerrors.KindNotFound, "table has no metadata; call Create first").WithEntity("table", location))
		}
		current, err := e.LoadMetadata(ctx, location, n)
		if err != nil {
			return retry.Permanent(err)
		}

		pending, err := apply(current)
		if err != nil {
			return retry.Permanent(err)
		}

		currentKey := metadataKey(location, n)
		pending.MetadataLog = appendMetadataLogEntry(pending.MetadataLog, iceberg.NowMs(), currentKey)
		var pruned []iceberg.MetadataLogEntry
		pending.MetadataLog, pruned = pruneMetadataLog(pending.MetadataLog, e.retention)

		if err := iceberg.Validate(pending); err != nil {
			return retry.Permanent(err)
		}

		newVersion := n + 1
		newKey := metadataKey(location, newVersion)
		data, err := codec.EncodeTableMetadata(pending)
		if err != nil {
			return retry.Permanent(err)
		}

		if err := e.backend.PutIfAbsent(ctx, newKey, data); err != nil {
			if err == storage.ErrConflict || pkgerrors.IsConflict(err) {
				conflictSeen = true
				e.logger.Debug().Int("version", newVersion).Msg("commit conflict at metadata write, retrying")
				return pkgerrors.Wrap(codeCommitConflict, pkgerrors.KindConflict, "metadata version already exists", err)
			}
			return retry.Permanent(err)
		}

		if err := e.flipPointer(ctx, location, n, newVersion); err != nil {
			if err == storage.ErrConflict || pkgerrors.IsConflict(err) {
				conflictSeen = true
				e.logger.Debug().Int("version", newVersion).Msg("commit conflict at pointer flip, retrying")
				_ = e.backend.Delete(ctx, newKey)
				return pkgerrors.Wrap(codeCommitConflict, pkgerrors.KindConflict, "version-hint advanced past expected version", err)
			}
			_ = e.backend.Delete(ctx, newKey)
			return retry.Permanent(err)
		}

		e.sweepPrunedFiles(ctx, location, pruned)

		result = &Result{
			Metadata:         pending,
			MetadataLocation: newKey,
			Version:          newVersion,
			Attempts:         attempt,
			ConflictResolved: conflictSeen,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (e *Engine) sweepPrunedFiles(ctx context.Context, location string, pruned []iceberg.MetadataLogEntry) {
	for _, entry := range pruned {
		key := entry.MetadataFile
		if !strings.Contains(key, "/") {
			key = strings.TrimRight(location, "/") + "/" + iceberg.MetadataDir + "/" + key
		}
		if err := e.backend.Delete(ctx, key); err != nil {
			if e.retention.OnCleanupFailure != nil {
				e.retention.OnCleanupFailure(err)
			}
		}
	}
}

func appendMetadataLogEntry(log []iceberg.MetadataLogEntry, timestampMs int64, file string) []iceberg.MetadataLogEntry {
	return append(append([]iceberg.MetadataLogEntry{}, log...), iceberg.MetadataLogEntry{TimestampMs: timestampMs, MetadataFile: file})
}

// pruneMetadataLog keeps at least RetainVersions most-recent entries and,
// among the rest, drops any older than MaxAgeMs. It returns the
// surviving log plus the entries it dropped, so the caller can sweep their
// backing files without failing the commit on a delete error.
func pruneMetadataLog(log []iceberg.MetadataLogEntry, cfg RetentionConfig) ([]iceberg.MetadataLogEntry, []iceberg.MetadataLogEntry) {
	retain := cfg.RetainVersions
	if retain <= 0 {
		retain = iceberg.DefaultRetainVersions
	}
	if len(log) <= retain {
		return log, nil
	}
	cutoff := iceberg.NowMs() - cfg.MaxAgeMs
	candidates := log[:len(log)-retain]
	tail := log[len(log)-retain:]

	var survivors, pruned []iceberg.MetadataLogEntry
	for _, entry := range candidates {
		if entry.TimestampMs < cutoff {
			pruned = append(pruned, entry)
		} else {
			survivors = append(survivors, entry)
		}
	}
	return append(survivors, tail...), pruned
}
