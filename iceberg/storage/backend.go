// Package storage defines the StorageBackend capability the core consumes:
// a small async-at-the-contract-level key/value surface that the
// commit engine and catalog layer build atomic metadata writes on top of.
// No concrete cloud-object-store driver lives here; that is explicitly out
// of scope and is supplied by the caller.
package storage

import (
	"context"
	"sort"
	"strings"
	"sync"

	pkgerrors "github.com/dot-do/iceberg-sub003/pkg/errors"
)

var (
	CodeConflict   = pkgerrors.MustNewCode("storage.conflict")
	CodeNotFound   = pkgerrors.MustNewCode("storage.not_found")
	CodeUnsupported = pkgerrors.MustNewCode("storage.unsupported")
)

// ErrConflict is returned by PutIfAbsent when key already exists, and by
// CompareAndSwap when the stored value does not match expected.
var ErrConflict = pkgerrors.New(CodeConflict, pkgerrors.KindConflict, "storage: conflicting write")

// ErrNotFound is returned by Get when key is absent.
var ErrNotFound = pkgerrors.New(CodeNotFound, pkgerrors.KindNotFound, "storage: key not found")

// ErrUnsupported is returned by backends that cannot provide CompareAndSwap;
// such backends must instead support PutIfAbsent.
var ErrUnsupported = pkgerrors.New(CodeUnsupported, pkgerrors.KindUnsupported, "storage: operation not supported by this backend")

// Backend is the capability the commit engine and catalog layer consume.
// Implementations need only guarantee atomicity per key; cross-key
// operations have no transactional guarantee.
type Backend interface {
	// Get returns the bytes stored at key, or ErrNotFound if absent.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put writes key unconditionally, overwriting any existing value.
	Put(ctx context.Context, key string, data []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// List returns keys with the given prefix in lexical order.
	List(ctx context.Context, prefix string) ([]string, error)
	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)
}

// ConditionalBackend is implemented by backends that can provide at least
// one of the two optimistic-write primitives the commit engine needs.
// A backend lacking CompareAndSwap detects conflicts at the
// versioned-metadata-write step instead of the pointer-flip step.
type ConditionalBackend interface {
	Backend
	// PutIfAbsent writes key only if it does not already exist, returning
	// ErrConflict otherwise. Optional: backends unable to provide it return
	// ErrUnsupported.
	PutIfAbsent(ctx context.Context, key string, data []byte) error
	// CompareAndSwap writes newData at key only if the current stored bytes
	// equal expected (an absent key matches a nil expected). Returns
	// ErrConflict on mismatch. Optional: unsupported backends return
	// ErrUnsupported.
	CompareAndSwap(ctx context.Context, key string, expected, newData []byte) error
}

// Memory is an in-process ConditionalBackend, used by tests and by
// single-process deployments of the filesystem catalog. Safe for concurrent
// use; single-key operations are serialized by mu, matching the backend
// contract's atomicity requirement.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory constructs an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *Memory) Put(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	m.data[key] = cp
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *Memory) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *Memory) Exists(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[key]
	return ok, nil
}

func (m *Memory) PutIfAbsent(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		return ErrConflict
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	m.data[key] = cp
	return nil
}

func (m *Memory) CompareAndSwap(_ context.Context, key string, expected, newData []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.data[key]
	if expected == nil {
		if ok {
			return ErrConflict
		}
	} else {
		if !ok || string(cur) != string(expected) {
			return ErrConflict
		}
	}
	cp := make([]byte, len(newData))
	copy(cp, newData)
	m.data[key] = cp
	return nil
}
