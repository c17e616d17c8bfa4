package store

import (
	"context"
	"sync"

	"github.com/gridframe/gridframe/pkg/frame"
)

// ManagedFrame ties a validator to one named frame file. The table is loaded
// on first access and cached; writes go through the store and refresh the
// cache. Because loads run through FrameStore.Load, a cached table is always
// one the validator accepts, even when the underlying file is missing or
// damaged.
type ManagedFrame struct {
	store     *FrameStore
	name      string
	validator frame.Validator

	mu     sync.Mutex
	table  *frame.Table
	loaded bool
}

// NewManagedFrame creates a managed frame over the given store. An empty
// name allocates a fresh one, for frames that have never been saved.
func NewManagedFrame(s *FrameStore, name string, v frame.Validator) *ManagedFrame {
	if name == "" {
		name = NewFrameName()
	}
	return &ManagedFrame{
		store:     s,
		name:      name,
		validator: v,
	}
}

// Name returns the storage name of the frame file.
func (m *ManagedFrame) Name() string {
	return m.name
}

// Validator returns the validator the frame was created with.
func (m *ManagedFrame) Validator() frame.Validator {
	return m.validator
}

// Table returns the frame's table, loading it from storage on first access.
// Subsequent calls return the cached table until Invalidate or SetTable.
func (m *ManagedFrame) Table(ctx context.Context) (*frame.Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loaded {
		return m.table, nil
	}

	t, err := m.store.Load(ctx, m.name, m.validator)
	if err != nil {
		return nil, err
	}

	m.table = t
	m.loaded = true
	return t, nil
}

// SetTable validates and persists a new table, then caches it. A table the
// validator rejects leaves both storage and the cache unchanged.
func (m *ManagedFrame) SetTable(ctx context.Context, t *frame.Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Save(ctx, m.name, m.validator, t); err != nil {
		return err
	}

	m.table = t
	m.loaded = true
	return nil
}

// Invalidate drops the cached table, forcing the next Table call to reload
// from storage.
func (m *ManagedFrame) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.table = nil
	m.loaded = false
}

// Delete removes the frame file from storage and drops the cache.
func (m *ManagedFrame) Delete(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Delete(ctx, m.name); err != nil {
		return err
	}

	m.table = nil
	m.loaded = false
	return nil
}
