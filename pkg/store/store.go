// Package store persists validated tables outside the in-memory core. Frame
// files are encoded through internal/codec and kept in object storage (local
// disk or S3), while named frame definitions live in a SQLite catalog. Every
// read path re-validates against the caller's definition and degrades to a
// conforming empty table rather than returning data of the wrong shape.
package store

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gridframe/gridframe/internal/codec"
	"github.com/gridframe/gridframe/internal/storage"
	"github.com/gridframe/gridframe/pkg/frame"
)

const (
	// DefaultLoadTimeout bounds frame loads when the configuration does not
	// set one.
	DefaultLoadTimeout = 30 * time.Second

	// frameExt is the file extension for encoded frame files.
	frameExt = ".gfr"
)

// NewFrameName returns a fresh storage name for a frame file.
func NewFrameName() string {
	return uuid.NewString() + frameExt
}

// FrameStore reads and writes encoded frame files in object storage.
type FrameStore struct {
	storage     storage.ObjectStorage
	loadTimeout time.Duration
}

// NewFrameStore creates a frame store over the given backend. A non-positive
// loadTimeout selects DefaultLoadTimeout.
func NewFrameStore(backend storage.ObjectStorage, loadTimeout time.Duration) *FrameStore {
	if loadTimeout <= 0 {
		loadTimeout = DefaultLoadTimeout
	}
	return &FrameStore{
		storage:     backend,
		loadTimeout: loadTimeout,
	}
}

// Save encodes and uploads a table under the given name. The table must
// conform to the validator; otherwise frame.ErrInvalidTable is returned and
// nothing is written.
func (s *FrameStore) Save(ctx context.Context, name string, v frame.Validator, t *frame.Table) error {
	if !v.Validate(t) {
		return frame.ErrInvalidTable
	}

	data, err := codec.Encode(t)
	if err != nil {
		return fmt.Errorf("store: failed to encode frame %s: %w", name, err)
	}

	if err := s.storage.Put(ctx, name, data); err != nil {
		return fmt.Errorf("store: failed to upload frame %s: %w", name, err)
	}

	return nil
}

// Load fetches and decodes the named frame, bounded by the store's load
// timeout. A frame that is missing, malformed, nonconforming, or too slow to
// arrive is replaced by the validator's empty table, so callers always
// receive a table the validator accepts. The returned error is non-nil only
// when ctx is cancelled.
func (s *FrameStore) Load(ctx context.Context, name string, v frame.Validator) (*frame.Table, error) {
	type result struct {
		table *frame.Table
		err   error
	}

	ch := make(chan result, 1)
	go func() {
		data, err := s.storage.Get(ctx, name)
		if err != nil {
			ch <- result{nil, err}
			return
		}
		t, err := codec.Decode(data)
		ch <- result{t, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			log.Printf("store: falling back to empty frame for %s: %v", name, r.err)
			return v.EmptyTable(), nil
		}
		if !v.Validate(r.table) {
			log.Printf("store: frame %s does not conform to the definition, falling back to empty frame", name)
			return v.EmptyTable(), nil
		}
		return r.table, nil
	case <-time.After(s.loadTimeout):
		log.Printf("store: load of frame %s timed out after %s, falling back to empty frame", name, s.loadTimeout)
		return v.EmptyTable(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Delete removes the named frame file. Deleting a missing frame is not an
// error.
func (s *FrameStore) Delete(ctx context.Context, name string) error {
	if err := s.storage.Delete(ctx, name); err != nil {
		return fmt.Errorf("store: failed to delete frame %s: %w", name, err)
	}
	return nil
}

// List returns the names of all stored frame files.
func (s *FrameStore) List(ctx context.Context) ([]string, error) {
	names, err := s.storage.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("store: failed to list frames: %w", err)
	}

	frames := make([]string, 0, len(names))
	for _, name := range names {
		if strings.HasSuffix(name, frameExt) {
			frames = append(frames, name)
		}
	}
	return frames, nil
}

// Store bundles the frame file store and the template catalog behind one
// configured entry point.
type Store struct {
	Frames    *FrameStore
	Templates *Catalog
}

// Open builds a Store from configuration: it resolves and validates cfg,
// creates the data directories, selects the storage backend, and opens the
// template catalog. A nil cfg means DefaultConfig.
func Open(ctx context.Context, cfg *Config) (*Store, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("store: invalid configuration: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}

	var backend storage.ObjectStorage
	switch cfg.Storage.Type {
	case "local":
		local, err := storage.NewLocalStorage(cfg.Storage.Path)
		if err != nil {
			return nil, fmt.Errorf("store: failed to open local storage: %w", err)
		}
		backend = local
	case "s3":
		s3Store, err := storage.NewS3Storage(ctx, cfg.Storage.S3.Bucket, storage.S3Config{
			Region:       cfg.Storage.S3.Region,
			Endpoint:     cfg.Storage.S3.Endpoint,
			UsePathStyle: cfg.Storage.S3.UsePathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("store: failed to open s3 storage: %w", err)
		}
		backend = s3Store
	}

	catalog, err := NewCatalog(cfg.CatalogPath())
	if err != nil {
		return nil, err
	}

	return &Store{
		Frames:    NewFrameStore(backend, cfg.LoadTimeout),
		Templates: catalog,
	}, nil
}

// Close releases the store's resources.
func (s *Store) Close() error {
	return s.Templates.Close()
}
