package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	appinv "github.com/pharmstock/backend/internal/application/inventory"
	"github.com/pharmstock/backend/internal/domain/inventory"
	"github.com/pharmstock/backend/internal/domain/shared"
)

// batchRecord is the on-disk shape of one batch. Expiry dates are stored as
// calendar dates without a time component and must round-trip exactly.
type batchRecord struct {
	ID         uuid.UUID `json:"id"`
	Seq        int64     `json:"seq"`
	Name       string    `json:"name"`
	NameKey    string    `json:"name_key"`
	Strength   string    `json:"strength"`
	Quantity   int64     `json:"quantity"`
	ExpiryDate string    `json:"expiry_date"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// batchDocument is the single JSON document holding the whole inventory.
type batchDocument struct {
	Batches []batchRecord `json:"batches"`
}

func toRecord(b *inventory.Batch) batchRecord {
	return batchRecord{
		ID:         b.ID,
		Seq:        b.Seq,
		Name:       b.Name,
		NameKey:    b.NameKey,
		Strength:   b.Strength,
		Quantity:   b.Quantity,
		ExpiryDate: b.ExpiryDate.Format(inventory.DateLayout),
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
}

func (rec batchRecord) toEntity() (*inventory.Batch, error) {
	expiry, err := time.ParseInLocation(inventory.DateLayout, rec.ExpiryDate, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("invalid expiry date %q for batch %s: %w", rec.ExpiryDate, rec.ID, err)
	}
	batch := &inventory.Batch{
		Seq:        rec.Seq,
		Name:       rec.Name,
		NameKey:    rec.NameKey,
		Strength:   rec.Strength,
		Quantity:   rec.Quantity,
		ExpiryDate: expiry,
	}
	batch.ID = rec.ID
	batch.CreatedAt = rec.CreatedAt
	batch.UpdatedAt = rec.UpdatedAt
	return batch, nil
}

// FileStore persists the inventory as a single JSON document on disk. A mutex
// serializes all access; every commit rewrites the document atomically via a
// temp file and rename, so readers never observe a half-written document.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore opens (or prepares to create) the document at path. An absent
// file means an empty inventory; an unreadable or corrupt one is an error.
func NewFileStore(path string) (*FileStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}
	s := &FileStore{path: path}
	if _, err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the document location.
func (s *FileStore) Path() string {
	return s.path
}

// Ping verifies the document is readable and well-formed.
func (s *FileStore) Ping() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.load()
	return err
}

// load reads the document into a fresh working copy. Callers hold s.mu.
func (s *FileStore) load() (*fileBatchSet, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return &fileBatchSet{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read inventory document: %w", err)
	}

	var doc batchDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("corrupt inventory document %s: %w", s.path, err)
	}

	set := &fileBatchSet{batches: make([]*inventory.Batch, 0, len(doc.Batches))}
	for _, rec := range doc.Batches {
		batch, err := rec.toEntity()
		if err != nil {
			return nil, fmt.Errorf("corrupt inventory document %s: %w", s.path, err)
		}
		set.batches = append(set.batches, batch)
	}
	return set, nil
}

// commit writes the working copy back, atomically replacing the document.
// Callers hold s.mu.
func (s *FileStore) commit(set *fileBatchSet) error {
	doc := batchDocument{Batches: make([]batchRecord, 0, len(set.batches))}
	for _, b := range set.batches {
		doc.Batches = append(doc.Batches, toRecord(b))
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode inventory document: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".inventory-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp document: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write inventory document: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync inventory document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close inventory document: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace inventory document: %w", err)
	}
	return nil
}

// fileBatchSet is an in-memory working copy of the document implementing
// BatchRepository. Mutations stay in memory until the store commits them.
type fileBatchSet struct {
	batches []*inventory.Batch
}

func (s *fileBatchSet) maxSeq() int64 {
	var max int64
	for _, b := range s.batches {
		if b.Seq > max {
			max = b.Seq
		}
	}
	return max
}

func (s *fileBatchSet) FindAll(_ context.Context) ([]*inventory.Batch, error) {
	out := make([]*inventory.Batch, len(s.batches))
	copy(out, s.batches)
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func (s *fileBatchSet) FindByNameKey(_ context.Context, key string) ([]*inventory.Batch, error) {
	out := make([]*inventory.Batch, 0)
	for _, b := range s.batches {
		if b.NameKey == key {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func (s *fileBatchSet) FindByName(_ context.Context, name string) ([]*inventory.Batch, error) {
	out := make([]*inventory.Batch, 0)
	for _, b := range s.batches {
		if b.Name == name {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func (s *fileBatchSet) FindByIdentity(_ context.Context, name, strength string, expiryDate time.Time) (*inventory.Batch, error) {
	for _, b := range s.batches {
		if b.Name == name && b.Strength == strength && b.ExpiryDate.Equal(expiryDate) {
			return b, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (s *fileBatchSet) Create(_ context.Context, batch *inventory.Batch) error {
	batch.Seq = s.maxSeq() + 1
	s.batches = append(s.batches, batch)
	return nil
}

func (s *fileBatchSet) Update(_ context.Context, batch *inventory.Batch) error {
	for i, b := range s.batches {
		if b.ID == batch.ID {
			batch.Touch()
			s.batches[i] = batch
			return nil
		}
	}
	return shared.ErrNotFound
}

func (s *fileBatchSet) DeleteByIDs(_ context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	drop := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := s.batches[:0]
	for _, b := range s.batches {
		if !drop[b.ID] {
			kept = append(kept, b)
		}
	}
	s.batches = kept
	return nil
}

func (s *fileBatchSet) DeleteByNameKey(_ context.Context, key string) (int64, error) {
	var removed int64
	kept := s.batches[:0]
	for _, b := range s.batches {
		if b.NameKey == key {
			removed++
			continue
		}
		kept = append(kept, b)
	}
	s.batches = kept
	return removed, nil
}

func (s *fileBatchSet) Count(_ context.Context) (int64, error) {
	return int64(len(s.batches)), nil
}

var _ inventory.BatchRepository = (*fileBatchSet)(nil)

// FileBatchRepository provides repository access over the file store. Each
// read works on a fresh load of the document; each mutation is its own commit.
type FileBatchRepository struct {
	store *FileStore
}

// NewFileBatchRepository creates a new FileBatchRepository
func NewFileBatchRepository(store *FileStore) *FileBatchRepository {
	return &FileBatchRepository{store: store}
}

func (r *FileBatchRepository) read(fn func(set *fileBatchSet) error) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	set, err := r.store.load()
	if err != nil {
		return err
	}
	return fn(set)
}

func (r *FileBatchRepository) write(fn func(set *fileBatchSet) error) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	set, err := r.store.load()
	if err != nil {
		return err
	}
	if err := fn(set); err != nil {
		return err
	}
	return r.store.commit(set)
}

func (r *FileBatchRepository) FindAll(ctx context.Context) ([]*inventory.Batch, error) {
	var out []*inventory.Batch
	err := r.read(func(set *fileBatchSet) error {
		var err error
		out, err = set.FindAll(ctx)
		return err
	})
	return out, err
}

func (r *FileBatchRepository) FindByNameKey(ctx context.Context, key string) ([]*inventory.Batch, error) {
	var out []*inventory.Batch
	err := r.read(func(set *fileBatchSet) error {
		var err error
		out, err = set.FindByNameKey(ctx, key)
		return err
	})
	return out, err
}

func (r *FileBatchRepository) FindByName(ctx context.Context, name string) ([]*inventory.Batch, error) {
	var out []*inventory.Batch
	err := r.read(func(set *fileBatchSet) error {
		var err error
		out, err = set.FindByName(ctx, name)
		return err
	})
	return out, err
}

func (r *FileBatchRepository) FindByIdentity(ctx context.Context, name, strength string, expiryDate time.Time) (*inventory.Batch, error) {
	var out *inventory.Batch
	err := r.read(func(set *fileBatchSet) error {
		var err error
		out, err = set.FindByIdentity(ctx, name, strength, expiryDate)
		return err
	})
	return out, err
}

func (r *FileBatchRepository) Create(ctx context.Context, batch *inventory.Batch) error {
	return r.write(func(set *fileBatchSet) error {
		return set.Create(ctx, batch)
	})
}

func (r *FileBatchRepository) Update(ctx context.Context, batch *inventory.Batch) error {
	return r.write(func(set *fileBatchSet) error {
		return set.Update(ctx, batch)
	})
}

func (r *FileBatchRepository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) error {
	return r.write(func(set *fileBatchSet) error {
		return set.DeleteByIDs(ctx, ids)
	})
}

func (r *FileBatchRepository) DeleteByNameKey(ctx context.Context, key string) (int64, error) {
	var removed int64
	err := r.write(func(set *fileBatchSet) error {
		var err error
		removed, err = set.DeleteByNameKey(ctx, key)
		return err
	})
	return removed, err
}

func (r *FileBatchRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.read(func(set *fileBatchSet) error {
		var err error
		count, err = set.Count(ctx)
		return err
	})
	return count, err
}

// Ensure FileBatchRepository implements BatchRepository
var _ inventory.BatchRepository = (*FileBatchRepository)(nil)

// FileTransactionScope implements TransactionScope over the file store. The
// callback runs against a working copy of the document; on success the copy
// replaces the document in one atomic write, on error it is discarded.
type FileTransactionScope struct {
	store *FileStore
}

// NewFileTransactionScope creates a new FileTransactionScope.
func NewFileTransactionScope(store *FileStore) *FileTransactionScope {
	return &FileTransactionScope{store: store}
}

// Execute runs fn against a working copy and commits it if fn succeeds.
func (s *FileTransactionScope) Execute(ctx context.Context, fn func(repo inventory.BatchRepository) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	set, err := s.store.load()
	if err != nil {
		return err
	}
	if err := fn(set); err != nil {
		return err
	}
	return s.store.commit(set)
}

// Ensure FileTransactionScope implements TransactionScope
var _ appinv.TransactionScope = (*FileTransactionScope)(nil)
