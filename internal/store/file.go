package store

import (
	"context"
	"crypto/sha256"
	"log/slog"
	"sync"

	"github.com/kazz187/missioncontrol/internal/document"
	"github.com/kazz187/missioncontrol/pkg/cerr"
	"github.com/kazz187/missioncontrol/pkg/storage"
)

var _ Store = (*FileStore)(nil)

// FileStore persists the document as one indented JSON object in a
// storage.Storage. When the storage refuses a write the document is kept in
// memory and served by Load until a later write succeeds.
type FileStore struct {
	storage storage.Storage
	key     string

	writeMu sync.Mutex

	mu        sync.RWMutex
	last      *document.Document // latest document seen or saved
	degraded  bool               // last is newer than the durable copy
	savedHash [sha256.Size]byte
}

func NewFileStore(s storage.Storage, key string) *FileStore {
	return &FileStore{storage: s, key: key}
}

// Degraded reports whether the latest state lives only in memory.
func (s *FileStore) Degraded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.degraded
}

// WrittenByUs reports whether data is exactly what this store last wrote.
func (s *FileStore) WrittenByUs(data []byte) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sha256.Sum256(data) == s.savedHash
}

func (s *FileStore) Load(ctx context.Context) (*document.Document, error) {
	s.mu.RLock()
	if s.degraded {
		doc := s.last.Clone()
		s.mu.RUnlock()
		return doc, nil
	}
	s.mu.RUnlock()

	data, err := s.storage.Read(ctx, s.key)
	if err != nil {
		err = cerr.WrapStorageReadError(s.key, err)
		if cerr.IsCode(err, cerr.NotFound) {
			return document.New(), nil
		}
		slog.WarnContext(ctx, "failed to read document, serving last known state",
			"key", s.key, "error", err)
		s.mu.RLock()
		defer s.mu.RUnlock()
		if s.last != nil {
			return s.last.Clone(), nil
		}
		return document.New(), nil
	}

	doc := document.Decode(data)
	s.mu.Lock()
	if !s.degraded {
		s.last = doc.Clone()
	}
	s.mu.Unlock()
	return doc, nil
}

func (s *FileStore) Save(ctx context.Context, doc *document.Document) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.save(ctx, doc)
}

func (s *FileStore) save(ctx context.Context, doc *document.Document) error {
	data, err := document.Encode(doc)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", err)
	}

	s.mu.Lock()
	prevHash := s.savedHash
	s.savedHash = sha256.Sum256(data)
	s.mu.Unlock()

	if err := s.storage.Write(ctx, s.key, data); err != nil {
		s.mu.Lock()
		s.savedHash = prevHash
		s.last = doc.Clone()
		s.degraded = true
		s.mu.Unlock()
		return cerr.WrapStorageWriteError(s.key, err)
	}

	s.mu.Lock()
	s.last = doc.Clone()
	s.degraded = false
	s.mu.Unlock()
	return nil
}

// Update serializes the cycle with every other Update and Save. A write
// failure is absorbed once the document has been recorded in memory.
func (s *FileStore) Update(ctx context.Context, fn func(doc *document.Document) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	doc, err := s.Load(ctx)
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	if err := s.save(ctx, doc); err != nil {
		if !cerr.IsCode(err, cerr.Unavailable) {
			return err
		}
		slog.WarnContext(ctx, "document kept in memory only", "key", s.key, "error", err)
	}
	return nil
}
