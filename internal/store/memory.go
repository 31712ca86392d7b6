package store

import (
	"context"
	"sync"

	"github.com/kazz187/missioncontrol/internal/document"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps the document in process memory only.
type MemoryStore struct {
	writeMu sync.Mutex
	mu      sync.RWMutex
	doc     *document.Document
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{doc: document.New()}
}

func (s *MemoryStore) Load(_ context.Context) (*document.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Clone(), nil
}

func (s *MemoryStore) Save(ctx context.Context, doc *document.Document) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.save(ctx, doc)
}

func (s *MemoryStore) save(_ context.Context, doc *document.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc.Clone()
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, fn func(doc *document.Document) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	doc, err := s.Load(ctx)
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	return s.save(ctx, doc)
}
