package store

import (
	"context"
	"sync"

	"github.com/ledgerkit/invoicing/internal/models"
)

// MemoryStore is an in-memory invoice store. Useful for tests and for
// running the service without persistent storage.
type MemoryStore struct {
	mu       sync.RWMutex
	invoices []models.Invoice
	index    map[string]int
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		index: make(map[string]int),
	}
}

// List returns all invoices in insertion order
func (s *MemoryStore) List(ctx context.Context) ([]models.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Invoice, 0, len(s.invoices))
	for i := range s.invoices {
		out = append(out, *s.invoices[i].Clone())
	}
	return out, nil
}

// Get returns the invoice with the given id
func (s *MemoryStore) Get(ctx context.Context, id string) (*models.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pos, ok := s.index[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.invoices[pos].Clone(), nil
}

// Save inserts or updates a single invoice
func (s *MemoryStore) Save(ctx context.Context, inv *models.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pos, ok := s.index[inv.ID]; ok {
		s.invoices[pos] = *inv.Clone()
		return nil
	}
	s.index[inv.ID] = len(s.invoices)
	s.invoices = append(s.invoices, *inv.Clone())
	return nil
}

// Delete removes the invoice with the given id
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.index[id]
	if !ok {
		return ErrNotFound
	}
	s.invoices = append(s.invoices[:pos], s.invoices[pos+1:]...)
	s.rebuildIndex()
	return nil
}

// ReplaceAll atomically replaces the full invoice collection
func (s *MemoryStore) ReplaceAll(ctx context.Context, invoices []models.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.invoices = make([]models.Invoice, 0, len(invoices))
	for i := range invoices {
		s.invoices = append(s.invoices, *invoices[i].Clone())
	}
	s.rebuildIndex()
	return nil
}

func (s *MemoryStore) rebuildIndex() {
	s.index = make(map[string]int, len(s.invoices))
	for i := range s.invoices {
		s.index[s.invoices[i].ID] = i
	}
}
