package store

import (
	"context"
	"sync"
	"time"

	"github.com/ledgerkit/invoicing/internal/models"
)

// CachedStore wraps a Store with a TTL read cache over List. The clock
// is injected so expiry is testable.
//
// Only read paths that tolerate staleness should go through the cache.
// The reminder engine must not: it is wired to the underlying store
// directly, because deciding escalation on a stale reminder history
// would re-send levels that were already sent.
type CachedStore struct {
	inner Store
	ttl   time.Duration
	clock func() time.Time

	mu        sync.Mutex
	cached    []models.Invoice
	fetchedAt time.Time
}

// NewCachedStore wraps a store with a TTL list cache
func NewCachedStore(inner Store, ttl time.Duration, clock func() time.Time) *CachedStore {
	if clock == nil {
		clock = time.Now
	}
	return &CachedStore{
		inner: inner,
		ttl:   ttl,
		clock: clock,
	}
}

// List serves from the cache when fresh, otherwise reads through
func (s *CachedStore) List(ctx context.Context) ([]models.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	if s.cached != nil && now.Sub(s.fetchedAt) < s.ttl {
		return copyInvoices(s.cached), nil
	}

	invoices, err := s.inner.List(ctx)
	if err != nil {
		return nil, err
	}
	s.cached = copyInvoices(invoices)
	s.fetchedAt = now
	return invoices, nil
}

// Get always reads through to the underlying store
func (s *CachedStore) Get(ctx context.Context, id string) (*models.Invoice, error) {
	return s.inner.Get(ctx, id)
}

// Save writes through and invalidates the cache
func (s *CachedStore) Save(ctx context.Context, inv *models.Invoice) error {
	if err := s.inner.Save(ctx, inv); err != nil {
		return err
	}
	s.Invalidate()
	return nil
}

// Delete writes through and invalidates the cache
func (s *CachedStore) Delete(ctx context.Context, id string) error {
	if err := s.inner.Delete(ctx, id); err != nil {
		return err
	}
	s.Invalidate()
	return nil
}

// ReplaceAll writes through and invalidates the cache
func (s *CachedStore) ReplaceAll(ctx context.Context, invoices []models.Invoice) error {
	if err := s.inner.ReplaceAll(ctx, invoices); err != nil {
		return err
	}
	s.Invalidate()
	return nil
}

// Invalidate drops the cached collection
func (s *CachedStore) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cached = nil
}

func copyInvoices(invoices []models.Invoice) []models.Invoice {
	out := make([]models.Invoice, 0, len(invoices))
	for i := range invoices {
		out = append(out, *invoices[i].Clone())
	}
	return out
}
