package store

import (
	"context"
	"errors"

	"github.com/ledgerkit/invoicing/internal/models"
)

// ErrNotFound is returned when an invoice does not exist
var ErrNotFound = errors.New("invoice not found")

// Store holds the invoice collection. ReplaceAll swaps the entire
// collection in one write; the reminder engine relies on it to persist
// every appended reminder record exactly once.
type Store interface {
	// List returns all invoices in stable insertion order
	List(ctx context.Context) ([]models.Invoice, error)

	// Get returns the invoice with the given id, or ErrNotFound
	Get(ctx context.Context, id string) (*models.Invoice, error)

	// Save inserts or updates a single invoice
	Save(ctx context.Context, inv *models.Invoice) error

	// Delete removes the invoice with the given id, or returns ErrNotFound
	Delete(ctx context.Context, id string) error

	// ReplaceAll atomically replaces the full invoice collection
	ReplaceAll(ctx context.Context, invoices []models.Invoice) error
}
