package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ledgerkit/invoicing/internal/models"
	"go.uber.org/zap"
)

// FileStore persists the invoice collection as a single JSON document on
// the local filesystem. Writes go through a temp file and rename so a
// crash mid-write never leaves a truncated document behind.
type FileStore struct {
	path   string
	logger *zap.Logger
	mu     sync.Mutex
}

// NewFileStore creates a file-backed store at the given path
func NewFileStore(path string, logger *zap.Logger) (*FileStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &FileStore{
		path:   path,
		logger: logger,
	}, nil
}

// List returns all invoices in stored order
func (s *FileStore) List(ctx context.Context) ([]models.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Get returns the invoice with the given id
func (s *FileStore) Get(ctx context.Context, id string) (*models.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	invoices, err := s.load()
	if err != nil {
		return nil, err
	}
	for i := range invoices {
		if invoices[i].ID == id {
			return &invoices[i], nil
		}
	}
	return nil, ErrNotFound
}

// Save inserts or updates a single invoice
func (s *FileStore) Save(ctx context.Context, inv *models.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	invoices, err := s.load()
	if err != nil {
		return err
	}
	updated := false
	for i := range invoices {
		if invoices[i].ID == inv.ID {
			invoices[i] = *inv.Clone()
			updated = true
			break
		}
	}
	if !updated {
		invoices = append(invoices, *inv.Clone())
	}
	return s.write(invoices)
}

// Delete removes the invoice with the given id
func (s *FileStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	invoices, err := s.load()
	if err != nil {
		return err
	}
	for i := range invoices {
		if invoices[i].ID == id {
			invoices = append(invoices[:i], invoices[i+1:]...)
			return s.write(invoices)
		}
	}
	return ErrNotFound
}

// ReplaceAll atomically replaces the full invoice collection
func (s *FileStore) ReplaceAll(ctx context.Context, invoices []models.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(invoices)
}

func (s *FileStore) load() ([]models.Invoice, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		s.logger.Error("Failed to read invoice file", zap.String("path", s.path), zap.Error(err))
		return nil, fmt.Errorf("failed to read invoice file: %w", err)
	}

	var invoices []models.Invoice
	if err := json.Unmarshal(data, &invoices); err != nil {
		s.logger.Error("Failed to parse invoice file", zap.String("path", s.path), zap.Error(err))
		return nil, fmt.Errorf("failed to parse invoice file: %w", err)
	}
	return invoices, nil
}

func (s *FileStore) write(invoices []models.Invoice) error {
	if invoices == nil {
		invoices = []models.Invoice{}
	}
	data, err := json.MarshalIndent(invoices, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal invoices: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		s.logger.Error("Failed to write invoice file", zap.String("path", tmp), zap.Error(err))
		return fmt.Errorf("failed to write invoice file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		s.logger.Error("Failed to replace invoice file", zap.String("path", s.path), zap.Error(err))
		return fmt.Errorf("failed to replace invoice file: %w", err)
	}

	s.logger.Debug("Invoice file written",
		zap.String("path", s.path),
		zap.Int("count", len(invoices)))
	return nil
}
