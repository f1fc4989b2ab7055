package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ledgerkit/invoicing/internal/models"
	"github.com/ledgerkit/invoicing/pkg/database"
	"go.uber.org/zap"
)

// SQLiteStore persists invoices in SQLite. The reminder history is
// serialized as a JSON column so the ordered array round-trips exactly
// as stored.
type SQLiteStore struct {
	db     *database.DB
	logger *zap.Logger
}

// NewSQLiteStore creates a SQLite-backed invoice store
func NewSQLiteStore(db *database.DB, logger *zap.Logger) *SQLiteStore {
	return &SQLiteStore{
		db:     db,
		logger: logger,
	}
}

const invoiceColumns = `id, number, status, client_name, client_email, issue_date, due_date,
	subtotal, tax, total, currency, reminders, notes, created_at, updated_at`

// List returns all invoices in insertion order
func (s *SQLiteStore) List(ctx context.Context) ([]models.Invoice, error) {
	query := fmt.Sprintf("SELECT %s FROM invoices ORDER BY rowid", invoiceColumns)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		s.logger.Error("Failed to list invoices", zap.Error(err))
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []models.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *inv)
	}
	return invoices, rows.Err()
}

// Get returns the invoice with the given id
func (s *SQLiteStore) Get(ctx context.Context, id string) (*models.Invoice, error) {
	query := fmt.Sprintf("SELECT %s FROM invoices WHERE id = ?", invoiceColumns)

	row := s.db.QueryRowContext(ctx, query, id)
	inv, err := scanInvoice(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		s.logger.Error("Failed to get invoice", zap.String("invoice_id", id), zap.Error(err))
		return nil, err
	}
	return inv, nil
}

// Save inserts or updates a single invoice
func (s *SQLiteStore) Save(ctx context.Context, inv *models.Invoice) error {
	query := `
		INSERT INTO invoices (` + invoiceColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			number = excluded.number,
			status = excluded.status,
			client_name = excluded.client_name,
			client_email = excluded.client_email,
			issue_date = excluded.issue_date,
			due_date = excluded.due_date,
			subtotal = excluded.subtotal,
			tax = excluded.tax,
			total = excluded.total,
			currency = excluded.currency,
			reminders = excluded.reminders,
			notes = excluded.notes,
			updated_at = excluded.updated_at
	`

	args, err := invoiceArgs(inv)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		s.logger.Error("Failed to save invoice", zap.String("invoice_id", inv.ID), zap.Error(err))
		return fmt.Errorf("failed to save invoice: %w", err)
	}
	return nil
}

// Delete removes the invoice with the given id
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM invoices WHERE id = ?", id)
	if err != nil {
		s.logger.Error("Failed to delete invoice", zap.String("invoice_id", id), zap.Error(err))
		return fmt.Errorf("failed to delete invoice: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceAll atomically replaces the full invoice collection
func (s *SQLiteStore) ReplaceAll(ctx context.Context, invoices []models.Invoice) error {
	return s.db.WithTransaction(func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM invoices"); err != nil {
			return fmt.Errorf("failed to clear invoices: %w", err)
		}

		query := `
			INSERT INTO invoices (` + invoiceColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		for i := range invoices {
			args, err := invoiceArgs(&invoices[i])
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("failed to insert invoice %s: %w", invoices[i].ID, err)
			}
		}
		return nil
	})
}

func invoiceArgs(inv *models.Invoice) ([]interface{}, error) {
	reminders, err := json.Marshal(inv.Reminders)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal reminders: %w", err)
	}
	return []interface{}{
		inv.ID,
		inv.Number,
		string(inv.Status),
		inv.Client.Name,
		inv.Client.Email,
		nullableTime(inv.IssueDate),
		nullableTime(inv.DueDate),
		inv.Totals.Subtotal,
		inv.Totals.Tax,
		inv.Totals.Total,
		inv.Currency,
		string(reminders),
		inv.Notes,
		inv.CreatedAt,
		inv.UpdatedAt,
	}, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanInvoice(row rowScanner) (*models.Invoice, error) {
	var inv models.Invoice
	var status, reminders string
	var issueDate, dueDate sql.NullTime

	err := row.Scan(
		&inv.ID,
		&inv.Number,
		&status,
		&inv.Client.Name,
		&inv.Client.Email,
		&issueDate,
		&dueDate,
		&inv.Totals.Subtotal,
		&inv.Totals.Tax,
		&inv.Totals.Total,
		&inv.Currency,
		&reminders,
		&inv.Notes,
		&inv.CreatedAt,
		&inv.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan invoice: %w", err)
	}

	inv.Status = models.InvoiceStatus(status)
	if issueDate.Valid {
		inv.IssueDate = &issueDate.Time
	}
	if dueDate.Valid {
		inv.DueDate = &dueDate.Time
	}
	if reminders != "" && reminders != "null" {
		if err := json.Unmarshal([]byte(reminders), &inv.Reminders); err != nil {
			return nil, fmt.Errorf("failed to unmarshal reminders for invoice %s: %w", inv.ID, err)
		}
	}
	return &inv, nil
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}
