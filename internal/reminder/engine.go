package reminder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ledgerkit/invoicing/internal/models"
	"go.uber.org/zap"
)

// Store is the invoice collection the engine reads and writes. The engine
// must be given a store that returns fresh data: deciding escalation on a
// stale reminder history risks duplicate sends.
type Store interface {
	List(ctx context.Context) ([]models.Invoice, error)
	ReplaceAll(ctx context.Context, invoices []models.Invoice) error
}

// Notifier sends a reminder email and returns a delivery identifier
type Notifier interface {
	SendEmail(ctx context.Context, to, subject, bodyText, bodyHTML string) (string, error)
}

// DeliveryStatus records whether the reminder email actually went out.
// The reminder record is appended either way; the status distinguishes
// the two cases in the run summary.
type DeliveryStatus string

const (
	DeliverySent   DeliveryStatus = "sent"
	DeliveryFailed DeliveryStatus = "failed"
)

// Summary describes one reminder escalation performed during a run
type Summary struct {
	InvoiceID      string               `json:"invoiceId"`
	InvoiceNumber  string               `json:"invoiceNumber"`
	ClientEmail    string               `json:"clientEmail"`
	ClientName     string               `json:"clientName"`
	Type           models.ReminderLevel `json:"type"`
	DaysPastDue    int                  `json:"daysPastDue"`
	Amount         float64              `json:"amount"`
	Currency       string               `json:"currency"`
	DeliveryStatus DeliveryStatus       `json:"deliveryStatus"`
}

// RunResult is the outcome of one engine invocation
type RunResult struct {
	Processed int
	Sent      int
	Reminders []Summary
}

// Engine walks the full invoice collection, applies the escalation policy
// to each invoice, sends reminder emails, appends reminder records and
// persists the updated collection in a single write.
//
// The engine itself is stateless between runs: all state lives in the
// invoice records.
type Engine struct {
	store    Store
	notifier Notifier
	logger   *zap.Logger

	// Serializes concurrent runs. Two overlapping runs would both read
	// the same reminder counts and double-send the same level.
	runMu sync.Mutex
}

// NewEngine creates a new reminder engine
func NewEngine(store Store, notifier Notifier, logger *zap.Logger) *Engine {
	return &Engine{
		store:    store,
		notifier: notifier,
		logger:   logger,
	}
}

// Run performs one reminder pass over all invoices at the given reference
// time. A store read or final write failure is fatal; notifier failures
// and malformed invoices are isolated per invoice and never abort the batch.
func (e *Engine) Run(ctx context.Context, now time.Time, opts MessageOptions) (*RunResult, error) {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	invoices, err := e.store.List(ctx)
	if err != nil {
		e.logger.Error("Failed to load invoices", zap.Error(err))
		return nil, fmt.Errorf("failed to load invoices: %w", err)
	}

	result := &RunResult{Processed: len(invoices)}

	for idx := range invoices {
		inv := &invoices[idx]

		if err := inv.Validate(); err != nil {
			e.logger.Warn("Skipping malformed invoice",
				zap.String("invoice_id", inv.ID),
				zap.Error(err))
			continue
		}

		decision := Decide(inv, now)
		if !decision.Send {
			continue
		}

		summary := e.escalate(ctx, inv, decision, now, opts)
		result.Reminders = append(result.Reminders, summary)
		result.Sent++
	}

	if result.Sent > 0 {
		if err := e.store.ReplaceAll(ctx, invoices); err != nil {
			e.logger.Error("Failed to persist reminder history",
				zap.Int("reminders_sent", result.Sent),
				zap.Error(err))
			return nil, fmt.Errorf("failed to persist invoices: %w", err)
		}
	}

	e.logger.Info("Reminder run completed",
		zap.Int("processed", result.Processed),
		zap.Int("reminders_sent", result.Sent))

	return result, nil
}

// escalate sends the reminder email for one invoice and appends the
// reminder record. The record is appended even when the email transport
// fails, so a permanently failing recipient cannot pin the invoice at
// the same level forever.
func (e *Engine) escalate(ctx context.Context, inv *models.Invoice, decision Decision, now time.Time, opts MessageOptions) Summary {
	msg := BuildMessage(inv, decision.Level, decision.DaysPastDue, opts)

	status := DeliverySent
	messageID, err := e.notifier.SendEmail(ctx, inv.Client.Email, msg.Subject, msg.BodyText, msg.BodyHTML)
	if err != nil {
		status = DeliveryFailed
		e.logger.Error("Failed to send reminder email",
			zap.String("invoice_id", inv.ID),
			zap.String("invoice_number", inv.Number),
			zap.String("level", decision.Level.String()),
			zap.Error(err))
	} else {
		e.logger.Info("Reminder email sent",
			zap.String("invoice_id", inv.ID),
			zap.String("invoice_number", inv.Number),
			zap.String("level", decision.Level.String()),
			zap.Int("days_past_due", decision.DaysPastDue),
			zap.String("message_id", messageID))
	}

	inv.AppendReminder(models.Reminder{
		Type:        decision.Level,
		SentAt:      now,
		DaysPastDue: decision.DaysPastDue,
	})

	return Summary{
		InvoiceID:      inv.ID,
		InvoiceNumber:  inv.Number,
		ClientEmail:    inv.Client.Email,
		ClientName:     inv.Client.Name,
		Type:           decision.Level,
		DaysPastDue:    decision.DaysPastDue,
		Amount:         inv.Totals.Total,
		Currency:       inv.Currency,
		DeliveryStatus: status,
	}
}
