package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ledgerkit/invoicing/internal/models"
	"github.com/ledgerkit/invoicing/internal/reminder"
	"github.com/ledgerkit/invoicing/internal/store"
)

// ReminderRunner triggers one reminder pass. Implemented by the reminder
// engine; narrowed to an interface so handlers are testable in isolation.
type ReminderRunner interface {
	Run(ctx context.Context, now time.Time, opts reminder.MessageOptions) (*reminder.RunResult, error)
}

// Handlers contains all HTTP request handlers
type Handlers struct {
	invoices store.Store
	engine   ReminderRunner
	logger   *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(invoices store.Store, engine ReminderRunner, logger *zap.Logger) *Handlers {
	return &Handlers{
		invoices: invoices,
		engine:   engine,
		logger:   logger,
	}
}

// ErrorResponse is the standard error payload
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// RunRemindersRequest is the optional trigger body. Bank details are
// forwarded into email construction; they do not affect escalation.
type RunRemindersRequest struct {
	BankDetails reminder.BankDetails `json:"bankDetails"`
}

// RunRemindersResponse is the trigger response payload
type RunRemindersResponse struct {
	Success       bool               `json:"success"`
	Message       string             `json:"message"`
	RemindersSent int                `json:"remindersSent"`
	Reminders     []reminder.Summary `json:"reminders"`
	ProcessedAt   string             `json:"processedAt"`
}

// InvoicePayload is the create/update request body
type InvoicePayload struct {
	Number    string               `json:"number"`
	Status    models.InvoiceStatus `json:"status"`
	Client    models.Client        `json:"client"`
	IssueDate *time.Time           `json:"issueDate"`
	DueDate   *time.Time           `json:"dueDate"`
	Totals    models.Totals        `json:"totals"`
	Currency  string               `json:"currency"`
	Notes     string               `json:"notes"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "invoicing",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// RunReminders handles POST /api/reminders/run
func (h *Handlers) RunReminders(c *gin.Context) {
	var req RunRemindersRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Details: err.Error()})
			return
		}
	}

	now := time.Now().UTC()
	result, err := h.engine.Run(c.Request.Context(), now, reminder.MessageOptions{
		BankDetails: req.BankDetails,
	})
	if err != nil {
		h.logger.Error("Reminder run failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "reminder run failed", Details: err.Error()})
		return
	}

	reminders := result.Reminders
	if reminders == nil {
		reminders = []reminder.Summary{}
	}

	c.JSON(http.StatusOK, RunRemindersResponse{
		Success:       true,
		Message:       runMessage(result),
		RemindersSent: result.Sent,
		Reminders:     reminders,
		ProcessedAt:   now.Format(time.RFC3339),
	})
}

func runMessage(result *reminder.RunResult) string {
	if result.Sent == 0 {
		return "No reminders due"
	}
	if result.Sent == 1 {
		return "Sent 1 reminder"
	}
	return fmt.Sprintf("Sent %d reminders", result.Sent)
}

// ListInvoices handles GET /api/invoices. The overdue=true query filters
// to Sent invoices past their due date.
func (h *Handlers) ListInvoices(c *gin.Context) {
	invoices, err := h.invoices.List(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list invoices", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to list invoices"})
		return
	}

	if c.Query("overdue") == "true" {
		now := time.Now().UTC()
		filtered := make([]models.Invoice, 0, len(invoices))
		for i := range invoices {
			if invoices[i].IsOverdue(now) {
				filtered = append(filtered, invoices[i])
			}
		}
		invoices = filtered
	}

	if invoices == nil {
		invoices = []models.Invoice{}
	}
	c.JSON(http.StatusOK, invoices)
}

// GetInvoice handles GET /api/invoices/:id
func (h *Handlers) GetInvoice(c *gin.Context) {
	inv, err := h.invoices.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "invoice not found"})
		return
	}
	if err != nil {
		h.logger.Error("Failed to get invoice", zap.String("invoice_id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to get invoice"})
		return
	}
	c.JSON(http.StatusOK, inv)
}

// CreateInvoice handles POST /api/invoices
func (h *Handlers) CreateInvoice(c *gin.Context) {
	var payload InvoicePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Details: err.Error()})
		return
	}

	now := time.Now().UTC()
	inv := models.Invoice{
		ID:        models.NewInvoiceID(),
		Number:    payload.Number,
		Status:    payload.Status,
		Client:    payload.Client,
		IssueDate: payload.IssueDate,
		DueDate:   payload.DueDate,
		Totals:    payload.Totals,
		Currency:  payload.Currency,
		Notes:     payload.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if inv.Status == "" {
		inv.Status = models.StatusDraft
	}
	if !inv.Status.IsValid() {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid invoice status"})
		return
	}

	if err := h.invoices.Save(c.Request.Context(), &inv); err != nil {
		h.logger.Error("Failed to create invoice", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to create invoice"})
		return
	}
	c.JSON(http.StatusCreated, inv)
}

// UpdateInvoice handles PUT /api/invoices/:id. The existing reminder
// history is always preserved: edits never rewrite prior reminder records.
func (h *Handlers) UpdateInvoice(c *gin.Context) {
	existing, err := h.invoices.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "invoice not found"})
		return
	}
	if err != nil {
		h.logger.Error("Failed to load invoice for update", zap.String("invoice_id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to update invoice"})
		return
	}

	var payload InvoicePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Details: err.Error()})
		return
	}
	if payload.Status != "" && !payload.Status.IsValid() {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid invoice status"})
		return
	}

	existing.Number = payload.Number
	if payload.Status != "" {
		existing.Status = payload.Status
	}
	existing.Client = payload.Client
	existing.IssueDate = payload.IssueDate
	existing.DueDate = payload.DueDate
	existing.Totals = payload.Totals
	existing.Currency = payload.Currency
	existing.Notes = payload.Notes
	existing.UpdatedAt = time.Now().UTC()

	if err := h.invoices.Save(c.Request.Context(), existing); err != nil {
		h.logger.Error("Failed to update invoice", zap.String("invoice_id", existing.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to update invoice"})
		return
	}
	c.JSON(http.StatusOK, existing)
}

// DeleteInvoice handles DELETE /api/invoices/:id
func (h *Handlers) DeleteInvoice(c *gin.Context) {
	err := h.invoices.Delete(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "invoice not found"})
		return
	}
	if err != nil {
		h.logger.Error("Failed to delete invoice", zap.String("invoice_id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to delete invoice"})
		return
	}
	c.Status(http.StatusNoContent)
}
