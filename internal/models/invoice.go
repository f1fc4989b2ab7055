package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// InvoiceStatus represents the lifecycle status of an invoice
type InvoiceStatus string

const (
	StatusDraft   InvoiceStatus = "Draft"
	StatusSent    InvoiceStatus = "Sent"
	StatusPaid    InvoiceStatus = "Paid"
	StatusOverdue InvoiceStatus = "Overdue"
)

var validStatuses = map[InvoiceStatus]bool{
	StatusDraft:   true,
	StatusSent:    true,
	StatusPaid:    true,
	StatusOverdue: true,
}

// IsValid returns true if the status is a known invoice status
func (s InvoiceStatus) IsValid() bool {
	return validStatuses[s]
}

// String returns the string representation of the status
func (s InvoiceStatus) String() string {
	return string(s)
}

// ReminderLevel represents one step of the reminder escalation sequence
type ReminderLevel string

const (
	LevelFirst  ReminderLevel = "first"
	LevelSecond ReminderLevel = "second"
	LevelThird  ReminderLevel = "third"
	LevelFinal  ReminderLevel = "final"
)

// EscalationSequence is the fixed, ordered reminder sequence. An invoice's
// reminder history must always be a prefix of this sequence.
var EscalationSequence = []ReminderLevel{LevelFirst, LevelSecond, LevelThird, LevelFinal}

// IsValid returns true if the level is a known escalation level
func (l ReminderLevel) IsValid() bool {
	for _, level := range EscalationSequence {
		if l == level {
			return true
		}
	}
	return false
}

// String returns the string representation of the level
func (l ReminderLevel) String() string {
	return string(l)
}

// Reminder records one sent escalation step. Records are append-only:
// sentAt and daysPastDue are fixed at send time and never recomputed.
type Reminder struct {
	Type        ReminderLevel `json:"type"`
	SentAt      time.Time     `json:"sentAt"`
	DaysPastDue int           `json:"daysPastDue"`
}

// Client holds the recipient identity for invoice notifications
type Client struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Totals holds the monetary totals of an invoice
type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}

// Invoice represents a customer invoice
type Invoice struct {
	ID        string        `json:"id"`
	Number    string        `json:"number"`
	Status    InvoiceStatus `json:"status"`
	Client    Client        `json:"client"`
	IssueDate *time.Time    `json:"issueDate,omitempty"`
	DueDate   *time.Time    `json:"dueDate,omitempty"`
	Totals    Totals        `json:"totals"`
	Currency  string        `json:"currency"`
	Reminders []Reminder    `json:"reminders,omitempty"`
	Notes     string        `json:"notes,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// NewInvoiceID generates an opaque unique invoice identifier
func NewInvoiceID() string {
	return uuid.NewString()
}

// Validate checks that the invoice is well-formed enough to process
func (i *Invoice) Validate() error {
	if i.ID == "" {
		return fmt.Errorf("invoice id is required")
	}
	if !i.Status.IsValid() {
		return fmt.Errorf("invalid invoice status: %q", i.Status)
	}
	if i.DueDate == nil {
		return fmt.Errorf("invoice %s has no due date", i.ID)
	}
	if i.Client.Email == "" {
		return fmt.Errorf("invoice %s has no client email", i.ID)
	}
	return nil
}

// IsOverdue returns true if the invoice is past due relative to now.
// Status is a separate concern: a Sent invoice can be overdue without
// its status ever changing to Overdue.
func (i *Invoice) IsOverdue(now time.Time) bool {
	if i.DueDate == nil {
		return false
	}
	return i.Status == StatusSent && now.After(*i.DueDate)
}

// NextReminderLevel returns the level that would follow the current
// reminder history, or false if the sequence is exhausted.
func (i *Invoice) NextReminderLevel() (ReminderLevel, bool) {
	if len(i.Reminders) >= len(EscalationSequence) {
		return "", false
	}
	return EscalationSequence[len(i.Reminders)], true
}

// AppendReminder appends a reminder record and bumps updatedAt.
// Existing records are never mutated or removed.
func (i *Invoice) AppendReminder(r Reminder) {
	i.Reminders = append(i.Reminders, r)
	i.UpdatedAt = r.SentAt
}

// Clone returns a deep copy of the invoice
func (i *Invoice) Clone() *Invoice {
	clone := *i
	if i.IssueDate != nil {
		d := *i.IssueDate
		clone.IssueDate = &d
	}
	if i.DueDate != nil {
		d := *i.DueDate
		clone.DueDate = &d
	}
	if i.Reminders != nil {
		clone.Reminders = make([]Reminder, len(i.Reminders))
		copy(clone.Reminders, i.Reminders)
	}
	return &clone
}
