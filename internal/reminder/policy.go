package reminder

import (
	"time"

	"github.com/ledgerkit/invoicing/internal/models"
)

// Decision is the outcome of evaluating one invoice against the
// escalation policy.
type Decision struct {
	Send        bool
	Level       models.ReminderLevel
	DaysPastDue int
}

// escalationStep pairs a reminder level with the minimum number of days
// an invoice must be overdue before that level fires. Each step is gated
// on the invoice having sent exactly the previous steps: an invoice with
// an empty history only ever receives the first reminder, no matter how
// overdue it is. Escalation therefore advances at most one level per
// evaluation, and the history length (not elapsed time) makes re-runs
// with the same clock a no-op.
type escalationStep struct {
	Level   models.ReminderLevel
	MinDays int
}

var escalationTable = []escalationStep{
	{models.LevelFirst, 1},
	{models.LevelSecond, 7},
	{models.LevelThird, 15},
	{models.LevelFinal, 30},
}

// Decide evaluates a single invoice against the escalation table and
// returns whether a reminder should be sent now, and at which level.
// It is pure: no clocks, no I/O.
func Decide(inv *models.Invoice, now time.Time) Decision {
	if inv.Status != models.StatusSent {
		return Decision{}
	}
	if inv.DueDate == nil {
		return Decision{}
	}

	days := DaysSinceOverdue(*inv.DueDate, now)
	if days <= 0 {
		return Decision{}
	}

	sent := len(inv.Reminders)
	if sent >= len(escalationTable) {
		return Decision{}
	}

	step := escalationTable[sent]
	if days < step.MinDays {
		return Decision{}
	}

	return Decision{
		Send:        true,
		Level:       step.Level,
		DaysPastDue: days,
	}
}

// DaysSinceOverdue returns the whole number of days between the due date
// and now, truncating toward zero. The comparison is between absolute
// instants; no calendar or timezone adjustment is applied.
func DaysSinceOverdue(dueDate, now time.Time) int {
	return int(now.Sub(dueDate) / (24 * time.Hour))
}
