package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestInvoiceStatus_IsValid(t *testing.T) {
	tests := []struct {
		status   InvoiceStatus
		expected bool
	}{
		{StatusDraft, true},
		{StatusSent, true},
		{StatusPaid, true},
		{StatusOverdue, true},
		{InvoiceStatus("Cancelled"), false},
		{InvoiceStatus(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.IsValid(); got != tt.expected {
				t.Errorf("IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestNextReminderLevel(t *testing.T) {
	inv := &Invoice{}

	want := []ReminderLevel{LevelFirst, LevelSecond, LevelThird, LevelFinal}
	for _, level := range want {
		got, ok := inv.NextReminderLevel()
		if !ok {
			t.Fatalf("NextReminderLevel() exhausted early at %s", level)
		}
		if got != level {
			t.Fatalf("NextReminderLevel() = %s, want %s", got, level)
		}
		inv.Reminders = append(inv.Reminders, Reminder{Type: level})
	}

	if _, ok := inv.NextReminderLevel(); ok {
		t.Error("NextReminderLevel() should be exhausted after final")
	}
}

func TestInvoice_Validate(t *testing.T) {
	due := time.Now()
	valid := Invoice{
		ID:      "a",
		Status:  StatusSent,
		DueDate: &due,
		Client:  Client{Email: "x@y.test"},
	}

	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}

	noDue := valid
	noDue.DueDate = nil
	if err := noDue.Validate(); err == nil {
		t.Error("Validate() should fail without due date")
	}

	noEmail := valid
	noEmail.Client.Email = ""
	if err := noEmail.Validate(); err == nil {
		t.Error("Validate() should fail without client email")
	}

	badStatus := valid
	badStatus.Status = "Bogus"
	if err := badStatus.Validate(); err == nil {
		t.Error("Validate() should fail with unknown status")
	}
}

func TestInvoice_IsOverdue(t *testing.T) {
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	past := now.AddDate(0, 0, -3)
	future := now.AddDate(0, 0, 3)

	tests := []struct {
		name     string
		status   InvoiceStatus
		due      *time.Time
		expected bool
	}{
		{"sent and past due", StatusSent, &past, true},
		{"sent and not yet due", StatusSent, &future, false},
		{"paid and past due", StatusPaid, &past, false},
		{"draft and past due", StatusDraft, &past, false},
		{"no due date", StatusSent, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := Invoice{Status: tt.status, DueDate: tt.due}
			if got := inv.IsOverdue(now); got != tt.expected {
				t.Errorf("IsOverdue() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestInvoice_CloneIsDeep(t *testing.T) {
	due := time.Now()
	inv := &Invoice{
		ID:        "a",
		DueDate:   &due,
		Reminders: []Reminder{{Type: LevelFirst, DaysPastDue: 1}},
	}

	clone := inv.Clone()
	clone.Reminders[0].Type = LevelFinal
	*clone.DueDate = due.AddDate(0, 0, 10)

	if inv.Reminders[0].Type != LevelFirst {
		t.Error("Clone() shares the reminders slice")
	}
	if !inv.DueDate.Equal(due) {
		t.Error("Clone() shares the due date pointer")
	}
}

func TestReminder_JSONShape(t *testing.T) {
	sentAt := time.Date(2024, 6, 15, 9, 30, 0, 0, time.UTC)
	r := Reminder{Type: LevelThird, SentAt: sentAt, DaysPastDue: 16}

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal() = %v", err)
	}

	want := `{"type":"third","sentAt":"2024-06-15T09:30:00Z","daysPastDue":16}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}
}
