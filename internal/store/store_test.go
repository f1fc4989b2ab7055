package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerkit/invoicing/internal/models"
)

func testInvoice(id string, reminders ...models.Reminder) models.Invoice {
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	due := now.AddDate(0, 0, 14)
	return models.Invoice{
		ID:        id,
		Number:    "N-" + id,
		Status:    models.StatusSent,
		Client:    models.Client{Name: "Client", Email: id + "@client.test"},
		DueDate:   &due,
		Totals:    models.Totals{Subtotal: 100, Tax: 19, Total: 119},
		Currency:  "EUR",
		Reminders: reminders,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func testReminders() []models.Reminder {
	base := time.Date(2024, 6, 20, 8, 0, 0, 0, time.UTC)
	return []models.Reminder{
		{Type: models.LevelFirst, SentAt: base, DaysPastDue: 1},
		{Type: models.LevelSecond, SentAt: base.AddDate(0, 0, 7), DaysPastDue: 8},
		{Type: models.LevelThird, SentAt: base.AddDate(0, 0, 15), DaysPastDue: 16},
	}
}

// storeUnderTest runs the shared Store contract tests against a backend
func storeUnderTest(t *testing.T, s Store) {
	ctx := context.Background()

	t.Run("empty list", func(t *testing.T) {
		invoices, err := s.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, invoices)
	})

	t.Run("save and get", func(t *testing.T) {
		inv := testInvoice("s1")
		require.NoError(t, s.Save(ctx, &inv))

		got, err := s.Get(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, inv.ID, got.ID)
		assert.Equal(t, inv.Client.Email, got.Client.Email)
		require.NotNil(t, got.DueDate)
		assert.True(t, inv.DueDate.Equal(*got.DueDate))
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := s.Get(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("update preserves identity", func(t *testing.T) {
		inv := testInvoice("s1")
		inv.Status = models.StatusPaid
		require.NoError(t, s.Save(ctx, &inv))

		got, err := s.Get(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, models.StatusPaid, got.Status)

		invoices, err := s.List(ctx)
		require.NoError(t, err)
		assert.Len(t, invoices, 1)
	})

	t.Run("reminders round-trip ordered", func(t *testing.T) {
		inv := testInvoice("s2", testReminders()...)
		require.NoError(t, s.Save(ctx, &inv))

		got, err := s.Get(ctx, "s2")
		require.NoError(t, err)
		require.Len(t, got.Reminders, 3)
		for i, want := range testReminders() {
			assert.Equal(t, want.Type, got.Reminders[i].Type)
			assert.True(t, want.SentAt.Equal(got.Reminders[i].SentAt))
			assert.Equal(t, want.DaysPastDue, got.Reminders[i].DaysPastDue)
		}
	})

	t.Run("replace all keeps order", func(t *testing.T) {
		batch := []models.Invoice{
			testInvoice("r1"),
			testInvoice("r2", testReminders()...),
			testInvoice("r3"),
		}
		require.NoError(t, s.ReplaceAll(ctx, batch))

		invoices, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, invoices, 3)
		assert.Equal(t, "r1", invoices[0].ID)
		assert.Equal(t, "r2", invoices[1].ID)
		assert.Equal(t, "r3", invoices[2].ID)
		assert.Len(t, invoices[1].Reminders, 3)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, "r2"))
		_, err := s.Get(ctx, "r2")
		assert.ErrorIs(t, err, ErrNotFound)

		assert.ErrorIs(t, s.Delete(ctx, "r2"), ErrNotFound)

		invoices, err := s.List(ctx)
		require.NoError(t, err)
		assert.Len(t, invoices, 2)
	})
}
