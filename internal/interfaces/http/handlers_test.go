package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ledgerkit/invoicing/internal/models"
	"github.com/ledgerkit/invoicing/internal/reminder"
	"github.com/ledgerkit/invoicing/internal/store"
)

const testToken = "test-secret"

// fakeRunner records Run invocations
type fakeRunner struct {
	result  *reminder.RunResult
	err     error
	calls   int
	gotOpts reminder.MessageOptions
}

func (r *fakeRunner) Run(ctx context.Context, now time.Time, opts reminder.MessageOptions) (*reminder.RunResult, error) {
	r.calls++
	r.gotOpts = opts
	if r.err != nil {
		return nil, r.err
	}
	return r.result, nil
}

func newTestServer(t *testing.T, invoices store.Store, runner ReminderRunner) *Server {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	return NewServer(ServerConfig{Host: "127.0.0.1", Port: 0}, invoices, runner, testToken, logger)
}

func doJSON(t *testing.T, srv *Server, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func TestRunReminders_RequiresAuth(t *testing.T) {
	runner := &fakeRunner{result: &reminder.RunResult{}}
	srv := newTestServer(t, store.NewMemoryStore(), runner)

	t.Run("missing token", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodPost, "/api/reminders/run", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong token", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodPost, "/api/reminders/run", "wrong", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	// No processing happened for either rejection
	assert.Zero(t, runner.calls)
}

func TestRunReminders_WrongMethod(t *testing.T) {
	srv := newTestServer(t, store.NewMemoryStore(), &fakeRunner{result: &reminder.RunResult{}})

	w := doJSON(t, srv, http.MethodGet, "/api/reminders/run", testToken, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestRunReminders_Success(t *testing.T) {
	runner := &fakeRunner{result: &reminder.RunResult{
		Processed: 5,
		Sent:      1,
		Reminders: []reminder.Summary{{
			InvoiceID:      "inv-1",
			InvoiceNumber:  "2024-001",
			ClientEmail:    "billing@acme.test",
			ClientName:     "Acme",
			Type:           models.LevelSecond,
			DaysPastDue:    9,
			Amount:         119,
			Currency:       "EUR",
			DeliveryStatus: reminder.DeliverySent,
		}},
	}}
	srv := newTestServer(t, store.NewMemoryStore(), runner)

	w := doJSON(t, srv, http.MethodPost, "/api/reminders/run", testToken, RunRemindersRequest{
		BankDetails: reminder.BankDetails{IBAN: "DE00"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp RunRemindersResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Sent 1 reminder", resp.Message)
	assert.Equal(t, 1, resp.RemindersSent)
	require.Len(t, resp.Reminders, 1)
	assert.Equal(t, "inv-1", resp.Reminders[0].InvoiceID)
	assert.Equal(t, models.LevelSecond, resp.Reminders[0].Type)
	assert.NotEmpty(t, resp.ProcessedAt)

	// Bank details forwarded into message construction
	assert.Equal(t, "DE00", runner.gotOpts.BankDetails.IBAN)
}

func TestRunReminders_EngineFailure(t *testing.T) {
	runner := &fakeRunner{err: errors.New("store exploded")}
	srv := newTestServer(t, store.NewMemoryStore(), runner)

	w := doJSON(t, srv, http.MethodPost, "/api/reminders/run", testToken, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "reminder run failed", resp.Error)
	assert.Contains(t, resp.Details, "store exploded")
}

func TestInvoiceCRUD(t *testing.T) {
	invoices := store.NewMemoryStore()
	srv := newTestServer(t, invoices, &fakeRunner{result: &reminder.RunResult{}})

	due := time.Now().UTC().AddDate(0, 0, 14).Truncate(time.Second)
	payload := InvoicePayload{
		Number:   "2024-001",
		Status:   models.StatusSent,
		Client:   models.Client{Name: "Acme", Email: "billing@acme.test"},
		DueDate:  &due,
		Totals:   models.Totals{Subtotal: 100, Tax: 19, Total: 119},
		Currency: "EUR",
	}

	var created models.Invoice

	t.Run("create", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodPost, "/api/invoices", "", payload)
		require.Equal(t, http.StatusCreated, w.Code)
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, "2024-001", created.Number)
	})

	t.Run("get", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodGet, "/api/invoices/"+created.ID, "", nil)
		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("get missing", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodGet, "/api/invoices/nope", "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("update preserves reminders", func(t *testing.T) {
		// Simulate a reminder having been sent in the meantime
		stored, err := invoices.Get(context.Background(), created.ID)
		require.NoError(t, err)
		stored.AppendReminder(models.Reminder{Type: models.LevelFirst, SentAt: time.Now().UTC(), DaysPastDue: 2})
		require.NoError(t, invoices.Save(context.Background(), stored))

		updated := payload
		updated.Notes = "edited by user"
		w := doJSON(t, srv, http.MethodPut, "/api/invoices/"+created.ID, "", updated)
		require.Equal(t, http.StatusOK, w.Code)

		var resp models.Invoice
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "edited by user", resp.Notes)
		require.Len(t, resp.Reminders, 1)
		assert.Equal(t, models.LevelFirst, resp.Reminders[0].Type)
	})

	t.Run("list", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodGet, "/api/invoices", "", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp []models.Invoice
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Len(t, resp, 1)
	})

	t.Run("list overdue filter", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodGet, "/api/invoices?overdue=true", "", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp []models.Invoice
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Empty(t, resp) // due date is in the future
	})

	t.Run("delete", func(t *testing.T) {
		w := doJSON(t, srv, http.MethodDelete, "/api/invoices/"+created.ID, "", nil)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = doJSON(t, srv, http.MethodDelete, "/api/invoices/"+created.ID, "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestCreateInvoice_InvalidStatus(t *testing.T) {
	srv := newTestServer(t, store.NewMemoryStore(), &fakeRunner{result: &reminder.RunResult{}})

	w := doJSON(t, srv, http.MethodPost, "/api/invoices", "", map[string]interface{}{
		"number": "2024-001",
		"status": "Bogus",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(t, store.NewMemoryStore(), &fakeRunner{result: &reminder.RunResult{}})

	w := doJSON(t, srv, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}
