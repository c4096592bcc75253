package subscriptions

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pennypilot/internal/repositories/sqlconnect"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const webhookSecret = "whsec_test"

func signedWebhookRequest(body []byte) *http.Request {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	fmt.Fprintf(mac, "%d.%s", ts, body)

	r := httptest.NewRequest(http.MethodPost, "/subscriptions/webhook", bytes.NewReader(body))
	r.Header.Set("Stripe-Signature", fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil))))
	return r
}

func withMockDB(t *testing.T) sqlmock.Sqlmock {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	old := sqlconnect.DB
	sqlconnect.DB = db
	t.Cleanup(func() {
		sqlconnect.DB = old
		db.Close()
	})
	return mock
}

func TestStripeWebhook_InvalidSignature(t *testing.T) {
	t.Setenv("STRIPE_WEBHOOK_SECRET", webhookSecret)
	mock := withMockDB(t)

	body := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{}}}`)
	r := httptest.NewRequest(http.MethodPost, "/subscriptions/webhook", bytes.NewReader(body))
	r.Header.Set("Stripe-Signature", "t=123,v1=deadbeef")

	rec := httptest.NewRecorder()
	StripeWebhook(rec, r)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet(), "a rejected signature must not touch the database")
}

func TestStripeWebhook_DuplicateEventIgnored(t *testing.T) {
	t.Setenv("STRIPE_WEBHOOK_SECRET", webhookSecret)
	mock := withMockDB(t)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("evt_dup").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	body := []byte(`{"id":"evt_dup","type":"checkout.session.completed","data":{"object":{}}}`)
	rec := httptest.NewRecorder()
	StripeWebhook(rec, signedWebhookRequest(body))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet(), "a duplicate event must be acknowledged without processing")
}

func TestStripeWebhook_UnhandledEventTypeIgnored(t *testing.T) {
	t.Setenv("STRIPE_WEBHOOK_SECRET", webhookSecret)
	mock := withMockDB(t)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("evt_other").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	body := []byte(`{"id":"evt_other","type":"invoice.paid","data":{"object":{}}}`)
	rec := httptest.NewRecorder()
	StripeWebhook(rec, signedWebhookRequest(body))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ignored", rec.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func checkoutEvent(id string) webhookEvent {
	event := webhookEvent{ID: id, Type: "checkout.session.completed"}
	event.Data.Object = []byte(`{
		"customer": "cus_1",
		"subscription": "sub_1",
		"amount_total": 999,
		"metadata": {"user_email": "jane@example.com", "tier": "plus"}
	}`)
	return event
}

func TestHandleCheckoutCompleted(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT id, username FROM users").
		WithArgs("jane@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username"}).AddRow(7, "jane"))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE users SET tier").
		WithArgs("plus", "cus_1", 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO subscriptions").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO webhook_events").
		WithArgs("evt_co", "checkout.session.completed").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, handleCheckoutCompleted(db, checkoutEvent("evt_co")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleCheckoutCompleted_MissingMetadata(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	event := webhookEvent{ID: "evt_bad", Type: "checkout.session.completed"}
	event.Data.Object = []byte(`{"customer": "cus_1", "metadata": {}}`)

	assert.Error(t, handleCheckoutCompleted(db, event))
	assert.NoError(t, mock.ExpectationsWereMet(), "bad metadata must fail before any query")
}

func subscriptionEvent(id, status, priceID string) webhookEvent {
	event := webhookEvent{ID: id, Type: "customer.subscription.updated"}
	event.Data.Object = []byte(fmt.Sprintf(`{
		"id": "sub_1",
		"customer": "cus_1",
		"status": %q,
		"current_period_end": 1893456000,
		"items": {"data": [{"price": {"id": %q}}]}
	}`, status, priceID))
	return event
}

func TestHandleSubscriptionUpdated(t *testing.T) {
	t.Setenv("STRIPE_PRICE_PLUS", "price_plus")

	tests := []struct {
		name     string
		status   string
		priceID  string
		wantTier string
	}{
		{name: "active paid subscription", status: "active", priceID: "price_plus", wantTier: "plus"},
		{name: "trialing subscription", status: "trialing", priceID: "price_plus", wantTier: "plus"},
		{name: "past_due downgrades", status: "past_due", priceID: "price_plus", wantTier: "free"},
		{name: "unknown price downgrades", status: "active", priceID: "price_stale", wantTier: "free"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			mock.ExpectQuery("SELECT id FROM users").
				WithArgs("cus_1").
				WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
			mock.ExpectBegin()
			mock.ExpectExec("UPDATE users SET tier").
				WithArgs(tt.wantTier, 7).
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectExec("INSERT INTO subscriptions").
				WillReturnResult(sqlmock.NewResult(1, 1))
			mock.ExpectExec("INSERT INTO webhook_events").
				WillReturnResult(sqlmock.NewResult(1, 1))
			mock.ExpectCommit()

			require.NoError(t, handleSubscriptionUpdated(db, subscriptionEvent("evt_up", tt.status, tt.priceID)))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestHandleSubscriptionDeleted(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	event := webhookEvent{ID: "evt_del", Type: "customer.subscription.deleted"}
	event.Data.Object = []byte(`{"id": "sub_1", "customer": "cus_1"}`)

	mock.ExpectQuery("SELECT id FROM users").
		WithArgs("cus_1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE users SET tier").
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE subscriptions SET status").
		WithArgs("sub_1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO webhook_events").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, handleSubscriptionDeleted(db, event))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleSubscriptionDeleted_RollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	event := webhookEvent{ID: "evt_del", Type: "customer.subscription.deleted"}
	event.Data.Object = []byte(`{"id": "sub_1", "customer": "cus_1"}`)

	mock.ExpectQuery("SELECT id FROM users").
		WithArgs("cus_1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE users SET tier").
		WithArgs(7).
		WillReturnError(fmt.Errorf("connection reset"))
	mock.ExpectRollback()

	require.Error(t, handleSubscriptionDeleted(db, event))
	assert.NoError(t, mock.ExpectationsWereMet(), "a failed write inside the transaction must roll back")
}
