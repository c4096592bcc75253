package subscriptions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"pennypilot/internal/services"
	"pennypilot/pkg/utils"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStripe struct {
	mu          sync.Mutex
	customers   map[string]*services.Customer
	byKey       map[string]*services.Customer
	listCalls   int32
	createCalls int32
	listErr     error
	createErr   error
	portalErr   error
	portalURL   string
	listGate    *sync.WaitGroup
}

func newFakeStripe() *fakeStripe {
	return &fakeStripe{
		customers: make(map[string]*services.Customer),
		byKey:     make(map[string]*services.Customer),
		portalURL: "https://billing.stripe.com/session/abc",
	}
}

func (f *fakeStripe) ListCustomersByEmail(email string) (*services.Customer, error) {
	atomic.AddInt32(&f.listCalls, 1)
	if f.listErr != nil {
		return nil, f.listErr
	}
	if f.listGate != nil {
		f.listGate.Done()
		f.listGate.Wait()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.customers[email], nil
}

// CreateCustomer mirrors the provider's idempotency semantics: a repeated key
// returns the object minted by the first call instead of a new one.
func (f *fakeStripe) CreateCustomer(email, name string, metadata map[string]string, idempotencyKey string) (*services.Customer, error) {
	atomic.AddInt32(&f.createCalls, 1)
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if idempotencyKey != "" {
		if existing, ok := f.byKey[idempotencyKey]; ok {
			return existing, nil
		}
	}
	customer := &services.Customer{
		ID:       fmt.Sprintf("cus_new_%d", len(f.byKey)+1),
		Email:    email,
		Name:     name,
		Metadata: metadata,
	}
	f.byKey[idempotencyKey] = customer
	f.customers[email] = customer
	return customer, nil
}

func (f *fakeStripe) customersMinted() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byKey)
}

func (f *fakeStripe) CreatePortalSession(customerID, returnURL string) (*services.PortalSession, error) {
	if f.portalErr != nil {
		return nil, f.portalErr
	}
	return &services.PortalSession{ID: "bps_1", Customer: customerID, ReturnURL: returnURL, URL: f.portalURL}, nil
}

func (f *fakeStripe) CreateCheckoutSession(customerID, priceID, successURL, cancelURL string, metadata map[string]string) (*services.CheckoutSession, error) {
	return &services.CheckoutSession{ID: "cs_1", Customer: customerID, URL: "https://checkout.stripe.com/pay/abc"}, nil
}

// errLocker simulates a lock backend that is reachable at boot but failing at
// request time.
type errLocker struct{}

func (errLocker) Lock(context.Context, string) (func(), error) {
	return nil, errors.New("lock backend unavailable")
}

type memoryStore struct {
	mu  sync.Mutex
	ids map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{ids: make(map[string]string)}
}

func (s *memoryStore) StripeCustomerID(_ context.Context, email string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ids[email], nil
}

func (s *memoryStore) SaveStripeCustomerID(_ context.Context, email, customerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[email] = customerID
	return nil
}

func authedRequest(method, target, email string) *http.Request {
	r := httptest.NewRequest(method, target, nil)
	ctx := context.WithValue(r.Context(), utils.ContextKey("email"), email)
	ctx = context.WithValue(ctx, utils.ContextKey("username"), "jane")
	return r.WithContext(ctx)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestCreatePortal(t *testing.T) {
	stripe := newFakeStripe()
	handler := NewHandler(stripe, newMemoryStore(), newLocalLocker(), "https://app.example.com")

	rec := httptest.NewRecorder()
	handler.CreatePortal(rec, authedRequest(http.MethodPost, "/subscriptions/create-portal", "jane@example.com"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://billing.stripe.com/session/abc", decodeBody(t, rec)["portalUrl"])
	assert.EqualValues(t, 1, stripe.createCalls)
}

func TestCreatePortal_MethodNotAllowed(t *testing.T) {
	handler := NewHandler(newFakeStripe(), newMemoryStore(), newLocalLocker(), "https://app.example.com")

	rec := httptest.NewRecorder()
	handler.CreatePortal(rec, authedRequest(http.MethodGet, "/subscriptions/create-portal", "jane@example.com"))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCreatePortal_StripeNotConfigured(t *testing.T) {
	handler := NewHandler(nil, newMemoryStore(), newLocalLocker(), "https://app.example.com")

	rec := httptest.NewRecorder()
	handler.CreatePortal(rec, authedRequest(http.MethodPost, "/subscriptions/create-portal", "jane@example.com"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Stripe not configured", decodeBody(t, rec)["error"])
}

func TestCreatePortal_Unauthorized(t *testing.T) {
	handler := NewHandler(newFakeStripe(), newMemoryStore(), newLocalLocker(), "https://app.example.com")

	rec := httptest.NewRecorder()
	handler.CreatePortal(rec, httptest.NewRequest(http.MethodPost, "/subscriptions/create-portal", nil))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Unauthorized", decodeBody(t, rec)["error"])
}

func TestCreatePortal_ReusesPersistedCustomer(t *testing.T) {
	stripe := newFakeStripe()
	store := newMemoryStore()
	require.NoError(t, store.SaveStripeCustomerID(context.Background(), "jane@example.com", "cus_existing"))

	handler := NewHandler(stripe, store, newLocalLocker(), "https://app.example.com")

	rec := httptest.NewRecorder()
	handler.CreatePortal(rec, authedRequest(http.MethodPost, "/subscriptions/create-portal", "jane@example.com"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, stripe.listCalls, "persisted id should skip the provider lookup")
	assert.EqualValues(t, 0, stripe.createCalls)
}

func TestCreatePortal_ReusesProviderCustomer(t *testing.T) {
	stripe := newFakeStripe()
	stripe.customers["jane@example.com"] = &services.Customer{ID: "cus_existing", Email: "jane@example.com"}
	store := newMemoryStore()

	handler := NewHandler(stripe, store, newLocalLocker(), "https://app.example.com")

	rec := httptest.NewRecorder()
	handler.CreatePortal(rec, authedRequest(http.MethodPost, "/subscriptions/create-portal", "jane@example.com"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, stripe.createCalls, "existing provider customer should be reused")

	id, err := store.StripeCustomerID(context.Background(), "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, "cus_existing", id, "resolved id should be persisted")
}

func TestCreatePortal_ProviderFailure(t *testing.T) {
	stripe := newFakeStripe()
	stripe.portalErr = &services.APIError{StatusCode: http.StatusInternalServerError, Message: "boom"}

	handler := NewHandler(stripe, newMemoryStore(), newLocalLocker(), "https://app.example.com")

	rec := httptest.NewRecorder()
	handler.CreatePortal(rec, authedRequest(http.MethodPost, "/subscriptions/create-portal", "jane@example.com"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", decodeBody(t, rec)["error"])
}

func TestCreatePortal_ConcurrentFirstRequests(t *testing.T) {
	stripe := newFakeStripe()
	handler := NewHandler(stripe, newMemoryStore(), newLocalLocker(), "https://app.example.com")

	const workers = 8
	var wg sync.WaitGroup
	codes := make([]int, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := httptest.NewRecorder()
			handler.CreatePortal(rec, authedRequest(http.MethodPost, "/subscriptions/create-portal", "jane@example.com"))
			codes[i] = rec.Code
		}(i)
	}
	wg.Wait()

	for _, code := range codes {
		assert.Equal(t, http.StatusOK, code)
	}
	assert.EqualValues(t, 1, stripe.createCalls, "only one customer may be created per email")
	assert.Equal(t, 1, stripe.customersMinted())
}

func TestCreatePortal_ConcurrentRequestsWhenLockFails(t *testing.T) {
	const workers = 4

	stripe := newFakeStripe()
	gate := &sync.WaitGroup{}
	gate.Add(workers)
	stripe.listGate = gate

	// With the lock backend down every request races past the store re-check;
	// the email-derived idempotency key must still collapse the creates.
	handler := NewHandler(stripe, newMemoryStore(), errLocker{}, "https://app.example.com")

	var wg sync.WaitGroup
	codes := make([]int, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := httptest.NewRecorder()
			handler.CreatePortal(rec, authedRequest(http.MethodPost, "/subscriptions/create-portal", "jane@example.com"))
			codes[i] = rec.Code
		}(i)
	}
	wg.Wait()

	for _, code := range codes {
		assert.Equal(t, http.StatusOK, code)
	}
	assert.Equal(t, 1, stripe.customersMinted(), "concurrent creates for one email must share one idempotency key")
}

type failingStore struct {
	*memoryStore
	lookupErr error
}

func (s *failingStore) StripeCustomerID(ctx context.Context, email string) (string, error) {
	return "", s.lookupErr
}

func TestCreatePortal_StoreLookupFailureIsLogged(t *testing.T) {
	hook := logtest.NewLocal(utils.Logger)
	defer hook.Reset()

	stripe := newFakeStripe()
	store := &failingStore{memoryStore: newMemoryStore(), lookupErr: errors.New("db down")}
	handler := NewHandler(stripe, store, newLocalLocker(), "https://app.example.com")

	rec := httptest.NewRecorder()
	handler.CreatePortal(rec, authedRequest(http.MethodPost, "/subscriptions/create-portal", "jane@example.com"))

	require.Equal(t, http.StatusOK, rec.Code, "a store outage should degrade to a provider round-trip")

	var warned bool
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel && strings.Contains(entry.Message, "customer lookup failed") {
			warned = true
		}
	}
	assert.True(t, warned, "store lookup failure should leave a warning")
}

func TestCreateCheckout_RejectsFreeTier(t *testing.T) {
	handler := NewHandler(newFakeStripe(), newMemoryStore(), newLocalLocker(), "https://app.example.com")

	for _, tier := range []string{"free", "gold", ""} {
		r := authedRequest(http.MethodPost, "/subscriptions/create-checkout", "jane@example.com")
		r.Body = io.NopCloser(strings.NewReader(`{"tier":"` + tier + `"}`))

		rec := httptest.NewRecorder()
		handler.CreateCheckout(rec, r)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "tier %q", tier)
	}
}

func TestCreateCheckout(t *testing.T) {
	t.Setenv("STRIPE_PRICE_PLUS", "price_plus")

	stripe := newFakeStripe()
	handler := NewHandler(stripe, newMemoryStore(), newLocalLocker(), "https://app.example.com")

	r := authedRequest(http.MethodPost, "/subscriptions/create-checkout", "jane@example.com")
	r.Body = io.NopCloser(strings.NewReader(`{"tier":"plus"}`))

	rec := httptest.NewRecorder()
	handler.CreateCheckout(rec, r)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://checkout.stripe.com/pay/abc", decodeBody(t, rec)["checkoutUrl"])
}
