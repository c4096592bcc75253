package subscriptions

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"pennypilot/internal/services"
	"pennypilot/pkg/utils"
)

// StripeAPI is the slice of the billing provider this package needs. The
// concrete client is injected so tests can substitute a double.
type StripeAPI interface {
	ListCustomersByEmail(email string) (*services.Customer, error)
	CreateCustomer(email, name string, metadata map[string]string, idempotencyKey string) (*services.Customer, error)
	CreatePortalSession(customerID, returnURL string) (*services.PortalSession, error)
	CreateCheckoutSession(customerID, priceID, successURL, cancelURL string, metadata map[string]string) (*services.CheckoutSession, error)
}

// CustomerStore persists the provider customer id keyed by user email so the
// provider lookup happens at most once per user.
type CustomerStore interface {
	StripeCustomerID(ctx context.Context, email string) (string, error)
	SaveStripeCustomerID(ctx context.Context, email, customerID string) error
}

// Locker serializes first-time customer creation per email. Lock returns an
// unlock func; errors are treated as advisory because the idempotency key is
// derived from the email, so creates that race past a failed lock still
// collapse to one customer provider-side.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

type Handler struct {
	stripe  StripeAPI
	store   CustomerStore
	locks   Locker
	baseURL string
}

func NewHandler(stripe StripeAPI, store CustomerStore, locks Locker, baseURL string) *Handler {
	return &Handler{
		stripe:  stripe,
		store:   store,
		locks:   locks,
		baseURL: baseURL,
	}
}

// NewDefaultHandler wires production dependencies. A missing secret key
// leaves the stripe field nil; handlers report the configuration error per
// request instead of failing the whole server.
func NewDefaultHandler() *Handler {
	var stripe StripeAPI
	client, err := services.NewStripeClient()
	if err != nil {
		if errors.Is(err, services.ErrStripeNotConfigured) {
			utils.Logger.Warn("Stripe client not configured; billing endpoints will return errors")
		} else {
			utils.Logger.Errorf("failed to build Stripe client: %v", err)
		}
	} else {
		stripe = client
	}

	return NewHandler(stripe, &sqlCustomerStore{}, newDefaultLocker(), os.Getenv("APP_BASE_URL"))
}

// The billing endpoints speak the bare {error}/{portalUrl} contract expected
// by the web client, not the app-wide {status,message} envelope.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// resolveCustomer finds or creates the billing customer for an email. The
// persisted id wins; otherwise the per-email lock is taken, the store is
// re-checked, and only then is the provider consulted.
func (h *Handler) resolveCustomer(ctx context.Context, email, name string) (string, error) {
	id, err := h.store.StripeCustomerID(ctx, email)
	if err != nil {
		utils.Logger.Warnf("stripe customer lookup failed for %s: %v", email, err)
	} else if id != "" {
		return id, nil
	}

	if h.locks != nil {
		unlock, err := h.locks.Lock(ctx, "stripe-customer:"+email)
		if err != nil {
			utils.Logger.Warnf("customer creation lock unavailable for %s: %v", email, err)
		} else {
			defer unlock()
		}
	}

	// A concurrent request may have won the lock first and saved the id.
	id, err = h.store.StripeCustomerID(ctx, email)
	if err != nil {
		utils.Logger.Warnf("stripe customer lookup failed for %s: %v", email, err)
	} else if id != "" {
		return id, nil
	}

	customer, err := h.stripe.ListCustomersByEmail(email)
	if err != nil {
		return "", err
	}

	if customer == nil {
		customer, err = h.stripe.CreateCustomer(email, name, map[string]string{
			"user_email": email,
		}, services.GenerateIdempotencyKey("cust", email))
		if err != nil {
			return "", err
		}
	}

	if err := h.store.SaveStripeCustomerID(ctx, email, customer.ID); err != nil {
		utils.Logger.Errorf("failed to persist stripe customer id for %s: %v", email, err)
	}

	return customer.ID, nil
}
