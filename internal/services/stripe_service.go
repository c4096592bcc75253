package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// ErrStripeNotConfigured is returned when the secret key is missing from the
// environment. Handlers map it to the configuration-error response.
var ErrStripeNotConfigured = errors.New("STRIPE_SECRET_KEY environment variable is not set")

type StripeClient struct {
	SecretKey string
	BaseURL   string
	Client    *http.Client
}

func NewStripeClient() (*StripeClient, error) {
	secretKey := os.Getenv("STRIPE_SECRET_KEY")
	if secretKey == "" {
		return nil, ErrStripeNotConfigured
	}
	return &StripeClient{
		SecretKey: secretKey,
		BaseURL:   "https://api.stripe.com",
		Client:    &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// APIError is a non-2xx response from Stripe, decoded from its error envelope.
type APIError struct {
	StatusCode int
	Type       string `json:"type"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("stripe API error (status %d, type %s): %s", e.StatusCode, e.Type, e.Message)
}

type Customer struct {
	ID       string            `json:"id"`
	Email    string            `json:"email"`
	Name     string            `json:"name"`
	Metadata map[string]string `json:"metadata"`
}

type PortalSession struct {
	ID        string `json:"id"`
	Customer  string `json:"customer"`
	ReturnURL string `json:"return_url"`
	URL       string `json:"url"`
}

type CheckoutSession struct {
	ID       string `json:"id"`
	Customer string `json:"customer"`
	URL      string `json:"url"`
}

type customerList struct {
	Object  string     `json:"object"`
	Data    []Customer `json:"data"`
	HasMore bool       `json:"has_more"`
}

// doRequest performs one call against the Stripe REST API. Request bodies are
// form-encoded, responses are JSON. An idempotency key, when given, is passed
// through so that retried creates cannot duplicate objects provider-side.
func (s *StripeClient) doRequest(method, endpoint string, form url.Values, idempotencyKey string, out interface{}) error {
	endpointURL := fmt.Sprintf("%s%s", s.BaseURL, endpoint)

	var reqBody io.Reader
	if method != http.MethodGet && form != nil {
		reqBody = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequest(method, endpointURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Add("Authorization", "Bearer "+s.SecretKey)
	if reqBody != nil {
		req.Header.Add("Content-Type", "application/x-www-form-urlencoded")
	}
	if idempotencyKey != "" {
		req.Header.Add("Idempotency-Key", idempotencyKey)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var envelope struct {
			Error *APIError `json:"error"`
		}
		respBody, _ := io.ReadAll(resp.Body)
		if err := json.Unmarshal(respBody, &envelope); err == nil && envelope.Error != nil {
			apiErr.Type = envelope.Error.Type
			apiErr.Code = envelope.Error.Code
			apiErr.Message = envelope.Error.Message
		} else {
			apiErr.Message = string(respBody)
		}
		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
		}
	}
	return nil
}

// ListCustomersByEmail returns the first customer whose email matches exactly,
// or nil when there is none.
func (s *StripeClient) ListCustomersByEmail(email string) (*Customer, error) {
	if email == "" {
		return nil, fmt.Errorf("email cannot be empty")
	}

	endpoint := fmt.Sprintf("/v1/customers?email=%s&limit=1", url.QueryEscape(email))
	var list customerList
	if err := s.doRequest(http.MethodGet, endpoint, nil, "", &list); err != nil {
		return nil, err
	}
	if len(list.Data) == 0 {
		return nil, nil
	}
	return &list.Data[0], nil
}

// CreateCustomer creates a billing customer carrying the application email as
// the linking key in its metadata.
func (s *StripeClient) CreateCustomer(email, name string, metadata map[string]string, idempotencyKey string) (*Customer, error) {
	if email == "" {
		return nil, fmt.Errorf("email cannot be empty")
	}

	form := url.Values{}
	form.Set("email", email)
	if name != "" {
		form.Set("name", name)
	}
	for k, v := range metadata {
		form.Set(fmt.Sprintf("metadata[%s]", k), v)
	}

	var customer Customer
	if err := s.doRequest(http.MethodPost, "/v1/customers", form, idempotencyKey, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

// CreatePortalSession requests a short-lived hosted billing portal session
// for the customer.
func (s *StripeClient) CreatePortalSession(customerID, returnURL string) (*PortalSession, error) {
	if customerID == "" {
		return nil, fmt.Errorf("customer ID cannot be empty")
	}

	form := url.Values{}
	form.Set("customer", customerID)
	if returnURL != "" {
		form.Set("return_url", returnURL)
	}

	var session PortalSession
	if err := s.doRequest(http.MethodPost, "/v1/billing_portal/sessions", form, "", &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// CreateCheckoutSession starts a subscription-mode checkout for one price.
func (s *StripeClient) CreateCheckoutSession(customerID, priceID, successURL, cancelURL string, metadata map[string]string) (*CheckoutSession, error) {
	if customerID == "" || priceID == "" {
		return nil, fmt.Errorf("customer ID and price ID are required")
	}

	form := url.Values{}
	form.Set("customer", customerID)
	form.Set("mode", "subscription")
	form.Set("line_items[0][price]", priceID)
	form.Set("line_items[0][quantity]", "1")
	form.Set("success_url", successURL)
	form.Set("cancel_url", cancelURL)
	for k, v := range metadata {
		form.Set(fmt.Sprintf("metadata[%s]", k), v)
	}

	var session CheckoutSession
	if err := s.doRequest(http.MethodPost, "/v1/checkout/sessions", form, "", &session); err != nil {
		return nil, err
	}
	return &session, nil
}
