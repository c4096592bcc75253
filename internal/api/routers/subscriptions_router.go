package routers

import (
	"net/http"
	"pennypilot/internal/api/handlers/subscriptions"
)

func subscriptionsRouter() *http.ServeMux {
	mux := http.NewServeMux()

	h := subscriptions.NewDefaultHandler()

	mux.HandleFunc("/subscriptions/create-portal", h.CreatePortal)

	mux.HandleFunc("/subscriptions/create-checkout", h.CreateCheckout)

	mux.HandleFunc("/subscriptions/webhook", subscriptions.StripeWebhook)

	mux.HandleFunc("/subscriptions/status", subscriptions.GetSubscriptionStatus)

	return mux
}
