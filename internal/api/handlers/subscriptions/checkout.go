package subscriptions

import (
	"encoding/json"
	"net/http"
	"os"
	"pennypilot/internal/api/handlers"
	"pennypilot/internal/models"
	"pennypilot/pkg/utils"
)

// priceIDForTier maps a paid tier to its provider price id.
func priceIDForTier(tier models.Tier) string {
	switch tier {
	case models.TierPlus:
		return os.Getenv("STRIPE_PRICE_PLUS")
	case models.TierPremium:
		return os.Getenv("STRIPE_PRICE_PREMIUM")
	}
	return ""
}

// TierForPriceID is the reverse mapping, used by the webhook to derive the
// tier from a subscription's price.
func TierForPriceID(priceID string) (models.Tier, bool) {
	switch {
	case priceID == "":
		return "", false
	case priceID == os.Getenv("STRIPE_PRICE_PLUS"):
		return models.TierPlus, true
	case priceID == os.Getenv("STRIPE_PRICE_PREMIUM"):
		return models.TierPremium, true
	}
	return "", false
}

// FUNC TO CREATE A CHECKOUT SESSION FOR AN UPGRADE
func (h *Handler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if h.stripe == nil {
		utils.Logger.Error("checkout requested but Stripe client is not configured")
		writeError(w, http.StatusInternalServerError, "Stripe not configured")
		return
	}

	email, ok := handlers.EmailFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	name, _ := r.Context().Value(utils.ContextKey("username")).(string)

	var req struct {
		Tier string `json:"tier"`
	}
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	defer r.Body.Close()

	tier, err := models.ParseTier(req.Tier)
	if err != nil || tier == models.TierFree {
		writeError(w, http.StatusBadRequest, "Tier must be plus or premium")
		return
	}

	priceID := priceIDForTier(tier)
	if priceID == "" {
		utils.Logger.Errorf("no price configured for tier %s", tier)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	customerID, err := h.resolveCustomer(r.Context(), email, name)
	if err != nil {
		utils.Logger.Errorf("failed to resolve billing customer for %s: %v", email, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	session, err := h.stripe.CreateCheckoutSession(
		customerID,
		priceID,
		h.baseURL+"/dashboard?upgraded=true",
		h.baseURL+"/pricing",
		map[string]string{
			"user_email": email,
			"tier":       string(tier),
		},
	)
	if err != nil {
		utils.Logger.Errorf("failed to create checkout session for %s: %v", customerID, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"checkoutUrl": session.URL})
}
