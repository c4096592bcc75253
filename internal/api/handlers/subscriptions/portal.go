package subscriptions

import (
	"net/http"
	"pennypilot/internal/api/handlers"
	"pennypilot/pkg/utils"
)

// FUNC TO CREATE A BILLING PORTAL SESSION
// Resolves session -> billing customer -> hosted portal URL.
func (h *Handler) CreatePortal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if h.stripe == nil {
		utils.Logger.Error("billing portal requested but Stripe client is not configured")
		writeError(w, http.StatusInternalServerError, "Stripe not configured")
		return
	}

	email, ok := handlers.EmailFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	name, _ := r.Context().Value(utils.ContextKey("username")).(string)

	customerID, err := h.resolveCustomer(r.Context(), email, name)
	if err != nil {
		utils.Logger.Errorf("failed to resolve billing customer for %s: %v", email, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	session, err := h.stripe.CreatePortalSession(customerID, h.baseURL+"/dashboard")
	if err != nil {
		utils.Logger.Errorf("failed to create portal session for %s: %v", customerID, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"portalUrl": session.URL})
}
