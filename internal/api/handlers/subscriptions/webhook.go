package subscriptions

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"pennypilot/internal/models"
	"pennypilot/internal/repositories/redisconn"
	"pennypilot/internal/repositories/sqlconnect"
	"pennypilot/pkg/utils"

	"github.com/shopspring/decimal"
)

const tierCacheTTL = 5 * time.Minute

func tierCacheKey(userID int) string {
	return fmt.Sprintf("tier:%d", userID)
}

func invalidateTierCache(ctx context.Context, userID int) {
	if redisconn.Client == nil {
		return
	}
	if err := redisconn.Client.Del(ctx, tierCacheKey(userID)).Err(); err != nil {
		utils.Logger.Warnf("failed to invalidate tier cache for user %d: %v", userID, err)
	}
}

type webhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// StripeWebhook ingests subscription lifecycle notifications. It is the only
// writer of users.tier besides the expiry sweep, keeping the tier single-
// sourced; token claims and the Redis cache are derived views.
func StripeWebhook(w http.ResponseWriter, r *http.Request) {
	db := sqlconnect.DB
	if db == nil {
		utils.Logger.Error("DB is not initialized")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	defer r.Body.Close()

	sig := r.Header.Get("Stripe-Signature")
	if !utils.VerifyStripeSignature(sig, body) {
		utils.Logger.Warn("Invalid Stripe webhook signature")
		writeError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if event.ID == "" || event.Type == "" {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	var seen int
	err = db.QueryRow("SELECT COUNT(*) FROM webhook_events WHERE event_id = ?", event.ID).Scan(&seen)
	if err != nil {
		utils.Logger.Errorf("Failed to check duplicate webhook event: %v", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	if seen > 0 {
		utils.Logger.Infof("Duplicate webhook event ignored: %s", event.ID)
		respondOK(w)
		return
	}

	switch event.Type {
	case "checkout.session.completed":
		err = handleCheckoutCompleted(db, event)
	case "customer.subscription.updated":
		err = handleSubscriptionUpdated(db, event)
	case "customer.subscription.deleted":
		err = handleSubscriptionDeleted(db, event)
	default:
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ignored"))
		return
	}

	if err != nil {
		utils.Logger.Errorf("Failed to process webhook event %s (%s): %v", event.ID, event.Type, err)
		writeError(w, http.StatusInternalServerError, "failed to process event")
		return
	}

	respondOK(w)
}

func respondOK(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func markEventProcessed(tx *sql.Tx, event webhookEvent) error {
	_, err := tx.Exec("INSERT INTO webhook_events (event_id, event_type) VALUES (?, ?)", event.ID, event.Type)
	return err
}

func handleCheckoutCompleted(db *sql.DB, event webhookEvent) error {
	var object struct {
		Customer     string            `json:"customer"`
		Subscription string            `json:"subscription"`
		AmountTotal  int64             `json:"amount_total"`
		Metadata     map[string]string `json:"metadata"`
	}
	if err := json.Unmarshal(event.Data.Object, &object); err != nil {
		return fmt.Errorf("invalid checkout object: %w", err)
	}

	email := object.Metadata["user_email"]
	if email == "" {
		return fmt.Errorf("checkout session %s has no user_email metadata", event.ID)
	}
	tier, err := models.ParseTier(object.Metadata["tier"])
	if err != nil || tier == models.TierFree {
		return fmt.Errorf("checkout session %s has no valid tier metadata", event.ID)
	}

	var userID int
	var username string
	err = db.QueryRow("SELECT id, username FROM users WHERE email = ?", email).Scan(&userID, &username)
	if err != nil {
		return fmt.Errorf("no user for checkout email %s: %w", email, err)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}

	_, err = tx.Exec("UPDATE users SET tier = ?, stripe_customer_id = ? WHERE id = ?", tier, object.Customer, userID)
	if err != nil {
		tx.Rollback()
		return err
	}

	_, err = tx.Exec(`
		INSERT INTO subscriptions (user_id, stripe_subscription_id, tier, status)
		VALUES (?, ?, ?, 'active')
		ON DUPLICATE KEY UPDATE tier = VALUES(tier), status = 'active', updated_at = CURRENT_TIMESTAMP`,
		userID, object.Subscription, tier)
	if err != nil {
		tx.Rollback()
		return err
	}

	if err := markEventProcessed(tx, event); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	invalidateTierCache(context.Background(), userID)

	amount := decimal.NewFromInt(object.AmountTotal).Div(decimal.NewFromInt(100))
	periodEnd := time.Now().AddDate(0, 1, 0)
	go func(email, username, tier, amount string, periodEnd time.Time) {
		if err := utils.SendSubscriptionReceiptEmail(email, username, tier, amount, periodEnd); err != nil {
			utils.Logger.Errorf("failed to send receipt email to %s: %v", email, err)
		}
	}(email, username, string(tier), amount.StringFixed(2), periodEnd)

	utils.Logger.Infof("Checkout completed for user %d, tier %s", userID, tier)
	return nil
}

func handleSubscriptionUpdated(db *sql.DB, event webhookEvent) error {
	var object struct {
		ID               string `json:"id"`
		Customer         string `json:"customer"`
		Status           string `json:"status"`
		CurrentPeriodEnd int64  `json:"current_period_end"`
		Items            struct {
			Data []struct {
				Price struct {
					ID string `json:"id"`
				} `json:"price"`
			} `json:"data"`
		} `json:"items"`
	}
	if err := json.Unmarshal(event.Data.Object, &object); err != nil {
		return fmt.Errorf("invalid subscription object: %w", err)
	}

	var userID int
	err := db.QueryRow("SELECT id FROM users WHERE stripe_customer_id = ?", object.Customer).Scan(&userID)
	if err != nil {
		return fmt.Errorf("no user for stripe customer %s: %w", object.Customer, err)
	}

	tier := models.TierFree
	if object.Status == "active" || object.Status == "trialing" {
		if len(object.Items.Data) > 0 {
			if t, ok := TierForPriceID(object.Items.Data[0].Price.ID); ok {
				tier = t
			}
		}
	}

	periodEnd := time.Unix(object.CurrentPeriodEnd, 0).UTC().Format("2006-01-02 15:04:05")

	tx, err := db.Begin()
	if err != nil {
		return err
	}

	_, err = tx.Exec("UPDATE users SET tier = ? WHERE id = ?", tier, userID)
	if err != nil {
		tx.Rollback()
		return err
	}

	_, err = tx.Exec(`
		INSERT INTO subscriptions (user_id, stripe_subscription_id, tier, status, current_period_end)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE tier = VALUES(tier), status = VALUES(status), current_period_end = VALUES(current_period_end), updated_at = CURRENT_TIMESTAMP`,
		userID, object.ID, tier, object.Status, periodEnd)
	if err != nil {
		tx.Rollback()
		return err
	}

	if err := markEventProcessed(tx, event); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	invalidateTierCache(context.Background(), userID)
	utils.Logger.Infof("Subscription %s updated for user %d: status %s, tier %s", object.ID, userID, object.Status, tier)
	return nil
}

func handleSubscriptionDeleted(db *sql.DB, event webhookEvent) error {
	var object struct {
		ID       string `json:"id"`
		Customer string `json:"customer"`
	}
	if err := json.Unmarshal(event.Data.Object, &object); err != nil {
		return fmt.Errorf("invalid subscription object: %w", err)
	}

	var userID int
	err := db.QueryRow("SELECT id FROM users WHERE stripe_customer_id = ?", object.Customer).Scan(&userID)
	if err != nil {
		return fmt.Errorf("no user for stripe customer %s: %w", object.Customer, err)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}

	_, err = tx.Exec("UPDATE users SET tier = 'free' WHERE id = ?", userID)
	if err != nil {
		tx.Rollback()
		return err
	}

	_, err = tx.Exec("UPDATE subscriptions SET status = 'canceled', updated_at = CURRENT_TIMESTAMP WHERE stripe_subscription_id = ?", object.ID)
	if err != nil {
		tx.Rollback()
		return err
	}

	if err := markEventProcessed(tx, event); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	invalidateTierCache(context.Background(), userID)
	utils.Logger.Infof("Subscription %s canceled for user %d", object.ID, userID)
	return nil
}
