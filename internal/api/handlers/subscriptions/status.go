package subscriptions

import (
	"context"
	"database/sql"
	"net/http"

	"pennypilot/internal/api/handlers"
	"pennypilot/internal/models"
	"pennypilot/internal/repositories/redisconn"
	"pennypilot/internal/repositories/sqlconnect"
	"pennypilot/pkg/utils"
)

func cachedTier(ctx context.Context, userID int) (models.Tier, bool) {
	if redisconn.Client == nil {
		return "", false
	}
	val, err := redisconn.Client.Get(ctx, tierCacheKey(userID)).Result()
	if err != nil {
		return "", false
	}
	tier, err := models.ParseTier(val)
	if err != nil {
		return "", false
	}
	return tier, true
}

func cacheTier(ctx context.Context, userID int, tier models.Tier) {
	if redisconn.Client == nil {
		return
	}
	if err := redisconn.Client.Set(ctx, tierCacheKey(userID), string(tier), tierCacheTTL).Err(); err != nil {
		utils.Logger.Warnf("failed to cache tier for user %d: %v", userID, err)
	}
}

// FUNC TO GET THE CURRENT SUBSCRIPTION STATUS
func GetSubscriptionStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	db := sqlconnect.DB
	if db == nil {
		utils.Logger.Error("DB is not initialized")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	userID, ok := handlers.UserIDFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	ctx := r.Context()

	tier, hit := cachedTier(ctx, userID)
	if !hit {
		var raw string
		err := db.QueryRowContext(ctx, "SELECT tier FROM users WHERE id = ?", userID).Scan(&raw)
		if err != nil {
			utils.Logger.Errorf("failed to load tier for user %d: %v", userID, err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		tier, err = models.ParseTier(raw)
		if err != nil {
			tier = models.TierFree
		}
		cacheTier(ctx, userID, tier)
	}

	resp := struct {
		Tier             models.Tier `json:"tier"`
		Status           string      `json:"status"`
		CurrentPeriodEnd string      `json:"currentPeriodEnd,omitempty"`
	}{
		Tier:   tier,
		Status: "none",
	}

	var status string
	var periodEnd sql.NullString
	err := db.QueryRowContext(ctx, `
		SELECT status, current_period_end FROM subscriptions
		WHERE user_id = ?
		ORDER BY updated_at DESC LIMIT 1`, userID).Scan(&status, &periodEnd)
	switch {
	case err == sql.ErrNoRows:
		// Free users have no subscription row.
	case err != nil:
		utils.Logger.Errorf("failed to load subscription for user %d: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	default:
		resp.Status = status
		if periodEnd.Valid {
			resp.CurrentPeriodEnd = periodEnd.String
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
