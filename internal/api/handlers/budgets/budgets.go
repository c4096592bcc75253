package budgets

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"pennypilot/internal/api/handlers"
	"pennypilot/internal/models"
	"pennypilot/internal/repositories/sqlconnect"
	"pennypilot/pkg/utils"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// FUNC TO GET ALL BUDGETS FOR A USER
func GetAllUserBudgets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.WriteError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	db := sqlconnect.DB
	if db == nil {
		utils.Logger.Error("DB is not initialized")
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	userID, ok := handlers.UserIDFromContext(r)
	if !ok {
		utils.WriteError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	rows, err := db.QueryContext(ctx, `
		SELECT id, category_id, amount, period, start_date, is_active, created_at, updated_at
		FROM budgets
		WHERE user_id = ?
		ORDER BY is_active DESC, created_at DESC`, userID)
	if err != nil {
		utils.Logger.Errorf("error fetching budgets: %v", err)
		utils.WriteError(w, "error fetching budgets", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	var budgets []models.Budget
	for rows.Next() {
		var budget models.Budget
		budget.UserID = userID
		if err := rows.Scan(&budget.ID, &budget.CategoryID, &budget.Amount, &budget.Period, &budget.StartDate, &budget.IsActive, &budget.CreatedAt, &budget.UpdatedAt); err != nil {
			utils.Logger.Errorf("error scanning budget: %v", err)
			utils.WriteError(w, "error fetching budgets", http.StatusInternalServerError)
			return
		}
		budgets = append(budgets, budget)
	}

	response := struct {
		Status string          `json:"status"`
		Count  int             `json:"count"`
		Data   []models.Budget `json:"data"`
	}{
		Status: "success",
		Count:  len(budgets),
		Data:   budgets,
	}

	utils.WriteJSON(w, response)
}

// FUNC TO CREATE A BUDGET
// Free-tier accounts are limited to a fixed number of active budgets.
func CreateBudget(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.WriteError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	db := sqlconnect.DB
	if db == nil {
		utils.Logger.Error("DB is not initialized")
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	userID, ok := handlers.UserIDFromContext(r)
	if !ok {
		utils.WriteError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	type budgetRequest struct {
		CategoryID int             `json:"category_id"`
		Amount     decimal.Decimal `json:"amount"`
		Period     string          `json:"period"`
		StartDate  string          `json:"start_date"`
	}

	var req budgetRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		utils.WriteError(w, "invalid or unexpected fields in body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if req.CategoryID == 0 {
		utils.WriteError(w, "category is required", http.StatusBadRequest)
		return
	}
	if !req.Amount.IsPositive() {
		utils.WriteError(w, "amount must be greater than 0", http.StatusBadRequest)
		return
	}
	if !models.ValidBudgetPeriod(req.Period) {
		utils.WriteError(w, "period must be monthly or yearly", http.StatusBadRequest)
		return
	}
	if req.StartDate == "" {
		req.StartDate = time.Now().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", req.StartDate); err != nil {
		utils.WriteError(w, "start_date must be in YYYY-MM-DD format", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// Tier comes from the DB, not the token: the claim can lag a webhook.
	var tierStr string
	if err := db.QueryRowContext(ctx, "SELECT tier FROM users WHERE id = ?", userID).Scan(&tierStr); err != nil {
		utils.Logger.Errorf("error fetching user tier: %v", err)
		utils.WriteError(w, "error creating budget", http.StatusInternalServerError)
		return
	}
	tier, err := models.ParseTier(tierStr)
	if err != nil {
		tier = models.TierFree
	}

	if limit := tier.ActiveBudgetLimit(); limit >= 0 {
		var activeCount int
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM budgets WHERE user_id = ? AND is_active = TRUE", userID).Scan(&activeCount); err != nil {
			utils.Logger.Errorf("error counting active budgets: %v", err)
			utils.WriteError(w, "error creating budget", http.StatusInternalServerError)
			return
		}
		if activeCount >= limit {
			utils.WriteError(w, "active budget limit reached, upgrade to add more", http.StatusForbidden)
			return
		}
	}

	res, err := db.ExecContext(ctx, `
		INSERT INTO budgets (user_id, category_id, amount, period, start_date, is_active)
		VALUES (?, ?, ?, ?, ?, TRUE)`,
		userID, req.CategoryID, req.Amount, req.Period, req.StartDate)
	if err != nil {
		utils.Logger.Errorf("failed to insert budget: %v", err)
		utils.WriteError(w, "error creating budget", http.StatusInternalServerError)
		return
	}

	id, _ := res.LastInsertId()

	budget := models.Budget{
		ID:         int(id),
		UserID:     userID,
		CategoryID: req.CategoryID,
		Amount:     req.Amount,
		Period:     req.Period,
		StartDate:  req.StartDate,
		IsActive:   true,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "success",
		"data":   budget,
	})
}

// FUNC TO UPDATE A BUDGET
func UpdateBudget(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		utils.WriteError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	idStr := r.PathValue("id")
	budgetID, err := strconv.Atoi(idStr)
	if err != nil {
		utils.WriteError(w, "invalid budget ID", http.StatusBadRequest)
		return
	}

	db := sqlconnect.DB
	if db == nil {
		utils.Logger.Error("DB is not initialized")
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	userID, ok := handlers.UserIDFromContext(r)
	if !ok {
		utils.WriteError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	type updateRequest struct {
		Amount   *decimal.Decimal `json:"amount"`
		Period   *string          `json:"period"`
		IsActive *bool            `json:"is_active"`
	}

	var req updateRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		utils.WriteError(w, "invalid or unexpected fields in body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if req.Amount == nil && req.Period == nil && req.IsActive == nil {
		utils.WriteError(w, "nothing to update", http.StatusBadRequest)
		return
	}
	if req.Amount != nil && !req.Amount.IsPositive() {
		utils.WriteError(w, "amount must be greater than 0", http.StatusBadRequest)
		return
	}
	if req.Period != nil && !models.ValidBudgetPeriod(*req.Period) {
		utils.WriteError(w, "period must be monthly or yearly", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	query := "UPDATE budgets SET updated_at = CURRENT_TIMESTAMP"
	args := []interface{}{}
	if req.Amount != nil {
		query += ", amount = ?"
		args = append(args, *req.Amount)
	}
	if req.Period != nil {
		query += ", period = ?"
		args = append(args, *req.Period)
	}
	if req.IsActive != nil {
		query += ", is_active = ?"
		args = append(args, *req.IsActive)
	}
	query += " WHERE id = ? AND user_id = ?"
	args = append(args, budgetID, userID)

	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		utils.Logger.Errorf("failed to update budget: %v", err)
		utils.WriteError(w, "error updating budget", http.StatusInternalServerError)
		return
	}

	rowsAffected, _ := res.RowsAffected()
	if rowsAffected == 0 {
		utils.WriteError(w, "no budget found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "success",
		"message": "budget updated successfully",
	})
}

// FUNC TO DELETE A BUDGET
func DeleteBudget(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		utils.WriteError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	idStr := r.PathValue("id")
	budgetID, err := strconv.Atoi(idStr)
	if err != nil {
		utils.WriteError(w, "invalid budget ID", http.StatusBadRequest)
		return
	}

	db := sqlconnect.DB
	if db == nil {
		utils.Logger.Error("DB is not initialized")
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	userID, ok := handlers.UserIDFromContext(r)
	if !ok {
		utils.WriteError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := db.ExecContext(ctx, "DELETE FROM budgets WHERE id = ? AND user_id = ?", budgetID, userID)
	if err != nil {
		utils.Logger.Errorf("failed to delete budget: %v", err)
		utils.WriteError(w, "error deleting budget", http.StatusInternalServerError)
		return
	}

	rowsAffected, _ := res.RowsAffected()
	if rowsAffected == 0 {
		utils.WriteError(w, "no budget found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "success",
		"message": "budget deleted successfully",
	})
}

// FUNC TO GET SPENT-VS-BUDGETED FOR ONE BUDGET
// Sums category spending over the current period window; split portions count
// toward their own category, not the parent's.
func GetBudgetStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.WriteError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	idStr := r.PathValue("id")
	budgetID, err := strconv.Atoi(idStr)
	if err != nil {
		utils.WriteError(w, "invalid budget ID", http.StatusBadRequest)
		return
	}

	db := sqlconnect.DB
	if db == nil {
		utils.Logger.Error("DB is not initialized")
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	userID, ok := handlers.UserIDFromContext(r)
	if !ok {
		utils.WriteError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var budget models.Budget
	budget.ID = budgetID
	budget.UserID = userID
	err = db.QueryRowContext(ctx, "SELECT category_id, amount, period, start_date, is_active FROM budgets WHERE id = ? AND user_id = ?", budgetID, userID).Scan(&budget.CategoryID, &budget.Amount, &budget.Period, &budget.StartDate, &budget.IsActive)
	if err != nil {
		if err == sql.ErrNoRows {
			utils.WriteError(w, "no budget found", http.StatusNotFound)
			return
		}
		utils.Logger.Errorf("error fetching budget: %v", err)
		utils.WriteError(w, "error fetching budget status", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	var periodStart time.Time
	if budget.Period == "yearly" {
		periodStart = time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	} else {
		periodStart = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	periodStartStr := periodStart.Format("2006-01-02")

	var direct, split sql.NullString
	err = db.QueryRowContext(ctx, `
		SELECT
			(SELECT COALESCE(SUM(original_amount), 0) FROM transactions
			 WHERE user_id = ? AND category_id = ? AND is_parent = FALSE AND date >= ?),
			(SELECT COALESCE(SUM(s.amount), 0) FROM transaction_splits s
			 JOIN transactions t ON s.transaction_id = t.id
			 WHERE t.user_id = ? AND s.category_id = ? AND t.date >= ?)`,
		userID, budget.CategoryID, periodStartStr,
		userID, budget.CategoryID, periodStartStr,
	).Scan(&direct, &split)
	if err != nil {
		utils.Logger.Errorf("error computing budget spend: %v", err)
		utils.WriteError(w, "error fetching budget status", http.StatusInternalServerError)
		return
	}

	spent := decimal.Zero
	for _, v := range []sql.NullString{direct, split} {
		if v.Valid {
			d, err := decimal.NewFromString(v.String)
			if err == nil {
				spent = spent.Add(d)
			}
		}
	}

	response := struct {
		Status    string          `json:"status"`
		Budget    models.Budget   `json:"budget"`
		Spent     decimal.Decimal `json:"spent"`
		Remaining decimal.Decimal `json:"remaining"`
		Over      bool            `json:"over"`
	}{
		Status:    "success",
		Budget:    budget,
		Spent:     spent,
		Remaining: budget.Amount.Sub(spent),
		Over:      spent.GreaterThan(budget.Amount),
	}

	utils.WriteJSON(w, response)
}
