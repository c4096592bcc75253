package transactions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"pennypilot/internal/api/handlers"
	"pennypilot/internal/models"
	"pennypilot/internal/repositories/sqlconnect"
	"pennypilot/pkg/utils"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// FUNC TO APPLY SPLITS TO A TRANSACTION
// Replaces any existing splits atomically: amounts must sum to the original
// amount and percentages to 100, or nothing changes.
func ApplySplits(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		utils.WriteError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	idStr := r.PathValue("id")
	transactionID, err := strconv.Atoi(idStr)
	if err != nil {
		utils.WriteError(w, "invalid transaction ID", http.StatusBadRequest)
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

	type splitRequest struct {
		Splits []models.TransactionSplit `json:"splits"`
	}

	var req splitRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		utils.WriteError(w, "invalid or unexpected fields in body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var originalAmount decimal.Decimal
	err = db.QueryRowContext(ctx, "SELECT original_amount FROM transactions WHERE id = ? AND user_id = ?", transactionID, userID).Scan(&originalAmount)
	if err != nil {
		if err == sql.ErrNoRows {
			utils.WriteError(w, "no transaction found", http.StatusNotFound)
			return
		}
		utils.Logger.Errorf("error fetching transaction: %v", err)
		utils.WriteError(w, "error splitting transaction", http.StatusInternalServerError)
		return
	}

	if err := models.ValidateSplits(originalAmount, req.Splits); err != nil {
		switch {
		case errors.Is(err, models.ErrNoSplits),
			errors.Is(err, models.ErrSplitAmountMismatch),
			errors.Is(err, models.ErrSplitPercentage),
			errors.Is(err, models.ErrSplitNotPositive),
			errors.Is(err, models.ErrSplitNoCategory):
			utils.WriteError(w, err.Error(), http.StatusBadRequest)
		default:
			utils.WriteError(w, "error splitting transaction", http.StatusInternalServerError)
		}
		return
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		utils.Logger.Errorf("failed to start transaction: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	_, err = tx.ExecContext(ctx, "DELETE FROM transaction_splits WHERE transaction_id = ?", transactionID)
	if err != nil {
		tx.Rollback()
		utils.Logger.Errorf("failed to clear old splits: %v", err)
		utils.WriteError(w, "error splitting transaction", http.StatusInternalServerError)
		return
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transaction_splits (transaction_id, amount, category_id, percentage, description)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		utils.Logger.Errorf("failed to prepare statement: %v", err)
		utils.WriteError(w, "error splitting transaction", http.StatusInternalServerError)
		return
	}
	defer stmt.Close()

	for _, split := range req.Splits {
		if _, err := stmt.ExecContext(ctx, transactionID, split.Amount, split.CategoryID, split.Percentage, split.Description); err != nil {
			tx.Rollback()
			utils.Logger.Errorf("failed to insert split: %v", err)
			utils.WriteError(w, "error splitting transaction", http.StatusInternalServerError)
			return
		}
	}

	_, err = tx.ExecContext(ctx, "UPDATE transactions SET is_parent = TRUE, updated_at = CURRENT_TIMESTAMP WHERE id = ?", transactionID)
	if err != nil {
		tx.Rollback()
		utils.Logger.Errorf("failed to mark parent transaction: %v", err)
		utils.WriteError(w, "error splitting transaction", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit(); err != nil {
		utils.Logger.Errorf("failed to commit splits: %v", err)
		utils.WriteError(w, "error splitting transaction", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "success",
		"message": "transaction split successfully",
		"count":   len(req.Splits),
	})
}

// FUNC TO REMOVE ALL SPLITS FROM A TRANSACTION
func ClearSplits(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		utils.WriteError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	idStr := r.PathValue("id")
	transactionID, err := strconv.Atoi(idStr)
	if err != nil {
		utils.WriteError(w, "invalid transaction ID", http.StatusBadRequest)
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

	var isParent bool
	err = db.QueryRowContext(ctx, "SELECT is_parent FROM transactions WHERE id = ? AND user_id = ?", transactionID, userID).Scan(&isParent)
	if err != nil {
		if err == sql.ErrNoRows {
			utils.WriteError(w, "no transaction found", http.StatusNotFound)
			return
		}
		utils.Logger.Errorf("error fetching transaction: %v", err)
		utils.WriteError(w, "error removing splits", http.StatusInternalServerError)
		return
	}

	if !isParent {
		utils.WriteError(w, "transaction has no splits", http.StatusBadRequest)
		return
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		utils.Logger.Errorf("failed to start transaction: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	_, err = tx.ExecContext(ctx, "DELETE FROM transaction_splits WHERE transaction_id = ?", transactionID)
	if err != nil {
		tx.Rollback()
		utils.Logger.Errorf("failed to delete splits: %v", err)
		utils.WriteError(w, "error removing splits", http.StatusInternalServerError)
		return
	}

	_, err = tx.ExecContext(ctx, "UPDATE transactions SET is_parent = FALSE, updated_at = CURRENT_TIMESTAMP WHERE id = ?", transactionID)
	if err != nil {
		tx.Rollback()
		utils.Logger.Errorf("failed to unmark parent transaction: %v", err)
		utils.WriteError(w, "error removing splits", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit(); err != nil {
		utils.Logger.Errorf("failed to commit split removal: %v", err)
		utils.WriteError(w, "error removing splits", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "success",
		"message": "splits removed successfully",
	})
}
