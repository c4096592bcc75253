package categories

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
)

// FUNC TO GET ALL CATEGORIES VISIBLE TO A USER
// Defaults are shared rows with a NULL user_id.
func GetAllCategories(w http.ResponseWriter, r *http.Request) {
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
		SELECT id, user_id, name, type, color, is_default, created_at
		FROM categories
		WHERE user_id = ? OR is_default = TRUE
		ORDER BY is_default DESC, name ASC`, userID)
	if err != nil {
		utils.Logger.Errorf("error fetching categories: %v", err)
		utils.WriteError(w, "error fetching categories", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var category models.Category
		if err := rows.Scan(&category.ID, &category.UserID, &category.Name, &category.Type, &category.Color, &category.IsDefault, &category.CreatedAt); err != nil {
			utils.Logger.Errorf("error scanning category: %v", err)
			utils.WriteError(w, "error fetching categories", http.StatusInternalServerError)
			return
		}
		categories = append(categories, category)
	}

	response := struct {
		Status string            `json:"status"`
		Count  int               `json:"count"`
		Data   []models.Category `json:"data"`
	}{
		Status: "success",
		Count:  len(categories),
		Data:   categories,
	}

	utils.WriteJSON(w, response)
}

// FUNC TO CREATE A CATEGORY
func CreateCategory(w http.ResponseWriter, r *http.Request) {
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

	type categoryRequest struct {
		Name  string `json:"name"`
		Type  string `json:"type"`
		Color string `json:"color"`
	}

	var req categoryRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		utils.WriteError(w, "invalid or unexpected fields in body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if req.Name == "" {
		utils.WriteError(w, "category name is required", http.StatusBadRequest)
		return
	}
	if !models.ValidCategoryType(req.Type) {
		utils.WriteError(w, "category type must be income or expense", http.StatusBadRequest)
		return
	}
	if req.Color == "" {
		req.Color = "#808080"
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := db.ExecContext(ctx, `
		INSERT INTO categories (user_id, name, type, color, is_default)
		VALUES (?, ?, ?, ?, FALSE)`,
		userID, req.Name, req.Type, req.Color)
	if err != nil {
		utils.Logger.Errorf("failed to insert category: %v", err)
		utils.WriteError(w, "error creating category", http.StatusInternalServerError)
		return
	}

	id, _ := res.LastInsertId()

	category := models.Category{
		ID:     int(id),
		UserID: sql.NullInt64{Int64: int64(userID), Valid: true},
		Name:   req.Name,
		Type:   req.Type,
		Color:  req.Color,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "success",
		"data":   category,
	})
}

// FUNC TO UPDATE A CATEGORY
// Default categories are read-only.
func UpdateCategory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		utils.WriteError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	idStr := r.PathValue("id")
	categoryID, err := strconv.Atoi(idStr)
	if err != nil {
		utils.WriteError(w, "invalid category ID", http.StatusBadRequest)
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
		Name  *string `json:"name"`
		Color *string `json:"color"`
	}

	var req updateRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		utils.WriteError(w, "invalid or unexpected fields in body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if req.Name == nil && req.Color == nil {
		utils.WriteError(w, "nothing to update", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	query := "UPDATE categories SET id = id"
	args := []interface{}{}
	if req.Name != nil {
		query += ", name = ?"
		args = append(args, *req.Name)
	}
	if req.Color != nil {
		query += ", color = ?"
		args = append(args, *req.Color)
	}
	query += " WHERE id = ? AND user_id = ? AND is_default = FALSE"
	args = append(args, categoryID, userID)

	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		utils.Logger.Errorf("failed to update category: %v", err)
		utils.WriteError(w, "error updating category", http.StatusInternalServerError)
		return
	}

	rowsAffected, _ := res.RowsAffected()
	if rowsAffected == 0 {
		utils.WriteError(w, "category not found or not editable", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "success",
		"message": "category updated successfully",
	})
}

// FUNC TO DELETE A CATEGORY
func DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		utils.WriteError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	idStr := r.PathValue("id")
	categoryID, err := strconv.Atoi(idStr)
	if err != nil {
		utils.WriteError(w, "invalid category ID", http.StatusBadRequest)
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

	var inUse int
	err = db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM transactions WHERE category_id = ?
	`, categoryID).Scan(&inUse)
	if err != nil {
		utils.Logger.Errorf("failed to check category usage: %v", err)
		utils.WriteError(w, "error deleting category", http.StatusInternalServerError)
		return
	}
	if inUse > 0 {
		utils.WriteError(w, "category is in use by transactions", http.StatusConflict)
		return
	}

	res, err := db.ExecContext(ctx, "DELETE FROM categories WHERE id = ? AND user_id = ? AND is_default = FALSE", categoryID, userID)
	if err != nil {
		utils.Logger.Errorf("failed to delete category: %v", err)
		utils.WriteError(w, "error deleting category", http.StatusInternalServerError)
		return
	}

	rowsAffected, _ := res.RowsAffected()
	if rowsAffected == 0 {
		utils.WriteError(w, "category not found or not deletable", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "success",
		"message": "category deleted successfully",
	})
}
