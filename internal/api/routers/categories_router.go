package routers

import (
	"net/http"
	"pennypilot/internal/api/handlers/categories"
)

func categoriesRouter() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/categories/", categories.GetAllCategories)

	mux.HandleFunc("/categories/create", categories.CreateCategory)

	mux.HandleFunc("/categories/{id}/update", categories.UpdateCategory)

	mux.HandleFunc("/categories/{id}/delete", categories.DeleteCategory)

	return mux
}
