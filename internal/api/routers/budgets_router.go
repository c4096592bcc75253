package routers

import (
	"net/http"
	"pennypilot/internal/api/handlers/budgets"
)

func budgetsRouter() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/budgets/", budgets.GetAllUserBudgets)

	mux.HandleFunc("/budgets/create", budgets.CreateBudget)

	mux.HandleFunc("/budgets/{id}/update", budgets.UpdateBudget)

	mux.HandleFunc("/budgets/{id}/delete", budgets.DeleteBudget)

	mux.HandleFunc("/budgets/{id}/status", budgets.GetBudgetStatus)

	return mux
}
