package routers

import (
	"net/http"
	"pennypilot/internal/api/handlers/transactions"
)

func transactionsRouter() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/transactions/user", transactions.GetAllUserTransactions)

	mux.HandleFunc("/transactions/{id}/user", transactions.GetTransactionById)

	mux.HandleFunc("/transactions/create", transactions.CreateTransaction)

	mux.HandleFunc("/transactions/{id}/update", transactions.UpdateTransaction)

	mux.HandleFunc("/transactions/{id}/delete", transactions.DeleteTransaction)

	// PUT replaces the split set, DELETE clears it.
	mux.HandleFunc("/transactions/{id}/splits", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			transactions.ClearSplits(w, r)
			return
		}
		transactions.ApplySplits(w, r)
	})

	return mux
}
