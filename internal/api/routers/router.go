package routers

import (
	"net/http"
)

func MainRouter() *http.ServeMux {

	mux := http.NewServeMux()

	uRouter := usersRouter()
	mux.Handle("/users/", uRouter)

	tRouter := transactionsRouter()
	mux.Handle("/transactions/", tRouter)

	cRouter := categoriesRouter()
	mux.Handle("/categories/", cRouter)

	bRouter := budgetsRouter()
	mux.Handle("/budgets/", bRouter)

	sRouter := subscriptionsRouter()
	mux.Handle("/subscriptions/", sRouter)

	return mux
}
