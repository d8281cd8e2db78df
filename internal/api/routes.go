package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
	)

	mux.Handle("GET /api/v1/accounts", chain(http.HandlerFunc(h.ListAccounts)))
	mux.Handle("GET /api/v1/accounts/{email}", chain(http.HandlerFunc(h.GetAccount)))
	mux.Handle("GET /api/v1/fleet", chain(http.HandlerFunc(h.FleetStatus)))
}
