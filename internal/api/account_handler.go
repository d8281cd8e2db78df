package api

import (
	"net/http"
	"time"

	"harvester/internal/bot"
)

// ListAccounts возвращает текущий ростер фермы.
// GET /api/v1/accounts
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts := h.roster.Snapshot()

	summaries := make([]AccountSummary, 0, len(accounts))
	for _, account := range accounts {
		summaries = append(summaries, toAccountSummary(account))
	}

	List(w, summaries, len(summaries))
}

// GetAccount возвращает персистентное состояние аккаунта.
// GET /api/v1/accounts/{email}
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	email := r.PathValue("email")
	if email == "" {
		BadRequest(w, "email is required")
		return
	}

	state, err := h.store.Get(r.Context(), email)
	if HandleRepoError(w, h.logger, err, "account not found") {
		return
	}

	session := bot.GateSession(state, time.Now().UTC())
	Success(w, toAccountStateResponse(state, session, h.roster.Contains(email)))
}

// FleetStatus возвращает статус fleet-раннера.
// GET /api/v1/fleet
func (h *Handler) FleetStatus(w http.ResponseWriter, r *http.Request) {
	Success(w, FleetStatusResponse{
		RosterSize: h.roster.Len(),
		Running:    h.runner != nil && !h.runner.IsStopped(),
	})
}
