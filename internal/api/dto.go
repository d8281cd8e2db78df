package api

import (
	"time"

	"harvester/internal/domain"
)

// AccountSummary — аккаунт ростера в списке. Пароль наружу не отдаётся.
type AccountSummary struct {
	Email      string `json:"email"`
	IMAPServer string `json:"imap_server,omitempty"`
	HasProxy   bool   `json:"has_proxy"`
}

// AccountStateResponse — персистентное состояние аккаунта.
type AccountStateResponse struct {
	Email               string     `json:"email"`
	AppID               string     `json:"app_id,omitempty"`
	Session             string     `json:"session"`
	InRoster            bool       `json:"in_roster"`
	SleepUntil          *time.Time `json:"sleep_until,omitempty"`
	SessionBlockedUntil *time.Time `json:"session_blocked_until,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

// FleetStatusResponse — статус fleet-раннера.
type FleetStatusResponse struct {
	RosterSize int  `json:"roster_size"`
	Running    bool `json:"running"`
}

func toAccountSummary(account domain.Account) AccountSummary {
	return AccountSummary{
		Email:      account.Email,
		IMAPServer: account.IMAPServer,
		HasProxy:   account.Proxy != "",
	}
}

func toAccountStateResponse(state *domain.AccountState, session domain.SessionState, inRoster bool) AccountStateResponse {
	resp := AccountStateResponse{
		Email:     state.Email,
		AppID:     state.AppID,
		Session:   session.String(),
		InRoster:  inRoster,
		CreatedAt: state.CreatedAt,
	}
	if !state.SleepUntil.IsZero() {
		t := state.SleepUntil
		resp.SleepUntil = &t
	}
	if !state.SessionBlockedUntil.IsZero() {
		t := state.SessionBlockedUntil
		resp.SessionBlockedUntil = &t
	}
	return resp
}
