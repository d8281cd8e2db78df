package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"harvester/internal/domain"
	"harvester/internal/roster"
)

func newTestHandler() *Handler {
	ros := roster.New([]domain.Account{
		{Email: "alice@example.com", Password: "pw", Proxy: "socks5://127.0.0.1:1080"},
		{Email: "bob@example.com", Password: "pw"},
	})
	return NewHandler(Config{
		Roster: ros,
		Logger: slog.Default(),
	})
}

func TestListAccounts(t *testing.T) {
	h := newTestHandler()
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Data  []AccountSummary `json:"data"`
		Total int              `json:"total"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 2 || len(resp.Data) != 2 {
		t.Fatalf("total = %d, data = %d, want 2", resp.Total, len(resp.Data))
	}
	if !resp.Data[0].HasProxy || resp.Data[1].HasProxy {
		t.Fatalf("proxy flags wrong: %+v", resp.Data)
	}
}

func TestFleetStatusWithoutRunner(t *testing.T) {
	h := newTestHandler()
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/fleet", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Data FleetStatusResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.RosterSize != 2 {
		t.Fatalf("roster_size = %d, want 2", resp.Data.RosterSize)
	}
	if resp.Data.Running {
		t.Fatal("running without a runner must be false")
	}
}
