package api

import (
	"log/slog"

	"harvester/internal/fleet"
	"harvester/internal/repo"
	"harvester/internal/roster"
)

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	roster *roster.Roster
	store  *repo.AccountRepo
	runner *fleet.Runner
	logger *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Roster *roster.Roster
	Store  *repo.AccountRepo
	Runner *fleet.Runner
	Logger *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		roster: cfg.Roster,
		store:  cfg.Store,
		runner: cfg.Runner,
		logger: cfg.Logger,
	}
}
