package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"harvester/internal/api"
)

// NewFarmCmd — демон фермы.
//
// Запускает fleet-раннер по всему ростеру и HTTP-сервер со статусным
// API, /healthz и /metrics. Останавливается по SIGINT/SIGTERM.
func NewFarmCmd(configFn func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "farm",
		Short: "Run the farming daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := slog.Default()

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			app, err := LoadApp(ctx, configFn(), logger)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.Runner.Start(ctx); err != nil {
				return fmt.Errorf("start fleet runner: %w", err)
			}

			// HTTP mux: статусный API + /healthz + /metrics
			handler := api.NewHandler(api.Config{
				Roster: app.Roster,
				Store:  app.Store,
				Runner: app.Runner,
				Logger: logger,
			})

			mux := http.NewServeMux()
			handler.RegisterRoutes(mux)
			mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			mux.Handle("/metrics", promhttp.Handler())

			addr := fmt.Sprintf(":%d", app.Config.API.Port)
			server := &http.Server{Addr: addr, Handler: mux}

			go func() {
				logger.Info("listening", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("http server error", "error", err)
					cancel()
				}
			}()

			// Ожидаем сигнал завершения
			<-ctx.Done()

			app.Runner.Stop()
			if err := server.Shutdown(context.Background()); err != nil {
				logger.Warn("http server shutdown", "error", err)
			}
			logger.Info("farm daemon stopped")
			return nil
		},
	}
}
