package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"harvester/internal/domain"
)

// sweepCommand строит команду разового обхода ростера.
func sweepCommand(use, short string, configFn func() string, outputFn func() *Output,
	run func(*cobra.Command, *App) []domain.OperationResult) *cobra.Command {

	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			app, err := LoadApp(cmd.Context(), configFn(), slog.Default())
			if err != nil {
				return err
			}
			defer app.Close()

			out.Results(run(cmd, app))
			return nil
		},
	}
}

// NewRegisterCmd — регистрация всех аккаунтов ростера.
func NewRegisterCmd(configFn func() string, outputFn func() *Output) *cobra.Command {
	return sweepCommand("register", "Register every account in the roster", configFn, outputFn,
		func(cmd *cobra.Command, app *App) []domain.OperationResult {
			return app.Runner.RunRegistration(cmd.Context())
		})
}

// NewReverifyCmd — переподтверждение почты всех аккаунтов ростера.
func NewReverifyCmd(configFn func() string, outputFn func() *Output) *cobra.Command {
	return sweepCommand("reverify", "Re-send and confirm verification mail for every account", configFn, outputFn,
		func(cmd *cobra.Command, app *App) []domain.OperationResult {
			return app.Runner.RunReverify(cmd.Context())
		})
}

// NewLoginCmd — логин всех аккаунтов ростера.
func NewLoginCmd(configFn func() string, outputFn func() *Output) *cobra.Command {
	return sweepCommand("login", "Log in every account and persist sessions", configFn, outputFn,
		func(cmd *cobra.Command, app *App) []domain.OperationResult {
			return app.Runner.RunLogin(cmd.Context())
		})
}

// NewTasksCmd — разовые задания всех аккаунтов ростера.
func NewTasksCmd(configFn func() string, outputFn func() *Output) *cobra.Command {
	return sweepCommand("tasks", "Complete one-off platform tasks for every account", configFn, outputFn,
		func(cmd *cobra.Command, app *App) []domain.OperationResult {
			return app.Runner.RunTasks(cmd.Context())
		})
}

// NewStatsCmd — статистика всех аккаунтов ростера.
func NewStatsCmd(configFn func() string, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Fetch points statistics for every account",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			app, err := LoadApp(cmd.Context(), configFn(), slog.Default())
			if err != nil {
				return err
			}
			defer app.Close()

			out.Stats(app.Runner.RunStats(cmd.Context()))
			return nil
		},
	}
}
