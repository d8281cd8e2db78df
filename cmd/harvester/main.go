// Harvester — ферма аккаунтов платформы вознаграждений.
//
// Использование:
//
//	harvester [--config PATH] [--json] <command> [flags]
//
// Команды:
//
//	farm      Демон фермы (циклы, метрики, статусный API)
//	register  Регистрация всех аккаунтов
//	reverify  Переподтверждение почты всех аккаунтов
//	login     Логин всех аккаунтов
//	stats     Статистика всех аккаунтов
//	tasks     Разовые задания всех аккаунтов
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"harvester/internal/cli"
	"harvester/internal/telemetry"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	// Инициализируем structured logging
	telemetry.SetupLogger()

	var configPath string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "harvester",
		Short:         "Harvester — rewards platform account farm",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.toml", "Path to the TOML config file")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	configFn := func() string { return configPath }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewFarmCmd(configFn),
		cli.NewRegisterCmd(configFn, outputFn),
		cli.NewReverifyCmd(configFn, outputFn),
		cli.NewLoginCmd(configFn, outputFn),
		cli.NewStatsCmd(configFn, outputFn),
		cli.NewTasksCmd(configFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
