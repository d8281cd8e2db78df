package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"harvester/internal/bot"
	"harvester/internal/captcha"
	"harvester/internal/config"
	"harvester/internal/dawn"
	"harvester/internal/domain"
	"harvester/internal/export"
	"harvester/internal/fleet"
	"harvester/internal/mailer"
	"harvester/internal/mq"
	"harvester/internal/repo"
	"harvester/internal/roster"
)

// App — собранный стек фермы для одной команды.
//
// Оркестраторы строятся жадно, по одному на аккаунт: у каждого свой
// HTTP-клиент с прокси и rate limiter, переживающий циклы фермы.
// Аккаунты с некорректным прокси выбрасываются из ростера при сборке.
type App struct {
	Config *config.Config
	Roster *roster.Roster
	Runner *fleet.Runner
	Store  *repo.AccountRepo

	pool   *pgxpool.Pool
	mqConn *mq.Connection
	logger *slog.Logger
}

// LoadApp собирает стек по файлу конфигурации.
//
// Postgres обязателен (DB_URL); RabbitMQ опционален — без него события
// аккаунтов не публикуются.
func LoadApp(ctx context.Context, configPath string, logger *slog.Logger) (*App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	accounts, err := config.LoadAccounts(cfg.Farm.AccountsFile, cfg.Farm.AppID)
	if err != nil {
		return nil, err
	}

	exporter, err := export.New(cfg.Farm.ResultsDir)
	if err != nil {
		return nil, err
	}

	solver, err := captcha.NewTwoCaptcha(captcha.TwoCaptchaConfig{
		APIKey:       cfg.Captcha.APIKey,
		BaseURL:      cfg.Captcha.BaseURL,
		PollAttempts: cfg.Captcha.PollAttempts,
		PollDelay:    time.Duration(cfg.Captcha.PollDelaySec) * time.Second,
	})
	if err != nil {
		return nil, err
	}

	checker := mailer.New(mailer.Config{Logger: logger})

	pool, err := repo.NewPool(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	store := repo.NewAccountRepo(pool)
	logger.Info("database connected")

	// RabbitMQ
	var events bot.Events
	mqURL := os.Getenv("RABBITMQ_URL")
	if mqURL == "" {
		mqURL = mq.DefaultURL()
	}

	mqConn, err := mq.NewConnection(mqURL, logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, account events disabled", "error", err)
		mqConn = nil
	} else {
		logger.Info("RabbitMQ connected")
		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}
		events = mq.NewPublisher(mqConn, logger)
	}

	ros := roster.New(accounts)

	bots := make(map[string]fleet.Orchestrator, len(accounts))
	for _, account := range accounts {
		client, err := dawn.NewClient(account, dawn.Config{BaseURL: cfg.Farm.BaseURL})
		if err != nil {
			logger.Error("dropping account with invalid proxy", "account", account.Email, "error", err)
			ros.Remove(account.Email)
			continue
		}

		bots[account.Email] = bot.New(bot.Config{
			Account:           account,
			Client:            client,
			Solver:            solver,
			Store:             store,
			Mail:              checker,
			Roster:            ros,
			Exporter:          exporter,
			Events:            events,
			Redirect:          cfg.Redirect,
			KeepaliveInterval: cfg.KeepaliveInterval(),
			MaxAttempts:       cfg.Farm.MaxWorkflowAttempts,
			Logger:            logger,
		})
	}

	if ros.Len() == 0 {
		pool.Close()
		if mqConn != nil {
			mqConn.Close()
		}
		return nil, fmt.Errorf("no usable accounts in %s", cfg.Farm.AccountsFile)
	}

	runner := fleet.New(fleet.Config{
		Roster: ros,
		Factory: func(account domain.Account) fleet.Orchestrator {
			return bots[account.Email]
		},
		Workers:   cfg.Farm.Workers,
		StatsSpec: cfg.Farm.StatsCron,
		Logger:    logger,
	})

	logger.Info("farm stack assembled",
		"accounts", ros.Len(),
		"workers", cfg.Farm.Workers,
	)

	return &App{
		Config: cfg,
		Roster: ros,
		Runner: runner,
		Store:  store,
		pool:   pool,
		mqConn: mqConn,
		logger: logger,
	}, nil
}

// Close освобождает соединения стека.
func (a *App) Close() {
	if a.mqConn != nil {
		a.mqConn.Close()
	}
	a.pool.Close()
}
