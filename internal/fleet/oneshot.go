package fleet

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"harvester/internal/domain"
	"harvester/internal/telemetry"
)

// StatsReport — статистика одного аккаунта из обхода ростера.
type StatsReport struct {
	Email string               `json:"email"`
	Data  domain.StatisticData `json:"data"`
}

// Разовые обходы ростера для CLI и cron: каждая операция выполняется
// для всех аккаунтов пулом из Workers горутин, итог собирается в слайс
// в порядке ростера. Обходы уважают inflight-набор раннера: аккаунт с
// уже идущим циклом пропускается, чтобы на один email никогда не
// приходилось два workflow одновременно.

// RunRegistration регистрирует все аккаунты ростера.
func (r *Runner) RunRegistration(ctx context.Context) []domain.OperationResult {
	return r.sweep(ctx, "register", func(ctx context.Context, o Orchestrator) domain.OperationResult {
		return o.Register(ctx)
	})
}

// RunReverify переподтверждает почту всех аккаунтов ростера.
func (r *Runner) RunReverify(ctx context.Context) []domain.OperationResult {
	return r.sweep(ctx, "reverify", func(ctx context.Context, o Orchestrator) domain.OperationResult {
		return o.Reverify(ctx)
	})
}

// RunLogin аутентифицирует все аккаунты ростера.
func (r *Runner) RunLogin(ctx context.Context) []domain.OperationResult {
	return r.sweep(ctx, "login", func(ctx context.Context, o Orchestrator) domain.OperationResult {
		return o.Login(ctx)
	})
}

// RunTasks выполняет разовые задания для всех аккаунтов ростера.
func (r *Runner) RunTasks(ctx context.Context) []domain.OperationResult {
	return r.sweep(ctx, "tasks", func(ctx context.Context, o Orchestrator) domain.OperationResult {
		return o.CompleteTasks(ctx)
	})
}

// RunStats снимает статистику всех аккаунтов ростера. Для аккаунта с
// активным циклом возвращается Success=false без обращения к платформе.
func (r *Runner) RunStats(ctx context.Context) []StatsReport {
	accounts := r.roster.Snapshot()
	reports := make([]StatsReport, len(accounts))

	var wg sync.WaitGroup
	sem := make(chan struct{}, r.workers)

	for i, account := range accounts {
		wg.Add(1)
		go func(i int, account domain.Account) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			reports[i] = StatsReport{Email: account.Email}
			if !r.claim(account.Email) {
				r.logger.Debug("cycle in flight, skipping stats", "account", account.Email)
				return
			}
			defer r.release(account.Email)

			reports[i].Data = r.factory(account).Stats(ctx)
		}(i, account)
	}
	wg.Wait()

	return reports
}

// sweep выполняет операцию для каждого аккаунта ростера пулом воркеров.
func (r *Runner) sweep(ctx context.Context, op string, run func(context.Context, Orchestrator) domain.OperationResult) []domain.OperationResult {
	accounts := r.roster.Snapshot()
	r.logger.Info("roster sweep started", "operation", op, "accounts", len(accounts))

	results := make([]domain.OperationResult, len(accounts))

	var wg sync.WaitGroup
	sem := make(chan struct{}, r.workers)

	for i, account := range accounts {
		wg.Add(1)
		go func(i int, account domain.Account) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results[i] = domain.OperationResult{Identifier: account.Email, Data: account.Password}
			if !r.claim(account.Email) {
				r.logger.Debug("cycle in flight, skipping sweep operation",
					"account", account.Email,
					"operation", op,
				)
				return
			}
			defer r.release(account.Email)

			log := telemetry.WithCycle(telemetry.WithAccount(r.logger, account.Email), uuid.NewString())
			log.Debug("sweep operation started", "operation", op)
			results[i] = run(ctx, r.factory(account))
		}(i, account)
	}
	wg.Wait()

	var succeeded int
	for _, res := range results {
		if res.Status {
			succeeded++
		}
	}
	r.logger.Info("roster sweep completed",
		"operation", op,
		"accounts", len(accounts),
		"succeeded", succeeded,
	)

	return results
}
