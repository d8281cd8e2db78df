package fleet

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"harvester/internal/domain"
	"harvester/internal/roster"
	"harvester/internal/telemetry"
)

// Default configuration values.
const (
	defaultTickInterval = 10 * time.Second
	defaultWorkers      = 10
)

// Orchestrator — контракт per-account оркестратора (bot.Bot).
type Orchestrator interface {
	Register(ctx context.Context) domain.OperationResult
	Reverify(ctx context.Context) domain.OperationResult
	Login(ctx context.Context) domain.OperationResult
	Farm(ctx context.Context) domain.OperationResult
	Stats(ctx context.Context) domain.StatisticData
	CompleteTasks(ctx context.Context) domain.OperationResult
}

// Factory строит оркестратор для одного аккаунта: у каждого свой
// HTTP-клиент, прокси и rate limiter.
type Factory func(account domain.Account) Orchestrator

// Runner гоняет ферму по всему ростеру.
//
// Runner — долгоживущий компонент системы, который:
//   - Периодически проходит по ростеру и раздаёт циклы фермы воркерам
//   - Гарантирует не больше одного активного цикла на аккаунт
//   - Ведёт gauge размера ростера
//   - Опционально снимает статистику по cron-расписанию
//
// Решения о сне, блокировках и карантине принимает сам оркестратор;
// Runner лишь будит его с нужной частотой.
type Runner struct {
	roster  *roster.Roster
	factory Factory

	tickInterval time.Duration
	workers      int

	statsSpec string
	cron      *cron.Cron

	// inflight — аккаунты с активным циклом; не больше одного
	// владельца на email.
	inflight   map[string]struct{}
	inflightMu sync.Mutex

	jobs chan domain.Account

	// Lifecycle
	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	stopped    bool
	stoppedMu  sync.RWMutex
}

// Config — конфигурация Runner.
type Config struct {
	Roster  *roster.Roster
	Factory Factory

	// TickInterval — период обхода ростера (default: 10s).
	TickInterval time.Duration

	// Workers — число параллельных циклов (default: 10).
	Workers int

	// StatsSpec — cron-выражение для периодического снятия
	// статистики (пустая строка — не снимать).
	StatsSpec string

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Runner.
func New(cfg Config) *Runner {
	tickInterval := cfg.TickInterval
	if tickInterval <= 0 {
		tickInterval = defaultTickInterval
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		roster:       cfg.Roster,
		factory:      cfg.Factory,
		tickInterval: tickInterval,
		workers:      workers,
		statsSpec:    cfg.StatsSpec,
		inflight:     make(map[string]struct{}),
		jobs:         make(chan domain.Account),
		logger:       logger,
	}
}

// Start запускает Runner.
//
// Запускает:
//   - Пул воркеров, выполняющих циклы фермы
//   - Диспетчер, раздающий ростер по тикам
//   - Cron снятия статистики (если задан StatsSpec)
func (r *Runner) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	r.cancelFunc = cancel

	r.logger.Info("starting fleet runner",
		"tick_interval", r.tickInterval,
		"workers", r.workers,
		"roster_size", r.roster.Len(),
	)

	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			r.workLoop(ctx)
		}()
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.dispatchLoop(ctx)
	}()

	if r.statsSpec != "" {
		r.cron = cron.New()
		if _, err := r.cron.AddFunc(r.statsSpec, func() { r.statsSweep(ctx) }); err != nil {
			r.logger.Error("invalid stats cron spec, stats sweep disabled",
				"spec", r.statsSpec,
				"error", err,
			)
		} else {
			r.cron.Start()
		}
	}

	r.logger.Info("fleet runner started")
	return nil
}

// Stop останавливает Runner.
func (r *Runner) Stop() {
	r.stoppedMu.Lock()
	r.stopped = true
	r.stoppedMu.Unlock()

	r.logger.Info("stopping fleet runner...")

	if r.cron != nil {
		<-r.cron.Stop().Done()
	}
	if r.cancelFunc != nil {
		r.cancelFunc()
	}

	// Ждём завершения горутин
	r.wg.Wait()

	r.logger.Info("fleet runner stopped")
}

// IsStopped проверяет, остановлен ли Runner.
func (r *Runner) IsStopped() bool {
	r.stoppedMu.RLock()
	defer r.stoppedMu.RUnlock()
	return r.stopped
}

// dispatchLoop — цикл раздачи ростера воркерам.
func (r *Runner) dispatchLoop(ctx context.Context) {
	ticker := time.NewTicker(r.tickInterval)
	defer ticker.Stop()

	// Первый обход сразу при старте
	r.dispatch(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.dispatch(ctx)
		}
	}
}

// dispatch раздаёт один обход ростера.
//
// Аккаунт с уже идущим циклом пропускается; если все воркеры заняты,
// остаток обхода откладывается до следующего тика.
func (r *Runner) dispatch(ctx context.Context) {
	accounts := r.roster.Snapshot()
	telemetry.RosterSize.Set(float64(len(accounts)))

	for _, account := range accounts {
		if !r.claim(account.Email) {
			continue
		}

		select {
		case r.jobs <- account:
		case <-ctx.Done():
			r.release(account.Email)
			return
		default:
			r.release(account.Email)
			return
		}
	}
}

// workLoop — цикл одного воркера.
func (r *Runner) workLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case account := <-r.jobs:
			r.runCycle(ctx, account)
			r.release(account.Email)
		}
	}
}

// runCycle выполняет один цикл фермы для аккаунта.
func (r *Runner) runCycle(ctx context.Context, account domain.Account) {
	cycleID := uuid.NewString()
	log := telemetry.WithCycle(telemetry.WithAccount(r.logger, account.Email), cycleID)

	log.Debug("farm cycle started")
	result := r.factory(account).Farm(ctx)
	log.Debug("farm cycle finished", "success", result.Status)
}

// claim помечает аккаунт как имеющий активный цикл.
func (r *Runner) claim(email string) bool {
	r.inflightMu.Lock()
	defer r.inflightMu.Unlock()

	if _, busy := r.inflight[email]; busy {
		return false
	}
	r.inflight[email] = struct{}{}
	return true
}

// release снимает пометку активного цикла.
func (r *Runner) release(email string) {
	r.inflightMu.Lock()
	defer r.inflightMu.Unlock()
	delete(r.inflight, email)
}

// statsSweep снимает статистику по всему ростеру (cron).
func (r *Runner) statsSweep(ctx context.Context) {
	reports := r.RunStats(ctx)

	var total, ok int
	for _, rep := range reports {
		total++
		if rep.Data.Success {
			ok++
		}
	}
	r.logger.Info("stats sweep completed", "accounts", total, "succeeded", ok)
}
