package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики фермы. Регистрируются в default registry при импорте пакета,
// отдаются через promhttp в демоне.
var (
	// FarmCycles — циклы фермы по итогу: ok, failed, skipped, rate_limited.
	FarmCycles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "harvester_farm_cycles_total",
		Help: "Farm cycles by outcome.",
	}, []string{"outcome"})

	// CaptchaAttempts — попытки решения капчи: solved, rejected, error.
	CaptchaAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "harvester_captcha_attempts_total",
		Help: "Captcha solving attempts by outcome.",
	}, []string{"outcome"})

	// Quarantines — аккаунты, выведенные из фермы, по причине.
	Quarantines = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "harvester_quarantines_total",
		Help: "Accounts quarantined by reason.",
	}, []string{"reason"})

	// APIErrors — классифицированные ошибки платформы по виду.
	APIErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "harvester_api_errors_total",
		Help: "Platform API errors by kind.",
	}, []string{"kind"})

	// RosterSize — текущий размер активного ростера.
	RosterSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "harvester_roster_size",
		Help: "Accounts currently in the active farming roster.",
	})
)
