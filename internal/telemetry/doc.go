// Package telemetry обеспечивает наблюдаемость фермы.
//
// Включает:
//   - logging.go — structured logging через slog
//   - metrics.go — Prometheus метрики
//
// Демон фермы экспортирует метрики на /metrics endpoint.
package telemetry
