// Package api содержит read-only HTTP API демона фермы.
//
// Структура:
//   - handler.go    — Handler с DI (ростер, хранилище, runner, logger)
//   - routes.go     — регистрация маршрутов
//   - dto.go        — DTO ответов
//   - response.go   — JSON-хелперы ответов
//   - middleware.go — Logging и Recovery
//
// API не управляет фермой: оно отдаёт текущий ростер, персистентное
// состояние аккаунта и статус runner'а. Метрики и health отдаются
// тем же mux'ом в cmd.
package api
