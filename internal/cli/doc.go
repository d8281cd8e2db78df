// Package cli содержит команды инструмента командной строки фермы.
//
// Все команды работают локально: собирают стек (конфиг, ростер,
// решатель капчи, почта, Postgres, опциональный RabbitMQ) и выполняют
// операцию напрямую, без промежуточного API.
//
// Команды:
//   - farm      — демон фермы (циклы по ростеру, метрики, статусный API)
//   - register  — регистрация всех аккаунтов
//   - reverify  — переподтверждение почты всех аккаунтов
//   - login     — логин всех аккаунтов
//   - stats     — статистика всех аккаунтов
//   - tasks     — разовые задания всех аккаунтов
package cli
