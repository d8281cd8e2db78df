// Package dawn реализует HTTP-клиент платформы вознаграждений.
//
// Клиент привязан к одному аккаунту: держит его заголовки сессии,
// ходит через его прокси и пейсит запросы клиентским rate limiter'ом.
// Семантические ошибки платформы приводятся к закрытому ErrorKind,
// серверный rate limit — к отдельному сигналу ErrRateLimited.
package dawn
