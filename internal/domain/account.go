package domain

import (
	"net/http"
	"time"
)

// Account — учётные данные одного аккаунта из файла фермы.
//
// Account неизменяем в процессе работы: всё изменяемое состояние
// (заголовки сессии, таймеры сна) живёт в AccountState и
// персистится через repo.AccountRepo.
type Account struct {
	// Email — адрес аккаунта, первичный ключ во всей системе.
	Email string

	// Password — пароль аккаунта (он же пароль почтового ящика).
	Password string

	// AppID — идентификатор установки расширения на платформе.
	AppID string

	// Proxy — прокси для исходящих запросов (http://, https:// или socks5://).
	// Пустая строка — прямое соединение.
	Proxy string

	// IMAPServer — хост IMAP-сервера почтового ящика (порт 993 подразумевается).
	IMAPServer string
}

// AccountState — персистентное состояние аккаунта в БД.
//
// Создаётся при первом успешном логине, удаляется при инвалидации
// сессии. Два таймера независимы: аккаунт может быть готов к действию
// по SleepUntil и при этом заблокирован по SessionBlockedUntil,
// и наоборот.
type AccountState struct {
	// Email — ключ записи.
	Email string

	// AppID — идентификатор установки, сохранённый при создании.
	AppID string

	// Headers — непрозрачный набор заголовков сессии.
	// Присутствует тогда и только тогда, когда аккаунт аутентифицирован.
	Headers http.Header

	// SleepUntil — время следующего планового действия (UTC).
	// Нулевое значение — аккаунт может действовать немедленно.
	SleepUntil time.Time

	// SessionBlockedUntil — конец штрафной паузы после rate limit (UTC).
	// Нулевое значение — блокировки нет.
	SessionBlockedUntil time.Time

	// CreatedAt — время создания записи.
	CreatedAt time.Time
}

// HasSession сообщает, есть ли у записи пригодные заголовки сессии.
func (s *AccountState) HasSession() bool {
	return s != nil && len(s.Headers) > 0
}

// SessionState — явное трёхзначное состояние сессии аккаунта.
//
// Заменяет неявные проверки "есть ли заголовки / не истёк ли таймер"
// одной точкой принятия решения (см. bot.SessionGate).
type SessionState int

const (
	// SessionNone — записи нет или заголовки отсутствуют: нужен логин.
	SessionNone SessionState = iota

	// SessionBlocked — действует штрафная пауза: не трогать платформу.
	SessionBlocked

	// SessionActive — есть заголовки, блокировки нет: сессию можно
	// переиспользовать после лёгкой проверки.
	SessionActive
)

// String возвращает имя состояния для логов.
func (s SessionState) String() string {
	switch s {
	case SessionNone:
		return "none"
	case SessionBlocked:
		return "blocked"
	case SessionActive:
		return "active"
	default:
		return "unknown"
	}
}

// QuarantineReason — причина вывода аккаунта из фермы.
type QuarantineReason string

const (
	// QuarantineUnverified — почта аккаунта не подтверждена.
	QuarantineUnverified QuarantineReason = "unverified"

	// QuarantineBanned — аккаунт заблокирован платформой.
	QuarantineBanned QuarantineReason = "banned"
)
