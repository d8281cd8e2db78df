package bot

import (
	"time"

	"harvester/internal/domain"
)

// BlockPenalty — длительность штрафной паузы после rate limit.
const BlockPenalty = 10 * time.Minute

// SleepScheduler вычисляет время следующего пробуждения аккаунта.
//
// Планировщик только считает и ничего не ждёт: решение, когда снова
// вызвать оркестратор, принимает внешний fleet-раннер.
type SleepScheduler struct {
	// KeepaliveInterval — плановая пауза между циклами.
	KeepaliveInterval time.Duration
}

// NextWake возвращает время следующего действия (UTC):
// штрафная пауза при blocked, плановая — иначе.
func (s SleepScheduler) NextWake(blocked bool) time.Time {
	if blocked {
		return time.Now().UTC().Add(BlockPenalty)
	}
	return time.Now().UTC().Add(s.KeepaliveInterval)
}

// SleepPending сообщает, спит ли ещё аккаунт: true тогда и только
// тогда, когда until строго в будущем. Побочных эффектов нет.
func SleepPending(until time.Time) bool {
	return until.After(time.Now().UTC())
}

// GateSession приводит персистентное состояние аккаунта к явному
// трёхзначному состоянию сессии.
//
// Блокировка имеет приоритет: пока действует штраф, платформу не
// трогаем независимо от наличия заголовков.
func GateSession(state *domain.AccountState, now time.Time) domain.SessionState {
	if state != nil && state.SessionBlockedUntil.After(now) {
		return domain.SessionBlocked
	}
	if !state.HasSession() {
		return domain.SessionNone
	}
	return domain.SessionActive
}
