package bot

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"harvester/internal/dawn"
	"harvester/internal/domain"
	"harvester/internal/mailer"
	"harvester/internal/repo"
	"harvester/internal/telemetry"
)

// recovery — исход обработки ошибки платформы внутри workflow.
type recovery int

const (
	// recoverAbort — workflow завершается неуспехом.
	recoverAbort recovery = iota

	// recoverRetry — workflow повторяется с начала (свежая капча,
	// свежая сессия).
	recoverRetry
)

// getState читает персистентное состояние; отсутствие записи — nil.
func (b *Bot) getState(ctx context.Context) (*domain.AccountState, error) {
	state, err := b.store.Get(ctx, b.account.Email)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	return state, err
}

// clearAccountAndSession удаляет запись аккаунта и сбрасывает
// заголовки на клиенте.
func (b *Bot) clearAccountAndSession(ctx context.Context) {
	if err := b.store.Delete(ctx, b.account.Email); err != nil {
		b.logger.Warn("failed to delete account record", "error", err)
	}
	b.client.ClearSession()
}

// handleSessionBlocked обрабатывает rate limit сессии: сброс сессии
// и штрафная пауза в session_blocked_until.
func (b *Bot) handleSessionBlocked(ctx context.Context) {
	b.clearAccountAndSession(ctx)

	until := b.sleep.NextWake(true)
	if err := b.store.SetSessionBlockedUntil(ctx, b.account.Email, until, b.account.AppID); err != nil {
		b.logger.Warn("failed to persist block penalty", "error", err)
	}
	b.logger.Error("session rate limited, backing off", "blocked_until", until)
}

// recover применяет таблицу классификатора к ошибке платформы.
// Все workflow делят эту логику.
func (b *Bot) recover(ctx context.Context, log *slog.Logger, op string, challenge Challenge, err error) recovery {
	if errors.Is(err, dawn.ErrRateLimited) {
		b.handleSessionBlocked(ctx)
		return recoverAbort
	}

	var apiErr *dawn.APIError
	if !errors.As(err, &apiErr) {
		log.Error(op+" failed", "error", err)
		return recoverAbort
	}
	countAPIError(apiErr.Kind)

	switch Classify(apiErr.Kind) {
	case ActionRetryCaptcha:
		if ShouldReport(apiErr.Kind) {
			b.reportChallenge(ctx, challenge)
		}
		log.Warn("captcha rejected by the platform, solving a fresh one", "kind", apiErr.Kind.String())
		return recoverRetry

	case ActionReauth:
		log.Warn("session expired, re-authenticating")
		b.clearAccountAndSession(ctx)
		return recoverRetry

	case ActionQuarantineUnverified:
		b.quarantine(ctx, domain.QuarantineUnverified)
		return recoverAbort

	case ActionQuarantineBanned:
		b.quarantine(ctx, domain.QuarantineBanned)
		return recoverAbort

	default:
		log.Error(op+" rejected by the platform", "kind", apiErr.Kind.String(), "message", apiErr.Message)
		return recoverAbort
	}
}

// confirmLink дожидается письма платформы и подтверждает ссылку.
func (b *Bot) confirmLink(ctx context.Context, log *slog.Logger, mode mailer.Mode) domain.OperationResult {
	link, err := b.mail.ExtractLink(ctx, mode, b.mailCreds())
	if err != nil {
		log.Error("confirmation link not found", "error", err)
		return b.failure()
	}

	log.Info("confirmation link found, confirming")
	status, err := b.client.FetchURL(ctx, link)
	if err != nil {
		log.Error("failed to fetch confirmation link", "error", err)
		return b.failure()
	}
	if status != http.StatusOK {
		log.Error("confirmation returned unexpected status", "status", status)
		return b.failure()
	}

	log.Info("mailbox confirmed")
	return b.success()
}

// Register — регистрация аккаунта: валидация ящика, капча, вызов
// регистрации, ожидание и подтверждение ссылки из письма.
func (b *Bot) Register(ctx context.Context) domain.OperationResult {
	log := b.logger.With("workflow", "register")

	if err := b.mail.Validate(ctx, b.mailCreds()); err != nil {
		log.Error("mailbox validation failed", "error", err)
		return b.failure()
	}

	for attempt := 1; attempt <= b.maxAttempts; attempt++ {
		result, retry := b.registerOnce(ctx, log)
		if retry {
			continue
		}
		if result.Status {
			if err := b.exporter.Registered(b.account.Email, b.account.Password); err != nil {
				log.Warn("failed to export registered account", "error", err)
			}
			if b.events != nil {
				if err := b.events.PublishRegistered(ctx, b.account.Email); err != nil {
					log.Warn("failed to publish registration event", "error", err)
				}
			}
		}
		return result
	}

	log.Error("registration retry budget exhausted")
	return b.failure()
}

// registerOnce — одна попытка регистрации.
func (b *Bot) registerOnce(ctx context.Context, log *slog.Logger) (domain.OperationResult, bool) {
	challenge, err := b.resolveCaptcha(ctx)
	if err != nil {
		log.Error("captcha resolution failed", "error", err)
		return b.failure(), false
	}

	log.Info("registering")
	if err := b.client.Register(ctx, challenge.PuzzleID, challenge.Answer); err != nil {
		if b.recover(ctx, log, "registration", challenge, err) == recoverRetry {
			return domain.OperationResult{}, true
		}
		return b.failure(), false
	}

	log.Info("registration accepted, waiting for confirmation mail")
	return b.confirmLink(ctx, log, mailer.ModeVerify), false
}

// Reverify — повторное подтверждение почты. Письмо отправляется не
// больше одного раза: после успешной отправки повторные попытки
// только перечитывают ящик и подтверждают уже присланную ссылку.
func (b *Bot) Reverify(ctx context.Context) domain.OperationResult {
	log := b.logger.With("workflow", "reverify")

	if err := b.mail.Validate(ctx, b.mailCreds()); err != nil {
		log.Error("mailbox validation failed", "error", err)
		return b.failure()
	}

	linkSent := false
	for attempt := 1; attempt <= b.maxAttempts; attempt++ {
		result, retry := b.reverifyOnce(ctx, log, &linkSent)
		if !retry {
			return result
		}
	}

	log.Error("reverify retry budget exhausted")
	return b.failure()
}

// reverifyOnce — одна попытка переподтверждения.
func (b *Bot) reverifyOnce(ctx context.Context, log *slog.Logger, linkSent *bool) (domain.OperationResult, bool) {
	if !*linkSent {
		challenge, err := b.resolveCaptcha(ctx)
		if err != nil {
			log.Error("captcha resolution failed", "error", err)
			return b.failure(), false
		}

		log.Info("requesting a fresh verification mail")
		if err := b.client.ResendVerifyLink(ctx, challenge.PuzzleID, challenge.Answer); err != nil {
			if b.recover(ctx, log, "reverify", challenge, err) == recoverRetry {
				return domain.OperationResult{}, true
			}
			return b.failure(), false
		}

		*linkSent = true
		log.Info("verification mail resent, waiting")
	}

	return b.confirmLink(ctx, log, mailer.ModeReverify), false
}

// Login — аутентификация аккаунта как самостоятельный workflow.
func (b *Bot) Login(ctx context.Context) domain.OperationResult {
	if b.login(ctx) {
		return b.success()
	}
	return b.failure()
}

// login выполняет логин с ограниченными повторами. Возвращает true
// при успешно сохранённой сессии.
func (b *Bot) login(ctx context.Context) bool {
	log := b.logger.With("workflow", "login")

	for attempt := 1; attempt <= b.maxAttempts; attempt++ {
		ok, retry := b.loginOnce(ctx, log)
		if !retry {
			return ok
		}
	}

	log.Error("login retry budget exhausted")
	return false
}

// loginOnce — одна попытка логина.
//
// Единственное место, где исчерпание бюджета капчи превращается в
// длинную паузу вместо немедленного провала: аккаунт усыпляется и
// будет разбужен fleet-раннером позже.
func (b *Bot) loginOnce(ctx context.Context, log *slog.Logger) (ok bool, retry bool) {
	challenge, err := b.resolveCaptcha(ctx)
	if err != nil {
		switch {
		case errors.Is(err, ErrCaptchaSolvingFailed):
			until := b.sleep.NextWake(true)
			if persistErr := b.store.SetSleepUntil(ctx, b.account.Email, until); persistErr != nil {
				log.Warn("failed to persist sleep after captcha budget", "error", persistErr)
			}
			log.Error("captcha budget exhausted, sleeping", "sleep_until", until)
		case errors.Is(err, dawn.ErrRateLimited):
			b.handleSessionBlocked(ctx)
		default:
			log.Error("captcha resolution failed", "error", err)
		}
		return false, false
	}

	log.Info("logging in")
	headers, err := b.client.Login(ctx, challenge.PuzzleID, challenge.Answer)
	if err != nil {
		if b.recover(ctx, log, "login", challenge, err) == recoverRetry {
			return false, true
		}
		return false, false
	}

	// Запись могла остаться от штрафной паузы — пересоздаём целиком.
	if err := b.store.Delete(ctx, b.account.Email); err != nil {
		log.Warn("failed to drop stale account record", "error", err)
	}
	if err := b.store.Create(ctx, b.account.Email, b.account.AppID, headers); err != nil {
		log.Error("failed to persist session", "error", err)
		return false, false
	}

	log.Info("logged in, session persisted")
	return true, false
}

// Farm — один цикл фермы: гейт по блокировке и кадансу, переиспользование
// или восстановление сессии, keepalive и чтение баллов.
func (b *Bot) Farm(ctx context.Context) domain.OperationResult {
	log := b.logger.With("workflow", "farm")

	for attempt := 1; attempt <= b.maxAttempts; attempt++ {
		result, retry := b.farmOnce(ctx, log)
		if !retry {
			return result
		}
	}

	log.Error("farm cycle retry budget exhausted")
	telemetry.FarmCycles.WithLabelValues("failed").Inc()
	return b.failure()
}

// farmOnce — одна попытка цикла фермы.
func (b *Bot) farmOnce(ctx context.Context, log *slog.Logger) (domain.OperationResult, bool) {
	state, err := b.getState(ctx)
	if err != nil {
		log.Error("failed to load account state", "error", err)
		telemetry.FarmCycles.WithLabelValues("failed").Inc()
		return b.failure(), false
	}

	switch GateSession(state, time.Now().UTC()) {
	case domain.SessionBlocked:
		// Ни одного удалённого вызова и без изменения sleep_until.
		log.Debug("session blocked, skipping cycle", "blocked_until", state.SessionBlockedUntil)
		telemetry.FarmCycles.WithLabelValues("skipped").Inc()
		return b.success(), false

	case domain.SessionNone:
		if !b.login(ctx) {
			telemetry.FarmCycles.WithLabelValues("failed").Inc()
			return b.failure(), false
		}

	case domain.SessionActive:
		if SleepPending(state.SleepUntil) {
			log.Debug("cadence not due yet", "sleep_until", state.SleepUntil)
			telemetry.FarmCycles.WithLabelValues("skipped").Inc()
			return b.success(), false
		}

		b.client.SetSession(state.Headers)
		valid, detail, err := b.client.VerifySession(ctx)
		if err != nil {
			if errors.Is(err, dawn.ErrRateLimited) {
				b.handleSessionBlocked(ctx)
				telemetry.FarmCycles.WithLabelValues("rate_limited").Inc()
			} else {
				log.Error("session check failed", "error", err)
				telemetry.FarmCycles.WithLabelValues("failed").Inc()
			}
			return b.failure(), false
		}
		if !valid {
			log.Warn("session invalid, re-authenticating", "detail", detail)
			b.clearAccountAndSession(ctx)
			return domain.OperationResult{}, true
		}
		log.Info("reusing existing session")
	}

	return b.performFarming(ctx, log)
}

// performFarming выполняет действия фермы и всегда персистит новый
// sleep_until (кроме rate limit), чтобы неуспешный цикл не превращался
// в горячую петлю.
func (b *Bot) performFarming(ctx context.Context, log *slog.Logger) (domain.OperationResult, bool) {
	err := b.farmActions(ctx, log)

	if errors.Is(err, dawn.ErrRateLimited) {
		b.handleSessionBlocked(ctx)
		telemetry.FarmCycles.WithLabelValues("rate_limited").Inc()
		return b.failure(), false
	}

	until := b.sleep.NextWake(false)
	if persistErr := b.store.SetSleepUntil(ctx, b.account.Email, until); persistErr != nil {
		log.Warn("failed to persist next wake", "error", persistErr)
	}

	if err != nil {
		var apiErr *dawn.APIError
		if errors.As(err, &apiErr) {
			countAPIError(apiErr.Kind)
			switch Classify(apiErr.Kind) {
			case ActionQuarantineUnverified:
				b.quarantine(ctx, domain.QuarantineUnverified)
				telemetry.FarmCycles.WithLabelValues("failed").Inc()
				return b.failure(), false
			case ActionQuarantineBanned:
				b.quarantine(ctx, domain.QuarantineBanned)
				telemetry.FarmCycles.WithLabelValues("failed").Inc()
				return b.failure(), false
			case ActionReauth:
				log.Warn("session expired mid-cycle, re-authenticating")
				b.clearAccountAndSession(ctx)
				return domain.OperationResult{}, true
			}
		}
		log.Error("farming actions failed", "error", err)
		telemetry.FarmCycles.WithLabelValues("failed").Inc()
		return b.failure(), false
	}

	telemetry.FarmCycles.WithLabelValues("ok").Inc()
	return b.success(), false
}

// farmActions — keepalive и чтение баллов (баллы только для логов).
func (b *Bot) farmActions(ctx context.Context, log *slog.Logger) error {
	if err := b.client.Keepalive(ctx); err != nil {
		return err
	}
	log.Info("keepalive sent")

	info, err := b.client.UserInfo(ctx)
	if err != nil {
		return err
	}
	log.Info("account points", "total", info.TotalPoints())
	return nil
}

// Stats — read-only workflow чтения статистики аккаунта.
func (b *Bot) Stats(ctx context.Context) domain.StatisticData {
	log := b.logger.With("workflow", "stats")

	for attempt := 1; attempt <= b.maxAttempts; attempt++ {
		data, retry := b.statsOnce(ctx, log)
		if !retry {
			return data
		}
	}

	log.Error("stats retry budget exhausted")
	return domain.StatisticData{Success: false}
}

// statsOnce — одна попытка чтения статистики.
func (b *Bot) statsOnce(ctx context.Context, log *slog.Logger) (domain.StatisticData, bool) {
	none := domain.StatisticData{Success: false}

	state, err := b.getState(ctx)
	if err != nil {
		log.Error("failed to load account state", "error", err)
		return none, false
	}

	switch GateSession(state, time.Now().UTC()) {
	case domain.SessionBlocked:
		log.Debug("session blocked, stats unavailable", "blocked_until", state.SessionBlockedUntil)
		return none, false

	case domain.SessionNone:
		if !b.login(ctx) {
			return none, false
		}

	case domain.SessionActive:
		b.client.SetSession(state.Headers)
		valid, detail, err := b.client.VerifySession(ctx)
		if err != nil {
			if errors.Is(err, dawn.ErrRateLimited) {
				b.handleSessionBlocked(ctx)
			} else {
				log.Error("session check failed", "error", err)
			}
			return none, false
		}
		if !valid {
			log.Warn("session invalid, re-authenticating", "detail", detail)
			b.clearAccountAndSession(ctx)
			return none, true
		}
	}

	info, err := b.client.UserInfo(ctx)
	if err != nil {
		if b.recover(ctx, log, "stats", Challenge{}, err) == recoverRetry {
			return none, true
		}
		return none, false
	}

	log.Info("user info fetched")
	return domain.StatisticData{
		Success:       true,
		ReferralPoint: info.ReferralPoint,
		RewardPoint:   info.RewardPoint,
	}, false
}

// CompleteTasks — выполнение разовых заданий. Гейты сна и блокировки
// не применяются: достаточно любой действительной сессии.
func (b *Bot) CompleteTasks(ctx context.Context) domain.OperationResult {
	log := b.logger.With("workflow", "tasks")

	for attempt := 1; attempt <= b.maxAttempts; attempt++ {
		result, retry := b.tasksOnce(ctx, log)
		if !retry {
			return result
		}
	}

	log.Error("tasks retry budget exhausted")
	return b.failure()
}

// tasksOnce — одна попытка выполнения заданий.
func (b *Bot) tasksOnce(ctx context.Context, log *slog.Logger) (domain.OperationResult, bool) {
	state, err := b.getState(ctx)
	if err != nil {
		log.Error("failed to load account state", "error", err)
		return b.failure(), false
	}

	if !state.HasSession() {
		if !b.login(ctx) {
			return b.failure(), false
		}
	} else {
		b.client.SetSession(state.Headers)
		valid, detail, err := b.client.VerifySession(ctx)
		if err != nil {
			if errors.Is(err, dawn.ErrRateLimited) {
				b.handleSessionBlocked(ctx)
			} else {
				log.Error("session check failed", "error", err)
			}
			return b.failure(), false
		}
		if !valid {
			log.Warn("session invalid, re-authenticating", "detail", detail)
			b.clearAccountAndSession(ctx)
			return domain.OperationResult{}, true
		}
	}

	log.Info("completing one-off tasks")
	if err := b.client.CompleteTasks(ctx); err != nil {
		if b.recover(ctx, log, "tasks", Challenge{}, err) == recoverRetry {
			return domain.OperationResult{}, true
		}
		return b.failure(), false
	}

	log.Info("tasks completed")
	return b.success(), false
}
