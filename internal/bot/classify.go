package bot

import (
	"context"

	"harvester/internal/dawn"
	"harvester/internal/domain"
	"harvester/internal/telemetry"
)

// Action — действие восстановления по классифицированной ошибке
// платформы. Закрытое множество, общее для всех workflow.
type Action int

const (
	// ActionFail — залогировать и завершить workflow неуспехом.
	ActionFail Action = iota

	// ActionRetryCaptcha — повторить workflow со свежей капчей.
	ActionRetryCaptcha

	// ActionReauth — сбросить сессию, переаутентифицироваться,
	// повторить workflow.
	ActionReauth

	// ActionQuarantineUnverified — вывести аккаунт из фермы:
	// почта не подтверждена.
	ActionQuarantineUnverified

	// ActionQuarantineBanned — вывести аккаунт из фермы: бан.
	ActionQuarantineBanned
)

// Classify отображает вид ошибки платформы в действие восстановления.
//
// Таблица закрыта; всё нераспознанное (KindOther, EmailExists,
// запреты домена) завершает workflow без повтора.
func Classify(kind dawn.ErrorKind) Action {
	switch kind {
	case dawn.KindIncorrectCaptcha, dawn.KindCaptchaExpired:
		return ActionRetryCaptcha
	case dawn.KindSessionExpired:
		return ActionReauth
	case dawn.KindUnverifiedEmail:
		return ActionQuarantineUnverified
	case dawn.KindBanned:
		return ActionQuarantineBanned
	default:
		return ActionFail
	}
}

// ShouldReport сообщает, надо ли пожаловаться решателю на ответ
// перед повтором: только при отвергнутом ответе капчи.
func ShouldReport(kind dawn.ErrorKind) bool {
	return kind == dawn.KindIncorrectCaptcha
}

// quarantine выводит аккаунт из активной фермы: выгрузка в файл
// причины, удаление из ростера, событие в MQ. Идемпотентен по email —
// повторный вызов не дублирует удаление.
func (b *Bot) quarantine(ctx context.Context, reason domain.QuarantineReason) {
	removed := b.roster.Remove(b.account.Email)

	var err error
	switch reason {
	case domain.QuarantineUnverified:
		b.logger.Error("mailbox unverified, run the reverify workflow", "removed_from_roster", removed)
		err = b.exporter.Unverified(b.account.Email, b.account.Password)
	case domain.QuarantineBanned:
		b.logger.Error("account banned by the platform", "removed_from_roster", removed)
		err = b.exporter.Banned(b.account.Email, b.account.Password)
	}
	if err != nil {
		b.logger.Warn("failed to export quarantined account", "error", err)
	}

	if removed {
		telemetry.Quarantines.WithLabelValues(string(reason)).Inc()
	}

	if b.events != nil {
		if err := b.events.PublishQuarantined(ctx, b.account.Email, reason); err != nil {
			b.logger.Warn("failed to publish quarantine event", "error", err)
		}
	}
}

// countAPIError инкрементирует метрику классифицированных ошибок.
func countAPIError(kind dawn.ErrorKind) {
	telemetry.APIErrors.WithLabelValues(kind.String()).Inc()
}
