package bot

import (
	"context"
	"errors"

	"harvester/internal/dawn"
	"harvester/internal/telemetry"
)

// Бюджет и политика приёмки решения капчи.
const (
	captchaAttempts = 5

	// answerLength — платформа принимает ровно 6 символов.
	answerLength = 6

	// noiseLength — ответы длиннее считаем шумом распознавания,
	// а не осмысленно неверным текстом. Влияет только на лог.
	noiseLength = 30
)

// Challenge — решённая капча, готовая к отправке платформе.
// Живёт в пределах одной попытки workflow и не персистится.
type Challenge struct {
	// PuzzleID — идентификатор капчи на платформе.
	PuzzleID string

	// Answer — принятый ответ решателя.
	Answer string

	// TaskID — идентификатор задачи в решателе (пустой для
	// локальных решений); нужен, чтобы пожаловаться на ответ,
	// отвергнутый уже платформой.
	TaskID string
}

// resolveCaptcha получает и решает капчу с ограниченным числом попыток.
//
// Ответ принимается только при solved и ровно 6 символах. На ответ
// неверной длины с известным task id жалуемся решателю до повтора.
// ErrRateLimited от платформы пробрасывается немедленно, минуя
// оставшийся бюджет; любая другая ошибка тратит попытку. Исчерпание
// бюджета — ErrCaptchaSolvingFailed.
func (b *Bot) resolveCaptcha(ctx context.Context) (Challenge, error) {
	for attempt := 1; attempt <= captchaAttempts; attempt++ {
		challenge, err := b.solveOnce(ctx)
		if err == nil {
			return challenge, nil
		}
		if errors.Is(err, dawn.ErrRateLimited) || ctx.Err() != nil {
			return Challenge{}, err
		}

		b.logger.Error("captcha attempt failed",
			"attempt", attempt,
			"error", err,
		)
	}

	return Challenge{}, ErrCaptchaSolvingFailed
}

// errBadAnswer — внутренняя ошибка одной попытки решения.
var errBadAnswer = errors.New("solver returned unusable answer")

// solveOnce выполняет одну попытку: капча с платформы, решатель,
// политика приёмки.
func (b *Bot) solveOnce(ctx context.Context) (Challenge, error) {
	puzzleID, err := b.client.GetPuzzleID(ctx)
	if err != nil {
		return Challenge{}, err
	}

	image, err := b.client.GetPuzzleImage(ctx, puzzleID)
	if err != nil {
		return Challenge{}, err
	}

	b.logger.Info("captcha image fetched, solving", "puzzle_id", puzzleID)

	sol, err := b.solver.Solve(ctx, image)
	if err != nil {
		telemetry.CaptchaAttempts.WithLabelValues("error").Inc()
		return Challenge{}, err
	}

	if sol.Solved && len(sol.Answer) == answerLength {
		telemetry.CaptchaAttempts.WithLabelValues("solved").Inc()
		b.logger.Info("captcha solved", "answer", sol.Answer)
		return Challenge{PuzzleID: puzzleID, Answer: sol.Answer, TaskID: sol.TaskID}, nil
	}

	telemetry.CaptchaAttempts.WithLabelValues("rejected").Inc()

	if len(sol.Answer) != answerLength && sol.TaskID != "" {
		if err := b.solver.ReportBad(ctx, sol.TaskID); err != nil {
			b.logger.Warn("failed to report bad captcha answer", "task_id", sol.TaskID, "error", err)
		}
	}

	// Различие только для логов: длинный мусор против неверного текста.
	if len(sol.Answer) > noiseLength {
		b.logger.Error("solver returned noise", "answer_len", len(sol.Answer))
	} else {
		b.logger.Error("solver returned wrong answer", "answer", sol.Answer, "solved", sol.Solved)
	}

	return Challenge{}, errBadAnswer
}

// reportChallenge жалуется решателю на ответ, отвергнутый платформой.
func (b *Bot) reportChallenge(ctx context.Context, challenge Challenge) {
	if challenge.TaskID == "" {
		return
	}
	if err := b.solver.ReportBad(ctx, challenge.TaskID); err != nil {
		b.logger.Warn("failed to report rejected captcha", "task_id", challenge.TaskID, "error", err)
	}
}
