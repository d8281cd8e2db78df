// Package captcha реализует клиент внешнего сервиса распознавания
// капчи (2captcha-совместимый JSON-протокол createTask/getTaskResult).
package captcha

import "context"

// Solution — результат одной попытки распознавания.
type Solution struct {
	// Answer — распознанный текст (или описание ошибки при Solved=false).
	Answer string

	// Solved — сообщил ли сервис об успехе.
	Solved bool

	// TaskID — идентификатор задачи в сервисе. Непустой только для
	// решений через очередь; нужен, чтобы пожаловаться на плохой ответ.
	TaskID string
}

// Solver — контракт сервиса распознавания.
type Solver interface {
	// Solve распознаёт текст на изображении капчи.
	Solve(ctx context.Context, image []byte) (Solution, error)

	// ReportBad сообщает сервису, что ответ задачи оказался неверным.
	ReportBad(ctx context.Context, taskID string) error
}
