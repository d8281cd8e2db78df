package bot

import "errors"

// Ошибки оркестратора.
var (
	// ErrCaptchaSolvingFailed — капчу не удалось решить за отведённый
	// бюджет попыток. Терминальна; в логине превращается в длинную
	// штрафную паузу.
	ErrCaptchaSolvingFailed = errors.New("captcha solving failed after retry budget")
)
