package dawn

import (
	"errors"
	"fmt"
	"strings"
)

// ErrRateLimited — платформа ограничила саму сессию (HTTP 429 или
// явный текст про rate limit). Это не семантическая ошибка запроса:
// сигнал всегда завершает текущий цикл и включает штрафную паузу.
var ErrRateLimited = errors.New("session rate limited")

// ErrorKind — закрытое перечисление семантических ошибок платформы.
//
// Платформа возвращает свободный текст в поле message; мы приводим его
// к закрытому набору, по которому классификатор выбирает действие.
// Всё нераспознанное попадает в KindOther.
type ErrorKind int

const (
	// KindOther — нераспознанная ошибка платформы.
	KindOther ErrorKind = iota

	// KindIncorrectCaptcha — ответ на капчу не принят.
	KindIncorrectCaptcha

	// KindCaptchaExpired — капча устарела до отправки ответа.
	KindCaptchaExpired

	// KindEmailExists — email уже зарегистрирован.
	KindEmailExists

	// KindDomainBanned — домен почты запрещён платформой.
	KindDomainBanned

	// KindDomainBannedAlt — второй вариант запрета домена
	// (платформа формулирует его отдельным сообщением).
	KindDomainBannedAlt

	// KindSessionExpired — заголовки сессии больше не действительны.
	KindSessionExpired

	// KindUnverifiedEmail — почта аккаунта не подтверждена.
	KindUnverifiedEmail

	// KindBanned — аккаунт заблокирован платформой.
	KindBanned
)

// String возвращает имя вида ошибки для логов и метрик.
func (k ErrorKind) String() string {
	switch k {
	case KindIncorrectCaptcha:
		return "incorrect_captcha"
	case KindCaptchaExpired:
		return "captcha_expired"
	case KindEmailExists:
		return "email_exists"
	case KindDomainBanned:
		return "domain_banned"
	case KindDomainBannedAlt:
		return "domain_banned_alt"
	case KindSessionExpired:
		return "session_expired"
	case KindUnverifiedEmail:
		return "unverified_email"
	case KindBanned:
		return "banned"
	default:
		return "other"
	}
}

// APIError — семантическая ошибка платформы с приведённым видом.
type APIError struct {
	// Kind — приведённый вид ошибки.
	Kind ErrorKind

	// Message — исходный текст платформы.
	Message string

	// StatusCode — HTTP-статус ответа.
	StatusCode int
}

// Error реализует error.
func (e *APIError) Error() string {
	return fmt.Sprintf("platform error (%s): %s", e.Kind, e.Message)
}

// Сигнатуры сообщений платформы для приведения к ErrorKind.
// Сравнение регистронезависимое, по подстроке.
var kindSignatures = []struct {
	substr string
	kind   ErrorKind
}{
	{"incorrect answer", KindIncorrectCaptcha},
	{"invalid captcha", KindIncorrectCaptcha},
	{"captcha expired", KindCaptchaExpired},
	{"puzzle expired", KindCaptchaExpired},
	{"email already exists", KindEmailExists},
	{"already registered", KindEmailExists},
	{"domain not supported", KindDomainBanned},
	{"disposable email", KindDomainBannedAlt},
	{"session expired", KindSessionExpired},
	{"invalid token", KindSessionExpired},
	{"unauthorized", KindSessionExpired},
	{"not verified", KindUnverifiedEmail},
	{"verify your email", KindUnverifiedEmail},
	{"account suspended", KindBanned},
	{"account banned", KindBanned},
}

// classifyMessage приводит текст платформы к ErrorKind.
func classifyMessage(message string) ErrorKind {
	lower := strings.ToLower(message)
	for _, sig := range kindSignatures {
		if strings.Contains(lower, sig.substr) {
			return sig.kind
		}
	}
	return KindOther
}

// newAPIError строит APIError из статуса и сообщения платформы.
// Rate limit распознаётся до приведения вида и возвращается
// отдельным сигналом ErrRateLimited.
func newAPIError(statusCode int, message string) error {
	if statusCode == 429 || strings.Contains(strings.ToLower(message), "rate limit") {
		return ErrRateLimited
	}
	return &APIError{
		Kind:       classifyMessage(message),
		Message:    message,
		StatusCode: statusCode,
	}
}
