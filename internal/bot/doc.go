// Package bot — оркестратор жизненного цикла одного аккаунта.
//
// Bot отвечает за:
//   - Регистрацию аккаунта и подтверждение почты по ссылке из письма
//   - Повторную отправку и подтверждение верификации
//   - Логин с решением капчи и персистентным хранением сессии
//   - Цикл фермы: гейты сна и блокировки, keepalive, чтение баллов
//   - Классификацию ошибок платформы и выбор действия восстановления
//   - Карантин недействительных аккаунтов (unverified, banned)
//
// Все workflow — тотальные функции: ошибки не поднимаются наружу,
// любой исход превращается в типизированный результат. Повторы
// ограничены фиксированным бюджетом на инвокацию.
package bot
