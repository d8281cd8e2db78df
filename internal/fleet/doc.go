// Package fleet управляет парком аккаунтов: периодические циклы фермы
// пулом воркеров поверх разделяемого ростера и разовые обходы
// (регистрация, переподтверждение, статистика, задания) для CLI.
//
// Инвариант: на один email — не больше одного активного цикла
// одновременно; карантин, выполненный оркестратором, просто убирает
// аккаунт из следующего обхода.
package fleet
