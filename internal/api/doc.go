// Package api содержит HTTP API daemon.
//
// Структура:
//   - handler.go          — Handler с зависимостями
//   - routes.go           — регистрация маршрутов
//   - middleware.go       — logging, recovery, request id
//   - response.go         — унифицированные JSON-ответы
//   - dto.go              — ответы API
//   - run_handler.go      — /runs: история и ручной запуск
//   - schedule_handler.go — /schedule: ближайший запуск
//
// API только читает ledger; ручной запуск уходит в runs.requested,
// как и у команды ghreport trigger.
package api
