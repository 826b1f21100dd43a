// Package telemetry обеспечивает наблюдаемость pipeline.
//
// Включает:
//   - logging.go — structured logging через slog
//   - metrics.go — Prometheus метрики шагов и runs
//
// Разовый запуск (ghreport update) отправляет метрики в Pushgateway,
// daemon (ghreport schedule) отдаёт их на /metrics.
package telemetry
