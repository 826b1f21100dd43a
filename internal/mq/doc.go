// Package mq связывает ghreport с RabbitMQ.
//
// Структура:
//   - connection.go — соединение с автоматическим reconnect
//   - topology.go   — exchanges, queues, bindings
//   - publisher.go  — публикация событий runs
//   - consumer.go   — потребление запросов на запуск
//
// Типы сообщений:
//   - run.requested — ручной запрос запуска (ghreport trigger → daemon)
//   - run.completed — итог run для внешних подписчиков
//
// Exchanges:
//   - ghreport.runs — события runs
//   - ghreport.dlq  — запросы, которые не удалось обработать
package mq
