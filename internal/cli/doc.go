// Package cli реализует команды ghreport.
//
// Каждая команда создаётся фабрикой (NewUpdateCmd и т.д.), которая
// принимает *viper.Viper с настройками и outputFn — замыкание для
// ленивого создания Output после парсинга PersistentFlags.
//
// Команды:
//   - update   — полный run pipeline за сегодня
//   - pull     — только выгрузка данных GitHub
//   - schedule — daemon: cron, ручные запросы, /metrics
//   - trigger  — запросить внеплановый run у daemon
//   - runs     — история runs из ledger
//
// Данные выводятся в stdout (таблица или JSON с --json),
// логи и сообщения — в stderr.
package cli
