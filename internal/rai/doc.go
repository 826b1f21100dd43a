// Package rai — HTTP-клиент сервиса RelationalAI (engines, databases, transactions).
//
// Структура:
//   - client.go       — Client, аутентификация (OAuth2 client credentials), HTTP helpers
//   - errors.go       — APIError и классификация ошибок (404, 409)
//   - engines.go      — GetEngine / CreateEngine / DeleteEngine
//   - databases.go    — GetDatabase / CreateDatabase / DeleteDatabase
//   - transactions.go — Query, ListSources, InstallSources
//   - results.go      — разбор результатов транзакций (relations, problems)
//
// Клиент ничего не знает о pipeline: идемпотентность и политика ошибок
// реализованы в пакете lifecycle.
package rai
