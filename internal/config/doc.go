// Package config собирает настройки ghreport.
//
// Источники по приоритету:
//   - флаги командной строки (привязываются к viper в internal/cli)
//   - переменные окружения GHREPORT_* (и GITHUB_TOKEN, DB_URL, RABBITMQ_URL)
//   - файл .env в рабочем каталоге
//   - значения по умолчанию
//
// Подключение к сервису берётся из профиля ~/.rai/config (INI,
// секция = имя профиля), поля профиля переопределяются RAI_*.
package config
