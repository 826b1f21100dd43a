// Package loader загружает JSON batches в базу.
//
// Все batches собираются в один Rel-запрос: для каждого batch
// регистрируется JSON-строка, удаляются старые строки relation
// для репозитория и вставляются разобранные из JSON. Запрос
// выполняется одной транзакцией, поэтому batches применяются вместе.
package loader
