// Package schema устанавливает Rel-модель в базу.
//
// Модель — два именованных исходника:
//   - github_issues_schema — упорядоченная склейка файлов SchemaDeps
//   - github_issues_ics — integrity constraints
//
// Каждый исходник устанавливается только если его ещё нет в базе.
// Файлы по умолчанию встроены в бинарник (rel/*.rel), каталог можно переопределить.
package schema
