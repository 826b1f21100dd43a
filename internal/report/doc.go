// Package report строит HTML-отчёт по открытым issues.
//
// Строки таблицы готовит сама база (relation issue_table_row),
// здесь они только склеиваются в документ и пишутся в файл
// <dir>/gh-report-YYYY-MM-DD.html.
package report
