// Package github выгружает данные репозитория из GitHub API в JSON-файлы.
//
// Для репозитория пишутся шесть файлов "<repo>-<kind>.json":
// issues, milestones, labels, users, user-details, repo.
// Каждый файл — JSON-массив, все страницы списка склеены.
// Запись атомарная: временный файл и rename.
package github
