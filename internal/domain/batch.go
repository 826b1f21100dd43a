package domain

import (
	"fmt"
	"path/filepath"
)

// BatchKind — категория данных, получаемых из GitHub.
type BatchKind string

const (
	BatchIssues      BatchKind = "issues"
	BatchMilestones  BatchKind = "milestones"
	BatchLabels      BatchKind = "labels"
	BatchUsers       BatchKind = "users"
	BatchUserDetails BatchKind = "user-details"
	BatchRepo        BatchKind = "repo"
)

// Batch — одна категория данных: файл на диске и (опционально) relation в базе.
type Batch struct {
	// Kind — категория.
	Kind BatchKind

	// Relation — целевой relation в базе.
	// Пустой, если batch только сохраняется на диск и не загружается.
	Relation string
}

// FileName возвращает имя файла batch для репозитория: "<repo>-<kind>.json".
func (b Batch) FileName(repo string) string {
	return fmt.Sprintf("%s-%s.json", repo, b.Kind)
}

// Path возвращает путь к файлу batch в каталоге dir.
func (b Batch) Path(dir, repo string) string {
	return filepath.Join(dir, b.FileName(repo))
}

// Loadable возвращает true, если batch загружается в базу.
func (b Batch) Loadable() bool {
	return b.Relation != ""
}

// FetchedBatches — все batches, которые пишет fetcher (порядок записи).
var FetchedBatches = []Batch{
	{Kind: BatchMilestones, Relation: "json_milestones"},
	{Kind: BatchLabels, Relation: "json_labels"},
	{Kind: BatchIssues, Relation: "json_issues"},
	{Kind: BatchUsers},
	{Kind: BatchUserDetails, Relation: "json_users"},
	{Kind: BatchRepo, Relation: "json_repos"},
}

// LoadOrder — batches в порядке загрузки в базу.
//
// Список пользователей (users) не загружается: в базу идут подробные записи (user-details).
var LoadOrder = []Batch{
	{Kind: BatchLabels, Relation: "json_labels"},
	{Kind: BatchMilestones, Relation: "json_milestones"},
	{Kind: BatchIssues, Relation: "json_issues"},
	{Kind: BatchRepo, Relation: "json_repos"},
	{Kind: BatchUserDetails, Relation: "json_users"},
}
