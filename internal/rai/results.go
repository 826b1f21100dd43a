package rai

import (
	"fmt"
	"strings"

	"github.com/shaiso/ghreport/internal/domain"
)

// TransactionResult — ответ POST /transaction.
type TransactionResult struct {
	Type     string         `json:"type"`
	Aborted  bool           `json:"aborted"`
	Output   []Relation     `json:"output"`
	Problems []Problem      `json:"problems"`
	Actions  []actionResult `json:"actions"`
}

type actionResult struct {
	Name   string `json:"name"`
	Result struct {
		Type    string          `json:"type"`
		Output  []Relation      `json:"output"`
		Sources []domain.Source `json:"sources"`
	} `json:"result"`
}

// RelKey — описание relation: имя и типы ключей/значений.
type RelKey struct {
	Name   string   `json:"name"`
	Keys   []string `json:"keys"`
	Values []string `json:"values"`
}

// Relation — одна relation результата в колоночном виде.
type Relation struct {
	RelKey  RelKey  `json:"rel_key"`
	Columns [][]any `json:"columns"`
}

// Problem — диагностическое сообщение транзакции.
type Problem struct {
	Type        string `json:"type"`
	ErrorCode   string `json:"error_code"`
	Message     string `json:"message"`
	Report      string `json:"report"`
	IsError     bool   `json:"is_error"`
	IsException bool   `json:"is_exception"`
}

// Relations возвращает все relations результата: верхнего уровня и из действий.
func (r *TransactionResult) Relations() []Relation {
	out := make([]Relation, 0, len(r.Output))
	out = append(out, r.Output...)
	for _, a := range r.Actions {
		out = append(out, a.Result.Output...)
	}
	return out
}

// Relation возвращает первую relation с именем name.
func (r *TransactionResult) Relation(name string) (Relation, bool) {
	for _, rel := range r.Relations() {
		if rel.RelKey.Name == name {
			return rel, true
		}
	}
	return Relation{}, false
}

// Sources возвращает исходники из результата ListSourceAction.
func (r *TransactionResult) Sources() []domain.Source {
	var sources []domain.Source
	for _, a := range r.Actions {
		sources = append(sources, a.Result.Sources...)
	}
	return sources
}

// HasErrors возвращает true, если среди problems есть ошибки.
func (r *TransactionResult) HasErrors() bool {
	for _, p := range r.Problems {
		if p.IsError || p.IsException {
			return true
		}
	}
	return false
}

// ProblemsSummary возвращает problems одной строкой для логов.
func (r *TransactionResult) ProblemsSummary() string {
	if len(r.Problems) == 0 {
		return "no problems reported"
	}
	parts := make([]string, 0, len(r.Problems))
	for _, p := range r.Problems {
		parts = append(parts, fmt.Sprintf("%s: %s", p.ErrorCode, p.Message))
	}
	return strings.Join(parts, "; ")
}

// LastColumn возвращает последнюю колонку relation (значения).
func (rel Relation) LastColumn() []any {
	if len(rel.Columns) == 0 {
		return nil
	}
	return rel.Columns[len(rel.Columns)-1]
}

// Strings возвращает значения колонки как строки.
func Strings(column []any) []string {
	out := make([]string, 0, len(column))
	for _, v := range column {
		switch s := v.(type) {
		case string:
			out = append(out, s)
		default:
			out = append(out, fmt.Sprint(s))
		}
	}
	return out
}
