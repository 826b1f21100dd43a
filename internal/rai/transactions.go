package rai

import (
	"context"
	"fmt"

	"github.com/shaiso/ghreport/internal/domain"
)

// Режимы открытия базы в транзакции.
const (
	modeOpen            = "OPEN"
	modeCreate          = "CREATE"
	modeCreateOverwrite = "CREATE_OVERWRITE"
)

// transactionRequest — тело POST /transaction.
type transactionRequest struct {
	Type          string          `json:"type"`
	Abort         bool            `json:"abort"`
	DBName        string          `json:"dbname"`
	NowaitDurable bool            `json:"nowait_durable"`
	Readonly      bool            `json:"readonly"`
	Mode          string          `json:"mode"`
	ComputeName   string          `json:"computeName,omitempty"`
	SourceDBName  string          `json:"source_dbname,omitempty"`
	Version       int             `json:"version"`
	Actions       []labeledAction `json:"actions"`
}

type labeledAction struct {
	Type   string `json:"type"`
	Name   string `json:"name"`
	Action any    `json:"action"`
}

type sourceDef struct {
	Type  string `json:"type"`
	Name  string `json:"name"`
	Path  string `json:"path"`
	Value string `json:"value"`
}

type queryAction struct {
	Type    string    `json:"type"`
	Source  sourceDef `json:"source"`
	Persist []string  `json:"persist"`
	Inputs  []any     `json:"inputs"`
	Outputs []string  `json:"outputs"`
}

type installAction struct {
	Type    string      `json:"type"`
	Sources []sourceDef `json:"sources"`
}

type listSourceAction struct {
	Type string `json:"type"`
}

func newTransaction(db, engine, mode string, readonly bool, actions ...any) transactionRequest {
	labeled := make([]labeledAction, 0, len(actions))
	for i, a := range actions {
		labeled = append(labeled, labeledAction{
			Type:   "LabeledAction",
			Name:   fmt.Sprintf("action%d", i),
			Action: a,
		})
	}
	return transactionRequest{
		Type:        "Transaction",
		DBName:      db,
		Readonly:    readonly,
		Mode:        mode,
		ComputeName: engine,
		Actions:     labeled,
	}
}

// transact выполняет транзакцию и проверяет aborted / problems.
func (c *Client) transact(ctx context.Context, tx transactionRequest) (*TransactionResult, error) {
	var result TransactionResult
	if err := c.post(ctx, "/transaction", nil, tx, &result); err != nil {
		return nil, err
	}
	if result.Aborted {
		return &result, fmt.Errorf("%w: %s", ErrTransactionAborted, result.ProblemsSummary())
	}
	if result.HasErrors() {
		return &result, fmt.Errorf("%w: %s", ErrQueryProblems, result.ProblemsSummary())
	}
	return &result, nil
}

// Query выполняет Rel-запрос. readonly=false разрешает изменение базы.
func (c *Client) Query(ctx context.Context, db, engine, source string, readonly bool) (*TransactionResult, error) {
	action := queryAction{
		Type:    "QueryAction",
		Source:  sourceDef{Type: "Source", Name: "query", Value: source},
		Persist: []string{},
		Inputs:  []any{},
		Outputs: []string{},
	}

	result, err := c.transact(ctx, newTransaction(db, engine, modeOpen, readonly, action))
	if err != nil {
		return result, fmt.Errorf("query %s: %w", db, err)
	}
	return result, nil
}

// ListSources возвращает установленные в базу исходники.
func (c *Client) ListSources(ctx context.Context, db, engine string) ([]domain.Source, error) {
	result, err := c.transact(ctx, newTransaction(db, engine, modeOpen, true, listSourceAction{Type: "ListSourceAction"}))
	if err != nil {
		return nil, fmt.Errorf("list sources %s: %w", db, err)
	}
	return result.Sources(), nil
}

// InstallSources устанавливает исходники (name → value) в базу.
func (c *Client) InstallSources(ctx context.Context, db, engine string, sources map[string]string) error {
	defs := make([]sourceDef, 0, len(sources))
	for name, value := range sources {
		defs = append(defs, sourceDef{Type: "Source", Name: name, Path: name, Value: value})
	}

	action := installAction{Type: "InstallAction", Sources: defs}
	if _, err := c.transact(ctx, newTransaction(db, engine, modeOpen, false, action)); err != nil {
		return fmt.Errorf("install sources %s: %w", db, err)
	}
	return nil
}
