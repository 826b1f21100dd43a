package rai

import (
	"context"
	"fmt"
	"net/url"

	"github.com/shaiso/ghreport/internal/domain"
)

type databaseListResponse struct {
	Databases []domain.Database `json:"databases"`
}

type deleteDatabaseRequest struct {
	Name string `json:"name"`
}

// GetDatabase возвращает базу по имени.
// Если база не существует, возвращает ошибку, для которой IsNotFound == true.
func (c *Client) GetDatabase(ctx context.Context, name string) (*domain.Database, error) {
	params := url.Values{}
	params.Set("name", name)

	var resp databaseListResponse
	if err := c.get(ctx, "/database", params, &resp); err != nil {
		return nil, fmt.Errorf("get database %s: %w", name, err)
	}

	for i := range resp.Databases {
		if resp.Databases[i].Name == name {
			return &resp.Databases[i], nil
		}
	}
	return nil, fmt.Errorf("database %s: %w", name, ErrNotFound)
}

// CreateDatabase создаёт базу через engine.
// overwrite=true заменяет существующую базу с тем же именем, повторный вызов безопасен.
func (c *Client) CreateDatabase(ctx context.Context, name, engine string, overwrite bool) error {
	mode := modeCreate
	if overwrite {
		mode = modeCreateOverwrite
	}

	if _, err := c.transact(ctx, newTransaction(name, engine, mode, false)); err != nil {
		return fmt.Errorf("create database %s: %w", name, err)
	}
	return nil
}

// DeleteDatabase удаляет базу.
func (c *Client) DeleteDatabase(ctx context.Context, name string) error {
	if err := c.delete(ctx, "/database", deleteDatabaseRequest{Name: name}, nil); err != nil {
		return fmt.Errorf("delete database %s: %w", name, err)
	}
	return nil
}
