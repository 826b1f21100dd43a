package rai

import (
	"context"
	"fmt"
	"net/url"

	"github.com/shaiso/ghreport/internal/domain"
)

type engineListResponse struct {
	Computes []domain.Engine `json:"computes"`
}

type engineResponse struct {
	Compute domain.Engine `json:"compute"`
}

type createEngineRequest struct {
	Name   string `json:"name"`
	Size   string `json:"size"`
	Region string `json:"region"`
}

type deleteEngineRequest struct {
	Name string `json:"name"`
}

// GetEngine возвращает engine по имени.
// Если engine не существует, возвращает ошибку, для которой IsNotFound == true.
func (c *Client) GetEngine(ctx context.Context, name string) (*domain.Engine, error) {
	params := url.Values{}
	params.Set("name", name)

	var resp engineListResponse
	if err := c.get(ctx, "/compute", params, &resp); err != nil {
		return nil, fmt.Errorf("get engine %s: %w", name, err)
	}

	for i := range resp.Computes {
		if resp.Computes[i].Name == name {
			return &resp.Computes[i], nil
		}
	}
	return nil, fmt.Errorf("engine %s: %w", name, ErrNotFound)
}

// CreateEngine запрашивает создание engine. Возвращается сразу,
// provisioning продолжается на стороне сервиса.
func (c *Client) CreateEngine(ctx context.Context, name string, size domain.EngineSize) (*domain.Engine, error) {
	req := createEngineRequest{
		Name:   name,
		Size:   string(size),
		Region: c.region,
	}

	var resp engineResponse
	if err := c.put(ctx, "/compute", req, &resp); err != nil {
		return nil, fmt.Errorf("create engine %s: %w", name, err)
	}
	if resp.Compute.Name == "" {
		resp.Compute.Name = name
		resp.Compute.Size = size
	}
	return &resp.Compute, nil
}

// DeleteEngine запрашивает удаление engine.
func (c *Client) DeleteEngine(ctx context.Context, name string) error {
	if err := c.delete(ctx, "/compute", deleteEngineRequest{Name: name}, nil); err != nil {
		return fmt.Errorf("delete engine %s: %w", name, err)
	}
	return nil
}
