package rai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/oauth2/clientcredentials"
)

// Default configuration values.
const (
	defaultScheme         = "https"
	defaultPort           = 443
	defaultRegion         = "us-east"
	defaultTimeout        = 5 * time.Minute
	defaultCredentialsURL = "https://login.relationalai.com/oauth/token"
	userAgent             = "ghreport/1.0"
)

// Config — параметры подключения к сервису (профиль из ~/.rai/config).
type Config struct {
	Host   string
	Port   int
	Scheme string
	Region string

	// Client credentials. Если ClientID пустой, запросы идут без авторизации
	// (локальный сервис или тесты).
	ClientID             string
	ClientSecret         string
	ClientCredentialsURL string

	// Timeout — таймаут одного HTTP-запроса (default: 5m, транзакции бывают долгими).
	Timeout time.Duration

	// HTTPClient — готовый клиент (опционально, заменяет OAuth-клиент).
	HTTPClient *http.Client
}

// Client — HTTP-клиент сервиса.
type Client struct {
	baseURL    string
	region     string
	httpClient *http.Client
}

// NewClient создаёт клиент.
//
// При заданных ClientID/ClientSecret токен получается и обновляется
// через OAuth2 client credentials flow, audience = https://<host>.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	scheme := cfg.Scheme
	if scheme == "" {
		scheme = defaultScheme
	}
	port := cfg.Port
	if port <= 0 {
		port = defaultPort
	}
	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if cfg.Host == "" {
		return nil, fmt.Errorf("rai: host is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		if cfg.ClientID != "" {
			if cfg.ClientSecret == "" {
				return nil, ErrMissingCredentials
			}
			tokenURL := cfg.ClientCredentialsURL
			if tokenURL == "" {
				tokenURL = defaultCredentialsURL
			}
			cc := clientcredentials.Config{
				ClientID:       cfg.ClientID,
				ClientSecret:   cfg.ClientSecret,
				TokenURL:       tokenURL,
				EndpointParams: url.Values{"audience": {"https://" + cfg.Host}},
			}
			httpClient = cc.Client(ctx)
		} else {
			httpClient = &http.Client{}
		}
		httpClient.Timeout = timeout
	}

	baseURL := fmt.Sprintf("%s://%s", scheme, cfg.Host)
	if !(scheme == "https" && port == 443) && !(scheme == "http" && port == 80) {
		baseURL += ":" + strconv.Itoa(port)
	}

	return &Client{
		baseURL:    baseURL,
		region:     region,
		httpClient: httpClient,
	}, nil
}

// Region возвращает регион клиента.
func (c *Client) Region() string {
	return c.region
}

// --- HTTP helpers ---

func (c *Client) get(ctx context.Context, path string, params url.Values, result any) error {
	return c.doJSON(ctx, http.MethodGet, path, params, nil, result)
}

func (c *Client) put(ctx context.Context, path string, body any, result any) error {
	return c.doJSON(ctx, http.MethodPut, path, nil, body, result)
}

func (c *Client) post(ctx context.Context, path string, params url.Values, body any, result any) error {
	return c.doJSON(ctx, http.MethodPost, path, params, body, result)
}

func (c *Client) delete(ctx context.Context, path string, body any, result any) error {
	return c.doJSON(ctx, http.MethodDelete, path, nil, body, result)
}

func (c *Client) doJSON(ctx context.Context, method, path string, params url.Values, body any, result any) error {
	resp, err := c.do(ctx, method, path, params, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkError(resp); err != nil {
		return err
	}

	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil && err != io.EOF {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// checkError превращает ответ >= 400 в *APIError.
func checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var er struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	msg := string(bytes.TrimSpace(respBody))
	if err := json.Unmarshal(respBody, &er); err == nil {
		switch {
		case er.Message != "":
			msg = er.Message
		case er.Detail != "":
			msg = er.Detail
		}
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}
