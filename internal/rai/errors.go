package rai

import (
	"errors"
	"fmt"
	"net/http"
)

// Ошибки клиента.
var (
	// ErrNotFound — ресурс с таким именем отсутствует в списке сервиса.
	ErrNotFound = errors.New("not found")

	// ErrTransactionAborted — транзакция отменена сервисом.
	ErrTransactionAborted = errors.New("transaction aborted")

	// ErrQueryProblems — запрос вернул ошибки компиляции или integrity constraints.
	ErrQueryProblems = errors.New("query reported problems")

	// ErrMissingCredentials — в профиле нет client_id / client_secret.
	ErrMissingCredentials = errors.New("missing client credentials")
)

// APIError — ответ сервиса со статусом >= 400.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

// StatusCode возвращает HTTP-код ошибки сервиса или 0, если err не APIError.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// IsNotFound — ресурс не существует (ErrNotFound или 404).
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || StatusCode(err) == http.StatusNotFound
}

// IsConflict — ресурс уже существует или создаётся параллельно (409).
func IsConflict(err error) bool {
	return StatusCode(err) == http.StatusConflict
}
