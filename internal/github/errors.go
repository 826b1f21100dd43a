package github

import "errors"

// Ошибки выгрузки.
var (
	// ErrMissingToken — не задан токен GitHub.
	ErrMissingToken = errors.New("github token is required")

	// ErrMissingRepository — не заданы owner или repo.
	ErrMissingRepository = errors.New("owner and repo are required")
)
