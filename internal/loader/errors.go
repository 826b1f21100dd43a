package loader

import "errors"

// Ошибки загрузки.
var (
	// ErrBatchFileMissing — нет файла batch в каталоге данных.
	ErrBatchFileMissing = errors.New("batch file missing")

	// ErrInvalidRepoName — имя репозитория не похоже на имя GitHub.
	ErrInvalidRepoName = errors.New("invalid repository name")

	// ErrInvalidBatch — содержимое файла не JSON-массив.
	ErrInvalidBatch = errors.New("batch is not a JSON array")
)
