package schema

import "errors"

// Ошибки установки схемы.
var (
	// ErrSchemaFileMissing — не найден один из файлов модели.
	ErrSchemaFileMissing = errors.New("schema file missing")
)
