package repo

import "errors"

// Общие ошибки репозиториев.
var (
	// ErrNotFound — запись не найдена в БД.
	ErrNotFound = errors.New("not found")

	// ErrLockHeld — advisory lock держит другой процесс.
	ErrLockHeld = errors.New("lock held by another process")
)
