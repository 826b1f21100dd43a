package scheduler

import "errors"

var (
	// ErrInvalidCron — cron-выражение не разбирается.
	ErrInvalidCron = errors.New("invalid cron expression")

	// ErrNoRunner — Scheduler создан без pipeline.
	ErrNoRunner = errors.New("scheduler requires a runner")
)
