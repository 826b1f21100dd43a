package orchestrator

import "errors"

// Ошибки pipeline.
var (
	// ErrStepFailed — фатальный шаг завершился ошибкой, run FAILED.
	ErrStepFailed = errors.New("pipeline step failed")

	// ErrProbeMismatch — проверочный запрос вернул не то имя репозитория.
	// Нефатальна: попадает только в предупреждения run.
	ErrProbeMismatch = errors.New("probe returned unexpected data")

	// ErrRunInProgress — pipeline уже выполняет другой run.
	ErrRunInProgress = errors.New("pipeline run already in progress")
)
