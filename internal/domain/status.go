package domain

// RunStatus — статус выполнения pipeline run.
//
// Жизненный цикл:
//
//	PENDING → RUNNING → SUCCEEDED
//	                  ↘ FAILED
type RunStatus string

const (
	// RunStatusPending — run создан, но ещё не начал выполняться.
	RunStatusPending RunStatus = "PENDING"

	// RunStatusRunning — run в процессе выполнения.
	RunStatusRunning RunStatus = "RUNNING"

	// RunStatusSucceeded — все шаги выполнены.
	RunStatusSucceeded RunStatus = "SUCCEEDED"

	// RunStatusFailed — run остановлен фатальной ошибкой шага.
	RunStatusFailed RunStatus = "FAILED"
)

// IsTerminal возвращает true, если статус финальный (run завершён).
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusSucceeded, RunStatusFailed:
		return true
	default:
		return false
	}
}

// StepStatus — результат одного шага pipeline.
type StepStatus string

const (
	// StepStatusSucceeded — шаг выполнен (в том числе как no-op).
	StepStatusSucceeded StepStatus = "SUCCEEDED"

	// StepStatusFailed — шаг завершился ошибкой.
	StepStatusFailed StepStatus = "FAILED"

	// StepStatusSkipped — шаг не запускался (например, reset без --delete).
	StepStatusSkipped StepStatus = "SKIPPED"
)

// EngineState — состояние engine в сервисе.
//
// С точки зрения pipeline:
//
//	ABSENT → REQUESTED/PROVISIONING → PROVISIONED → (следующий день) DEPROVISIONING → DELETED
//
// Переход в PROVISIONED выполняет сервис, pipeline только наблюдает его через polling.
type EngineState string

const (
	EngineStateRequested       EngineState = "REQUESTED"
	EngineStateProvisioning    EngineState = "PROVISIONING"
	EngineStateProvisioned     EngineState = "PROVISIONED"
	EngineStateProvisionFailed EngineState = "PROVISION_FAILED"
	EngineStateDeprovisioning  EngineState = "DEPROVISIONING"
	EngineStateDeleted         EngineState = "DELETED"
)

// IsTerminal возвращает true, если сервис больше не будет менять состояние сам.
func (s EngineState) IsTerminal() bool {
	switch s {
	case EngineStateProvisioned, EngineStateDeleted, EngineStateProvisionFailed:
		return true
	default:
		return false
	}
}
