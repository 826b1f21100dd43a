package orchestrator

// Имена шагов pipeline (в порядке выполнения).
const (
	StepEnsureEngine         = "ensure_engine"
	StepDeletePreviousEngine = "delete_previous_engine"
	StepFetchData            = "fetch_data"
	StepAwaitEngine          = "await_engine"
	StepResetDatabase        = "reset_database"
	StepEnsureDatabase       = "ensure_database"
	StepLoadData             = "load_data"
	StepProbeData            = "probe_data"
	StepInstallSchema        = "install_schema"
	StepGenerateReport       = "generate_report"
)

// Steps — все шаги по порядку.
var Steps = []string{
	StepEnsureEngine,
	StepDeletePreviousEngine,
	StepFetchData,
	StepAwaitEngine,
	StepResetDatabase,
	StepEnsureDatabase,
	StepLoadData,
	StepProbeData,
	StepInstallSchema,
	StepGenerateReport,
}

// fatalSteps — шаги, ошибка которых останавливает run.
//
// Ошибки создания engine и удаления вчерашнего engine только логируются:
// engine может уже существовать, а вчерашний никому не мешает.
// Ошибка сброса базы тоже нефатальна: ensure_database пересоздаст её.
var fatalSteps = map[string]bool{
	StepFetchData:      true,
	StepAwaitEngine:    true,
	StepEnsureDatabase: true,
	StepLoadData:       true,
	StepProbeData:      true,
	StepInstallSchema:  true,
	StepGenerateReport: true,
}

// IsFatal возвращает true, если ошибка шага останавливает run.
func IsFatal(step string) bool {
	return fatalSteps[step]
}
