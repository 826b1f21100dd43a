package domain

import (
	"time"

	"github.com/google/uuid"
)

// Run — один запуск pipeline обновления данных.
//
// Run создаётся когда:
// - Пользователь запускает `ghreport update`
// - Scheduler срабатывает по cron-расписанию
// - Приходит ручной trigger из очереди runs.requested
//
// Один run обслуживает ровно один календарный день (Day).
type Run struct {
	// ID — уникальный идентификатор run.
	ID uuid.UUID `json:"id"`

	// Day — день, для которого выполняется обновление (YYYY-MM-DD).
	Day string `json:"day"`

	// Trigger — источник запуска: "cli", "schedule", "manual".
	Trigger string `json:"trigger"`

	// EngineName — engine, созданный для этого дня.
	EngineName string `json:"engine_name"`

	// DatabaseName — база, в которую загружаются данные.
	DatabaseName string `json:"database_name"`

	// Status — текущий статус выполнения.
	Status RunStatus `json:"status"`

	// Steps — результаты шагов в порядке выполнения.
	Steps []StepResult `json:"steps,omitempty"`

	// ReportPath — путь к сгенерированному HTML-отчёту (если есть).
	ReportPath string `json:"report_path,omitempty"`

	// Error — текст фатальной ошибки, если run завершился с FAILED.
	Error string `json:"error,omitempty"`

	// Warnings — нефатальные ошибки, накопленные за run.
	Warnings string `json:"warnings,omitempty"`

	// StartedAt — время начала выполнения.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — время завершения.
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// CreatedAt — время создания run.
	CreatedAt time.Time `json:"created_at"`
}

// NewRun создаёт run в статусе PENDING.
func NewRun(day, trigger, engineName, dbName string) *Run {
	return &Run{
		ID:           uuid.New(),
		Day:          day,
		Trigger:      trigger,
		EngineName:   engineName,
		DatabaseName: dbName,
		Status:       RunStatusPending,
		CreatedAt:    time.Now(),
	}
}

// Duration возвращает продолжительность выполнения.
// Возвращает 0, если run ещё не завершён.
func (r *Run) Duration() time.Duration {
	if r.StartedAt == nil || r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(*r.StartedAt)
}

// IsFinished возвращает true, если run завершён (в любом статусе).
func (r *Run) IsFinished() bool {
	return r.Status.IsTerminal()
}

// MarkRunning переводит run в статус RUNNING.
func (r *Run) MarkRunning() {
	now := time.Now()
	r.Status = RunStatusRunning
	r.StartedAt = &now
}

// MarkSucceeded переводит run в статус SUCCEEDED.
func (r *Run) MarkSucceeded() {
	now := time.Now()
	r.Status = RunStatusSucceeded
	r.FinishedAt = &now
}

// MarkFailed переводит run в статус FAILED с ошибкой.
func (r *Run) MarkFailed(err string) {
	now := time.Now()
	r.Status = RunStatusFailed
	r.FinishedAt = &now
	r.Error = err
}

// StepResult — результат одного шага pipeline.
type StepResult struct {
	// Name — имя шага (ensure_engine, fetch_data, ...).
	Name string `json:"name"`

	// Status — итог шага.
	Status StepStatus `json:"status"`

	// Message — короткое описание результата или текст ошибки.
	Message string `json:"message,omitempty"`

	// Duration — время выполнения шага.
	Duration time.Duration `json:"duration"`

	// FinishedAt — время завершения шага.
	FinishedAt time.Time `json:"finished_at"`
}

// Step возвращает результат шага по имени.
func (r *Run) Step(name string) (StepResult, bool) {
	for _, s := range r.Steps {
		if s.Name == name {
			return s, true
		}
	}
	return StepResult{}, false
}
