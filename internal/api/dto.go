package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/ghreport/internal/domain"
)

// RunResponse — run из ledger.
type RunResponse struct {
	ID           uuid.UUID        `json:"id"`
	Day          string           `json:"day"`
	Trigger      string           `json:"trigger"`
	EngineName   string           `json:"engine_name"`
	DatabaseName string           `json:"database_name"`
	Status       domain.RunStatus `json:"status"`
	Steps        []StepResponse   `json:"steps,omitempty"`
	ReportPath   string           `json:"report_path,omitempty"`
	Error        string           `json:"error,omitempty"`
	Warnings     string           `json:"warnings,omitempty"`
	StartedAt    *time.Time       `json:"started_at,omitempty"`
	FinishedAt   *time.Time       `json:"finished_at,omitempty"`
	DurationMs   int64            `json:"duration_ms"`
	CreatedAt    time.Time        `json:"created_at"`
}

// StepResponse — результат шага.
type StepResponse struct {
	Name       string            `json:"name"`
	Status     domain.StepStatus `json:"status"`
	Message    string            `json:"message,omitempty"`
	DurationMs int64             `json:"duration_ms"`
}

// RunFromDomain конвертирует domain.Run в RunResponse.
func RunFromDomain(r domain.Run) RunResponse {
	steps := make([]StepResponse, len(r.Steps))
	for i, s := range r.Steps {
		steps[i] = StepResponse{
			Name:       s.Name,
			Status:     s.Status,
			Message:    s.Message,
			DurationMs: s.Duration.Milliseconds(),
		}
	}

	return RunResponse{
		ID:           r.ID,
		Day:          r.Day,
		Trigger:      r.Trigger,
		EngineName:   r.EngineName,
		DatabaseName: r.DatabaseName,
		Status:       r.Status,
		Steps:        steps,
		ReportPath:   r.ReportPath,
		Error:        r.Error,
		Warnings:     r.Warnings,
		StartedAt:    r.StartedAt,
		FinishedAt:   r.FinishedAt,
		DurationMs:   r.Duration().Milliseconds(),
		CreatedAt:    r.CreatedAt,
	}
}

// RequestRunRequest — запрос ручного запуска.
type RequestRunRequest struct {
	// ResetDatabase принимается, только если включён Config.AllowReset.
	ResetDatabase bool   `json:"reset_database"`
	RequestedBy   string `json:"requested_by,omitempty"`
}

// ScheduleResponse — состояние расписания.
type ScheduleResponse struct {
	CronExpr  string     `json:"cron_expr"`
	Timezone  string     `json:"timezone"`
	NextDueAt *time.Time `json:"next_due_at,omitempty"`
}
