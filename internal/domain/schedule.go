package domain

import (
	"time"

	"github.com/google/uuid"
)

// Schedule — расписание ежедневного запуска pipeline.
//
// Scheduler проверяет NextDueAt и запускает pipeline, когда время подошло.
type Schedule struct {
	// CronExpr — cron-выражение.
	// Формат: "минуты часы дни месяцы дни_недели"
	// Примеры:
	//   "0 6 * * *"     — каждый день в 6:00
	//   "30 5 * * 1-5"  — по будням в 5:30
	CronExpr string `json:"cron_expr"`

	// Timezone — часовой пояс для вычисления времени и "сегодняшней" даты.
	// По умолчанию: "UTC".
	Timezone string `json:"timezone"`

	// NextDueAt — время следующего запуска.
	NextDueAt *time.Time `json:"next_due_at,omitempty"`

	// LastRunAt — время последнего запуска.
	LastRunAt *time.Time `json:"last_run_at,omitempty"`

	// LastRunID — ID последнего run.
	LastRunID *uuid.UUID `json:"last_run_id,omitempty"`
}

// Location возвращает часовой пояс расписания (UTC, если не задан или невалиден).
func (s *Schedule) Location() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsDue проверяет, пора ли запускать.
func (s *Schedule) IsDue(now time.Time) bool {
	if s.NextDueAt == nil {
		return false
	}
	return now.After(*s.NextDueAt) || now.Equal(*s.NextDueAt)
}

// RecordRun записывает информацию о запуске.
func (s *Schedule) RecordRun(runID uuid.UUID, at, nextDue time.Time) {
	s.LastRunAt = &at
	s.LastRunID = &runID
	s.NextDueAt = &nextDue
}
