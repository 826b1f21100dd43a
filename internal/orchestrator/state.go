package orchestrator

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/shaiso/ghreport/internal/domain"
	"github.com/shaiso/ghreport/internal/telemetry"
)

// RunState — состояние одного run в памяти.
//
// Pipeline выполняет шаги последовательно, поэтому RunState
// не защищён мьютексом.
type RunState struct {
	// Run — запись, которая уходит в ledger и в run.completed.
	Run *domain.Run

	// warnings — нефатальные ошибки шагов.
	warnings *multierror.Error

	// fatal — ошибка, остановившая run.
	fatal error
}

// NewRunState создаёт RunState и переводит run в RUNNING.
func NewRunState(run *domain.Run) *RunState {
	run.MarkRunning()
	return &RunState{Run: run}
}

// Succeed записывает успешный шаг.
func (s *RunState) Succeed(step string, started time.Time, msg string) {
	s.record(step, domain.StepStatusSucceeded, started, msg)
}

// Skip записывает шаг, который не выполнялся.
func (s *RunState) Skip(step, reason string) {
	s.record(step, domain.StepStatusSkipped, time.Now(), reason)
}

// Warn записывает нефатальную ошибку шага. Run продолжается.
func (s *RunState) Warn(step string, started time.Time, err error) {
	s.record(step, domain.StepStatusFailed, started, err.Error())
	s.Note(step, err)
}

// Note добавляет предупреждение к шагу, не меняя его статус.
func (s *RunState) Note(step string, err error) {
	s.warnings = multierror.Append(s.warnings, fmt.Errorf("%s: %w", step, err))
	s.Run.Warnings = s.warnings.Error()
}

// Fail записывает фатальную ошибку шага.
func (s *RunState) Fail(step string, started time.Time, err error) {
	s.record(step, domain.StepStatusFailed, started, err.Error())
	s.fatal = fmt.Errorf("%w: %s: %w", ErrStepFailed, step, err)
}

// Failed возвращает true, если run уже остановлен.
func (s *RunState) Failed() bool {
	return s.fatal != nil
}

// Warnings возвращает накопленные нефатальные ошибки (nil, если их нет).
func (s *RunState) Warnings() error {
	return s.warnings.ErrorOrNil()
}

// WarningCount возвращает число предупреждений.
func (s *RunState) WarningCount() int {
	if s.warnings == nil {
		return 0
	}
	return len(s.warnings.Errors)
}

// Finish переводит run в итоговый статус и возвращает фатальную ошибку.
func (s *RunState) Finish() error {
	if s.fatal != nil {
		s.Run.MarkFailed(s.fatal.Error())
	} else {
		s.Run.MarkSucceeded()
	}

	telemetry.ObserveRun(string(s.Run.Status), s.Run.Trigger, *s.Run.FinishedAt, s.fatal == nil)
	return s.fatal
}

func (s *RunState) record(step string, status domain.StepStatus, started time.Time, msg string) {
	now := time.Now()
	d := now.Sub(started)

	s.Run.Steps = append(s.Run.Steps, domain.StepResult{
		Name:       step,
		Status:     status,
		Message:    msg,
		Duration:   d,
		FinishedAt: now,
	})
	telemetry.ObserveStep(step, string(status), d)
}
