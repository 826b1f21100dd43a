package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shaiso/ghreport/internal/domain"
	"github.com/shaiso/ghreport/internal/github"
	"github.com/shaiso/ghreport/internal/loader"
	"github.com/shaiso/ghreport/internal/telemetry"
)

// Триггеры run.
const (
	TriggerCLI      = "cli"
	TriggerSchedule = "schedule"
	TriggerManual   = "manual"
)

// Engines — управление engines (lifecycle.EngineManager).
type Engines interface {
	EnsureCreated(ctx context.Context, name string, size domain.EngineSize) error
	EnsureDeleted(ctx context.Context, name string) error
	Await(ctx context.Context, name string) error
}

// Databases — управление базой (lifecycle.DatabaseManager).
type Databases interface {
	EnsureDeleted(ctx context.Context, name string) error
	EnsureConnected(ctx context.Context, name, engine string) error
}

// Fetcher — выгрузка данных GitHub (github.Fetcher).
type Fetcher interface {
	FetchAll(ctx context.Context, owner, repo string) (github.Summary, error)
}

// Loader — загрузка данных в базу (loader.Loader).
type Loader interface {
	Load(ctx context.Context, db, engine string) error
	Probe(ctx context.Context, db, engine string) (*loader.ProbeResult, error)
}

// Installer — установка модели (schema.Installer).
type Installer interface {
	EnsureInstalled(ctx context.Context, db, engine string) ([]string, error)
}

// Reporter — генерация отчёта (report.Generator).
type Reporter interface {
	Generate(ctx context.Context, db, engine string, day time.Time) (string, error)
}

// Recorder сохраняет runs (repo.RunRepo). Опционален.
type Recorder interface {
	Create(ctx context.Context, run *domain.Run) error
	Update(ctx context.Context, run *domain.Run) error
}

// Notifier публикует итог run (mq.Publisher). Опционален.
type Notifier interface {
	PublishRunCompleted(ctx context.Context, run *domain.Run) error
}

// Config — конфигурация Pipeline.
type Config struct {
	Engines   Engines
	Databases Databases
	Fetcher   Fetcher
	Loader    Loader
	Installer Installer
	Reporter  Reporter

	Recorder Recorder
	Notifier Notifier

	EnginePrefix string
	EngineSize   domain.EngineSize
	Database     string
	Owner        string
	Repo         string

	Logger *slog.Logger
}

// RunOptions — параметры одного run.
type RunOptions struct {
	// Trigger — источник запуска (default: "cli").
	Trigger string

	// ResetDatabase — удалить базу перед подключением.
	ResetDatabase bool
}

// Pipeline выполняет ежедневное обновление.
type Pipeline struct {
	cfg    Config
	logger *slog.Logger

	// running — занят ли pipeline (runs строго последовательны).
	running sync.Mutex
}

// New создаёт Pipeline.
func New(cfg Config) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		cfg:    cfg,
		logger: logger,
	}
}

// Run выполняет pipeline для dates с параметрами по умолчанию.
func (p *Pipeline) Run(ctx context.Context, dates domain.Dates) (*domain.Run, error) {
	return p.RunWith(ctx, dates, RunOptions{})
}

// TryRunWith выполняет pipeline, если он не занят.
// Иначе сразу возвращает ErrRunInProgress.
func (p *Pipeline) TryRunWith(ctx context.Context, dates domain.Dates, opts RunOptions) (*domain.Run, error) {
	if !p.running.TryLock() {
		return nil, ErrRunInProgress
	}
	defer p.running.Unlock()
	return p.run(ctx, dates, opts)
}

// RunWith выполняет pipeline. Если идёт другой run, ждёт его завершения.
//
// Возвращает запись run в любом случае; ошибка не nil,
// только если run завершился FAILED.
func (p *Pipeline) RunWith(ctx context.Context, dates domain.Dates, opts RunOptions) (*domain.Run, error) {
	p.running.Lock()
	defer p.running.Unlock()
	return p.run(ctx, dates, opts)
}

func (p *Pipeline) run(ctx context.Context, dates domain.Dates, opts RunOptions) (*domain.Run, error) {
	if opts.Trigger == "" {
		opts.Trigger = TriggerCLI
	}

	engine := domain.EngineName(p.cfg.EnginePrefix, dates.Today, p.cfg.EngineSize)
	previous := domain.EngineName(p.cfg.EnginePrefix, dates.Yesterday, p.cfg.EngineSize)
	db := p.cfg.Database

	state := NewRunState(domain.NewRun(dates.TodayString(), opts.Trigger, engine, db))
	logger := telemetry.WithRunID(p.logger, state.Run.ID.String()).With("day", state.Run.Day)
	ctx = telemetry.WithLogger(ctx, logger)

	logger.Info("run started", "trigger", opts.Trigger, "engine", engine, "database", db)
	p.record(ctx, state, true)

	steps := []struct {
		name string
		do   func(ctx context.Context) (string, error)
	}{
		// 1. Engine на сегодня (создание занимает минуты, поэтому первым)
		{StepEnsureEngine, func(ctx context.Context) (string, error) {
			return engine, p.cfg.Engines.EnsureCreated(ctx, engine, p.cfg.EngineSize)
		}},
		// 2. Вчерашний engine больше не нужен
		{StepDeletePreviousEngine, func(ctx context.Context) (string, error) {
			return previous, p.cfg.Engines.EnsureDeleted(ctx, previous)
		}},
		// 3. Выгрузка GitHub, пока engine поднимается
		{StepFetchData, func(ctx context.Context) (string, error) {
			summary, err := p.cfg.Fetcher.FetchAll(ctx, p.cfg.Owner, p.cfg.Repo)
			return fmt.Sprintf("%d issues", summary[domain.BatchIssues]), err
		}},
		// 4. Ждём engine
		{StepAwaitEngine, func(ctx context.Context) (string, error) {
			return "provisioned", p.cfg.Engines.Await(ctx, engine)
		}},
		// 5. Сброс базы по запросу
		{StepResetDatabase, func(ctx context.Context) (string, error) {
			return "deleted", p.cfg.Databases.EnsureDeleted(ctx, db)
		}},
		// 6. База
		{StepEnsureDatabase, func(ctx context.Context) (string, error) {
			return db, p.cfg.Databases.EnsureConnected(ctx, db, engine)
		}},
		// 7. Полная замена данных репозитория
		{StepLoadData, func(ctx context.Context) (string, error) {
			return p.cfg.Repo, p.cfg.Loader.Load(ctx, db, engine)
		}},
		// 8. Проверочный запрос
		{StepProbeData, func(ctx context.Context) (string, error) {
			return p.probe(ctx, state, db, engine)
		}},
		// 9. Модель
		{StepInstallSchema, func(ctx context.Context) (string, error) {
			installed, err := p.cfg.Installer.EnsureInstalled(ctx, db, engine)
			if len(installed) == 0 {
				return "already installed", err
			}
			return fmt.Sprintf("installed %v", installed), err
		}},
		// 10. Отчёт
		{StepGenerateReport, func(ctx context.Context) (string, error) {
			path, err := p.cfg.Reporter.Generate(ctx, db, engine, dates.Today)
			state.Run.ReportPath = path
			return path, err
		}},
	}

	for _, step := range steps {
		if step.name == StepResetDatabase && !opts.ResetDatabase {
			state.Skip(step.name, "reset not requested")
			p.record(ctx, state, false)
			continue
		}

		started := time.Now()
		msg, err := step.do(ctx)
		switch {
		case err == nil:
			state.Succeed(step.name, started, msg)
			logger.Info("step completed", "step", step.name, "duration", time.Since(started))
		case IsFatal(step.name):
			state.Fail(step.name, started, err)
			logger.Error("step failed, stopping run", "step", step.name, "error", err)
		default:
			state.Warn(step.name, started, err)
			logger.Warn("step failed, continuing", "step", step.name, "error", err)
		}

		p.record(ctx, state, false)
		if state.Failed() {
			break
		}
	}

	err := state.Finish()
	p.record(ctx, state, false)
	p.notify(ctx, state.Run)

	logger.Info("run finished",
		"status", state.Run.Status,
		"duration", state.Run.Duration(),
		"report", state.Run.ReportPath,
		"warnings", state.WarningCount(),
	)
	return state.Run, err
}

// probe проверяет, что данные загружены. Несовпадение значения — предупреждение.
func (p *Pipeline) probe(ctx context.Context, state *RunState, db, engine string) (string, error) {
	result, err := p.cfg.Loader.Probe(ctx, db, engine)
	if err != nil {
		return "", err
	}
	if !result.Matches() {
		state.Note(StepProbeData, fmt.Errorf("%w: expected %q, got %v", ErrProbeMismatch, result.Expected, result.Got))
		telemetry.FromContext(ctx).Warn("probe mismatch", "expected", result.Expected, "got", result.Got)
		return fmt.Sprintf("mismatch: %v", result.Got), nil
	}
	return result.Expected, nil
}

// record сохраняет run в ledger. Ошибки ledger не влияют на run.
func (p *Pipeline) record(ctx context.Context, state *RunState, create bool) {
	if p.cfg.Recorder == nil {
		return
	}

	var err error
	if create {
		err = p.cfg.Recorder.Create(ctx, state.Run)
	} else {
		err = p.cfg.Recorder.Update(ctx, state.Run)
	}
	if err != nil {
		telemetry.FromContext(ctx).Warn("failed to record run", "error", err)
	}
}

// notify публикует run.completed. Ошибка публикации — предупреждение.
func (p *Pipeline) notify(ctx context.Context, run *domain.Run) {
	if p.cfg.Notifier == nil {
		return
	}
	if err := p.cfg.Notifier.PublishRunCompleted(ctx, run); err != nil {
		telemetry.FromContext(ctx).Warn("failed to publish run.completed", "error", err)
	}
}
