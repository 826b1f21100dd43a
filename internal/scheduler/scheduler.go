package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/shaiso/ghreport/internal/domain"
	"github.com/shaiso/ghreport/internal/mq"
	"github.com/shaiso/ghreport/internal/orchestrator"
	"github.com/shaiso/ghreport/internal/repo"
)

// Default configuration values.
const (
	defaultName         = "daily"
	defaultTickInterval = 30 * time.Second
	defaultRetryDelay   = 30 * time.Second
	lockPrefix          = "ghreport-scheduler:"
)

// Runner выполняет pipeline (orchestrator.Pipeline).
type Runner interface {
	RunWith(ctx context.Context, dates domain.Dates, opts orchestrator.RunOptions) (*domain.Run, error)
}

// Store хранит состояние расписания (repo.ScheduleRepo).
// Get возвращает repo.ErrNotFound, если состояния ещё нет.
type Store interface {
	Get(ctx context.Context, name string) (*domain.Schedule, error)
	Save(ctx context.Context, name string, s *domain.Schedule) error
}

// Locker — межпроцессная блокировка (repo.Locker).
// TryLock возвращает repo.ErrLockHeld, если блокировка занята.
type Locker interface {
	TryLock(ctx context.Context, name string) (unlock func(), err error)
}

// Config — конфигурация Scheduler.
type Config struct {
	Runner Runner
	Store  Store  // опционально: без него расписание живёт только в памяти
	Locker Locker // опционально: без него daemon считается единственным

	Name         string         // имя расписания (default: "daily")
	CronExpr     string         // cron-выражение
	Location     *time.Location // часовой пояс расписания и "сегодня" (default: UTC)
	TickInterval time.Duration  // частота проверки (default: 30s)

	// RetryDelay — пауза перед возвратом запроса в очередь, когда
	// lock держит другой процесс (default: 30s).
	RetryDelay time.Duration

	Logger *slog.Logger
}

// Scheduler — планировщик ежедневного run.
type Scheduler struct {
	runner Runner
	store  Store
	locker Locker

	name     string
	cron     cron.Schedule
	loc      *time.Location
	interval time.Duration
	retry    time.Duration

	// running — семафор runs этого процесса. Захватывается до
	// межпроцессного lock, поэтому ErrLockHeld означает другой daemon.
	running chan struct{}

	// mu защищает state: NextDueAt читается из HTTP API
	mu    sync.RWMutex
	state *domain.Schedule

	logger *slog.Logger
}

// New создаёт Scheduler.
func New(cfg Config) (*Scheduler, error) {
	if cfg.Runner == nil {
		return nil, ErrNoRunner
	}

	sched, err := ParseCron(cfg.CronExpr)
	if err != nil {
		return nil, err
	}

	name := cfg.Name
	if name == "" {
		name = defaultName
	}

	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}

	interval := cfg.TickInterval
	if interval <= 0 {
		interval = defaultTickInterval
	}

	retry := cfg.RetryDelay
	if retry <= 0 {
		retry = defaultRetryDelay
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		runner:   cfg.Runner,
		store:    cfg.Store,
		locker:   cfg.Locker,
		name:     name,
		cron:     sched,
		loc:      loc,
		interval: interval,
		retry:    retry,
		running:  make(chan struct{}, 1),
		logger:   logger.With("schedule", name),
		state: &domain.Schedule{
			CronExpr: cfg.CronExpr,
			Timezone: loc.String(),
		},
	}, nil
}

// Start проверяет расписание каждые TickInterval до отмены ctx.
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.restore(ctx); err != nil {
		return err
	}
	s.logger.Info("scheduler started", "cron", s.CronExpr(), "next_due_at", s.NextDueAt())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.Tick(ctx, time.Now()); err != nil {
			s.logger.Error("scheduler tick failed", "error", err)
		}

		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// restore загружает сохранённое состояние.
// Сохранённый NextDueAt в прошлом означает пропущенный запуск:
// он выполнится на первом тике.
func (s *Scheduler) restore(ctx context.Context) error {
	if s.store == nil {
		return nil
	}

	saved, err := s.store.Get(ctx, s.name)
	if errors.Is(err, repo.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load schedule state: %w", err)
	}

	// Выражение или часовой пояс поменялись — старый NextDueAt недействителен
	if saved.CronExpr != s.state.CronExpr || saved.Timezone != s.state.Timezone {
		s.logger.Info("schedule changed, recalculating", "old_cron", saved.CronExpr, "old_timezone", saved.Timezone)
		saved.NextDueAt = nil
	}
	saved.CronExpr = s.state.CronExpr
	saved.Timezone = s.state.Timezone

	s.mu.Lock()
	s.state = saved
	s.mu.Unlock()
	return nil
}

// NextDueAt возвращает время следующего запуска (nil до первого тика).
func (s *Scheduler) NextDueAt() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.NextDueAt == nil {
		return nil
	}
	next := *s.state.NextDueAt
	return &next
}

// CronExpr возвращает cron-выражение расписания.
func (s *Scheduler) CronExpr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.CronExpr
}

// Timezone возвращает часовой пояс расписания.
func (s *Scheduler) Timezone() string {
	return s.loc.String()
}

// Tick запускает pipeline, если подошло время.
//
// 1. Первый тик только вычисляет NextDueAt
// 2. Если now < NextDueAt — ничего не делает
// 3. Иначе выполняет run за "сегодня" (в часовом поясе расписания);
// если идёт ручной run этого процесса, ждёт его завершения
// 4. Сдвигает NextDueAt и сохраняет состояние
//
// Возвращает true, если run выполнялся.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) (bool, error) {
	s.mu.Lock()
	if s.state.NextDueAt == nil {
		next := NextDue(s.cron, now, s.loc)
		s.state.NextDueAt = &next
		s.mu.Unlock()
		s.logger.Info("next run scheduled", "next_due_at", next)
		return false, s.save(ctx)
	}
	due := s.state.IsDue(now)
	dueAt := *s.state.NextDueAt
	s.mu.Unlock()

	if !due {
		return false, nil
	}

	next := NextDue(s.cron, now, s.loc)

	run, err := s.execute(ctx, now, orchestrator.RunOptions{Trigger: orchestrator.TriggerSchedule})
	switch {
	case errors.Is(err, repo.ErrLockHeld):
		s.logger.Info("another daemon holds the lock, skipping", "due_at", dueAt)
		s.mu.Lock()
		s.state.NextDueAt = &next
		s.mu.Unlock()
	case run != nil:
		s.mu.Lock()
		s.state.RecordRun(run.ID, now, next)
		s.mu.Unlock()
	default:
		// Run не начался (например, Postgres недоступен): повторим на следующем тике
		return false, err
	}

	ran := !errors.Is(err, repo.ErrLockHeld)
	if !ran {
		err = nil
	}
	if saveErr := s.save(ctx); saveErr != nil {
		return ran, errors.Join(err, saveErr)
	}
	return ran, err
}

// Trigger выполняет внеплановый run сейчас. Расписание не сдвигается.
func (s *Scheduler) Trigger(ctx context.Context, opts orchestrator.RunOptions) (*domain.Run, error) {
	if opts.Trigger == "" {
		opts.Trigger = orchestrator.TriggerManual
	}
	return s.execute(ctx, time.Now(), opts)
}

// HandleRunRequested — mq.Handler для очереди runs.requested.
//
// Ошибка run не возвращается consumer: запрос выполнен, итог уже
// записан в ledger и опубликован. Повторяется только запрос,
// run по которому не удалось начать. Run этого же процесса запрос
// дожидается; если lock держит другой daemon, запрос возвращается
// в очередь после паузы RetryDelay.
func (s *Scheduler) HandleRunRequested(ctx context.Context, msg *mq.Message) error {
	if msg.Type != mq.MessageTypeRunRequested {
		return fmt.Errorf("%w: unexpected message type %q", mq.ErrReject, msg.Type)
	}

	payload, err := mq.ParsePayload[mq.RunRequestedPayload](msg)
	if err != nil {
		return err
	}

	s.logger.Info("manual run requested", "requested_by", payload.RequestedBy, "reset_database", payload.ResetDatabase)

	run, err := s.Trigger(ctx, orchestrator.RunOptions{
		Trigger:       orchestrator.TriggerManual,
		ResetDatabase: payload.ResetDatabase,
	})
	if run == nil {
		// Run не начался, запрос вернётся в очередь
		if errors.Is(err, repo.ErrLockHeld) {
			s.logger.Info("another daemon holds the lock, requeueing later", "retry_in", s.retry)
			if sleepErr := sleep(ctx, s.retry); sleepErr != nil {
				return errors.Join(err, sleepErr)
			}
		}
		return err
	}
	if err != nil {
		s.logger.Warn("manual run failed", "run_id", run.ID, "error", err)
	}
	return nil
}

// execute выполняет run под блокировкой (если настроена).
//
// 1. Ждёт завершения run этого процесса
// 2. Берёт межпроцессный lock
func (s *Scheduler) execute(ctx context.Context, now time.Time, opts orchestrator.RunOptions) (*domain.Run, error) {
	select {
	case s.running <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-s.running }()

	if s.locker != nil {
		unlock, err := s.locker.TryLock(ctx, lockPrefix+s.name)
		if err != nil {
			return nil, err
		}
		defer unlock()
	}

	dates := domain.NewDates(now, s.loc)
	return s.runner.RunWith(ctx, dates, opts)
}

func (s *Scheduler) save(ctx context.Context) error {
	if s.store == nil {
		return nil
	}

	s.mu.RLock()
	snapshot := *s.state
	s.mu.RUnlock()

	if err := s.store.Save(ctx, s.name, &snapshot); err != nil {
		return fmt.Errorf("save schedule state: %w", err)
	}
	return nil
}

// sleep ждёт d или отмены ctx.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
