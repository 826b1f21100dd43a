package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaiso/ghreport/internal/domain"
	"github.com/shaiso/ghreport/internal/rai"
	"github.com/shaiso/ghreport/internal/telemetry"
)

// Default configuration values.
const (
	defaultPollAttempts = 5
	defaultPollInterval = 180 * time.Second
)

// EngineAPI — операции сервиса над engines (реализует *rai.Client).
type EngineAPI interface {
	GetEngine(ctx context.Context, name string) (*domain.Engine, error)
	CreateEngine(ctx context.Context, name string, size domain.EngineSize) (*domain.Engine, error)
	DeleteEngine(ctx context.Context, name string) error
}

// EngineManager создаёт, удаляет и ожидает engines.
type EngineManager struct {
	client       EngineAPI
	pollAttempts int
	pollInterval time.Duration
	logger       *slog.Logger
}

// EngineConfig — конфигурация EngineManager.
type EngineConfig struct {
	Client EngineAPI

	PollAttempts int           // максимум проверок состояния (default: 5)
	PollInterval time.Duration // пауза между проверками (default: 180s)

	Logger *slog.Logger
}

// NewEngineManager создаёт EngineManager.
func NewEngineManager(cfg EngineConfig) *EngineManager {
	attempts := cfg.PollAttempts
	if attempts <= 0 {
		attempts = defaultPollAttempts
	}

	interval := cfg.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &EngineManager{
		client:       cfg.Client,
		pollAttempts: attempts,
		pollInterval: interval,
		logger:       logger,
	}
}

// EnsureCreated гарантирует существование engine.
//
// Существующий engine не изменяется (размер не сверяется).
// Конфликт при создании (engine создан параллельно) считается успехом.
func (m *EngineManager) EnsureCreated(ctx context.Context, name string, size domain.EngineSize) error {
	logger := telemetry.WithEngine(m.logger, name)

	// 1. Проверяем, есть ли engine
	eng, err := m.client.GetEngine(ctx, name)
	if err == nil {
		logger.Info("engine already exists", "state", eng.State, "size", eng.Size)
		return nil
	}
	if !rai.IsNotFound(err) {
		return fmt.Errorf("look up engine: %w", err)
	}

	// 2. Создаём
	logger.Info("creating engine", "size", size)
	eng, err = m.client.CreateEngine(ctx, name, size)
	if err != nil {
		if rai.IsConflict(err) {
			logger.Info("engine is already being created", "error", err)
			return nil
		}
		return fmt.Errorf("create engine: %w", err)
	}

	logger.Info("engine requested", "state", eng.State)
	return nil
}

// EnsureDeleted удаляет engine, если он существует и ещё не удалён.
//
// Отсутствие engine (в том числе 404 на удаление) не ошибка.
func (m *EngineManager) EnsureDeleted(ctx context.Context, name string) error {
	logger := telemetry.WithEngine(m.logger, name)

	eng, err := m.client.GetEngine(ctx, name)
	if err != nil {
		if rai.IsNotFound(err) {
			logger.Debug("engine not found, nothing to delete")
			return nil
		}
		return fmt.Errorf("look up engine: %w", err)
	}

	switch eng.State {
	case domain.EngineStateDeleted:
		logger.Info("engine already deleted")
		return nil
	case domain.EngineStateDeprovisioning:
		logger.Info("engine is already being deleted")
		return nil
	}

	logger.Info("deleting engine", "state", eng.State)
	if err := m.client.DeleteEngine(ctx, name); err != nil {
		if rai.IsNotFound(err) {
			logger.Info("engine disappeared before delete")
			return nil
		}
		return fmt.Errorf("delete engine: %w", err)
	}
	return nil
}

// Await ждёт, пока engine перейдёт в PROVISIONED.
//
// Делает не больше pollAttempts проверок, пауза только между проверками,
// поэтому суммарное ожидание не превышает (pollAttempts-1) * pollInterval.
// Ошибки чтения состояния не прерывают ожидание, они расходуют попытку.
func (m *EngineManager) Await(ctx context.Context, name string) error {
	logger := telemetry.WithEngine(m.logger, name)

	for attempt := 1; attempt <= m.pollAttempts; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, m.pollInterval); err != nil {
				return err
			}
		}

		eng, err := m.client.GetEngine(ctx, name)
		if err != nil {
			telemetry.ObserveProvisionPoll("error")
			logger.Warn("failed to read engine state",
				"attempt", attempt,
				"max_attempts", m.pollAttempts,
				"error", err,
			)
			continue
		}

		telemetry.ObserveProvisionPoll(string(eng.State))

		switch eng.State {
		case domain.EngineStateProvisioned:
			logger.Info("engine provisioned", "attempt", attempt)
			return nil
		case domain.EngineStateProvisionFailed:
			return fmt.Errorf("engine %s: %w", name, ErrProvisionFailed)
		}

		logger.Info("waiting for engine",
			"state", eng.State,
			"attempt", attempt,
			"max_attempts", m.pollAttempts,
		)
	}

	return fmt.Errorf("engine %s after %d attempts: %w", name, m.pollAttempts, ErrProvisionTimeout)
}

// AwaitProvisioned — Await в виде флага: true, если engine готов.
func (m *EngineManager) AwaitProvisioned(ctx context.Context, name string) bool {
	if err := m.Await(ctx, name); err != nil {
		telemetry.WithEngine(m.logger, name).Error("engine is not ready", "error", err)
		return false
	}
	return true
}

// sleep ждёт d или отмены контекста.
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
