package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/ghreport/internal/domain"
	"github.com/shaiso/ghreport/internal/mq"
	"github.com/shaiso/ghreport/internal/repo"
)

// RunStore — чтение ledger (repo.RunRepo).
type RunStore interface {
	List(ctx context.Context, filter repo.RunFilter) ([]domain.Run, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Run, error)
}

// ScheduleView — состояние расписания (scheduler.Scheduler).
type ScheduleView interface {
	NextDueAt() *time.Time
}

// Requester публикует запросы запуска (mq.Publisher).
type Requester interface {
	PublishRunRequested(ctx context.Context, payload mq.RunRequestedPayload) error
}

// Handler — обработчик API с зависимостями.
type Handler struct {
	runs      RunStore
	schedule  ScheduleView
	requester Requester
	reset     bool
	cronExpr  string
	timezone  string
	logger    *slog.Logger
}

// Config — конфигурация Handler. Runs и Requester опциональны.
type Config struct {
	Runs      RunStore
	Schedule  ScheduleView
	Requester Requester

	// AllowReset разрешает reset_database в POST /api/v1/runs (default: false).
	AllowReset bool

	CronExpr string
	Timezone string
	Logger   *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		runs:      cfg.Runs,
		schedule:  cfg.Schedule,
		requester: cfg.Requester,
		reset:     cfg.AllowReset,
		cronExpr:  cfg.CronExpr,
		timezone:  cfg.Timezone,
		logger:    logger.With("component", "api"),
	}
}
