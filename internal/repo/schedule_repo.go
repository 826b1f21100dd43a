package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/ghreport/internal/domain"
)

// ScheduleRepo хранит состояние расписания daemon между перезапусками.
type ScheduleRepo struct {
	pool *pgxpool.Pool
}

// NewScheduleRepo создаёт новый ScheduleRepo.
func NewScheduleRepo(pool *pgxpool.Pool) *ScheduleRepo {
	return &ScheduleRepo{pool: pool}
}

// Get возвращает состояние расписания по имени.
func (r *ScheduleRepo) Get(ctx context.Context, name string) (*domain.Schedule, error) {
	query := `
		SELECT cron_expr, timezone, next_due_at, last_run_at, last_run_id
		FROM schedule_state
		WHERE name = $1
	`
	var s domain.Schedule
	err := r.pool.QueryRow(ctx, query, name).Scan(
		&s.CronExpr,
		&s.Timezone,
		&s.NextDueAt,
		&s.LastRunAt,
		&s.LastRunID,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	return &s, nil
}

// Save создаёт или обновляет состояние расписания.
func (r *ScheduleRepo) Save(ctx context.Context, name string, s *domain.Schedule) error {
	query := `
		INSERT INTO schedule_state (name, cron_expr, timezone, next_due_at, last_run_at, last_run_id, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (name) DO UPDATE
		SET cron_expr = EXCLUDED.cron_expr,
		    timezone = EXCLUDED.timezone,
		    next_due_at = EXCLUDED.next_due_at,
		    last_run_at = EXCLUDED.last_run_at,
		    last_run_id = EXCLUDED.last_run_id,
		    updated_at = NOW()
	`
	_, err := r.pool.Exec(ctx, query,
		name,
		s.CronExpr,
		s.Timezone,
		s.NextDueAt,
		s.LastRunAt,
		s.LastRunID,
	)
	if err != nil {
		return fmt.Errorf("save schedule: %w", err)
	}
	return nil
}
