package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/ghreport/internal/domain"
)

const runColumns = `id, day, trigger, engine_name, database_name, status, steps,
	report_path, error, warnings, started_at, finished_at, created_at`

// RunRepo — ledger запусков pipeline.
type RunRepo struct {
	pool *pgxpool.Pool
}

// NewRunRepo создаёт новый RunRepo.
func NewRunRepo(pool *pgxpool.Pool) *RunRepo {
	return &RunRepo{pool: pool}
}

// Create сохраняет новый run.
func (r *RunRepo) Create(ctx context.Context, run *domain.Run) error {
	stepsJSON, err := marshalSteps(run.Steps)
	if err != nil {
		return err
	}
	day, err := parseDay(run.Day)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO pipeline_runs (` + runColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err = r.pool.Exec(ctx, query,
		run.ID,
		day,
		run.Trigger,
		run.EngineName,
		run.DatabaseName,
		run.Status,
		stepsJSON,
		nullString(run.ReportPath),
		nullString(run.Error),
		nullString(run.Warnings),
		run.StartedAt,
		run.FinishedAt,
		run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Update сохраняет статус, шаги и итоги run.
func (r *RunRepo) Update(ctx context.Context, run *domain.Run) error {
	stepsJSON, err := marshalSteps(run.Steps)
	if err != nil {
		return err
	}

	query := `
		UPDATE pipeline_runs
		SET status = $2, steps = $3, report_path = $4, error = $5, warnings = $6,
		    started_at = $7, finished_at = $8
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		run.ID,
		run.Status,
		stepsJSON,
		nullString(run.ReportPath),
		nullString(run.Error),
		nullString(run.Warnings),
		run.StartedAt,
		run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID возвращает run по ID.
func (r *RunRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Run, error) {
	query := `SELECT ` + runColumns + ` FROM pipeline_runs WHERE id = $1`
	return scanRun(r.pool.QueryRow(ctx, query, id))
}

// List возвращает runs, новые первыми.
func (r *RunRepo) List(ctx context.Context, filter RunFilter) ([]domain.Run, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	var day *time.Time
	if filter.Day != "" {
		d, err := parseDay(filter.Day)
		if err != nil {
			return nil, err
		}
		day = &d
	}

	query := `
		SELECT ` + runColumns + `
		FROM pipeline_runs
		WHERE ($1::text IS NULL OR status = $1::run_status)
		  AND ($2::date IS NULL OR day = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query,
		nullString(string(filter.Status)),
		day,
		limit,
		filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// --- Helpers ---

// RunFilter — параметры фильтрации runs.
type RunFilter struct {
	Status domain.RunStatus
	Day    string // YYYY-MM-DD
	Limit  int
	Offset int
}

// scanRun сканирует одну строку в Run (pgx.Row и pgx.Rows).
func scanRun(row pgx.Row) (*domain.Run, error) {
	var run domain.Run
	var day time.Time
	var stepsJSON []byte
	var reportPath, runError, warnings *string

	err := row.Scan(
		&run.ID,
		&day,
		&run.Trigger,
		&run.EngineName,
		&run.DatabaseName,
		&run.Status,
		&stepsJSON,
		&reportPath,
		&runError,
		&warnings,
		&run.StartedAt,
		&run.FinishedAt,
		&run.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}

	run.Day = day.Format(domain.DayLayout)
	if len(stepsJSON) > 0 {
		if err := json.Unmarshal(stepsJSON, &run.Steps); err != nil {
			return nil, fmt.Errorf("unmarshal steps: %w", err)
		}
	}
	run.ReportPath = deref(reportPath)
	run.Error = deref(runError)
	run.Warnings = deref(warnings)

	return &run, nil
}

func parseDay(s string) (time.Time, error) {
	day, err := time.Parse(domain.DayLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse day %q: %w", s, err)
	}
	return day, nil
}

func marshalSteps(steps []domain.StepResult) ([]byte, error) {
	if steps == nil {
		steps = []domain.StepResult{}
	}
	data, err := json.Marshal(steps)
	if err != nil {
		return nil, fmt.Errorf("marshal steps: %w", err)
	}
	return data, nil
}

// nullString возвращает nil для пустой строки (для NULL в БД).
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
