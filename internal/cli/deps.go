package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/ghreport/internal/config"
	"github.com/shaiso/ghreport/internal/github"
	"github.com/shaiso/ghreport/internal/lifecycle"
	"github.com/shaiso/ghreport/internal/loader"
	"github.com/shaiso/ghreport/internal/mq"
	"github.com/shaiso/ghreport/internal/orchestrator"
	"github.com/shaiso/ghreport/internal/rai"
	"github.com/shaiso/ghreport/internal/repo"
	"github.com/shaiso/ghreport/internal/report"
	"github.com/shaiso/ghreport/internal/schema"
)

// deps — собранные зависимости одной команды.
//
// Ledger (Postgres) и брокер (RabbitMQ) опциональны: если адрес не задан
// или сервис недоступен, поле остаётся nil.
type deps struct {
	settings *config.Settings
	logger   *slog.Logger

	pipeline *orchestrator.Pipeline

	pool      *pgxpool.Pool
	runs      *repo.RunRepo
	conn      *mq.Connection
	publisher *mq.Publisher
}

// Close освобождает соединения.
func (d *deps) Close() {
	if d.conn != nil {
		if err := d.conn.Close(); err != nil {
			d.logger.Warn("failed to close amqp connection", "error", err)
		}
	}
	if d.pool != nil {
		d.pool.Close()
	}
}

// newFetcher создаёт выгрузку GitHub по настройкам.
func newFetcher(s *config.Settings, logger *slog.Logger) (*github.Fetcher, error) {
	client, err := github.NewClient(s.GitHubToken, s.GitHubURL)
	if err != nil {
		return nil, err
	}
	return github.New(github.Config{
		Client:  client,
		DataDir: s.DataDir,
		Logger:  logger,
	}), nil
}

// connectLedger подключает Postgres, если задан DB_URL.
func (d *deps) connectLedger(ctx context.Context) error {
	if d.settings.DBURL == "" {
		return nil
	}

	pool, err := repo.NewPool(ctx, d.settings.DBURL)
	if err != nil {
		return fmt.Errorf("connect ledger: %w", err)
	}
	if err := repo.Migrate(ctx, pool); err != nil {
		pool.Close()
		return fmt.Errorf("migrate ledger: %w", err)
	}

	d.pool = pool
	d.runs = repo.NewRunRepo(pool)
	d.logger.Info("run ledger connected")
	return nil
}

// connectBroker подключает RabbitMQ, если задан RABBITMQ_URL.
func (d *deps) connectBroker(ctx context.Context) error {
	if d.settings.RabbitMQURL == "" {
		return nil
	}

	conn, err := mq.Dial(d.settings.RabbitMQURL, d.logger)
	if err != nil {
		return err
	}
	if err := mq.SetupTopology(ctx, conn); err != nil {
		conn.Close()
		return fmt.Errorf("setup topology: %w", err)
	}

	d.conn = conn
	d.publisher = mq.NewPublisher(conn, d.logger)
	return nil
}

// buildDeps собирает pipeline и опциональные ledger и брокер.
//
// strict=false: недоступные ledger и брокер — предупреждение (update).
// strict=true: ошибка (daemon без ledger не держит leader lock).
func buildDeps(ctx context.Context, s *config.Settings, logger *slog.Logger, strict bool) (*deps, error) {
	d := &deps{settings: s, logger: logger}

	for _, connect := range []func(context.Context) error{d.connectLedger, d.connectBroker} {
		if err := connect(ctx); err != nil {
			if strict {
				d.Close()
				return nil, err
			}
			logger.Warn("optional service unavailable, continuing without it", "error", err)
		}
	}

	pipeline, err := newPipeline(ctx, s, logger, d)
	if err != nil {
		d.Close()
		return nil, err
	}
	d.pipeline = pipeline
	return d, nil
}

func newPipeline(ctx context.Context, s *config.Settings, logger *slog.Logger, d *deps) (*orchestrator.Pipeline, error) {
	client, err := rai.NewClient(ctx, s.RAI)
	if err != nil {
		return nil, err
	}

	fetcher, err := newFetcher(s, logger)
	if err != nil {
		return nil, err
	}

	ld, err := loader.New(loader.Config{
		Client:  client,
		DataDir: s.DataDir,
		Repo:    s.Repo,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}

	var files fs.FS
	if s.SchemaDir != "" {
		files = os.DirFS(s.SchemaDir)
	}

	cfg := orchestrator.Config{
		Engines: lifecycle.NewEngineManager(lifecycle.EngineConfig{
			Client:       client,
			PollAttempts: s.PollAttempts,
			PollInterval: s.PollInterval,
			Logger:       logger,
		}),
		Databases: lifecycle.NewDatabaseManager(client, logger),
		Fetcher:   fetcher,
		Loader:    ld,
		Installer: schema.New(schema.Config{Client: client, Files: files, Logger: logger}),
		Reporter:  report.New(client, s.ResultsDir, logger),

		EnginePrefix: s.EnginePrefix,
		EngineSize:   s.EngineSize,
		Database:     s.Database,
		Owner:        s.Owner,
		Repo:         s.Repo,
		Logger:       logger,
	}
	if d.runs != nil {
		cfg.Recorder = d.runs
	}
	if d.publisher != nil {
		cfg.Notifier = d.publisher
	}

	return orchestrator.New(cfg), nil
}

// errLedgerRequired — команде нужен DB_URL.
var errLedgerRequired = errors.New("run ledger is not configured (set DB_URL)")

// errBrokerRequired — команде нужен RABBITMQ_URL.
var errBrokerRequired = errors.New("message broker is not configured (set RABBITMQ_URL)")
