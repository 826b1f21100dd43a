package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/shaiso/ghreport/internal/api"
	"github.com/shaiso/ghreport/internal/config"
	"github.com/shaiso/ghreport/internal/mq"
	"github.com/shaiso/ghreport/internal/repo"
	"github.com/shaiso/ghreport/internal/scheduler"
)

// NewScheduleCmd создаёт команду daemon.
//
// Daemon запускает pipeline по cron, принимает ручные запросы из
// runs.requested и отдаёт HTTP API, /healthz и /metrics.
func NewScheduleCmd(v *viper.Viper, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the scheduler daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := slog.Default().With("component", "scheduler")

			s, err := config.Load(v, true)
			if err != nil {
				return err
			}

			d, err := buildDeps(ctx, s, logger, true)
			if err != nil {
				return err
			}
			defer d.Close()

			cfg := scheduler.Config{
				Runner:   d.pipeline,
				CronExpr: s.ScheduleCron,
				Location: s.Location,
				Logger:   logger,
			}
			if d.pool != nil {
				cfg.Store = repo.NewScheduleRepo(d.pool)
				cfg.Locker = repo.NewLocker(d.pool)
			}

			sched, err := scheduler.New(cfg)
			if err != nil {
				return err
			}

			return serveDaemon(ctx, s, d, sched, logger)
		},
	}

	cmd.Flags().String("cron", v.GetString(config.KeyScheduleCron), "Cron expression for the daily run")
	cmd.Flags().Int("metrics-port", v.GetInt(config.KeyMetricsPort), "Port for the HTTP API, /healthz and /metrics")
	_ = v.BindPFlag(config.KeyScheduleCron, cmd.Flags().Lookup("cron"))
	_ = v.BindPFlag(config.KeyMetricsPort, cmd.Flags().Lookup("metrics-port"))

	return cmd
}

// serveDaemon запускает scheduler, consumer и HTTP сервер до отмены ctx.
func serveDaemon(ctx context.Context, s *config.Settings, d *deps, sched *scheduler.Scheduler, logger *slog.Logger) error {
	apiCfg := api.Config{
		Schedule:   sched,
		AllowReset: s.APIAllowReset,
		CronExpr:   sched.CronExpr(),
		Timezone:   sched.Timezone(),
		Logger:     logger,
	}
	if d.runs != nil {
		apiCfg.Runs = d.runs
	}
	if d.publisher != nil {
		apiCfg.Requester = d.publisher
	}

	mux := http.NewServeMux()
	api.NewHandler(apiCfg).RegisterRoutes(mux)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.MetricsPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return sched.Start(ctx)
	})

	if d.conn != nil {
		consumer := mq.NewConsumer(d.conn, mq.QueueRunsRequested, sched.HandleRunRequested, logger)
		g.Go(func() error {
			return consumer.Run(ctx)
		})
	}

	g.Go(func() error {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		logger.Info("daemon stopped")
		return nil
	}
	return err
}
