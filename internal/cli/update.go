package cli

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shaiso/ghreport/internal/config"
	"github.com/shaiso/ghreport/internal/domain"
	"github.com/shaiso/ghreport/internal/orchestrator"
	"github.com/shaiso/ghreport/internal/telemetry"
)

const pushJob = "ghreport_update"

// NewUpdateCmd создаёт команду полного обновления за сегодня.
func NewUpdateCmd(v *viper.Viper, outputFn func() *Output) *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Refresh today's engine, reload GitHub data and render the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := slog.Default()

			s, err := config.Load(v, true)
			if err != nil {
				return err
			}

			d, err := buildDeps(ctx, s, logger, false)
			if err != nil {
				return err
			}
			defer d.Close()

			dates := domain.NewDates(time.Now(), s.Location)
			run, runErr := d.pipeline.RunWith(ctx, dates, orchestrator.RunOptions{
				Trigger:       orchestrator.TriggerCLI,
				ResetDatabase: reset,
			})
			outputFn().Run(run)

			pushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := telemetry.PushMetrics(pushCtx, s.PushgatewayURL, pushJob); err != nil {
				logger.Warn("failed to push metrics", "error", err)
			}

			return runErr
		},
	}

	cmd.Flags().BoolVar(&reset, "delete", false, "Delete the database before loading (full rebuild)")

	return cmd
}
