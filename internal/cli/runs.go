package cli

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shaiso/ghreport/internal/config"
	"github.com/shaiso/ghreport/internal/domain"
	"github.com/shaiso/ghreport/internal/repo"
)

// NewRunsCmd создаёт команду просмотра истории runs.
func NewRunsCmd(v *viper.Viper, outputFn func() *Output) *cobra.Command {
	var filter repo.RunFilter
	var status string

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded pipeline runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			s, err := config.Load(v, false)
			if err != nil {
				return err
			}
			if s.DBURL == "" {
				return errLedgerRequired
			}

			d := &deps{settings: s, logger: slog.Default()}
			if err := d.connectLedger(ctx); err != nil {
				return err
			}
			defer d.Close()

			filter.Status = domain.RunStatus(status)
			runs, err := d.runs.List(ctx, filter)
			if err != nil {
				return err
			}

			outputFn().Runs(runs)
			return nil
		},
	}

	cmd.Flags().IntVar(&filter.Limit, "limit", 20, "Maximum number of results")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (PENDING, RUNNING, SUCCEEDED, FAILED)")
	cmd.Flags().StringVar(&filter.Day, "day", "", "Filter by day (YYYY-MM-DD)")

	return cmd
}
