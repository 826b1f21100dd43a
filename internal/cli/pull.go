package cli

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shaiso/ghreport/internal/config"
)

// NewPullCmd создаёт команду выгрузки данных GitHub без загрузки в базу.
func NewPullCmd(v *viper.Viper, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Download GitHub issues, labels, milestones, users and repo metadata",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := config.Load(v, false)
			if err != nil {
				return err
			}

			fetcher, err := newFetcher(s, slog.Default())
			if err != nil {
				return err
			}

			summary, err := fetcher.FetchAll(cmd.Context(), s.Owner, s.Repo)
			if err != nil {
				return err
			}

			out := outputFn()
			out.Summary(summary)
			out.Success("data written to " + s.DataDir)
			return nil
		},
	}

	cmd.Flags().String("owner", v.GetString(config.KeyOwner), "Repository owner")
	cmd.Flags().String("repo", v.GetString(config.KeyRepo), "Repository name")
	_ = v.BindPFlag(config.KeyOwner, cmd.Flags().Lookup("owner"))
	_ = v.BindPFlag(config.KeyRepo, cmd.Flags().Lookup("repo"))

	return cmd
}
