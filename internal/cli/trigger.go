package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shaiso/ghreport/internal/config"
	"github.com/shaiso/ghreport/internal/mq"
)

// NewTriggerCmd создаёт команду запроса внепланового run у daemon.
func NewTriggerCmd(v *viper.Viper, outputFn func() *Output) *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "trigger",
		Short: "Ask the running scheduler daemon to start a run now",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			s, err := config.Load(v, false)
			if err != nil {
				return err
			}
			if s.RabbitMQURL == "" {
				return errBrokerRequired
			}

			conn, err := mq.Dial(s.RabbitMQURL, slog.Default())
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := mq.SetupTopology(ctx, conn); err != nil {
				return err
			}

			requestedBy, _ := os.Hostname()
			if user := os.Getenv("USER"); user != "" {
				requestedBy = user + "@" + requestedBy
			}

			err = mq.NewPublisher(conn, slog.Default()).PublishRunRequested(ctx, mq.RunRequestedPayload{
				ResetDatabase: reset,
				RequestedBy:   requestedBy,
			})
			if err != nil {
				return fmt.Errorf("publish run request: %w", err)
			}

			outputFn().Success("run requested")
			return nil
		},
	}

	cmd.Flags().BoolVar(&reset, "delete", false, "Delete the database before loading")

	return cmd
}
