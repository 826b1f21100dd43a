// ghreport — ежедневное обновление отчёта по GitHub issues.
//
// Использование:
//
//	ghreport [--profile NAME] [--config PATH] [--json] <command> [flags]
//
// Команды:
//
//	update    Полный run за сегодня (--delete пересоздаёт базу)
//	pull      Только выгрузка данных GitHub
//	schedule  Daemon: cron, ручные запросы, /metrics
//	trigger   Запросить run у daemon
//	runs      История runs
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shaiso/ghreport/internal/cli"
	"github.com/shaiso/ghreport/internal/config"
	"github.com/shaiso/ghreport/internal/telemetry"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	v := config.New()
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "ghreport",
		Short:         "ghreport — daily GitHub issues refresh and report",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			telemetry.SetupLogger()
		},
	}

	rootCmd.PersistentFlags().String("profile", v.GetString(config.KeyProfile), "Profile section in the RAI config file")
	rootCmd.PersistentFlags().String("config", "", "Path to the RAI config file (default ~/.rai/config)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	_ = v.BindPFlag(config.KeyProfile, rootCmd.PersistentFlags().Lookup("profile"))
	_ = v.BindPFlag(config.KeyRAIConfig, rootCmd.PersistentFlags().Lookup("config"))

	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewUpdateCmd(v, outputFn),
		cli.NewPullCmd(v, outputFn),
		cli.NewScheduleCmd(v, outputFn),
		cli.NewTriggerCmd(v, outputFn),
		cli.NewRunsCmd(v, outputFn),
	)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
