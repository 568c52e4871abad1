package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"ChannelPublisher/internal/app"
	"ChannelPublisher/internal/config"
	"ChannelPublisher/internal/logging"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "channelpublisher",
	Short: "Autonomous publisher for a crypto news channel",
	Long: `channelpublisher keeps a Telegram channel fed with translated crypto news,
trend alerts and four daily editorial columns.

Run "channelpublisher run" for the long-running service. The other
subcommands execute one operator command against the same database and exit.`,
	SilenceUsage: true,
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (default $CHANNEL_PUBLISHER_CONFIG)")

	rootCmd.AddCommand(
		newRunCmd(),
		newOneShotCmd("stats", "Print publishing statistics", func(ctx context.Context, a *app.Application, _ []string) string {
			return a.Commands().Stats(ctx)
		}),
		newOneShotCmd("news", "Ingest the first fresh news entry now", func(ctx context.Context, a *app.Application, _ []string) string {
			return a.Commands().News(ctx)
		}),
		newOneShotCmd("trends", "Run trend detection now", func(ctx context.Context, a *app.Application, _ []string) string {
			return a.Commands().Trends(ctx)
		}),
		newGenerateCmd(),
	)
}

func loadConfig() config.Config {
	_ = godotenv.Load()
	if cfgFile != "" {
		return config.LoadFile(cfgFile)
	}
	return config.Load()
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the publishing loop and the bot command poller",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := loadConfig()
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)
			application, err := app.New(cfg, logger)
			if err != nil {
				return err
			}
			defer application.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := application.Run(ctx); err != nil {
				logger.Error("application stopped", "error", err)
				return err
			}
			return nil
		},
	}
}

type oneShot func(ctx context.Context, a *app.Application, args []string) string

func newOneShotCmd(use, short string, fn oneShot) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOneShot(cmd, args, fn)
		},
	}
}

func newGenerateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate [kind]",
		Short: "Queue an editorial column (defaults to the current schedule slot)",
		Long: `Queue an editorial column for immediate delivery.

Kinds: morning_briefing, market_stats, hot_topic, daily_summary.
Without a kind the column scheduled for the current minute is generated.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOneShot(cmd, args, func(ctx context.Context, a *app.Application, args []string) string {
				kind := ""
				if len(args) > 0 {
					kind = args[0]
				}
				return a.Commands().Generate(ctx, kind)
			})
		},
	}
}

func runOneShot(cmd *cobra.Command, args []string, fn oneShot) error {
	cfg := loadConfig()
	logger := logging.NewWithWriter(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)

	application, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	fmt.Fprintln(cmd.OutOrStdout(), fn(cmd.Context(), application, args))
	return nil
}
