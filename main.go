package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"uapush/service/config"
	"uapush/service/delivery"
	"uapush/service/payload"
	"uapush/service/sender"
	"uapush/service/server"
	"uapush/service/util"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "unknown"
)

func init() {
	_ = godotenv.Load() //nolint:errcheck // .env is optional
}

var rootCmd = &cobra.Command{
	Use:           "uapush",
	Short:         "Send Urban Airship push stimuli for UI tests",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var extraPairs []string

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send one push and print its alert id",
}

var fakeCmd = &cobra.Command{
	Use:   "fake",
	Short: "Run a local fake of the Airship push API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFake(cmd.Context())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("uapush %s (%s)\n", version, commit)
	},
}

func targetCommand(kind payload.TargetKind, short string) *cobra.Command {
	use := kind.String() + " <value>"
	args := cobra.ExactArgs(1)
	if kind == payload.Broadcast {
		use = kind.String()
		args = cobra.NoArgs
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			value := ""
			if len(args) > 0 {
				value = args[0]
			}
			return runSend(cmd.Context(), payload.Target{Kind: kind, Value: value})
		},
	}
}

func init() {
	sendCmd.PersistentFlags().StringArrayVarP(&extraPairs, "extra", "e", nil, "extra key=value carried with the push (repeatable)")
	sendCmd.AddCommand(
		targetCommand(payload.Broadcast, "Send to every device"),
		targetCommand(payload.Tag, "Send to devices with a tag"),
		targetCommand(payload.Alias, "Send to devices with an alias"),
		targetCommand(payload.DeviceID, "Send to one device id"),
		targetCommand(payload.User, "Send to a rich-push user"),
	)

	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(fakeCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger := util.NewLogger(false)
		logger.Error("Fatal error", "error", err)
		os.Exit(1)
	}
}

func newSender(cfg *config.Config, logger *slog.Logger, opts ...sender.Option) (*sender.Sender, error) {
	endpoints := sender.DefaultEndpoints(cfg.Variant, cfg.BaseURL, cfg.AppKey, cfg.MasterSecret)
	if cfg.BroadcastURL != "" {
		endpoints.BroadcastURL = cfg.BroadcastURL
	}
	if cfg.UnicastURL != "" {
		endpoints.UnicastURL = cfg.UnicastURL
	}

	base := []sender.Option{
		sender.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		sender.WithRetryPolicy(delivery.RetryPolicy{
			MaxAttempts: cfg.RetryAttempts,
			Backoff:     cfg.RetryDelay,
		}),
		sender.WithLogger(logger),
	}

	return sender.New(cfg.Variant, endpoints, append(base, opts...)...)
}

func runSend(ctx context.Context, target payload.Target) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	extras, err := util.ParseKeyValues(extraPairs)
	if err != nil {
		return err
	}

	logger := util.NewLogger(cfg.VerboseLogging)

	s, err := newSender(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create sender: %w", err)
	}

	logger.Debug("Sending push", "variant", cfg.Variant, "target", target)

	alertID, err := s.Send(ctx, target, extras)
	if err != nil {
		return err
	}

	fmt.Println(alertID)
	return nil
}

func runFake(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := util.NewLogger(cfg.VerboseLogging)
	logger.Info("Starting fake Airship API", "version", version)

	srv := server.New(cfg, logger)
	return srv.Start(ctx)
}
