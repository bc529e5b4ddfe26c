package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/felo/reply-drafter/internal/config"
	"github.com/felo/reply-drafter/internal/delivery"
	"github.com/felo/reply-drafter/internal/drafter"
	"github.com/felo/reply-drafter/internal/emlhost"
	"github.com/felo/reply-drafter/internal/host"
	"github.com/felo/reply-drafter/internal/reply"
	"github.com/felo/reply-drafter/internal/webhook"
)

var (
	logger     *slog.Logger
	configPath string // overridable via --config flag
	verbose    bool
)

func main() {
	root := &cobra.Command{
		Use:   "reply-drafter",
		Short: "Draft mail replies through an automation webhook",
		Long: "reply-drafter sends a message to an automation endpoint, normalizes the " +
			"reply it gets back and writes it as a reply or draft .eml file.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			slog.SetDefault(logger)
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.yaml (default: none, env overrides only)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(draftCmd())
	root.AddCommand(batchCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(normalizeCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// itemFlags are shared by the commands that open .eml files
type itemFlags struct {
	input    string
	compose  bool
	textOnly bool
	outDir   string
}

func (f *itemFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.input, "input", "i", "", "instruction sent along with the message")
	cmd.Flags().BoolVar(&f.compose, "compose", false, "open messages as drafts and save the reply into them")
	cmd.Flags().BoolVar(&f.textOnly, "text-only", false, "reject HTML bodies on drafts (forces the plain text fallback)")
	cmd.Flags().StringVarP(&f.outDir, "out", "o", "", "directory for written messages (default: output_dir from config)")
}

func (f *itemFlags) options(cfg *config.Config) emlhost.Options {
	out := cfg.OutputDir
	if f.outDir != "" {
		out = f.outDir
	}
	return emlhost.Options{
		OutputDir: out,
		User:      host.UserProfile{EmailAddress: cfg.UserAddress},
		TextOnly:  f.textOnly,
		Logger:    logger,
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger.Debug("config loaded", "path", configPath, "webhook", cfg.WebhookURL)
	return cfg, nil
}

func newNormalizer(cfg *config.Config) *reply.Normalizer {
	return reply.NewNormalizer(reply.Options{
		FontSize: cfg.FontSize,
		MaxChars: cfg.MaxReplyChars,
		Logger:   logger,
	})
}

func newWebhook(cfg *config.Config) *webhook.Client {
	return webhook.New(webhook.Config{
		URL:     cfg.WebhookURL,
		Timeout: cfg.RequestTimeout,
		Logger:  logger,
	})
}

func newDrafter(cfg *config.Config) (*drafter.Drafter, error) {
	return drafter.New(drafter.Config{
		Source:     newWebhook(cfg),
		Normalizer: newNormalizer(cfg),
		Engine:     delivery.NewEngine(delivery.Config{SettleDelay: cfg.SettleDelay, Logger: logger}),
		Logger:     logger,
	})
}
