package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/felo/reply-drafter/internal/batch"
	"github.com/felo/reply-drafter/internal/drafter"
	"github.com/felo/reply-drafter/internal/emlhost"
	"github.com/felo/reply-drafter/internal/handlers"
	"github.com/felo/reply-drafter/internal/host"
	"github.com/felo/reply-drafter/internal/reply"
	"github.com/felo/reply-drafter/internal/scanner"
)

func draftCmd() *cobra.Command {
	var flags itemFlags
	cmd := &cobra.Command{
		Use:   "draft <file.eml>",
		Short: "Draft a reply for one message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !scanner.IsEML(args[0]) {
				return fmt.Errorf("%s is not an .eml file", args[0])
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			opts := flags.options(cfg)
			mb := host.Mailbox{User: opts.User}
			var written func() string
			if flags.compose {
				item, err := emlhost.OpenCompose(args[0], opts)
				if err != nil {
					return err
				}
				mb.Item, written = item, item.Saved
			} else {
				item, err := emlhost.OpenRead(args[0], opts)
				if err != nil {
					return err
				}
				mb.Item, written = item, item.Written
			}

			d, err := newDrafter(cfg)
			if err != nil {
				return err
			}
			out, err := d.Submit(ctx, mb, drafter.NewTextInput(flags.input))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", out.Message(), written())
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func batchCmd() *cobra.Command {
	var (
		flags   itemFlags
		workers int
	)
	cmd := &cobra.Command{
		Use:   "batch <dir>",
		Short: "Draft replies for every .eml file under a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if workers > 0 {
				cfg.Workers = workers
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			d, err := newDrafter(cfg)
			if err != nil {
				return err
			}
			opts := flags.options(cfg)
			runner := batch.NewRunner(batch.Config{
				Drafter: d,
				Scanner: scanner.NewScanner(args[0]).Exclude(opts.OutputDir),
				Items:   opts,
				Compose: flags.compose,
				Input:   flags.input,
				Workers: cfg.Workers,
				Logger:  logger,
			})

			result, err := runner.RunWithProgress(ctx, func(current, total int, filePath string) {
				logger.Debug("processed", "current", current, "total", total, "file", filePath)
			})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Drafted %d of %d messages, %d failed\n", result.Drafted, result.TotalFound, result.Failed)
			for _, f := range result.FailedFiles {
				fmt.Fprintf(w, "  failed: %s\n", f)
			}
			if result.Failed > 0 {
				return fmt.Errorf("%d messages failed", result.Failed)
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "number of concurrent submissions (default: workers from config)")
	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the normalization API for the taskpane",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			h := handlers.New(newNormalizer(cfg), newWebhook(cfg), logger)

			srv := &http.Server{
				Addr:         cfg.Address(),
				Handler:      h.Routes(),
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 2 * time.Minute, // covers the automation endpoint round trip
				IdleTimeout:  60 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				logger.Info("starting server", "url", cfg.URL())
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("server failed: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			logger.Info("shutting down gracefully")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server shutdown: %w", err)
			}
			logger.Info("server stopped")
			return nil
		},
	}
}

func normalizeCmd() *cobra.Command {
	var text bool
	cmd := &cobra.Command{
		Use:   "normalize [file]",
		Short: "Normalize a raw endpoint response read from a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			var r io.Reader = cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open file: %w", err)
				}
				defer f.Close()
				r = f
			}
			raw, err := io.ReadAll(r)
			if err != nil {
				return fmt.Errorf("failed to read response: %w", err)
			}

			out, err := newNormalizer(cfg).Normalize(string(raw))
			if err != nil {
				return err
			}
			if text {
				out = reply.PlainText(out)
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&text, "text", "t", false, "print the plain text rendition instead of HTML")
	return cmd
}
