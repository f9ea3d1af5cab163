package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xaenox/mail-triage/internal/bot"
	"github.com/xaenox/mail-triage/internal/server"
)

var cfgFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "triage",
		Short: "Email triage - classify emails and suggest replies",
		Long: `Triage classifies emails as Produtivo (needs action) or Improdutivo
(courtesy) and suggests a reply, over HTTP, Telegram or the command line.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file (optional)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(classifyCmd())
	rootCmd.AddCommand(triageCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and, when configured, the Telegram bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "Port to listen on (overrides server.port)")

	return cmd
}

func classifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify [file]",
		Short: "Classify an email from a .txt/.pdf file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), cfgFile, false)
			if err != nil {
				return err
			}
			defer a.logger.Sync()

			text, err := a.readInput(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			res, err := a.svc.Process(cmd.Context(), text)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
}

func triageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "triage [file]",
		Short: "Classify and draft a reply with the LLM only",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), cfgFile, false)
			if err != nil {
				return err
			}
			defer a.logger.Sync()

			text, err := a.readInput(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			res, err := a.svc.Triage(cmd.Context(), text)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
}

func runServe(ctx context.Context, port int) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfgFile, true)
	if err != nil {
		return err
	}
	defer a.logger.Sync()

	if port == 0 {
		port = a.cfg.Server.Port
	}
	srv := server.New(a.svc, a.extractor, a.logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(fmt.Sprintf(":%d", port))
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		a.logger.Info("Shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	})

	if a.cfg.Telegram.Token != "" {
		b, err := bot.New(a.cfg.Telegram.Token, a.svc, a.extractor, a.logger)
		if err != nil {
			a.logger.Error("Telegram bot disabled", zap.Error(err))
		} else {
			g.Go(func() error {
				return b.Start(gctx)
			})
		}
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// readInput returns the text of the file named in args, or stdin.
func (a *app) readInput(args []string, stdin io.Reader) (string, error) {
	if len(args) == 0 {
		data, err := io.ReadAll(io.LimitReader(stdin, a.extractor.MaxBytes()+1))
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}

	f, err := os.Open(args[0])
	if err != nil {
		return "", err
	}
	defer f.Close()
	return a.extractor.FromUpload(filepath.Base(args[0]), f)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
