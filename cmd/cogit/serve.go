package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cogit/internal/api"
	"cogit/internal/change"
	"cogit/internal/status"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Report status changes as files are edited",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			restage, _ := cmd.Flags().GetBool("restage")

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			w, err := change.NewWatcher(a.repo.Root, a.repo, change.Options{
				Restage: restage,
				Logger:  a.logger.Logger,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- w.Run(ctx) }()

			fmt.Printf("Watching %s (Ctrl+C to stop)\n", a.repo.Root)
			for ev := range w.Events() {
				printWatchEvent(ev)
			}

			if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().Bool("restage", false, "Re-stage staged files when they change")
	return cmd
}

func printWatchEvent(ev change.Event) {
	var marker string
	switch ev.Classification {
	case status.Staged:
		marker = color.GreenString("S")
	case status.Modified:
		marker = color.YellowString("M")
	case status.Untracked:
		marker = color.BlueString("?")
	case status.Deleted:
		marker = color.RedString("D")
	default:
		marker = " "
	}

	line := fmt.Sprintf("%s %s %s (was %s)", ev.At.Local().Format("15:04:05"), marker, ev.Path, ev.Previous)
	if ev.Restaged {
		line += " restaged"
	}
	fmt.Println(line)
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve repository state over a read-only HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			addr, _ := cmd.Flags().GetString("addr")
			if addr == "" {
				addr = a.repo.Config.Address()
			}

			srv := &http.Server{
				Addr:              addr,
				Handler:           api.NewRouter(a.repo, a.logger),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("starting server", zap.String("address", addr))
				errCh <- srv.ListenAndServe()
			}()
			fmt.Printf("Serving %s on http://%s\n", a.repo.Root, addr)

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("server failed: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutting down server: %w", err)
			}
			a.logger.Info("server stopped")
			return nil
		},
	}
	cmd.Flags().String("addr", "", "Listen address (default from [server] in config)")
	return cmd
}
