package cmd

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nijaru/yt-channel-text/handlers"
	"github.com/nijaru/yt-channel-text/middleware"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the background job workers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context) error {
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	// Jobs left running by a previous process can never finish.
	if n, err := a.store.FailStaleJobs(ctx, cfg.TranscribeTimeout); err != nil {
		logrus.WithError(err).Warn("Failed to mark stale jobs")
	} else if n > 0 {
		logrus.WithField("count", n).Info("Marked stale jobs as failed")
	}

	a.runner.Start()

	h := handlers.New(a.runner, a.builder, a.uploader, a.store)
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      h.Router(middleware.NewRateLimiter(cfg.RateLimitInterval, cfg.RateLimit)),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.WithFields(logrus.Fields{
			"port":     cfg.ServerPort,
			"channels": cfg.YouTubeAPIKey != "",
			"uploads":  a.uploader != nil,
		}).Info("Server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- errors.Wrapf(err, "could not listen on :%s", cfg.ServerPort)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logrus.Info("Shutting down the server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "server shutdown")
	}
	return nil
}
