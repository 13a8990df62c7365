package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/thywilljoshua/pdf-chapters/internal/app"
	"github.com/thywilljoshua/pdf-chapters/internal/credential"
	"github.com/thywilljoshua/pdf-chapters/internal/web"
)

const shutdownTimeout = 10 * time.Second

func serveCmd(rt *rootOptions) *cobra.Command {
	var ephemeral bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := rt.load()
			if err != nil {
				return err
			}
			defer log.Sync()

			var store credential.Store = newFileStore(cfg)
			if ephemeral {
				store = credential.NewMemoryStore("")
				log.Info("API key will not be saved to disk")
			}
			ctrl := app.New(store, newAnalyzer(cfg, log), log)

			srv := &http.Server{
				Addr: cfg.Server.Addr,
				Handler: web.NewServer(ctrl, web.Options{
					MaxUploadBytes: cfg.Upload.MaxBytes(),
					Logger:         log,
				}).Routes(),
				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       2 * time.Minute,
				IdleTimeout:       2 * time.Minute,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				log.Info("listening",
					zap.String("addr", "http://"+cfg.Server.Addr),
					zap.String("model", cfg.Gemini.Model),
					zap.String("language", cfg.Gemini.Language))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error("server shutdown", zap.Error(err))
			}
			waitAnalysis(shutdownCtx, ctrl, log)
			return nil
		},
	}

	cmd.Flags().String("addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().Int("max-upload-mb", 20, "largest PDF accepted, in MB")
	cmd.Flags().BoolVar(&ephemeral, "ephemeral", false, "keep the API key in memory only")
	bind(rt.v, cmd.Flags().Lookup("addr"), "server.addr")
	bind(rt.v, cmd.Flags().Lookup("max-upload-mb"), "upload.max_mb")
	return cmd
}

// waitAnalysis gives an in-flight analysis until ctx is done to finish.
func waitAnalysis(ctx context.Context, ctrl *app.Controller, log *zap.Logger) {
	done := make(chan struct{})
	go func() {
		ctrl.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		log.Warn("abandoning in-flight analysis")
	}
}
