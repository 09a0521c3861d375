package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pkgfetch/s3presign/config"
	presignhttp "github.com/pkgfetch/s3presign/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the presign HTTP service",
	Long: `Run a small HTTP service that presigns configured S3 sources:

  GET /v1/sign?uri=s3://bucket/path&expires=600
  GET /healthz`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 8642, "HTTP server port")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	cfg, err := config.FromContext(ctx)
	if err != nil {
		return err
	}

	signer, _ := newSigner(cfg)

	handlerConfig := presignhttp.HandlerConfig{
		DefaultExpires: cfg.Sign.Expires,
		CORS:           cfg.CORS,
	}
	handler := presignhttp.NewHandler(&handlerConfig, signer)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "err", err)
		}
		cancel()
	}()

	slog.Info("starting server", "addr", addr, "sources", len(cfg.Sources))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}
