package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/MeKo-Tech/stylizer/internal/history"
	"github.com/MeKo-Tech/stylizer/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the transform API (uploads, styled outputs and history)",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "127.0.0.1:8080", "Listen address (host:port)")
	serveCmd.Flags().String("upload-dir", "uploads", "Directory for uploaded images")
	serveCmd.Flags().String("output-dir", "outputs", "Directory for transformed images")
	serveCmd.Flags().Int("max-concurrent-transforms", runtime.NumCPU(), "Max concurrent transforms (default: number of CPUs)")
	serveCmd.Flags().Duration("transform-timeout", server.DefaultTransformTimeout, "Timeout per transform")
	serveCmd.Flags().Int64("max-upload-bytes", server.DefaultMaxUploadBytes, "Maximum accepted upload size")
	serveCmd.Flags().String("cache-control", "public, max-age=3600", "Cache-Control header for served images")
	serveCmd.Flags().String("allowed-origin", "*", "Access-Control-Allow-Origin header value")
	serveCmd.Flags().String("history-db", "history.db", "History database used when --history is not set; empty disables history")

	mustBind := func(key string, name string) {
		if err := viper.BindPFlag(key, serveCmd.Flags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind flag: %v", err))
		}
	}

	mustBind("serve.addr", "addr")
	mustBind("serve.upload_dir", "upload-dir")
	mustBind("serve.output_dir", "output-dir")
	mustBind("serve.max_concurrent_transforms", "max-concurrent-transforms")
	mustBind("serve.transform_timeout", "transform-timeout")
	mustBind("serve.max_upload_bytes", "max-upload-bytes")
	mustBind("serve.cache_control", "cache-control")
	mustBind("serve.allowed_origin", "allowed-origin")
	mustBind("serve.history_db", "history-db")
}

func runServe(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	addr := viper.GetString("serve.addr")
	cfg := server.Config{
		UploadDir:               viper.GetString("serve.upload_dir"),
		OutputDir:               viper.GetString("serve.output_dir"),
		CacheControl:            viper.GetString("serve.cache_control"),
		AllowedOrigin:           viper.GetString("serve.allowed_origin"),
		MaxUploadBytes:          viper.GetInt64("serve.max_upload_bytes"),
		MaxConcurrentTransforms: viper.GetInt("serve.max_concurrent_transforms"),
		TransformTimeout:        viper.GetDuration("serve.transform_timeout"),
	}

	historyPath := viper.GetString("history")
	if historyPath == "" {
		historyPath = viper.GetString("serve.history_db")
	}
	var store *history.Store
	if historyPath != "" {
		var err error
		store, err = history.Open(historyPath)
		if err != nil {
			return fmt.Errorf("failed to open history: %w", err)
		}
		defer store.Close()
	}

	runner, err := newRunner("")
	if err != nil {
		return err
	}
	srv, err := server.New(runner, store, cfg, logger)
	if err != nil {
		return err
	}

	httpSrv := &http.Server{Addr: addr, Handler: srv.Handler(), ReadHeaderTimeout: 5 * time.Second}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("transform server listening",
			"addr", addr,
			"upload_dir", cfg.UploadDir,
			"output_dir", cfg.OutputDir,
			"history", historyPath,
			"max_concurrent_transforms", cfg.MaxConcurrentTransforms,
		)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}
