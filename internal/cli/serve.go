package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lazypower/brainbox/internal/config"
	"github.com/lazypower/brainbox/internal/engine"
	"github.com/lazypower/brainbox/internal/server"
	"github.com/lazypower/brainbox/internal/store"
)

var serveDBPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveDBPath, "db", "", "database path (default ~/.brainbox/brainbox.db)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Default()

	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	dbPath, err := resolveDBPath(serveDBPath, cfg)
	if err != nil {
		return err
	}

	eng, err := engine.Open(dbPath, logger)
	if err != nil {
		return fmt.Errorf("open engine: %w", err)
	}
	defer eng.Close()

	srv := server.New(eng, VersionString(), logger)
	addr := cfg.ListenAddr()

	httpServer := &http.Server{
		Addr:    addr,
		Handler: srv,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("brainbox serving", zap.String("addr", addr), zap.String("db", dbPath))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	<-done
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return httpServer.Shutdown(ctx)
}

// resolveDBPath picks the database path: flag > config > default.
func resolveDBPath(flag string, cfg config.Config) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if cfg.Database.Path != "" {
		return cfg.Database.Path, nil
	}
	path, err := store.DefaultDBPath()
	if err != nil {
		return "", fmt.Errorf("resolve db path: %w", err)
	}
	return path, nil
}
