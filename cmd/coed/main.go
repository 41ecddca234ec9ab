// Coed is the COE orchestration server. It serves the fixed tool catalog
// over MCP stdio and coordinates task execution across the agent teams.
//
// Usage:
//
//	# Start the server on stdio
//	coed serve
//
//	# Use a specific config file
//	coed serve --config ./config.yaml
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/coedev/coed/internal/config"
	"github.com/coedev/coed/internal/integration"
	"github.com/coedev/coed/internal/logging"
	"github.com/coedev/coed/internal/orchestrator"
	"github.com/coedev/coed/internal/telemetry"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "coed",
	Short: "COE orchestration server",
	Long: `coed runs the COE orchestration server: a tool registry exposed
over MCP stdio, backed by a task queue and the agent team orchestrator.`,
	Version: version,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the orchestration server on stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("coed\n")
		fmt.Printf("Version:    %s\n", version)
		fmt.Printf("Commit:     %s\n", gitCommit)
		fmt.Printf("Build Date: %s\n", buildDate)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default ~/.config/coed/config.yaml)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runServe bootstraps the server and blocks until the context is
// cancelled, then disposes everything in reverse order.
func runServe(ctx context.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.NewLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer func() {
		_ = logging.Sync(logger)
	}()

	logger.Info("starting coed",
		zap.String("server", cfg.Server.Name),
		zap.String("version", cfg.Server.Version),
		zap.Duration("shutdown_timeout", cfg.Server.ShutdownTimeout))

	tel, err := telemetry.New(telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.Server.Name,
		ServiceVersion: cfg.Server.Version,
		ListenAddr:     cfg.Telemetry.ListenAddr,
	}, logger)
	if err != nil {
		return fmt.Errorf("initialize telemetry: %w", err)
	}
	tel.Start()

	orchCfg := orchestrator.DefaultConfig()
	orchCfg.MaxRetries = cfg.Orchestrator.MaxRetries
	orchCfg.RetryBackoff = cfg.Orchestrator.RetryBackoff

	handle, err := integration.Bootstrap(ctx, &integration.Options{
		Logger:       logger,
		Orchestrator: orchCfg,
	})
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := handle.Dispose(); err != nil {
		logger.Error("dispose failed", zap.Error(err))
	}
	if err := tel.Shutdown(shutdownCtx); err != nil {
		logger.Error("telemetry shutdown failed", zap.Error(err))
	}

	logger.Info("coed shutdown complete")
	return nil
}
