package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/FairForge/sentinel/internal/alerting"
	"github.com/FairForge/sentinel/internal/api"
	"github.com/FairForge/sentinel/internal/cluster"
	"github.com/FairForge/sentinel/internal/config"
	"github.com/FairForge/sentinel/internal/drivers"
	"github.com/FairForge/sentinel/internal/failover"
	"github.com/FairForge/sentinel/internal/orchestrator"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the failover orchestrator",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runServe(configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	return cmd
}

func runServe(configPath string) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	config.LoadFromEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cfg.Server.LogLevel)
	defer func() { _ = logger.Sync() }()

	driver := drivers.NewPostgresDriver(logger)
	registry := cluster.NewRegistry()
	for _, nc := range cfg.Cluster.Nodes {
		role := cluster.RoleStandby
		if nc.Primary {
			role = cluster.RolePrimary
		}
		registry.Add(cluster.NewNode(nc.Name, drivers.Target{
			Host:     nc.Host,
			Port:     nc.Port,
			User:     nc.User,
			Password: nc.Password,
			Database: nc.Database,
		}, role, driver, logger))
	}

	alerts := alerting.NewManager(alerting.ManagerConfig{
		ThrottleInterval: cfg.Alerting.ThrottleInterval.Std(),
		Burst:            cfg.Alerting.Burst,
	}, logger)

	tracker := failover.NewSLOTracker(failover.SLOTargets{
		RTO: cfg.Failover.RTOTarget.Std(),
		RPO: cfg.Failover.RPOTarget.Std(),
	})
	engine := failover.NewEngine(registry, failover.Policy{
		CatchupThreshold: cfg.Failover.CatchupThreshold.Std(),
		CatchupTimeout:   cfg.Failover.CatchupTimeout.Std(),
		PollInterval:     cfg.Failover.PollInterval.Std(),
	}, tracker, logger)

	orch := orchestrator.New(registry, engine, alerts, orchestrator.Options{
		CheckInterval: cfg.Cluster.CheckInterval.Std(),
		HistorySize:   cfg.Cluster.HistorySize,
	}, logger)

	if !orch.Initialize(context.Background()) {
		logger.Warn("some nodes unreachable at startup, continuing with degraded cluster")
	}
	orch.StartMonitoring()

	server := api.NewServer(cfg, logger, orch, alerts)
	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		orch.StopMonitoring()
		return err
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
	orch.StopMonitoring()
	return nil
}

func newLogger(level string) *zap.Logger {
	if level == "debug" {
		logger, err := zap.NewDevelopment()
		if err == nil {
			return logger
		}
		fmt.Fprintf(os.Stderr, "falling back to production logger: %v\n", err)
	}
	logger, _ := zap.NewProduction()
	return logger
}
