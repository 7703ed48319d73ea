// The worker runs the scheduled lifecycle jobs without serving HTTP. Deploy
// one instance alongside a horizontally scaled server fleet so batch jobs
// run exactly once.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"bandwave/internal/infrastructure/config"
	"bandwave/internal/infrastructure/database"
	"bandwave/internal/infrastructure/scheduler"
	httpRouter "bandwave/internal/interfaces/http"
	"bandwave/internal/shared/biztime"
	"bandwave/internal/shared/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	env := os.Getenv("ENV")

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.NewLogger()

	if err := biztime.Init(cfg.Server.Timezone); err != nil {
		return fmt.Errorf("failed to initialize business timezone: %w", err)
	}

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	// The worker publishes events in-process only; cross-instance fan-out
	// belongs to the server fleet.
	container := httpRouter.NewContainer(cfg, database.Get(), nil, log)

	manager, err := scheduler.NewManager(log.Named("scheduler"))
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	if err := manager.RegisterLifecycleJobs(
		container.ApplyScheduledChangesUC,
		container.ExpireSubscriptionsUC,
	); err != nil {
		return fmt.Errorf("failed to register scheduler jobs: %w", err)
	}

	manager.Start()
	logger.Info("worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down worker...")
	if err := manager.Stop(); err != nil {
		return err
	}

	logger.Info("worker exited gracefully")
	return nil
}
