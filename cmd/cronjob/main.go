package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"skillbridge-backend/internal/bootstrap"
	"skillbridge-backend/internal/config"
	"skillbridge-backend/internal/jobs"
	"skillbridge-backend/internal/logger"
	"skillbridge-backend/internal/scheduler"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'drain-outbox', 'purge-delivered-events', 'all')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting SkillBridge Cronjob Runner...", "log_level", cfg.Log.Level)

	ctx := context.Background()

	// Initialize Repositories
	repos, err := bootstrap.OpenRepositories(ctx, cfg)
	if err != nil {
		logger.Error("Failed to open repositories", "error", err)
		log.Fatalf("Failed to open repositories: %v", err)
	}
	defer repos.Close()

	dispatcher, cleanup, err := bootstrap.NewDispatcher(ctx, cfg, repos)
	if err != nil {
		logger.Error("Failed to initialize dispatcher", "error", err)
		log.Fatalf("Failed to initialize dispatcher: %v", err)
	}
	defer cleanup()

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(repos.Outbox, dispatcher, cfg)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		if !runJobOnce(jobRunner, *runOnce) {
			os.Exit(1)
		}
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler, err := scheduler.NewScheduler(jobRunner)
	if err != nil {
		logger.Error("Failed to initialize scheduler", "error", err)
		log.Fatalf("Failed to initialize scheduler: %v", err)
	}

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

// runJobOnce runs a specific job once and reports whether the name was known
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) bool {
	switch jobName {
	case "drain-outbox":
		jobRunner.DrainOutbox()
	case "purge-delivered-events":
		jobRunner.PurgeDeliveredEvents()
	case "all":
		jobRunner.RunAll()
	default:
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - drain-outbox\n")
		fmt.Printf("  - purge-delivered-events\n")
		fmt.Printf("  - all\n")
		return false
	}
	return true
}
