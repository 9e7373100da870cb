package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	api "skillbridge-backend/internal/api/grpc"
	"skillbridge-backend/internal/api/grpc/interceptor"
	httpapi "skillbridge-backend/internal/api/http"
	"skillbridge-backend/internal/bootstrap"
	"skillbridge-backend/internal/config"
	"skillbridge-backend/internal/logger"
	"skillbridge-backend/internal/security"
	"skillbridge-backend/internal/service"
	"skillbridge-backend/internal/storage"
)

// noopNotifier is used when the cronjob owns the relay.
type noopNotifier struct{}

func (noopNotifier) Notify() {}

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting SkillBridge Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "grpc_address", cfg.GetGRPCAddress(), "http_address", cfg.GetHTTPAddress())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Repositories
	repos, err := bootstrap.OpenRepositories(ctx, cfg)
	if err != nil {
		logger.Error("Failed to open repositories", "error", err)
		log.Fatalf("Failed to open repositories: %v", err)
	}
	defer repos.Close()

	idem, err := bootstrap.NewIdempotencyStore(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize idempotency store", "error", err)
		log.Fatalf("Failed to initialize idempotency store: %v", err)
	}

	// Initialize Storage Service
	if cfg.Storage.Type != "" && cfg.Storage.Type != "local" {
		logger.Error("Unsupported storage type", "type", cfg.Storage.Type)
		log.Fatalf("Storage type '%s' not yet implemented", cfg.Storage.Type)
	}
	avatarStore, err := storage.NewLocalStorage(cfg.Storage.BaseURL, cfg.Storage.UploadDir)
	if err != nil {
		logger.Error("Failed to initialize local storage", "error", err)
		log.Fatalf("Failed to initialize local storage: %v", err)
	}
	logger.Info("Using local avatar storage", "upload_dir", cfg.Storage.UploadDir)

	// Outbox relay
	var notifier service.Notifier = noopNotifier{}
	if cfg.Notifications.RelayInServer {
		dispatcher, cleanup, err := bootstrap.NewDispatcher(ctx, cfg, repos)
		if err != nil {
			logger.Error("Failed to initialize dispatcher", "error", err)
			log.Fatalf("Failed to initialize dispatcher: %v", err)
		}
		defer cleanup()
		notifier = dispatcher
		go func() {
			if err := dispatcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Outbox relay stopped", "error", err)
			}
		}()
		logger.Info("Outbox relay running in server")
	}

	// Initialize Services
	appSvc := service.NewApplicationService(repos.Tx, repos.Applications, repos.Opportunities, idem, notifier, service.LifecycleConfig{
		MaxAttempts:  cfg.Lifecycle.MaxAttempts,
		RetryBackoff: time.Duration(cfg.Lifecycle.RetryBackoffMs) * time.Millisecond,
	})
	oppSvc := service.NewOpportunityService(repos.Opportunities, repos.Profiles, appSvc)
	profileSvc := service.NewProfileService(repos.Profiles, avatarStore)
	dashboardSvc := service.NewDashboardService(repos.Profiles, repos.Opportunities, repos.Applications)
	noteSvc := service.NewNotificationService(repos.Notifications, repos.Messages, appSvc)

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute)
	authInterceptor := interceptor.NewAuthInterceptor(tokenManager)

	// Set up gRPC server
	lis, err := net.Listen("tcp", cfg.GetGRPCAddress())
	if err != nil {
		logger.Error("Failed to listen", "error", err, "address", cfg.GetGRPCAddress())
		log.Fatalf("Failed to listen: %v", err)
	}

	s := grpc.NewServer(
		grpc.UnaryInterceptor(authInterceptor.Unary()),
	)
	api.RegisterMarketplaceServer(s, api.NewMarketplaceHandler(oppSvc, appSvc))

	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(s, healthSrv)
	healthSrv.SetServingStatus(api.MarketplaceServiceDesc.ServiceName, healthpb.HealthCheckResponse_SERVING)

	// Register reflection service for grpcurl
	reflection.Register(s)

	// Set up HTTP server
	router := httpapi.NewRouter(httpapi.Services{
		Profiles:      profileSvc,
		Opportunities: oppSvc,
		Applications:  appSvc,
		Dashboard:     dashboardSvc,
		Notifications: noteSvc,
	}, tokenManager)
	httpSrv := &http.Server{
		Addr:              cfg.GetHTTPAddress(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "address", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	go func() {
		logger.Info("gRPC server listening", "address", cfg.GetGRPCAddress())
		if err := s.Serve(lis); err != nil {
			logger.Error("Failed to serve gRPC", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	// Graceful shutdown
	logger.Info("Shutting down servers...")
	healthSrv.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}
	s.GracefulStop()
	logger.Info("Servers stopped. Goodbye!")
}
