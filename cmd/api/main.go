package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"

	"github.com/janseva/api/internal/handlers"
	"github.com/janseva/api/internal/platform/auth"
	"github.com/janseva/api/internal/platform/config"
	pfirestore "github.com/janseva/api/internal/platform/firestore"
	"github.com/janseva/api/internal/platform/jobs"
	"github.com/janseva/api/internal/platform/observability"
	"github.com/janseva/api/internal/repositories"
	firestoreRepo "github.com/janseva/api/internal/repositories/firestore"
	"github.com/janseva/api/internal/services"
)

func main() {
	ctx := context.Background()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	firestoreProvider := pfirestore.NewProvider(cfg.Firestore)
	firestoreClient, err := firestoreProvider.Client(ctx)
	if err != nil {
		logger.Fatal("failed to initialise firestore client", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := firestoreProvider.Close(closeCtx); err != nil {
			logger.Warn("firestore close error", zap.Error(err))
		}
	}()

	verifier, err := auth.NewFirebaseVerifier(ctx, cfg.Firebase)
	if err != nil {
		logger.Fatal("failed to initialise firebase verifier", zap.Error(err))
	}
	authenticator := auth.NewAuthenticator(verifier)

	var dispatcher services.ActionDispatcher
	if cfg.Actions.Enabled {
		pubsubClient, err := pubsub.NewClient(ctx, cfg.Firestore.ProjectID)
		if err != nil {
			logger.Fatal("failed to initialise pubsub client", zap.Error(err))
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logger.Warn("pubsub close error", zap.Error(err))
			}
		}()
		topic := pubsubClient.Topic(cfg.Actions.TopicID)
		topic.EnableMessageOrdering = false
		defer topic.Stop()

		dispatcher, err = jobs.NewPubSubActionDispatcher(topic)
		if err != nil {
			logger.Fatal("failed to initialise action dispatcher", zap.Error(err))
		}
	} else {
		logger.Info("backend action dispatch disabled")
	}

	checkRecordRepo, err := firestoreRepo.NewCheckRecordRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise check record repository", zap.Error(err))
	}
	lockRepo, err := firestoreRepo.NewRequestLockRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise request lock repository", zap.Error(err))
	}
	documentRepo, err := firestoreRepo.NewCitizenDocumentRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise citizen document repository", zap.Error(err))
	}
	alertRepo, err := firestoreRepo.NewSystemAlertRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise system alert repository", zap.Error(err))
	}
	connectionRepo, err := firestoreRepo.NewConnectionApplicationRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise connection application repository", zap.Error(err))
	}
	grievanceRepo, err := firestoreRepo.NewGrievanceRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise grievance repository", zap.Error(err))
	}
	paymentRepo, err := firestoreRepo.NewPaymentRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise payment repository", zap.Error(err))
	}

	guaranteeService, err := services.NewGuaranteeService(services.GuaranteeServiceDeps{
		Documents:   documentRepo,
		Alerts:      alertRepo,
		Connections: connectionRepo,
		Grievances:  grievanceRepo,
		Payments:    paymentRepo,
		Records:     checkRecordRepo,
		Dispatcher:  dispatcher,
		Logger:      logger,
		Clock:       time.Now,
	})
	if err != nil {
		logger.Fatal("failed to initialise guarantee service", zap.Error(err))
	}
	checkRecordService, err := services.NewCheckRecordService(services.CheckRecordServiceDeps{
		Records: checkRecordRepo,
		Clock:   time.Now,
	})
	if err != nil {
		logger.Fatal("failed to initialise check record service", zap.Error(err))
	}
	lockService, err := services.NewLockService(services.LockServiceDeps{
		Locks: lockRepo,
		Clock: time.Now,
	})
	if err != nil {
		logger.Fatal("failed to initialise lock service", zap.Error(err))
	}

	healthRepo, err := newHealthRepository(firestoreClient)
	if err != nil {
		logger.Fatal("failed to initialise health repository", zap.Error(err))
	}

	guaranteeHandlers := handlers.NewGuaranteeHandlers(authenticator, guaranteeService, checkRecordService)
	lockHandlers := handlers.NewLockHandlers(authenticator, lockService)
	healthHandlers := handlers.NewHealthHandlers(healthRepo)

	projectID := cfg.Firestore.ProjectID
	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.TraceMiddleware(projectID),
		observability.RecoveryMiddleware(logger.Named("http")),
		observability.RequestLoggerMiddleware(projectID),
	}

	router := handlers.NewRouter(
		handlers.WithMiddlewares(middlewares...),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithGuaranteeRoutes(guaranteeHandlers.Routes),
		handlers.WithLockRoutes(lockHandlers.Routes),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("janseva api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newHealthRepository(client *firestore.Client) (repositories.HealthRepository, error) {
	if client == nil {
		return nil, errors.New("health: firestore client is required")
	}
	c := client
	checks := []repositories.DependencyCheck{
		{
			Name:    "firestore",
			Timeout: 1500 * time.Millisecond,
			Check: func(ctx context.Context) error {
				iter := c.Collections(ctx)
				_, err := iter.Next()
				if errors.Is(err, iterator.Done) {
					return nil
				}
				return err
			},
		},
	}
	return repositories.NewDependencyHealthRepository(checks)
}
