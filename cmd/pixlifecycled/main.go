package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/altbank/pix-lifecycle/internal/application/usecase"
	"github.com/altbank/pix-lifecycle/internal/domain/service"
	"github.com/altbank/pix-lifecycle/internal/infrastructure/config"
	"github.com/altbank/pix-lifecycle/internal/infrastructure/gateway"
	"github.com/altbank/pix-lifecycle/internal/infrastructure/messaging"
	infrapostgres "github.com/altbank/pix-lifecycle/internal/infrastructure/postgres"
	"github.com/altbank/pix-lifecycle/internal/presentation/rest"
	"github.com/altbank/pix-lifecycle/pkg/kafka"
	"github.com/altbank/pix-lifecycle/pkg/keymutex"
	"github.com/altbank/pix-lifecycle/pkg/observability"
	"github.com/altbank/pix-lifecycle/pkg/postgres"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := config.Load()

	logger := observability.InitLogger(observability.LogConfig{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: "pix-lifecycle",
	})

	logger.Info("starting pix-lifecycle", "http_port", cfg.HTTPPort)

	// Database.
	if err := postgres.RunMigrations(cfg.DatabaseURL, "file://"+cfg.MigrationsDir); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	dbCtx, dbCancel := context.WithTimeout(ctx, 10*time.Second)
	defer dbCancel()

	pool, err := postgres.NewPool(dbCtx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to database")

	// Repositories.
	depositRepo := infrapostgres.NewDepositRepository(pool)
	warningRepo := infrapostgres.NewWarningDepositRepository(pool)
	infractionRepo := infrapostgres.NewInfractionRepository(pool)
	refundOpRepo := infrapostgres.NewInfractionRefundOperationRepository(pool)
	refundRepo := infrapostgres.NewRefundRepository(pool)
	devolutionRepo := infrapostgres.NewWarningDevolutionRepository(pool)

	// Outbound gateways.
	ledgerClient := gateway.NewLedgerClient(cfg.Gateways.LedgerURL)
	pspClient := gateway.NewPSPClient(cfg.Gateways.PSPURL)
	issueClient := gateway.NewIssueClient(cfg.Gateways.IssueURL)

	// Kafka.
	kafkaCfg := kafka.Config{
		Brokers:       cfg.Kafka.Brokers,
		ConsumerGroup: cfg.Kafka.ConsumerGroup,
	}
	producer := kafka.NewProducer(kafkaCfg)
	defer producer.Close()
	publisher := messaging.NewKafkaPublisher(producer, logger)

	// Warning checkers.
	checkers := []service.WarningChecker{
		service.NewSuspectCPFChecker(cfg.Checkers.SuspectCPFs),
		service.NewSuspectBankChecker(cfg.Checkers.SuspectISPBs),
		service.NewOverWarningIncomeChecker(cfg.Checkers.WarningIncomeThreshold),
	}
	checkerNames := make([]string, 0, len(checkers))
	for _, c := range checkers {
		checkerNames = append(checkerNames, c.Name())
	}

	// Use cases.
	locks := keymutex.New()
	useCases := messaging.UseCases{
		ReceiveDeposit:           usecase.NewReceiveDeposit(depositRepo, publisher, logger),
		BlockDeposit:             usecase.NewBlockDeposit(ledgerClient, depositRepo, warningRepo, publisher, logger),
		EvaluateDepositCheck:     usecase.NewEvaluateDepositCheck(depositRepo, warningRepo, publisher, locks, checkers, logger),
		RejectWarning:            usecase.NewRejectWarning(warningRepo, publisher, logger),
		OpenInfraction:           usecase.NewOpenInfraction(infractionRepo, pspClient, publisher, logger),
		MoveInfractionToAnalysis: usecase.NewMoveInfractionToAnalysis(infractionRepo, publisher, logger),
		CloseInfraction:          usecase.NewCloseInfraction(infractionRepo, pspClient, publisher, logger),
		ConfirmInfraction:        usecase.NewConfirmInfraction(infractionRepo, refundOpRepo, publisher, logger),
		CancelInfractionReceived: usecase.NewCancelInfractionReceived(infractionRepo, refundOpRepo, ledgerClient, publisher, logger),
		RegisterRefund:           usecase.NewRegisterRefund(refundRepo, logger),
		ReceivePendingRefund:     usecase.NewReceivePendingRefund(refundRepo, depositRepo, devolutionRepo, issueClient, publisher, logger),
		ClosePendingRefund:       usecase.NewClosePendingRefund(refundRepo, depositRepo, warningRepo, devolutionRepo, publisher, logger),
		CancelPendingRefund:      usecase.NewCancelPendingRefund(refundRepo, pspClient, publisher, logger),
		MarkRefundError:          usecase.NewMarkRefundError(refundRepo, publisher, logger),
		CreateWarningDevolution:  usecase.NewCreateWarningDevolution(devolutionRepo, warningRepo, depositRepo, publisher, logger),
		SubmitWarningDevolution:  usecase.NewSubmitWarningDevolution(devolutionRepo, pspClient, publisher, logger),
	}
	syncDevolutions := usecase.NewSyncWarningDevolutions(devolutionRepo, pspClient, publisher, logger, cfg.DevolutionSyncMinAge)

	// Consumers, one per topic.
	handlers := messaging.NewHandlers(useCases, checkerNames, logger)
	consumers := []*kafka.Consumer{
		kafka.NewConsumer(kafkaCfg, messaging.DepositCommandsTopic, handlers.DepositCommands, logger),
		kafka.NewConsumer(kafkaCfg, messaging.WarningCommandsTopic, handlers.WarningCommands, logger),
		kafka.NewConsumer(kafkaCfg, messaging.InfractionCommandsTopic, handlers.InfractionCommands, logger),
		kafka.NewConsumer(kafkaCfg, messaging.RefundCommandsTopic, handlers.RefundCommands, logger),
		kafka.NewConsumer(kafkaCfg, messaging.DepositEventsConsumerTopic, handlers.DepositEvents, logger),
		kafka.NewConsumer(kafkaCfg, messaging.DevolutionEventsConsumerTopic, handlers.DevolutionEvents, logger),
	}

	errCh := make(chan error, len(consumers)+1)
	for _, consumer := range consumers {
		consumer := consumer
		go func() {
			if err := consumer.Start(ctx); err != nil {
				errCh <- fmt.Errorf("consumer error: %w", err)
			}
		}()
	}

	// Periodic devolution settlement sync.
	go func() {
		ticker := time.NewTicker(cfg.DevolutionSyncInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := syncDevolutions.Execute(ctx); err != nil {
					logger.Error("devolution sync failed", "error", err)
				}
			}
		}
	}()

	// HTTP server: health probes and metrics.
	healthHandler := rest.NewHealthHandler(pool, logger)
	httpMux := http.NewServeMux()
	healthHandler.RegisterRoutes(httpMux)

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddress(),
		Handler:      httpMux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("HTTP server starting", "address", cfg.HTTPAddress())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	logger.Info("pix-lifecycle started")

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("server error", "error", err)
		cancel()
	}

	logger.Info("shutting down pix-lifecycle")

	for _, consumer := range consumers {
		if err := consumer.Close(); err != nil {
			logger.Error("consumer close error", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("pix-lifecycle stopped")
}
