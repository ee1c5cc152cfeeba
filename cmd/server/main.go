package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"resops/config"
	contracts "resops/contracts/mq"
	"resops/internal/handler"
	"resops/internal/httpserver"
	"resops/internal/mqhandler"
	"resops/internal/repository"
	"resops/internal/service"
	"resops/pkg/db"
	"resops/pkg/logger"
	"resops/pkg/mq"
	"resops/pkg/outbox"
	"resops/pkg/redis"
	"resops/pkg/util"
)

func main() {
	cfg := config.Load()

	log := logger.NewLogger()
	defer log.Sync()

	log.Info("Starting resops...",
		zap.String("db_host", cfg.DB.Host),
		zap.Int("db_port", cfg.DB.Port),
		zap.String("mq_url", cfg.MQ.URL),
	)

	// DB
	log.Info("Initializing database connection...")
	dbConn, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("Failed to init DB", zap.Error(err))
	}
	defer dbConn.Close()
	log.Info("Database connection established successfully")

	// Redis
	rdb := redis.NewRedisClient(cfg.Redis)
	defer rdb.Close()

	// MQ publisher（outbox dispatcher 和 DLQ 共用）
	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Fatal("Failed to init MQ publisher", zap.Error(err))
	}
	defer publisher.Close()

	// Outbox
	outboxRepo := outbox.NewRepository(dbConn)
	dispatcher := outbox.NewDispatcher(outboxRepo, publisher, log)

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()
	go dispatcher.Start(rootCtx)

	// Repositories
	projectRepo := repository.NewProjectRepository(dbConn, outboxRepo, log)
	moderatorRepo := repository.NewModeratorRepository(dbConn, log)
	vendorRepo := repository.NewVendorRepository(dbConn, log)

	// Services
	availabilitySvc := service.NewAvailabilityService(projectRepo, moderatorRepo, log)
	timelineSvc := service.NewTimelineService(projectRepo, availabilitySvc, rdb, log)

	// project.created consumer：为新项目播种初始时间线
	deduper := util.NewDeduper(rdb, 24*time.Hour, log)
	projectCreatedHandler := mqhandler.NewProjectCreatedHandler(timelineSvc, deduper, publisher, log)

	log.Info("Initializing MQ consumer for project.created...",
		zap.String("queue", "project.created.q"),
		zap.String("routing_key", contracts.RoutingProjectCreated),
	)
	consumer, err := mq.NewConsumer(cfg.MQ.URL, "project.created.q", contracts.RoutingProjectCreated, log)
	if err != nil {
		log.Fatal("Failed to init consumer", zap.Error(err))
	}
	defer consumer.Close()

	consumer.SetHandler(projectCreatedHandler.Handle)

	go func() {
		log.Info("Starting project.created consumer...")
		if err := consumer.StartConsuming(); err != nil {
			log.Fatal("project.created consumer failed", zap.Error(err))
		}
	}()

	// HTTP
	projectHandler := handler.NewProjectHandler(projectRepo, timelineSvc, log)
	timelineHandler := handler.NewTimelineHandler(timelineSvc, log)
	moderatorHandler := handler.NewModeratorHandler(moderatorRepo, availabilitySvc, log)
	vendorHandler := handler.NewVendorHandler(vendorRepo, log)

	router := httpserver.NewRouter(projectHandler, timelineHandler, moderatorHandler, vendorHandler, log, dbConn, rdb)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	log.Info("resops is fully initialized and running",
		zap.String("http_port", cfg.Server.Port),
		zap.String("mq_queue", "project.created.q"),
	)

	// 优雅退出处理
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down resops gracefully...")

	rootCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}

	log.Info("resops shutdown complete")
}
