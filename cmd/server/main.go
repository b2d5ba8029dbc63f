package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"siteops/internal/handler"
	"siteops/internal/httpserver"
	"siteops/internal/mqhandler"
	"siteops/internal/repository"
	"siteops/internal/service"
	"siteops/internal/ws"
	"siteops/pkg/config"
	"siteops/pkg/db"
	"siteops/pkg/logger"
	"siteops/pkg/mq"
	"siteops/pkg/outbox"
	"siteops/pkg/redis"
	"siteops/pkg/util"
)

const notificationDedupeTTL = 10 * time.Minute

func main() {
	// 1. Load config
	cfg, err := config.Load(config.GetConfigEnv(), "config")
	if err != nil {
		panic(err)
	}

	log := logger.NewLogger()
	defer log.Sync()

	// 2. Init DB
	dbConn, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	// 3. Init Redis
	rdb := redis.NewRedisClient(cfg.Redis)
	defer rdb.Close()

	// 4. Init RabbitMQ publisher + outbox dispatcher
	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Fatal("MQ publisher init failed", zap.Error(err))
	}
	defer publisher.Close()

	outboxRepo := outbox.NewRepository(dbConn)
	dispatcher := outbox.NewDispatcher(outboxRepo, publisher, log)

	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go dispatcher.Start(rootCtx)

	// 5. Init repositories
	userRepo := repository.NewUserRepository(dbConn, log)
	projectRepo := repository.NewProjectRepository(dbConn, log)
	taskRepo := repository.NewTaskRepository(dbConn, log)
	materialRepo := repository.NewMaterialRepository(dbConn, log)
	equipmentRepo := repository.NewEquipmentRepository(dbConn, log)
	contractRepo := repository.NewContractRepository(dbConn, log)
	reportRepo := repository.NewReportRepository(dbConn, log)
	purchaseRepo := repository.NewPurchaseRepository(dbConn, log)
	notificationRepo := repository.NewNotificationRepository(dbConn, log)
	chatRepo := repository.NewChatRepository(dbConn, log)

	// 6. Init services
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret)
	notificationService := service.NewNotificationService(notificationRepo, outboxRepo, log)
	projectService := service.NewProjectService(projectRepo, taskRepo, log)
	taskService := service.NewTaskService(taskRepo, projectRepo, projectService, notificationService, log)
	materialService := service.NewMaterialService(materialRepo, projectRepo, notificationService, log)
	equipmentService := service.NewEquipmentService(equipmentRepo, projectRepo, log)
	contractService := service.NewContractService(contractRepo, projectRepo, log)
	reportService := service.NewReportService(reportRepo, projectRepo, log)
	purchaseService := service.NewPurchaseService(purchaseRepo, projectRepo, notificationService, log)
	chatService := service.NewChatService(chatRepo, projectRepo, log)

	// 7. WebSocket hub + notification push consumer
	hub := ws.NewHub(log)
	deduper := util.NewDeduper(rdb, notificationDedupeTTL, log)

	consumer, err := mq.NewConsumer(cfg.MQ.URL, "notification_push", "notification.created", log)
	if err != nil {
		log.Fatal("MQ consumer init failed", zap.Error(err))
	}
	defer consumer.Close()
	consumer.SetHandler(mqhandler.NewNotificationCreatedHandler(hub, deduper, publisher, log).Handle)

	go func() {
		if err := consumer.StartConsuming(); err != nil {
			log.Fatal("Consumer start failed", zap.Error(err))
		}
	}()

	// 8. Init handlers + router
	handlers := httpserver.Handlers{
		Auth:         handler.NewAuthHandler(authService),
		Project:      handler.NewProjectHandler(projectService),
		Task:         handler.NewTaskHandler(taskService),
		Material:     handler.NewMaterialHandler(materialService),
		Equipment:    handler.NewEquipmentHandler(equipmentService),
		Contract:     handler.NewContractHandler(contractService),
		Report:       handler.NewReportHandler(reportService),
		Purchase:     handler.NewPurchaseHandler(purchaseService),
		Notification: handler.NewNotificationHandler(notificationService),
		Chat:         handler.NewChatHandler(chatService),
		WS:           handler.NewWSHandler(hub, chatService, cfg.JWT.Secret, log),
	}
	router := httpserver.NewRouter(handlers, cfg.JWT.Secret, dbConn, consumer, log)

	srv := &http.Server{
		Addr:    cfg.Server.Port,
		Handler: router.Engine,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server start failed", zap.Error(err))
		}
	}()

	// 9. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	consumer.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}
	log.Info("Server stopped")
}
