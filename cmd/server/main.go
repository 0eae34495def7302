package main

import (
    "context"
    "errors"
    "log"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"

    "github.com/Ioioiog/dashboardly/internal/blob"
    "github.com/Ioioiog/dashboardly/internal/config"
    "github.com/Ioioiog/dashboardly/internal/database"
    "github.com/Ioioiog/dashboardly/internal/event"
    "github.com/Ioioiog/dashboardly/internal/handler"
    "github.com/Ioioiog/dashboardly/internal/queue"
    "github.com/Ioioiog/dashboardly/internal/repository"
    "github.com/Ioioiog/dashboardly/internal/router"
    "github.com/Ioioiog/dashboardly/internal/service"
)

func main() {
    _ = godotenv.Load()
    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database: %v", err)
    }
    defer db.Close()

    // Without Redis the server still answers every request; only the
    // live streams and the rate limit go dark.
    var bus event.Bus = event.NopBus{}
    redisClient := config.NewRedisClient()
    if redisClient != nil {
        bus = event.NewRedisBus(redisClient)
    } else {
        log.Println("redis unavailable, change notifications and rate limiting disabled")
    }

    blobs := blob.New(cfg.BlobRoot, cfg.BlobBaseURL, []byte(cfg.BlobSecret))

    requests := repository.NewRequestRepo(db)
    messages := repository.NewMessageRepo(db)
    documents := repository.NewDocumentRepo(db)
    directory := repository.NewDirectoryRepo(db)
    notifications := repository.NewNotificationRepo(db)

    requestSvc := service.NewRequestService(requests, documents, directory, blobs, bus, queue.PublishMaintenanceEvent)
    chatSvc := service.NewChatService(requests, messages, directory, bus)
    notifSvc := service.NewNotificationService(notifications, requests, directory, bus)

    ctx, cancel := context.WithCancel(context.Background())
    defer cancel()
    go func() {
        if err := notifSvc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
            log.Printf("notifier: stopped: %v", err)
        }
    }()
    go func() {
        if err := queue.StartMaintenanceConsumer(); err != nil {
            log.Printf("audit-consumer: stopped: %v", err)
        }
    }()

    e := echo.New()
    e.HideBanner = true
    router.Register(e, router.Handlers{
        Requests:      handler.NewRequestHandler(requestSvc),
        Chat:          handler.NewChatHandler(chatSvc),
        Documents:     handler.NewDocumentHandler(requestSvc),
        Notifications: handler.NewNotificationHandler(notifSvc),
        Streams:       handler.NewStreamHandler(chatSvc, notifSvc),
        Files:         handler.NewFilesHandler(blobs),
    }, db, cfg.JWTSecret, redisClient, cfg.RatePerMinute)

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env)
    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}
