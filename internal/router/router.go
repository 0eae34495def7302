// Package router maps the HTTP surface onto the handlers.  Route
// groups carry the JWT, role and rate-limit middleware; the file
// serving route is public because the signed URL is the credential.
package router

import (
    "database/sql"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/Ioioiog/dashboardly/internal/handler"
    "github.com/Ioioiog/dashboardly/internal/middleware"
    "github.com/Ioioiog/dashboardly/internal/model"
)

// Handlers bundles everything the router wires up.
type Handlers struct {
    Requests      *handler.RequestHandler
    Chat          *handler.ChatHandler
    Documents     *handler.DocumentHandler
    Notifications *handler.NotificationHandler
    Streams       *handler.StreamHandler
    Files         *handler.FilesHandler
}

// Register wires every route.  redisClient may be nil; the rate limit
// then disables itself.
func Register(e *echo.Echo, h Handlers, db *sql.DB, jwtSecret string, redisClient *redis.Client, ratePerMinute int) {
    e.GET("/healthz", handler.Health(db))

    // The signature carried in the URL is the access credential here.
    e.GET("/v1/files/*", h.Files.Serve)

    v1 := e.Group("/v1")
    v1.Use(middleware.JWTAuth(jwtSecret))
    v1.Use(middleware.RequireRole(model.RoleLandlord, model.RoleTenant, model.RoleContractor))
    v1.Use(middleware.RateLimit(redisClient, ratePerMinute))

    v1.POST("/requests", h.Requests.Create, middleware.RequireRole(model.RoleLandlord, model.RoleTenant))
    v1.GET("/requests", h.Requests.List)
    v1.GET("/requests/:id", h.Requests.Get)
    v1.PATCH("/requests/:id", h.Requests.Patch)
    v1.POST("/requests/:id/status", h.Requests.Status)
    v1.POST("/requests/:id/assign", h.Requests.Assign, middleware.RequireRole(model.RoleLandlord))
    v1.PATCH("/requests/:id/schedule", h.Requests.Schedule)
    v1.POST("/requests/:id/schedule/commit", h.Requests.CommitSchedule)
    v1.POST("/requests/:id/rating", h.Requests.Rate, middleware.RequireRole(model.RoleTenant))

    v1.GET("/requests/:id/messages", h.Chat.List)
    v1.POST("/requests/:id/messages", h.Chat.Send)
    v1.GET("/requests/:id/stream", h.Streams.RequestEvents)

    v1.POST("/requests/:id/documents", h.Documents.Attach)
    v1.GET("/requests/:id/documents", h.Documents.List)
    v1.GET("/requests/:id/documents/:docID/url", h.Documents.URL)
    v1.DELETE("/requests/:id/documents/:docID", h.Documents.Delete)

    v1.GET("/notifications/counts", h.Notifications.Counts)
    v1.POST("/notifications/:category/read", h.Notifications.MarkRead)
    v1.GET("/notifications/stream", h.Streams.NotificationEvents)
}
