package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/Ioioiog/dashboardly/internal/service"
)

// NotificationHandler serves unread counts and the bulk mark-as-read.
type NotificationHandler struct {
    svc *service.NotificationService
}

func NewNotificationHandler(svc *service.NotificationService) *NotificationHandler {
    return &NotificationHandler{svc: svc}
}

// Counts handles GET /v1/notifications/counts.
func (h *NotificationHandler) Counts(c echo.Context) error {
    actor, ok := actorFrom(c)
    if !ok {
        return unauthenticated(c)
    }
    counts, err := h.svc.Counts(c.Request().Context(), actor)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, counts)
}

// MarkRead handles POST /v1/notifications/:category/read and returns
// the recomputed counts.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
    actor, ok := actorFrom(c)
    if !ok {
        return unauthenticated(c)
    }
    counts, err := h.svc.MarkRead(c.Request().Context(), actor, c.Param("category"))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, counts)
}
