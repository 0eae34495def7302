package handler

import (
    "encoding/json"
    "fmt"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/Ioioiog/dashboardly/internal/event"
    "github.com/Ioioiog/dashboardly/internal/service"
)

// heartbeatEvery keeps intermediaries from reaping idle SSE streams.
const heartbeatEvery = 25 * time.Second

// StreamHandler serves the two SSE surfaces: request-scoped events for
// open request views and user-scoped count pushes.
type StreamHandler struct {
    chat  *service.ChatService
    notif *service.NotificationService
}

func NewStreamHandler(chat *service.ChatService, notif *service.NotificationService) *StreamHandler {
    return &StreamHandler{chat: chat, notif: notif}
}

// RequestEvents handles GET /v1/requests/:id/stream.
func (h *StreamHandler) RequestEvents(c echo.Context) error {
    actor, ok := actorFrom(c)
    if !ok {
        return unauthenticated(c)
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    sub, err := h.chat.Subscribe(c.Request().Context(), actor, id)
    if err != nil {
        return writeError(c, err)
    }
    defer sub.Close()
    return streamSSE(c, sub)
}

// NotificationEvents handles GET /v1/notifications/stream.
func (h *StreamHandler) NotificationEvents(c echo.Context) error {
    actor, ok := actorFrom(c)
    if !ok {
        return unauthenticated(c)
    }
    sub, err := h.notif.Subscribe(c.Request().Context(), actor)
    if err != nil {
        return writeError(c, err)
    }
    defer sub.Close()
    return streamSSE(c, sub)
}

// streamSSE forwards bus events until the client disconnects or the
// subscription closes.  A dropped connection simply ends the stream;
// clients resubscribe and recover current state from the REST surface.
func streamSSE(c echo.Context, sub *event.Subscription) error {
    res := c.Response()
    res.Header().Set(echo.HeaderContentType, "text/event-stream")
    res.Header().Set("Cache-Control", "no-cache")
    res.Header().Set("Connection", "keep-alive")
    res.WriteHeader(http.StatusOK)
    res.Flush()

    heartbeat := time.NewTicker(heartbeatEvery)
    defer heartbeat.Stop()
    ctx := c.Request().Context()

    for {
        select {
        case <-ctx.Done():
            return nil
        case <-heartbeat.C:
            fmt.Fprint(res, ": ping\n\n")
            res.Flush()
        case ev, open := <-sub.C:
            if !open {
                return nil
            }
            data, err := json.Marshal(ev)
            if err != nil {
                continue
            }
            fmt.Fprintf(res, "event: %s\ndata: %s\n\n", ev.Type, data)
            res.Flush()
        }
    }
}
