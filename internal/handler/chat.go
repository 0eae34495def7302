package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/Ioioiog/dashboardly/internal/service"
)

// ChatHandler serves the per-request message channel.
type ChatHandler struct {
    chat *service.ChatService
}

func NewChatHandler(chat *service.ChatService) *ChatHandler {
    return &ChatHandler{chat: chat}
}

// List handles GET /v1/requests/:id/messages.
func (h *ChatHandler) List(c echo.Context) error {
    actor, ok := actorFrom(c)
    if !ok {
        return unauthenticated(c)
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    msgs, err := h.chat.History(c.Request().Context(), actor, id)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"messages": msgs})
}

// Send handles POST /v1/requests/:id/messages.
func (h *ChatHandler) Send(c echo.Context) error {
    actor, ok := actorFrom(c)
    if !ok {
        return unauthenticated(c)
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    var body struct {
        Message string `json:"message"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "malformed body"})
    }
    msg, err := h.chat.Send(c.Request().Context(), actor, id, body.Message)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, msg)
}
