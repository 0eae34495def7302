package handler

import (
    "encoding/json"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/Ioioiog/dashboardly/internal/model"
    "github.com/Ioioiog/dashboardly/internal/service"
)

// RequestHandler serves the maintenance-request surface.
type RequestHandler struct {
    svc *service.RequestService
}

func NewRequestHandler(svc *service.RequestService) *RequestHandler {
    return &RequestHandler{svc: svc}
}

// Create handles POST /v1/requests.
func (h *RequestHandler) Create(c echo.Context) error {
    actor, ok := actorFrom(c)
    if !ok {
        return unauthenticated(c)
    }
    var in service.CreateRequestInput
    if err := c.Bind(&in); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "malformed body"})
    }
    req, err := h.svc.Create(c.Request().Context(), actor, in)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, service.RenderFor(actor.Role, req))
}

// List handles GET /v1/requests with an optional status filter.
func (h *RequestHandler) List(c echo.Context) error {
    actor, ok := actorFrom(c)
    if !ok {
        return unauthenticated(c)
    }
    reqs, err := h.svc.List(c.Request().Context(), actor, c.QueryParam("status"))
    if err != nil {
        return writeError(c, err)
    }
    views := make([]map[string]any, 0, len(reqs))
    for _, r := range reqs {
        views = append(views, service.RenderFor(actor.Role, r))
    }
    return c.JSON(http.StatusOK, echo.Map{"requests": views})
}

// Get handles GET /v1/requests/:id.
func (h *RequestHandler) Get(c echo.Context) error {
    actor, ok := actorFrom(c)
    if !ok {
        return unauthenticated(c)
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    req, err := h.svc.Get(c.Request().Context(), actor, id)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, service.RenderFor(actor.Role, req))
}

// Patch handles PATCH /v1/requests/:id with a free-form field map.
func (h *RequestHandler) Patch(c echo.Context) error {
    actor, ok := actorFrom(c)
    if !ok {
        return unauthenticated(c)
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    var fields map[string]any
    if err := json.NewDecoder(c.Request().Body).Decode(&fields); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "malformed body"})
    }
    req, err := h.svc.Patch(c.Request().Context(), actor, id, fields)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, service.RenderFor(actor.Role, req))
}

// Status handles POST /v1/requests/:id/status.
func (h *RequestHandler) Status(c echo.Context) error {
    actor, ok := actorFrom(c)
    if !ok {
        return unauthenticated(c)
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    var body struct {
        Status string `json:"status"`
    }
    if err := c.Bind(&body); err != nil || !model.ValidStatus(body.Status) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
    }
    req, err := h.svc.Transition(c.Request().Context(), actor, id, body.Status)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, service.RenderFor(actor.Role, req))
}

// Assign handles POST /v1/requests/:id/assign.
func (h *RequestHandler) Assign(c echo.Context) error {
    actor, ok := actorFrom(c)
    if !ok {
        return unauthenticated(c)
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    var body struct {
        ContractorID uint64 `json:"contractor_id"`
    }
    if err := c.Bind(&body); err != nil || body.ContractorID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "contractor_id required"})
    }
    req, err := h.svc.Assign(c.Request().Context(), actor, id, body.ContractorID)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, service.RenderFor(actor.Role, req))
}

// scheduleBody distinguishes an absent key (leave the component alone)
// from an explicit null (clear it).
type scheduleBody struct {
    Day  json.RawMessage `json:"day"`
    Time json.RawMessage `json:"time"`
}

// Schedule handles PATCH /v1/requests/:id/schedule.  Day and time are
// independent drafts; either or both may arrive in one call.
func (h *RequestHandler) Schedule(c echo.Context) error {
    actor, ok := actorFrom(c)
    if !ok {
        return unauthenticated(c)
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    var body scheduleBody
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "malformed body"})
    }
    if body.Day == nil && body.Time == nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "day or time required"})
    }

    ctx := c.Request().Context()
    var req *model.MaintenanceRequest
    if body.Day != nil {
        day, err := parseDay(body.Day)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "day must be YYYY-MM-DD or null"})
        }
        if req, err = h.svc.SetScheduleDay(ctx, actor, id, day); err != nil {
            return writeError(c, err)
        }
    }
    if body.Time != nil {
        tod, err := parseTimeOfDay(body.Time)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "time must be HH:MM or null"})
        }
        if req, err = h.svc.SetScheduleTime(ctx, actor, id, tod); err != nil {
            return writeError(c, err)
        }
    }
    return c.JSON(http.StatusOK, service.RenderFor(actor.Role, req))
}

// CommitSchedule handles POST /v1/requests/:id/schedule/commit.
func (h *RequestHandler) CommitSchedule(c echo.Context) error {
    actor, ok := actorFrom(c)
    if !ok {
        return unauthenticated(c)
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    req, err := h.svc.CommitSchedule(c.Request().Context(), actor, id)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, service.RenderFor(actor.Role, req))
}

// Rate handles POST /v1/requests/:id/rating.
func (h *RequestHandler) Rate(c echo.Context) error {
    actor, ok := actorFrom(c)
    if !ok {
        return unauthenticated(c)
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    var body struct {
        Rating  uint8  `json:"rating"`
        Comment string `json:"comment"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "malformed body"})
    }
    req, err := h.svc.Rate(c.Request().Context(), actor, id, body.Rating, body.Comment)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, service.RenderFor(actor.Role, req))
}

func parseDay(raw json.RawMessage) (*time.Time, error) {
    if string(raw) == "null" {
        return nil, nil
    }
    var s string
    if err := json.Unmarshal(raw, &s); err != nil {
        return nil, err
    }
    day, err := time.ParseInLocation("2006-01-02", s, time.UTC)
    if err != nil {
        return nil, err
    }
    return &day, nil
}

func parseTimeOfDay(raw json.RawMessage) (*string, error) {
    if string(raw) == "null" {
        return nil, nil
    }
    var s string
    if err := json.Unmarshal(raw, &s); err != nil {
        return nil, err
    }
    return &s, nil
}
