// Package handler exposes the engine over HTTP.  Handlers stay thin:
// they parse the request, hand it to a service, and translate the
// error model onto status codes.
package handler

import (
    "errors"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/Ioioiog/dashboardly/internal/authz"
    "github.com/Ioioiog/dashboardly/internal/blob"
    "github.com/Ioioiog/dashboardly/internal/lifecycle"
    "github.com/Ioioiog/dashboardly/internal/middleware"
    "github.com/Ioioiog/dashboardly/internal/repository"
    "github.com/Ioioiog/dashboardly/internal/schedule"
    "github.com/Ioioiog/dashboardly/internal/service"
)

// actorFrom reads the identity placed in context by the JWT middleware.
func actorFrom(c echo.Context) (service.Actor, bool) {
    id, okID := c.Get(middleware.ContextUserID).(uint64)
    role, okRole := c.Get(middleware.ContextRole).(string)
    if !okID || !okRole {
        return service.Actor{}, false
    }
    return service.Actor{ID: id, Role: role}, true
}

func unauthenticated(c echo.Context) error {
    return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
}

// pathID parses a numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    if err != nil || id == 0 {
        return 0, errors.New("invalid " + name)
    }
    return id, nil
}

// writeError maps the engine's error model onto HTTP.  Rejections keep
// their specific message; only unexpected failures collapse to 500.
func writeError(c echo.Context, err error) error {
    var (
        verr *service.ValidationError
        ferr *authz.ForbiddenFieldError
        terr *lifecycle.InvalidTransitionError
        serr *blob.StorageError
    )
    switch {
    case errors.As(err, &verr),
        errors.Is(err, schedule.ErrIncompleteSchedule),
        errors.Is(err, schedule.ErrPastDate):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    case errors.As(err, &ferr), errors.Is(err, service.ErrAccessDenied):
        return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
    case errors.As(err, &terr):
        return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
    case errors.Is(err, repository.ErrNotFound), errors.Is(err, blob.ErrNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
    case errors.As(err, &serr):
        return c.JSON(http.StatusBadGateway, echo.Map{"error": "storage failure"})
    default:
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
    }
}
