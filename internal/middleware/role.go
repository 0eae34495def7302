package middleware

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// RequireRole rejects callers whose role claim is not in the allowed
// set.  It assumes JWTAuth already ran and stored the role under
// ContextRole.
func RequireRole(roles ...string) echo.MiddlewareFunc {
    allowed := make(map[string]bool, len(roles))
    for _, r := range roles {
        allowed[r] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            role, ok := c.Get(ContextRole).(string)
            if !ok || !allowed[role] {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
            }
            return next(c)
        }
    }
}
