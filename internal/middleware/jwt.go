package middleware

import (
    "net/http"
    "strconv"
    "strings"

    "github.com/golang-jwt/jwt/v5"
    "github.com/labstack/echo/v4"
)

// Context keys populated by JWTAuth and consumed by handlers.
const (
    ContextUserID = "user_id"
    ContextRole   = "role"
)

// JWTAuth validates a Bearer access token and injects the caller's id
// and role into the request context.  Identity is established upstream;
// this service only verifies the signature and trusts the claims.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            raw := strings.TrimPrefix(auth, "Bearer ")

            tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
                if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
                    return nil, echo.ErrUnauthorized
                }
                return []byte(secret), nil
            })
            if err != nil || !tok.Valid {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }

            claims, ok := tok.Claims.(jwt.MapClaims)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
            }
            userID, ok := subjectID(claims["sub"])
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid subject"})
            }
            role, ok := claims["role"].(string)
            if !ok || role == "" {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing role claim"})
            }

            c.Set(ContextUserID, userID)
            c.Set(ContextRole, role)
            return next(c)
        }
    }
}

// subjectID accepts the two encodings issuers use for the numeric
// subject: a JSON number or a decimal string.
func subjectID(v any) (uint64, bool) {
    switch sub := v.(type) {
    case float64:
        if sub < 0 {
            return 0, false
        }
        return uint64(sub), true
    case string:
        n, err := strconv.ParseUint(sub, 10, 64)
        if err != nil {
            return 0, false
        }
        return n, true
    }
    return 0, false
}
