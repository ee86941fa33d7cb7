// Package middleware holds the Echo middleware of the portal: bearer token
// authentication, role checks, rate limiting, response caching and
// request logging.
package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/elternsprechtag/internal/utils"
)

// JWTAuth validates the Bearer access token and stores the identity in the
// context under "user_id", "role" and "teacher_id". Handlers read them
// through UserID, Role and TeacherID.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			raw, ok := strings.CutPrefix(auth, "Bearer ")
			if !ok || strings.TrimSpace(raw) == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Nicht angemeldet"})
			}
			id, err := utils.ParseAccessToken(secret, strings.TrimSpace(raw))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Sitzung ungültig oder abgelaufen"})
			}
			c.Set(ctxUserID, id.UserID)
			c.Set(ctxRole, id.Role)
			c.Set(ctxTeacherID, id.TeacherID)
			return next(c)
		}
	}
}
