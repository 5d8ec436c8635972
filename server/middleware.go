package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// authMiddleware resolves the bearer token to a user id and stores both on
// the request context.
func (s *Server) authMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		auth := c.Request().Header.Get("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing token"})
		}
		token := strings.TrimPrefix(auth, "Bearer ")

		var userID string
		err := s.db.QueryRow(`
			SELECT user_id FROM auth_sessions
			WHERE token = $1 AND expires_at > NOW()`,
			token,
		).Scan(&userID)

		if err != nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid or expired token"})
		}

		c.Set("user_id", userID)
		c.Set("token", token)
		return next(c)
	}
}
