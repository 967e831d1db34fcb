package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
)

// AdminHeader carries the shared admin credential.
const AdminHeader = "X-Admin-Token"

// AdminTokenAuth validates the X-Admin-Token header against the
// configured admin credential. Used for ADMIN endpoints. Returns 401 if
// authentication fails and never echoes the expected credential back.
func AdminTokenAuth(adminToken string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if adminToken == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "admin token not configured")
			}

			tok := c.Request().Header.Get(AdminHeader)
			if tok == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
			}

			if !constantEqual(adminToken, tok) {
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
			}

			return next(c)
		}
	}
}

// constantEqual provides constant-time string equality to avoid timing attacks.
func constantEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
