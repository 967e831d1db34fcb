package client

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes wires the client-facing endpoints. Neither requires
// authentication: possession of an authorized HWID (or of a token) is
// the credential.
func RegisterRoutes(e *echo.Echo, h *Handler) {

	// Request a license token for a HWID
	e.POST("/activar", h.Activate)

	// Stateless re-verification of a previously issued token
	e.POST("/verificar", h.Verify)
}
