package admin

import "github.com/labstack/echo/v4"

func RegisterRoutes(g *echo.Group, h *Handler) {

	// Registry inspection
	g.GET("/list", h.List)

	// Registry mutation
	g.POST("/add_or_update", h.AddOrUpdate)
	g.POST("/remove", h.Remove)
}
