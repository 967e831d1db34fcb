package admin

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"hwidlock.io/actserver/internal/expiry"
	"hwidlock.io/actserver/internal/hwid"
)

type Handler struct {
	Registry *hwid.Service

	// StoreTimeout bounds each registry operation, including its
	// conflict retries.
	StoreTimeout time.Duration
}

func NewHandler(registry *hwid.Service, storeTimeout time.Duration) *Handler {
	return &Handler{
		Registry:     registry,
		StoreTimeout: storeTimeout,
	}
}

func (h *Handler) storeCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), h.StoreTimeout)
}

// GET /admin/list
func (h *Handler) List(c echo.Context) error {
	ctx, cancel := h.storeCtx(c)
	defer cancel()

	list, err := h.Registry.List(ctx)
	if err != nil {
		return storeError(c, err)
	}
	if list == nil {
		list = []hwid.Status{}
	}
	return c.JSON(http.StatusOK, ListResponse{HWIDs: list})
}

// POST /admin/add_or_update
func (h *Handler) AddOrUpdate(c echo.Context) error {
	var req AddOrUpdateRequest
	if err := c.Bind(&req); err != nil || req.HWID == "" {
		return c.JSON(http.StatusBadRequest, AddOrUpdateResponse{Error: "no_hwid"})
	}

	// Day counts are resolved against "now"; anything else goes
	// through the general expiration parser. Absent both, the HWID
	// never expires.
	var exp expiry.Expiry
	switch {
	case req.Days != nil:
		exp = expiry.FromDays(*req.Days, time.Now())
	case req.Expires != nil:
		exp = expiry.Parse(req.Expires)
	default:
		exp = expiry.Never()
	}

	ctx, cancel := h.storeCtx(c)
	defer cancel()

	rec, updated, err := h.Registry.AddOrUpdate(ctx, req.HWID, exp)
	if err != nil {
		return storeError(c, err)
	}

	msg := "added"
	if updated {
		msg = "updated"
	}
	return c.JSON(http.StatusOK, AddOrUpdateResponse{
		OK:      true,
		Message: msg,
		HWID:    rec.HWID,
		Expires: rec.Expires,
	})
}

// POST /admin/remove
func (h *Handler) Remove(c echo.Context) error {
	var req RemoveRequest
	if err := c.Bind(&req); err != nil || req.HWID == "" {
		return c.JSON(http.StatusBadRequest, RemoveResponse{Error: "no_hwid"})
	}

	ctx, cancel := h.storeCtx(c)
	defer cancel()

	if err := h.Registry.Remove(ctx, req.HWID); err != nil {
		if errors.Is(err, hwid.ErrNotFound) {
			return c.JSON(http.StatusNotFound, RemoveResponse{Message: "not_found"})
		}
		return storeError(c, err)
	}

	return c.JSON(http.StatusOK, RemoveResponse{OK: true, Message: "removed", HWID: req.HWID})
}

// storeError maps registry failures to responses without leaking
// backend internals.
func storeError(c echo.Context, err error) error {
	if errors.Is(err, hwid.ErrBusy) {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "registry_busy"})
	}
	return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "registry_unavailable"})
}
