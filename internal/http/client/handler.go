package client

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"hwidlock.io/actserver/internal/hwid"
	"hwidlock.io/actserver/internal/token"
)

type Handler struct {
	Registry *hwid.Service
	Tokens   *token.Service

	// StoreTimeout bounds each registry read so an unreachable backend
	// cannot hang an activation request.
	StoreTimeout time.Duration
}

func NewHandler(registry *hwid.Service, tokens *token.Service, storeTimeout time.Duration) *Handler {
	return &Handler{
		Registry:     registry,
		Tokens:       tokens,
		StoreTimeout: storeTimeout,
	}
}

func (h *Handler) storeCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), h.StoreTimeout)
}

// POST /activar
func (h *Handler) Activate(c echo.Context) error {
	var req ActivateRequest
	if err := c.Bind(&req); err != nil || req.HWID == "" {
		return c.JSON(http.StatusBadRequest, ActivateResponse{Error: "no_hwid"})
	}

	ctx, cancel := h.storeCtx(c)
	defer cancel()

	rec, err := h.Registry.Lookup(ctx, req.HWID)
	if err != nil {
		// Backend details stay out of the response.
		return c.JSON(http.StatusServiceUnavailable, ActivateResponse{Error: "registry_unavailable"})
	}
	if rec == nil {
		return c.JSON(http.StatusForbidden, ActivateResponse{Error: "hwid_not_allowed"})
	}
	if rec.Expires.Expired(time.Now()) {
		return c.JSON(http.StatusForbidden, ActivateResponse{Error: "hwid_expired"})
	}

	tok, err := h.Tokens.Issue(rec.HWID, rec.Expires)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ActivateResponse{Error: "token_error"})
	}

	return c.JSON(http.StatusOK, ActivateResponse{OK: true, Token: tok})
}

// POST /verificar
func (h *Handler) Verify(c echo.Context) error {
	var req VerifyRequest
	if err := c.Bind(&req); err != nil || req.Token == "" {
		return c.JSON(http.StatusBadRequest, VerifyResponse{Error: "no_token"})
	}

	claims, err := h.Tokens.Verify(req.Token)
	if err != nil {
		// Expired is reported distinctly; bad signature and malformed
		// both collapse to "invalid" on the wire.
		if errors.Is(err, token.ErrExpired) {
			return c.JSON(http.StatusOK, VerifyResponse{Error: "expired"})
		}
		return c.JSON(http.StatusOK, VerifyResponse{Error: "invalid"})
	}

	return c.JSON(http.StatusOK, VerifyResponse{
		Valid: true,
		Data: &TokenData{
			HWID: claims.HWID,
			Exp:  claims.ExpiresAt.Unix(),
		},
	})
}
