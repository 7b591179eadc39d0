package profile

import (
	"net/http"

	"UniPath/internal/auth"

	"github.com/labstack/echo/v4"
)

type ProfileHandler struct {
	service *ProfileService
}

func NewProfileHandler(service *ProfileService) *ProfileHandler {
	return &ProfileHandler{service: service}
}

func (h *ProfileHandler) Get(c echo.Context) error {
	_, userID, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	p, err := h.service.Get(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "profile": p})
}

func (h *ProfileHandler) Update(c echo.Context) error {
	_, userID, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	var req UpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	p, err := h.service.Update(c.Request().Context(), userID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "profile": p})
}
