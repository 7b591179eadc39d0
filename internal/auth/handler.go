package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type AuthHandler struct {
	service *UserService
}

func NewAuthHandler(service *UserService) *AuthHandler {
	return &AuthHandler{service: service}
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.service.RegisterUser(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "user": user})
}

func (h *AuthHandler) Login(c echo.Context) error {
	var cred Credential
	if err := c.Bind(&cred); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&cred); err != nil {
		return err
	}

	token, user, err := h.service.AuthenticateUser(c.Request().Context(), cred)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "token": token, "user": user})
}

func (h *AuthHandler) Me(c echo.Context) error {
	_, id, err := CurrentUser(c)
	if err != nil {
		return err
	}
	user, err := h.service.Me(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": user})
}
