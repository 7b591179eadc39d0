package application

import (
	"net/http"

	"UniPath/internal/apperr"
	"UniPath/internal/auth"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ApplicationHandler struct {
	service *ApplicationService
}

func NewApplicationHandler(service *ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{service: service}
}

func idParam(c echo.Context) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return id, apperr.NewValidationError(errors.New("invalid id"),
			apperr.FieldError{Field: "id", Error: "must be a valid id"})
	}
	return id, nil
}

func (h *ApplicationHandler) Create(c echo.Context) error {
	_, userID, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	app, err := h.service.Create(c.Request().Context(), userID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "application": app})
}

func (h *ApplicationHandler) List(c echo.Context) error {
	_, userID, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	var (
		q      ListQuery
		status string
	)
	err = echo.QueryParamsBinder(c).
		Int("page", &q.Page).
		Int("limit", &q.Limit).
		String("status", &status).
		BindError()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query parameters")
	}
	q.Status = Status(status)
	items, total, q, err := h.service.List(c.Request().Context(), userID, q)
	if err != nil {
		return err
	}
	if items == nil {
		items = []Application{}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":      true,
		"applications": items,
		"total":        total,
		"currentPage":  q.Page,
		"totalPages":   (total + int64(q.Limit) - 1) / int64(q.Limit),
	})
}

func (h *ApplicationHandler) Get(c echo.Context) error {
	claims, userID, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	id, err := idParam(c)
	if err != nil {
		return err
	}
	app, err := h.service.Get(c.Request().Context(), id, userID, claims.IsStaff())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "application": app})
}

func (h *ApplicationHandler) Update(c echo.Context) error {
	_, userID, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	id, err := idParam(c)
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
	app, err := h.service.Update(c.Request().Context(), id, userID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "application": app})
}

func (h *ApplicationHandler) UpdateStatus(c echo.Context) error {
	_, actorID, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var req StatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	app, err := h.service.UpdateStatus(c.Request().Context(), id, actorID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "application": app})
}

func (h *ApplicationHandler) Withdraw(c echo.Context) error {
	_, userID, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	id, err := idParam(c)
	if err != nil {
		return err
	}
	if err := h.service.Withdraw(c.Request().Context(), id, userID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "application withdrawn"})
}
