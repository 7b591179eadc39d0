package deadline

import (
	"net/http"

	"UniPath/internal/apperr"
	"UniPath/internal/auth"
	"UniPath/internal/notification"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DeadlineHandler struct {
	service *DeadlineService
	sweeper *Sweeper
	cleaner *Cleaner
}

func NewDeadlineHandler(service *DeadlineService, sweeper *Sweeper, cleaner *Cleaner) *DeadlineHandler {
	return &DeadlineHandler{service: service, sweeper: sweeper, cleaner: cleaner}
}

func objectIDParam(c echo.Context, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		return id, apperr.NewValidationError(errors.New("invalid id"),
			apperr.FieldError{Field: name, Error: "must be a valid id"})
	}
	return id, nil
}

func (h *DeadlineHandler) List(c echo.Context) error {
	_, userID, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	var (
		f      Filter
		within = -1
	)
	err = echo.QueryParamsBinder(c).
		Int("withinDays", &within).
		String("country", &f.Country).
		String("degreeLevel", &f.DegreeLevel).
		BindError()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query parameters")
	}
	if c.QueryParam("withinDays") != "" {
		if within < 0 {
			return apperr.NewValidationError(errors.New("invalid withinDays"),
				apperr.FieldError{Field: "withinDays", Error: "withinDays must be zero or greater"})
		}
		f.WithinDays = &within
	}

	views, err := h.service.List(c.Request().Context(), userID, f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "deadlines": views, "total": len(views)})
}

func (h *DeadlineHandler) Save(c echo.Context) error {
	_, userID, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	var req SaveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	uniID, _ := primitive.ObjectIDFromHex(req.UniversityID)
	progID, _ := primitive.ObjectIDFromHex(req.ProgramID)

	sp, err := h.service.SaveProgram(c.Request().Context(), userID, uniID, progID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "savedProgram": sp})
}

func (h *DeadlineHandler) Remove(c echo.Context) error {
	_, userID, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	id, err := objectIDParam(c, "savedProgramId")
	if err != nil {
		return err
	}
	if err := h.service.RemoveProgram(c.Request().Context(), userID, id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "program removed"})
}

func (h *DeadlineHandler) Notifications(c echo.Context) error {
	_, userID, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	q, err := notification.ParseQuery(c)
	if err != nil {
		return err
	}
	page, err := h.service.Notifications(c.Request().Context(), userID, q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":       true,
		"notifications": page.Items,
		"total":         page.Total,
		"currentPage":   page.Page,
		"totalPages":    page.TotalPages,
	})
}

func (h *DeadlineHandler) MarkNotificationRead(c echo.Context) error {
	_, userID, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	id, err := objectIDParam(c, "notificationId")
	if err != nil {
		return err
	}
	if err := h.service.MarkNotificationRead(c.Request().Context(), userID, id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "notification marked as read"})
}

func (h *DeadlineHandler) GetPreferences(c echo.Context) error {
	_, userID, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	prefs, err := h.service.Preferences(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "preferences": prefs})
}

func (h *DeadlineHandler) UpdatePreferences(c echo.Context) error {
	_, userID, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	var req PreferencesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	prefs, err := h.service.UpdatePreferences(c.Request().Context(), userID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "preferences": prefs})
}

// RunSweep triggers a sweep synchronously.
func (h *DeadlineHandler) RunSweep(c echo.Context) error {
	res, err := h.sweeper.Run(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "result": res})
}

func (h *DeadlineHandler) RunCleanup(c echo.Context) error {
	res, err := h.cleaner.Run(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "result": res})
}
