package notification

import (
	"net/http"
	"strconv"

	"UniPath/internal/apperr"
	"UniPath/internal/auth"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationHandler struct {
	ledger *Ledger
}

func NewNotificationHandler(ledger *Ledger) *NotificationHandler {
	return &NotificationHandler{ledger: ledger}
}

// ParseQuery reads page, limit, type and read from the query string.
func ParseQuery(c echo.Context) (Query, error) {
	var (
		q   Query
		typ string
	)
	err := echo.QueryParamsBinder(c).
		Int("page", &q.Page).
		Int("limit", &q.Limit).
		String("type", &typ).
		BindError()
	if err != nil {
		return q, echo.NewHTTPError(http.StatusBadRequest, "invalid pagination parameters")
	}
	q.Type = Type(typ)
	if raw := c.QueryParam("read"); raw != "" {
		read, err := strconv.ParseBool(raw)
		if err != nil {
			return q, apperr.NewValidationError(errors.New("invalid read filter"),
				apperr.FieldError{Field: "read", Error: "read must be true or false"})
		}
		q.Read = &read
	}
	return q.Normalize(), nil
}

func pageResponse(key string, p *Page) echo.Map {
	return echo.Map{
		"success":     true,
		key:           p.Items,
		"total":       p.Total,
		"currentPage": p.Page,
		"totalPages":  p.TotalPages,
	}
}

func pathID(c echo.Context, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		return id, apperr.NewValidationError(errors.New("invalid id"),
			apperr.FieldError{Field: name, Error: "must be a valid id"})
	}
	return id, nil
}

func (h *NotificationHandler) List(c echo.Context) error {
	_, userID, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	q, err := ParseQuery(c)
	if err != nil {
		return err
	}
	page, err := h.ledger.List(c.Request().Context(), CategoryStatus, userID, q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pageResponse("notifications", page))
}

func (h *NotificationHandler) Unread(c echo.Context) error {
	_, userID, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	items, err := h.ledger.ListUnread(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "notifications": items})
}

func (h *NotificationHandler) UnreadCount(c echo.Context) error {
	_, userID, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	n, err := h.ledger.UnreadCount(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "unreadCount": n})
}

func (h *NotificationHandler) MarkRead(c echo.Context) error {
	_, userID, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.ledger.MarkOneRead(c.Request().Context(), CategoryStatus, userID, id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "notification marked as read"})
}

func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	_, userID, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	n, err := h.ledger.MarkAllRead(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "modifiedCount": n})
}

func (h *NotificationHandler) MarkManyRead(c echo.Context) error {
	_, userID, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	var req MarkReadRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	ids, err := ParseIDs("notificationIds", req.NotificationIDs)
	if err != nil {
		return err
	}
	n, err := h.ledger.MarkRead(c.Request().Context(), CategoryStatus, userID, ids)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "modifiedCount": n})
}

func (h *NotificationHandler) Delete(c echo.Context) error {
	_, userID, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	n, err := h.ledger.Delete(c.Request().Context(), CategoryStatus, userID, []primitive.ObjectID{id})
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("notification")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "notification deleted"})
}

func (h *NotificationHandler) DeleteMany(c echo.Context) error {
	_, userID, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	var req DeleteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	ids, err := ParseIDs("notificationIds", req.NotificationIDs)
	if err != nil {
		return err
	}
	n, err := h.ledger.Delete(c.Request().Context(), CategoryStatus, userID, ids)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "deletedCount": n})
}

func (h *NotificationHandler) DeleteRead(c echo.Context) error {
	_, userID, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	n, err := h.ledger.DeleteRead(c.Request().Context(), CategoryStatus, userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "deletedCount": n})
}

type testRequest struct {
	Title   string `json:"title" validate:"max=200"`
	Message string `json:"message" validate:"max=2000"`
}

// CreateTest writes a system notification for the caller.
func (h *NotificationHandler) CreateTest(c echo.Context) error {
	_, userID, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	var req testRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if req.Title == "" {
		req.Title = "Test notification"
	}
	if req.Message == "" {
		req.Message = "This is a test notification."
	}
	n := &Notification{
		UserID:   userID,
		Category: CategoryStatus,
		Type:     TypeSystem,
		Title:    req.Title,
		Message:  req.Message,
		Priority: PriorityLow,
	}
	if err := h.ledger.Create(c.Request().Context(), n); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "notification": n})
}
