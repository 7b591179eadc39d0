package catalog

import (
	"net/http"

	"UniPath/internal/apperr"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CatalogHandler struct {
	service *CatalogService
}

func NewCatalogHandler(service *CatalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

func parseFilter(c echo.Context) (ListFilter, error) {
	var f ListFilter
	err := echo.QueryParamsBinder(c).
		Int("page", &f.Page).
		Int("limit", &f.Limit).
		String("country", &f.Country).
		String("degreeLevel", &f.DegreeLevel).
		String("search", &f.Search).
		String("category", &f.Category).
		BindError()
	if err != nil {
		return f, echo.NewHTTPError(http.StatusBadRequest, "invalid query parameters")
	}
	return f.normalize(), nil
}

func listResponse(key string, items interface{}, total int64, f ListFilter) echo.Map {
	return echo.Map{
		"success":     true,
		key:           items,
		"total":       total,
		"currentPage": f.Page,
		"totalPages":  (total + int64(f.Limit) - 1) / int64(f.Limit),
	}
}

func (h *CatalogHandler) ListUniversities(c echo.Context) error {
	f, err := parseFilter(c)
	if err != nil {
		return err
	}
	items, total, err := h.service.ListUniversities(c.Request().Context(), f)
	if err != nil {
		return err
	}
	if items == nil {
		items = []University{}
	}
	return c.JSON(http.StatusOK, listResponse("universities", items, total, f))
}

func (h *CatalogHandler) GetUniversity(c echo.Context) error {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return apperr.NewValidationError(errors.New("invalid id"), apperr.FieldError{Field: "id", Error: "must be a valid id"})
	}
	u, err := h.service.GetUniversity(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "university": u})
}

func (h *CatalogHandler) CreateUniversity(c echo.Context) error {
	var req UniversityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	u, err := h.service.CreateUniversity(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "university": u})
}

func (h *CatalogHandler) ListScholarships(c echo.Context) error {
	f, err := parseFilter(c)
	if err != nil {
		return err
	}
	items, total, err := h.service.ListScholarships(c.Request().Context(), f)
	if err != nil {
		return err
	}
	if items == nil {
		items = []Scholarship{}
	}
	return c.JSON(http.StatusOK, listResponse("scholarships", items, total, f))
}

func (h *CatalogHandler) CreateScholarship(c echo.Context) error {
	var req ScholarshipRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	s, err := h.service.CreateScholarship(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "scholarship": s})
}

func (h *CatalogHandler) ListResources(c echo.Context) error {
	f, err := parseFilter(c)
	if err != nil {
		return err
	}
	items, total, err := h.service.ListResources(c.Request().Context(), f)
	if err != nil {
		return err
	}
	if items == nil {
		items = []Resource{}
	}
	return c.JSON(http.StatusOK, listResponse("resources", items, total, f))
}

func (h *CatalogHandler) CreateResource(c echo.Context) error {
	var req ResourceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	r, err := h.service.CreateResource(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "resource": r})
}
