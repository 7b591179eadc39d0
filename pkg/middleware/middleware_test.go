package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"UniPath/internal/apperr"
	"UniPath/internal/auth"
	"UniPath/internal/config"
	"UniPath/internal/validation"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) (*echo.Echo, *auth.TokenIssuer) {
	t.Helper()
	tokens := auth.NewTokenIssuer(&config.Config{Auth: config.AuthConfig{JWTKey: "k", TokenTTL: time.Hour}})
	enf, err := NewCasbinEnforcer()
	require.NoError(t, err)

	e := echo.New()
	v := validation.New()
	e.Validator = v
	e.HTTPErrorHandler = NewHTTPErrorHandler(v, zap.NewNop())

	ok := func(c echo.Context) error { return c.JSON(http.StatusOK, echo.Map{"success": true}) }
	api := e.Group("/api", JWTMiddleware(tokens), CasbinMiddleware(enf, zap.NewNop()))
	api.GET("/notifications", ok)
	api.POST("/admin/sweep", ok)
	return e, tokens
}

func TestAuthChain(t *testing.T) {
	e, tokens := newTestServer(t)
	token := func(role string) string {
		s, err := tokens.GenerateJWT(&auth.User{ID: primitive.NewObjectID(), Role: role})
		require.NoError(t, err)
		return "Bearer " + s
	}

	tests := []struct {
		name   string
		method string
		path   string
		header string
		want   int
	}{
		{"no token", http.MethodGet, "/api/notifications", "", http.StatusUnauthorized},
		{"garbage token", http.MethodGet, "/api/notifications", "Bearer nope", http.StatusUnauthorized},
		{"student read", http.MethodGet, "/api/notifications", token(auth.RoleStudent), http.StatusOK},
		{"student admin", http.MethodPost, "/api/admin/sweep", token(auth.RoleStudent), http.StatusForbidden},
		{"admin sweep", http.MethodPost, "/api/admin/sweep", token(auth.RoleAdmin), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestHTTPErrorHandler(t *testing.T) {
	e := echo.New()
	v := validation.New()
	e.HTTPErrorHandler = NewHTTPErrorHandler(v, zap.NewNop())

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{"not-found", apperr.NotFound("application"), http.StatusNotFound, `"error":"application not found"`},
		{"conflict", apperr.Conflict("program already saved"), http.StatusConflict, `"error":"program already saved"`},
		{"forbidden", apperr.Forbidden("not yours"), http.StatusForbidden, `"success":false`},
		{"unauthorized", apperr.ErrUnauthorized, http.StatusUnauthorized, `"success":false`},
		{"validation", apperr.NewValidationError(errors.New("bad id"), apperr.FieldError{Field: "id", Error: "must be a valid id"}),
			http.StatusBadRequest, `"id":"must be a valid id"`},
		{"http-error", echo.NewHTTPError(http.StatusTeapot, "short and stout"), http.StatusTeapot, `"error":"short and stout"`},
		{"internal", errors.New("connection reset by peer"), http.StatusInternalServerError, `"error":"Internal Server Error"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e.GET("/"+tt.name, func(echo.Context) error { return tt.err })
			req := httptest.NewRequest(http.MethodGet, "/"+tt.name, nil)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
			assert.NotContains(t, rec.Body.String(), "connection reset")
		})
	}
}
