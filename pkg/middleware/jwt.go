package middleware

import (
	"net/http"

	"UniPath/internal/auth"

	"github.com/labstack/echo/v4"
)

// JWTMiddleware authenticates the bearer token and stores its claims under
// auth.ContextKey.
func JWTMiddleware(tokens *auth.TokenIssuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
			}
			claims, err := tokens.ValidateJWT(auth.BearerToken(header))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token").SetInternal(err)
			}
			c.Set(auth.ContextKey, claims)
			return next(c)
		}
	}
}
