package middleware

import (
	"net/http"

	"UniPath/internal/auth"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Objects are echo route patterns, so keyMatch2 treats :params and /* as
// wildcards. A deny rule beats any allow.
const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act, eft

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow)) && !some(where (p.eft == deny))

[matchers]
m = g(r.sub, p.sub) && keyMatch2(r.obj, p.obj) && (p.act == "*" || r.act == p.act)
`

var rbacPolicies = [][]string{
	{auth.RoleStudent, "/api/*", "*", "allow"},
	{auth.RoleStudent, "/api/applications/:id/status", "PATCH", "deny"},
	{auth.RoleStudent, "/api/universities", "POST", "deny"},
	{auth.RoleStudent, "/api/scholarships", "POST", "deny"},
	{auth.RoleStudent, "/api/resources", "POST", "deny"},
	{auth.RoleStudent, "/api/admin/*", "*", "deny"},
	{auth.RoleStudent, "/api/notifications/test", "POST", "deny"},

	{auth.RoleStaff, "/api/*", "*", "allow"},
	{auth.RoleStaff, "/api/admin/*", "*", "deny"},
	{auth.RoleStaff, "/api/notifications/test", "POST", "deny"},

	{auth.RoleAdmin, "/api/*", "*", "allow"},
}

// NewCasbinEnforcer builds the RBAC enforcer with its policy defined in code.
func NewCasbinEnforcer() (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, errors.Wrap(err, "parsing rbac model")
	}
	enf, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, errors.Wrap(err, "creating enforcer")
	}
	if _, err := enf.AddPolicies(rbacPolicies); err != nil {
		return nil, errors.Wrap(err, "loading rbac policies")
	}
	return enf, nil
}

// CasbinMiddleware enforces RBAC on the matched route pattern and method.
func CasbinMiddleware(enf *casbin.Enforcer, logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, _, err := auth.CurrentUser(c)
			if err != nil {
				return err
			}
			obj := c.Path()
			act := c.Request().Method
			allowed, err := enf.Enforce(claims.Role, obj, act)
			if err != nil {
				return errors.Wrap(err, "enforcing rbac")
			}
			if !allowed {
				logger.Debug("rbac denied", zap.String("role", claims.Role), zap.String("obj", obj), zap.String("act", act))
				return echo.NewHTTPError(http.StatusForbidden, "insufficient permissions")
			}
			return next(c)
		}
	}
}
