package auth

import (
	"log/slog"
	"net/http"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/gin-gonic/gin"
)

const policyModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch2(r.obj, p.obj) && regexMatch(r.act, p.act)
`

// Role permissions over API paths. A manager inherits everything a user
// may do and an admin everything a manager may do.
var rolePolicies = [][]string{
	{"user", "/api/v1/auth/logout", "POST"},
	{"user", "/api/v1/users/me", "GET"},
	{"user", "/api/v1/users/me/reservations", "GET"},
	{"user", "/api/v1/reservations", "GET|POST"},
	{"user", "/api/v1/reservations/:id", "GET|PATCH|DELETE"},
	{"user", "/api/v1/groups", "GET"},
	{"user", "/api/v1/groups/:id", "GET"},
	{"user", "/api/v1/groups/:id/events", "GET"},
	{"user", "/api/v1/groups/:id/join", "POST"},
	{"user", "/api/v1/groups/:id/leave", "POST"},
	{"user", "/api/v1/games/:id/purchase", "POST"},

	{"manager", "/api/v1/manager/cafe", "GET"},
	{"manager", "/api/v1/manager/reservations", "GET"},
	{"manager", "/api/v1/tables", "POST"},
	{"manager", "/api/v1/tables/:id", "PUT|DELETE"},
	{"manager", "/api/v1/games", "POST"},
	{"manager", "/api/v1/games/:id", "PUT|DELETE"},
	{"manager", "/api/v1/cafes/:id/image", "POST"},

	{"admin", "/api/v1/cafes", "POST"},
	{"admin", "/api/v1/cafes/:id", "PUT|DELETE"},
	{"admin", "/api/v1/managers", "GET|POST"},
	{"admin", "/api/v1/managers/:id", "DELETE"},
}

var roleHierarchy = [][]string{
	{"manager", "user"},
	{"admin", "manager"},
}

// NewEnforcer builds the in-memory role policy.
func NewEnforcer() (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(policyModel)
	if err != nil {
		return nil, err
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, err
	}
	if _, err := e.AddPolicies(rolePolicies); err != nil {
		return nil, err
	}
	if _, err := e.AddGroupingPolicies(roleHierarchy); err != nil {
		return nil, err
	}
	return e, nil
}

// Authorize checks the role set by AuthMiddleware against the policy for
// the request path and method. It must be used after AuthMiddleware.
func Authorize(e *casbin.Enforcer) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := CurrentRole(c)
		if role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		allowed, err := e.Enforce(role, c.Request.URL.Path, c.Request.Method)
		if err != nil {
			slog.Error("policy check failed", "role", role, "path", c.Request.URL.Path, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Authorization failed"})
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			return
		}
		c.Next()
	}
}
