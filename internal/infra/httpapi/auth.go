package httpapi

import (
	"strings"

	"bitealert_reminder_service/internal/domain/audit"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const actorContextKey = "actor"

// actorClaims are the identity fields carried by the staff bearer token.
type actorClaims struct {
	Role   string `json:"role"`
	Name   string `json:"name"`
	Center string `json:"center"`
	jwt.RegisteredClaims
}

// ActorMiddleware resolves the acting staff identity from the bearer
// credential for audit attribution. A missing or invalid credential
// yields the unattributed staff actor, never a 401. Audit attribution
// must not block a legitimate state change.
func ActorMiddleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(actorContextKey, resolveActor(c.Request().Header.Get("Authorization"), secret))
			return next(c)
		}
	}
}

func resolveActor(authHeader, secret string) audit.Actor {
	if secret == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return audit.UnattributedStaff
	}
	raw := strings.TrimPrefix(authHeader, "Bearer ")

	claims := &actorClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return audit.UnattributedStaff
	}

	actor := audit.Actor{Role: claims.Role, Name: claims.Name, Center: claims.Center}
	if actor.Role == "" {
		actor.Role = audit.UnattributedStaff.Role
	}
	return actor
}

// actorFromContext returns the resolved actor, defaulting to the
// unattributed staff actor when the middleware did not run.
func actorFromContext(c echo.Context) audit.Actor {
	if a, ok := c.Get(actorContextKey).(audit.Actor); ok {
		return a
	}
	return audit.UnattributedStaff
}
