package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"bandwave/internal/shared/actor"
	"bandwave/internal/shared/utils"
)

const contextKeyActor = "actor"

// ActorFromHeaders resolves the already-authenticated caller from gateway
// headers. Authentication and token verification happen upstream; the engine
// trusts X-Actor-ID and X-Actor-Role as asserted identity.
func ActorFromHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		rawID := c.GetHeader("X-Actor-ID")
		rawRole := c.GetHeader("X-Actor-Role")

		if rawID == "" || rawRole == "" {
			utils.ErrorResponse(c, 401, "missing actor identity headers")
			c.Abort()
			return
		}

		id, err := strconv.ParseUint(rawID, 10, 32)
		if err != nil || id == 0 {
			utils.ErrorResponse(c, 401, "invalid actor identity")
			c.Abort()
			return
		}

		role := actor.Role(rawRole)
		switch role {
		case actor.RoleCustomer, actor.RoleAdmin, actor.RoleSystem:
		default:
			utils.ErrorResponse(c, 401, "invalid actor role")
			c.Abort()
			return
		}

		c.Set(contextKeyActor, actor.Actor{ID: uint(id), Role: role})
		c.Next()
	}
}

// RequireAdmin rejects callers without the admin role.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		a := GetActor(c)
		if !a.IsAdmin() {
			utils.ErrorResponse(c, 403, "admin role required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetActor returns the caller set by ActorFromHeaders. The zero Actor is
// returned on routes that skip the middleware.
func GetActor(c *gin.Context) actor.Actor {
	value, exists := c.Get(contextKeyActor)
	if !exists {
		return actor.Actor{}
	}
	a, ok := value.(actor.Actor)
	if !ok {
		return actor.Actor{}
	}
	return a
}
