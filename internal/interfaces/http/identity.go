package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/ats-pipeline/internal/domain/entity"
)

// Identity headers set by the authenticating gateway
const (
	HeaderUserID    = "X-User-ID"
	HeaderUserRole  = "X-User-Role"
	HeaderCompanyID = "X-Company-ID"
)

const (
	actorKey  = "actor"
	userIDKey = "user_id"
)

// identityMiddleware builds the Actor from gateway headers.
// The headers are trusted; requests without a usable identity get 401.
func identityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := parseActor(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "missing or invalid identity headers",
				Code:    CodeUnauthenticated,
			})
			return
		}

		c.Set(actorKey, actor)
		c.Set(userIDKey, actor.UserID)
		c.Next()
	}
}

func parseActor(c *gin.Context) (entity.Actor, bool) {
	userID, err := strconv.ParseInt(c.GetHeader(HeaderUserID), 10, 64)
	if err != nil || userID <= 0 {
		return entity.Actor{}, false
	}

	role, err := entity.ParseRole(c.GetHeader(HeaderUserRole))
	if err != nil {
		return entity.Actor{}, false
	}

	actor := entity.Actor{UserID: userID, Role: role}
	if raw := c.GetHeader(HeaderCompanyID); raw != "" {
		companyID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || companyID <= 0 {
			return entity.Actor{}, false
		}
		actor.CompanyID = &companyID
	}
	return actor, true
}

func actorFrom(c *gin.Context) entity.Actor {
	return c.MustGet(actorKey).(entity.Actor)
}
