package middleware

import (
	"net/http"
	"strings"

	returnsapp "github.com/citadelbuy/returns/internal/application/returns"
	"github.com/citadelbuy/returns/internal/infrastructure/logger"
	"github.com/citadelbuy/returns/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Identity headers set by the API gateway after authenticating the caller
const (
	UserIDHeader   = "X-User-ID"
	UserRoleHeader = "X-User-Role"
)

const actorKey = "actor"

// Actor reads the caller identity forwarded by the gateway. Requests without a
// valid user id are rejected with 401. Any role other than admin is treated as
// a customer.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := uuid.Parse(strings.TrimSpace(c.GetHeader(UserIDHeader)))
		if err != nil || userID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeUnauthorized,
				"A valid "+UserIDHeader+" header is required",
				GetRequestID(c),
			))
			return
		}

		role := returnsapp.RoleCustomer
		if strings.EqualFold(strings.TrimSpace(c.GetHeader(UserRoleHeader)), string(returnsapp.RoleAdmin)) {
			role = returnsapp.RoleAdmin
		}
		c.Set(actorKey, returnsapp.Actor{UserID: userID, Role: role})

		ctx, _ := logger.WithActorID(c.Request.Context(), logger.FromContext(c.Request.Context()), userID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// GetActor returns the actor set by Actor
func GetActor(c *gin.Context) (returnsapp.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return returnsapp.Actor{}, false
	}
	actor, ok := v.(returnsapp.Actor)
	return actor, ok
}
