package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appinventory "github.com/o4o-platform/inventory-engine/internal/application/inventory"
	"github.com/o4o-platform/inventory-engine/internal/interfaces/http/dto"
)

// actorContextKey is the gin context key the resolved actor is stored under
const actorContextKey = "actor"

// Identity headers set by the platform gateway after it authenticates the
// caller. This service trusts them; it does not verify credentials itself.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserName = "X-User-Name"
	HeaderVendorID = "X-Vendor-ID"
	HeaderUserRole = "X-User-Role"
)

// Actor resolves the acting identity from the gateway headers and rejects
// requests without one. Vendor-role callers must carry a vendor scope.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		userIDValue := c.GetHeader(HeaderUserID)
		if userIDValue == "" {
			abortUnauthorized(c, "missing "+HeaderUserID+" header")
			return
		}
		userID, err := uuid.Parse(userIDValue)
		if err != nil {
			abortUnauthorized(c, "malformed "+HeaderUserID+" header")
			return
		}

		actor := appinventory.Actor{
			UserID:   userID,
			UserName: c.GetHeader(HeaderUserName),
			Role:     c.GetHeader(HeaderUserRole),
		}
		if actor.Role == "" {
			actor.Role = "vendor"
		}

		if vendorValue := c.GetHeader(HeaderVendorID); vendorValue != "" {
			vendorID, err := uuid.Parse(vendorValue)
			if err != nil {
				abortUnauthorized(c, "malformed "+HeaderVendorID+" header")
				return
			}
			actor.VendorID = &vendorID
		} else if !actor.IsElevated() {
			abortUnauthorized(c, "missing "+HeaderVendorID+" header")
			return
		}

		c.Set(actorContextKey, actor)
		c.Next()
	}
}

// GetActor returns the actor resolved by the Actor middleware
func GetActor(c *gin.Context) (appinventory.Actor, bool) {
	value, exists := c.Get(actorContextKey)
	if !exists {
		return appinventory.Actor{}, false
	}
	actor, ok := value.(appinventory.Actor)
	return actor, ok
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponse(dto.ErrCodeUnauthorized, message, GetRequestID(c)))
}
