package middlewares

import (
	"net/http"
	"strings"

	"bitbucket.org/mmdatafocus/contactsync_backend/utils"
	"github.com/gin-gonic/gin"
)

// AuthMiddleware validates a bearer token when one is present and loads the
// caller's identity into the request context. Anonymous requests pass
// through; handlers decide what requires authentication.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.Request.Header.Get("Authorization")

		if auth == "" {
			c.Next()
			return
		}

		bearer := "Bearer "
		if !strings.HasPrefix(auth, bearer) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		auth = auth[len(bearer):]

		validate, err := utils.JwtValidate(auth)
		if err != nil || !validate.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		claim, ok := validate.Claims.(*utils.JwtCustomClaim)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		ctx := utils.SetUserIdInContext(c.Request.Context(), claim.ID)
		if claim.ContactId != 0 {
			ctx = utils.SetSessionContactIdInContext(ctx, claim.ContactId)
		}
		ctx = utils.SetIsAdminInContext(ctx, claim.Role == "admin")

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
