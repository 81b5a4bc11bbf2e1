package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/pos_backend/config"
	"github.com/mmdatafocus/pos_backend/models"
	"github.com/mmdatafocus/pos_backend/utils"
)

const bearerPrefix = "Bearer "

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message})
}

// AuthMiddleware authenticates a Bearer token when one is sent.
// Requests without an Authorization header pass through anonymously; RequireRoles rejects them where needed.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.Request.Header.Get("Authorization")
		if auth == "" {
			c.Next()
			return
		}
		if !strings.HasPrefix(auth, bearerPrefix) {
			unauthorized(c, "unauthorized")
			return
		}

		claims, err := utils.JwtValidate(strings.TrimSpace(auth[len(bearerPrefix):]))
		if err != nil {
			unauthorized(c, "unauthorized")
			return
		}
		userId, err := claims.UserId()
		if err != nil {
			unauthorized(c, "unauthorized")
			return
		}

		active, err := models.IsTokenActive(claims.Id, userId)
		if err != nil {
			config.LogError(config.GetLogger(), "authMiddleware.go", "AuthMiddleware", "checking token", userId, err)
		}
		if !active {
			unauthorized(c, "unauthorized")
			return
		}

		ctx := c.Request.Context()
		user, err := models.GetUser(ctx, userId)
		if err != nil && !errors.Is(err, utils.ErrorRecordNotFound) {
			config.LogError(config.GetLogger(), "authMiddleware.go", "AuthMiddleware", "loading user", userId, err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		if user == nil || !user.Active() {
			if err := models.DestroyAllSessions(userId); err != nil {
				config.LogError(config.GetLogger(), "authMiddleware.go", "AuthMiddleware", "destroying sessions", userId, err)
			}
			unauthorized(c, "unauthorized")
			return
		}

		ctx = utils.SetTokenIdInContext(ctx, claims.Id)
		ctx = utils.SetUserIdInContext(ctx, user.ID)
		ctx = utils.SetUserEmailInContext(ctx, user.Email)
		ctx = utils.SetUserNameInContext(ctx, user.FullName)
		ctx = utils.SetUserRoleInContext(ctx, string(user.Role))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

