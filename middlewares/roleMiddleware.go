package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/pos_backend/models"
	"github.com/mmdatafocus/pos_backend/utils"
)

// RequireRoles admits authenticated users whose role is listed.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[string(r)] = true
	}
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if _, ok := utils.GetUserIdFromContext(ctx); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": utils.ErrUnauthorized.Error()})
			return
		}
		role, _ := utils.GetUserRoleFromContext(ctx)
		if !allowed[role] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": utils.ErrForbidden.Error()})
			return
		}
		c.Next()
	}
}

// RequireAuth admits any authenticated user.
func RequireAuth() gin.HandlerFunc {
	return RequireRoles(models.UserRoleAdmin, models.UserRoleShiftLead, models.UserRoleCashier)
}
