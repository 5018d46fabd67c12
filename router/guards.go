package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gatehouse/internal/audit"
	"gatehouse/internal/auth"
)

const (
	msgUnauthenticated = "Authentication required"
	msgForbidden       = "Forbidden: insufficient permissions"
)

func identityFrom(c *gin.Context) (auth.Identity, bool) {
	return auth.IdentityFromContext(c.Request.Context())
}

// requireAuth 要求请求已认证；匿名请求得到 401（不记告警：匿名不是可疑行为）。
func requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := identityFrom(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msgUnauthenticated})
			return
		}
		c.Next()
	}
}

// requireRoles 要求已认证且角色命中集合；身份存在但权限不足时记告警。
func requireRoles(roles ...auth.Role) gin.HandlerFunc {
	allowed := make(map[auth.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		id, ok := identityFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msgUnauthenticated})
			return
		}
		if _, ok := allowed[id.Role]; !ok {
			audit.Forbidden(c.Request.URL.Path, id.SubjectID, 0)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": msgForbidden})
			return
		}
		c.Next()
	}
}

// canTouchUser 实现"本人或管理员"的属主检查。
func canTouchUser(actor auth.Identity, targetID int64) bool {
	return actor.Role == auth.RoleAdmin || actor.SubjectID == targetID
}
