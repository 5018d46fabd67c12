package router

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/gin-gonic/gin"

	"gatehouse/internal/audit"
	"gatehouse/internal/auth"
	"gatehouse/internal/store"
)

type userUpdateRequest struct {
	Email    *string `json:"email"`
	Username *string `json:"username"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
}

func setUsersAPIRoutes(r gin.IRoutes, opts Options) {
	r.GET("/users", requireRoles(auth.RoleAdmin), usersListHandler(opts))
	r.GET("/users/:id", requireAuth(), userGetHandler(opts))
	r.PUT("/users/:id", requireAuth(), userUpdateHandler(opts))
	r.DELETE("/users/:id", requireAuth(), userDeleteHandler(opts))
}

func usersListHandler(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := opts.Store.ListUsers(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "查询用户失败"})
			return
		}
		out := make([]gin.H, 0, len(users))
		for _, u := range users {
			out = append(out, userJSON(u))
		}
		c.JSON(http.StatusOK, gin.H{"users": out})
	}
}

func userGetHandler(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, _ := identityFrom(c)
		targetID, ok := paramID(c, "id")
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "无效的用户 id"})
			return
		}
		if !canTouchUser(actor, targetID) {
			audit.Forbidden(c.Request.URL.Path, actor.SubjectID, targetID)
			c.JSON(http.StatusForbidden, gin.H{"error": msgForbidden})
			return
		}
		u, err := opts.Store.GetUserByID(c.Request.Context(), targetID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "用户不存在"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": userJSON(u)})
	}
}

func userUpdateHandler(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, _ := identityFrom(c)
		targetID, ok := paramID(c, "id")
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "无效的用户 id"})
			return
		}
		if !canTouchUser(actor, targetID) {
			audit.Forbidden(c.Request.URL.Path, actor.SubjectID, targetID)
			c.JSON(http.StatusForbidden, gin.H{"error": msgForbidden})
			return
		}

		var req userUpdateRequest
		if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "无效的参数"})
			return
		}

		u, err := opts.Store.GetUserByID(c.Request.Context(), targetID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "用户不存在"})
			return
		}

		// 改角色是独立于属主检查的更高权限操作：即便改自己也必须是管理员，
		// 否则普通用户能借"更新本人资料"自提权。
		if req.Role != nil {
			newRole, ok := auth.ParseRole(*req.Role)
			if !ok {
				c.JSON(http.StatusBadRequest, gin.H{"error": "角色不合法"})
				return
			}
			if string(newRole) != u.Role {
				if actor.Role != auth.RoleAdmin {
					audit.Forbidden(c.Request.URL.Path, actor.SubjectID, targetID)
					c.JSON(http.StatusForbidden, gin.H{"error": msgForbidden})
					return
				}
				if err := opts.Store.UpdateUserRole(c.Request.Context(), targetID, string(newRole)); err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": "更新角色失败"})
					return
				}
				u.Role = string(newRole)
			}
		}

		if req.Password != nil {
			hash, err := auth.HashPassword(*req.Password)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if err := opts.Store.UpdateUserPasswordHash(c.Request.Context(), targetID, hash); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "更新密码失败"})
				return
			}
		}

		email := u.Email
		if req.Email != nil {
			email = strings.ToLower(strings.TrimSpace(*req.Email))
			if _, err := mail.ParseAddress(email); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "邮箱不合法"})
				return
			}
		}
		username := u.Username
		if req.Username != nil {
			username = strings.TrimSpace(*req.Username)
			if username == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "账号名不能为空"})
				return
			}
		}
		if email != u.Email || username != u.Username {
			if err := opts.Store.UpdateUserProfile(c.Request.Context(), targetID, email, username); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					c.JSON(http.StatusNotFound, gin.H{"error": "用户不存在"})
					return
				}
				c.JSON(http.StatusConflict, gin.H{"error": "邮箱或账号名已被占用"})
				return
			}
		}

		u, err = opts.Store.GetUserByID(c.Request.Context(), targetID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "查询用户失败"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": userJSON(u)})
	}
}

func userDeleteHandler(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, _ := identityFrom(c)
		targetID, ok := paramID(c, "id")
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "无效的用户 id"})
			return
		}
		if !canTouchUser(actor, targetID) {
			audit.Forbidden(c.Request.URL.Path, actor.SubjectID, targetID)
			c.JSON(http.StatusForbidden, gin.H{"error": msgForbidden})
			return
		}
		if err := opts.Store.DeleteUser(c.Request.Context(), targetID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "用户不存在"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "删除用户失败"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "已删除"})
	}
}
