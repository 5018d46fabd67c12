package router

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/gin-gonic/gin"

	"gatehouse/internal/auth"
	"gatehouse/internal/store"
	"gatehouse/internal/token"
)

type userRegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type userLoginRequest struct {
	Login    string `json:"login"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func setUserAPIRoutes(r gin.IRoutes, opts Options) {
	r.POST("/user/register", userRegisterHandler(opts))
	r.POST("/user/login", userLoginHandler(opts))
	r.GET("/user/logout", userLogoutHandler(opts))
	r.GET("/user/self", requireAuth(), userSelfHandler(opts))
}

func userRegisterHandler(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !opts.AllowOpenRegistration {
			c.JSON(http.StatusForbidden, gin.H{"error": "当前未开放注册"})
			return
		}
		var req userRegisterRequest
		if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "无效的参数"})
			return
		}
		email := strings.ToLower(strings.TrimSpace(req.Email))
		username := strings.TrimSpace(req.Username)
		if _, err := mail.ParseAddress(email); err != nil || username == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "邮箱或账号名不合法"})
			return
		}
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		// 第一个注册的用户成为管理员，便于单体部署自举。
		role := auth.RoleUser
		n, err := opts.Store.CountUsers(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "注册失败，请重试"})
			return
		}
		if n == 0 {
			role = auth.RoleAdmin
		}

		id, err := opts.Store.CreateUser(c.Request.Context(), email, username, hash, string(role))
		if err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": "邮箱或账号名已被占用"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id, "role": role})
	}
}

func userLoginHandler(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req userLoginRequest
		if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "无效的参数"})
			return
		}
		login := strings.TrimSpace(req.Login)
		if login == "" {
			login = strings.TrimSpace(req.Username)
		}
		if login == "" {
			login = strings.TrimSpace(req.Email)
		}
		if login == "" || req.Password == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "无效的参数"})
			return
		}

		// email 统一按小写匹配；username 大小写敏感匹配。
		u, err := opts.Store.GetUserByEmail(c.Request.Context(), strings.ToLower(login))
		if errors.Is(err, store.ErrNotFound) {
			u, err = opts.Store.GetUserByUsername(c.Request.Context(), login)
		}
		if err != nil || !auth.CheckPassword(u.PasswordHash, req.Password) || u.Status != store.UserStatusEnabled {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "邮箱/账号名或密码错误"})
			return
		}
		role, ok := auth.ParseRole(u.Role)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "账号角色异常"})
			return
		}

		raw, err := opts.Tokens.Sign(auth.Identity{SubjectID: u.ID, Email: u.Email, Role: role})
		if err != nil {
			// SigningError 属于不可恢复的配置故障：不重试，直接暴露为内部错误。
			var sigErr *token.SigningError
			if errors.As(err, &sigErr) {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "服务配置异常"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "登录失败，请重试"})
			return
		}
		opts.Sessions.Attach(c.Writer, raw)
		c.JSON(http.StatusOK, gin.H{"user": userJSON(u)})
	}
}

func userLogoutHandler(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		opts.Sessions.Clear(c.Writer)
		c.JSON(http.StatusOK, gin.H{"message": "已退出登录"})
	}
}

func userSelfHandler(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := identityFrom(c)
		u, err := opts.Store.GetUserByID(c.Request.Context(), id.SubjectID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "用户不存在"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": userJSON(u)})
	}
}
