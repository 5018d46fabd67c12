package router

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"gatehouse/internal/auth"
	"gatehouse/internal/store"
)

type balanceAdjustRequest struct {
	// Delta 用字符串承载十进制增量，避免 JSON 浮点精度损失。
	Delta string `json:"delta"`
}

func setBalanceAPIRoutes(r gin.IRoutes, opts Options) {
	r.GET("/balance", requireAuth(), balanceSelfHandler(opts))
	r.POST("/admin/users/:id/balance", requireRoles(auth.RoleAdmin), balanceAdjustHandler(opts))
}

func balanceSelfHandler(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := identityFrom(c)
		v, err := opts.Store.GetUserBalance(c.Request.Context(), id.SubjectID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "查询余额失败"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"balance": balanceJSON(v)})
	}
}

func balanceAdjustHandler(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		targetID, ok := paramID(c, "id")
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "无效的用户 id"})
			return
		}
		var req balanceAdjustRequest
		if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "无效的参数"})
			return
		}
		delta, err := decimal.NewFromString(strings.TrimSpace(req.Delta))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "delta 不是合法的十进制数"})
			return
		}
		next, err := opts.Store.AdjustUserBalance(c.Request.Context(), targetID, delta)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "用户不存在"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "调整余额失败"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"balance": balanceJSON(next)})
	}
}
