package router

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"gatehouse/internal/store"
)

func paramID(c *gin.Context, name string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(c.Param(name)), 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func userJSON(u store.User) gin.H {
	return gin.H{
		"id":         u.ID,
		"email":      u.Email,
		"username":   u.Username,
		"role":       u.Role,
		"status":     u.Status,
		"balance":    u.Balance.Truncate(store.BalanceScale).String(),
		"created_at": u.CreatedAt.UTC(),
		"updated_at": u.UpdatedAt.UTC(),
	}
}

func balanceJSON(v decimal.Decimal) string {
	return v.Truncate(store.BalanceScale).String()
}

func announcementJSON(a store.Announcement) gin.H {
	return gin.H{
		"id":         a.ID,
		"title":      a.Title,
		"body":       a.Body,
		"status":     a.Status,
		"created_at": a.CreatedAt.UTC(),
		"updated_at": a.UpdatedAt.UTC(),
	}
}
