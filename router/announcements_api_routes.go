package router

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"gatehouse/internal/auth"
	"gatehouse/internal/store"
)

type announcementRequest struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	Status int    `json:"status"`
}

func setAnnouncementAPIRoutes(r gin.IRoutes, opts Options) {
	// 公开读取仅返回已发布内容；草稿只有管理面可见。
	r.GET("/announcements", announcementsPublicListHandler(opts))

	r.GET("/admin/announcements", requireRoles(auth.RoleAdmin), announcementsAdminListHandler(opts))
	r.POST("/admin/announcements", requireRoles(auth.RoleAdmin), announcementCreateHandler(opts))
	r.PUT("/admin/announcements/:id", requireRoles(auth.RoleAdmin), announcementUpdateHandler(opts))
	r.DELETE("/admin/announcements/:id", requireRoles(auth.RoleAdmin), announcementDeleteHandler(opts))
}

func announcementsPublicListHandler(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := opts.Store.ListPublishedAnnouncements(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "查询公告失败"})
			return
		}
		out := make([]gin.H, 0, len(list))
		for _, a := range list {
			out = append(out, announcementJSON(a))
		}
		c.JSON(http.StatusOK, gin.H{"announcements": out})
	}
}

func announcementsAdminListHandler(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := opts.Store.ListAnnouncements(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "查询公告失败"})
			return
		}
		out := make([]gin.H, 0, len(list))
		for _, a := range list {
			out = append(out, announcementJSON(a))
		}
		c.JSON(http.StatusOK, gin.H{"announcements": out})
	}
}

func announcementCreateHandler(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req announcementRequest
		if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "无效的参数"})
			return
		}
		if strings.TrimSpace(req.Title) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "标题不能为空"})
			return
		}
		id, err := opts.Store.CreateAnnouncement(c.Request.Context(), req.Title, req.Body, req.Status)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "创建公告失败"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id})
	}
}

func announcementUpdateHandler(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "无效的公告 id"})
			return
		}
		var req announcementRequest
		if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "无效的参数"})
			return
		}
		if err := opts.Store.UpdateAnnouncement(c.Request.Context(), id, req.Title, req.Body, req.Status); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "公告不存在"})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": "更新公告失败"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "已更新"})
	}
}

func announcementDeleteHandler(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "无效的公告 id"})
			return
		}
		if err := opts.Store.DeleteAnnouncement(c.Request.Context(), id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "公告不存在"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "删除公告失败"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "已删除"})
	}
}
