package router

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

func SetRouter(r *gin.Engine, opts Options) {
	// 身份解析必须先于准入控制：限流档位依赖解析出的角色。
	// 两者挂在引擎级，保证每个请求（含 healthz）恰好产生一次准入决策。
	r.Use(resolveIdentity(opts), admissionGate(opts))

	setSystemRoutes(r, opts)

	api := r.Group("/api")
	api.Use(gzip.Gzip(gzip.DefaultCompression))
	setUserAPIRoutes(api, opts)
	setUsersAPIRoutes(api, opts)
	setAnnouncementAPIRoutes(api, opts)
	setBalanceAPIRoutes(api, opts)
}
