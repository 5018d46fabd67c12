package router

import "github.com/gin-gonic/gin"

func setSystemRoutes(r *gin.Engine, opts Options) {
	if opts.Healthz != nil {
		r.GET("/healthz", gin.WrapF(opts.Healthz))
	}
}
