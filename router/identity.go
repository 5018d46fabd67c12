package router

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"

	"gatehouse/internal/auth"
	"gatehouse/internal/token"
)

// resolveIdentity 把请求解析为两种可观察状态之一：匿名或已认证。
// cookie 缺失不是错误；cookie 校验失败（过期/非法）也刻意降级为匿名而不是拒绝请求：
// 携带陈旧 cookie 的浏览器应以 guest 身份继续访问公开内容，而不是硬失败。
func resolveIdentity(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := opts.Sessions.Read(c.Request)
		if !ok {
			c.Next()
			return
		}
		id, err := opts.Tokens.Verify(raw)
		if err != nil {
			// 区分过期与非法只用于诊断日志；两者对下游一律表现为匿名。
			var ve *token.VerifyError
			if errors.As(err, &ve) && ve.Kind == token.KindExpired {
				slog.Debug("令牌已过期，降级为匿名")
			} else {
				slog.Debug("令牌非法，降级为匿名", "err", err)
			}
			c.Next()
			return
		}
		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}
