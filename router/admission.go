package router

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"gatehouse/internal/admission"
	"gatehouse/internal/audit"
	"gatehouse/internal/auth"
	"gatehouse/internal/security"
)

// admissionGate 在任何路由守卫与业务 handler 之前求值唯一的准入决策；拒绝即中止。
func admissionGate(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		if opts.Admission == nil {
			c.Next()
			return
		}
		ip := security.ClientIP(c.Request, opts.TrustProxyHeaders, opts.TrustedProxies)
		id, authenticated := auth.IdentityFromContext(c.Request.Context())
		dec := opts.Admission.Evaluate(c.Request, id, authenticated, ip)
		if dec.Allow {
			c.Next()
			return
		}
		audit.Denied(c.Request.URL.Path, dec.Key, string(dec.Reason), id.SubjectID, ip, deniedBodySnippet(c, dec.Reason))
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": denyMessage(dec.Reason)})
	}
}

// deniedBodySnippet 在盾牌拒绝时截取 JSON 请求体片段供审计；请求已被中止，消费 body 无副作用。
func deniedBodySnippet(c *gin.Context, reason admission.Reason) []byte {
	if reason != admission.ReasonShield || c.Request.Body == nil {
		return nil
	}
	if !strings.Contains(c.GetHeader("Content-Type"), "application/json") {
		return nil
	}
	b, err := io.ReadAll(io.LimitReader(c.Request.Body, 2048))
	if err != nil {
		return nil
	}
	return b
}

func denyMessage(reason admission.Reason) string {
	switch reason {
	case admission.ReasonBot:
		return "Automated requests are not allowed"
	case admission.ReasonRateLimit:
		return "Too many requests"
	default:
		return "Request blocked by security policy"
	}
}
