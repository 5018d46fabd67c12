// Package admission 在业务 handler 之前产出每请求唯一的放行/拒绝决策。
// 规则按固定优先级求值：盾牌 → 爬虫 → 限流，命中第一条拒绝即短路。
package admission

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"gatehouse/internal/auth"
	"gatehouse/internal/ratelimit"
)

type Reason string

const (
	ReasonNone      Reason = "none"
	ReasonShield    Reason = "shield"
	ReasonBot       Reason = "bot"
	ReasonRateLimit Reason = "rate_limit"
)

// Decision 每个请求恰好产生一个，且在任何路由守卫/handler 之前求值完毕。不落库。
type Decision struct {
	Allow     bool
	Reason    Reason
	Key       string
	Remaining int
}

// Detector 是可插拔的行为检测能力：返回 true 表示命中（应拒绝）。
// 具体引擎可以是本地启发式，也可以是远程调用；远程实现必须尊重 ctx 超时。
type Detector interface {
	Detect(ctx context.Context, r *http.Request) (bool, error)
}

// Controller 组合盾牌、爬虫与限流三路独立信号。检测器出错或超时一律按拒绝处理
// （fail-closed）：静默放行未经检查的流量会让整条准入控制失去意义。
type Controller struct {
	Shield        Detector
	Bot           Detector
	Limiter       *ratelimit.RoleLimiter
	DetectTimeout time.Duration
}

func NewController(shield Detector, bot Detector, limiter *ratelimit.RoleLimiter) *Controller {
	return &Controller{
		Shield:        shield,
		Bot:           bot,
		Limiter:       limiter,
		DetectTimeout: 2 * time.Second,
	}
}

// Evaluate 对 (请求, 已解析身份, 计数器) 做纯决策。
// 限流 key：已认证用 subject id（换 IP 不换档），匿名用调用方 IP。
func (c *Controller) Evaluate(r *http.Request, id auth.Identity, authenticated bool, clientIP string) Decision {
	key := limiterKey(id, authenticated, clientIP)

	if deny := c.runDetector(r, c.Shield); deny {
		return Decision{Allow: false, Reason: ReasonShield, Key: key}
	}
	if deny := c.runDetector(r, c.Bot); deny {
		return Decision{Allow: false, Reason: ReasonBot, Key: key}
	}
	if c.Limiter != nil {
		role := auth.RoleGuest
		if authenticated {
			role = id.Role
		}
		dec := c.Limiter.Check(key, role)
		if !dec.Allowed {
			return Decision{Allow: false, Reason: ReasonRateLimit, Key: key, Remaining: dec.Remaining}
		}
		return Decision{Allow: true, Reason: ReasonNone, Key: key, Remaining: dec.Remaining}
	}
	return Decision{Allow: true, Reason: ReasonNone, Key: key}
}

func (c *Controller) runDetector(r *http.Request, d Detector) bool {
	if d == nil {
		return false
	}
	timeout := c.DetectTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()
	hit, err := d.Detect(ctx, r)
	if err != nil {
		// fail-closed：检测器故障等同命中。
		return true
	}
	return hit
}

func limiterKey(id auth.Identity, authenticated bool, clientIP string) string {
	if authenticated && id.SubjectID > 0 {
		return "uid:" + strconv.FormatInt(id.SubjectID, 10)
	}
	return "ip:" + clientIP
}
