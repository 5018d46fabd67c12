package ratelimit

import "gatehouse/internal/auth"

// Limits 是三档每分钟上限；零值或负数会被 DefaultLimits 的对应档位兜底。
type Limits struct {
	Guest int
	User  int
	Admin int
}

func DefaultLimits() Limits {
	return Limits{Guest: 5, User: 10, Admin: 20}
}

func (l Limits) normalized() Limits {
	d := DefaultLimits()
	if l.Guest <= 0 {
		l.Guest = d.Guest
	}
	if l.User <= 0 {
		l.User = d.User
	}
	if l.Admin <= 0 {
		l.Admin = d.Admin
	}
	return l
}

// ForRole 返回角色对应的档位上限；未知角色一律按 guest 档。
func (l Limits) ForRole(role auth.Role) int {
	n := l.normalized()
	switch role {
	case auth.RoleAdmin:
		return n.Admin
	case auth.RoleUser:
		return n.User
	default:
		return n.Guest
	}
}

// RoleLimiter 把角色档位表和具体计数后端组合成 AdmissionController 需要的 check 接口。
// 仅 AdmissionController 调用；业务 handler 不可直达。
type RoleLimiter struct {
	limiter Limiter
	limits  Limits
}

func NewRoleLimiter(l Limiter, limits Limits) *RoleLimiter {
	return &RoleLimiter{limiter: l, limits: limits.normalized()}
}

func (r *RoleLimiter) Check(key string, role auth.Role) Decision {
	return r.limiter.Allow(key, r.limits.ForRole(role))
}
