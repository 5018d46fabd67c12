// Package auth 提供统一的请求身份（Identity）与密码/随机数工具，便于鉴权与审计。
package auth

import (
	"context"
	"strings"
)

// Role 是封闭的角色枚举；角色决定限流档位与后台权限。
type Role string

const (
	RoleGuest Role = "guest"
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func ParseRole(s string) (Role, bool) {
	switch Role(strings.TrimSpace(strings.ToLower(s))) {
	case RoleGuest:
		return RoleGuest, true
	case RoleUser:
		return RoleUser, true
	case RoleAdmin:
		return RoleAdmin, true
	default:
		return "", false
	}
}

// Identity 是一次请求解析出的调用方身份；在请求生命周期内不可变。
// 未登录请求没有 Identity（而不是持有一个 guest Identity），guest 仅作为限流档位存在。
type Identity struct {
	SubjectID int64
	Email     string
	Role      Role
}

type ctxKey int

const identityKey ctxKey = 1

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	v := ctx.Value(identityKey)
	if v == nil {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}
