// Package token 负责身份令牌的签发与校验（HS256 JWT）。纯函数式，无共享状态。
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"gatehouse/internal/auth"
)

// TTL 是令牌的有效期。注意它刻意长于会话 cookie 的 Max-Age（15 分钟）：
// cookie 先在客户端过期即强制重新登录，即便令牌本身仍然可验签。
const TTL = 24 * time.Hour

// ErrorKind 标记校验失败的两类结果：过期与（签名/结构）非法。
type ErrorKind int

const (
	KindExpired ErrorKind = iota + 1
	KindMalformed
)

// VerifyError 是带标签的校验失败结果，由调用方（IdentityResolver）显式分支消费。
type VerifyError struct {
	Kind ErrorKind
	Err  error
}

func (e *VerifyError) Error() string {
	switch e.Kind {
	case KindExpired:
		return "令牌已过期"
	default:
		return "令牌非法"
	}
}

func (e *VerifyError) Unwrap() error { return e.Err }

// SigningError 表示签发侧的不可恢复故障（签名密钥不可用）。
// 正确配置的部署中不应出现；出现即视为致命错误，不重试。
type SigningError struct {
	Err error
}

func (e *SigningError) Error() string { return fmt.Sprintf("令牌签发失败: %v", e.Err) }

func (e *SigningError) Unwrap() error { return e.Err }

type claims struct {
	UID   int64  `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Service 持有进程级签名密钥；并发安全。
type Service struct {
	secret []byte
	now    func() time.Time
}

func NewService(secret string) (*Service, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("签名密钥不能为空")
	}
	return &Service{secret: []byte(secret), now: time.Now}, nil
}

// Sign 签发带 {id, email, role, iat, exp} 声明的令牌，exp = iat + TTL。
func (s *Service) Sign(id auth.Identity) (string, error) {
	if len(s.secret) == 0 {
		return "", &SigningError{Err: errors.New("签名密钥未配置")}
	}
	issuedAt := s.now().UTC()
	c := claims{
		UID:   id.SubjectID,
		Email: id.Email,
		Role:  string(id.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(TTL)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", &SigningError{Err: err}
	}
	return raw, nil
}

// Verify 校验令牌并还原 Identity。过期优先于结构性错误：
// 一个签名有效但已过期的令牌必须得到 KindExpired，而不是 KindMalformed。
func (s *Service) Verify(raw string) (auth.Identity, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("不支持的签名算法: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return auth.Identity{}, &VerifyError{Kind: KindExpired, Err: err}
		}
		return auth.Identity{}, &VerifyError{Kind: KindMalformed, Err: err}
	}
	role, ok := auth.ParseRole(c.Role)
	if !ok || c.UID <= 0 {
		return auth.Identity{}, &VerifyError{Kind: KindMalformed, Err: errors.New("claims 字段非法")}
	}
	return auth.Identity{SubjectID: c.UID, Email: c.Email, Role: role}, nil
}
