// Package session 负责通过浏览器 cookie 携带身份令牌；仅做请求/响应上的纯转换，不含校验逻辑。
package session

import "net/http"

const CookieName = "token"

// cookieMaxAge 是 cookie 的客户端存活时间（15 分钟）。
// 它刻意与令牌有效期（24 小时）解耦：cookie 先过期即强制重新登录，即便令牌在密码学上仍有效。
const cookieMaxAge = 900

// Carrier 写入/清除/读取会话 cookie。Secure 由部署环境决定（生产为 true）。
type Carrier struct {
	Secure bool
}

func NewCarrier(secure bool) Carrier {
	return Carrier{Secure: secure}
}

// cookie 的 Set 与 Clear 必须使用逐字节一致的属性集，
// 否则部分客户端会把 Clear 当作另一个 cookie 而不予删除。
func (c Carrier) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}

func (c Carrier) Attach(w http.ResponseWriter, token string) {
	http.SetCookie(w, c.cookie(token, cookieMaxAge))
}

func (c Carrier) Clear(w http.ResponseWriter) {
	http.SetCookie(w, c.cookie("", -1))
}

// Read 返回 cookie 中的令牌；cookie 缺失不是错误。
func (c Carrier) Read(r *http.Request) (string, bool) {
	ck, err := r.Cookie(CookieName)
	if err != nil || ck.Value == "" {
		return "", false
	}
	return ck.Value, true
}
