// Package security 提供调用方 IP 的推断逻辑：仅在请求确实来自可信代理时才相信转发头。
package security

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// ClientIP 返回用于限流 key 的调用方 IP。
//
// 安全约束：仅当 trustProxyHeaders=true 且 RemoteAddr 命中 trustedProxies 时，
// 才采用 X-Forwarded-For 的第一跳；否则任何客户端都能伪造转发头绕过按 IP 的限流。
func ClientIP(r *http.Request, trustProxyHeaders bool, trustedProxies []netip.Prefix) string {
	if r == nil {
		return ""
	}
	remote := remoteHost(r)
	if trustProxyHeaders && isTrustedProxyRequest(remote, trustedProxies) {
		if ip, ok := forwardedFor(r.Header.Get("X-Forwarded-For")); ok {
			return ip
		}
	}
	return remote
}

// ParseProxyCIDRs 解析配置里的可信代理网段，逐条报错以便定位配置问题。
func ParseProxyCIDRs(raw []string) ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		pfx, err := netip.ParsePrefix(s)
		if err != nil {
			// 允许写单个 IP，按 /32、/128 处理。
			addr, err2 := netip.ParseAddr(s)
			if err2 != nil {
				return nil, err
			}
			pfx = netip.PrefixFrom(addr, addr.BitLen())
		}
		out = append(out, pfx)
	}
	return out, nil
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err != nil {
		host = strings.TrimSpace(r.RemoteAddr)
	}
	return host
}

func isTrustedProxyRequest(remote string, trustedProxies []netip.Prefix) bool {
	if len(trustedProxies) == 0 {
		return false
	}
	ip, err := netip.ParseAddr(remote)
	if err != nil {
		return false
	}
	for _, pfx := range trustedProxies {
		if pfx.Contains(ip) {
			return true
		}
	}
	return false
}

func forwardedFor(raw string) (string, bool) {
	v := firstForwardedToken(raw)
	if v == "" {
		return "", false
	}
	if _, err := netip.ParseAddr(v); err != nil {
		return "", false
	}
	return v, true
}

func firstForwardedToken(raw string) string {
	v := strings.TrimSpace(raw)
	if v == "" {
		return ""
	}
	if idx := strings.IndexByte(v, ','); idx >= 0 {
		v = v[:idx]
	}
	return strings.TrimSpace(v)
}
