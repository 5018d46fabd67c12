package router

import (
	"net/http"
	"net/netip"

	"gatehouse/internal/admission"
	"gatehouse/internal/session"
	"gatehouse/internal/store"
	"gatehouse/internal/token"
)

type Options struct {
	Store     *store.Store
	Tokens    *token.Service
	Sessions  session.Carrier
	Admission *admission.Controller

	// 调用方 IP 推断：仅当请求来自可信代理网段时才采用 X-Forwarded-For。
	TrustProxyHeaders bool
	TrustedProxies    []netip.Prefix

	AllowOpenRegistration bool

	// system
	Healthz http.HandlerFunc
}
