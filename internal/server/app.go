// Package server 组装 HTTP 路由、依赖与中间件，使 main 保持简单可读。
package server

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"gatehouse/internal/admission"
	"gatehouse/internal/config"
	"gatehouse/internal/ratelimit"
	"gatehouse/internal/security"
	"gatehouse/internal/session"
	"gatehouse/internal/store"
	"gatehouse/internal/token"
	"gatehouse/internal/version"
	"gatehouse/router"
)

type AppOptions struct {
	Config  config.Config
	DB      *sql.DB
	Version version.BuildInfo
}

type App struct {
	cfg    config.Config
	store  *store.Store
	engine *gin.Engine
}

func NewApp(opts AppOptions) (*App, error) {
	st := store.New(opts.DB)
	st.SetDialect(store.Dialect(opts.Config.DB.Driver))

	tokens, err := token.NewService(opts.Config.Security.TokenSecret)
	if err != nil {
		return nil, fmt.Errorf("初始化令牌服务: %w", err)
	}

	trusted, err := security.ParseProxyCIDRs(opts.Config.Security.TrustedProxyCIDRs)
	if err != nil {
		return nil, fmt.Errorf("解析可信代理网段: %w", err)
	}

	limits := ratelimit.Limits{
		Guest: opts.Config.RateLimit.GuestPerMinute,
		User:  opts.Config.RateLimit.UserPerMinute,
		Admin: opts.Config.RateLimit.AdminPerMinute,
	}
	var backend ratelimit.Limiter
	if addr := opts.Config.RateLimit.RedisAddr; addr != "" {
		backend = ratelimit.NewRedis(redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: opts.Config.RateLimit.RedisPassword,
		}), time.Minute)
	} else {
		backend = ratelimit.NewInMemory(time.Minute)
	}

	ctrl := admission.NewController(
		admission.NewShield(),
		admission.NewBotDetector(opts.Config.Security.BotAllowList),
		ratelimit.NewRoleLimiter(backend, limits),
	)

	if opts.Config.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())

	router.SetRouter(engine, router.Options{
		Store:                 st,
		Tokens:                tokens,
		Sessions:              session.NewCarrier(opts.Config.SecureCookies()),
		Admission:             ctrl,
		TrustProxyHeaders:     opts.Config.Security.TrustProxyHeaders,
		TrustedProxies:        trusted,
		AllowOpenRegistration: opts.Config.Security.AllowOpenRegistration,
		Healthz:               healthzHandler(opts.DB, opts.Version),
	})

	return &App{cfg: opts.Config, store: st, engine: engine}, nil
}

func (a *App) Handler() http.Handler {
	return a.engine
}

func healthzHandler(db *sql.DB, info version.BuildInfo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		code := http.StatusOK
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				status = "degraded"
				code = http.StatusServiceUnavailable
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":  status,
			"version": info.Version,
		})
	}
}
