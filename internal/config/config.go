// Package config 负责读取并合并服务配置（环境变量为主），避免在业务代码里散落解析逻辑。
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Env       string
	Server    ServerConfig
	DB        DBConfig
	Security  SecurityConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Addr string
	// MaxConns 限制监听器层面的并发连接数；<=0 表示不限制。
	MaxConns int
}

type DBConfig struct {
	// Driver 支持 mysql/sqlite；为空时默认 sqlite。
	Driver string
	// DSN 仅用于 MySQL；必须带 parseTime=true（示例：
	// user:pass@tcp(127.0.0.1:3306)/gatehouse?parseTime=true&charset=utf8mb4）。
	DSN string
	// SQLitePath 是 SQLite 数据库文件路径（可带 DSN query，如 ?_busy_timeout=30000）。
	SQLitePath string
}

type SecurityConfig struct {
	// TokenSecret 是令牌签名密钥，进程级配置；缺失即拒绝启动。
	TokenSecret string
	// DisableSecureCookies 仅供本地 http 调试；生产必须保持 Secure。
	DisableSecureCookies bool

	TrustProxyHeaders bool
	TrustedProxyCIDRs []string

	// BotAllowList 是放行的善意爬虫/链接预览 UA 片段（小写子串匹配）。
	BotAllowList []string

	AllowOpenRegistration bool
}

type RateLimitConfig struct {
	// 三档每分钟上限；<=0 时回落到默认值 guest=5 / user=10 / admin=20。
	GuestPerMinute int
	UserPerMinute  int
	AdminPerMinute int

	// RedisAddr 非空时启用跨实例共享的 Redis 计数后端；为空用单实例内存计数。
	RedisAddr     string
	RedisPassword string
}

func LoadFromEnv() (Config, error) {
	cfg := Config{
		Env: envStr("GATEHOUSE_ENV", "dev"),
		Server: ServerConfig{
			Addr:     envStr("GATEHOUSE_ADDR", ":8080"),
			MaxConns: 0,
		},
		DB: DBConfig{
			Driver:     envStr("GATEHOUSE_DB_DRIVER", "sqlite"),
			DSN:        envStr("GATEHOUSE_MYSQL_DSN", ""),
			SQLitePath: envStr("GATEHOUSE_SQLITE_PATH", "data/gatehouse.db"),
		},
		Security: SecurityConfig{
			TokenSecret:       envStr("GATEHOUSE_TOKEN_SECRET", ""),
			TrustedProxyCIDRs: envCSV("GATEHOUSE_TRUSTED_PROXY_CIDRS"),
			BotAllowList:      envCSV("GATEHOUSE_BOT_ALLOWLIST"),
		},
		RateLimit: RateLimitConfig{
			RedisAddr:     envStr("GATEHOUSE_REDIS_ADDR", ""),
			RedisPassword: envStr("GATEHOUSE_REDIS_PASSWORD", ""),
		},
	}

	var err error
	if cfg.Server.MaxConns, err = envInt("GATEHOUSE_MAX_CONNS", 0); err != nil {
		return Config{}, err
	}
	if cfg.Security.DisableSecureCookies, err = envBool("GATEHOUSE_DISABLE_SECURE_COOKIES", false); err != nil {
		return Config{}, err
	}
	if cfg.Security.TrustProxyHeaders, err = envBool("GATEHOUSE_TRUST_PROXY_HEADERS", false); err != nil {
		return Config{}, err
	}
	if cfg.Security.AllowOpenRegistration, err = envBool("GATEHOUSE_ALLOW_OPEN_REGISTRATION", true); err != nil {
		return Config{}, err
	}
	if cfg.RateLimit.GuestPerMinute, err = envInt("GATEHOUSE_RATE_GUEST_PER_MINUTE", 5); err != nil {
		return Config{}, err
	}
	if cfg.RateLimit.UserPerMinute, err = envInt("GATEHOUSE_RATE_USER_PER_MINUTE", 10); err != nil {
		return Config{}, err
	}
	if cfg.RateLimit.AdminPerMinute, err = envInt("GATEHOUSE_RATE_ADMIN_PER_MINUTE", 20); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Env {
	case "dev", "prod":
	default:
		return fmt.Errorf("GATEHOUSE_ENV 仅支持 dev/prod，当前为 %q", c.Env)
	}
	if strings.TrimSpace(c.Security.TokenSecret) == "" {
		return errors.New("GATEHOUSE_TOKEN_SECRET 不能为空")
	}
	switch strings.ToLower(strings.TrimSpace(c.DB.Driver)) {
	case "sqlite":
		if strings.TrimSpace(c.DB.SQLitePath) == "" {
			return errors.New("GATEHOUSE_SQLITE_PATH 不能为空")
		}
	case "mysql":
		if strings.TrimSpace(c.DB.DSN) == "" {
			return errors.New("GATEHOUSE_MYSQL_DSN 不能为空")
		}
	default:
		return fmt.Errorf("不支持的 db driver：%s", c.DB.Driver)
	}
	return nil
}

// SecureCookies 决定会话 cookie 的 Secure 属性：生产恒为 true，dev 可显式关闭。
func (c Config) SecureCookies() bool {
	if c.Env == "prod" {
		return true
	}
	return !c.Security.DisableSecureCookies
}

func envStr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("解析 %s 失败: %w", key, err)
	}
	return n, nil
}

func envBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("解析 %s 失败: %w", key, err)
	}
	return b, nil
}

func envCSV(key string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
