package admission

import (
	"context"
	"net/http"
	"strings"
)

// botMarkers 覆盖常见的自动化流量特征（UA 为空同样视为自动化）。
var botMarkers = []string{
	"bot",
	"crawler",
	"spider",
	"scrapy",
	"curl/",
	"wget/",
	"python-requests",
	"go-http-client",
	"headlesschrome",
	"phantomjs",
}

// BotDetector 基于 User-Agent 的自动化流量检测，带调用方配置的白名单：
// 已知善意的爬虫/链接预览（如搜索引擎、IM 卡片抓取）优先放行。
type BotDetector struct {
	allow []string
}

func NewBotDetector(allowed []string) *BotDetector {
	out := make([]string, 0, len(allowed))
	for _, a := range allowed {
		a = strings.ToLower(strings.TrimSpace(a))
		if a != "" {
			out = append(out, a)
		}
	}
	return &BotDetector{allow: out}
}

func (b *BotDetector) Detect(ctx context.Context, r *http.Request) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	ua := strings.ToLower(strings.TrimSpace(r.UserAgent()))
	if ua == "" {
		return true, nil
	}
	for _, a := range b.allow {
		if strings.Contains(ua, a) {
			return false, nil
		}
	}
	for _, m := range botMarkers {
		if strings.Contains(ua, m) {
			return true, nil
		}
	}
	return false, nil
}
