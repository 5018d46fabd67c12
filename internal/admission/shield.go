package admission

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// shield 的启发式签名集：覆盖路径穿越、SQL 注入与脚本注入的常见形态。
// 签名按小写匹配；命中任意一条即拒绝。
var shieldSignatures = []string{
	"../",
	"..%2f",
	"union select",
	"' or 1=1",
	"\" or 1=1",
	"; drop table",
	"<script",
	"javascript:",
	"onerror=",
}

// Shield 是通用攻击模式检测器：扫描路径、query 以及 JSON 请求体中的字符串值。
// 请求体最多读取 MaxBodyBytes，读完后原样放回，供下游 handler 继续消费。
type Shield struct {
	MaxBodyBytes int64
}

func NewShield() *Shield {
	return &Shield{MaxBodyBytes: 1 << 20}
}

func (s *Shield) Detect(ctx context.Context, r *http.Request) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if suspicious(r.URL.Path) || suspicious(r.URL.RawQuery) {
		return true, nil
	}
	for _, vs := range r.URL.Query() {
		for _, v := range vs {
			if suspicious(v) {
				return true, nil
			}
		}
	}

	if r.Body == nil || r.Body == http.NoBody {
		return false, nil
	}
	ct := r.Header.Get("Content-Type")
	if !strings.Contains(ct, "application/json") {
		return false, nil
	}
	max := s.MaxBodyBytes
	if max <= 0 {
		max = 1 << 20
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, max))
	if err != nil {
		return false, err
	}
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))

	if !gjson.ValidBytes(body) {
		return false, nil
	}
	return jsonSuspicious(gjson.ParseBytes(body)), nil
}

func jsonSuspicious(v gjson.Result) bool {
	switch v.Type {
	case gjson.String:
		return suspicious(v.Str)
	case gjson.JSON:
		hit := false
		v.ForEach(func(_, child gjson.Result) bool {
			if jsonSuspicious(child) {
				hit = true
				return false
			}
			return true
		})
		return hit
	default:
		return false
	}
}

func suspicious(s string) bool {
	if s == "" {
		return false
	}
	lower := strings.ToLower(s)
	for _, sig := range shieldSignatures {
		if strings.Contains(lower, sig) {
			return true
		}
	}
	return false
}
