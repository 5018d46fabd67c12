// Package audit 负责拒绝/越权事件的告警日志：带请求方身份与目标，敏感字段默认脱敏。
package audit

import (
	"log/slog"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// sensitiveFields 在写日志前统一置为掩码，避免口令/令牌进入日志管道。
var sensitiveFields = []string{"password", "token", "secret", "verification_code"}

const mask = "***"

// RedactBody 返回脱敏后的 JSON 片段；非 JSON 输入原样返回（调用方自行决定是否记录）。
func RedactBody(body []byte) []byte {
	if !gjson.ValidBytes(body) {
		return body
	}
	out := body
	for _, f := range sensitiveFields {
		if gjson.GetBytes(out, f).Exists() {
			if b, err := sjson.SetBytes(out, f, mask); err == nil {
				out = b
			}
		}
	}
	return out
}

// Denied 记录一次准入拒绝：请求方（subject id 或 IP）、限流 key 与原因。
// body 为触发拒绝的请求体片段（可为空），写日志前先脱敏。
func Denied(path string, key string, reason string, subjectID int64, clientIP string, body []byte) {
	attrs := []any{
		"path", path,
		"key", key,
		"reason", reason,
		"subject_id", subjectID,
		"ip", clientIP,
	}
	if len(body) > 0 {
		attrs = append(attrs, "body", string(RedactBody(body)))
	}
	slog.Warn("请求被准入控制拒绝", attrs...)
}

// Forbidden 记录一次越权访问尝试（身份存在但权限不足）；匿名 401 不在此记录。
func Forbidden(path string, actorID int64, targetID int64) {
	slog.Warn("越权访问被拒绝",
		"path", path,
		"actor_id", actorID,
		"target_id", targetID,
	)
}
