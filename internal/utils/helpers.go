package utils

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// ValidateTarget 校验队列中的目标标识
// 目标可以是裸域名(example.com)或完整URL
func ValidateTarget(target string) error {
	target = strings.TrimSpace(target)
	if target == "" {
		return fmt.Errorf("目标为空")
	}
	if strings.ContainsAny(target, " \t") {
		return fmt.Errorf("目标包含空白字符: %q", target)
	}

	// 带协议的目标按URL校验
	if strings.Contains(target, "://") {
		parsed, err := url.Parse(target)
		if err != nil {
			return fmt.Errorf("目标URL格式无效: %w", err)
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return fmt.Errorf("目标URL协议必须是http或https")
		}
		if parsed.Host == "" {
			return fmt.Errorf("目标URL缺少主机名")
		}
		return nil
	}

	// 裸域名至少要有一个点
	if !strings.Contains(target, ".") {
		return fmt.Errorf("目标不是有效域名: %q", target)
	}
	return nil
}

// NormalizeRootDomain 将目标归一化为可注册根域名
// 依次剥离协议、路径、查询参数、端口和www.前缀,
// 再通过公共后缀表归约到可注册域(sub.example.co.uk -> example.co.uk)。
// 电子表格按此归一化结果与台账记录做行匹配
func NormalizeRootDomain(raw string) string {
	s := strings.TrimSpace(strings.ToLower(raw))
	if s == "" {
		return ""
	}

	// 剥离协议
	if idx := strings.Index(s, "://"); idx != -1 {
		s = s[idx+3:]
	}

	// 剥离路径、查询与片段
	for _, sep := range []string{"/", "?", "#"} {
		if idx := strings.Index(s, sep); idx != -1 {
			s = s[:idx]
		}
	}

	// 剥离端口
	if idx := strings.LastIndex(s, ":"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimPrefix(s, "www.")
	s = strings.Trim(s, ".")
	if s == "" {
		return ""
	}

	// 归约到可注册域,失败(如内网主机名)时保留剥离后的主机名
	if root, err := publicsuffix.EffectiveTLDPlusOne(s); err == nil {
		return root
	}
	return s
}

// EnsureScheme 为裸域名补全https协议,已带协议的保持不变
func EnsureScheme(target string) string {
	if strings.Contains(target, "://") {
		return target
	}
	return "https://" + target
}
