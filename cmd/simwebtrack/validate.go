package main

import (
	"fmt"
	"net/url"

	"github.com/RecoveryAshes/SimWebTrack/internal/core"
)

// ValidateFlags 验证合并后的运行配置
func ValidateFlags(config *core.Config) error {
	if err := config.Validate(); err != nil {
		return err
	}

	// 入口与落地页必须是合法的http(s) URL
	for _, entry := range []struct {
		name string
		raw  string
	}{
		{"入口URL", config.Scrape.EntryURL},
		{"落地页URL", config.Scrape.LandingURL},
	} {
		parsed, err := url.Parse(entry.raw)
		if err != nil {
			return fmt.Errorf("%s格式无效: %w", entry.name, err)
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return fmt.Errorf("%s协议必须是http或https: %s", entry.name, entry.raw)
		}
		if parsed.Host == "" {
			return fmt.Errorf("%s缺少主机名: %s", entry.name, entry.raw)
		}
	}

	// 没有Cookie文件可用时凭据必须齐全,否则登录必然失败
	if !config.Scrape.UseCookies {
		if config.Auth.Username == "" || config.Auth.Password == "" {
			return fmt.Errorf("禁用Cookie登录时必须提供用户名和密码")
		}
	}

	return nil
}
