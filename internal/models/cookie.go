package models

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-rod/rod/lib/proto"
)

// ExportedCookie 浏览器扩展导出格式的Cookie
// 字段名与Chrome Cookie导出插件(EditThisCookie等)的JSON保持一致,
// 便于人工从浏览器导出Cookie直接投入使用
type ExportedCookie struct {
	Name           string  `json:"name"`
	Value          string  `json:"value"`
	Domain         string  `json:"domain"`
	Path           string  `json:"path"`
	Secure         bool    `json:"secure"`
	HTTPOnly       bool    `json:"httpOnly"`
	ExpirationDate float64 `json:"expirationDate,omitempty"` // epoch秒,可能带小数
	SameSite       string  `json:"sameSite,omitempty"`
}

// Validate 校验Cookie必需字段
func (c *ExportedCookie) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("cookie缺少name字段")
	}
	if c.Domain == "" {
		return fmt.Errorf("cookie [%s] 缺少domain字段", c.Name)
	}
	return nil
}

// ToNetworkCookieParam 转换为rod驱动的Cookie参数
// 映射规则:
//   - expirationDate -> Expires (截断为整数epoch秒)
//   - sameSite 仅在非"unspecified"时复制
func (c *ExportedCookie) ToNetworkCookieParam() (*proto.NetworkCookieParam, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	param := &proto.NetworkCookieParam{
		Name:     c.Name,
		Value:    c.Value,
		Domain:   c.Domain,
		Path:     c.Path,
		Secure:   c.Secure,
		HTTPOnly: c.HTTPOnly,
	}

	if c.ExpirationDate > 0 {
		param.Expires = proto.TimeSinceEpoch(math.Trunc(c.ExpirationDate))
	}

	if c.SameSite != "" && !strings.EqualFold(c.SameSite, "unspecified") {
		switch strings.ToLower(c.SameSite) {
		case "strict":
			param.SameSite = proto.NetworkCookieSameSiteStrict
		case "lax":
			param.SameSite = proto.NetworkCookieSameSiteLax
		case "none", "no_restriction":
			param.SameSite = proto.NetworkCookieSameSiteNone
		}
	}

	return param, nil
}

// FromNetworkCookie 从会话持有的Cookie转换回导出格式
func FromNetworkCookie(c *proto.NetworkCookie) ExportedCookie {
	exported := ExportedCookie{
		Name:     c.Name,
		Value:    c.Value,
		Domain:   c.Domain,
		Path:     c.Path,
		Secure:   c.Secure,
		HTTPOnly: c.HTTPOnly,
	}
	if c.Expires > 0 {
		exported.ExpirationDate = float64(c.Expires)
	}
	if c.SameSite != "" {
		exported.SameSite = strings.ToLower(string(c.SameSite))
	}
	return exported
}
