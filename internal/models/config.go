package models

import (
	"fmt"
	"strings"
)

// AuthSource 会话认证来源
type AuthSource string

const (
	AuthSourceCookie      AuthSource = "cookie"      // Cookie快速通道
	AuthSourceCredentials AuthSource = "credentials" // 账号密码登录
)

// Credentials 登录凭据
type Credentials struct {
	Username string `mapstructure:"username" json:"username"`
	Password string `mapstructure:"password" json:"-"` // 不序列化密码
}

// WaitBounds 随机延时区间(秒)
type WaitBounds struct {
	Min float64 `mapstructure:"min" json:"min"`
	Max float64 `mapstructure:"max" json:"max"`
}

// Validate 校验延时区间
func (w WaitBounds) Validate(name string) error {
	if w.Min < 0 {
		return fmt.Errorf("%s延时下限不能为负", name)
	}
	if w.Max < w.Min {
		return fmt.Errorf("%s延时上限必须不小于下限", name)
	}
	return nil
}

// ScrapeConfig 抓取配置
// 所有等待时长、超时与阈值都来自配置,原脚本中的魔法常量保留为默认值
type ScrapeConfig struct {
	EntryURL    string `mapstructure:"entry_url" json:"entry_url"`       // 登录入口URL
	LandingURL  string `mapstructure:"landing_url" json:"landing_url"`   // 登录后落地页
	URLTemplate string `mapstructure:"url_template" json:"url_template"` // 数据页URL模板,{website_name}为占位符
	UseCookies  bool   `mapstructure:"use_cookies" json:"use_cookies"`   // 是否尝试Cookie快速通道
	Headless    bool   `mapstructure:"headless" json:"headless"`         // 无头浏览器模式

	NavSettle     WaitBounds `mapstructure:"nav_settle" json:"nav_settle"`         // 导航后等待 (默认3-7s)
	LoginSettle   WaitBounds `mapstructure:"login_settle" json:"login_settle"`     // 登录提交后等待 (默认5-10s)
	LandingSettle WaitBounds `mapstructure:"landing_settle" json:"landing_settle"` // 落地页渲染等待 (默认10-15s)
	RenderSettle  WaitBounds `mapstructure:"render_settle" json:"render_settle"`   // 数据页渲染等待 (默认8-12s)
	TargetDelay   WaitBounds `mapstructure:"target_delay" json:"target_delay"`     // 相邻目标间延时 (默认3-5s)

	GateTimeout        int `mapstructure:"gate_timeout" json:"gate_timeout"`                 // 拦截页等待预算(秒,默认30)
	LandingGateTimeout int `mapstructure:"landing_gate_timeout" json:"landing_gate_timeout"` // 落地页拦截等待预算(秒,默认60)
	GatePollInterval   int `mapstructure:"gate_poll_interval" json:"gate_poll_interval"`     // 拦截页轮询间隔(秒,默认2)
	ShareTimeout       int `mapstructure:"share_timeout" json:"share_timeout"`               // 占比元素等待(秒,默认20)
	MetricTimeout      int `mapstructure:"metric_timeout" json:"metric_timeout"`             // 其他指标元素等待(秒,默认30)

	BreakerWindow int `mapstructure:"breaker_window" json:"breaker_window"` // 重复记录熔断窗口(默认3)
}

// Validate 校验抓取配置
func (c *ScrapeConfig) Validate() error {
	if c.EntryURL == "" {
		return fmt.Errorf("入口URL不能为空")
	}
	if c.LandingURL == "" {
		return fmt.Errorf("落地页URL不能为空")
	}
	if !strings.Contains(c.URLTemplate, TargetPlaceholder) {
		return fmt.Errorf("URL模板必须包含占位符 %s", TargetPlaceholder)
	}
	for _, b := range []struct {
		name   string
		bounds WaitBounds
	}{
		{"导航", c.NavSettle},
		{"登录", c.LoginSettle},
		{"落地页", c.LandingSettle},
		{"渲染", c.RenderSettle},
		{"目标间", c.TargetDelay},
	} {
		if err := b.bounds.Validate(b.name); err != nil {
			return err
		}
	}
	if c.GateTimeout <= 0 || c.LandingGateTimeout <= 0 {
		return fmt.Errorf("拦截页等待预算必须为正数")
	}
	if c.GatePollInterval <= 0 {
		return fmt.Errorf("拦截页轮询间隔必须为正数")
	}
	if c.ShareTimeout <= 0 || c.MetricTimeout <= 0 {
		return fmt.Errorf("元素等待超时必须为正数")
	}
	if c.BreakerWindow < 2 {
		return fmt.Errorf("熔断窗口必须不小于2")
	}
	return nil
}

// TargetPlaceholder 数据页URL模板中的目标占位符(沿用原脚本)
const TargetPlaceholder = "{website_name}"

// BuildTargetURL 将目标代入URL模板
func (c *ScrapeConfig) BuildTargetURL(target string) string {
	return strings.ReplaceAll(c.URLTemplate, TargetPlaceholder, target)
}
