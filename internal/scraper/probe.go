// Package scraper 驱动浏览器完成认证、反爬等待与指标提取。
package scraper

import (
	"strings"

	"github.com/go-rod/rod"
)

// PageProbe 页面状态探测接口
// 把"页面此刻长什么样"从rod中抽出来,
// 登录界面与拦截页的检测逻辑可以用假实现做单元测试
type PageProbe interface {
	// Title 当前页面标题
	Title() (string, error)
	// CurrentURL 当前导航到的URL
	CurrentURL() (string, error)
	// HTML 当前渲染出的完整页面内容
	HTML() (string, error)
}

// rodProbe 基于rod页面的探测实现
type rodProbe struct {
	page *rod.Page
}

// NewRodProbe 包装rod页面为探测器
func NewRodProbe(page *rod.Page) PageProbe {
	return &rodProbe{page: page}
}

func (p *rodProbe) Title() (string, error) {
	info, err := p.page.Info()
	if err != nil {
		return "", err
	}
	return info.Title, nil
}

func (p *rodProbe) CurrentURL() (string, error) {
	info, err := p.page.Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

func (p *rodProbe) HTML() (string, error) {
	return p.page.HTML()
}

// 拦截页特征表
// 产品名单独出现在标题、固定短语与产品名共现、或人机验证短语,
// 三类命中任意一个都视为拦截页仍在
var (
	gateProductMarker = "cloudflare"

	gateTitleMarkers = []string{
		"just a moment",
		"attention required",
	}

	gateCoPhrases = []string{
		"checking your browser",
		"just a moment",
		"please wait",
	}

	gateStandalonePhrases = []string{
		"verify you are human",
	}
)

// 登录界面特征表(URL子串 / 标题子串)
var (
	loginURLMarkers   = []string{"login"}
	loginTitleMarkers = []string{"登录", "login"}
)

// IsBotGate 探测当前页面是否为反爬拦截页
func IsBotGate(probe PageProbe) (bool, error) {
	title, err := probe.Title()
	if err != nil {
		return false, err
	}
	titleLower := strings.ToLower(title)

	if strings.Contains(titleLower, gateProductMarker) {
		return true, nil
	}
	for _, marker := range gateTitleMarkers {
		if strings.Contains(titleLower, marker) {
			return true, nil
		}
	}

	html, err := probe.HTML()
	if err != nil {
		return false, err
	}
	htmlLower := strings.ToLower(html)

	for _, phrase := range gateStandalonePhrases {
		if strings.Contains(htmlLower, phrase) {
			return true, nil
		}
	}

	if strings.Contains(htmlLower, gateProductMarker) {
		for _, phrase := range gateCoPhrases {
			if strings.Contains(htmlLower, phrase) {
				return true, nil
			}
		}
	}

	return false, nil
}

// IsLoginSurface 探测当前页面是否为登录界面
func IsLoginSurface(probe PageProbe) (bool, error) {
	currentURL, err := probe.CurrentURL()
	if err != nil {
		return false, err
	}
	urlLower := strings.ToLower(currentURL)
	for _, marker := range loginURLMarkers {
		if strings.Contains(urlLower, marker) {
			return true, nil
		}
	}

	title, err := probe.Title()
	if err != nil {
		return false, err
	}
	titleLower := strings.ToLower(title)
	for _, marker := range loginTitleMarkers {
		if strings.Contains(titleLower, strings.ToLower(marker)) {
			return true, nil
		}
	}

	return false, nil
}
