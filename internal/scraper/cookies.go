package scraper

import (
	"encoding/json"
	"os"

	"github.com/RecoveryAshes/SimWebTrack/internal/models"
	"github.com/RecoveryAshes/SimWebTrack/internal/utils"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// CookieStore 认证Cookie的本地文件存储
// 磁盘格式为浏览器扩展导出形状的JSON数组,
// 登录成功后写入,每次运行开始时尝试读取以走Cookie快速通道
type CookieStore struct {
	path string
}

// NewCookieStore 创建Cookie存储
func NewCookieStore(path string) *CookieStore {
	return &CookieStore{path: path}
}

// Exists 判断Cookie文件是否存在
func (s *CookieStore) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Load 加载Cookie到页面会话
// Cookie必须在所属域名的上下文里设置,所以先导航到落地页。
// 单个Cookie格式错误只跳过告警,不中断整体加载。
// 返回true当且仅当至少成功添加了一个Cookie
func (s *CookieStore) Load(page *rod.Page, landingURL string) bool {
	if !s.Exists() {
		utils.Debugf("Cookie文件不存在: %s", s.path)
		return false
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		utils.Warnf("读取Cookie文件失败: %v", err)
		return false
	}

	var cookies []models.ExportedCookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		utils.Warnf("解析Cookie文件失败: %v", err)
		return false
	}

	// 先进入目标域,再逐个注入Cookie
	if err := page.Navigate(landingURL); err != nil {
		utils.Warnf("导航到落地页失败,无法加载Cookie: %v", err)
		return false
	}
	if err := page.WaitLoad(); err != nil {
		utils.Debugf("落地页加载等待出错: %v", err)
	}

	added := 0
	for i := range cookies {
		param, err := cookies[i].ToNetworkCookieParam()
		if err != nil {
			utils.Warnf("跳过格式错误的Cookie (第%d个): %v", i+1, err)
			continue
		}
		if err := page.SetCookies([]*proto.NetworkCookieParam{param}); err != nil {
			utils.Warnf("添加Cookie失败 [%s]: %v", param.Name, err)
			continue
		}
		added++
	}

	utils.Infof("已从 %s 加载 %d/%d 个Cookie", s.path, added, len(cookies))
	return added > 0
}

// Save 将会话当前持有的全部Cookie覆盖写入存储文件
// 总是整体覆盖,不做合并
func (s *CookieStore) Save(browser *rod.Browser) bool {
	cookies, err := browser.GetCookies()
	if err != nil {
		utils.Warnf("读取会话Cookie失败: %v", err)
		return false
	}

	exported := make([]models.ExportedCookie, 0, len(cookies))
	for _, c := range cookies {
		exported = append(exported, models.FromNetworkCookie(c))
	}

	data, err := json.MarshalIndent(exported, "", "  ")
	if err != nil {
		utils.Warnf("序列化Cookie失败: %v", err)
		return false
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		utils.Warnf("写入Cookie文件失败: %v", err)
		return false
	}

	utils.Infof("✅ 已保存 %d 个Cookie到 %s", len(exported), s.path)
	return true
}
