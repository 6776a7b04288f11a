package scraper

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/RecoveryAshes/SimWebTrack/internal/models"
	"github.com/RecoveryAshes/SimWebTrack/internal/utils"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// User-Agent池,每次启动随机取一个
var userAgentPool = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/92.0.4515.159 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Edge/91.0.864.67",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Firefox/90.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
}

// 在任何页面脚本执行前移除WebDriver标记
const webdriverOverrideJS = `
	Object.defineProperty(navigator, 'webdriver', {
		get: () => undefined
	})
`

// 登录界面元素定位(按可见文案定位,页面结构变了这里跟着改)
const (
	usernameInputXPath = `//input[@placeholder='请输入用户名']`
	passwordInputXPath = `//input[@placeholder='密码']`
	loginButtonXPath   = `//button[contains(., '登录')] | //span[contains(., '登录')]`
	loginControlWait   = 10 * time.Second
)

// Session 已认证的浏览器会话
// 由OpenSession独占构建,之后在整个运行期间被逐个抓取调用顺序复用,
// 进程退出时Close
type Session struct {
	browser *rod.Browser
	page    *rod.Page
	probe   PageProbe

	AuthSource models.AuthSource // 认证来源
	UserAgent  string            // 本次会话使用的UA
}

// Page 返回会话持有的页面
func (s *Session) Page() *rod.Page {
	return s.page
}

// Probe 返回会话页面的状态探测器
func (s *Session) Probe() PageProbe {
	return s.probe
}

// Browser 返回底层浏览器实例
func (s *Session) Browser() *rod.Browser {
	return s.browser
}

// Close 关闭会话与浏览器
func (s *Session) Close() {
	if s.browser != nil {
		s.browser.MustClose()
		utils.Debug("浏览器已关闭")
	}
}

// randomSettle 在配置区间内随机睡眠
func randomSettle(bounds models.WaitBounds) {
	if bounds.Max <= 0 {
		return
	}
	seconds := bounds.Min + rand.Float64()*(bounds.Max-bounds.Min)
	utils.Debugf("随机等待 %.1f 秒...", seconds)
	time.Sleep(time.Duration(seconds * float64(time.Second)))
}

// OpenSession 启动浏览器并完成认证,返回就绪的会话
// 流程:
//  1. 启动浏览器: 随机UA + stealth脚本 + webdriver标记抹除
//  2. use_cookies且Cookie文件存在时走Cookie快速通道
//  3. Cookie缺失或失效时回退账号密码登录,成功后回写Cookie
//  4. 导航到固定落地页,长等待让前端渲染完成
//
// 任何意外错误都会整体中止并返回nil会话,调用方据此放弃本次运行
func OpenSession(ctx context.Context, cfg *models.ScrapeConfig, creds models.Credentials, store *CookieStore) (sess *Session, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("会话初始化panic: %v", r)
			sess = nil
		}
	}()

	utils.Info("正在启动浏览器并准备进行网站搜索...")

	browser, page, ua, err := launchBrowser(cfg.Headless)
	if err != nil {
		return nil, err
	}

	sess = &Session{
		browser:   browser,
		page:      page,
		probe:     NewRodProbe(page),
		UserAgent: ua,
	}

	// 失败路径上不能泄漏浏览器进程
	defer func() {
		if err != nil && sess != nil {
			sess.Close()
			sess = nil
		}
	}()

	gateTimeout := time.Duration(cfg.GateTimeout) * time.Second
	pollInterval := time.Duration(cfg.GatePollInterval) * time.Second

	authenticated := false

	// --- Cookie快速通道 ---
	if cfg.UseCookies && store.Exists() {
		utils.Info("检测到Cookie文件,尝试Cookie快速登录...")
		if store.Load(page, cfg.LandingURL) {
			if reloadErr := page.Reload(); reloadErr != nil {
				utils.Warnf("Cookie注入后刷新页面失败: %v", reloadErr)
			}
			AwaitGateClear(ctx, sess.probe, gateTimeout, pollInterval)

			onLogin, probeErr := IsLoginSurface(sess.probe)
			if probeErr != nil {
				utils.Warnf("登录态探测失败: %v", probeErr)
			} else if !onLogin {
				utils.Info("✅ Cookie登录成功")
				sess.AuthSource = models.AuthSourceCookie
				authenticated = true
			} else {
				utils.Warn("Cookie已失效,回退到账号密码登录")
			}
		}
	}

	// --- 账号密码登录 ---
	if !authenticated {
		if err = credentialLogin(ctx, sess, cfg, creds); err != nil {
			return nil, err
		}
		sess.AuthSource = models.AuthSourceCredentials

		// 登录成功后持久化新Cookie,下次运行走快速通道
		store.Save(browser)
	}

	// --- 进入落地页 ---
	utils.Infof("导航到落地页: %s", cfg.LandingURL)
	if navErr := page.Navigate(cfg.LandingURL); navErr != nil {
		err = fmt.Errorf("导航到落地页失败: %w", navErr)
		return nil, err
	}
	randomSettle(cfg.LandingSettle)

	// 落地页的拦截等待预算更大,超时只告警不中止
	landingGateTimeout := time.Duration(cfg.LandingGateTimeout) * time.Second
	if !AwaitGateClear(ctx, sess.probe, landingGateTimeout, pollInterval) {
		utils.Warn("落地页拦截等待超时,按可用状态继续")
	}

	utils.Info("已进入数字套件首页,准备进行搜索")
	return sess, nil
}

// launchBrowser 启动浏览器并完成反检测配置
func launchBrowser(headless bool) (*rod.Browser, *rod.Page, string, error) {
	l := launcher.New().
		Headless(headless).
		Set("start-maximized").
		Set("disable-blink-features", "AutomationControlled")

	controlURL, err := l.Launch()
	if err != nil {
		return nil, nil, "", fmt.Errorf("启动浏览器失败: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, nil, "", fmt.Errorf("连接浏览器失败: %w", err)
	}
	utils.Debugf("浏览器已启动: %s", controlURL)

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		browser.MustClose()
		return nil, nil, "", fmt.Errorf("创建页面失败: %w", err)
	}

	// stealth基础脚本 + webdriver标记抹除,必须在任何导航之前注入
	if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
		browser.MustClose()
		return nil, nil, "", fmt.Errorf("注入stealth脚本失败: %w", err)
	}
	if _, err := page.EvalOnNewDocument(webdriverOverrideJS); err != nil {
		browser.MustClose()
		return nil, nil, "", fmt.Errorf("注入webdriver覆盖脚本失败: %w", err)
	}

	ua := userAgentPool[rand.Intn(len(userAgentPool))]
	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: ua}); err != nil {
		browser.MustClose()
		return nil, nil, "", fmt.Errorf("设置User-Agent失败: %w", err)
	}
	utils.Debugf("User-Agent: %s", ua)

	return browser, page, ua, nil
}

// credentialLogin 账号密码登录流程
func credentialLogin(ctx context.Context, sess *Session, cfg *models.ScrapeConfig, creds models.Credentials) error {
	page := sess.page
	gateTimeout := time.Duration(cfg.GateTimeout) * time.Second
	pollInterval := time.Duration(cfg.GatePollInterval) * time.Second

	if err := page.Navigate(cfg.EntryURL); err != nil {
		return fmt.Errorf("导航到入口URL失败: %w", err)
	}
	randomSettle(cfg.NavSettle)
	AwaitGateClear(ctx, sess.probe, gateTimeout, pollInterval)

	onLogin, err := IsLoginSurface(sess.probe)
	if err != nil {
		return fmt.Errorf("登录界面探测失败: %w", err)
	}
	if !onLogin {
		utils.Info("未检测到登录界面,假设已登录或无需登录")
		return nil
	}

	utils.Info("检测到登录界面,正在尝试登录...")
	if creds.Username == "" || creds.Password == "" {
		return fmt.Errorf("需要登录但未配置用户名或密码")
	}

	usernameField, err := page.Timeout(loginControlWait).ElementX(usernameInputXPath)
	if err != nil {
		return fmt.Errorf("未找到用户名输入框: %w", err)
	}
	if err := usernameField.Input(creds.Username); err != nil {
		return fmt.Errorf("输入用户名失败: %w", err)
	}

	passwordField, err := page.Timeout(loginControlWait).ElementX(passwordInputXPath)
	if err != nil {
		return fmt.Errorf("未找到密码输入框: %w", err)
	}
	if err := passwordField.Input(creds.Password); err != nil {
		return fmt.Errorf("输入密码失败: %w", err)
	}

	loginButton, err := page.Timeout(loginControlWait).ElementX(loginButtonXPath)
	if err != nil {
		return fmt.Errorf("未找到登录按钮: %w", err)
	}
	if err := loginButton.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("点击登录按钮失败: %w", err)
	}

	// 随机延时等待页面跳转和数据加载
	randomSettle(cfg.LoginSettle)

	stillLogin, err := IsLoginSurface(sess.probe)
	if err != nil {
		return fmt.Errorf("登录结果探测失败: %w", err)
	}
	if stillLogin {
		return fmt.Errorf("登录失败或页面未正确跳转,请检查用户名和密码")
	}

	utils.Info("✅ 登录成功")
	return nil
}
