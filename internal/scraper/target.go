package scraper

import (
	"context"
	"strings"
	"time"

	"github.com/RecoveryAshes/SimWebTrack/internal/models"
	"github.com/RecoveryAshes/SimWebTrack/internal/utils"
	"github.com/go-rod/rod"
)

// 指标页元素定位
// 页面是客户端渲染的React应用,class名是构建产物,结构相当脆弱;
// 占比用固定结构模式取前两个元素,其余指标按中文标签文案锚定
const (
	widgetsRowXPath = `//div[@class='BaseFlex-bjWZGo FlexRow-hsoCCV TopPageWidgetsRow-diqVyP TopPageWidgetsRowWrap-fLcndQ dYkKBh iCsmVo cXClbx gHnUto']`

	desktopShareXPath = `(//span[@class='LabelValue-bIRZky bbhWVt'])[1]`
	mobileShareXPath  = `(//span[@class='LabelValue-bIRZky bbhWVt'])[2]`

	visitsXPath         = `//div[text()='每月访问量']/ancestor::div[contains(@class, 'MetricContainer')]/descendant::div[contains(@class, 'MetricValue')]`
	uniqueVisitorsXPath = `//div[text()='月独立访客数']/../following-sibling::div/div[contains(@class, 'MetricValue')]`
	usersTabXPath       = `//div[text()='已消除重叠的受众']/ancestor::div[contains(@class, 'MetricContainer')]/descendant::div[contains(@class, 'MetricValue')]`
	pagesPerVisitXPath  = `//div[text()='页面数/访问']/ancestor::div[contains(@class, 'MetricContainer')]/descendant::div[contains(@class, 'MetricValue')]`
	visitDurationXPath  = `//div[text()='访问持续时间']/ancestor::div[contains(@class, 'MetricContainer')]/descendant::div[contains(@class, 'MetricValue')]`
	bounceRateXPath     = `//div[text()='跳出率']/ancestor::div[contains(@class, 'MetricContainer')]/descendant::div[contains(@class, 'MetricValue')]`
)

// elementText 带超时等待元素出现并取其文本
func elementText(page *rod.Page, xpath string, timeout time.Duration) (string, error) {
	el, err := page.Timeout(timeout).ElementX(xpath)
	if err != nil {
		return "", err
	}
	text, err := el.Text()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// numericMetric 提取并归一化一个数值型指标
// 提取超时或解析失败只告警,字段保持0.0,不影响其他指标
func numericMetric(page *rod.Page, target, label, xpath string, timeout time.Duration) float64 {
	text, err := elementText(page, xpath, timeout)
	if err != nil {
		utils.Warnf("警告: 在 %s 页面未能在指定时间内找到 %s 元素", target, label)
		return 0.0
	}

	value, passthrough := models.ConvertMetricValue(text)
	if passthrough != "" {
		utils.Warnf("警告: %s 的 %s 值无法解析为数字: %q", target, label, passthrough)
		return 0.0
	}
	return value
}

// stringMetric 提取一个保持字符串形态的指标(时长、跳出率)
func stringMetric(page *rod.Page, target, label, xpath string, timeout time.Duration) string {
	text, err := elementText(page, xpath, timeout)
	if err != nil {
		utils.Warnf("警告: 在 %s 页面未能在指定时间内找到 %s 元素", target, label)
		return models.NAValue
	}
	if text == "" {
		return models.NAValue
	}
	return text
}

// ScrapeTarget 抓取单个目标的全部指标
// 桌面端/移动端占比是整条记录的门槛: 任一缺失或占比之和校验失败,
// 整条记录降级为哨兵值而不是部分可信。
// 其余指标彼此隔离,单个超时只影响自身字段。
// 导航阶段的超时或panic同样短路到哨兵记录,绝不让单个目标拖垮整个运行
func ScrapeTarget(ctx context.Context, sess *Session, target string, cfg *models.ScrapeConfig) (record *models.MetricRecord) {
	defer func() {
		if r := recover(); r != nil {
			utils.Errorf("抓取 %s 时发生panic: %v", target, r)
			record = models.NewSentinelRecord(target)
		}
	}()

	page := sess.Page()
	shareTimeout := time.Duration(cfg.ShareTimeout) * time.Second
	metricTimeout := time.Duration(cfg.MetricTimeout) * time.Second
	gateTimeout := time.Duration(cfg.GateTimeout) * time.Second
	pollInterval := time.Duration(cfg.GatePollInterval) * time.Second

	dataURL := cfg.BuildTargetURL(target)
	utils.Infof("将直接导航到: %s", dataURL)
	if err := page.Navigate(dataURL); err != nil {
		utils.Errorf("导航到数据页面失败 [%s]: %v", target, err)
		return models.NewSentinelRecord(target)
	}
	randomSettle(cfg.NavSettle)
	AwaitGateClear(ctx, sess.Probe(), gateTimeout, pollInterval)

	// 页面没有可靠的"加载完成"信号,只能用足够长的随机等待替代事件等待
	utils.Info("正在等待网站性能数据页面加载...")
	randomSettle(cfg.RenderSettle)

	if _, err := page.Timeout(metricTimeout).ElementX(widgetsRowXPath); err != nil {
		utils.Errorf("错误: %s 页面未能在指定时间内加载", target)
		return models.NewSentinelRecord(target)
	}

	// --- 占比提取与校验(记录级门槛) ---
	desktopStr, err := elementText(page, desktopShareXPath, shareTimeout)
	if err != nil {
		utils.Errorf("错误: 在 %s 页面未找到桌面端占比元素,XPath可能不正确或页面未完全加载", target)
		return models.NewSentinelRecord(target)
	}
	mobileStr, err := elementText(page, mobileShareXPath, shareTimeout)
	if err != nil {
		utils.Errorf("错误: 在 %s 页面未找到移动端占比元素,XPath可能不正确或页面未完全加载", target)
		return models.NewSentinelRecord(target)
	}

	if !models.ValidateShareSum(desktopStr, mobileStr) {
		utils.Errorf("错误: %s 的桌面端(%s)+移动端(%s)占比校验失败,整条记录作废",
			target, desktopStr, mobileStr)
		return models.NewSentinelRecord(target)
	}

	record = &models.MetricRecord{
		Target:           target,
		DesktopPercent:   desktopStr,
		MobilePercent:    mobileStr,
		AvgVisitDuration: models.NAValue,
		BounceRate:       models.NAValue,
	}

	// --- 其余指标独立提取,互不影响 ---
	record.Visits = numericMetric(page, target, "每月访问量", visitsXPath, metricTimeout)
	uniqueVisitors := numericMetric(page, target, "月独立访客数", uniqueVisitorsXPath, metricTimeout)
	record.DeriveVisitsPerVisitor(record.Visits, uniqueVisitors)
	if record.VisitsPerVisitor == 0.0 {
		utils.Debug("无法计算每访客访问次数: 访问量或独立访客数无效")
	}

	record.UsersTab = numericMetric(page, target, "已消除重叠的受众", usersTabXPath, metricTimeout)
	record.PagesPerVisit = numericMetric(page, target, "页面数/访问", pagesPerVisitXPath, metricTimeout)
	record.AvgVisitDuration = stringMetric(page, target, "访问持续时间", visitDurationXPath, metricTimeout)
	record.BounceRate = stringMetric(page, target, "跳出率", bounceRateXPath, metricTimeout)

	utils.Infof("成功抓取 %s 的数据: 桌面端 %s, 移动端 %s, 访问量 %.0f, 每访客访问 %.2f, 受众 %.0f, 页面/访问 %.2f, 时长 %s, 跳出率 %s",
		target, record.DesktopPercent, record.MobilePercent, record.Visits,
		record.VisitsPerVisitor, record.UsersTab, record.PagesPerVisit,
		record.AvgVisitDuration, record.BounceRate)

	return record
}
