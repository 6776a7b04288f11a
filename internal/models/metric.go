package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// NAValue 指标缺失时的占位值
const NAValue = "N/A"

// ShareSumTolerance 桌面端+移动端占比之和允许的浮点误差
const ShareSumTolerance = 0.1

// MetricRecord 单个网站的一次抓取结果
// JSON键名与历史输出文件保持一致(含desktopPersent的历史拼写),
// 下游导入脚本按这些键名读取,不能改
type MetricRecord struct {
	Target string `json:"-"` // 网站标识(域名或URL)

	DesktopPercent   string  `json:"desktopPersent"`     // 桌面端占比(原始字符串,带%后缀)
	MobilePercent    string  `json:"mobilePercent"`      // 移动端占比(原始字符串,带%后缀)
	Visits           float64 `json:"visits"`             // 每月访问量
	VisitsPerVisitor float64 `json:"visits_per_visitor"` // 每访客访问次数(派生值)
	UsersTab         float64 `json:"users_tab"`          // 已消除重叠的受众
	PagesPerVisit    float64 `json:"pages-per-visit"`    // 页面数/访问
	AvgVisitDuration string  `json:"avg_visit_duration"` // 访问持续时间(保持字符串)
	BounceRate       string  `json:"bounce_rate"`        // 跳出率(保持字符串)
}

// NewSentinelRecord 创建全无效记录
// 任一关键字段提取失败或占比校验失败时,整条记录降级为此哨兵值
func NewSentinelRecord(target string) *MetricRecord {
	return &MetricRecord{
		Target:           target,
		DesktopPercent:   NAValue,
		MobilePercent:    NAValue,
		Visits:           0.0,
		VisitsPerVisitor: 0.0,
		UsersTab:         0.0,
		PagesPerVisit:    0.0,
		AvgVisitDuration: NAValue,
		BounceRate:       NAValue,
	}
}

// Failed 判断记录是否为哨兵记录(抓取失败)
func (r *MetricRecord) Failed() bool {
	return r.DesktopPercent == NAValue && r.MobilePercent == NAValue
}

// DeriveVisitsPerVisitor 由访问量和独立访客数派生每访客访问次数
// 任一操作数为0时不派生,保持0.0
func (r *MetricRecord) DeriveVisitsPerVisitor(visits, uniqueVisitors float64) {
	if visits == 0.0 || uniqueVisitors == 0.0 {
		return
	}
	r.VisitsPerVisitor = math.Round(visits/uniqueVisitors*100) / 100
}

// MarshalLedgerLine 序列化为台账行: {target: {...}}
func (r *MetricRecord) MarshalLedgerLine() ([]byte, error) {
	return json.Marshal(map[string]*MetricRecord{r.Target: r})
}

// UnmarshalLedgerLine 从台账行反序列化
func UnmarshalLedgerLine(line []byte) (*MetricRecord, error) {
	var wrapper map[string]*MetricRecord
	if err := json.Unmarshal(line, &wrapper); err != nil {
		return nil, fmt.Errorf("解析台账行失败: %w", err)
	}
	for target, record := range wrapper {
		record.Target = target
		return record, nil
	}
	return nil, fmt.Errorf("台账行缺少网站标识")
}

// ValidateShareSum 校验桌面端与移动端占比之和
// 两个占比都成功解析为非零数字时,其和必须在100±0.1以内;
// 任一缺失、非百分比或为零视为校验失败,整条记录不可信
func ValidateShareSum(desktopStr, mobileStr string) bool {
	desktop, okD := parsePercent(desktopStr)
	mobile, okM := parsePercent(mobileStr)
	if !okD || !okM || desktop == 0.0 || mobile == 0.0 {
		return false
	}
	return math.Abs(desktop+mobile-100.0) < ShareSumTolerance
}

// parsePercent 解析"55.3%"形式的占比字符串
func parsePercent(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasSuffix(s, "%") {
		return 0, false
	}
	body := strings.TrimSpace(strings.TrimSuffix(s, "%"))
	if strings.EqualFold(body, NAValue) {
		return 0, false
	}
	v, err := strconv.ParseFloat(body, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// 单位后缀与倍率(顺序敏感: 先查多字节中文后缀再查字母后缀)
var metricSuffixes = []struct {
	suffix     string
	multiplier float64
}{
	{"亿", 1e8},
	{"万", 1e4},
	{"千", 1e3},
	{"M", 1e6},
	{"K", 1e3},
}

// ConvertMetricValue 将指标字符串转换为数字
// 支持 "224.8M"、"123K"、"1,234"、"1.2万"、"3亿"、"37%" 等格式。
// 返回 (数值, "") 表示解析成功; 无法解析时返回 (0, 原始字符串),
// 调用方决定如何处理透传值。纯函数,永不panic
func ConvertMetricValue(raw string) (float64, string) {
	trimmed := strings.TrimSpace(raw)
	if strings.EqualFold(trimmed, NAValue) {
		return 0.0, ""
	}

	cleaned := strings.ReplaceAll(trimmed, ",", "")

	for _, entry := range metricSuffixes {
		if strings.HasSuffix(cleaned, entry.suffix) {
			body := strings.TrimSuffix(cleaned, entry.suffix)
			v, err := strconv.ParseFloat(body, 64)
			if err != nil {
				return 0.0, trimmed
			}
			return v * entry.multiplier, ""
		}
	}

	if strings.HasSuffix(cleaned, "%") {
		body := strings.TrimSuffix(cleaned, "%")
		v, err := strconv.ParseFloat(body, 64)
		if err != nil {
			return 0.0, trimmed
		}
		return v, ""
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0.0, trimmed
	}
	return v, ""
}
