package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestConvertMetricValue(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		want        float64
		passthrough string
	}{
		{"M后缀", "224.8M", 224_800_000.0, ""},
		{"K后缀", "123K", 123_000.0, ""},
		{"万后缀", "1.2万", 12_000.0, ""},
		{"亿后缀", "3亿", 300_000_000.0, ""},
		{"千后缀", "2.5千", 2_500.0, ""},
		{"千位分隔符", "1,234", 1234.0, ""},
		{"千位分隔符带后缀", "1,234.5K", 1_234_500.0, ""},
		{"百分比", "37%", 37.0, ""},
		{"小数百分比", "45.6%", 45.6, ""},
		{"普通数字", "42.5", 42.5, ""},
		{"NA大写", "N/A", 0.0, ""},
		{"NA小写", "n/a", 0.0, ""},
		{"NA带空白", "  N/A  ", 0.0, ""},
		{"无法解析透传", "garbage", 0.0, "garbage"},
		{"后缀前非数字透传", "xM", 0.0, "xM"},
		{"百分号前非数字透传", "abc%", 0.0, "abc%"},
		{"透传保留原文去空白", "  时长 03:21  ", 0.0, "时长 03:21"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, passthrough := ConvertMetricValue(tt.raw)
			if got != tt.want {
				t.Errorf("ConvertMetricValue(%q) 数值 = %v, 期望 %v", tt.raw, got, tt.want)
			}
			if passthrough != tt.passthrough {
				t.Errorf("ConvertMetricValue(%q) 透传 = %q, 期望 %q", tt.raw, passthrough, tt.passthrough)
			}
		})
	}
}

func TestValidateShareSum(t *testing.T) {
	tests := []struct {
		name    string
		desktop string
		mobile  string
		want    bool
	}{
		{"正好100", "60%", "40%", true},
		{"误差范围内", "55.35%", "44.7%", true},
		{"和不等于100", "60.0%", "30.0%", false},
		{"超出误差", "55%", "44.8%", false},
		{"桌面端为零", "0%", "100%", false},
		{"桌面端NA", "N/A", "40%", false},
		{"移动端缺百分号", "60%", "40", false},
		{"两端都无效", "N/A", "N/A", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateShareSum(tt.desktop, tt.mobile); got != tt.want {
				t.Errorf("ValidateShareSum(%q, %q) = %v, 期望 %v", tt.desktop, tt.mobile, got, tt.want)
			}
		})
	}
}

func TestDeriveVisitsPerVisitor(t *testing.T) {
	tests := []struct {
		name           string
		visits         float64
		uniqueVisitors float64
		want           float64
	}{
		{"正常派生", 1000.0, 400.0, 2.5},
		{"四舍五入到两位", 1000.0, 300.0, 3.33},
		{"访问量为零", 0.0, 400.0, 0.0},
		{"访客数为零", 1000.0, 0.0, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewSentinelRecord("example.com")
			r.DeriveVisitsPerVisitor(tt.visits, tt.uniqueVisitors)
			if r.VisitsPerVisitor != tt.want {
				t.Errorf("DeriveVisitsPerVisitor(%v, %v) = %v, 期望 %v",
					tt.visits, tt.uniqueVisitors, r.VisitsPerVisitor, tt.want)
			}
		})
	}
}

func TestSentinelRecord(t *testing.T) {
	r := NewSentinelRecord("dead.com")
	if !r.Failed() {
		t.Error("哨兵记录的Failed()应为true")
	}
	if r.DesktopPercent != NAValue || r.MobilePercent != NAValue {
		t.Error("哨兵记录占比字段应为N/A")
	}
	if r.Visits != 0.0 || r.VisitsPerVisitor != 0.0 || r.UsersTab != 0.0 || r.PagesPerVisit != 0.0 {
		t.Error("哨兵记录数值字段应为0.0")
	}

	valid := &MetricRecord{Target: "ok.com", DesktopPercent: "60%", MobilePercent: "40%"}
	if valid.Failed() {
		t.Error("有效记录的Failed()应为false")
	}
}

func TestMarshalLedgerLine(t *testing.T) {
	r := &MetricRecord{
		Target:           "example.com",
		DesktopPercent:   "60%",
		MobilePercent:    "40%",
		Visits:           224_800_000.0,
		VisitsPerVisitor: 2.5,
		PagesPerVisit:    3.2,
		AvgVisitDuration: "00:03:21",
		BounceRate:       "45.6%",
	}

	line, err := r.MarshalLedgerLine()
	if err != nil {
		t.Fatalf("序列化失败: %v", err)
	}

	// 外层键是目标,内层键名必须与历史格式一致(含desktopPersent拼写)
	var wrapper map[string]map[string]interface{}
	if err := json.Unmarshal(line, &wrapper); err != nil {
		t.Fatalf("台账行不是合法JSON: %v", err)
	}
	inner, ok := wrapper["example.com"]
	if !ok {
		t.Fatal("台账行缺少目标外层键")
	}
	for _, key := range []string{
		"desktopPersent", "mobilePercent", "visits", "visits_per_visitor",
		"users_tab", "pages-per-visit", "avg_visit_duration", "bounce_rate",
	} {
		if _, ok := inner[key]; !ok {
			t.Errorf("台账行缺少键 %q", key)
		}
	}
	if strings.Contains(string(line), "\n") {
		t.Error("台账行不应包含换行")
	}

	// 往返
	parsed, err := UnmarshalLedgerLine(line)
	if err != nil {
		t.Fatalf("反序列化失败: %v", err)
	}
	if parsed.Target != "example.com" || parsed.DesktopPercent != "60%" || parsed.Visits != 224_800_000.0 {
		t.Errorf("往返结果不一致: %+v", parsed)
	}
}
