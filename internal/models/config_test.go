package models

import "testing"

func validScrapeConfig() *ScrapeConfig {
	return &ScrapeConfig{
		EntryURL:    "https://dash.3ue.com/zh-Hans/#/page/m/home",
		LandingURL:  "https://sim.3ue.com/#/digitalsuite/home",
		URLTemplate: "https://sim.3ue.com/#/overview?key={website_name}",

		NavSettle:     WaitBounds{Min: 3, Max: 7},
		LoginSettle:   WaitBounds{Min: 5, Max: 10},
		LandingSettle: WaitBounds{Min: 10, Max: 15},
		RenderSettle:  WaitBounds{Min: 8, Max: 12},
		TargetDelay:   WaitBounds{Min: 3, Max: 5},

		GateTimeout:        30,
		LandingGateTimeout: 60,
		GatePollInterval:   2,
		ShareTimeout:       20,
		MetricTimeout:      30,
		BreakerWindow:      3,
	}
}

func TestScrapeConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ScrapeConfig)
		wantErr bool
	}{
		{"默认有效配置", func(c *ScrapeConfig) {}, false},
		{"缺入口URL", func(c *ScrapeConfig) { c.EntryURL = "" }, true},
		{"缺落地页URL", func(c *ScrapeConfig) { c.LandingURL = "" }, true},
		{"模板缺占位符", func(c *ScrapeConfig) { c.URLTemplate = "https://sim.3ue.com/#/overview" }, true},
		{"延时下限为负", func(c *ScrapeConfig) { c.NavSettle.Min = -1 }, true},
		{"延时上限小于下限", func(c *ScrapeConfig) { c.TargetDelay = WaitBounds{Min: 5, Max: 3} }, true},
		{"延时区间可以退化为点", func(c *ScrapeConfig) { c.RenderSettle = WaitBounds{Min: 10, Max: 10} }, false},
		{"拦截预算为零", func(c *ScrapeConfig) { c.GateTimeout = 0 }, true},
		{"轮询间隔为零", func(c *ScrapeConfig) { c.GatePollInterval = 0 }, true},
		{"熔断窗口过小", func(c *ScrapeConfig) { c.BreakerWindow = 1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validScrapeConfig()
			tt.mutate(c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, 期望出错 = %v", err, tt.wantErr)
			}
		})
	}
}

func TestBuildTargetURL(t *testing.T) {
	c := validScrapeConfig()
	got := c.BuildTargetURL("example.com")
	want := "https://sim.3ue.com/#/overview?key=example.com"
	if got != want {
		t.Errorf("BuildTargetURL = %q, 期望 %q", got, want)
	}
}
