package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
)

// TargetResult 单个目标的处理结果
type TargetResult struct {
	Target      string    `json:"target"`
	RootDomain  string    `json:"root_domain"`
	Success     bool      `json:"success"`
	Sentinel    bool      `json:"sentinel"`             // 是否写入了哨兵记录
	ErrorMsg    string    `json:"error_msg,omitempty"`
	ProcessedAt time.Time `json:"processed_at"`
	Duration    float64   `json:"duration"` // 秒
}

// RunSummary 一次运行的汇总报告
type RunSummary struct {
	RunID         string         `json:"run_id"`
	StartTime     time.Time      `json:"start_time"`
	EndTime       time.Time      `json:"end_time"`
	TotalTargets  int            `json:"total_targets"`
	SuccessCount  int            `json:"success_count"`
	SentinelCount int            `json:"sentinel_count"`
	Remaining     int            `json:"remaining"` // 队列中剩余目标数
	BreakerFired  bool           `json:"breaker_fired"`
	TotalDuration float64        `json:"total_duration"`
	Results       []TargetResult `json:"results"`
}

// Reporter 运行报告生成器
type Reporter struct {
	reportDir string
}

// NewReporter 创建报告生成器
func NewReporter(reportDir string) *Reporter {
	return &Reporter{reportDir: reportDir}
}

// SaveSummary 将运行汇总写入报告目录
func (r *Reporter) SaveSummary(summary *RunSummary) error {
	if err := os.MkdirAll(r.reportDir, 0755); err != nil {
		return fmt.Errorf("创建报告目录失败: %w", err)
	}

	filename := fmt.Sprintf("run_%s.json", summary.StartTime.Format("20060102_150405"))
	path := filepath.Join(r.reportDir, filename)

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化运行报告失败: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("写入运行报告失败: %w", err)
	}

	Infof("✅ 运行报告已生成: %s", path)
	return nil
}

// NewProgressBar 创建进度条
func NewProgressBar(max int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
