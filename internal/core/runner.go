// Package core 装配配置、会话与存储,驱动整个抓取运行。
package core

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/RecoveryAshes/SimWebTrack/internal/models"
	"github.com/RecoveryAshes/SimWebTrack/internal/scraper"
	"github.com/RecoveryAshes/SimWebTrack/internal/store"
	"github.com/RecoveryAshes/SimWebTrack/internal/utils"
	"github.com/google/uuid"
)

// TargetScraper 单目标抓取函数
// 运行器只依赖这个签名,测试时可以注入假实现,不需要真实浏览器
type TargetScraper func(ctx context.Context, target string) *models.MetricRecord

// Runner 抓取运行器
// 严格串行: 一个目标完整处理完(成功或失败)才取下一个。
// 出队语义: 只有有效记录才出队;哨兵记录照常写入台账,
// 但目标留在队列中等待下次运行重试(修正了旧脚本"失败也出队"的缺陷)
type Runner struct {
	cfg    *models.ScrapeConfig
	queue  *store.WorkQueue
	ledger *store.Ledger
	scrape TargetScraper

	// 目标间延时可关闭,测试时置零
	interDelay bool
}

// NewRunner 创建运行器
func NewRunner(cfg *models.ScrapeConfig, queue *store.WorkQueue, ledger *store.Ledger, scrape TargetScraper) *Runner {
	return &Runner{
		cfg:        cfg,
		queue:      queue,
		ledger:     ledger,
		scrape:     scrape,
		interDelay: true,
	}
}

// DisableInterDelay 关闭目标间随机延时(仅测试使用)
func (r *Runner) DisableInterDelay() {
	r.interDelay = false
}

// Run 消费队列直到为空、熔断或被中断
func (r *Runner) Run(ctx context.Context) (*utils.RunSummary, error) {
	total, err := r.queue.Len()
	if err != nil {
		return nil, err
	}

	summary := &utils.RunSummary{
		RunID:        uuid.New().String(),
		StartTime:    time.Now(),
		TotalTargets: total,
	}
	defer func() {
		summary.EndTime = time.Now()
		summary.TotalDuration = summary.EndTime.Sub(summary.StartTime).Seconds()
		if remaining, lenErr := r.queue.Len(); lenErr == nil {
			summary.Remaining = remaining
		}
	}()

	if total == 0 {
		utils.Info("队列为空,没有待抓取的目标")
		return summary, nil
	}

	bar := utils.NewProgressBar(total, "抓取进度")

	// skipped统计本次运行中失败后留在队列里的目标数,
	// 队首向后偏移这么多才是下一个未处理目标
	skipped := 0

	for processed := 0; ; processed++ {
		select {
		case <-ctx.Done():
			utils.Warn("收到中断,停止消费队列,进入清理流程")
			return summary, nil
		default:
		}

		target, err := r.queue.Peek(skipped)
		if err != nil {
			return summary, err
		}
		if target == "" {
			utils.Info("\n所有批量抓取完成!")
			return summary, nil
		}

		if err := utils.ValidateTarget(target); err != nil {
			// 队列里的脏行直接出队丢弃,不值得为它开浏览器
			utils.Warnf("跳过无效目标: %v", err)
			if popErr := r.queue.Pop(skipped); popErr != nil {
				return summary, popErr
			}
			_ = bar.Add(1)
			continue
		}

		utils.Infof("\n--- 正在导航并抓取第 %d 个网站: %s ---", processed+1, target)
		startedAt := time.Now()

		record := r.scrape(ctx, target)
		if record == nil {
			record = models.NewSentinelRecord(target)
		}

		// 哨兵记录也写台账,操作员能看到失败痕迹
		if err := r.ledger.Append(record); err != nil {
			return summary, fmt.Errorf("写入台账失败,中止运行: %w", err)
		}

		result := utils.TargetResult{
			Target:      target,
			RootDomain:  utils.NormalizeRootDomain(target),
			Success:     !record.Failed(),
			Sentinel:    record.Failed(),
			ProcessedAt: startedAt,
			Duration:    time.Since(startedAt).Seconds(),
		}

		if record.Failed() {
			// 旧脚本在这里也会出队,导致失败目标永远不被重试;
			// 现在保留在队列里,下次运行继续尝试
			utils.Warnf("[%s] 抓取失败,已写入哨兵记录;目标保留在队列中等待重试(与旧版行为不同)", target)
			summary.SentinelCount++
			skipped++
		} else {
			if err := r.queue.Pop(skipped); err != nil {
				return summary, err
			}
			summary.SuccessCount++
		}
		summary.Results = append(summary.Results, result)
		_ = bar.Add(1)

		// 熔断: 尾部记录完全重复说明页面在重复吐同一份内容
		tripped, err := r.ledger.TailDuplicateCheck(r.cfg.BreakerWindow)
		if err != nil {
			utils.Warnf("熔断检查失败: %v", err)
		} else if tripped {
			summary.BreakerFired = true
			utils.Errorf("❌ 连续%d条记录完全相同,疑似抓取卡死,运行中止;队列与台账保持现状供排查", r.cfg.BreakerWindow)
			return summary, fmt.Errorf("熔断触发: 连续%d条重复记录", r.cfg.BreakerWindow)
		}

		// 相邻目标间延时
		if r.interDelay {
			if next, _ := r.queue.Peek(skipped); next != "" {
				sleepBounds(r.cfg.TargetDelay)
			}
		}
	}
}

// sleepBounds 在区间内随机睡眠
func sleepBounds(bounds models.WaitBounds) {
	if bounds.Max <= 0 {
		return
	}
	seconds := bounds.Min + rand.Float64()*(bounds.Max-bounds.Min)
	time.Sleep(time.Duration(seconds * float64(time.Second)))
}

// Execute 执行一次完整的抓取运行
// 流程: 校验配置 -> 清空台账 -> 引导会话 -> 消费队列 -> 生成报告 -> 清理。
// 会话引导失败属于致命错误,整个运行在处理任何目标前中止
func Execute(ctx context.Context, config *Config) (*utils.RunSummary, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("配置无效: %w", err)
	}

	for _, p := range []string{config.Paths.QueuePath, config.Paths.LedgerPath, config.Paths.CookiePath} {
		if dir := filepath.Dir(p); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("创建数据目录失败: %w", err)
			}
		}
	}

	queue := store.NewWorkQueue(config.Paths.QueuePath)
	ledger := store.NewLedger(config.Paths.LedgerPath)
	cookieStore := scraper.NewCookieStore(config.Paths.CookiePath)

	pending, err := queue.Len()
	if err != nil {
		return nil, err
	}
	utils.Infof("🚀 开始抓取运行: 队列中有 %d 个目标", pending)

	// 台账每次运行清空,只保留本次结果
	if err := ledger.Truncate(); err != nil {
		return nil, err
	}

	sess, err := scraper.OpenSession(ctx, &config.Scrape, config.Auth, cookieStore)
	if err != nil {
		return nil, fmt.Errorf("浏览器初始化或登录失败,无法进行数据抓取: %w", err)
	}
	defer sess.Close()

	utils.Infof("浏览器初始化和准备完成 (认证来源: %s),开始批量抓取", sess.AuthSource)

	// 资源看门狗
	if config.Monitor.Enabled {
		watch := scraper.NewResourceWatch(
			time.Duration(config.Monitor.IntervalSecs)*time.Second,
			uint64(config.Monitor.LowMemoryMB)*1024*1024,
		)
		watch.Start(ctx)
		defer watch.Stop()
	}

	runner := NewRunner(&config.Scrape, queue, ledger, func(ctx context.Context, target string) *models.MetricRecord {
		return scraper.ScrapeTarget(ctx, sess, target, &config.Scrape)
	})

	summary, runErr := runner.Run(ctx)

	if summary != nil {
		reporter := utils.NewReporter(config.Paths.ReportDir)
		if saveErr := reporter.SaveSummary(summary); saveErr != nil {
			utils.Warnf("保存运行报告失败: %v", saveErr)
		}
	}

	return summary, runErr
}
