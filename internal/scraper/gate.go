package scraper

import (
	"context"
	"time"

	"github.com/RecoveryAshes/SimWebTrack/internal/utils"
)

// AwaitGateClear 等待反爬拦截页消失
// 以pollInterval为周期轮询页面特征,受timeout墙钟预算约束:
//   - 特征消失 -> 立即返回true
//   - 预算耗尽 -> 返回false,调用方照常继续(软失败)
//   - 单次探测出错 -> 记日志并视为"仍被拦截",睡眠后重试
func AwaitGateClear(ctx context.Context, probe PageProbe, timeout, pollInterval time.Duration) bool {
	deadline := time.Now().Add(timeout)

	for {
		blocked, err := IsBotGate(probe)
		if err != nil {
			utils.Warnf("拦截页探测出错,按仍被拦截处理: %v", err)
			blocked = true
		}

		if !blocked {
			return true
		}

		if time.Now().Add(pollInterval).After(deadline) {
			utils.Warnf("拦截页等待超时(%.0f秒),继续后续流程", timeout.Seconds())
			return false
		}

		utils.Debugf("拦截页仍在,%.0f秒后重试...", pollInterval.Seconds())
		select {
		case <-ctx.Done():
			utils.Warn("拦截页等待被中断")
			return false
		case <-time.After(pollInterval):
		}
	}
}
