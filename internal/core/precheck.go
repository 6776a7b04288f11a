package core

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/RecoveryAshes/SimWebTrack/internal/store"
	"github.com/RecoveryAshes/SimWebTrack/internal/utils"
	"github.com/gocolly/colly/v2"
)

// PrecheckResult 单个目标的可达性检查结果
type PrecheckResult struct {
	Target     string `json:"target"`
	Reachable  bool   `json:"reachable"`
	StatusCode int    `json:"status_code,omitempty"`
	FinalURL   string `json:"final_url,omitempty"`
	ErrorMsg   string `json:"error_msg,omitempty"`
}

// 复用会话UA池风格的精简UA集合,避免精准指纹
var precheckUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
}

// PrecheckQueue 批量检查队列目标的可达性
// 一个目标在浏览器里要消耗40秒以上的各类等待,
// 先用轻量HTTP请求筛掉死域名可以显著缩短整轮耗时。
// 只读队列,不做任何修改
func PrecheckQueue(config *Config, timeoutSecs int) ([]PrecheckResult, error) {
	queue := store.NewWorkQueue(config.Paths.QueuePath)

	targets := make([]string, 0)
	for offset := 0; ; offset++ {
		target, err := queue.Peek(offset)
		if err != nil {
			return nil, err
		}
		if target == "" {
			break
		}
		targets = append(targets, target)
	}

	if len(targets) == 0 {
		utils.Info("队列为空,没有可检查的目标")
		return nil, nil
	}

	utils.Infof("🔍 开始可达性检查: %d 个目标", len(targets))

	results := make([]PrecheckResult, 0, len(targets))
	deadCount := 0

	for i, target := range targets {
		result := checkOneTarget(target, timeoutSecs)
		results = append(results, result)

		if result.Reachable {
			utils.Infof("[%d/%d] ✅ %s (HTTP %d)", i+1, len(targets), target, result.StatusCode)
		} else {
			deadCount++
			utils.Warnf("[%d/%d] ❌ %s: %s", i+1, len(targets), target, result.ErrorMsg)
		}
	}

	utils.Infof("可达性检查完成: 可达 %d, 不可达 %d", len(targets)-deadCount, deadCount)
	if deadCount > 0 {
		utils.Warn("不可达目标仍留在队列中,请人工确认后再决定是否移除")
	}
	return results, nil
}

// checkOneTarget 用colly访问单个目标的根URL
func checkOneTarget(target string, timeoutSecs int) PrecheckResult {
	result := PrecheckResult{Target: target}

	ua := precheckUserAgents[rand.Intn(len(precheckUserAgents))]
	c := colly.NewCollector(
		colly.UserAgent(ua),
		colly.MaxDepth(1),
	)
	c.SetRequestTimeout(time.Duration(timeoutSecs) * time.Second)

	c.OnResponse(func(r *colly.Response) {
		result.Reachable = true
		result.StatusCode = r.StatusCode
		result.FinalURL = r.Request.URL.String()
	})

	c.OnError(func(r *colly.Response, err error) {
		// 反爬拦截返回的403/503也说明域名活着,按可达处理
		if r != nil && r.StatusCode > 0 {
			result.Reachable = true
			result.StatusCode = r.StatusCode
			result.FinalURL = r.Request.URL.String()
			return
		}
		result.ErrorMsg = err.Error()
	})

	rootURL := utils.EnsureScheme(utils.NormalizeRootDomain(target))
	if err := c.Visit(rootURL); err != nil && result.ErrorMsg == "" && !result.Reachable {
		result.ErrorMsg = fmt.Sprintf("请求失败: %v", err)
	}
	c.Wait()

	return result
}
