package scraper

import (
	"context"
	"errors"
	"testing"
	"time"
)

// countingProbe 前clearAfter次探测报告拦截,之后报告放行
type countingProbe struct {
	calls      int
	clearAfter int
}

func (p *countingProbe) Title() (string, error) {
	p.calls++
	if p.calls > p.clearAfter {
		return "数据面板", nil
	}
	return "Just a moment...", nil
}

func (p *countingProbe) CurrentURL() (string, error) { return "https://sim.3ue.com/", nil }
func (p *countingProbe) HTML() (string, error)       { return "<html></html>", nil }

func TestAwaitGateClear_ClearsAfterPolls(t *testing.T) {
	probe := &countingProbe{clearAfter: 2}

	cleared := AwaitGateClear(context.Background(), probe, 500*time.Millisecond, 10*time.Millisecond)
	if !cleared {
		t.Error("拦截页在预算内消失, 应返回true")
	}
	if probe.calls != 3 {
		t.Errorf("探测次数 = %d, 期望 3", probe.calls)
	}
}

func TestAwaitGateClear_ImmediatelyClear(t *testing.T) {
	probe := &countingProbe{clearAfter: 0}

	start := time.Now()
	cleared := AwaitGateClear(context.Background(), probe, time.Second, 100*time.Millisecond)
	if !cleared {
		t.Error("页面未被拦截, 应立即返回true")
	}
	if time.Since(start) > 50*time.Millisecond {
		t.Error("页面未被拦截时不应进入轮询睡眠")
	}
}

func TestAwaitGateClear_Timeout(t *testing.T) {
	// 永远拦截
	probe := &countingProbe{clearAfter: 1 << 30}

	start := time.Now()
	cleared := AwaitGateClear(context.Background(), probe, 50*time.Millisecond, 10*time.Millisecond)
	if cleared {
		t.Error("预算耗尽应返回false")
	}
	if elapsed := time.Since(start); elapsed > 200*time.Millisecond {
		t.Errorf("超时后应尽快返回, 实际耗时 %v", elapsed)
	}
}

// errorProbe 每次探测都出错
type errorProbe struct{}

func (errorProbe) Title() (string, error)      { return "", errors.New("连接已断开") }
func (errorProbe) CurrentURL() (string, error) { return "", errors.New("连接已断开") }
func (errorProbe) HTML() (string, error)       { return "", errors.New("连接已断开") }

func TestAwaitGateClear_ProbeErrorTreatedAsBlocked(t *testing.T) {
	cleared := AwaitGateClear(context.Background(), errorProbe{}, 50*time.Millisecond, 10*time.Millisecond)
	if cleared {
		t.Error("探测持续出错应按仍被拦截处理, 最终超时返回false")
	}
}

func TestAwaitGateClear_ContextCancel(t *testing.T) {
	probe := &countingProbe{clearAfter: 1 << 30}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan bool, 1)
	go func() {
		done <- AwaitGateClear(ctx, probe, 10*time.Second, 50*time.Millisecond)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case cleared := <-done:
		if cleared {
			t.Error("被取消的等待应返回false")
		}
	case <-time.After(time.Second):
		t.Fatal("context取消后等待未及时退出")
	}
}
