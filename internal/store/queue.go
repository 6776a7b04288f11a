// Package store 实现抓取任务的文件队列与结果台账。
//
// 两个文件都只被本进程单线程访问,不加文件锁;
// 崩溃安全性依赖"先成功后出队"的至少一次语义。
package store

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/RecoveryAshes/SimWebTrack/internal/utils"
)

// WorkQueue 待抓取目标的文件队列
// 底层为逐行存储的UTF-8文本文件,每行一个目标。
// 只有抓取成功后才会出队,进程崩溃时目标留在文件中等待下次运行重试
type WorkQueue struct {
	path string
}

// NewWorkQueue 创建工作队列
func NewWorkQueue(path string) *WorkQueue {
	return &WorkQueue{path: path}
}

// Path 返回队列文件路径
func (q *WorkQueue) Path() string {
	return q.path
}

// readLines 读取队列文件所有非空行
// 文件不存在视为空队列,不报错
func (q *WorkQueue) readLines() ([]string, error) {
	file, err := os.Open(q.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("打开队列文件失败: %w", err)
	}
	defer file.Close()

	lines := make([]string, 0)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("读取队列文件失败: %w", err)
	}
	return lines, nil
}

// writeLines 整体重写队列文件
func (q *WorkQueue) writeLines(lines []string) error {
	content := strings.Join(lines, "\n")
	if len(lines) > 0 {
		content += "\n"
	}
	if err := os.WriteFile(q.path, []byte(content), 0644); err != nil {
		return fmt.Errorf("重写队列文件失败: %w", err)
	}
	return nil
}

// Len 返回队列中剩余目标数
func (q *WorkQueue) Len() (int, error) {
	lines, err := q.readLines()
	if err != nil {
		return 0, err
	}
	return len(lines), nil
}

// Peek 返回第offset个未出队目标,越界或队列为空返回空字符串
func (q *WorkQueue) Peek(offset int) (string, error) {
	lines, err := q.readLines()
	if err != nil {
		return "", err
	}
	if offset < 0 || offset >= len(lines) {
		return "", nil
	}
	return lines[offset], nil
}

// PeekNext 返回队首目标,队列为空返回空字符串
func (q *WorkQueue) PeekNext() (string, error) {
	return q.Peek(0)
}

// Pop 移除第offset个目标并重写文件
// 越界或队列为空时为无操作,不报错(幂等)
func (q *WorkQueue) Pop(offset int) error {
	lines, err := q.readLines()
	if err != nil {
		return err
	}
	if offset < 0 || offset >= len(lines) {
		utils.Debugf("队列出队无操作: offset=%d, 剩余=%d", offset, len(lines))
		return nil
	}

	removed := lines[offset]
	remaining := append(append([]string{}, lines[:offset]...), lines[offset+1:]...)
	if err := q.writeLines(remaining); err != nil {
		return err
	}

	utils.Debugf("目标已出队: %s (剩余%d)", removed, len(remaining))
	return nil
}

// PopFront 移除队首目标
func (q *WorkQueue) PopFront() error {
	return q.Pop(0)
}
