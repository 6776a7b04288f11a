package store

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/RecoveryAshes/SimWebTrack/internal/utils"
	"github.com/rs/zerolog"
)

func TestMain(m *testing.M) {
	utils.Logger = zerolog.New(io.Discard)
	os.Exit(m.Run())
}

func newTestQueue(t *testing.T, content string) *WorkQueue {
	t.Helper()
	path := filepath.Join(t.TempDir(), "queue.txt")
	if content != "" {
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("写入测试队列失败: %v", err)
		}
	}
	return NewWorkQueue(path)
}

func TestWorkQueue_ReadSkipsBlankAndComments(t *testing.T) {
	q := newTestQueue(t, "a.com\n\n# 注释行\n  b.com  \n")

	n, err := q.Len()
	if err != nil {
		t.Fatalf("Len失败: %v", err)
	}
	if n != 2 {
		t.Errorf("Len = %d, 期望 2 (空行和注释应跳过)", n)
	}

	first, err := q.PeekNext()
	if err != nil || first != "a.com" {
		t.Errorf("PeekNext = (%q, %v), 期望 (a.com, nil)", first, err)
	}
	second, err := q.Peek(1)
	if err != nil || second != "b.com" {
		t.Errorf("Peek(1) = (%q, %v), 期望 (b.com, nil) 且已去空白", second, err)
	}
}

func TestWorkQueue_MissingFileIsEmpty(t *testing.T) {
	q := NewWorkQueue(filepath.Join(t.TempDir(), "not-exist.txt"))

	n, err := q.Len()
	if err != nil {
		t.Fatalf("文件不存在应视为空队列, 却报错: %v", err)
	}
	if n != 0 {
		t.Errorf("Len = %d, 期望 0", n)
	}
	target, err := q.PeekNext()
	if err != nil || target != "" {
		t.Errorf("PeekNext = (%q, %v), 期望空字符串且无错误", target, err)
	}
}

func TestWorkQueue_PopEmptyTwice(t *testing.T) {
	q := newTestQueue(t, "")

	// 空队列连续出队两次都应是无操作,不报错
	for i := 0; i < 2; i++ {
		if err := q.PopFront(); err != nil {
			t.Fatalf("第%d次空队列出队报错: %v", i+1, err)
		}
	}
}

func TestWorkQueue_PopSingleLineLeavesEmptyFile(t *testing.T) {
	q := newTestQueue(t, "only.com\n")

	if err := q.PopFront(); err != nil {
		t.Fatalf("出队失败: %v", err)
	}

	n, err := q.Len()
	if err != nil {
		t.Fatalf("Len失败: %v", err)
	}
	if n != 0 {
		t.Errorf("出队后 Len = %d, 期望 0", n)
	}
	data, err := os.ReadFile(q.Path())
	if err != nil {
		t.Fatalf("队列文件应仍存在: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("出队后文件内容 = %q, 期望为空", data)
	}
}

func TestWorkQueue_PopOffsetKeepsOrder(t *testing.T) {
	q := newTestQueue(t, "a.com\nb.com\nc.com\n")

	// 跳过队首失败目标,移除中间的b.com
	if err := q.Pop(1); err != nil {
		t.Fatalf("Pop(1)失败: %v", err)
	}

	first, _ := q.Peek(0)
	second, _ := q.Peek(1)
	if first != "a.com" || second != "c.com" {
		t.Errorf("出队后队列 = [%q, %q], 期望 [a.com, c.com]", first, second)
	}

	// 越界出队是幂等无操作
	if err := q.Pop(5); err != nil {
		t.Errorf("越界出队不应报错: %v", err)
	}
	if n, _ := q.Len(); n != 2 {
		t.Errorf("越界出队后 Len = %d, 期望 2", n)
	}
}

func TestWorkQueue_PeekOutOfRange(t *testing.T) {
	q := newTestQueue(t, "a.com\n")

	for _, offset := range []int{-1, 1, 100} {
		target, err := q.Peek(offset)
		if err != nil || target != "" {
			t.Errorf("Peek(%d) = (%q, %v), 期望空字符串且无错误", offset, target, err)
		}
	}
}
