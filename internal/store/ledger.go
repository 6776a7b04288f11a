package store

import (
	"bufio"
	"fmt"
	"os"

	"github.com/RecoveryAshes/SimWebTrack/internal/models"
	"github.com/RecoveryAshes/SimWebTrack/internal/utils"
)

// Ledger 抓取结果台账
// 逐行追加的JSON记录文件,每行形如 {"a.com":{...}}。
// 既是最终输出,也是卡死抓取的检测窗口:
// 页面返回重复内容时尾部记录会完全一致
type Ledger struct {
	path string
}

// NewLedger 创建台账
func NewLedger(path string) *Ledger {
	return &Ledger{path: path}
}

// Path 返回台账文件路径
func (l *Ledger) Path() string {
	return l.path
}

// Truncate 清空台账
// 每次运行开始时调用,台账只保留本次运行的结果
func (l *Ledger) Truncate() error {
	if err := os.WriteFile(l.path, []byte{}, 0644); err != nil {
		return fmt.Errorf("清空台账文件失败: %w", err)
	}
	utils.Infof("已清空或创建台账文件: %s", l.path)
	return nil
}

// Append 追加一条记录,只追加,从不改写已有行
func (l *Ledger) Append(record *models.MetricRecord) error {
	line, err := record.MarshalLedgerLine()
	if err != nil {
		return fmt.Errorf("序列化台账记录失败: %w", err)
	}

	file, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("打开台账文件失败: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("写入台账记录失败: %w", err)
	}

	utils.Infof("[%s] 结果已保存到台账", record.Target)
	return nil
}

// tail 读取台账最后n条记录
func (l *Ledger) tail(n int) ([]*models.MetricRecord, error) {
	file, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("打开台账文件失败: %w", err)
	}
	defer file.Close()

	lines := make([]string, 0)
	scanner := bufio.NewScanner(file)
	// 台账行可能较长,放宽扫描缓冲
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("读取台账文件失败: %w", err)
	}

	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}

	records := make([]*models.MetricRecord, 0, len(lines))
	for _, line := range lines {
		record, err := models.UnmarshalLedgerLine([]byte(line))
		if err != nil {
			// 单行损坏不影响熔断判断,跳过并告警
			utils.Warnf("台账行无法解析,已跳过: %v", err)
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

// TailDuplicateCheck 检测台账尾部是否出现连续重复记录
// 最近n条记录的desktopPersent与visits全部相同时返回true,
// 意味着页面大概率在重复返回同一份内容,抓取已经卡死。
// 这是熔断器而非正确性校验
func (l *Ledger) TailDuplicateCheck(n int) (bool, error) {
	records, err := l.tail(n)
	if err != nil {
		return false, err
	}
	if len(records) < n {
		return false, nil
	}

	first := records[0]
	for _, record := range records[1:] {
		if record.DesktopPercent != first.DesktopPercent || record.Visits != first.Visits {
			return false, nil
		}
	}

	utils.Warnf("⚠️ 台账尾部%d条记录完全重复 (desktopPersent=%s, visits=%.0f)",
		n, first.DesktopPercent, first.Visits)
	return true, nil
}
