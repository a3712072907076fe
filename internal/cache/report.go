package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"

	"github.com/mattn/go-runewidth"
	"github.com/sirupsen/logrus"
)

var siPrefixes = []string{"", "k", "M", "G"}

// List 遍历缓存目录，按列输出每个单词，并在末尾追加条目数与磁盘占用。
// 每行输出 80/ColumnWidth 列；遍历失败时输出已收集到的部分结果。
func (s *DiskStore) List(ctx context.Context, w io.Writer) (Report, error) {
	var report Report
	if !s.Enabled() {
		s.logger.WithField("action", "list").Error("cannot list cache dir: not initialized")
		return report, ErrDisabled
	}

	perLine := lineWidth / s.columnWidth
	var buf bytes.Buffer
	err := s.walkEntries(ctx, func(path string, info fs.FileInfo) error {
		if report.Entries > 0 && report.Entries%perLine == 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(ellipsize(filepath.Base(path), s.columnWidth))
		report.Bytes += info.Size()
		report.Entries++
		return nil
	})
	if err != nil {
		report.Err = err
		entry := s.logger.WithError(err).WithField("root", s.root)
		if errors.Is(err, fs.ErrNotExist) {
			// 根目录在第一次写入时才创建。
			entry.Debug("cache_list_root_missing")
		} else {
			entry.Warn("cache_list_walk_failed")
		}
	}

	report.Size, report.Unit = FormatBytes(report.Bytes)
	fmt.Fprintf(&buf, "\n\nThe cache contains %d words, and is using %d %sB of disk space. Use -f, --force\nto refresh a cached entry.\n",
		report.Entries, report.Size, report.Unit)

	if _, err := w.Write(buf.Bytes()); err != nil {
		return report, &IOError{Op: "list", Path: s.root, Err: err}
	}

	s.logger.WithFields(logrus.Fields{
		"action":  "list",
		"entries": report.Entries,
		"bytes":   report.Bytes,
	}).Debug("cache_listed")
	return report, nil
}

// ellipsize 生成恰好 width 个显示宽度的列：前导空格 + 名称 + 空格填充；
// 放不下时截断并以 "..." 结尾。
func ellipsize(name string, width int) string {
	col := " " + name
	if runewidth.StringWidth(col) > width {
		col = runewidth.Truncate(col, width, "...")
	}
	return runewidth.FillRight(col, width)
}

// FormatBytes 以 1000 为进制逐级换算（每一级四舍五入），最大到 G。
// 例如 1,500,000 → 1500 k → 2 M；恰好 1000 不进位。
func FormatBytes(n int64) (int64, string) {
	i := 0
	for n > 1000 && i < len(siPrefixes)-1 {
		n = (n + 500) / 1000
		i++
	}
	return n, siPrefixes[i]
}
