package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// NewStore 以 opts.Root 为根目录构建磁盘缓存；Root 为空时返回禁用状态的实例。
// 目录本身在第一次写入时创建。
func NewStore(opts Options) (*DiskStore, error) {
	if opts.Capacity == 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.MaxPathLen == 0 {
		opts.MaxPathLen = DefaultMaxPathLen
	}
	if opts.ColumnWidth == 0 {
		opts.ColumnWidth = DefaultColumnWidth
	}
	if opts.ReadCapacity == 0 {
		opts.ReadCapacity = DefaultReadCapacity
	}
	if opts.Capacity < 0 {
		return nil, fmt.Errorf("invalid cache capacity: %d", opts.Capacity)
	}
	if opts.MaxPathLen < 0 {
		return nil, fmt.Errorf("invalid max path length: %d", opts.MaxPathLen)
	}
	if opts.ReadCapacity < 0 {
		return nil, fmt.Errorf("invalid read capacity: %d", opts.ReadCapacity)
	}
	if opts.ColumnWidth <= 3 || lineWidth%opts.ColumnWidth != 0 {
		return nil, fmt.Errorf("column width %d must be larger than 3 and divide %d", opts.ColumnWidth, lineWidth)
	}

	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	root := opts.Root
	if root != "" {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("resolve cache root: %w", err)
		}
		root = abs
	}

	return &DiskStore{
		root:         root,
		capacity:     opts.Capacity,
		maxPathLen:   opts.MaxPathLen,
		columnWidth:  opts.ColumnWidth,
		readCapacity: opts.ReadCapacity,
		logger:       logger,
		now:          now,
	}, nil
}

// DiskStore 是单进程、同步的磁盘缓存，本身不加锁；并发调用方需自行串行化。
type DiskStore struct {
	root         string
	capacity     int
	maxPathLen   int
	columnWidth  int
	readCapacity int
	logger       *logrus.Logger
	now          func() time.Time
}

// writeEntry 写入条目内容，测试中可替换以模拟写到一半失败。
var writeEntry = writeAll

var _ Store = (*DiskStore)(nil)

func (s *DiskStore) Enabled() bool {
	return s != nil && s.root != ""
}

// Root 返回缓存根目录的绝对路径，禁用时为空串。
func (s *DiskStore) Root() string {
	if s == nil {
		return ""
	}
	return s.root
}

// Capacity 返回允许的最大条目数。
func (s *DiskStore) Capacity() int {
	return s.capacity
}

func (s *DiskStore) Read(ctx context.Context, word string, buf []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if !s.Enabled() {
		return 0, nil
	}

	filePath, err := s.entryPath(word)
	if err != nil {
		s.logPathError(err)
		return 0, err
	}

	f, err := os.Open(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		ioErr := &IOError{Op: "open", Path: filePath, Err: err}
		s.logger.WithError(err).WithField("word", word).Warn("cache_open_failed")
		return 0, ioErr
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		s.logger.WithError(err).WithField("word", word).Warn("cache_stat_failed")
		return 0, &IOError{Op: "stat", Path: filePath, Err: err}
	}
	if info.IsDir() {
		return 0, nil
	}

	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		s.logger.WithError(err).WithField("word", word).Warn("cache_read_failed")
		return 0, &IOError{Op: "read", Path: filePath, Err: err}
	}
	if n > 0 {
		s.touch(filePath, info)
	}
	return n, nil
}

func (s *DiskStore) Get(ctx context.Context, word string) ([]byte, error) {
	if !s.Enabled() {
		return nil, ErrDisabled
	}
	// 多读一个字节用于识别超出容量的条目。
	buf := make([]byte, s.readCapacity+1)
	n, err := s.Read(ctx, word, buf)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	if n > s.readCapacity {
		s.logger.WithFields(logrus.Fields{"word": word, "limit": s.readCapacity}).Warn("cache_entry_too_large")
		return nil, &IOError{Op: "read", Path: filepath.Join(s.root, word), Err: ErrEntryTooLarge}
	}
	return buf[:n], nil
}

func (s *DiskStore) Write(ctx context.Context, word string, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.Enabled() {
		return nil
	}

	filePath, err := s.entryPath(word)
	if err != nil {
		s.logPathError(err)
		return err
	}

	if err := os.MkdirAll(s.root, 0o755); err != nil {
		s.logger.WithError(err).WithField("root", s.root).Error("cache_mkdir_failed")
		return &IOError{Op: "mkdir", Path: s.root, Err: err}
	}

	f, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		s.logger.WithError(err).WithField("word", word).Error("cache_open_for_write_failed")
		return &IOError{Op: "open", Path: filePath, Err: err}
	}

	// 新建的空文件已计入扫描，但不会成为本次淘汰的对象。
	s.evict(ctx, filePath)

	err = writeEntry(f, content)
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		s.logger.WithError(err).WithField("word", word).Error("cache_flush_failed")
		if rmErr := os.Remove(filePath); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			s.logger.WithError(rmErr).WithField("word", word).Error("cache_cleanup_failed")
		}
		return &IOError{Op: "write", Path: filePath, Err: err}
	}
	return nil
}

func (s *DiskStore) Remove(ctx context.Context, word string) (RemoveStatus, error) {
	if err := ctx.Err(); err != nil {
		return RemoveFailed, err
	}
	if !s.Enabled() {
		s.logger.WithField("word", word).Error("cannot delete entry: cache was not initialized")
		return RemoveFailed, ErrDisabled
	}

	filePath, err := s.entryPath(word)
	if err != nil {
		s.logPathError(err)
		return RemoveFailed, err
	}

	if err := os.Remove(filePath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return RemoveNotFound, nil
		}
		s.logger.WithError(err).WithField("word", word).Error("cache_remove_failed")
		return RemoveFailed, &IOError{Op: "remove", Path: filePath, Err: err}
	}
	return Removed, nil
}

// entryPath 将单词直接拼接到根目录下；拒绝可能逃逸根目录的单词以及超长路径。
func (s *DiskStore) entryPath(word string) (string, error) {
	if word == "" || word == "." || word == ".." || strings.ContainsAny(word, "/\\\x00") {
		return "", &PathError{Word: word, Reason: "invalid word"}
	}

	filePath := filepath.Join(s.root, word)
	if len(filePath) >= s.maxPathLen {
		return "", &PathError{Word: word, Reason: "cache path truncated"}
	}
	return filePath, nil
}

// touch 把访问时间刷新为当前时间并保留修改时间，供 LRU 淘汰排序使用。
func (s *DiskStore) touch(filePath string, info fs.FileInfo) {
	if err := os.Chtimes(filePath, s.now(), info.ModTime()); err != nil {
		s.logger.WithError(err).WithField("path", filePath).Warn("cache_touch_failed")
	}
}

func (s *DiskStore) logPathError(err error) {
	s.logger.WithError(err).Error("cache_path_failed")
}

func writeAll(w io.Writer, p []byte) error {
	n, err := w.Write(p)
	if err != nil {
		return err
	}
	if n < len(p) {
		return io.ErrShortWrite
	}
	return nil
}
