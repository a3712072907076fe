package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

// 默认参数，与早期 C 版本的编译期常量保持一致。
const (
	DefaultCapacity     = 200
	DefaultMaxPathLen   = 260
	DefaultColumnWidth  = 16
	DefaultReadCapacity = 65536

	lineWidth = 80
)

// Store 是查词流程与 HTTP 服务依赖的缓存接口，DiskStore 为唯一实现。
type Store interface {
	// Enabled 表示缓存根目录是否已配置。
	Enabled() bool

	// Read 将 word 对应的缓存内容读入 buf，返回写入字节数；0 表示未命中。
	Read(ctx context.Context, word string, buf []byte) (int, error)

	// Get 读取完整缓存内容，未命中时返回 ErrNotFound；超过 ReadCapacity 时返回 ErrEntryTooLarge。
	Get(ctx context.Context, word string) ([]byte, error)

	// Write 写入（覆盖）缓存条目，写入前会执行一次容量检查与淘汰。
	Write(ctx context.Context, word string, content []byte) error

	// Remove 删除单个条目，并区分“已删除”与“不存在”。
	Remove(ctx context.Context, word string) (RemoveStatus, error)

	// List 将缓存目录报告写入 w。
	List(ctx context.Context, w io.Writer) (Report, error)
}

// Options 控制 DiskStore 的根目录、容量以及报告格式。零值字段使用默认值。
type Options struct {
	Root        string
	Capacity    int
	MaxPathLen  int
	ColumnWidth int
	// ReadCapacity 是 Get 接受的最大条目字节数，应与上游响应上限保持一致。
	ReadCapacity int
	Logger       *logrus.Logger
	Now          func() time.Time
}

// RemoveStatus 描述 Remove 的结果。
type RemoveStatus int

const (
	RemoveFailed RemoveStatus = iota
	Removed
	RemoveNotFound
)

func (s RemoveStatus) String() string {
	switch s {
	case Removed:
		return "removed"
	case RemoveNotFound:
		return "not_found"
	default:
		return "failed"
	}
}

// EvictStats 汇总一次淘汰扫描：条目数、最早访问时间以及被删除的文件。
type EvictStats struct {
	Count   int
	Oldest  time.Time
	Evicted []string
	Err     error
}

// Report 汇总一次目录报告：条目数、原始字节数与换算后的体积。
type Report struct {
	Entries int
	Bytes   int64
	Size    int64
	Unit    string
	Err     error
}

var (
	// ErrNotFound 表示缓存不存在。
	ErrNotFound = errors.New("cache entry not found")

	// ErrDisabled 表示缓存根目录未配置。
	ErrDisabled = errors.New("cache not initialized")

	// ErrEntryTooLarge 表示条目超过 ReadCapacity，Get 不会返回截断的内容。
	ErrEntryTooLarge = errors.New("cache entry exceeds read capacity")
)

// PathError 表示无法为单词构建合法的缓存路径（非法单词或路径超长）。
type PathError struct {
	Word   string
	Reason string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("cache path for %q: %s", e.Word, e.Reason)
}

// IOError 包装底层文件系统错误，Op 为 open/read/write/remove 等操作名。
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("cache %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// WalkError 表示目录遍历失败；淘汰与报告会降级为部分结果而不是返回错误。
type WalkError struct {
	Path string
	Err  error
}

func (e *WalkError) Error() string {
	return fmt.Sprintf("cache walk %s: %v", e.Path, e.Err)
}

func (e *WalkError) Unwrap() error {
	return e.Err
}
