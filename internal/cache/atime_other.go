//go:build !linux && !darwin && !freebsd && !openbsd && !windows

package cache

import (
	"io/fs"
	"time"
)

// accessTime 在无法读取 atime 的平台上以 ModTime 近似。
func accessTime(_ string, info fs.FileInfo) time.Time {
	return info.ModTime()
}
