//go:build windows

package cache

import (
	"io/fs"
	"syscall"
	"time"
)

func accessTime(_ string, info fs.FileInfo) time.Time {
	if data, ok := info.Sys().(*syscall.Win32FileAttributeData); ok {
		return time.Unix(0, data.LastAccessTime.Nanoseconds())
	}
	return info.ModTime()
}
