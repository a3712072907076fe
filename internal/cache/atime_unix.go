//go:build linux || darwin || freebsd || openbsd

package cache

import (
	"io/fs"
	"time"

	"golang.org/x/sys/unix"
)

// accessTime 读取文件的 atime；stat 失败时退回 ModTime。
func accessTime(path string, info fs.FileInfo) time.Time {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return info.ModTime()
	}
	return time.Unix(st.Atim.Unix())
}
