package cache

import (
	"context"
	"errors"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// Evict 扫描缓存目录；当条目数超过容量时删除访问时间最早的文件。
// 访问时间按秒比较，同一秒内并列最早的文件会被一并删除。
func (s *DiskStore) Evict(ctx context.Context) EvictStats {
	return s.evict(ctx, "")
}

func (s *DiskStore) evict(ctx context.Context, keep string) EvictStats {
	var stats EvictStats
	if !s.Enabled() {
		return stats
	}

	oldest := int64(math.MaxInt64)
	err := s.walkEntries(ctx, func(path string, info fs.FileInfo) error {
		stats.Count++
		if at := accessTime(path, info).Unix(); at < oldest {
			oldest = at
		}
		return nil
	})
	if err != nil {
		stats.Err = err
		s.logger.WithError(err).WithField("root", s.root).Debug("cache_count_walk_failed")
	}
	if stats.Count == 0 {
		return stats
	}
	stats.Oldest = time.Unix(oldest, 0)
	if stats.Count <= s.capacity {
		return stats
	}

	err = s.walkEntries(ctx, func(path string, info fs.FileInfo) error {
		if path == keep || accessTime(path, info).Unix() != oldest {
			return nil
		}
		if err := os.Remove(path); err != nil {
			s.logger.WithError(err).WithField("path", path).Warn("cache_evict_failed")
			return nil
		}
		stats.Evicted = append(stats.Evicted, filepath.Base(path))
		return nil
	})
	if err != nil {
		stats.Err = err
		s.logger.WithError(err).WithField("root", s.root).Debug("cache_evict_walk_failed")
	}

	s.logger.WithFields(logrus.Fields{
		"action":   "evict",
		"count":    stats.Count,
		"capacity": s.capacity,
		"evicted":  stats.Evicted,
	}).Debug("cache_evicted")
	return stats
}

// walkEntries 依字典序遍历根目录下的所有普通文件。遍历中途失败时返回
// *WalkError，已经回调过的条目保持有效。
func (s *DiskStore) walkEntries(ctx context.Context, fn func(path string, info fs.FileInfo) error) error {
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		return fn(path, info)
	})
	if err == nil {
		return nil
	}
	var walkErr *WalkError
	if errors.As(err, &walkErr) {
		return err
	}
	return &WalkError{Path: s.root, Err: err}
}
