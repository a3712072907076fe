package logging

import "github.com/sirupsen/logrus"

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// LookupFields 提供单词与缓存命中状态字段，供 CLI 与 HTTP 查询日志复用。
func LookupFields(word string, cacheHit, force, skip bool) logrus.Fields {
	return logrus.Fields{
		"word":      word,
		"cache_hit": cacheHit,
		"force":     force,
		"skip":      skip,
	}
}
