// Package routes 注册 `dict --serve` 暴露的词条查询、缓存管理与健康检查接口。
package routes

import (
	"context"
	"io"

	"github.com/dict-cli/dict/internal/cache"
	"github.com/dict-cli/dict/internal/lookup"
)

// Service 是路由依赖的查询服务，*lookup.Service 即满足该接口。
type Service interface {
	Lookup(ctx context.Context, word string, opts lookup.Options) (*lookup.Result, error)
	Remove(ctx context.Context, word string) (cache.RemoveStatus, error)
	List(ctx context.Context, w io.Writer) (cache.Report, error)
	CacheEnabled() bool
}

var _ Service = (*lookup.Service)(nil)
