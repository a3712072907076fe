// Package lookup 串联缓存、网络请求与释义校验：先读缓存，未命中或强制刷新时
// 请求上游，确认包含释义后写回缓存。
package lookup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/dict-cli/dict/internal/cache"
	"github.com/dict-cli/dict/internal/dictapi"
	"github.com/dict-cli/dict/internal/logging"
	"github.com/dict-cli/dict/internal/render"
)

// ErrInvalidWord 表示查询的单词为空。
var ErrInvalidWord = errors.New("word required")

// Fetcher 抽象上游请求，便于测试替换。
type Fetcher interface {
	Fetch(ctx context.Context, word string) (*dictapi.Response, error)
}

// Options 对应 CLI 的 --force 与 --skip。
type Options struct {
	Force bool
	Skip  bool
}

// Result 描述一次查询的结果。
type Result struct {
	Word     string
	Payload  []byte
	CacheHit bool
	Stored   bool
}

// NoDefinitionError 表示上游返回的内容不含任何词条，Title/Message 取自 API 的错误对象。
type NoDefinitionError struct {
	Word       string
	StatusCode int
	Title      string
	Message    string
}

func (e *NoDefinitionError) Error() string {
	if e.Title != "" {
		return fmt.Sprintf("could not look up word %q: %s", e.Word, e.Title)
	}
	return fmt.Sprintf("could not look up word %q", e.Word)
}

func (e *NoDefinitionError) Unwrap() error { return render.ErrNoDefinition }

// FetchError 包装上游请求失败。
type FetchError struct {
	Word string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %q: %v", e.Word, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Service 对缓存的所有访问都在同一把互斥锁下进行，HTTP 服务可以并发调用。
type Service struct {
	mu      sync.Mutex
	store   cache.Store
	fetcher Fetcher
	logger  *logrus.Logger
}

// NewService 构造查询服务；logger 为空时丢弃日志。
func NewService(store cache.Store, fetcher Fetcher, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &Service{store: store, fetcher: fetcher, logger: logger}
}

// CacheEnabled 报告底层缓存是否可用。
func (s *Service) CacheEnabled() bool {
	return s.store.Enabled()
}

// Lookup 返回 word 的原始释义。缓存读取失败不会中断查询，而是退回上游请求；
// 写入失败只记录日志并把 Result.Stored 置为 false。
func (s *Service) Lookup(ctx context.Context, word string, opts Options) (*Result, error) {
	if strings.TrimSpace(word) == "" {
		return nil, ErrInvalidWord
	}
	result := &Result{Word: word}

	if !opts.Force {
		payload, err := s.readCache(ctx, word)
		if err == nil && render.HasDefinition(payload) {
			result.Payload = payload
			result.CacheHit = true
			s.logger.WithFields(logging.LookupFields(word, true, opts.Force, opts.Skip)).Debug("lookup_cache_hit")
			return result, nil
		}
		if err != nil && !errors.Is(err, cache.ErrNotFound) && !errors.Is(err, cache.ErrDisabled) {
			s.logger.WithFields(logging.LookupFields(word, false, opts.Force, opts.Skip)).
				WithError(err).Warn("lookup_cache_read_failed")
		}
	}

	resp, err := s.fetcher.Fetch(ctx, word)
	if err != nil {
		return nil, &FetchError{Word: word, Err: err}
	}
	if !render.HasDefinition(resp.Body) {
		title, message := render.Describe(resp.Body)
		return nil, &NoDefinitionError{Word: word, StatusCode: resp.StatusCode, Title: title, Message: message}
	}
	result.Payload = resp.Body

	if !opts.Skip {
		if err := s.writeCache(ctx, word, resp.Body); err != nil {
			s.logger.WithFields(logging.LookupFields(word, false, opts.Force, opts.Skip)).
				WithError(err).Error(fmt.Sprintf("Failed to write %s to cache", word))
		} else {
			result.Stored = s.store.Enabled()
		}
	}

	s.logger.WithFields(logging.LookupFields(word, false, opts.Force, opts.Skip)).
		WithField("stored", result.Stored).Debug("lookup_fetched")
	return result, nil
}

// Remove 删除单个缓存条目。
func (s *Service) Remove(ctx context.Context, word string) (cache.RemoveStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Remove(ctx, word)
}

// List 把缓存目录报告写入 w。
func (s *Service) List(ctx context.Context, w io.Writer) (cache.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.List(ctx, w)
}

func (s *Service) readCache(ctx context.Context, word string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Get(ctx, word)
}

func (s *Service) writeCache(ctx context.Context, word string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Write(ctx, word, payload)
}
