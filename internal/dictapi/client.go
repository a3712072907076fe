// Package dictapi 封装对 dictionaryapi.dev 的 HTTP 访问：共享连接池、超时、
// 有限重试以及响应体大小限制。响应内容原样返回，由调用方判断是否包含释义。
package dictapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dict-cli/dict/internal/config"
)

// ErrPayloadTooLarge 表示上游响应超过 MaxPayloadBytes。
var ErrPayloadTooLarge = errors.New("dictapi: payload exceeds size limit")

// Shared HTTP transport tunings，复用长连接并集中配置超时。
var defaultTransport = &http.Transport{
	Proxy:                 http.ProxyFromEnvironment,
	MaxIdleConns:          16,
	MaxIdleConnsPerHost:   16,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
	ForceAttemptHTTP2:     true,
	DialContext: (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
}

// Response 保存一次成功请求的状态码与原始响应体。
type Response struct {
	StatusCode int
	Body       []byte
}

// Options 描述构造 Client 所需的依赖。
type Options struct {
	Upstream   config.UpstreamConfig
	UserAgent  string
	Logger     *logrus.Logger
	HTTPClient *http.Client
}

// Client 通过 HTTP 获取单词释义。
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
	maxBytes   int64
	userAgent  string
	logger     *logrus.Logger
}

// NewClient 返回共享 transport 的 Client；未设置的字段回退到默认值。
func NewClient(opts Options) *Client {
	up := opts.Upstream

	timeout := 30 * time.Second
	if up.UpstreamTimeout.DurationValue() > 0 {
		timeout = up.UpstreamTimeout.DurationValue()
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   timeout,
			Transport: defaultTransport.Clone(),
		}
	}

	baseURL := strings.TrimRight(up.APIBaseURL, "/")
	if baseURL == "" {
		baseURL = config.DefaultAPIBaseURL
	}
	backoff := up.InitialBackoff.DurationValue()
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	maxBytes := up.MaxPayloadBytes
	if maxBytes <= 0 {
		maxBytes = 65536
	}
	maxRetries := up.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		maxRetries: maxRetries,
		backoff:    backoff,
		maxBytes:   maxBytes,
		userAgent:  opts.UserAgent,
		logger:     logger,
	}
}

// Fetch 请求 <APIBaseURL>/<word>。只要拿到 HTTP 响应即视为成功（包括 404），
// 传输错误、429 与 5xx 会按指数退避重试；重试耗尽时返回最后一次收到的响应。
func (c *Client) Fetch(ctx context.Context, word string) (*Response, error) {
	if word == "" {
		return nil, errors.New("dictapi: empty word")
	}
	endpoint := c.baseURL + "/" + url.PathEscape(word)

	var last *Response
	err := retryWithBackoff(ctx, c.maxRetries, c.backoff, func(attempt int) error {
		resp, err := c.do(ctx, endpoint)
		if err != nil {
			c.logAttempt(word, attempt, 0, err)
			return err
		}
		last = resp
		if retryableStatus(resp.StatusCode) {
			c.logAttempt(word, attempt, resp.StatusCode, nil)
			return &retryableError{status: resp.StatusCode}
		}
		return nil
	})
	if err != nil {
		var retryErr *retryableError
		if errors.As(err, &retryErr) && retryErr.status != 0 && last != nil {
			return last, nil
		}
		return nil, err
	}
	return last, nil
}

func (c *Client) do(ctx context.Context, endpoint string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("dictapi: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &retryableError{err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &retryableError{err: err}
	}
	if int64(len(body)) > c.maxBytes {
		return nil, fmt.Errorf("%w (%d bytes)", ErrPayloadTooLarge, c.maxBytes)
	}
	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}

func (c *Client) logAttempt(word string, attempt, status int, err error) {
	entry := c.logger.WithFields(logrus.Fields{
		"action":  "fetch",
		"word":    word,
		"attempt": attempt + 1,
	})
	if status != 0 {
		entry = entry.WithField("status", status)
	}
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Debug("fetch_attempt_failed")
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
