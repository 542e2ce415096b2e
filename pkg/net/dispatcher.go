package net

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Dispatcher 网络调度器 (通用组件)
type Dispatcher interface {
	// Send 发送 HTTP 请求
	// shopID: 业务实体的唯一标识，同一店铺的请求共用一个限速桶
	// req: 标准的 http.Request 对象
	Send(ctx context.Context, shopID int64, req *http.Request) (*http.Response, error)
}

// DispatcherOption 调度器配置项
type DispatcherOption func(*httpDispatcher)

// WithShopRate 单店铺每秒请求数 (<=0 表示不限速)
func WithShopRate(rps float64, burst int) DispatcherOption {
	return func(d *httpDispatcher) {
		d.rps = rps
		d.burst = burst
	}
}

// WithHTTPClient 自定义底层 Client (测试注入)
func WithHTTPClient(c *http.Client) DispatcherOption {
	return func(d *httpDispatcher) { d.client = c }
}

// httpDispatcher 是 Dispatcher 接口的具体实现
// 注意：它是私有的，外部只能通过 NewDispatcher 获取接口
type httpDispatcher struct {
	client   *http.Client
	limiters sync.Map // shopID -> *rate.Limiter
	rps      float64
	burst    int
}

var _ Dispatcher = (*httpDispatcher)(nil)

func NewDispatcher(opts ...DispatcherOption) Dispatcher {
	d := &httpDispatcher{
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
			Timeout: 30 * time.Second,
		},
		rps:   5,
		burst: 5,
	}
	for _, fn := range opts {
		fn(d)
	}
	return d
}

// Send 发送 HTTP 请求
// 只做限速，不做重试：远端状态在一次调用内要么成功要么失败
func (d *httpDispatcher) Send(ctx context.Context, shopID int64, req *http.Request) (*http.Response, error) {
	if l := d.limiter(shopID); l != nil {
		if err := l.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	resp, err := d.client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// limiter 获取/创建店铺限速桶
func (d *httpDispatcher) limiter(shopID int64) *rate.Limiter {
	if d.rps <= 0 {
		return nil
	}
	if val, ok := d.limiters.Load(shopID); ok {
		return val.(*rate.Limiter)
	}

	burst := d.burst
	if burst < 1 {
		burst = 1
	}
	// LoadOrStore 防止并发重复创建
	actual, _ := d.limiters.LoadOrStore(shopID, rate.NewLimiter(rate.Limit(d.rps), burst))
	return actual.(*rate.Limiter)
}
