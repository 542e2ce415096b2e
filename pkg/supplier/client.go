package supplier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

// ==================== Option ====================

type options struct {
	baseURL   string
	storesURL string // Gelato 店铺接口
	timeout   time.Duration
	rps       float64
	debug     bool
	transport http.RoundTripper
}

// Option Adapter 配置项
type Option func(*options)

// WithBaseURL 覆盖供应商接口地址 (测试或私有网关)
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = strings.TrimRight(u, "/") }
}

// WithStoresURL 覆盖 Gelato 店铺接口地址
func WithStoresURL(u string) Option {
	return func(o *options) { o.storesURL = strings.TrimRight(u, "/") }
}

// WithTimeout 单次请求超时
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithRateLimit 客户端限速 (每秒请求数，<=0 表示不限速)
func WithRateLimit(rps float64) Option {
	return func(o *options) { o.rps = rps }
}

// WithDebug 打印请求详情
func WithDebug(debug bool) Option {
	return func(o *options) { o.debug = debug }
}

// WithTransport 自定义 Transport
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

// WithBaseURLs 按供应商类型选择接口地址
func WithBaseURLs(urls map[Kind]string, kind Kind) Option {
	return func(o *options) {
		if u, ok := urls[kind]; ok && u != "" {
			o.baseURL = strings.TrimRight(u, "/")
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{timeout: 30 * time.Second}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// ==================== HTTP 客户端 ====================

// client 各供应商 Adapter 共用的 HTTP 客户端
type client struct {
	kind    Kind
	http    *resty.Client
	limiter *rate.Limiter
}

func newClient(kind Kind, baseURL string, o options) *client {
	if o.baseURL != "" {
		baseURL = o.baseURL
	}

	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(o.timeout).
		SetDebug(o.debug).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "PoD-ShopManager/1.0")
	if o.transport != nil {
		rc.SetTransport(o.transport)
	}

	c := &client{kind: kind, http: rc}
	if o.rps > 0 {
		burst := int(o.rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(o.rps), burst)
	}
	return c
}

// do 发送请求并解析 JSON
// path 可以是相对路径，也可以是完整 URL
func (c *client) do(ctx context.Context, method, path string, query map[string]string, body, out interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &APIError{Supplier: c.kind, Err: err}
		}
	}

	req := c.http.R().SetContext(ctx)
	if len(query) > 0 {
		req.SetQueryParams(query)
	}
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return &APIError{Supplier: c.kind, Err: err}
	}
	return c.decode(resp, out)
}

func (c *client) decode(resp *resty.Response, out interface{}) error {
	status := resp.StatusCode()
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &AuthError{Supplier: c.kind, Status: status, Message: errorMessage(resp.Body())}
	case status == http.StatusNotFound:
		return &APIError{Supplier: c.kind, Status: status, Body: resp.String(), Err: ErrNotFound}
	case !resp.IsSuccess():
		return &APIError{Supplier: c.kind, Status: status, Body: resp.String()}
	}

	if out == nil || len(resp.Body()) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return &APIError{Supplier: c.kind, Status: status, Err: fmt.Errorf("解析响应失败: %w", err)}
	}
	return nil
}

// errorMessage 提取供应商错误描述
func errorMessage(body []byte) string {
	var e struct {
		Message     string          `json:"message"`
		Error       json.RawMessage `json:"error"`
		Description string          `json:"description"`
	}
	if err := json.Unmarshal(body, &e); err != nil {
		return truncate(string(body), 200)
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Description != "" {
		return e.Description
	}
	if len(e.Error) > 0 {
		var s string
		if json.Unmarshal(e.Error, &s) == nil {
			return s
		}
		var obj struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(e.Error, &obj) == nil && obj.Message != "" {
			return obj.Message
		}
	}
	return truncate(string(body), 200)
}

// ==================== 公共工具 ====================

// flexString 兼容数字或字符串形式的 ID
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// window 对不分页的目录接口按 Page 截取
func window[T any](all []T, page Page) []T {
	if page.Offset >= len(all) {
		return nil
	}
	end := len(all)
	if page.Limit > 0 && page.Offset+page.Limit < end {
		end = page.Offset + page.Limit
	}
	return all[page.Offset:end]
}

// uniqueSizes 去重保序
func uniqueSizes(vs []Variant) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, v := range vs {
		if v.Size == "" {
			continue
		}
		if _, ok := seen[v.Size]; ok {
			continue
		}
		seen[v.Size] = struct{}{}
		out = append(out, v.Size)
	}
	return out
}

// uniqueColors 按名称去重保序
func uniqueColors(vs []Variant) []Color {
	seen := make(map[string]struct{})
	var out []Color
	for _, v := range vs {
		if v.Color == "" {
			continue
		}
		if _, ok := seen[v.Color]; ok {
			continue
		}
		seen[v.Color] = struct{}{}
		out = append(out, Color{Name: v.Color, Hex: v.ColorHex})
	}
	return out
}

// minPrice 规格最低价，无规格时为 0
func minPrice(vs []Variant) decimal.Decimal {
	var out decimal.Decimal
	for i, v := range vs {
		if i == 0 || v.Price.LessThan(out) {
			out = v.Price
		}
	}
	return out
}

// imageList 兼容 ["url"] 与 [{"src":"url"}] 两种图片格式
type imageList []string

func (l *imageList) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		var s string
		if json.Unmarshal(item, &s) == nil {
			if s != "" {
				out = append(out, s)
			}
			continue
		}
		var obj struct {
			Src string `json:"src"`
			URL string `json:"url"`
		}
		if json.Unmarshal(item, &obj) == nil {
			if obj.Src != "" {
				out = append(out, obj.Src)
			} else if obj.URL != "" {
				out = append(out, obj.URL)
			}
		}
	}
	*l = out
	return nil
}

// colorList 兼容 ["Black"] 与 [{"name":"Black","hex":"#000"}]
type colorList []Color

func (l *colorList) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil
	}
	out := make([]Color, 0, len(raw))
	for _, item := range raw {
		var s string
		if json.Unmarshal(item, &s) == nil {
			if s != "" {
				out = append(out, Color{Name: s})
			}
			continue
		}
		var obj struct {
			Name  string `json:"name"`
			Title string `json:"title"`
			Hex   string `json:"hex"`
			Code  string `json:"color_code"`
		}
		if json.Unmarshal(item, &obj) == nil {
			c := Color{Name: obj.Name, Hex: obj.Hex}
			if c.Name == "" {
				c.Name = obj.Title
			}
			if c.Hex == "" {
				c.Hex = obj.Code
			}
			if c.Name != "" {
				out = append(out, c)
			}
		}
	}
	*l = out
	return nil
}
