package supplier

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Kind 供应商类型
type Kind string

const (
	Gelato   Kind = "gelato"
	Printify Kind = "printify"
	Printful Kind = "printful"
)

// Kinds 全部已支持供应商
func Kinds() []Kind {
	return []Kind{Gelato, Printify, Printful}
}

// ParseKind 解析供应商类型 (大小写不敏感)
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := registry[k]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupported, s)
	}
	return k, nil
}

func (k Kind) String() string { return string(k) }

// ==================== 统一数据结构 ====================

// Page 目录分页参数
type Page struct {
	Limit  int
	Offset int
}

// Color 颜色
type Color struct {
	Name string `json:"name"`
	Hex  string `json:"hex,omitempty"`
}

// Variant 规格报价
type Variant struct {
	ID        string          `json:"id"`
	Title     string          `json:"title,omitempty"`
	Size      string          `json:"size,omitempty"`
	Color     string          `json:"color,omitempty"`
	ColorHex  string          `json:"color_hex,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Available bool            `json:"available"`
}

// CatalogItem 标准化后的目录条目，价格统一为主货币单位
type CatalogItem struct {
	ExternalID   string
	Name         string
	Description  string
	ProductType  string
	Brand        string
	Category     string
	BlueprintID  string
	CatalogID    string
	BasePrice    decimal.Decimal
	Currency     string
	Sizes        []string
	Colors       []Color
	ThumbnailURL string
	Images       []string
	Variants     []Variant
}

// CatalogPage 一页目录
// Raw 为本页原始条目数 (含被跳过的条目)，同步方据此判断是否到达末页
type CatalogPage struct {
	Items   []CatalogItem
	Raw     int
	Skipped int
}

// Pricing 商品报价
type Pricing struct {
	BasePrice decimal.Decimal `json:"base_price"`
	Currency  string          `json:"currency"`
	Variants  []Variant       `json:"variants,omitempty"`
}

// Shipping 运费
type Shipping struct {
	FirstItem      decimal.Decimal `json:"first_item"`
	AdditionalItem decimal.Decimal `json:"additional_item"`
	Currency       string          `json:"currency"`
}

// Address 收件地址
type Address struct {
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Address1 string `json:"address1"`
	Address2 string `json:"address2,omitempty"`
	City     string `json:"city"`
	State    string `json:"state,omitempty"`
	Zip      string `json:"zip"`
	Country  string `json:"country"`
}

// OrderItem 订单行
type OrderItem struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
	FileURL   string `json:"file_url,omitempty"`
}

// OrderRequest 下单请求
type OrderRequest struct {
	ExternalID string      `json:"external_id"`
	Items      []OrderItem `json:"items"`
	Recipient  Address     `json:"recipient"`
}

// OrderResult 下单结果
type OrderResult struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// ShopRef 供应商侧店铺
type ShopRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// AccountInfo 凭证校验结果
type AccountInfo struct {
	AccountID   string    `json:"account_id,omitempty"`
	AccountName string    `json:"account_name"`
	Email       string    `json:"email,omitempty"`
	Shops       []ShopRef `json:"shops,omitempty"`
	StoreID     string    `json:"store_id,omitempty"`
}

// ==================== Adapter 接口 ====================

// Adapter 供应商能力集
// 所有方法不做自动重试，401/403 返回 *AuthError，其余失败返回 *APIError
type Adapter interface {
	Kind() Kind
	// ListCatalog 拉取一页目录
	ListCatalog(ctx context.Context, page Page) (*CatalogPage, error)
	// GetProduct 获取单个商品 (含规格)
	GetProduct(ctx context.Context, id string) (*CatalogItem, error)
	// GetPricing 获取商品在目的国的报价
	GetPricing(ctx context.Context, id, country string) (*Pricing, error)
	// GetShipping 获取商品发往目的国的运费
	GetShipping(ctx context.Context, id, country string) (*Shipping, error)
	// CreateOrder 创建订单
	CreateOrder(ctx context.Context, req *OrderRequest) (*OrderResult, error)
	// ValidateCredentials 校验凭证并返回账号信息
	ValidateCredentials(ctx context.Context) (*AccountInfo, error)
}

// Credentials 连接凭证
type Credentials struct {
	APIKey      string
	AccessToken string
	ShopID      string // Printify
	StoreID     string // Gelato
}

// token 优先使用 OAuth Token
func (c Credentials) token() string {
	if c.AccessToken != "" {
		return c.AccessToken
	}
	return c.APIKey
}

// ==================== 注册表 ====================

type constructor func(creds Credentials, opts options) Adapter

var registry = map[Kind]constructor{
	Gelato:   func(c Credentials, o options) Adapter { return NewGelatoAdapter(c, o) },
	Printify: func(c Credentials, o options) Adapter { return NewPrintifyAdapter(c, o) },
	Printful: func(c Credentials, o options) Adapter { return NewPrintfulAdapter(c, o) },
}

// New 按供应商类型创建 Adapter
func New(kind Kind, creds Credentials, opts ...Option) (Adapter, error) {
	ctor, ok := registry[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, kind)
	}
	return ctor(creds, buildOptions(opts)), nil
}

// Factory 创建 Adapter 的函数，便于服务层替换
type Factory func(kind Kind, creds Credentials) (Adapter, error)

// NewFactory 使用统一 Option 构建 Factory
func NewFactory(opts ...Option) Factory {
	return func(kind Kind, creds Credentials) (Adapter, error) {
		return New(kind, creds, opts...)
	}
}
