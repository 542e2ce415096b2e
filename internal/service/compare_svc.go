package service

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/iShirker/PoD-ShopManager/internal/catalog"
	"github.com/iShirker/PoD-ShopManager/internal/model"
	"github.com/iShirker/PoD-ShopManager/internal/repository"
	"github.com/iShirker/PoD-ShopManager/pkg/logger"
	"github.com/iShirker/PoD-ShopManager/pkg/supplier"
)

// 比价目的国
const compareCountry = "US"

// SupplierQuote 单个供应商报价
type SupplierQuote struct {
	SupplierType           string             `json:"supplier_type"`
	ConnectionID           int64              `json:"connection_id"`
	SupplierProductID      string             `json:"supplier_product_id"`
	BasePrice              decimal.Decimal    `json:"base_price"`
	Currency               string             `json:"currency"`
	ShippingFirstItem      decimal.Decimal    `json:"shipping_first_item"`
	ShippingAdditionalItem decimal.Decimal    `json:"shipping_additional_item"`
	TotalCost              decimal.Decimal    `json:"total_cost"`
	Variants               []supplier.Variant `json:"variants,omitempty"`
}

// ComparisonResult Listing 比价结果
// 成本模型只计首件落地成本，不含平台费用、汇率与多件运费
type ComparisonResult struct {
	ProductID        int64                     `json:"product_id"`
	Title            string                    `json:"title"`
	ProductType      string                    `json:"product_type"`
	CurrentSupplier  string                    `json:"current_supplier"`
	CurrentSKU       string                    `json:"current_sku"`
	ListingPrice     decimal.Decimal           `json:"listing_price"`
	Suppliers        map[string]*SupplierQuote `json:"suppliers"`
	BestSupplier     string                    `json:"best_supplier,omitempty"`
	BestPrice        decimal.Decimal           `json:"best_price"`
	PotentialSavings decimal.Decimal           `json:"potential_savings"`
	SavingsPercent   decimal.Decimal           `json:"savings_percent"`
}

// CompareFilter 批量比价过滤条件
type CompareFilter struct {
	ProductType  string
	ShopID       int64
	SupplierType string
}

// SupplierSummary 按当前供应商汇总
type SupplierSummary struct {
	CurrentCount     int             `json:"current_count"`
	PotentialSavings decimal.Decimal `json:"potential_savings"`
}

// ProductTypeSummary 按商品类型汇总
type ProductTypeSummary struct {
	Count            int             `json:"count"`
	PotentialSavings decimal.Decimal `json:"potential_savings"`
	BestSupplier     string          `json:"best_supplier,omitempty"`
}

// ComparisonSummary 用户全部 Listing 的节省汇总
type ComparisonSummary struct {
	TotalProducts         int                            `json:"total_products"`
	ProductsWithSavings   int                            `json:"products_with_savings"`
	TotalPotentialSavings decimal.Decimal                `json:"total_potential_savings"`
	BySupplier            map[string]*SupplierSummary    `json:"by_supplier"`
	ByProductType         map[string]*ProductTypeSummary `json:"by_product_type"`
}

// CompareService 跨供应商比价
type CompareService struct {
	products repository.ProductRepository
	conns    repository.SupplierConnectionRepository
	factory  supplier.Factory
	typeMap  *catalog.TypeMap
}

func NewCompareService(
	products repository.ProductRepository,
	conns repository.SupplierConnectionRepository,
	factory supplier.Factory,
	typeMap *catalog.TypeMap,
) *CompareService {
	return &CompareService{
		products: products,
		conns:    conns,
		factory:  factory,
		typeMap:  typeMap,
	}
}

// ConnectionMap 每种供应商取最早的已连接账号
func (s *CompareService) ConnectionMap(ctx context.Context, userID int64) (map[supplier.Kind]*model.SupplierConnection, error) {
	list, err := s.conns.ListConnectedByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make(map[supplier.Kind]*model.SupplierConnection)
	for i := range list {
		kind, err := supplier.ParseKind(list[i].SupplierType)
		if err != nil {
			continue
		}
		if _, ok := out[kind]; !ok {
			out[kind] = &list[i]
		}
	}
	return out, nil
}

// CompareListing 实时拉取各已连接供应商报价
// 商品类型无映射时 ok=false；单个供应商失败不影响其他供应商
func (s *CompareService) CompareListing(
	ctx context.Context,
	product *model.Product,
	conns map[supplier.Kind]*model.SupplierConnection,
	detailed bool,
) (*ComparisonResult, bool, error) {
	if product.ProductType == "" {
		return nil, false, nil
	}
	mapping, ok := s.typeMap.Lookup(product.ProductType)
	if !ok {
		return nil, false, nil
	}

	result := &ComparisonResult{
		ProductID:       product.ID,
		Title:           product.Title,
		ProductType:     product.ProductType,
		CurrentSupplier: product.SupplierType,
		CurrentSKU:      product.SKU,
		ListingPrice:    product.Price,
		Suppliers:       make(map[string]*SupplierQuote),
	}

	for _, kind := range supplier.Kinds() {
		conn, ok := conns[kind]
		if !ok {
			continue
		}
		externalID, ok := mapping.ExternalID(kind.String())
		if !ok {
			continue
		}
		quote, err := s.quote(ctx, kind, conn, externalID, detailed)
		if err != nil {
			if ctx.Err() != nil {
				return nil, false, ctx.Err()
			}
			logger.L().WithError(err).WithField("product_id", product.ID).
				Warnf("[Compare] %s 报价失败，已忽略", kind)
			continue
		}
		result.Suppliers[kind.String()] = quote
	}

	applyBest(result)
	return result, true, nil
}

func (s *CompareService) quote(ctx context.Context, kind supplier.Kind, conn *model.SupplierConnection, externalID string, detailed bool) (*SupplierQuote, error) {
	adapter, err := adapterFor(s.factory, conn)
	if err != nil {
		return nil, err
	}
	pricing, err := adapter.GetPricing(ctx, externalID, compareCountry)
	if err != nil {
		return nil, err
	}
	shipping, err := adapter.GetShipping(ctx, externalID, compareCountry)
	if err != nil {
		return nil, err
	}

	currency := pricing.Currency
	if currency == "" {
		currency = "USD"
	}
	q := &SupplierQuote{
		SupplierType:           kind.String(),
		ConnectionID:           conn.ID,
		SupplierProductID:      externalID,
		BasePrice:              pricing.BasePrice,
		Currency:               currency,
		ShippingFirstItem:      shipping.FirstItem,
		ShippingAdditionalItem: shipping.AdditionalItem,
		TotalCost:              pricing.BasePrice.Add(shipping.FirstItem),
	}
	if detailed {
		q.Variants = pricing.Variants
	}
	return q, nil
}

// applyBest 计算最低成本供应商与相对当前供应商的节省
func applyBest(r *ComparisonResult) {
	r.PotentialSavings = decimal.Zero
	r.SavingsPercent = decimal.Zero
	if len(r.Suppliers) == 0 {
		return
	}

	// 固定顺序遍历，成本相同时结果稳定
	kinds := make([]string, 0, len(r.Suppliers))
	for k := range r.Suppliers {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	for _, k := range kinds {
		total := r.Suppliers[k].TotalCost
		if !total.IsPositive() {
			continue
		}
		if r.BestSupplier == "" || total.LessThan(r.BestPrice) {
			r.BestSupplier = k
			r.BestPrice = total
		}
	}
	if r.BestSupplier == "" {
		return
	}

	current, ok := r.Suppliers[r.CurrentSupplier]
	if !ok {
		return
	}
	cur := current.TotalCost
	if cur.IsPositive() && r.BestPrice.LessThan(cur) {
		diff := cur.Sub(r.BestPrice)
		r.PotentialSavings = diff.Round(2)
		r.SavingsPercent = diff.Div(cur).Mul(decimal.NewFromInt(100)).Round(1)
	}
}

// CompareForUser 单个 Listing 详细比价
func (s *CompareService) CompareForUser(ctx context.Context, userID, productID int64) (*ComparisonResult, error) {
	product, err := s.products.GetForUser(ctx, userID, productID)
	if err != nil {
		return nil, notFound(err)
	}
	if product.ProductType == "" {
		return nil, ErrNoProductType
	}
	conns, err := s.ConnectionMap(ctx, userID)
	if err != nil {
		return nil, err
	}
	result, ok, err := s.CompareListing(ctx, product, conns, true)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &NoMatchError{ProductType: product.ProductType, Supplier: "any supplier"}
	}
	return result, nil
}

// CompareUserListings 批量比价，无映射的 Listing 不出现在结果中
func (s *CompareService) CompareUserListings(ctx context.Context, userID int64, filter CompareFilter) ([]ComparisonResult, error) {
	products, _, err := s.products.List(ctx, repository.ProductFilter{
		UserID:       userID,
		ShopID:       filter.ShopID,
		SupplierType: filter.SupplierType,
		ProductType:  filter.ProductType,
	})
	if err != nil {
		return nil, err
	}
	conns, err := s.ConnectionMap(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]ComparisonResult, 0, len(products))
	for i := range products {
		result, ok, err := s.CompareListing(ctx, &products[i], conns, false)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, *result)
		}
	}
	return out, nil
}

// ComparisonSummary 汇总全部 Listing 的潜在节省
func (s *CompareService) ComparisonSummary(ctx context.Context, userID int64) (*ComparisonSummary, error) {
	products, _, err := s.products.List(ctx, repository.ProductFilter{UserID: userID})
	if err != nil {
		return nil, err
	}
	conns, err := s.ConnectionMap(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary := &ComparisonSummary{
		TotalProducts:         len(products),
		TotalPotentialSavings: decimal.Zero,
		BySupplier:            make(map[string]*SupplierSummary),
		ByProductType:         make(map[string]*ProductTypeSummary),
	}
	for _, k := range supplier.Kinds() {
		summary.BySupplier[k.String()] = &SupplierSummary{PotentialSavings: decimal.Zero}
	}

	for i := range products {
		p := &products[i]
		bySupplier := summary.BySupplier[p.SupplierType]
		if bySupplier != nil {
			bySupplier.CurrentCount++
		}

		result, ok, err := s.CompareListing(ctx, p, conns, false)
		if err != nil {
			return nil, err
		}
		if !ok || !result.PotentialSavings.IsPositive() {
			continue
		}

		summary.ProductsWithSavings++
		summary.TotalPotentialSavings = summary.TotalPotentialSavings.Add(result.PotentialSavings)
		if bySupplier != nil {
			bySupplier.PotentialSavings = bySupplier.PotentialSavings.Add(result.PotentialSavings)
		}

		pt := p.ProductType
		if pt == "" {
			pt = "Unknown"
		}
		byType, ok := summary.ByProductType[pt]
		if !ok {
			byType = &ProductTypeSummary{PotentialSavings: decimal.Zero}
			summary.ByProductType[pt] = byType
		}
		byType.Count++
		byType.PotentialSavings = byType.PotentialSavings.Add(result.PotentialSavings)
		if result.BestSupplier != "" {
			byType.BestSupplier = result.BestSupplier
		}
	}

	summary.TotalPotentialSavings = summary.TotalPotentialSavings.Round(2)
	return summary, nil
}

// ProductTypes 按商品类型与供应商聚合 Listing 数
func (s *CompareService) ProductTypes(ctx context.Context, userID int64) ([]repository.ProductTypeCount, error) {
	return s.products.TypeCounts(ctx, userID)
}
