package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/iShirker/PoD-ShopManager/internal/catalog"
	"github.com/iShirker/PoD-ShopManager/internal/model"
	"github.com/iShirker/PoD-ShopManager/internal/repository"
)

// 匹配来源
const (
	MatchSourceCatalog = "catalog"  // 本地已同步目录
	MatchSourceTypeMap = "type_map" // 静态类型映射兜底
)

// Match 某个供应商连接下的对应商品
type Match struct {
	SupplierType      string                 `json:"supplier_type"`
	ConnectionID      int64                  `json:"connection_id"`
	SupplierProductID string                 `json:"supplier_product_id"`
	Source            string                 `json:"source"`
	Product           *model.SupplierProduct `json:"product,omitempty"`
}

// MatcherService 跨供应商商品匹配
type MatcherService struct {
	products repository.ProductRepository
	catalog  repository.SupplierProductRepository
	conns    repository.SupplierConnectionRepository
	typeMap  *catalog.TypeMap
}

func NewMatcherService(
	products repository.ProductRepository,
	catalogRepo repository.SupplierProductRepository,
	conns repository.SupplierConnectionRepository,
	typeMap *catalog.TypeMap,
) *MatcherService {
	return &MatcherService{
		products: products,
		catalog:  catalogRepo,
		conns:    conns,
		typeMap:  typeMap,
	}
}

// FindMatches 逐个连接查找对应商品，不做排序
// 目录中无匹配时使用类型映射中该供应商的 ID
func (s *MatcherService) FindMatches(ctx context.Context, productType string, conns []model.SupplierConnection) ([]Match, error) {
	key := catalog.NormalizeTypeKey(productType)
	if key == "" {
		return nil, nil
	}

	var matches []Match
	for i := range conns {
		m, ok, err := s.matchOne(ctx, key, productType, &conns[i])
		if err != nil {
			return nil, err
		}
		if ok {
			matches = append(matches, m)
		}
	}
	return matches, nil
}

func (s *MatcherService) matchOne(ctx context.Context, key, productType string, conn *model.SupplierConnection) (Match, bool, error) {
	row, err := s.catalog.FindByTypeKey(ctx, conn.ID, key)
	switch {
	case err == nil:
		return Match{
			SupplierType:      conn.SupplierType,
			ConnectionID:      conn.ID,
			SupplierProductID: row.SupplierProductID,
			Source:            MatchSourceCatalog,
			Product:           row,
		}, true, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return Match{}, false, err
	}

	mapping, ok := s.typeMap.Lookup(productType)
	if !ok {
		return Match{}, false, nil
	}
	externalID, ok := mapping.ExternalID(conn.SupplierType)
	if !ok {
		return Match{}, false, nil
	}
	return Match{
		SupplierType:      conn.SupplierType,
		ConnectionID:      conn.ID,
		SupplierProductID: externalID,
		Source:            MatchSourceTypeMap,
	}, true, nil
}

// MatchListing 为 Listing 查找除当前供应商外的全部候选
func (s *MatcherService) MatchListing(ctx context.Context, userID, productID int64) ([]Match, error) {
	product, err := s.products.GetForUser(ctx, userID, productID)
	if err != nil {
		return nil, notFound(err)
	}
	if product.ProductType == "" {
		return nil, ErrNoProductType
	}

	conns, err := s.conns.ListConnectedByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	others := conns[:0]
	for _, c := range conns {
		if c.SupplierType != product.SupplierType {
			others = append(others, c)
		}
	}
	return s.FindMatches(ctx, product.ProductType, others)
}
