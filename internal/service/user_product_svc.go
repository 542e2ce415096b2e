package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/iShirker/PoD-ShopManager/internal/model"
	"github.com/iShirker/PoD-ShopManager/internal/repository"
	"github.com/iShirker/PoD-ShopManager/pkg/logger"
)

// CreateUserProductRequest 新增追踪商品
type CreateUserProductRequest struct {
	ProductName              string
	ProductType              string
	Brand                    string
	Category                 string
	Description              string
	ThumbnailURL             string
	PrimarySupplierType      string
	PrimarySupplierProductID string
}

// UserProductService 用户追踪商品
type UserProductService struct {
	repo    repository.UserProductRepository
	conns   repository.SupplierConnectionRepository
	matcher *MatcherService
}

func NewUserProductService(repo repository.UserProductRepository, conns repository.SupplierConnectionRepository, matcher *MatcherService) *UserProductService {
	return &UserProductService{repo: repo, conns: conns, matcher: matcher}
}

func (s *UserProductService) List(ctx context.Context, userID int64) ([]model.UserProduct, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Create 创建后按商品类型自动关联已连接供应商
func (s *UserProductService) Create(ctx context.Context, userID int64, req CreateUserProductRequest) (*model.UserProduct, error) {
	up := &model.UserProduct{
		UserID:                   userID,
		ProductName:              strings.TrimSpace(req.ProductName),
		ProductType:              strings.TrimSpace(req.ProductType),
		Brand:                    req.Brand,
		Category:                 req.Category,
		Description:              req.Description,
		ThumbnailURL:             req.ThumbnailURL,
		PrimarySupplierType:      strings.ToLower(req.PrimarySupplierType),
		PrimarySupplierProductID: req.PrimarySupplierProductID,
		IsActive:                 true,
	}
	if up.ProductName == "" {
		return nil, fmt.Errorf("%w: product_name is required", ErrInvalidRequest)
	}
	if err := s.repo.Create(ctx, up); err != nil {
		return nil, fmt.Errorf("保存追踪商品失败: %w", err)
	}

	linked, err := s.autoLink(ctx, up)
	if err != nil {
		logger.L().WithError(err).WithField("user_product_id", up.ID).Warn("[UserProduct] 自动关联供应商失败")
	}
	up.Suppliers = linked
	return up, nil
}

func (s *UserProductService) autoLink(ctx context.Context, up *model.UserProduct) ([]model.UserProductSupplier, error) {
	lookup := up.ProductType
	if lookup == "" {
		lookup = up.ProductName
	}
	conns, err := s.conns.ListConnectedByUser(ctx, up.UserID)
	if err != nil {
		return nil, err
	}
	matches, err := s.matcher.FindMatches(ctx, lookup, conns)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	seen := make(map[int64]bool)
	var links []model.UserProductSupplier
	for _, m := range matches {
		if seen[m.ConnectionID] {
			continue
		}
		seen[m.ConnectionID] = true

		link := model.UserProductSupplier{
			UserProductID:        up.ID,
			SupplierConnectionID: m.ConnectionID,
			SupplierType:         m.SupplierType,
			ExternalProductID:    m.SupplierProductID,
			Currency:             "USD",
			IsAvailable:          true,
			LastChecked:          &now,
		}
		if m.Product != nil {
			id := m.Product.ID
			link.SupplierProductID = &id
			link.BasePrice = m.Product.BasePrice
			if m.Product.Currency != "" {
				link.Currency = m.Product.Currency
			}
		}
		if err := s.repo.UpsertSupplier(ctx, &link); err != nil {
			return links, err
		}
		links = append(links, link)
	}
	return links, nil
}

// Delete 软删除
func (s *UserProductService) Delete(ctx context.Context, userID, id int64) error {
	return notFound(s.repo.Delete(ctx, userID, id))
}

// Suppliers 已关联的供应商商品
func (s *UserProductService) Suppliers(ctx context.Context, userID, id int64) ([]model.UserProductSupplier, error) {
	if _, err := s.repo.GetForUser(ctx, userID, id); err != nil {
		return nil, notFound(err)
	}
	return s.repo.ListSuppliers(ctx, id)
}
