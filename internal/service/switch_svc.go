package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/iShirker/PoD-ShopManager/internal/catalog"
	"github.com/iShirker/PoD-ShopManager/internal/model"
	"github.com/iShirker/PoD-ShopManager/internal/repository"
	"github.com/iShirker/PoD-ShopManager/pkg/events"
	"github.com/iShirker/PoD-ShopManager/pkg/logger"
	"github.com/iShirker/PoD-ShopManager/pkg/marketplace"
	"github.com/iShirker/PoD-ShopManager/pkg/supplier"
)

// ErrEmptySelection 批量切换未指定商品
var ErrEmptySelection = errors.New("product_ids or product_type is required")

// 旧供应商前缀：2~3 位大写字母加下划线
var skuPrefixRe = regexp.MustCompile(`^[A-Z]{2,3}_`)

// SwitchRequest 单个切换请求
type SwitchRequest struct {
	ProductID       int64
	TargetSupplier  string
	TargetProductID string // 可选，指定目标供应商商品 ID
}

// SwitchResult 切换结果
type SwitchResult struct {
	OperationID        string            `json:"operation_id"`
	ProductID          int64             `json:"product_id"`
	Title              string            `json:"title"`
	PreviousSupplier   string            `json:"previous_supplier"`
	NewSupplier        string            `json:"new_supplier"`
	SupplierProductID  string            `json:"supplier_product_id"`
	SKUChanges         []model.SKUChange `json:"sku_changes"`
	State              string            `json:"state"`
	MarketplaceUpdated bool              `json:"marketplace_updated"`
}

// SwitchPreview 切换预览
type SwitchPreview struct {
	ProductID       int64             `json:"product_id"`
	Title           string            `json:"title"`
	CurrentSupplier string            `json:"current_supplier"`
	TargetSupplier  string            `json:"target_supplier"`
	SKUChanges      []model.SKUChange `json:"sku_changes"`
}

// BulkSwitchRequest 批量切换请求，ProductIDs 优先于 ProductType
type BulkSwitchRequest struct {
	ProductIDs     []int64
	ProductType    string
	TargetSupplier string
}

// BulkItem 批量切换单项结果
type BulkItem struct {
	ID                 int64  `json:"id"`
	Title              string `json:"title"`
	Error              string `json:"error,omitempty"`
	MarketplacePending bool   `json:"marketplace_pending,omitempty"`
}

// BulkSwitchResult 批量切换结果
type BulkSwitchResult struct {
	Success []BulkItem `json:"success"`
	Failed  []BulkItem `json:"failed"`
	Total   int        `json:"total"`
}

// SwitchService 供应商切换
type SwitchService struct {
	uow       *repository.SwitchUnitOfWork
	products  repository.ProductRepository
	switches  repository.ProductSwitchRepository
	conns     repository.SupplierConnectionRepository
	matcher   *MatcherService
	market    marketplace.SKUUpdater
	publisher events.Publisher
}

func NewSwitchService(
	uow *repository.SwitchUnitOfWork,
	conns repository.SupplierConnectionRepository,
	matcher *MatcherService,
	market marketplace.SKUUpdater,
	publisher events.Publisher,
) *SwitchService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &SwitchService{
		uow:       uow,
		products:  uow.Products,
		switches:  uow.Switches,
		conns:     conns,
		matcher:   matcher,
		market:    market,
		publisher: publisher,
	}
}

// ==================== SKU 生成 ====================

// GenerateSKUChanges 计算切换到目标供应商后的新 SKU
// 有 SKU: 去掉旧前缀后加新前缀；无 SKU: 新前缀 + listingID_规格ID
func GenerateSKUChanges(product *model.Product, target string) []model.SKUChange {
	prefix := catalog.Default().SKUPrefix(target)
	changes := make([]model.SKUChange, 0, len(product.Variants))
	for _, v := range product.Variants {
		var newSKU string
		if v.SKU != "" {
			newSKU = prefix + skuPrefixRe.ReplaceAllString(v.SKU, "")
		} else {
			variantID := v.VariantID
			if variantID == "" {
				variantID = strconv.FormatInt(v.ID, 10)
			}
			newSKU = prefix + product.ListingID + "_" + variantID
		}
		changes = append(changes, model.SKUChange{
			VariantID:            v.ID,
			MarketplaceVariantID: v.VariantID,
			OldSKU:               v.SKU,
			NewSKU:               newSKU,
			Size:                 v.Size,
			Color:                v.Color,
		})
	}
	return changes
}

// PreviewSwitch 只计算 SKU 变更，不做任何修改
func (s *SwitchService) PreviewSwitch(ctx context.Context, userID, productID int64, target string) (*SwitchPreview, error) {
	kind, err := supplier.ParseKind(target)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSupplier, target)
	}
	product, err := s.products.GetForUser(ctx, userID, productID)
	if err != nil {
		return nil, notFound(err)
	}
	return &SwitchPreview{
		ProductID:       product.ID,
		Title:           product.Title,
		CurrentSupplier: product.SupplierType,
		TargetSupplier:  kind.String(),
		SKUChanges:      GenerateSKUChanges(product, kind.String()),
	}, nil
}

// ==================== 切换 ====================

// Switch 将 Listing 切换到目标供应商
// 本地提交后平台推送失败返回 *RemotePendingError，本地修改保留
func (s *SwitchService) Switch(ctx context.Context, userID int64, req SwitchRequest) (*SwitchResult, error) {
	kind, err := supplier.ParseKind(req.TargetSupplier)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSupplier, req.TargetSupplier)
	}
	product, err := s.products.GetForUser(ctx, userID, req.ProductID)
	if err != nil {
		return nil, notFound(err)
	}
	if product.SupplierType == kind.String() {
		return nil, &AlreadyOnSupplierError{Supplier: kind.String()}
	}
	conn, err := s.targetConnection(ctx, userID, kind)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, userID, product, conn, req.TargetProductID)
}

// BulkSwitch 逐个切换，单个失败不中断
func (s *SwitchService) BulkSwitch(ctx context.Context, userID int64, req BulkSwitchRequest) (*BulkSwitchResult, error) {
	kind, err := supplier.ParseKind(req.TargetSupplier)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSupplier, req.TargetSupplier)
	}
	conn, err := s.targetConnection(ctx, userID, kind)
	if err != nil {
		return nil, err
	}
	ids, err := s.selectProducts(ctx, userID, req)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, ErrNotFound
	}

	result := &BulkSwitchResult{Success: []BulkItem{}, Failed: []BulkItem{}, Total: len(ids)}
	for _, id := range ids {
		product, err := s.products.GetForUser(ctx, userID, id)
		if err != nil {
			result.Failed = append(result.Failed, BulkItem{ID: id, Error: notFound(err).Error()})
			continue
		}
		item := BulkItem{ID: product.ID, Title: product.Title}

		if product.SupplierType == kind.String() {
			item.Error = (&AlreadyOnSupplierError{Supplier: kind.String()}).Error()
			result.Failed = append(result.Failed, item)
			continue
		}

		_, err = s.run(ctx, userID, product, conn, "")
		var pending *RemotePendingError
		switch {
		case err == nil:
			result.Success = append(result.Success, item)
		case errors.As(err, &pending):
			item.Error = err.Error()
			item.MarketplacePending = true
			result.Success = append(result.Success, item)
		default:
			item.Error = err.Error()
			result.Failed = append(result.Failed, item)
		}
	}

	logger.L().WithField("user_id", userID).WithField("target", kind).
		Infof("[Switch] 批量切换完成: 成功 %d, 失败 %d", len(result.Success), len(result.Failed))
	return result, nil
}

func (s *SwitchService) selectProducts(ctx context.Context, userID int64, req BulkSwitchRequest) ([]int64, error) {
	if len(req.ProductIDs) > 0 {
		list, err := s.products.ListByIDs(ctx, userID, req.ProductIDs)
		if err != nil {
			return nil, err
		}
		ids := make([]int64, 0, len(list))
		for _, p := range list {
			ids = append(ids, p.ID)
		}
		return ids, nil
	}

	pt := strings.ToLower(strings.TrimSpace(req.ProductType))
	if pt == "" {
		return nil, ErrEmptySelection
	}
	list, _, err := s.products.List(ctx, repository.ProductFilter{UserID: userID})
	if err != nil {
		return nil, err
	}
	var ids []int64
	for _, p := range list {
		if strings.Contains(strings.ToLower(p.ProductType), pt) {
			ids = append(ids, p.ID)
		}
	}
	return ids, nil
}

func (s *SwitchService) targetConnection(ctx context.Context, userID int64, kind supplier.Kind) (*model.SupplierConnection, error) {
	conn, err := s.conns.FindConnected(ctx, userID, kind.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotConnectedError{Supplier: kind.String()}
		}
		return nil, err
	}
	return conn, nil
}

// run 执行状态机
// resolving_target -> generating_skus -> updating_local -> local_committed -> updating_marketplace -> done
func (s *SwitchService) run(ctx context.Context, userID int64, product *model.Product, conn *model.SupplierConnection, targetProductID string) (*SwitchResult, error) {
	rec := &model.ProductSwitch{
		OperationID:        uuid.NewString(),
		UserID:             userID,
		ProductID:          product.ID,
		FromSupplier:       product.SupplierType,
		ToSupplier:         conn.SupplierType,
		TargetConnectionID: conn.ID,
		State:              model.SwitchStateResolvingTarget,
	}
	if err := s.switches.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("创建切换记录失败: %w", err)
	}
	log := logger.L().WithField("operation_id", rec.OperationID).WithField("product_id", product.ID)

	// 1. 确定目标商品
	targetID, err := s.resolveTarget(ctx, product, conn, targetProductID)
	if err != nil {
		return nil, s.fail(ctx, rec, err)
	}
	rec.TargetSupplierProductID = targetID

	// 2. 生成 SKU
	rec.State = model.SwitchStateGeneratingSKUs
	changes := GenerateSKUChanges(product, conn.SupplierType)
	rec.SKUChanges = changes

	// 3. 本地事务提交
	rec.State = model.SwitchStateUpdatingLocal
	newPrefix := catalog.Default().SKUPrefix(conn.SupplierType)
	err = s.uow.Transaction(ctx, func(uow *repository.SwitchUnitOfWork) error {
		for _, c := range changes {
			if err := uow.Products.UpdateVariantSKU(ctx, c.VariantID, c.NewSKU); err != nil {
				return err
			}
		}
		fields := map[string]interface{}{
			"supplier_type":       conn.SupplierType,
			"supplier_product_id": targetID,
			"sku_pattern":         newPrefix,
			"sku":                 "",
		}
		if len(changes) > 0 {
			fields["sku"] = changes[0].NewSKU
		}
		if err := uow.Products.UpdateFields(ctx, product.ID, fields); err != nil {
			return err
		}
		rec.State = model.SwitchStateLocalCommitted
		return uow.Switches.Save(ctx, rec)
	})
	if err != nil {
		rec.State = model.SwitchStateUpdatingLocal
		return nil, s.fail(ctx, rec, fmt.Errorf("本地更新失败: %w", err))
	}
	s.publish(ctx, events.SwitchLocalCommitted, rec)
	log.Infof("[Switch] 本地已提交 %s -> %s, %d 个规格", rec.FromSupplier, rec.ToSupplier, len(changes))

	result := &SwitchResult{
		OperationID:       rec.OperationID,
		ProductID:         product.ID,
		Title:             product.Title,
		PreviousSupplier:  rec.FromSupplier,
		NewSupplier:       rec.ToSupplier,
		SupplierProductID: targetID,
		SKUChanges:        changes,
	}

	// 4. 推送平台
	plan := skuPlan(changes)
	if product.Shop != nil && product.Shop.IsConnected && len(plan) > 0 {
		rec.State = model.SwitchStateUpdatingMarketplace
		s.save(ctx, rec)
		updated, err := s.market.UpdateSKUs(ctx, storeFor(product.Shop), product.ListingID, plan)
		if err != nil {
			rec.State = model.SwitchStateLocalCommitted
			rec.Error = err.Error()
			s.save(ctx, rec)
			log.WithError(err).Warn("[Switch] 平台 SKU 推送失败，等待重试")
			result.State = rec.State
			return result, &RemotePendingError{OperationID: rec.OperationID, Err: err}
		}
		if updated > 0 {
			now := time.Now()
			rec.MarketplaceSyncAt = &now
			result.MarketplaceUpdated = true
		} else {
			log.Warn("[Switch] 平台侧没有匹配的规格，SKU 未修改")
		}
	}

	rec.State = model.SwitchStateDone
	rec.Error = ""
	s.save(ctx, rec)
	s.publish(ctx, events.SwitchDone, rec)

	result.State = rec.State
	return result, nil
}

// resolveTarget 调用方指定 > 目标连接已同步目录 > 类型映射
func (s *SwitchService) resolveTarget(ctx context.Context, product *model.Product, conn *model.SupplierConnection, requested string) (string, error) {
	if requested = strings.TrimSpace(requested); requested != "" {
		return requested, nil
	}
	if product.ProductType == "" {
		return "", ErrNoProductType
	}
	matches, err := s.matcher.FindMatches(ctx, product.ProductType, []model.SupplierConnection{*conn})
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", &NoMatchError{Supplier: conn.SupplierType, ProductType: product.ProductType}
	}
	return matches[0].SupplierProductID, nil
}

func (s *SwitchService) fail(ctx context.Context, rec *model.ProductSwitch, err error) error {
	logger.L().WithField("operation_id", rec.OperationID).WithError(err).
		Warnf("[Switch] 切换失败 (阶段 %s)", rec.State)
	rec.State = model.SwitchStateFailed
	rec.Error = err.Error()
	s.save(ctx, rec)
	s.publish(ctx, events.SwitchFailed, rec)
	return err
}

func (s *SwitchService) save(ctx context.Context, rec *model.ProductSwitch) {
	if err := s.switches.Save(ctx, rec); err != nil {
		logger.L().WithError(err).Errorf("[Switch] 保存切换记录失败 operation=%s", rec.OperationID)
	}
}

func (s *SwitchService) publish(ctx context.Context, eventType string, rec *model.ProductSwitch) {
	evt := events.SwitchEvent{
		Type:         eventType,
		OperationID:  rec.OperationID,
		UserID:       rec.UserID,
		ProductID:    rec.ProductID,
		FromSupplier: rec.FromSupplier,
		ToSupplier:   rec.ToSupplier,
		State:        rec.State,
		Error:        rec.Error,
		OccurredAt:   time.Now(),
	}
	if err := s.publisher.PublishSwitch(ctx, evt); err != nil {
		logger.L().WithError(err).Warnf("[Switch] 事件发布失败 %s operation=%s", eventType, rec.OperationID)
	}
}

// History Listing 的切换记录
func (s *SwitchService) History(ctx context.Context, userID, productID int64) ([]model.ProductSwitch, error) {
	if _, err := s.products.GetForUser(ctx, userID, productID); err != nil {
		return nil, notFound(err)
	}
	return s.switches.ListByProduct(ctx, productID)
}

// skuPlan 需要写回平台的规格，旧 SKU 为空的规格按平台规格 ID 匹配
func skuPlan(changes []model.SKUChange) marketplace.SKUPlan {
	plan := make(marketplace.SKUPlan, 0, len(changes))
	for _, c := range changes {
		if c.OldSKU == c.NewSKU || (c.OldSKU == "" && c.MarketplaceVariantID == "") {
			continue
		}
		plan = append(plan, marketplace.SKUUpdate{
			VariantID: c.MarketplaceVariantID,
			OldSKU:    c.OldSKU,
			NewSKU:    c.NewSKU,
		})
	}
	return plan
}
