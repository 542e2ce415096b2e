package controller

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/iShirker/PoD-ShopManager/internal/api/dto"
	"github.com/iShirker/PoD-ShopManager/internal/middleware"
	"github.com/iShirker/PoD-ShopManager/internal/repository"
	"github.com/iShirker/PoD-ShopManager/internal/service"
)

type ProductController struct {
	listingSvc *service.ListingSyncService
	compareSvc *service.CompareService
	matcherSvc *service.MatcherService
}

func NewProductController(
	listingSvc *service.ListingSyncService,
	compareSvc *service.CompareService,
	matcherSvc *service.MatcherService,
) *ProductController {
	return &ProductController{
		listingSvc: listingSvc,
		compareSvc: compareSvc,
		matcherSvc: matcherSvc,
	}
}

// ==================== 查询接口 ====================

// GetProducts Listing 列表
// @Summary 当前用户全部店铺的 Listing
// @Tags Product
// @Produce json
// @Security BearerAuth
// @Param shop_id query int false "店铺ID"
// @Param supplier_type query string false "当前供应商"
// @Param product_type query string false "商品类型"
// @Param keyword query string false "标题搜索"
// @Param only_detected query bool false "仅已识别"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} dto.ListResp
// @Router /api/products [get]
func (ctl *ProductController) GetProducts(c *gin.Context) {
	var req dto.ProductListReq
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	list, total, err := ctl.listingSvc.ListProducts(c.Request.Context(), repository.ProductFilter{
		UserID:       middleware.GetUserID(c),
		ShopID:       req.ShopID,
		SupplierType: strings.ToLower(req.SupplierType),
		ProductType:  req.ProductType,
		Keyword:      req.Keyword,
		OnlyDetected: req.OnlyDetected,
		Page:         req.Page,
		PageSize:     req.PageSize,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	okList(c, list, total, req.Page, req.PageSize)
}

// GetProductTypes 商品类型聚合
// @Summary 按商品类型与供应商统计 Listing 数
// @Tags Product
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.Response
// @Router /api/products/types [get]
func (ctl *ProductController) GetProductTypes(c *gin.Context) {
	types, err := ctl.compareSvc.ProductTypes(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, types)
}

// ==================== 比价接口 ====================

// CompareAll 批量比价
// @Summary 实时比价全部 Listing，无类型映射的不返回
// @Tags Compare
// @Produce json
// @Security BearerAuth
// @Param shop_id query int false "店铺ID"
// @Param supplier_type query string false "当前供应商"
// @Param product_type query string false "商品类型"
// @Success 200 {object} dto.Response
// @Router /api/products/compare [get]
func (ctl *ProductController) CompareAll(c *gin.Context) {
	var req dto.CompareListReq
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	results, err := ctl.compareSvc.CompareUserListings(c.Request.Context(), middleware.GetUserID(c), service.CompareFilter{
		ShopID:       req.ShopID,
		SupplierType: strings.ToLower(req.SupplierType),
		ProductType:  req.ProductType,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, results)
}

// CompareSummary 节省汇总
// @Summary 按供应商与商品类型汇总潜在节省
// @Tags Compare
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.Response
// @Router /api/products/compare/summary [get]
func (ctl *ProductController) CompareSummary(c *gin.Context) {
	summary, err := ctl.compareSvc.ComparisonSummary(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, summary)
}

// CompareOne 单个 Listing 详细比价
// @Summary 单个 Listing 比价 (含规格价格)
// @Tags Compare
// @Produce json
// @Security BearerAuth
// @Param id path int true "商品ID"
// @Success 200 {object} dto.Response
// @Failure 422 {object} dto.Response
// @Router /api/products/{id}/compare [get]
func (ctl *ProductController) CompareOne(c *gin.Context) {
	id, valid := parseID(c)
	if !valid {
		return
	}
	result, err := ctl.compareSvc.CompareForUser(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, result)
}

// Matches 其他供应商候选商品
// @Summary 查找其他已连接供应商的对应商品
// @Tags Compare
// @Produce json
// @Security BearerAuth
// @Param id path int true "商品ID"
// @Success 200 {object} dto.Response
// @Router /api/products/{id}/matches [get]
func (ctl *ProductController) Matches(c *gin.Context) {
	id, valid := parseID(c)
	if !valid {
		return
	}
	matches, err := ctl.matcherSvc.MatchListing(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if matches == nil {
		matches = []service.Match{}
	}
	ok(c, matches)
}
