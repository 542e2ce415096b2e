package controller

import (
	"github.com/gin-gonic/gin"

	"github.com/iShirker/PoD-ShopManager/internal/api/dto"
	"github.com/iShirker/PoD-ShopManager/internal/middleware"
	"github.com/iShirker/PoD-ShopManager/internal/repository"
	"github.com/iShirker/PoD-ShopManager/internal/service"
)

type SupplierController struct {
	supplierSvc *service.SupplierService
}

func NewSupplierController(supplierSvc *service.SupplierService) *SupplierController {
	return &SupplierController{supplierSvc: supplierSvc}
}

// ==================== 连接管理 ====================

// List 供应商连接列表
// @Summary 当前用户的全部供应商连接
// @Tags Supplier
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.Response
// @Router /api/suppliers [get]
func (ctl *SupplierController) List(c *gin.Context) {
	list, err := ctl.supplierSvc.List(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, list)
}

// Status 各供应商连接状态
// @Summary 按供应商类型汇总连接状态
// @Tags Supplier
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.Response
// @Router /api/suppliers/status [get]
func (ctl *SupplierController) Status(c *gin.Context) {
	status, err := ctl.supplierSvc.Status(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, status)
}

// Connect 连接供应商
// @Summary 校验凭证并保存连接；Printify 多店铺时返回店铺列表
// @Tags Supplier
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param type path string true "gelato / printify / printful"
// @Param body body dto.ConnectSupplierReq true "凭证"
// @Success 200 {object} dto.Response
// @Failure 400 {object} dto.Response
// @Router /api/suppliers/{type}/connect [post]
func (ctl *SupplierController) Connect(c *gin.Context) {
	var req dto.ConnectSupplierReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	conn, err := ctl.supplierSvc.Connect(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), service.ConnectRequest{
		APIKey:      req.APIKey,
		AccessToken: req.AccessToken,
		ShopID:      req.ShopID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, conn)
}

// Disconnect 断开连接 (清空凭证)
// @Summary 断开供应商连接
// @Tags Supplier
// @Security BearerAuth
// @Param id path int true "连接ID"
// @Success 200 {object} dto.Response
// @Router /api/suppliers/{id}/disconnect [post]
func (ctl *SupplierController) Disconnect(c *gin.Context) {
	id, valid := parseID(c)
	if !valid {
		return
	}
	if err := ctl.supplierSvc.Disconnect(c.Request.Context(), middleware.GetUserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	ok(c, gin.H{"id": id, "is_connected": false})
}

// Delete 删除连接及其目录
// @Summary 删除供应商连接
// @Tags Supplier
// @Security BearerAuth
// @Param id path int true "连接ID"
// @Success 200 {object} dto.Response
// @Router /api/suppliers/{id} [delete]
func (ctl *SupplierController) Delete(c *gin.Context) {
	id, valid := parseID(c)
	if !valid {
		return
	}
	if err := ctl.supplierSvc.Delete(c.Request.Context(), middleware.GetUserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	ok(c, gin.H{"id": id})
}

// ==================== 目录 ====================

// Sync 同步供应商目录
// @Summary 全量拉取供应商目录并写入本地
// @Tags Supplier
// @Security BearerAuth
// @Param id path int true "连接ID"
// @Success 200 {object} dto.Response
// @Failure 429 {object} dto.Response
// @Router /api/suppliers/{id}/sync [post]
func (ctl *SupplierController) Sync(c *gin.Context) {
	id, valid := parseID(c)
	if !valid {
		return
	}
	res, err := ctl.supplierSvc.Sync(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, res)
}

// Products 浏览已同步目录
// @Summary 分页查询供应商目录
// @Tags Supplier
// @Security BearerAuth
// @Param id path int true "连接ID"
// @Param product_type query string false "商品类型"
// @Param category query string false "分类"
// @Param search query string false "名称搜索"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} dto.ListResp
// @Router /api/suppliers/{id}/products [get]
func (ctl *SupplierController) Products(c *gin.Context) {
	id, valid := parseID(c)
	if !valid {
		return
	}
	var req dto.SupplierProductListReq
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	list, total, err := ctl.supplierSvc.Products(c.Request.Context(), middleware.GetUserID(c), repository.SupplierProductFilter{
		ConnectionID: id,
		ProductType:  req.ProductType,
		Category:     req.Category,
		Search:       req.Search,
		Page:         req.Page,
		PageSize:     req.PageSize,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	okList(c, list, total, req.Page, req.PageSize)
}
