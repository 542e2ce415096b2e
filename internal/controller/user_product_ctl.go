package controller

import (
	"github.com/gin-gonic/gin"

	"github.com/iShirker/PoD-ShopManager/internal/api/dto"
	"github.com/iShirker/PoD-ShopManager/internal/middleware"
	"github.com/iShirker/PoD-ShopManager/internal/service"
)

type UserProductController struct {
	userProductSvc *service.UserProductService
}

func NewUserProductController(userProductSvc *service.UserProductService) *UserProductController {
	return &UserProductController{userProductSvc: userProductSvc}
}

// List 追踪商品列表
// @Summary 当前用户追踪的商品
// @Tags UserProduct
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.Response
// @Router /api/user-products [get]
func (ctl *UserProductController) List(c *gin.Context) {
	list, err := ctl.userProductSvc.List(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, list)
}

// Create 新增追踪商品并自动关联供应商
// @Summary 新增追踪商品
// @Tags UserProduct
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreateUserProductReq true "商品"
// @Success 200 {object} dto.Response
// @Router /api/user-products [post]
func (ctl *UserProductController) Create(c *gin.Context) {
	var req dto.CreateUserProductReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	up, err := ctl.userProductSvc.Create(c.Request.Context(), middleware.GetUserID(c), service.CreateUserProductRequest{
		ProductName:              req.ProductName,
		ProductType:              req.ProductType,
		Brand:                    req.Brand,
		Category:                 req.Category,
		Description:              req.Description,
		ThumbnailURL:             req.ThumbnailURL,
		PrimarySupplierType:      req.PrimarySupplierType,
		PrimarySupplierProductID: req.PrimarySupplierProductID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, up)
}

// Delete 删除追踪商品
// @Summary 删除追踪商品
// @Tags UserProduct
// @Security BearerAuth
// @Param id path int true "追踪商品ID"
// @Success 200 {object} dto.Response
// @Router /api/user-products/{id} [delete]
func (ctl *UserProductController) Delete(c *gin.Context) {
	id, valid := parseID(c)
	if !valid {
		return
	}
	if err := ctl.userProductSvc.Delete(c.Request.Context(), middleware.GetUserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	ok(c, gin.H{"id": id})
}

// Suppliers 已关联的供应商商品
// @Summary 追踪商品在各供应商下的对应商品
// @Tags UserProduct
// @Security BearerAuth
// @Param id path int true "追踪商品ID"
// @Success 200 {object} dto.Response
// @Router /api/user-products/{id}/suppliers [get]
func (ctl *UserProductController) Suppliers(c *gin.Context) {
	id, valid := parseID(c)
	if !valid {
		return
	}
	links, err := ctl.userProductSvc.Suppliers(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, links)
}
