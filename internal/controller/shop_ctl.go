package controller

import (
	"github.com/gin-gonic/gin"

	"github.com/iShirker/PoD-ShopManager/internal/middleware"
	"github.com/iShirker/PoD-ShopManager/internal/service"
)

type ShopController struct {
	listingSvc *service.ListingSyncService
}

func NewShopController(listingSvc *service.ListingSyncService) *ShopController {
	return &ShopController{listingSvc: listingSvc}
}

// GetShopList 店铺列表
// @Summary 当前用户的店铺
// @Tags Shop
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.Response
// @Router /api/shops [get]
func (ctl *ShopController) GetShopList(c *gin.Context) {
	shops, err := ctl.listingSvc.ListShops(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, shops)
}

// SyncShop 同步店铺 Listing
// @Summary 拉取店铺全部在售商品并识别供应商
// @Tags Shop
// @Produce json
// @Security BearerAuth
// @Param id path int true "店铺ID"
// @Success 200 {object} dto.Response
// @Failure 429 {object} dto.Response
// @Router /api/shops/{id}/sync [post]
func (ctl *ShopController) SyncShop(c *gin.Context) {
	id, valid := parseID(c)
	if !valid {
		return
	}
	res, err := ctl.listingSvc.SyncShop(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, res)
}
