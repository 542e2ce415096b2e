package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/iShirker/PoD-ShopManager/internal/api/dto"
	"github.com/iShirker/PoD-ShopManager/internal/middleware"
	"github.com/iShirker/PoD-ShopManager/internal/service"
)

type SwitchController struct {
	switchSvc *service.SwitchService
}

func NewSwitchController(switchSvc *service.SwitchService) *SwitchController {
	return &SwitchController{switchSvc: switchSvc}
}

// Preview 切换预览
// @Summary 预览切换到目标供应商后的 SKU 变更
// @Tags Switch
// @Produce json
// @Security BearerAuth
// @Param id path int true "商品ID"
// @Param target_supplier query string true "目标供应商"
// @Success 200 {object} dto.Response
// @Router /api/products/{id}/switch/preview [get]
func (ctl *SwitchController) Preview(c *gin.Context) {
	id, valid := parseID(c)
	if !valid {
		return
	}
	var req dto.PreviewSwitchReq
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	preview, err := ctl.switchSvc.PreviewSwitch(c.Request.Context(), middleware.GetUserID(c), id, req.TargetSupplier)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, preview)
}

// Switch 切换供应商
// @Summary 切换 Listing 到目标供应商并回写平台 SKU
// @Description 本地已提交但平台推送失败时返回 202 + remote_pending
// @Tags Switch
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "商品ID"
// @Param body body dto.SwitchReq true "目标供应商"
// @Success 200 {object} dto.Response
// @Success 202 {object} dto.Response
// @Failure 400 {object} dto.Response
// @Failure 409 {object} dto.Response
// @Failure 422 {object} dto.Response
// @Router /api/products/{id}/switch [post]
func (ctl *SwitchController) Switch(c *gin.Context) {
	id, valid := parseID(c)
	if !valid {
		return
	}
	var req dto.SwitchReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := ctl.switchSvc.Switch(c.Request.Context(), middleware.GetUserID(c), service.SwitchRequest{
		ProductID:       id,
		TargetSupplier:  req.TargetSupplier,
		TargetProductID: req.TargetProductID,
	})
	var pending *service.RemotePendingError
	if errors.As(err, &pending) && res != nil {
		c.JSON(http.StatusAccepted, dto.Response{
			Code:    http.StatusAccepted,
			Message: err.Error(),
			Reason:  dto.ReasonRemotePending,
			Data:    res,
		})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, res)
}

// BulkSwitch 批量切换
// @Summary 按 ID 列表或商品类型批量切换，单个失败不中断
// @Tags Switch
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.BulkSwitchReq true "批量切换"
// @Success 200 {object} dto.Response
// @Router /api/products/bulk-switch [post]
func (ctl *SwitchController) BulkSwitch(c *gin.Context) {
	var req dto.BulkSwitchReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := ctl.switchSvc.BulkSwitch(c.Request.Context(), middleware.GetUserID(c), service.BulkSwitchRequest{
		ProductIDs:     req.ProductIDs,
		ProductType:    req.ProductType,
		TargetSupplier: req.TargetSupplier,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, res)
}
