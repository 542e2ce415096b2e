package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/iShirker/PoD-ShopManager/internal/api/dto"
	"github.com/iShirker/PoD-ShopManager/internal/service"
	"github.com/iShirker/PoD-ShopManager/pkg/logger"
	"github.com/iShirker/PoD-ShopManager/pkg/supplier"
)

// ==================== 响应辅助 ====================

func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, dto.Response{Code: 0, Data: data})
}

func okList(c *gin.Context, data interface{}, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.ListResp{Code: 0, Data: data, Total: total, Page: page, PageSize: pageSize})
}

func fail(c *gin.Context, status int, reason, msg string) {
	c.JSON(status, dto.Response{Code: status, Message: msg, Reason: reason})
}

func badRequest(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		fail(c, http.StatusBadRequest, dto.ReasonInvalidRequest, "invalid field "+fe.Field()+": "+fe.Tag())
		return
	}
	fail(c, http.StatusBadRequest, dto.ReasonInvalidRequest, err.Error())
}

// parseID 路径参数 :id
func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		fail(c, http.StatusBadRequest, dto.ReasonInvalidRequest, "invalid id")
		return 0, false
	}
	return id, true
}

// respondError 业务错误映射为 {code, message, reason}
func respondError(c *gin.Context, err error) {
	var (
		noMatch   *service.NoMatchError
		already   *service.AlreadyOnSupplierError
		notConn   *service.NotConnectedError
		pending   *service.RemotePendingError
		selection *service.ShopSelectionError
		apiErr    *supplier.APIError
	)

	switch {
	case errors.Is(err, service.ErrNotFound):
		fail(c, http.StatusNotFound, dto.ReasonNotFound, err.Error())
	case errors.As(err, &noMatch), errors.Is(err, service.ErrNoProductType):
		fail(c, http.StatusUnprocessableEntity, dto.ReasonNoMapping, err.Error())
	case errors.As(err, &already):
		fail(c, http.StatusConflict, dto.ReasonAlreadyOnSupplier, err.Error())
	case errors.As(err, &notConn):
		fail(c, http.StatusBadRequest, dto.ReasonNotConnected, err.Error())
	case errors.As(err, &pending):
		c.JSON(http.StatusAccepted, dto.Response{
			Code:    http.StatusAccepted,
			Message: err.Error(),
			Reason:  dto.ReasonRemotePending,
			Data:    gin.H{"operation_id": pending.OperationID},
		})
	case errors.As(err, &selection):
		shops := make([]dto.ShopOption, 0, len(selection.Shops))
		for _, s := range selection.Shops {
			shops = append(shops, dto.ShopOption{ID: s.ID, Title: s.Title})
		}
		c.JSON(http.StatusBadRequest, dto.Response{
			Code:    http.StatusBadRequest,
			Message: err.Error(),
			Reason:  dto.ReasonInvalidRequest,
			Data:    gin.H{"shops": shops},
		})
	case errors.Is(err, service.ErrInvalidSupplier),
		errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, service.ErrMissingCredentials),
		errors.Is(err, service.ErrEmptySelection),
		errors.Is(err, service.ErrProductNotSynced):
		fail(c, http.StatusBadRequest, dto.ReasonInvalidRequest, err.Error())
	case supplier.IsAuthError(err):
		fail(c, http.StatusBadRequest, dto.ReasonSupplierRejected, err.Error())
	case errors.As(err, &apiErr):
		fail(c, http.StatusBadGateway, dto.ReasonSupplierRejected, err.Error())
	default:
		logger.L().WithError(err).WithField("path", c.FullPath()).Error("[API] 未处理的错误")
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, dto.ReasonInternal, "internal error")
	}
}
