package dto

// ==================== Listing DTO ====================

// ProductListReq Listing 列表
type ProductListReq struct {
	ShopID       int64  `form:"shop_id"`
	SupplierType string `form:"supplier_type" binding:"omitempty,supplier_kind"`
	ProductType  string `form:"product_type"`
	Keyword      string `form:"keyword"`
	OnlyDetected bool   `form:"only_detected"`
	Page         int    `form:"page,default=1" binding:"gte=1"`
	PageSize     int    `form:"page_size,default=20" binding:"gte=1,lte=100"`
}

// CompareListReq 批量比价过滤
type CompareListReq struct {
	ShopID       int64  `form:"shop_id"`
	SupplierType string `form:"supplier_type" binding:"omitempty,supplier_kind"`
	ProductType  string `form:"product_type"`
}

// SwitchReq 单个切换
type SwitchReq struct {
	TargetSupplier  string `json:"target_supplier" binding:"required,supplier_kind"`
	TargetProductID string `json:"target_product_id"`
}

// PreviewSwitchReq 切换预览
type PreviewSwitchReq struct {
	TargetSupplier string `form:"target_supplier" binding:"required,supplier_kind"`
}

// BulkSwitchReq 批量切换，product_ids 优先于 product_type
type BulkSwitchReq struct {
	ProductIDs     []int64 `json:"product_ids" binding:"required_without=ProductType,dive,gt=0"`
	ProductType    string  `json:"product_type"`
	TargetSupplier string  `json:"target_supplier" binding:"required,supplier_kind"`
}

// ==================== 追踪商品 DTO ====================

// CreateUserProductReq 新增追踪商品
type CreateUserProductReq struct {
	ProductName              string `json:"product_name" binding:"required,max=500"`
	ProductType              string `json:"product_type" binding:"max=255"`
	Brand                    string `json:"brand"`
	Category                 string `json:"category"`
	Description              string `json:"description"`
	ThumbnailURL             string `json:"thumbnail_url" binding:"omitempty,url"`
	PrimarySupplierType      string `json:"primary_supplier_type" binding:"omitempty,supplier_kind"`
	PrimarySupplierProductID string `json:"primary_supplier_product_id"`
}
