package dto

// ==================== 供应商 DTO ====================

// ConnectSupplierReq 连接供应商
// Gelato / Printful 使用 api_key，Printify 可用 access_token；多店铺时需指定 shop_id
type ConnectSupplierReq struct {
	APIKey      string `json:"api_key" binding:"required_without=AccessToken"`
	AccessToken string `json:"access_token"`
	ShopID      string `json:"shop_id"`
}

// SupplierProductListReq 目录浏览
type SupplierProductListReq struct {
	ProductType string `form:"product_type"`
	Category    string `form:"category"`
	Search      string `form:"search"`
	Page        int    `form:"page,default=1" binding:"gte=1"`
	PageSize    int    `form:"page_size,default=20" binding:"gte=1,lte=100"`
}

// ShopOption Printify 多店铺候选
type ShopOption struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}
