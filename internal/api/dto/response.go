package dto

// Response 统一响应
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message,omitempty"`
	Reason  string      `json:"reason,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ListResp 分页响应
type ListResp struct {
	Code     int         `json:"code"`
	Data     interface{} `json:"data"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

// 错误原因
const (
	ReasonNoMapping         = "no_mapping"
	ReasonSupplierRejected  = "supplier_rejected"
	ReasonAlreadyOnSupplier = "already_on_supplier"
	ReasonNotConnected      = "not_connected"
	ReasonRemotePending     = "remote_pending"
	ReasonNotFound          = "not_found"
	ReasonInvalidRequest    = "invalid_request"
	ReasonInternal          = "internal"
)
