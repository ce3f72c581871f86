package dto

// ── 物资模块 DTO ──

// ProductListRequest 物资列表查询参数
type ProductListRequest struct {
	PaginationRequest
	CategoryID string `form:"category_id" binding:"omitempty,uuid"`
	Keyword    string `form:"keyword"     binding:"omitempty,max=50"`
}

// UnitListRequest 单元列表查询参数（批准界面的单元选择器）
type UnitListRequest struct {
	Status string `form:"status" binding:"omitempty,oneof=AVAILABLE LOANED DAMAGED"`
}

// RepairUnitRequest 单元修复请求：受损单元重新进入可借池
type RepairUnitRequest struct {
	UnitID    string `json:"unit_id"   binding:"required,uuid"`
	Condition string `json:"condition" binding:"required,oneof=GOOD"`
	Note      string `json:"note"      binding:"omitempty,max=255"`
}
