package dto

// ── 借用模块 DTO ──

// LoanItemRequest 一条申请行：物资 + 期望数量
type LoanItemRequest struct {
	ProductID string `json:"product_id" binding:"required,uuid"`
	Quantity  int    `json:"quantity"   binding:"required,min=1"`
}

// CreateLoanRequest 借用申请（multipart 中 payload 字段的 JSON 结构）
// 日期采用 YYYY-MM-DD，跨字段校验（end_date ≥ start_date）在 Service 层完成
type CreateLoanRequest struct {
	Items          []LoanItemRequest `json:"items"            binding:"required,min=1,dive"`
	InvitedUserIDs []string          `json:"invited_user_ids" binding:"omitempty,dive,uuid"`
	SPTNumber      string            `json:"spt_number"       binding:"required,max=100"`
	Destination    string            `json:"destination"      binding:"required,max=255"`
	ExecutionPlace string            `json:"execution_place"  binding:"required,max=255"`
	StartDate      string            `json:"start_date"       binding:"required"`
	EndDate        string            `json:"end_date"         binding:"required"`
}

// UpdateLoanItemsRequest 批准前由管理员整单替换申请行
type UpdateLoanItemsRequest struct {
	Items []LoanItemRequest `json:"items" binding:"required,min=1,dive"`
}

// ProductAssignment 某一物资选定的具体单元
type ProductAssignment struct {
	ProductID string   `json:"product_id" binding:"required,uuid"`
	UnitIDs   []string `json:"unit_ids"   binding:"required,min=1,dive,uuid"`
}

// ApproveLoanRequest 批准请求：逐物资指定单元
type ApproveLoanRequest struct {
	Assignments []ProductAssignment `json:"assignments" binding:"required,min=1,dive"`
}

// UnitConditionRequest 验收时对单个单元的状况判定
type UnitConditionRequest struct {
	UnitID    string `json:"unit_id"   binding:"required,uuid"`
	Condition string `json:"condition" binding:"required,oneof=GOOD DAMAGED"`
	Note      string `json:"note"      binding:"omitempty,max=255"`
}

// CompleteLoanRequest 验收完成请求：必须覆盖借用单绑定的全部单元
type CompleteLoanRequest struct {
	Conditions []UnitConditionRequest `json:"conditions" binding:"required,min=1,dive"`
}

// LoanListRequest 借用单列表查询参数
type LoanListRequest struct {
	PaginationRequest
	Status string `form:"status" binding:"omitempty,oneof=REQUESTED APPROVED REJECTED RETURNED DONE"`
}
