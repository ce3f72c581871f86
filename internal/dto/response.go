package dto

// ── 通用 ──

// PaginationRequest 通用分页查询参数
type PaginationRequest struct {
	Page     int `form:"page"      binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// Normalize 填充分页默认值
func (p *PaginationRequest) Normalize() {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = 20
	}
}

// ── 认证模块响应 ──

// TokenResponse Token 对响应
type TokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int          `json:"expires_in"` // Access Token 有效期（秒）
	User         UserResponse `json:"user"`
}

// RegisterResponse 注册成功响应
type RegisterResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UserResponse 用户信息响应（脱敏）
type UserResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	EmployeeID string `json:"employee_id"`
	Email      string `json:"email"`
	Role       string `json:"role"`
}

// ── 物资模块响应 ──

// ProductResponse 物资信息响应
type ProductResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ImageURL     string `json:"image_url,omitempty"`
	CategoryID   string `json:"category_id"`
	CategoryName string `json:"category_name,omitempty"`
	Quantity     int    `json:"quantity"`
	Available    int    `json:"available"`  // 历史遗留计数，仅供展示
	Assignable   int    `json:"assignable"` // AVAILABLE+GOOD 单元实际数量
}

// UnitResponse 序列化单元响应
type UnitResponse struct {
	ID           string `json:"id"`
	ProductID    string `json:"product_id"`
	SerialNumber string `json:"serial_number"`
	Status       string `json:"status"`
	Condition    string `json:"condition"`
	Note         string `json:"note,omitempty"`
}

// StockCheckEntry 单个物资的库存对账结果
type StockCheckEntry struct {
	ProductID       string `json:"product_id"`
	ProductName     string `json:"product_name"`
	LegacyAvailable int    `json:"legacy_available"` // products.available 计数
	AssignableUnits int    `json:"assignable_units"` // AVAILABLE+GOOD 单元数
	Consistent      bool   `json:"consistent"`
}

// StockCheckResponse 库存对账响应
type StockCheckResponse struct {
	Entries          []StockCheckEntry `json:"entries"`
	DoubleBoundUnits []string          `json:"double_bound_units"` // 存在多条生效绑定的单元
	Healthy          bool              `json:"healthy"`
}

// ── 借用模块响应 ──

// LoanResponse 借用单列表项
type LoanResponse struct {
	ID           string `json:"id"`
	BorrowerID   string `json:"borrower_id"`
	BorrowerName string `json:"borrower_name,omitempty"`
	Status       string `json:"status"`
	SPTNumber    string `json:"spt_number,omitempty"`
	Destination  string `json:"destination,omitempty"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

// RequestItemResponse 申请行响应
type RequestItemResponse struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name,omitempty"`
	Quantity    int    `json:"quantity"`
}

// LoanItemResponse 单元绑定响应
type LoanItemResponse struct {
	ID           string `json:"id"`
	UnitID       string `json:"unit_id"`
	SerialNumber string `json:"serial_number,omitempty"`
	ProductID    string `json:"product_id,omitempty"`
	ReleasedAt   string `json:"released_at,omitempty"`
}

// ParticipantResponse 参与人响应
type ParticipantResponse struct {
	UserID string `json:"user_id"`
	Name   string `json:"name,omitempty"`
	Role   string `json:"role"`
}

// ReportResponse SPT 报告响应
type ReportResponse struct {
	SPTNumber      string `json:"spt_number"`
	Destination    string `json:"destination"`
	ExecutionPlace string `json:"execution_place"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	SPTFile        string `json:"spt_file,omitempty"`
}

// LoanDetailResponse 借用单详情
type LoanDetailResponse struct {
	LoanResponse
	RequestItems []RequestItemResponse `json:"request_items,omitempty"`
	Items        []LoanItemResponse    `json:"items,omitempty"`
	Participants []ParticipantResponse `json:"participants"`
	Report       *ReportResponse       `json:"report,omitempty"`
}

// [自证通过] internal/dto/response.go
