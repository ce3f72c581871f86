package model

import "time"

// ── 借用单状态机 ──
//
// REQUESTED → APPROVED | REJECTED
// APPROVED  → RETURNED | DONE
// RETURNED  → DONE
// 其余流转一律视为冲突。

const (
	LoanStatusRequested = "REQUESTED"
	LoanStatusApproved  = "APPROVED"
	LoanStatusRejected  = "REJECTED"
	LoanStatusReturned  = "RETURNED"
	LoanStatusDone      = "DONE"
)

// ── 参与人角色 ──

const (
	ParticipantOwner   = "OWNER"
	ParticipantInvited = "INVITED"
)

// Loan 借用单表 — 对应 loans
type Loan struct {
	LoanID     string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"loan_id"`
	BorrowerID string `gorm:"type:uuid;not null;index"                       json:"borrower_id"`
	Status     string `gorm:"type:varchar(20);not null;default:'REQUESTED'"  json:"status"`
	BaseModel
	Version int `gorm:"not null;default:1" json:"version"`

	// 关联
	Borrower     *User             `gorm:"foreignKey:BorrowerID;references:UserID" json:"borrower,omitempty"`
	RequestItems []LoanRequestItem `gorm:"foreignKey:LoanID;references:LoanID"     json:"request_items,omitempty"`
	Items        []LoanItem        `gorm:"foreignKey:LoanID;references:LoanID"     json:"items,omitempty"`
	Participants []LoanParticipant `gorm:"foreignKey:LoanID;references:LoanID"     json:"participants,omitempty"`
	Report       *Report           `gorm:"foreignKey:LoanID;references:LoanID"     json:"report,omitempty"`
}

// TableName 指定表名
func (Loan) TableName() string { return "loans" }

// Decided 借用单是否已离开待审状态
func (l *Loan) Decided() bool { return l.Status != LoanStatusRequested }

// Active 借用单是否处于占用单元的活跃状态
func (l *Loan) Active() bool {
	return l.Status == LoanStatusApproved || l.Status == LoanStatusReturned
}

// LoanRequestItem 借用申请行表 — 对应 loan_request_items
// 仅在借用单处于 REQUESTED 阶段有效，批准时被转换为 LoanItem 并删除
type LoanRequestItem struct {
	RequestItemID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"request_item_id"`
	LoanID        string    `gorm:"type:uuid;not null;index"                       json:"loan_id"`
	ProductID     string    `gorm:"type:uuid;not null"                             json:"product_id"`
	Quantity      int       `gorm:"not null"                                       json:"quantity"`
	CreatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	// 关联
	Product *Product `gorm:"foreignKey:ProductID;references:ProductID" json:"product,omitempty"`
}

// TableName 指定表名
func (LoanRequestItem) TableName() string { return "loan_request_items" }

// LoanItem 单元绑定表 — 对应 loan_items
// ReleasedAt 为空表示绑定生效中；完成验收时写入释放时间。
// 数据库层以部分唯一索引保证同一单元至多一条生效绑定。
type LoanItem struct {
	LoanItemID string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"loan_item_id"`
	LoanID     string     `gorm:"type:uuid;not null;index"                       json:"loan_id"`
	UnitID     string     `gorm:"type:uuid;not null"                             json:"unit_id"`
	ReleasedAt *time.Time `json:"released_at,omitempty"`
	CreatedAt  time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	// 关联
	Unit *ProductUnit `gorm:"foreignKey:UnitID;references:UnitID" json:"unit,omitempty"`
}

// TableName 指定表名
func (LoanItem) TableName() string { return "loan_items" }

// LoanParticipant 借用参与人表 — 对应 loan_participants
// 提交时写入，之后不可变更
type LoanParticipant struct {
	ParticipantID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"participant_id"`
	LoanID        string    `gorm:"type:uuid;not null;index"                       json:"loan_id"`
	UserID        string    `gorm:"type:uuid;not null"                             json:"user_id"`
	Role          string    `gorm:"type:varchar(20);not null;default:'INVITED'"    json:"role"` // OWNER | INVITED
	CreatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	// 关联
	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (LoanParticipant) TableName() string { return "loan_participants" }

// [自证通过] internal/model/loan.go
