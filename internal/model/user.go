package model

// ── 用户角色 ──

const (
	RoleAdmin    = "ADMIN"
	RoleBorrower = "BORROWER"
)

// User 用户表 — 对应 users
type User struct {
	UserID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Name         string `gorm:"type:varchar(100);not null"                     json:"name"`
	EmployeeID   string `gorm:"type:varchar(30);not null;uniqueIndex"          json:"employee_id"`
	Email        string `gorm:"type:varchar(255);not null;uniqueIndex"         json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null"                     json:"-"`
	Role         string `gorm:"type:varchar(20);not null;default:'BORROWER'"   json:"role"` // ADMIN | BORROWER
	VersionedModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// [自证通过] internal/model/user.go
