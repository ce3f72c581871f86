package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Isaaja/wimas-app-sub000/internal/model"
	pkgerrors "github.com/Isaaja/wimas-app-sub000/pkg/errors"
)

// AssignableCount 某一物资当前可分配单元数
type AssignableCount struct {
	ProductID string
	Count     int64
}

// ProductUnitRepository 序列化单元数据访问接口
type ProductUnitRepository interface {
	GetByID(ctx context.Context, id string) (*model.ProductUnit, error)
	ListByProduct(ctx context.Context, productID, status string) ([]model.ProductUnit, error)
	// ListByIDsForUpdate 按主键锁定并返回指定单元（SELECT ... FOR UPDATE）
	// 仅应在事务内调用；按 unit_id 排序以保持加锁顺序稳定
	ListByIDsForUpdate(ctx context.Context, ids []string) ([]model.ProductUnit, error)
	CountAssignable(ctx context.Context, productID string) (int64, error)
	AssignableCounts(ctx context.Context) ([]AssignableCount, error)
	// MarkLoaned 将单元置为 LOANED，仅对 AVAILABLE+GOOD 的行生效
	// 受影响行数与 len(ids) 不符时返回 ErrOptimisticLock
	MarkLoaned(ctx context.Context, ids []string) error
	// SetCondition 按验收/修复结果更新单元状态与状况
	SetCondition(ctx context.Context, unitID, status, condition, note string) error
	// DoubleBoundUnitIDs 返回存在多条生效绑定的单元（对账用，正常应为空）
	DoubleBoundUnitIDs(ctx context.Context) ([]string, error)
}

type productUnitRepo struct {
	db *gorm.DB
}

// NewProductUnitRepo 创建 ProductUnitRepository 实例
func NewProductUnitRepo(db *gorm.DB) ProductUnitRepository {
	return &productUnitRepo{db: db}
}

func (r *productUnitRepo) GetByID(ctx context.Context, id string) (*model.ProductUnit, error) {
	var unit model.ProductUnit
	if err := r.db.WithContext(ctx).Where("unit_id = ?", id).First(&unit).Error; err != nil {
		return nil, err
	}
	return &unit, nil
}

func (r *productUnitRepo) ListByProduct(ctx context.Context, productID, status string) ([]model.ProductUnit, error) {
	q := r.db.WithContext(ctx).Where("product_id = ?", productID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var units []model.ProductUnit
	err := q.Order("serial_number ASC").Find(&units).Error
	return units, err
}

func (r *productUnitRepo) ListByIDsForUpdate(ctx context.Context, ids []string) ([]model.ProductUnit, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var units []model.ProductUnit
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("unit_id IN ?", ids).
		Order("unit_id ASC").
		Find(&units).Error
	return units, err
}

func (r *productUnitRepo) CountAssignable(ctx context.Context, productID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.ProductUnit{}).
		Where("product_id = ? AND status = ? AND condition = ?",
			productID, model.UnitStatusAvailable, model.UnitConditionGood).
		Count(&n).Error
	return n, err
}

func (r *productUnitRepo) AssignableCounts(ctx context.Context) ([]AssignableCount, error) {
	var counts []AssignableCount
	err := r.db.WithContext(ctx).
		Model(&model.ProductUnit{}).
		Select("product_id, COUNT(*) AS count").
		Where("status = ? AND condition = ?", model.UnitStatusAvailable, model.UnitConditionGood).
		Group("product_id").
		Scan(&counts).Error
	return counts, err
}

func (r *productUnitRepo) MarkLoaned(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).
		Model(&model.ProductUnit{}).
		Where("unit_id IN ? AND status = ? AND condition = ?",
			ids, model.UnitStatusAvailable, model.UnitConditionGood).
		Updates(map[string]interface{}{
			"status":  model.UnitStatusLoaned,
			"version": gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected != int64(len(ids)) {
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}

func (r *productUnitRepo) SetCondition(ctx context.Context, unitID, status, condition, note string) error {
	updates := map[string]interface{}{
		"status":    status,
		"condition": condition,
		"version":   gorm.Expr("version + 1"),
	}
	if note != "" {
		updates["note"] = note
	}
	result := r.db.WithContext(ctx).
		Model(&model.ProductUnit{}).
		Where("unit_id = ?", unitID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *productUnitRepo) DoubleBoundUnitIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.LoanItem{}).
		Select("unit_id").
		Where("released_at IS NULL").
		Group("unit_id").
		Having("COUNT(*) > 1").
		Scan(&ids).Error
	return ids, err
}
