package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Isaaja/wimas-app-sub000/internal/model"
)

// ProductRepository 物资目录数据访问接口
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*model.Product, error)
	ListByIDs(ctx context.Context, ids []string) ([]model.Product, error)
	List(ctx context.Context, categoryID, keyword string, offset, limit int) ([]model.Product, int64, error)
	// ListAll 返回全部物资（库存对账用，不分页）
	ListAll(ctx context.Context) ([]model.Product, error)
	// AddAvailable 调整历史遗留的聚合可用数（delta 可为负）
	// 该计数仅供展示，分配以单元状态为准
	AddAvailable(ctx context.Context, productID string, delta int) error
}

type productRepo struct {
	db *gorm.DB
}

// NewProductRepo 创建 ProductRepository 实例
func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db: db}
}

func (r *productRepo) GetByID(ctx context.Context, id string) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		Where("product_id = ?", id).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) ListByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []model.Product
	err := r.db.WithContext(ctx).Where("product_id IN ?", ids).Find(&products).Error
	return products, err
}

func (r *productRepo) List(ctx context.Context, categoryID, keyword string, offset, limit int) ([]model.Product, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Product{})
	if categoryID != "" {
		q = q.Where("category_id = ?", categoryID)
	}
	if keyword != "" {
		q = q.Where("name ILIKE ?", "%"+keyword+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []model.Product
	err := q.Preload("Category").
		Order("name ASC").
		Offset(offset).Limit(limit).
		Find(&products).Error
	return products, total, err
}

func (r *productRepo) ListAll(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).Order("name ASC").Find(&products).Error
	return products, err
}

func (r *productRepo) AddAvailable(ctx context.Context, productID string, delta int) error {
	return r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("product_id = ?", productID).
		Update("available", gorm.Expr("available + ?", delta)).Error
}
