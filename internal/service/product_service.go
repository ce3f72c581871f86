package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Isaaja/wimas-app-sub000/internal/dto"
	"github.com/Isaaja/wimas-app-sub000/internal/model"
	"github.com/Isaaja/wimas-app-sub000/internal/repository"
)

// ── 物资模块业务错误 ──

var (
	ErrUnitNotDamaged = errors.New("仅受损单元可执行修复")
)

// ProductService 物资目录业务接口
type ProductService interface {
	List(ctx context.Context, req *dto.ProductListRequest) ([]dto.ProductResponse, int64, error)
	GetByID(ctx context.Context, productID string) (*dto.ProductResponse, error)
	ListUnits(ctx context.Context, productID string, req *dto.UnitListRequest) ([]dto.UnitResponse, error)
	// RepairUnit 受损单元修复后重新进入可借池
	RepairUnit(ctx context.Context, req *dto.RepairUnitRequest, actorID string) (*dto.UnitResponse, error)
	// StockCheck 对账历史遗留计数与单元真实状态
	StockCheck(ctx context.Context) (*dto.StockCheckResponse, error)
}

type productService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewProductService 创建 ProductService 实例
func NewProductService(repo *repository.Repository, logger *zap.Logger) ProductService {
	return &productService{repo: repo, logger: logger}
}

func (s *productService) List(ctx context.Context, req *dto.ProductListRequest) ([]dto.ProductResponse, int64, error) {
	req.Normalize()

	products, total, err := s.repo.Product.List(ctx, req.CategoryID, req.Keyword, (req.Page-1)*req.PageSize, req.PageSize)
	if err != nil {
		s.logger.Error("查询物资列表失败", zap.Error(err))
		return nil, 0, err
	}

	counts, err := s.repo.Unit.AssignableCounts(ctx)
	if err != nil {
		s.logger.Error("统计可分配单元失败", zap.Error(err))
		return nil, 0, err
	}
	assignable := make(map[string]int64, len(counts))
	for _, c := range counts {
		assignable[c.ProductID] = c.Count
	}

	result := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		r := toProductResponse(&products[i])
		r.Assignable = int(assignable[products[i].ProductID])
		result = append(result, *r)
	}
	return result, total, nil
}

func (s *productService) GetByID(ctx context.Context, productID string) (*dto.ProductResponse, error) {
	product, err := s.repo.Product.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		s.logger.Error("查询物资失败", zap.String("product_id", productID), zap.Error(err))
		return nil, err
	}

	n, err := s.repo.Unit.CountAssignable(ctx, productID)
	if err != nil {
		return nil, err
	}

	resp := toProductResponse(product)
	resp.Assignable = int(n)
	return resp, nil
}

func (s *productService) ListUnits(ctx context.Context, productID string, req *dto.UnitListRequest) ([]dto.UnitResponse, error) {
	if _, err := s.repo.Product.GetByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	units, err := s.repo.Unit.ListByProduct(ctx, productID, req.Status)
	if err != nil {
		s.logger.Error("查询单元列表失败", zap.String("product_id", productID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.UnitResponse, 0, len(units))
	for i := range units {
		result = append(result, *toUnitResponse(&units[i]))
	}
	return result, nil
}

func (s *productService) RepairUnit(ctx context.Context, req *dto.RepairUnitRequest, actorID string) (*dto.UnitResponse, error) {
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		units, err := tx.Unit.ListByIDsForUpdate(ctx, []string{req.UnitID})
		if err != nil {
			return err
		}
		if len(units) == 0 {
			return ErrUnitNotFound
		}
		unit := &units[0]
		if unit.Status != model.UnitStatusDamaged {
			return fmt.Errorf("%w: unit=%s status=%s", ErrUnitNotDamaged, unit.SerialNumber, unit.Status)
		}

		if err := tx.Unit.SetCondition(ctx, req.UnitID, model.UnitStatusAvailable, model.UnitConditionGood, req.Note); err != nil {
			return err
		}
		// 修复回池，同步展示计数
		return tx.Product.AddAvailable(ctx, unit.ProductID, 1)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("单元已修复回池", zap.String("unit_id", req.UnitID), zap.String("actor", actorID))

	unit, err := s.repo.Unit.GetByID(ctx, req.UnitID)
	if err != nil {
		return nil, err
	}
	return toUnitResponse(unit), nil
}

// StockCheck 逐物资比对 products.available 与 AVAILABLE+GOOD 单元数，
// 并检出存在多条生效绑定的单元。全部一致且无重复绑定时 Healthy=true。
func (s *productService) StockCheck(ctx context.Context) (*dto.StockCheckResponse, error) {
	products, err := s.repo.Product.ListAll(ctx)
	if err != nil {
		s.logger.Error("查询物资失败", zap.Error(err))
		return nil, err
	}
	counts, err := s.repo.Unit.AssignableCounts(ctx)
	if err != nil {
		return nil, err
	}
	doubleBound, err := s.repo.Unit.DoubleBoundUnitIDs(ctx)
	if err != nil {
		return nil, err
	}

	assignable := make(map[string]int64, len(counts))
	for _, c := range counts {
		assignable[c.ProductID] = c.Count
	}

	resp := &dto.StockCheckResponse{
		Entries:          make([]dto.StockCheckEntry, 0, len(products)),
		DoubleBoundUnits: doubleBound,
		Healthy:          len(doubleBound) == 0,
	}
	for i := range products {
		p := &products[i]
		units := int(assignable[p.ProductID])
		entry := dto.StockCheckEntry{
			ProductID:       p.ProductID,
			ProductName:     p.Name,
			LegacyAvailable: p.Available,
			AssignableUnits: units,
			Consistent:      p.Available == units,
		}
		if !entry.Consistent {
			resp.Healthy = false
		}
		resp.Entries = append(resp.Entries, entry)
	}

	if !resp.Healthy {
		s.logger.Warn("库存对账发现不一致",
			zap.Int("double_bound", len(doubleBound)),
		)
	}
	return resp, nil
}

// ── 内部辅助方法 ──

func toProductResponse(p *model.Product) *dto.ProductResponse {
	resp := &dto.ProductResponse{
		ID:         p.ProductID,
		Name:       p.Name,
		ImageURL:   p.ImageURL,
		CategoryID: p.CategoryID,
		Quantity:   p.Quantity,
		Available:  p.Available,
	}
	if p.Category != nil {
		resp.CategoryName = p.Category.Name
	}
	return resp
}

func toUnitResponse(u *model.ProductUnit) *dto.UnitResponse {
	return &dto.UnitResponse{
		ID:           u.UnitID,
		ProductID:    u.ProductID,
		SerialNumber: u.SerialNumber,
		Status:       u.Status,
		Condition:    u.Condition,
		Note:         u.Note,
	}
}
