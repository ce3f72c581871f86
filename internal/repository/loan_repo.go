package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Isaaja/wimas-app-sub000/internal/model"
	pkgerrors "github.com/Isaaja/wimas-app-sub000/pkg/errors"
)

// LoanRepository 借用单数据访问接口
type LoanRepository interface {
	Create(ctx context.Context, loan *model.Loan) error
	GetByID(ctx context.Context, id string) (*model.Loan, error)
	// GetForUpdate 锁定借用单行后返回（SELECT ... FOR UPDATE），仅应在事务内调用
	GetForUpdate(ctx context.Context, id string) (*model.Loan, error)
	List(ctx context.Context, borrowerID, status string, offset, limit int) ([]model.Loan, int64, error)
	// ListAllForExport 返回带完整关联的全部借用单（导出用，不分页）
	ListAllForExport(ctx context.Context) ([]model.Loan, error)
	// TransitionStatus 对状态列做 CAS：仅当当前状态为 from 时流转到 to
	// 受影响行数为 0 时返回 ErrStatusConflict（已被并发操作流转）
	TransitionStatus(ctx context.Context, loanID, from, to, actorID string) error

	CreateRequestItems(ctx context.Context, items []model.LoanRequestItem) error
	ReplaceRequestItems(ctx context.Context, loanID string, items []model.LoanRequestItem) error
	DeleteRequestItems(ctx context.Context, loanID string) error
	ListRequestItems(ctx context.Context, loanID string) ([]model.LoanRequestItem, error)

	CreateItems(ctx context.Context, items []model.LoanItem) error
	// ListBoundUnitIDs 返回借用单当前生效绑定的去重单元
	ListBoundUnitIDs(ctx context.Context, loanID string) ([]string, error)
	// ReleaseItems 将借用单的全部生效绑定标记为已释放
	ReleaseItems(ctx context.Context, loanID string, at time.Time) error

	CreateParticipants(ctx context.Context, participants []model.LoanParticipant) error
	CreateReport(ctx context.Context, report *model.Report) error
}

type loanRepo struct {
	db *gorm.DB
}

// NewLoanRepo 创建 LoanRepository 实例
func NewLoanRepo(db *gorm.DB) LoanRepository {
	return &loanRepo{db: db}
}

func (r *loanRepo) Create(ctx context.Context, loan *model.Loan) error {
	return r.db.WithContext(ctx).Create(loan).Error
}

func (r *loanRepo) GetByID(ctx context.Context, id string) (*model.Loan, error) {
	var loan model.Loan
	err := r.db.WithContext(ctx).
		Preload("Borrower").
		Preload("RequestItems").Preload("RequestItems.Product").
		Preload("Items").Preload("Items.Unit").
		Preload("Participants").Preload("Participants.User").
		Preload("Report").
		Where("loan_id = ?", id).
		First(&loan).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

func (r *loanRepo) GetForUpdate(ctx context.Context, id string) (*model.Loan, error) {
	var loan model.Loan
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("loan_id = ?", id).
		First(&loan).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

func (r *loanRepo) List(ctx context.Context, borrowerID, status string, offset, limit int) ([]model.Loan, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Loan{})
	if borrowerID != "" {
		q = q.Where("borrower_id = ?", borrowerID)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var loans []model.Loan
	err := q.Preload("Borrower").
		Preload("Report").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&loans).Error
	return loans, total, err
}

func (r *loanRepo) ListAllForExport(ctx context.Context) ([]model.Loan, error) {
	var loans []model.Loan
	err := r.db.WithContext(ctx).
		Preload("Borrower").
		Preload("Items").Preload("Items.Unit").Preload("Items.Unit.Product").
		Preload("Report").
		Order("created_at DESC").
		Find(&loans).Error
	return loans, err
}

func (r *loanRepo) TransitionStatus(ctx context.Context, loanID, from, to, actorID string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Loan{}).
		Where("loan_id = ? AND status = ?", loanID, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_by": actorID,
			"updated_at": time.Now(),
			"version":    gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrStatusConflict
	}
	return nil
}

// ── 申请行 ──

func (r *loanRepo) CreateRequestItems(ctx context.Context, items []model.LoanRequestItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *loanRepo) ReplaceRequestItems(ctx context.Context, loanID string, items []model.LoanRequestItem) error {
	if err := r.DeleteRequestItems(ctx, loanID); err != nil {
		return err
	}
	return r.CreateRequestItems(ctx, items)
}

func (r *loanRepo) DeleteRequestItems(ctx context.Context, loanID string) error {
	return r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Delete(&model.LoanRequestItem{}).Error
}

func (r *loanRepo) ListRequestItems(ctx context.Context, loanID string) ([]model.LoanRequestItem, error) {
	var items []model.LoanRequestItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("loan_id = ?", loanID).
		Find(&items).Error
	return items, err
}

// ── 单元绑定 ──

func (r *loanRepo) CreateItems(ctx context.Context, items []model.LoanItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *loanRepo) ListBoundUnitIDs(ctx context.Context, loanID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.LoanItem{}).
		Distinct("unit_id").
		Where("loan_id = ? AND released_at IS NULL", loanID).
		Pluck("unit_id", &ids).Error
	return ids, err
}

func (r *loanRepo) ReleaseItems(ctx context.Context, loanID string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.LoanItem{}).
		Where("loan_id = ? AND released_at IS NULL", loanID).
		Update("released_at", at).Error
}

// ── 参与人 / 报告 ──

func (r *loanRepo) CreateParticipants(ctx context.Context, participants []model.LoanParticipant) error {
	if len(participants) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&participants).Error
}

func (r *loanRepo) CreateReport(ctx context.Context, report *model.Report) error {
	return r.db.WithContext(ctx).Create(report).Error
}
